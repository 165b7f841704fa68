package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeExtraction(t *testing.T) {
	t.Run("New carries its code", func(t *testing.T) {
		err := New(CodePaused, "ledger is paused")
		assert.True(t, HasCode(err, CodePaused))
		assert.Equal(t, CodePaused, CodeOf(err))
	})

	t.Run("wrapped domain errors keep their code through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeOwnerOnly, "nope"))
		assert.True(t, HasCode(err, CodeOwnerOnly))
	})

	t.Run("uncoded errors collapse to internal", func(t *testing.T) {
		err := errors.New("disk on fire")
		assert.Equal(t, CodeInternal, CodeOf(err))
		assert.False(t, HasCode(err, CodePaused))
	})

	t.Run("Wrap preserves the cause chain", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(cause, CodeInternal, "read balance")
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, CodeInternal, CodeOf(err))
	})

	t.Run("Wrap of nil is nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "x"))
	})
}

func TestNumericIDs(t *testing.T) {
	// The ids mirror the on-chain u100 error block and must never drift.
	expected := map[Code]int{
		CodeOwnerOnly:           100,
		CodeUnauthorized:        101,
		CodeInsufficientBalance: 102,
		CodeInvalidAmount:       103,
		CodeMaxSupplyReached:    104,
		CodePaused:              105,
		CodeBlacklisted:         106,
		CodeInvalidMetadata:     107,
		CodeAlreadyBlacklisted:  108,
		CodeNotBlacklisted:      109,
	}
	for code, id := range expected {
		assert.Equal(t, id, NumericID(code), "code %s", code)
	}

	t.Run("transport codes have no on-chain id", func(t *testing.T) {
		assert.Zero(t, NumericID(CodeBadRequest))
		assert.Zero(t, NumericID(CodeInternal))
	})
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, ToHTTPStatus(CodeOwnerOnly))
	assert.Equal(t, http.StatusUnprocessableEntity, ToHTTPStatus(CodeInsufficientBalance))
	assert.Equal(t, http.StatusConflict, ToHTTPStatus(CodePaused))
	assert.Equal(t, http.StatusUnauthorized, ToHTTPStatus(CodeUnauthenticated))

	t.Run("unknown codes map to 500", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(Code("made-up")))
	})
}
