package models

import (
	"time"

	dErrors "carecoin/pkg/domain-errors"
)

// Token-level constants exposed to collaborating services. These are fixed
// for the lifetime of the ledger; MaxSupply in particular is the immutable
// ceiling that the mint path enforces.
const (
	TokenName   = "CareCoin"
	TokenSymbol = "CARE"
	Decimals    = 8

	// MaxSupply is the ceiling on tokens ever in circulation, in base units.
	MaxSupply uint64 = 1_000_000_000

	// MaxMetadataLen bounds mint notes and the token URI, in characters.
	MaxMetadataLen = 256

	// MaxMemoLen bounds the optional transfer memo, in bytes.
	MaxMemoLen = 34
)

// MintRecord is the immutable audit entry written once per successful mint.
//
// Invariants:
//   - ID is allocated from a counter that starts at 1 and increases by
//     exactly 1 per successful mint; ids are never reused
//   - Minter is always the ledger owner (mint is owner-gated)
//   - Records are never updated or deleted after being written
type MintRecord struct {
	ID       uint64    `json:"id"`
	Minter   string    `json:"minter"`
	Amount   uint64    `json:"amount"`
	Notes    string    `json:"notes"`
	MintedAt time.Time `json:"minted_at"`
}

// ValidateAmount rejects the zero amount shared by transfer, mint, and burn.
// Amounts are unsigned, so negative values cannot be represented.
func ValidateAmount(amount uint64) error {
	if amount == 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount must be positive")
	}
	return nil
}

// ValidateNotes bounds the free-text notes attached to a mint record.
func ValidateNotes(notes string) error {
	if len(notes) > MaxMetadataLen {
		return dErrors.Newf(dErrors.CodeInvalidMetadata, "notes exceed %d characters", MaxMetadataLen)
	}
	return nil
}

// ValidateMemo bounds the optional transfer memo. The memo is advisory and
// only surfaces in emitted events; an oversized memo is a malformed request,
// not a ledger state error.
func ValidateMemo(memo []byte) error {
	if len(memo) > MaxMemoLen {
		return dErrors.Newf(dErrors.CodeBadRequest, "memo exceeds %d bytes", MaxMemoLen)
	}
	return nil
}

// ValidateURI bounds the owner-settable token URI. A nil URI clears the
// pointer, so only present values are length-checked.
func ValidateURI(uri *string) error {
	if uri != nil && len(*uri) > MaxMetadataLen {
		return dErrors.Newf(dErrors.CodeBadRequest, "token URI exceeds %d characters", MaxMetadataLen)
	}
	return nil
}
