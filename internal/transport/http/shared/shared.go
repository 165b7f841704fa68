// Package shared centralizes JSON envelopes and domain-error translation so
// every endpoint returns the same shape.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "carecoin/pkg/domain-errors"
)

// ErrorResponse is the envelope for every failed call: a symbolic code plus
// the stable numeric id off-chain consumers key on (0 for transport codes).
type ErrorResponse struct {
	Error   string `json:"error"`
	ErrorID int    `json:"error_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates a domain error into an HTTP response. Uncoded errors
// collapse to internal so raw failures never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{
		Error:   string(code),
		ErrorID: dErrors.NumericID(code),
	}
	var de *dErrors.DomainError
	if errors.As(err, &de) && code != dErrors.CodeInternal {
		resp.Message = de.Message
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}
