package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"carecoin/internal/transport/http/shared"
	dErrors "carecoin/pkg/domain-errors"
)

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	uri, err := h.ledger.TokenURI(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, InfoResponse{
		Name:        h.ledger.Name(),
		Symbol:      h.ledger.Symbol(),
		Decimals:    h.ledger.Decimals(),
		TotalSupply: h.ledger.TotalSupply(),
		TokenURI:    uri,
	})
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account := chi.URLParam(r, "account")

	if balance, ok := h.balances.Get(ctx, account); ok {
		shared.WriteJSON(w, http.StatusOK, BalanceResponse{Account: account, Balance: balance})
		return
	}

	balance, err := h.ledger.Balance(ctx, account)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	h.balances.Set(ctx, account, balance)
	shared.WriteJSON(w, http.StatusOK, BalanceResponse{Account: account, Balance: balance})
}

func (h *Handler) handleSupply(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, SupplyResponse{TotalSupply: h.ledger.TotalSupply()})
}

func (h *Handler) handleMinted(w http.ResponseWriter, r *http.Request) {
	total, err := h.ledger.TotalMinted(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, MintedResponse{TotalMinted: total})
}

func (h *Handler) handlePaused(w http.ResponseWriter, r *http.Request) {
	paused, err := h.ledger.IsPaused(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, PausedResponse{Paused: paused})
}

func (h *Handler) handleBlacklisted(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	blacklisted, err := h.ledger.IsBlacklisted(r.Context(), account)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, BlacklistedResponse{Account: account, Blacklisted: blacklisted})
}

func (h *Handler) handleMintRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "mint id must be a positive integer"))
		return
	}

	record, err := h.ledger.MintMetadata(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	// Unknown ids are a defined default (absent record), not an error.
	shared.WriteJSON(w, http.StatusOK, MintRecordResponse{Record: record})
}

func (h *Handler) handleMintCounter(w http.ResponseWriter, r *http.Request) {
	counter, err := h.ledger.MintCounter(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, MintCounterResponse{MintCounter: counter})
}
