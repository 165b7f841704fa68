package handler

import "carecoin/internal/ledger/models"

// Request bodies carry the explicit operation arguments; the caller identity
// always comes from the authenticated token, never from the body.

type TransferRequest struct {
	Amount    uint64 `json:"amount"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Memo      string `json:"memo,omitempty"`
}

type MintRequest struct {
	Amount    uint64 `json:"amount"`
	Recipient string `json:"recipient"`
	Notes     string `json:"notes"`
}

type BurnRequest struct {
	Amount uint64 `json:"amount"`
}

type BlacklistRequest struct {
	Account string `json:"account"`
}

type TokenURIRequest struct {
	// URI null clears the pointer; a present string sets it.
	URI *string `json:"uri"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type MintResponse struct {
	OK     bool   `json:"ok"`
	MintID uint64 `json:"mint_id"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

type SupplyResponse struct {
	TotalSupply uint64 `json:"total_supply"`
}

type MintedResponse struct {
	TotalMinted uint64 `json:"total_minted"`
}

type PausedResponse struct {
	Paused bool `json:"paused"`
}

type BlacklistedResponse struct {
	Account     string `json:"account"`
	Blacklisted bool   `json:"blacklisted"`
}

type MintCounterResponse struct {
	MintCounter uint64 `json:"mint_counter"`
}

type InfoResponse struct {
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Decimals    int     `json:"decimals"`
	TotalSupply uint64  `json:"total_supply"`
	TokenURI    *string `json:"token_uri"`
}

type MintRecordResponse struct {
	Record *models.MintRecord `json:"record"`
}
