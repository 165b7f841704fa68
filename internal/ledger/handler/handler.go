package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"carecoin/internal/ledger/cache"
	"carecoin/internal/ledger/models"
	"carecoin/internal/platform/middleware"
	"carecoin/internal/transport/http/shared"
	dErrors "carecoin/pkg/domain-errors"
	"carecoin/pkg/requestcontext"
)

// Service defines the ledger surface the HTTP layer delegates to.
type Service interface {
	Transfer(ctx context.Context, caller string, amount uint64, sender, recipient string, memo []byte) error
	Mint(ctx context.Context, caller string, amount uint64, recipient, notes string) (uint64, error)
	Burn(ctx context.Context, caller string, amount uint64) error
	Pause(ctx context.Context, caller string) error
	Unpause(ctx context.Context, caller string) error
	Blacklist(ctx context.Context, caller, account string) error
	Unblacklist(ctx context.Context, caller, account string) error
	SetTokenURI(ctx context.Context, caller string, uri *string) error

	Name() string
	Symbol() string
	Decimals() int
	TotalSupply() uint64
	Balance(ctx context.Context, account string) (uint64, error)
	TotalMinted(ctx context.Context) (uint64, error)
	IsPaused(ctx context.Context) (bool, error)
	IsBlacklisted(ctx context.Context, account string) (bool, error)
	TokenURI(ctx context.Context) (*string, error)
	MintCounter(ctx context.Context) (uint64, error)
	MintMetadata(ctx context.Context, id uint64) (*models.MintRecord, error)
}

// Handler is the thin HTTP layer over the ledger service. Transport-level
// bounds (malformed bodies, oversized memo, missing accounts) are rejected
// here as bad requests; ledger validation order stays inside the service.
type Handler struct {
	logger       *slog.Logger
	ledger       Service
	balances     *cache.BalanceCache
	jwtValidator middleware.TokenValidator
}

// New creates a ledger Handler. balances may be nil when no cache is
// configured.
func New(ledger Service, logger *slog.Logger, balances *cache.BalanceCache, jwtValidator middleware.TokenValidator) *Handler {
	return &Handler{
		logger:       logger,
		ledger:       ledger,
		balances:     balances,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the ledger routes. Mutating operations require a bearer
// token; queries are public projections.
func (h *Handler) Register(r chi.Router) {
	ledgerRouter := chi.NewRouter()
	ledgerRouter.Use(middleware.Recovery(h.logger))
	ledgerRouter.Use(middleware.RequestID)
	ledgerRouter.Use(middleware.Logger(h.logger))

	ledgerRouter.Group(func(ops chi.Router) {
		ops.Use(middleware.Timeout(30 * time.Second))
		ops.Use(middleware.ContentTypeJSON)
		ops.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		ops.Post("/transfer", h.handleTransfer)
		ops.Post("/mint", h.handleMint)
		ops.Post("/burn", h.handleBurn)
		ops.Post("/pause", h.handlePause)
		ops.Post("/unpause", h.handleUnpause)
		ops.Post("/blacklist", h.handleBlacklist)
		ops.Post("/unblacklist", h.handleUnblacklist)
		ops.Post("/token-uri", h.handleSetTokenURI)
	})

	ledgerRouter.Group(func(queries chi.Router) {
		queries.Use(middleware.Timeout(10 * time.Second))
		queries.Get("/info", h.handleInfo)
		queries.Get("/balance/{account}", h.handleBalance)
		queries.Get("/supply", h.handleSupply)
		queries.Get("/minted", h.handleMinted)
		queries.Get("/paused", h.handlePaused)
		queries.Get("/blacklisted/{account}", h.handleBlacklisted)
		queries.Get("/mints/{id}", h.handleMintRecord)
		queries.Get("/mint-counter", h.handleMintCounter)
	})

	r.Mount("/ledger", ledgerRouter)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Sender == "" || req.Recipient == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "sender and recipient are required"))
		return
	}
	memo := []byte(req.Memo)
	if err := models.ValidateMemo(memo); err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.ledger.Transfer(ctx, caller, req.Amount, req.Sender, req.Recipient, memo); err != nil {
		shared.WriteError(w, err)
		return
	}
	h.balances.Invalidate(ctx, req.Sender, req.Recipient)
	shared.WriteJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Recipient == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "recipient is required"))
		return
	}

	mintID, err := h.ledger.Mint(ctx, caller, req.Amount, req.Recipient, req.Notes)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	h.balances.Invalidate(ctx, req.Recipient)
	shared.WriteJSON(w, http.StatusOK, MintResponse{OK: true, MintID: mintID})
}

func (h *Handler) handleBurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req BurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.ledger.Burn(ctx, caller, req.Amount); err != nil {
		shared.WriteError(w, err)
		return
	}
	h.balances.Invalidate(ctx, caller)
	shared.WriteJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.ledger.Pause(ctx, requestcontext.Caller(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (h *Handler) handleUnpause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.ledger.Unpause(ctx, requestcontext.Caller(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (h *Handler) handleBlacklist(w http.ResponseWriter, r *http.Request) {
	h.handleBlacklistToggle(w, r, h.ledger.Blacklist)
}

func (h *Handler) handleUnblacklist(w http.ResponseWriter, r *http.Request) {
	h.handleBlacklistToggle(w, r, h.ledger.Unblacklist)
}

func (h *Handler) handleBlacklistToggle(w http.ResponseWriter, r *http.Request, toggle func(ctx context.Context, caller, account string) error) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req BlacklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Account == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "account is required"))
		return
	}

	if err := toggle(ctx, caller, req.Account); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (h *Handler) handleSetTokenURI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req TokenURIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.ledger.SetTokenURI(ctx, caller, req.URI); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, OKResponse{OK: true})
}
