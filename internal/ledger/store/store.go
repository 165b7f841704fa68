package store

import (
	"context"

	"carecoin/internal/ledger/models"
)

// Store is the durable record behind the ledger. Implementations are pure
// I/O: validation ordering, supply accounting, and blacklist policy all live
// in the service layer. Absent keys read as defined defaults (zero balance,
// not blacklisted, no mint record) rather than errors.
//
// Writes that express a toggle (blacklist membership, mint append) return
// sentinel errors for redundant state so the service can translate them,
// while reads never fail on missing data.
type Store interface {
	// Balance returns the balance for an account, zero when the account has
	// never held tokens.
	Balance(ctx context.Context, account string) (uint64, error)
	// SetBalance upserts an account balance.
	SetBalance(ctx context.Context, account string, balance uint64) error

	// TotalMinted returns the net tokens created minus burned.
	TotalMinted(ctx context.Context) (uint64, error)
	SetTotalMinted(ctx context.Context, total uint64) error

	Paused(ctx context.Context) (bool, error)
	SetPaused(ctx context.Context, paused bool) error

	IsBlacklisted(ctx context.Context, account string) (bool, error)
	// AddToBlacklist returns sentinel.ErrConflict when the account is
	// already a member.
	AddToBlacklist(ctx context.Context, account string) error
	// RemoveFromBlacklist returns sentinel.ErrNotFound when the account is
	// not a member.
	RemoveFromBlacklist(ctx context.Context, account string) error

	TokenURI(ctx context.Context) (*string, error)
	SetTokenURI(ctx context.Context, uri *string) error

	// MintCounter returns the id of the most recent mint record, zero before
	// the first mint.
	MintCounter(ctx context.Context) (uint64, error)
	// AppendMintRecord writes an immutable mint record and advances the
	// mint counter to the record's id. Returns sentinel.ErrConflict when the
	// id is already taken.
	AppendMintRecord(ctx context.Context, record models.MintRecord) error
	// MintRecord returns the record for an id, sentinel.ErrNotFound when the
	// id was never allocated.
	MintRecord(ctx context.Context, id uint64) (*models.MintRecord, error)

	// LockState serializes concurrent mutators across processes. In-memory
	// stores rely on the service-level lock and treat this as a no-op;
	// Postgres takes a row lock on the singleton state row for the duration
	// of the surrounding transaction.
	LockState(ctx context.Context) error
}
