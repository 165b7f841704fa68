package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"carecoin/internal/ledger/models"
	"carecoin/pkg/platform/sentinel"
	"carecoin/pkg/platform/tx"
)

// Postgres persists the ledger in PostgreSQL. The store is pure I/O — the
// service owns validation ordering and supply accounting. All methods honor
// a transaction carried in the context so a whole ledger operation commits
// or rolls back as one unit.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres opens and pings a PostgreSQL connection.
func OpenPostgres(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the ledger tables and the singleton state row.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ledger_state (
			id SMALLINT PRIMARY KEY CHECK (id = 1),
			total_minted BIGINT NOT NULL DEFAULT 0 CHECK (total_minted >= 0),
			mint_counter BIGINT NOT NULL DEFAULT 0 CHECK (mint_counter >= 0),
			paused BOOLEAN NOT NULL DEFAULT FALSE,
			token_uri TEXT
		)`,
		`INSERT INTO ledger_state (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,
		`CREATE TABLE IF NOT EXISTS ledger_balances (
			account TEXT PRIMARY KEY,
			balance BIGINT NOT NULL CHECK (balance >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_blacklist (
			account TEXT PRIMARY KEY,
			added_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_mints (
			id BIGINT PRIMARY KEY,
			minter TEXT NOT NULL,
			amount BIGINT NOT NULL CHECK (amount > 0),
			notes TEXT NOT NULL,
			minted_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("ensure ledger schema: %w", err)
		}
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) querier {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

func (s *Postgres) Balance(ctx context.Context, account string) (uint64, error) {
	var balance int64
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT balance FROM ledger_balances WHERE account = $1`, account).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return uint64(balance), nil
}

func (s *Postgres) SetBalance(ctx context.Context, account string, balance uint64) error {
	if balance == 0 {
		if _, err := s.q(ctx).ExecContext(ctx,
			`DELETE FROM ledger_balances WHERE account = $1`, account); err != nil {
			return fmt.Errorf("clear balance: %w", err)
		}
		return nil
	}
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO ledger_balances (account, balance)
		VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET balance = EXCLUDED.balance
	`, account, int64(balance))
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

func (s *Postgres) TotalMinted(ctx context.Context) (uint64, error) {
	var total int64
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT total_minted FROM ledger_state WHERE id = 1`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("get total minted: %w", err)
	}
	return uint64(total), nil
}

func (s *Postgres) SetTotalMinted(ctx context.Context, total uint64) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE ledger_state SET total_minted = $1 WHERE id = 1`, int64(total))
	if err != nil {
		return fmt.Errorf("set total minted: %w", err)
	}
	return nil
}

func (s *Postgres) Paused(ctx context.Context) (bool, error) {
	var paused bool
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT paused FROM ledger_state WHERE id = 1`).Scan(&paused)
	if err != nil {
		return false, fmt.Errorf("get paused: %w", err)
	}
	return paused, nil
}

func (s *Postgres) SetPaused(ctx context.Context, paused bool) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE ledger_state SET paused = $1 WHERE id = 1`, paused)
	if err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	return nil
}

func (s *Postgres) IsBlacklisted(ctx context.Context, account string) (bool, error) {
	var exists bool
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_blacklist WHERE account = $1)`, account).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return exists, nil
}

func (s *Postgres) AddToBlacklist(ctx context.Context, account string) error {
	result, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO ledger_blacklist (account) VALUES ($1)
		ON CONFLICT (account) DO NOTHING
	`, account)
	if err != nil {
		return fmt.Errorf("add to blacklist: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("add to blacklist: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) RemoveFromBlacklist(ctx context.Context, account string) error {
	result, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM ledger_blacklist WHERE account = $1`, account)
	if err != nil {
		return fmt.Errorf("remove from blacklist: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove from blacklist: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) TokenURI(ctx context.Context) (*string, error) {
	var uri sql.NullString
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT token_uri FROM ledger_state WHERE id = 1`).Scan(&uri)
	if err != nil {
		return nil, fmt.Errorf("get token uri: %w", err)
	}
	if !uri.Valid {
		return nil, nil
	}
	return &uri.String, nil
}

func (s *Postgres) SetTokenURI(ctx context.Context, uri *string) error {
	var value sql.NullString
	if uri != nil {
		value = sql.NullString{String: *uri, Valid: true}
	}
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE ledger_state SET token_uri = $1 WHERE id = 1`, value)
	if err != nil {
		return fmt.Errorf("set token uri: %w", err)
	}
	return nil
}

func (s *Postgres) MintCounter(ctx context.Context) (uint64, error) {
	var counter int64
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT mint_counter FROM ledger_state WHERE id = 1`).Scan(&counter)
	if err != nil {
		return 0, fmt.Errorf("get mint counter: %w", err)
	}
	return uint64(counter), nil
}

func (s *Postgres) AppendMintRecord(ctx context.Context, record models.MintRecord) error {
	result, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO ledger_mints (id, minter, amount, notes, minted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, int64(record.ID), record.Minter, int64(record.Amount), record.Notes, record.MintedAt)
	if err != nil {
		return fmt.Errorf("append mint record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("append mint record: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	if _, err := s.q(ctx).ExecContext(ctx,
		`UPDATE ledger_state SET mint_counter = $1 WHERE id = 1`, int64(record.ID)); err != nil {
		return fmt.Errorf("advance mint counter: %w", err)
	}
	return nil
}

func (s *Postgres) MintRecord(ctx context.Context, id uint64) (*models.MintRecord, error) {
	record := models.MintRecord{}
	var amount int64
	var recID int64
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, minter, amount, notes, minted_at
		FROM ledger_mints WHERE id = $1
	`, int64(id)).Scan(&recID, &record.Minter, &amount, &record.Notes, &record.MintedAt)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mint record: %w", err)
	}
	record.ID = uint64(recID)
	record.Amount = uint64(amount)
	return &record, nil
}

// LockState takes a row lock on the singleton state row, serializing
// mutating operations across processes for the rest of the surrounding
// transaction. Outside a transaction the lock would release immediately, so
// this is only meaningful under RunInTx.
func (s *Postgres) LockState(ctx context.Context) error {
	var id int16
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT id FROM ledger_state WHERE id = 1 FOR UPDATE`).Scan(&id)
	if err != nil {
		return fmt.Errorf("lock ledger state: %w", err)
	}
	return nil
}

// TxRunner runs a function inside a database transaction carried via the
// context, satisfying the service's StoreTx dependency.
type TxRunner struct {
	db *sql.DB
}

func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

func (r *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return tx.RunInTx(ctx, r.db, fn)
}
