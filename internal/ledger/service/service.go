// Package service implements the CareCoin ledger state machine: balances,
// supply accounting, the pause flag, the blacklist, and the mint audit log.
//
// Every mutating operation validates its preconditions in a fixed, documented
// order (first failure wins) and only then mutates state, so a rejected call
// has no effect. Operations are serialized by a single service-level mutex
// and, when backed by Postgres, run inside one transaction holding the state
// row lock — the conservation invariant sum(balances) == totalMinted relies
// on whole-operation atomicity, not per-field locking.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"carecoin/internal/ledger/events"
	ledgermetrics "carecoin/internal/ledger/metrics"
	"carecoin/internal/ledger/models"
	"carecoin/internal/ledger/store"
	dErrors "carecoin/pkg/domain-errors"
	"carecoin/pkg/platform/sentinel"
	"carecoin/pkg/requestcontext"
)

// StoreTx runs a function atomically against the store. The in-memory
// default executes the function directly; the Postgres runner wraps it in a
// database transaction.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type noopTx struct{}

func (noopTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Publisher is the slice of the events package the service needs.
type Publisher interface {
	Emit(ctx context.Context, event events.Event)
}

type noopPublisher struct{}

func (noopPublisher) Emit(context.Context, events.Event) {}

// Service owns all ledger state transitions. The owner account is fixed at
// construction and never reassigned; there is no ownership-transfer path.
type Service struct {
	store   store.Store
	owner   string
	events  Publisher
	metrics *ledgermetrics.Metrics
	logger  *slog.Logger
	tx      StoreTx
	tracer  trace.Tracer

	// mu serializes mutating operations so each runs as one indivisible
	// transition. Queries read through the store without taking it.
	mu sync.Mutex
}

// Option configures a Service.
type Option func(*serviceConfig)

type serviceConfig struct {
	events  Publisher
	metrics *ledgermetrics.Metrics
	logger  *slog.Logger
	tx      StoreTx
}

func WithEvents(p Publisher) Option {
	return func(cfg *serviceConfig) { cfg.events = p }
}

func WithMetrics(m *ledgermetrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = logger }
}

func WithTx(tx StoreTx) Option {
	return func(cfg *serviceConfig) { cfg.tx = tx }
}

func NewService(st store.Store, owner string, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.events == nil {
		cfg.events = noopPublisher{}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.tx == nil {
		cfg.tx = noopTx{}
	}
	return &Service{
		store:   st,
		owner:   owner,
		events:  cfg.events,
		metrics: cfg.metrics,
		logger:  cfg.logger,
		tx:      cfg.tx,
		tracer:  otel.Tracer("carecoin/ledger"),
	}
}

// Owner returns the administrative account identity.
func (s *Service) Owner() string { return s.owner }

// Transfer moves amount from sender to recipient. Preconditions, checked in
// this order with no partial effects: ledger not paused; caller is the
// sender (self-authorization only, no delegated transfers); amount positive;
// sender balance sufficient; sender not blacklisted; recipient not
// blacklisted. A self-transfer validates normally and succeeds as a balance
// no-op. The optional memo is opaque here and only surfaces in the emitted
// event; its byte bound is enforced where requests enter, at the transport.
func (s *Service) Transfer(ctx context.Context, caller string, amount uint64, sender, recipient string, memo []byte) error {
	ctx, span := s.tracer.Start(ctx, "ledger.transfer",
		trace.WithAttributes(attribute.String("ledger.sender", sender)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.LockState(ctx); err != nil {
			return s.internal(err, "lock state")
		}

		paused, err := s.store.Paused(ctx)
		if err != nil {
			return s.internal(err, "read paused flag")
		}
		if paused {
			return dErrors.New(dErrors.CodePaused, "ledger is paused")
		}
		if caller != sender {
			return dErrors.New(dErrors.CodeUnauthorized, "caller may only move their own tokens")
		}
		if err := models.ValidateAmount(amount); err != nil {
			return err
		}
		senderBalance, err := s.store.Balance(ctx, sender)
		if err != nil {
			return s.internal(err, "read sender balance")
		}
		if senderBalance < amount {
			return dErrors.New(dErrors.CodeInsufficientBalance, "sender balance too low")
		}
		if err := s.checkNotBlacklisted(ctx, sender); err != nil {
			return err
		}
		if err := s.checkNotBlacklisted(ctx, recipient); err != nil {
			return err
		}

		if sender == recipient {
			return nil
		}
		if err := s.store.SetBalance(ctx, sender, senderBalance-amount); err != nil {
			return s.internal(err, "debit sender")
		}
		recipientBalance, err := s.store.Balance(ctx, recipient)
		if err != nil {
			return s.internal(err, "read recipient balance")
		}
		if err := s.store.SetBalance(ctx, recipient, recipientBalance+amount); err != nil {
			return s.internal(err, "credit recipient")
		}
		return nil
	})
	if err != nil {
		return s.reject(ctx, "transfer", err)
	}

	s.metrics.ObserveOperation("transfer", start)
	s.events.Emit(ctx, events.Event{
		Type:      events.TypeTransfer,
		Actor:     caller,
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Memo:      memo,
	})
	return nil
}

// Mint creates amount new tokens for recipient and writes an immutable
// audit record. Preconditions in order: caller is the owner; ledger not
// paused; amount positive; the new total stays within MaxSupply; notes
// within the metadata bound; recipient not blacklisted.
func (s *Service) Mint(ctx context.Context, caller string, amount uint64, recipient, notes string) (uint64, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.mint")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	var mintID uint64
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.LockState(ctx); err != nil {
			return s.internal(err, "lock state")
		}

		if err := s.requireOwner(caller); err != nil {
			return err
		}
		paused, err := s.store.Paused(ctx)
		if err != nil {
			return s.internal(err, "read paused flag")
		}
		if paused {
			return dErrors.New(dErrors.CodePaused, "ledger is paused")
		}
		if err := models.ValidateAmount(amount); err != nil {
			return err
		}
		totalMinted, err := s.store.TotalMinted(ctx)
		if err != nil {
			return s.internal(err, "read total minted")
		}
		if totalMinted+amount > models.MaxSupply || totalMinted+amount < totalMinted {
			return dErrors.New(dErrors.CodeMaxSupplyReached, "mint would exceed max supply")
		}
		if err := models.ValidateNotes(notes); err != nil {
			return err
		}
		if err := s.checkNotBlacklisted(ctx, recipient); err != nil {
			return err
		}

		recipientBalance, err := s.store.Balance(ctx, recipient)
		if err != nil {
			return s.internal(err, "read recipient balance")
		}
		if err := s.store.SetBalance(ctx, recipient, recipientBalance+amount); err != nil {
			return s.internal(err, "credit recipient")
		}
		if err := s.store.SetTotalMinted(ctx, totalMinted+amount); err != nil {
			return s.internal(err, "advance total minted")
		}

		counter, err := s.store.MintCounter(ctx)
		if err != nil {
			return s.internal(err, "read mint counter")
		}
		mintID = counter + 1
		record := models.MintRecord{
			ID:       mintID,
			Minter:   caller,
			Amount:   amount,
			Notes:    notes,
			MintedAt: requestcontext.Now(ctx),
		}
		if err := s.store.AppendMintRecord(ctx, record); err != nil {
			return s.internal(err, "append mint record")
		}
		return nil
	})
	if err != nil {
		return 0, s.reject(ctx, "mint", err)
	}

	s.metrics.ObserveOperation("mint", start)
	s.metrics.AddMinted(amount)
	s.events.Emit(ctx, events.Event{
		Type:      events.TypeMint,
		Actor:     caller,
		Recipient: recipient,
		Amount:    amount,
		MintID:    mintID,
	})
	return mintID, nil
}

// Burn destroys amount tokens from the caller's own balance. Preconditions
// in order: ledger not paused; amount positive; caller balance sufficient.
// There is deliberately no blacklist check: blacklisting restricts acquiring
// and moving funds, not destroying one's own.
func (s *Service) Burn(ctx context.Context, caller string, amount uint64) error {
	ctx, span := s.tracer.Start(ctx, "ledger.burn")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.LockState(ctx); err != nil {
			return s.internal(err, "lock state")
		}

		paused, err := s.store.Paused(ctx)
		if err != nil {
			return s.internal(err, "read paused flag")
		}
		if paused {
			return dErrors.New(dErrors.CodePaused, "ledger is paused")
		}
		if err := models.ValidateAmount(amount); err != nil {
			return err
		}
		balance, err := s.store.Balance(ctx, caller)
		if err != nil {
			return s.internal(err, "read caller balance")
		}
		if balance < amount {
			return dErrors.New(dErrors.CodeInsufficientBalance, "caller balance too low")
		}

		if err := s.store.SetBalance(ctx, caller, balance-amount); err != nil {
			return s.internal(err, "debit caller")
		}
		totalMinted, err := s.store.TotalMinted(ctx)
		if err != nil {
			return s.internal(err, "read total minted")
		}
		if err := s.store.SetTotalMinted(ctx, totalMinted-amount); err != nil {
			return s.internal(err, "reduce total minted")
		}
		return nil
	})
	if err != nil {
		return s.reject(ctx, "burn", err)
	}

	s.metrics.ObserveOperation("burn", start)
	s.metrics.AddBurned(amount)
	s.events.Emit(ctx, events.Event{
		Type:   events.TypeBurn,
		Actor:  caller,
		Amount: amount,
	})
	return nil
}

// Pause halts transfer, mint, and burn. Owner-only. Pausing an already
// paused ledger is a harmless no-op success; a stricter reject-redundant
// policy would also be defensible, but the reference behavior allows it.
func (s *Service) Pause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, true, events.TypePause)
}

// Unpause resumes value movement. Owner-only, no-op when already running.
func (s *Service) Unpause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, false, events.TypeUnpause)
}

func (s *Service) setPaused(ctx context.Context, caller string, paused bool, eventType events.Type) error {
	ctx, span := s.tracer.Start(ctx, "ledger."+string(eventType))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.LockState(ctx); err != nil {
			return s.internal(err, "lock state")
		}
		if err := s.requireOwner(caller); err != nil {
			return err
		}
		if err := s.store.SetPaused(ctx, paused); err != nil {
			return s.internal(err, "set paused flag")
		}
		return nil
	})
	if err != nil {
		return s.reject(ctx, string(eventType), err)
	}

	s.metrics.ObserveOperation(string(eventType), start)
	s.events.Emit(ctx, events.Event{Type: eventType, Actor: caller})
	return nil
}

// Blacklist bars an account from sending or receiving transfers and from
// receiving mints. Owner-only; fails when the account is already a member so
// every state change leaves a clean audit trail.
func (s *Service) Blacklist(ctx context.Context, caller, account string) error {
	ctx, span := s.tracer.Start(ctx, "ledger.blacklist")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.LockState(ctx); err != nil {
			return s.internal(err, "lock state")
		}
		if err := s.requireOwner(caller); err != nil {
			return err
		}
		if err := s.store.AddToBlacklist(ctx, account); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeAlreadyBlacklisted, "account is already blacklisted")
			}
			return s.internal(err, "add to blacklist")
		}
		return nil
	})
	if err != nil {
		return s.reject(ctx, "blacklist", err)
	}

	s.metrics.ObserveOperation("blacklist", start)
	s.events.Emit(ctx, events.Event{Type: events.TypeBlacklist, Actor: caller, Account: account})
	return nil
}

// Unblacklist removes an account from the blacklist. Owner-only; fails when
// the account is not a member.
func (s *Service) Unblacklist(ctx context.Context, caller, account string) error {
	ctx, span := s.tracer.Start(ctx, "ledger.unblacklist")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.LockState(ctx); err != nil {
			return s.internal(err, "lock state")
		}
		if err := s.requireOwner(caller); err != nil {
			return err
		}
		if err := s.store.RemoveFromBlacklist(ctx, account); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotBlacklisted, "account is not blacklisted")
			}
			return s.internal(err, "remove from blacklist")
		}
		return nil
	})
	if err != nil {
		return s.reject(ctx, "unblacklist", err)
	}

	s.metrics.ObserveOperation("unblacklist", start)
	s.events.Emit(ctx, events.Event{Type: events.TypeUnblacklist, Actor: caller, Account: account})
	return nil
}

// SetTokenURI points the token at off-chain metadata. Owner-only; a nil URI
// clears the pointer.
func (s *Service) SetTokenURI(ctx context.Context, caller string, uri *string) error {
	ctx, span := s.tracer.Start(ctx, "ledger.set_token_uri")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.LockState(ctx); err != nil {
			return s.internal(err, "lock state")
		}
		if err := s.requireOwner(caller); err != nil {
			return err
		}
		if err := models.ValidateURI(uri); err != nil {
			return err
		}
		if err := s.store.SetTokenURI(ctx, uri); err != nil {
			return s.internal(err, "set token uri")
		}
		return nil
	})
	if err != nil {
		return s.reject(ctx, "set_token_uri", err)
	}

	s.metrics.ObserveOperation("set_token_uri", start)
	s.events.Emit(ctx, events.Event{Type: events.TypeSetTokenURI, Actor: caller})
	return nil
}

func (s *Service) requireOwner(caller string) error {
	if caller != s.owner {
		return dErrors.New(dErrors.CodeOwnerOnly, "operation restricted to the ledger owner")
	}
	return nil
}

func (s *Service) checkNotBlacklisted(ctx context.Context, account string) error {
	blacklisted, err := s.store.IsBlacklisted(ctx, account)
	if err != nil {
		return s.internal(err, "check blacklist")
	}
	if blacklisted {
		return dErrors.Newf(dErrors.CodeBlacklisted, "account %s is blacklisted", account)
	}
	return nil
}

func (s *Service) internal(err error, message string) error {
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}

// reject records the failure and logs internal ones; validation rejections
// are normal traffic and stay at debug level.
func (s *Service) reject(ctx context.Context, operation string, err error) error {
	code := dErrors.CodeOf(err)
	s.metrics.ObserveRejection(operation, string(code))
	if code == dErrors.CodeInternal {
		s.logger.ErrorContext(ctx, "ledger operation failed",
			"operation", operation,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		s.logger.DebugContext(ctx, "ledger operation rejected",
			"operation", operation,
			"code", code,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return err
}
