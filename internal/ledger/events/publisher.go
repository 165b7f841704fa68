package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"carecoin/pkg/requestcontext"
)

//go:generate mockgen -source=publisher.go -destination=mocks/mocks.go -package=mocks Sink

// Sink receives events fanned out by the worker.
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

// Publisher hands events from ledger operations to the background worker
// through a bounded inbox. Emit never blocks an operation: when the inbox is
// full the event is dropped and counted, because events are advisory and a
// slow sink must not stall transfers.
type Publisher struct {
	inbox   chan Event
	logger  *slog.Logger
	dropped func()

	mu     sync.Mutex
	closed bool
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithDropCounter registers a callback invoked once per dropped event,
// typically wired to a prometheus counter.
func WithDropCounter(fn func()) Option {
	return func(p *Publisher) { p.dropped = fn }
}

func NewPublisher(logger *slog.Logger, buffer int, opts ...Option) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	p := &Publisher{
		inbox:   make(chan Event, buffer),
		logger:  logger,
		dropped: func() {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit stamps and enqueues an event.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.inbox <- event:
	default:
		p.dropped()
		p.logger.Warn("event inbox full, dropping event",
			"type", event.Type,
			"actor", event.Actor,
		)
	}
}

// Close stops accepting events and lets the worker drain the inbox.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
}

// Worker consumes the publisher inbox and fans out to sinks. Sink failures
// are logged, not retried.
type Worker struct {
	inbox  <-chan Event
	sinks  []Sink
	logger *slog.Logger
}

func NewWorker(p *Publisher, logger *slog.Logger, sinks ...Sink) *Worker {
	return &Worker{inbox: p.inbox, sinks: sinks, logger: logger}
}

// Run delivers events until the context is canceled or the publisher closes.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.deliver(ctx, event)
		}
	}
}

func (w *Worker) deliver(ctx context.Context, event Event) {
	for _, sink := range w.sinks {
		if err := sink.Deliver(ctx, event); err != nil {
			w.logger.Error("event delivery failed",
				"type", event.Type,
				"event_id", event.ID,
				"error", err,
			)
		}
	}
}

// drain flushes whatever is already buffered with a short grace period so a
// shutdown does not silently discard events that operations already emitted.
func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		select {
		case event, ok := <-w.inbox:
			if !ok {
				return
			}
			w.deliver(ctx, event)
		default:
			return
		}
	}
}
