package audit

import (
	"context"
	"log/slog"
	"sync"
)

// Sink receives committed audit events. Implementations must tolerate being
// called from a single goroutine at a time; the oracle serializes emission
// with its transaction order.
type Sink interface {
	Append(ctx context.Context, ev Event) error
}

// SlogSink writes events to a structured logger. It is the default sink of
// a deployment without configured persistent backends.
type SlogSink struct {
	Log *slog.Logger
}

// Append logs the event at info level with its flat attributes.
func (s *SlogSink) Append(_ context.Context, ev Event) error {
	attrs := []any{
		slog.String("id", ev.ID.String()),
		slog.String("kind", string(ev.Kind)),
		slog.Time("at", ev.At),
		slog.String("caller", ev.Caller),
	}
	if ev.Client != "" {
		attrs = append(attrs, slog.String("client", ev.Client))
	}
	if ev.Target != "" {
		attrs = append(attrs, slog.String("target", ev.Target))
	}
	if ev.Amount != nil {
		attrs = append(attrs, slog.String("amount", ev.Amount.String()))
	}
	if ev.Fee != nil {
		attrs = append(attrs, slog.String("fee", ev.Fee.String()))
	}
	s.Log.Info("audit event", attrs...)
	return nil
}

// MemorySink retains events in memory, oldest first. Intended for tests and
// for the read-your-own-audit debug endpoint.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// Append stores the event.
func (s *MemorySink) Append(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of all retained events.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Fanout forwards each event to every sink, continuing past individual
// failures and returning the first error encountered.
type Fanout []Sink

// Append forwards the event to all sinks.
func (f Fanout) Append(ctx context.Context, ev Event) error {
	var firstErr error
	for _, s := range f {
		if err := s.Append(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
