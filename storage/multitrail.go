package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/aml-oracle-backend/audit"
)

// TrailBackend is an audit sink with health and identity accessors, the
// unit the factory assembles multi-backend trails from.
type TrailBackend interface {
	audit.Sink
	Available(ctx context.Context) bool
	Name() string
	LocationURI() string
}

// MultiTrailBackend fans an audit event out to multiple trail backends for
// redundancy. An append succeeds if at least one backend accepted it.
type MultiTrailBackend struct {
	backends []TrailBackend
	log      *slog.Logger
}

// NewMultiTrailBackend creates a new multi-trail backend.
func NewMultiTrailBackend(backends []TrailBackend, logger *slog.Logger) *MultiTrailBackend {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiTrailBackend{
		backends: backends,
		log:      logger,
	}
}

// Append writes the event to all available backends.
func (m *MultiTrailBackend) Append(ctx context.Context, ev audit.Event) error {
	start := time.Now()
	var success bool
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("event_id", ev.ID.String()))
			continue
		}

		if err := backend.Append(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Debug("Failed to append to backend",
				slog.String("backend_name", backend.Name()),
				slog.String("event_id", ev.ID.String()),
				"err", err)
			continue
		}
		success = true
	}

	if !success {
		m.log.Error("All backends failed to persist event",
			slog.String("event_id", ev.ID.String()),
			slog.Int("failed_backends", len(errs)),
			slog.Duration("duration", time.Since(start)))
		return fmt.Errorf("all backends failed to persist event %s: %v", ev.ID, errs)
	}

	return nil
}

// Available checks if any backend is available.
func (m *MultiTrailBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns the name of this backend.
func (m *MultiTrailBackend) Name() string {
	return "multi-trail"
}

// LocationURI returns the combined URI of all aggregated backends.
func (m *MultiTrailBackend) LocationURI() string {
	var locations []string
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}
