package idmgr

import (
	"log/slog"

	"github.com/roach88/idmgr/internal/metrics"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics records every mint into mt.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// WithSynchronized guards every mutating call with a mutex so the planner
// may call the Manager from several goroutines.
func WithSynchronized() Option {
	return func(m *Manager) {
		m.synchronized = true
	}
}

// WithTokenGenerator sets how the plan token is produced.
// Defaults to UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(m *Manager) {
		if g != nil {
			m.tokens = g
		}
	}
}
