// File: server/options.go
// Package server defines functional options for the event loop.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"log/slog"

	"github.com/momentics/evserve/api"
	"github.com/momentics/evserve/control"
)

// Option customizes server initialization.
type Option func(*Server)

// WithScheduler attaches the scheduler handlers are submitted to. Without
// one, handlers run inline on the loop goroutine.
func WithScheduler(sched api.Scheduler) Option {
	return func(s *Server) {
		s.sched = sched
	}
}

// WithHandlerFactory sets the per-event handler constructor.
func WithHandlerFactory(f api.HandlerFactory) Option {
	return func(s *Server) {
		if f != nil {
			s.factory = f
		}
	}
}

// WithLogger sets the logger used by the loop and exposed to handlers.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *control.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithConfigStore publishes the effective config into store once bound.
func WithConfigStore(store *control.ConfigStore) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithDebugProbes registers server state probes.
func WithDebugProbes(p *control.DebugProbes) Option {
	return func(s *Server) {
		s.probes = p
	}
}
