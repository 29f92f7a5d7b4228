// File: httpserver/server.go
// Package httpserver serves files over a minimal HTTP/1.0 exchange: one
// request per connection, GET and HEAD by default, each handled as a step
// task so it can be multiplexed.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpserver

import (
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/momentics/evserve/api"
	"github.com/momentics/evserve/server"
)

const tracerName = "github.com/momentics/evserve/httpserver"

// Option customizes connection handling.
type Option func(*options)

type options struct {
	registry   *Registry
	resolver   Resolver
	tracer     trace.Tracer
	serverOpts []server.Option
}

func buildOptions(opts []Option) *options {
	o := &options{
		registry: DefaultRegistry,
		resolver: NewResolver(".", true),
		tracer:   otel.Tracer(tracerName),
	}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

// WithRegistry replaces DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithResolver overrides resource resolution, e.g. to pin every request
// to a single file.
func WithResolver(r Resolver) Option {
	return func(o *options) {
		if r != nil {
			o.resolver = r
		}
	}
}

// WithTracer sets the tracer for per-connection spans. The default comes
// from the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithServerOptions passes options through to server.New.
func WithServerOptions(opts ...server.Option) Option {
	return func(o *options) {
		o.serverOpts = append(o.serverOpts, opts...)
	}
}

// NewHandlerFactory returns a factory building a ConnectionHandler per
// connection event.
func NewHandlerFactory(opts ...Option) api.HandlerFactory {
	return buildOptions(opts).factory()
}

func (o *options) factory() api.HandlerFactory {
	return func(ev api.Event) (api.Handler, error) {
		ce, ok := ev.(api.ConnectionEvent)
		if !ok {
			return nil, fmt.Errorf("httpserver: unexpected %s event", ev.Kind())
		}
		return newConnectionHandler(ce, o), nil
	}
}

// NewServer binds a stream server serving root, creating root if missing.
// Resources are confined beneath root unless WithResolver says otherwise.
func NewServer(cfg *server.Config, root string, opts ...Option) (*server.Server, error) {
	if cfg == nil {
		cfg = server.TCPConfig()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create root %s: %w", root, err)
	}
	opts = append([]Option{WithResolver(NewResolver(root, true))}, opts...)
	o := buildOptions(opts)
	srvOpts := append(append([]server.Option(nil), o.serverOpts...), server.WithHandlerFactory(o.factory()))
	return server.NewTCPServer(cfg, srvOpts...)
}
