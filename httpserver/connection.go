// File: httpserver/connection.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/momentics/evserve/api"
	"github.com/momentics/evserve/control"
)

// ConnectionHandler owns one accepted connection. Its first step reads the
// request and picks the method handler; later steps delegate to it. The
// connection is closed exactly once, whichever way the exchange ends.
type ConnectionHandler struct {
	ev     api.ConnectionEvent
	srv    api.Server
	opts   *options
	logger *slog.Logger

	metrics *control.Metrics
	remote  string
	started bool
	handler RequestHandler
	code    int
	message string
	span    trace.Span

	closeOnce sync.Once
}

var (
	_ api.Handler = (*ConnectionHandler)(nil)
	_ io.Closer   = (*ConnectionHandler)(nil)
)

type metricsSource interface {
	Metrics() *control.Metrics
}

// NewConnectionHandler binds a handler to ev.
func NewConnectionHandler(ev api.ConnectionEvent, opts ...Option) *ConnectionHandler {
	return newConnectionHandler(ev, buildOptions(opts))
}

func newConnectionHandler(ev api.ConnectionEvent, o *options) *ConnectionHandler {
	c := &ConnectionHandler{
		ev:     ev,
		srv:    ev.Origin(),
		opts:   o,
		logger: ev.Origin().Logger(),
		remote: api.AddrString(ev.Remote),
	}
	if ms, ok := c.srv.(metricsSource); ok {
		c.metrics = ms.Metrics()
	}
	return c
}

func (c *ConnectionHandler) Event() api.Event { return c.ev }

// Status returns the final status of the exchange, 0 while it is running
// or when no request could be read.
func (c *ConnectionHandler) Status() (int, string) { return c.code, c.message }

func (c *ConnectionHandler) Step() error {
	if !c.started {
		c.started = true
		c.begin()
		if c.handler == nil {
			c.finish()
			return api.ErrExhausted
		}
		return nil
	}
	if c.handler != nil && c.srv.Alive() {
		err := c.delegate()
		if err == nil {
			return nil
		}
		if !errors.Is(err, api.ErrExhausted) {
			c.fail(err)
		}
	}
	c.finish()
	return api.ErrExhausted
}

// Close ends the exchange early, e.g. when a scheduler drops the task.
func (c *ConnectionHandler) Close() error {
	c.finish()
	return nil
}

func (c *ConnectionHandler) begin() {
	_, c.span = c.opts.tracer.Start(context.Background(), "evserve.http.connection",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("net.peer.addr", c.remote)),
	)
	c.metrics.ConnOpened()

	defer func() {
		if r := recover(); r != nil {
			c.handler = nil
			c.fail(api.NewPanicError(r))
		}
	}()

	req, err := ReadRequest(NewReader(c.ev.Conn, c.srv.Timeout(), c.srv.Alive))
	if err != nil {
		c.fail(fmt.Errorf("read request: %w", err))
		return
	}
	path := c.opts.resolver(req.Resource)
	c.logger.Info("handling request", "method", req.Method, "path", path, "remote", c.remote)
	c.span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.target", req.Resource),
	)

	c.handler = c.opts.registry.Handler(&Exchange{
		Conn:    c.ev.Conn,
		Request: req,
		Path:    path,
		Timeout: c.srv.Timeout(),
		Logger:  c.logger,
		Metrics: c.metrics,
	})
}

func (c *ConnectionHandler) delegate() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = api.NewPanicError(r)
		}
	}()
	return c.handler.Step()
}

func (c *ConnectionHandler) fail(err error) {
	stack := string(debug.Stack())
	var pe *api.PanicError
	if errors.As(err, &pe) {
		stack = pe.Stack
	}
	c.logger.Error("handling connection", "remote", c.remote, "err", err, "stack", stack)
	if c.span != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
	}
}

func (c *ConnectionHandler) finish() {
	c.closeOnce.Do(func() {
		if c.handler != nil {
			code, msg := c.handler.Status()
			c.code, c.message = code, msg
			c.logger.Info("connection finished", "remote", c.remote, "status", code, "message", msg)
			if c.span != nil {
				c.span.SetAttributes(attribute.Int("http.status_code", code))
			}
			if cl, ok := c.handler.(io.Closer); ok {
				_ = cl.Close()
			}
		}
		c.logger.Info("closing connection", "remote", c.remote)
		if cw, ok := c.ev.Conn.(interface{ CloseWrite() error }); ok {
			_ = cw.CloseWrite()
		}
		_ = c.ev.Conn.Close()
		c.handler = nil
		if c.started {
			c.metrics.ConnClosed()
			c.span.End()
		}
	})
}
