// File: httpserver/handler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpserver

import (
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/momentics/evserve/api"
	"github.com/momentics/evserve/control"
)

// Exchange is what a RequestHandler works with: one connection and the
// request read from it.
type Exchange struct {
	Conn    net.Conn
	Request *Request
	// Path is the resolved location of Request.Resource.
	Path    string
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *control.Metrics
}

// write sends p, bounding the attempt by the per-operation timeout.
func (x *Exchange) write(p []byte) (int, error) {
	if x.Timeout > 0 {
		_ = x.Conn.SetWriteDeadline(time.Now().Add(x.Timeout))
	}
	return x.Conn.Write(p)
}

// RequestHandler serves one request. Each Step does a bounded amount of
// work; api.ErrExhausted ends the exchange.
type RequestHandler interface {
	api.StepTask
	Status() (int, string)
	Headers() *Headers
}

// RequestHandlerFactory builds the handler for one exchange.
type RequestHandlerFactory func(x *Exchange) RequestHandler

// BaseHandler holds the response status and headers. On its own it sends
// the response head on the first step and is exhausted.
type BaseHandler struct {
	x       *Exchange
	code    int
	message string
	headers *Headers
	sent    bool
}

// NewBaseHandler returns a 200 handler with Connection: close and
// Content-Length: 0.
func NewBaseHandler(x *Exchange) *BaseHandler {
	h := NewHeaders()
	h.Set("connection", "close")
	h.Set("content-length", int64(0))
	return &BaseHandler{x: x, code: http.StatusOK, message: http.StatusText(http.StatusOK), headers: h}
}

func (b *BaseHandler) Status() (int, string) { return b.code, b.message }

func (b *BaseHandler) Headers() *Headers { return b.headers }

// SetStatus sets code and its standard reason phrase.
func (b *BaseHandler) SetStatus(code int) {
	b.code = code
	b.message = http.StatusText(code)
}

// Respond writes the status line and headers once.
func (b *BaseHandler) Respond() error {
	if b.sent {
		return nil
	}
	b.sent = true
	var head strings.Builder
	if err := writeHead(&head, b.x.Request.Version, b.code, b.message, b.headers); err != nil {
		return err
	}
	_, err := b.x.write([]byte(head.String()))
	b.x.Metrics.Response(b.code)
	return err
}

// Step sends the head; write failures are left for the connection to notice.
func (b *BaseHandler) Step() error {
	_ = b.Respond()
	return api.ErrExhausted
}

// NotImplemented answers 501 with no body.
func NotImplemented(x *Exchange) RequestHandler {
	b := NewBaseHandler(x)
	b.SetStatus(http.StatusNotImplemented)
	return b
}

// Registry maps upper-case method names to handler factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]RequestHandlerFactory
}

// NewRegistry returns a registry serving GET and HEAD.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]RequestHandlerFactory)}
	r.Register(http.MethodGet, NewGETHandler)
	r.Register(http.MethodHead, NewHEADHandler)
	return r
}

// DefaultRegistry is used by connection handlers without their own registry.
var DefaultRegistry = NewRegistry()

// Register maps method to f, replacing any previous entry.
func (r *Registry) Register(method string, f RequestHandlerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToUpper(method)] = f
}

// Lookup returns the factory for method.
func (r *Registry) Lookup(method string) (RequestHandlerFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[strings.ToUpper(method)]
	return f, ok
}

// Methods lists the registered methods in sorted order.
func (r *Registry) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for m := range r.factories {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Handler builds the handler for x, falling back to NotImplemented.
func (r *Registry) Handler(x *Exchange) RequestHandler {
	if f, ok := r.Lookup(x.Request.Method); ok {
		return f(x)
	}
	return NotImplemented(x)
}
