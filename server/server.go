// File: server/server.go
// Package server implements the event loop: one bound socket, a generation
// operation turning socket activity into events, and dispatch of one
// handler per event onto a scheduler.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/evserve/api"
	"github.com/momentics/evserve/control"
	"github.com/momentics/evserve/internal/concurrency"
	"github.com/momentics/evserve/pool"
)

// State is the lifecycle stage of a Server.
type State int32

const (
	StateReady State = iota
	StateServing
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateServing:
		return "serving"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Server is a single-goroutine event loop bound to one socket.
type Server struct {
	cfg     *Config
	family  int
	address Address
	addr    net.Addr

	listener net.Listener
	packet   net.PacketConn
	bufs     *pool.BytePool

	alive     *concurrency.Synchronized[bool]
	state     atomic.Int32
	closeOnce sync.Once

	sched   api.Scheduler
	factory api.HandlerFactory
	logger  *slog.Logger
	metrics *control.Metrics
	store   *control.ConfigStore
	probes  *control.DebugProbes
}

var _ api.Server = (*Server)(nil)

// New binds the socket described by cfg, TCPConfig() when nil.
// Configuration errors are returned before any socket is created.
func New(cfg *Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = TCPConfig()
	}
	c := *cfg
	c.OperationArgs = append([]any(nil), cfg.OperationArgs...)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	family, _ := c.Address.Family()

	s := &Server{
		cfg:     &c,
		family:  family,
		alive:   concurrency.NewSynchronized(true),
		factory: api.NewNopHandler,
		logger:  slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
	for _, o := range opts {
		o(s)
	}

	ln, pc, err := openSocket(s.cfg, family)
	if err != nil {
		return nil, err
	}
	s.listener, s.packet = ln, pc
	if ln != nil {
		s.addr = ln.Addr()
	} else {
		s.addr = pc.LocalAddr()
	}
	s.address = AddressOf(s.addr, family)
	s.bufs = pool.NewBytePool(c.BufLen)
	s.publish()

	s.logger.Debug("bound", "addr", api.AddrString(s.addr), "type", c.Type.String())
	return s, nil
}

// NewTCPServer binds a stream server; cfg defaults to TCPConfig().
func NewTCPServer(cfg *Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = TCPConfig()
	}
	if cfg.Type != Stream {
		return nil, fmt.Errorf("%w: TCP server needs a stream config, got %s", ErrInvalidConfig, cfg.Type)
	}
	return New(cfg, opts...)
}

// NewUDPServer binds a datagram server; cfg defaults to UDPConfig().
func NewUDPServer(cfg *Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = UDPConfig()
	}
	if cfg.Type != Datagram {
		return nil, fmt.Errorf("%w: UDP server needs a datagram config, got %s", ErrInvalidConfig, cfg.Type)
	}
	return New(cfg, opts...)
}

// publish exposes the effective config and live state to the admin surface.
func (s *Server) publish() {
	if s.store != nil {
		snap := s.cfg.Snapshot()
		snap["address"] = s.address.String()
		s.store.SetConfig(snap)
	}
	if s.probes != nil {
		s.probes.RegisterProbe("server.state", func() any { return s.State().String() })
		s.probes.RegisterProbe("server.addr", func() any { return s.address.String() })
		if s.sched != nil {
			s.probes.RegisterProbe("scheduler.active", func() any { return s.sched.Active() })
		}
	}
}

// Serve runs the event loop until ctx is cancelled or Stop is called.
// On return the scheduler has been drained and the socket closed.
func (s *Server) Serve(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateReady), int32(StateServing)) {
		if s.State() == StateServing {
			return ErrAlreadyRunning
		}
		return ErrServerStopped
	}
	defer s.cleanup()

	if s.cfg.Operation == "" {
		return nil
	}
	gen, _ := lookupGenerator(s.cfg.Operation)

	unwatch := context.AfterFunc(ctx, s.Stop)
	defer unwatch()

	s.logger.Info("serving", "addr", api.AddrString(s.addr), "operation", s.cfg.Operation)
	for s.Alive() {
		ev, err := gen(s, s.cfg.OperationArgs...)
		if err != nil {
			if isTimeout(err) {
				time.Sleep(s.cfg.Sleep)
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("generation failed", "operation", s.cfg.Operation, "err", err)
			time.Sleep(s.cfg.Sleep)
			continue
		}
		s.dispatch(ev)
	}
	return nil
}

// dispatch builds a handler for ev and hands it to the scheduler. Nothing
// that happens here stops the loop.
func (s *Server) dispatch(ev api.Event) {
	s.logger.Info(ev.String(), "kind", ev.Kind().String())
	s.metrics.EventGenerated(ev.Kind().String())

	defer func() {
		if r := recover(); r != nil {
			s.metrics.DispatchFailed()
			s.logger.Error("dispatch panicked", "event", ev.String(), "panic", r, "stack", string(debug.Stack()))
			closeEvent(ev)
		}
	}()

	h, err := s.factory(ev)
	if err != nil {
		s.metrics.DispatchFailed()
		s.logger.Error("handler construction failed", "event", ev.String(), "err", err, "stack", string(debug.Stack()))
		closeEvent(ev)
		return
	}

	if s.sched == nil {
		if err := api.RunSteps(h); err != nil {
			s.logger.Error("handler failed", "event", ev.String(), "err", err)
		}
		return
	}
	if err := s.sched.Submit(api.AsTask(h)); err != nil {
		s.metrics.DispatchFailed()
		s.logger.Error("submit failed", "event", ev.String(), "err", err)
		if c, ok := h.(interface{ Close() error }); ok {
			_ = c.Close()
		} else {
			closeEvent(ev)
		}
	}
}

// Stop clears the liveness flag. A serving loop exits within one detection
// timeout; a server that never served is torn down immediately.
func (s *Server) Stop() {
	s.alive.Set(false)
	if s.state.CompareAndSwap(int32(StateReady), int32(StateStopped)) {
		s.teardown()
		return
	}
	s.state.CompareAndSwap(int32(StateServing), int32(StateStopping))
}

func (s *Server) cleanup() {
	s.alive.Set(false)
	s.state.Store(int32(StateStopping))
	s.teardown()
	s.state.Store(int32(StateStopped))
	s.logger.Info("stopped", "addr", api.AddrString(s.addr))
}

func (s *Server) teardown() {
	s.closeOnce.Do(func() {
		if s.sched != nil {
			s.sched.Close()
		}
		// teardown errors are ignored
		if s.listener != nil {
			_ = s.listener.Close()
		}
		if s.packet != nil {
			_ = s.packet.Close()
		}
	})
}

func closeEvent(ev api.Event) {
	if ce, ok := ev.(api.ConnectionEvent); ok && ce.Conn != nil {
		_ = ce.Conn.Close()
	}
}

// Alive reports whether the loop still generates events.
func (s *Server) Alive() bool { return s.alive.Get() }

// Addr returns the bound socket address.
func (s *Server) Addr() net.Addr { return s.addr }

// Address returns the bound address in tuple form.
func (s *Server) Address() Address { return s.address }

func (s *Server) Logger() *slog.Logger { return s.logger }

// Timeout is the per-operation timeout handlers apply to their own I/O.
func (s *Server) Timeout() time.Duration { return s.cfg.Timeout }

func (s *Server) State() State { return State(s.state.Load()) }

// Config returns a copy of the effective configuration.
func (s *Server) Config() Config { return *s.cfg }

// Metrics returns the attached collectors, possibly nil.
func (s *Server) Metrics() *control.Metrics { return s.metrics }

// WriteTo sends a datagram from the server socket, e.g. a reply to a
// DatagramEvent's remote address.
func (s *Server) WriteTo(p []byte, addr net.Addr) (int, error) {
	if s.packet == nil {
		return 0, fmt.Errorf("%w: write on %s socket", ErrInvalidConfig, s.cfg.Type)
	}
	if s.cfg.Timeout > 0 {
		_ = s.packet.SetWriteDeadline(time.Now().Add(s.cfg.Timeout))
	}
	return s.packet.WriteTo(p, addr)
}
