// File: server/generate.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Generation operations: one bounded attempt at turning socket activity
// into an event.

package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/momentics/evserve/api"
)

// Generator performs one generation attempt on s. When nothing arrives
// before the detection deadline it returns a timeout error, which the
// loop retries silently.
type Generator func(s *Server, args ...any) (api.Event, error)

var (
	generatorsMu sync.RWMutex
	generators   = map[string]Generator{
		OpAccept:   acceptConnection,
		OpRecvFrom: receiveDatagram,
	}
)

// RegisterGenerator makes g available under name for Config.Operation.
func RegisterGenerator(name string, g Generator) {
	generatorsMu.Lock()
	defer generatorsMu.Unlock()
	generators[name] = g
}

func lookupGenerator(name string) (Generator, bool) {
	generatorsMu.RLock()
	defer generatorsMu.RUnlock()
	g, ok := generators[name]
	return g, ok
}

type deadlineSetter interface {
	SetDeadline(t time.Time) error
}

func acceptConnection(s *Server, _ ...any) (api.Event, error) {
	if s.listener == nil {
		return nil, fmt.Errorf("%w: accept on %s socket", ErrInvalidConfig, s.cfg.Type)
	}
	if d, ok := s.listener.(deadlineSetter); ok {
		_ = d.SetDeadline(time.Now().Add(s.cfg.DetectionTimeout))
	}
	conn, err := s.listener.Accept()
	if err != nil {
		return nil, err
	}
	return api.NewConnectionEvent(s, conn), nil
}

// receiveDatagram reads one datagram. args[0], when an int, overrides the
// receive buffer length.
func receiveDatagram(s *Server, args ...any) (api.Event, error) {
	if s.packet == nil {
		return nil, fmt.Errorf("%w: recvfrom on %s socket", ErrInvalidConfig, s.cfg.Type)
	}
	n := s.cfg.BufLen
	if len(args) > 0 {
		if v, ok := args[0].(int); ok && v > 0 {
			n = v
		}
	}
	var buf []byte
	if n == s.bufs.Size() {
		buf = s.bufs.Get()
		defer s.bufs.Put(buf)
	} else {
		buf = make([]byte, n)
	}

	_ = s.packet.SetReadDeadline(time.Now().Add(s.cfg.DetectionTimeout))
	m, from, err := s.packet.ReadFrom(buf)
	if err != nil {
		return nil, err
	}
	return api.NewDatagramEvent(s, buf[:m], from), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
