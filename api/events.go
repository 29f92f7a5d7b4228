// File: api/events.go
// Package api defines core event types for evserve.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"
)

// EventKind tags the concrete Event variant.
type EventKind int

const (
	EventServer EventKind = iota
	EventConnection
	EventDatagram
)

func (k EventKind) String() string {
	switch k {
	case EventConnection:
		return "connection"
	case EventDatagram:
		return "datagram"
	default:
		return "server"
	}
}

// Server is the view of the event loop that events expose to handlers.
type Server interface {
	// Alive reports whether the loop is still serving.
	Alive() bool
	Addr() net.Addr
	Logger() *slog.Logger
	// Timeout is the per-operation socket timeout handlers should use.
	Timeout() time.Duration
}

// Event is produced by the event loop for every unit of socket activity.
type Event interface {
	Kind() EventKind
	Origin() Server
	String() string
}

// ServerEvent is the common base of all events.
type ServerEvent struct {
	Server Server
}

func (e ServerEvent) Kind() EventKind { return EventServer }
func (e ServerEvent) Origin() Server  { return e.Server }
func (e ServerEvent) String() string  { return "" }

// ConnectionEvent is emitted for every accepted stream connection.
type ConnectionEvent struct {
	ServerEvent
	Conn   net.Conn
	Remote net.Addr
}

// NewConnectionEvent builds a ConnectionEvent for conn.
func NewConnectionEvent(srv Server, conn net.Conn) ConnectionEvent {
	return ConnectionEvent{ServerEvent: ServerEvent{Server: srv}, Conn: conn, Remote: conn.RemoteAddr()}
}

func (e ConnectionEvent) Kind() EventKind { return EventConnection }

func (e ConnectionEvent) String() string {
	return "Connection from " + AddrString(e.Remote)
}

// DatagramEvent is emitted for every received datagram.
type DatagramEvent struct {
	ServerEvent
	Payload []byte
	Remote  net.Addr
}

// NewDatagramEvent builds a DatagramEvent, copying payload.
func NewDatagramEvent(srv Server, payload []byte, remote net.Addr) DatagramEvent {
	p := make([]byte, len(payload))
	copy(p, payload)
	return DatagramEvent{ServerEvent: ServerEvent{Server: srv}, Payload: p, Remote: remote}
}

func (e DatagramEvent) Kind() EventKind { return EventDatagram }

func (e DatagramEvent) String() string {
	return fmt.Sprintf("%d-octet datagram from %s", len(e.Payload), AddrString(e.Remote))
}

// AddrString renders a network address as HOST:PORT, bracketing IPv6 hosts.
func AddrString(a net.Addr) string {
	switch v := a.(type) {
	case nil:
		return "<nil>"
	case *net.TCPAddr:
		return net.JoinHostPort(v.IP.String(), strconv.Itoa(v.Port))
	case *net.UDPAddr:
		return net.JoinHostPort(v.IP.String(), strconv.Itoa(v.Port))
	default:
		return a.String()
	}
}
