// File: server/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	ErrAlreadyRunning = errors.New("server already running")
	ErrServerStopped  = errors.New("server stopped")
	ErrInvalidConfig  = errors.New("invalid server config")
	ErrAddressFamily  = errors.New("unknown address family")
)

// SocketType selects the kind of socket the event loop owns.
type SocketType int

const (
	Stream SocketType = iota + 1
	Datagram
	Raw
)

func (t SocketType) String() string {
	switch t {
	case Stream:
		return "stream"
	case Datagram:
		return "datagram"
	case Raw:
		return "raw"
	default:
		return "unknown"
	}
}

// Generation operations understood by the event loop.
const (
	OpAccept   = "accept"
	OpRecvFrom = "recvfrom"
)

// Config holds all socket-level configuration of an event loop.
type Config struct {
	Address          Address       // bind address tuple; 2 elements IPv4, 4 elements IPv6
	Type             SocketType    // stream, datagram or raw
	BufLen           int           // receive buffer length for datagram operations
	Timeout          time.Duration // per-operation timeout handed to handlers
	DetectionTimeout time.Duration // deadline of a single generation attempt
	Sleep            time.Duration // pause after a timed-out generation attempt
	Operation        string        // generation operation name; empty generates nothing
	OperationArgs    []any         // fixed arguments of the generation operation
	Backlog          int           // listen backlog, stream sockets only
	Protocol         int           // IP protocol number, raw sockets only
}

// DefaultConfig returns the shared base of the typed constructors below: a
// raw socket with no protocol and no generation operation. It does not
// validate on its own.
func DefaultConfig() *Config {
	return &Config{
		Address:          BestAddress(0),
		Type:             Raw,
		BufLen:           65536,
		Timeout:          100 * time.Millisecond,
		DetectionTimeout: 50 * time.Millisecond,
		Sleep:            time.Millisecond,
	}
}

// TCPConfig returns defaults for a stream server accepting connections.
func TCPConfig() *Config {
	cfg := DefaultConfig()
	cfg.Type = Stream
	cfg.Operation = OpAccept
	cfg.Backlog = 100
	cfg.Sleep = 10 * time.Millisecond
	return cfg
}

// UDPConfig returns defaults for a datagram server.
func UDPConfig() *Config {
	cfg := DefaultConfig()
	cfg.Type = Datagram
	cfg.Operation = OpRecvFrom
	cfg.OperationArgs = []any{cfg.BufLen}
	return cfg
}

// RawConfig returns defaults for a raw IP socket receiving proto datagrams.
func RawConfig(proto int) *Config {
	cfg := UDPConfig()
	cfg.Type = Raw
	cfg.Protocol = proto
	return cfg
}

// Validate reports configuration errors. Address family errors wrap
// ErrAddressFamily, everything else wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	if _, err := c.Address.Family(); err != nil {
		return err
	}
	switch c.Type {
	case Stream, Datagram, Raw:
	default:
		return fmt.Errorf("%w: socket type %d", ErrInvalidConfig, c.Type)
	}
	if c.Timeout < 0 || c.DetectionTimeout < 0 || c.Sleep < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	if c.Type == Stream && c.Backlog < 0 {
		return fmt.Errorf("%w: negative backlog", ErrInvalidConfig)
	}
	if c.Type == Raw && c.Protocol <= 0 {
		return fmt.Errorf("%w: raw socket needs an IP protocol", ErrInvalidConfig)
	}
	if c.Type != Stream && c.BufLen <= 0 {
		return fmt.Errorf("%w: buffer length must be positive", ErrInvalidConfig)
	}
	if c.Operation != "" {
		if c.DetectionTimeout == 0 {
			return fmt.Errorf("%w: generation needs a detection timeout", ErrInvalidConfig)
		}
		if _, ok := lookupGenerator(c.Operation); !ok {
			return fmt.Errorf("%w: unknown operation %q", ErrInvalidConfig, c.Operation)
		}
	}
	return nil
}

// Snapshot flattens the config for control.ConfigStore.
func (c *Config) Snapshot() map[string]any {
	return map[string]any{
		"address":           c.Address.String(),
		"type":              c.Type.String(),
		"buflen":            c.BufLen,
		"timeout":           c.Timeout.String(),
		"detection_timeout": c.DetectionTimeout.String(),
		"sleep":             c.Sleep.String(),
		"operation":         c.Operation,
		"backlog":           c.Backlog,
		"protocol":          strconv.Itoa(c.Protocol),
	}
}
