//go:build linux
// +build linux

// File: server/socket_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket construction with x/sys/unix so that reuse options are applied
// before bind and the configured listen backlog is honoured.

package server

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// openSocket creates, configures and binds the socket described by cfg.
// Stream sockets are returned as a listener, everything else as a packet conn.
func openSocket(cfg *Config, family int) (net.Listener, net.PacketConn, error) {
	domain := unix.AF_INET
	if family == 6 {
		domain = unix.AF_INET6
	}
	var typ, proto int
	switch cfg.Type {
	case Stream:
		typ, proto = unix.SOCK_STREAM, unix.IPPROTO_TCP
	case Datagram:
		typ, proto = unix.SOCK_DGRAM, unix.IPPROTO_UDP
	default:
		typ, proto = unix.SOCK_RAW, cfg.Protocol
	}

	fd, err := unix.Socket(domain, typ|unix.SOCK_CLOEXEC, proto)
	if err != nil {
		return nil, nil, fmt.Errorf("socket create: %w", err)
	}
	if err := configureSocket(fd, cfg, family); err != nil {
		unix.Close(fd)
		return nil, nil, err
	}

	f := os.NewFile(uintptr(fd), "evserve:"+cfg.Address.String())
	defer f.Close()
	if cfg.Type == Stream {
		ln, err := net.FileListener(f)
		if err != nil {
			return nil, nil, fmt.Errorf("listener from fd: %w", err)
		}
		return ln, nil, nil
	}
	pc, err := net.FilePacketConn(f)
	if err != nil {
		return nil, nil, fmt.Errorf("packet conn from fd: %w", err)
	}
	return nil, pc, nil
}

func configureSocket(fd int, cfg *Config, family int) error {
	// options must be set before bind
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
		return fmt.Errorf("setsockopt SO_REUSEPORT: %w", err)
	}
	sa, err := sockaddr(cfg.Address, family)
	if err != nil {
		return err
	}
	if err := unix.Bind(fd, sa); err != nil {
		return fmt.Errorf("bind %s: %w", cfg.Address, err)
	}
	if cfg.Type == Stream {
		backlog := cfg.Backlog
		if backlog <= 0 {
			backlog = 1
		}
		if err := unix.Listen(fd, backlog); err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Address, err)
		}
	}
	return nil
}

func sockaddr(a Address, family int) (unix.Sockaddr, error) {
	ip, err := resolveHost(a.Host(), family)
	if err != nil {
		return nil, err
	}
	if family == 4 {
		sa := &unix.SockaddrInet4{Port: a.Port()}
		if ip != nil {
			copy(sa.Addr[:], ip.To4())
		}
		return sa, nil
	}
	sa := &unix.SockaddrInet6{Port: a.Port(), ZoneId: a.Scope()}
	if ip != nil {
		copy(sa.Addr[:], ip.To16())
	}
	return sa, nil
}
