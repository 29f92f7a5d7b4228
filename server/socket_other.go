//go:build !linux
// +build !linux

// File: server/socket_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Portable fallback: the runtime's listeners. Reuse options and the listen
// backlog are left to the platform defaults.

package server

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

func openSocket(cfg *Config, family int) (net.Listener, net.PacketConn, error) {
	ip, err := resolveHost(cfg.Address.Host(), family)
	if err != nil {
		return nil, nil, err
	}
	host := ""
	if ip != nil {
		host = ip.String()
	}
	fam := strconv.Itoa(family)
	lc := net.ListenConfig{}
	switch cfg.Type {
	case Stream:
		ln, err := lc.Listen(context.Background(), "tcp"+fam, net.JoinHostPort(host, strconv.Itoa(cfg.Address.Port())))
		if err != nil {
			return nil, nil, fmt.Errorf("listen %s: %w", cfg.Address, err)
		}
		return ln, nil, nil
	case Datagram:
		pc, err := lc.ListenPacket(context.Background(), "udp"+fam, net.JoinHostPort(host, strconv.Itoa(cfg.Address.Port())))
		if err != nil {
			return nil, nil, fmt.Errorf("listen %s: %w", cfg.Address, err)
		}
		return nil, pc, nil
	default:
		pc, err := lc.ListenPacket(context.Background(), "ip"+fam+":"+strconv.Itoa(cfg.Protocol), host)
		if err != nil {
			return nil, nil, fmt.Errorf("listen %s: %w", cfg.Address, err)
		}
		return nil, pc, nil
	}
}
