// File: server/addr.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Address tuples. Two elements (host, port) denote IPv4; four elements
// (host, port, flowinfo, scope) denote IPv6.

package server

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Address is a socket address in tuple form.
type Address []string

// IPv4 and IPv6 build address tuples.
func IPv4(host string, port int) Address {
	return Address{host, strconv.Itoa(port)}
}

func IPv6(host string, port int) Address {
	return Address{host, strconv.Itoa(port), "0", "0"}
}

// BestAddress returns the wildcard IPv4 address for port.
func BestAddress(port int) Address {
	return IPv4("", port)
}

// ParseAddress converts HOST:PORT or [HOST]:PORT into a tuple.
func ParseAddress(s string) (Address, error) {
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return nil, fmt.Errorf("%w: missing port in %q", ErrInvalidConfig, s)
	}
	host, port := s[:i], s[i+1:]
	if _, err := strconv.Atoi(port); err != nil {
		return nil, fmt.Errorf("%w: bad port in %q", ErrInvalidConfig, s)
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		return Address{host[1 : len(host)-1], port, "0", "0"}, nil
	}
	return Address{host, port}, nil
}

// Family returns 4 or 6 depending on the tuple length.
func (a Address) Family() (int, error) {
	switch len(a) {
	case 2:
		return 4, nil
	case 4:
		return 6, nil
	default:
		return 0, fmt.Errorf("%w: %d address elements", ErrAddressFamily, len(a))
	}
}

// Host returns the host element.
func (a Address) Host() string {
	if len(a) == 0 {
		return ""
	}
	return a[0]
}

// Port returns the numeric port element.
func (a Address) Port() int {
	if len(a) < 2 {
		return 0
	}
	p, _ := strconv.Atoi(a[1])
	return p
}

// Scope returns the IPv6 scope id, or 0.
func (a Address) Scope() uint32 {
	if len(a) < 4 {
		return 0
	}
	s, _ := strconv.ParseUint(a[3], 10, 32)
	return uint32(s)
}

// String renders HOST:PORT, bracketing hosts that contain a colon.
func (a Address) String() string {
	host := a.Host()
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return host + ":" + strconv.Itoa(a.Port())
}

// AddressOf converts a bound net.Addr of the given family back into tuple form.
func AddressOf(na net.Addr, family int) Address {
	var ip net.IP
	var port int
	var zone string
	switch v := na.(type) {
	case *net.TCPAddr:
		ip, port, zone = v.IP, v.Port, v.Zone
	case *net.UDPAddr:
		ip, port, zone = v.IP, v.Port, v.Zone
	case *net.IPAddr:
		ip, zone = v.IP, v.Zone
	default:
		return nil
	}
	if family == 4 {
		if ip4 := ip.To4(); ip4 != nil {
			ip = ip4
		}
		return IPv4(ip.String(), port)
	}
	scope := "0"
	if zone != "" {
		if ifi, err := net.InterfaceByName(zone); err == nil {
			scope = strconv.Itoa(ifi.Index)
		}
	}
	return Address{ip.String(), strconv.Itoa(port), "0", scope}
}

// resolveHost returns the IP of host in the given family, or nil for the
// wildcard address.
func resolveHost(host string, family int) (net.IP, error) {
	if host == "" {
		return nil, nil
	}
	network := "ip4"
	if family == 6 {
		network = "ip6"
	}
	if i := strings.IndexByte(host, '%'); i >= 0 {
		host = host[:i]
	}
	ipa, err := net.ResolveIPAddr(network, host)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", host, err)
	}
	return ipa.IP, nil
}
