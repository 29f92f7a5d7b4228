// File: httpserver/request.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedRequest is returned for request lines that cannot be parsed.
var ErrMalformedRequest = errors.New("malformed request")

// Request is a parsed request head.
type Request struct {
	Method   string
	Resource string
	Version  float64
	Headers  *Headers
}

// Reader reads request bytes from a connection, retrying transparently
// across read timeouts for as long as keepWaiting reports true.
type Reader struct {
	br          *bufio.Reader
	rearm       func()
	keepWaiting func() bool
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// NewReader wraps r. When r supports read deadlines and timeout is
// positive, each read attempt is bounded by timeout.
func NewReader(r io.Reader, timeout time.Duration, keepWaiting func() bool) *Reader {
	rd := &Reader{br: bufio.NewReader(r), keepWaiting: keepWaiting}
	if d, ok := r.(readDeadliner); ok && timeout > 0 {
		rd.rearm = func() { _ = d.SetReadDeadline(time.Now().Add(timeout)) }
		rd.rearm()
	}
	return rd
}

// ReadByte implements io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	for {
		c, err := r.br.ReadByte()
		if err == nil {
			return c, nil
		}
		if !isTimeout(err) || (r.keepWaiting != nil && !r.keepWaiting()) {
			return 0, err
		}
		if r.rearm != nil {
			r.rearm()
		}
	}
}

// ReadRequest parses METHOD SP RESOURCE SP [HTTP/]VERSION followed by the
// header block. A missing version reads as 1.0.
func ReadRequest(r io.ByteReader) (*Request, error) {
	var line string
	for {
		l, err := readLine(r, MaxHeaderBytes)
		if err != nil {
			return nil, err
		}
		if line = strings.TrimSpace(l); line != "" {
			break
		}
	}

	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields) > 3 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRequest, line)
	}
	req := &Request{
		Method:   strings.ToUpper(fields[0]),
		Resource: fields[1],
		Version:  1.0,
	}
	if len(fields) == 3 {
		v, err := ParseVersion(fields[2])
		if err != nil {
			return nil, err
		}
		req.Version = v
	}

	h, err := ParseHeaders(r)
	if err != nil {
		return nil, err
	}
	req.Headers = h
	return req, nil
}

// ParseVersion strips any protocol prefix up to the last slash and parses
// the remainder as a number.
func ParseVersion(tok string) (float64, error) {
	if i := strings.LastIndexByte(tok, '/'); i >= 0 {
		tok = tok[i+1:]
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: version %q", ErrMalformedRequest, tok)
	}
	return v, nil
}

// writeHead sends the status line and the header block.
func writeHead(w io.Writer, version float64, code int, message string, h *Headers) error {
	if version <= 0 {
		version = 1.0
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "HTTP/%.1f %d %s\r\n", version, code, message)
	if _, err := h.WriteTo(&b); err != nil {
		return err
	}
	_, err := b.WriteTo(w)
	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
