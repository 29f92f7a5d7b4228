// File: httpserver/headers.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Ordered header multimap with best-effort numeric coercion.

package httpserver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"sort"
	"strconv"
	"strings"
)

// ErrHeaderTooLarge is returned when a header block exceeds MaxHeaderBytes.
var ErrHeaderTooLarge = errors.New("header block too large")

// MaxHeaderBytes bounds a single request head.
const MaxHeaderBytes = 64 << 10

// Normalize maps a header key to its stored form.
func Normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Coerce converts a raw header value to int64, then float64, falling back
// to the trimmed string.
func Coerce(raw string) any {
	v := strings.TrimSpace(raw)
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

// FormatValue renders a header value for the wire.
func FormatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Headers maps normalized keys to one or more values, keeping both key
// insertion order and per-key value order. The zero value is empty and
// ready to use.
type Headers struct {
	keys []string
	vals map[string][]any
}

// NewHeaders returns an empty header map.
func NewHeaders() *Headers {
	return &Headers{vals: make(map[string][]any)}
}

func (h *Headers) init() {
	if h.vals == nil {
		h.vals = make(map[string][]any)
	}
}

// Get returns the first value stored under key.
func (h *Headers) Get(key string) (any, bool) {
	vs := h.vals[Normalize(key)]
	if len(vs) == 0 {
		return nil, false
	}
	return vs[0], true
}

// Values returns all values stored under key, in insertion order.
func (h *Headers) Values(key string) []any {
	vs := h.vals[Normalize(key)]
	out := make([]any, len(vs))
	copy(out, vs)
	return out
}

// Int returns the first value under key as an integer.
func (h *Headers) Int(key string) (int64, bool) {
	v, ok := h.Get(key)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	}
	return 0, false
}

// Set replaces all values under key with v.
func (h *Headers) Set(key string, v any) {
	h.init()
	k := Normalize(key)
	if _, ok := h.vals[k]; !ok {
		h.keys = append(h.keys, k)
	}
	h.vals[k] = []any{v}
}

// Add appends v to the values under key.
func (h *Headers) Add(key string, v any) {
	h.init()
	k := Normalize(key)
	if _, ok := h.vals[k]; !ok {
		h.keys = append(h.keys, k)
	}
	h.vals[k] = append(h.vals[k], v)
}

// Del removes key.
func (h *Headers) Del(key string) {
	k := Normalize(key)
	if _, ok := h.vals[k]; !ok {
		return
	}
	delete(h.vals, k)
	for i, existing := range h.keys {
		if existing == k {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the normalized keys in insertion order.
func (h *Headers) Keys() []string {
	return append([]string(nil), h.keys...)
}

func (h *Headers) Len() int { return len(h.keys) }

// fold adds a continuation line as one more value of the last key.
func (h *Headers) fold(text string) {
	if len(h.keys) == 0 {
		return
	}
	k := h.keys[len(h.keys)-1]
	h.vals[k] = append(h.vals[k], Coerce(text))
}

// WriteTo writes the header block sorted by key, one line per value, with
// canonical key capitalisation and the blank-line terminator.
func (h *Headers) WriteTo(w io.Writer) (int64, error) {
	keys := h.Keys()
	sort.Strings(keys)
	var b bytes.Buffer
	for _, k := range keys {
		name := textproto.CanonicalMIMEHeaderKey(k)
		for _, v := range h.vals[k] {
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(FormatValue(v))
			b.WriteString("\r\n")
		}
	}
	b.WriteString("\r\n")
	return b.WriteTo(w)
}

func (h *Headers) String() string {
	var b strings.Builder
	_, _ = h.WriteTo(&b)
	return b.String()
}

// ParseHeaders reads header lines from r up to and including the blank
// line. A non-blank line without a colon continues the previous header
// and is stored as its next value.
func ParseHeaders(r io.ByteReader) (*Headers, error) {
	h := NewHeaders()
	total := 0
	for {
		line, err := readLine(r, MaxHeaderBytes-total)
		if err != nil {
			return nil, err
		}
		total += len(line) + 1
		text := strings.TrimSpace(line)
		if text == "" {
			return h, nil
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			h.fold(text)
			continue
		}
		h.Add(key, Coerce(value))
	}
}

// readLine returns the next line without its LF or CRLF terminator.
func readLine(r io.ByteReader, limit int) (string, error) {
	var b []byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		if c == '\n' {
			return strings.TrimSuffix(string(b), "\r"), nil
		}
		if len(b) >= limit {
			return "", ErrHeaderTooLarge
		}
		b = append(b, c)
	}
}
