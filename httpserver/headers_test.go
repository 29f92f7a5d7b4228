package httpserver

import (
	"bufio"
	"reflect"
	"strings"
	"testing"
)

func parse(t *testing.T, block string) *Headers {
	t.Helper()
	h, err := ParseHeaders(bufio.NewReader(strings.NewReader(block)))
	if err != nil {
		t.Fatalf("ParseHeaders: %v", err)
	}
	return h
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, k := range []string{"Content-Length", "  HOST ", "x-Forwarded-For", "", "\tAccept\t"} {
		once := Normalize(k)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize(%q): %q then %q", k, once, twice)
		}
	}
}

func TestParseHeadersCoercion(t *testing.T) {
	h := parse(t, "Content-Length: 10\r\nQ: 0.5\r\nHost: example.org\r\n\r\n")
	if v, _ := h.Get("content-length"); v != int64(10) {
		t.Fatalf("content-length = %#v", v)
	}
	if v, _ := h.Get("q"); v != 0.5 {
		t.Fatalf("q = %#v", v)
	}
	if v, _ := h.Get("HOST"); v != "example.org" {
		t.Fatalf("host = %#v", v)
	}
	if n, ok := h.Int("Content-Length"); !ok || n != 10 {
		t.Fatalf("Int = %d, %v", n, ok)
	}
}

func TestParseHeadersRepeatedAndFolded(t *testing.T) {
	h := parse(t, "Accept: text/html\r\nX-Note: first\r\n  continued here\r\naccept: text/plain\r\n\r\n")
	want := []any{"text/html", "text/plain"}
	if got := h.Values("Accept"); !reflect.DeepEqual(got, want) {
		t.Fatalf("accept = %#v", got)
	}
	if got := h.Values("x-note"); !reflect.DeepEqual(got, []any{"first", "continued here"}) {
		t.Fatalf("folded values = %#v", got)
	}
	if !reflect.DeepEqual(h.Keys(), []string{"accept", "x-note"}) {
		t.Fatalf("keys = %v", h.Keys())
	}
}

func TestHeadersRoundTrip(t *testing.T) {
	in := "Set-Cookie: a=1\r\nContent-Length: 42\r\nset-cookie: b=2\r\nX-Ratio: 1.25\r\nServer: evserve\r\n\r\n"
	first := parse(t, in)
	second := parse(t, first.String())

	if first.Len() != second.Len() {
		t.Fatalf("len %d != %d", first.Len(), second.Len())
	}
	for _, k := range first.Keys() {
		if !reflect.DeepEqual(first.Values(k), second.Values(k)) {
			t.Fatalf("%s: %#v != %#v", k, first.Values(k), second.Values(k))
		}
	}
	if got := second.Values("set-cookie"); !reflect.DeepEqual(got, []any{"a=1", "b=2"}) {
		t.Fatalf("set-cookie order = %#v", got)
	}
}

func TestHeadersWireFormat(t *testing.T) {
	h := NewHeaders()
	h.Set("content-length", int64(0))
	h.Set("Connection", "close")
	h.Add("x-tag", "a")
	h.Add("X-Tag", "b")
	want := "Connection: close\r\nContent-Length: 0\r\nX-Tag: a\r\nX-Tag: b\r\n\r\n"
	if got := h.String(); got != want {
		t.Fatalf("wire = %q", got)
	}

	h.Set("x-tag", "c")
	if got := h.Values("x-tag"); len(got) != 1 {
		t.Fatalf("Set kept %d values", len(got))
	}
	h.Del("CONNECTION")
	if _, ok := h.Get("connection"); ok || h.Len() != 2 {
		t.Fatalf("Del left %v", h.Keys())
	}
}

func TestParseHeadersTruncated(t *testing.T) {
	_, err := ParseHeaders(bufio.NewReader(strings.NewReader("Host: x\r\n")))
	if err == nil {
		t.Fatal("expected error for missing terminator")
	}
}

func TestParseHeadersFoldedNumber(t *testing.T) {
	h := parse(t, "X-Sizes: 10\r\n 20\r\n\t2.5\r\n\r\n")
	if got := h.Values("x-sizes"); !reflect.DeepEqual(got, []any{int64(10), int64(20), 2.5}) {
		t.Fatalf("folded values = %#v", got)
	}
}

func TestZeroHeadersUsable(t *testing.T) {
	var h Headers
	if _, ok := h.Get("missing"); ok {
		t.Fatal("empty headers returned a value")
	}
	h.Add("X-One", "a")
	h.Set("content-length", int64(3))
	if h.Len() != 2 {
		t.Fatalf("len = %d", h.Len())
	}
	if n, ok := h.Int("Content-Length"); !ok || n != 3 {
		t.Fatalf("content-length = %d, %v", n, ok)
	}
}
