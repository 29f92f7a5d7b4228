package httpserver

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

func TestReadRequest(t *testing.T) {
	req, err := ReadRequest(bufio.NewReader(strings.NewReader("get /index.html HTTP/1.1\r\nHost: a\r\n\r\n")))
	if err != nil {
		t.Fatal(err)
	}
	if req.Method != "GET" || req.Resource != "/index.html" || req.Version != 1.1 {
		t.Fatalf("unexpected request %+v", req)
	}
	if v, _ := req.Headers.Get("host"); v != "a" {
		t.Fatalf("host = %#v", v)
	}
}

func TestParseVersion(t *testing.T) {
	cases := map[string]float64{"HTTP/1.0": 1.0, "1.1": 1.1, "x/y/2": 2}
	for in, want := range cases {
		got, err := ParseVersion(in)
		if err != nil || got != want {
			t.Fatalf("ParseVersion(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseVersion("HTTP/one"); !errors.Is(err, ErrMalformedRequest) {
		t.Fatalf("expected ErrMalformedRequest, got %v", err)
	}
}

func TestReadRequestMalformed(t *testing.T) {
	_, err := ReadRequest(bufio.NewReader(strings.NewReader("GET\r\n\r\n")))
	if !errors.Is(err, ErrMalformedRequest) {
		t.Fatalf("expected ErrMalformedRequest, got %v", err)
	}
}

func TestReaderRetriesAcrossTimeouts(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		time.Sleep(50 * time.Millisecond)
		client.Write([]byte("HEAD / HTTP/1.0\r\n"))
		time.Sleep(30 * time.Millisecond)
		client.Write([]byte("\r\n"))
	}()

	req, err := ReadRequest(NewReader(server, 5*time.Millisecond, nil))
	if err != nil {
		t.Fatal(err)
	}
	if req.Method != "HEAD" {
		t.Fatalf("method = %q", req.Method)
	}
}

func TestReaderStopsWhenNotWaiting(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	_, err := ReadRequest(NewReader(server, 5*time.Millisecond, func() bool { return false }))
	if !isTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}
