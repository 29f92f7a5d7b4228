package httpserver

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/evserve/api"
)

type fakeServer struct {
	alive atomic.Bool
}

func newFakeServer() *fakeServer {
	s := &fakeServer{}
	s.alive.Store(true)
	return s
}

func (s *fakeServer) Alive() bool            { return s.alive.Load() }
func (s *fakeServer) Addr() net.Addr         { return nil }
func (s *fakeServer) Logger() *slog.Logger   { return quietLogger() }
func (s *fakeServer) Timeout() time.Duration { return 20 * time.Millisecond }

func TestConnectionHandlerCloseBeforeStart(t *testing.T) {
	srvSide, client := net.Pipe()
	defer client.Close()

	h := NewConnectionHandler(api.NewConnectionEvent(newFakeServer(), srvSide))
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	_ = h.Close()

	_ = client.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := client.Read(make([]byte, 1)); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
	if code, _ := h.Status(); code != 0 {
		t.Fatalf("status = %d", code)
	}
}

func TestConnectionHandlerStopsWhenServerDies(t *testing.T) {
	dir := t.TempDir()
	payload := bytes.Repeat([]byte{'x'}, 3*maxChunk)
	if err := os.WriteFile(filepath.Join(dir, "f"), payload, 0o644); err != nil {
		t.Fatal(err)
	}

	srvSide, client := net.Pipe()
	defer client.Close()
	replies := make(chan []byte, 1)
	go func() {
		io.WriteString(client, "GET /f HTTP/1.0\r\n\r\n")
		reply, _ := io.ReadAll(client)
		replies <- reply
	}()

	fs := newFakeServer()
	h := NewConnectionHandler(api.NewConnectionEvent(fs, srvSide), WithResolver(NewResolver(dir, true)))
	// request, then head plus first chunk
	for i := 0; i < 2; i++ {
		if err := h.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	fs.alive.Store(false)
	if err := h.Step(); !errors.Is(err, api.ErrExhausted) {
		t.Fatalf("expected exhaustion, got %v", err)
	}

	select {
	case reply := <-replies:
		if !bytes.HasPrefix(reply, []byte("HTTP/1.0 200 OK\r\n")) {
			t.Fatalf("reply %q", reply)
		}
		if bytes.HasSuffix(reply, payload) {
			t.Fatal("body was sent although the server stopped")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("connection not closed")
	}
	if code, msg := h.Status(); code != 200 || msg != "OK" {
		t.Fatalf("status = %d %s", code, msg)
	}
}

func TestConnectionHandlerUnreadableRequest(t *testing.T) {
	srvSide, client := net.Pipe()
	go func() {
		io.WriteString(client, "BROKEN\r\n")
		client.Close()
	}()
	h := NewConnectionHandler(api.NewConnectionEvent(newFakeServer(), srvSide))
	if err := api.RunSteps(h); err != nil {
		t.Fatalf("RunSteps: %v", err)
	}
	if code, _ := h.Status(); code != 0 {
		t.Fatalf("status = %d", code)
	}
}
