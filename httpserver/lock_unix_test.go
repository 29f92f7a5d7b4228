//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package httpserver

import (
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/momentics/evserve/api"
)

func lockedTarget(t *testing.T, body []byte) (string, *os.File) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "locked.txt")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	holder, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { holder.Close() })
	if ok, err := tryLockFile(holder); !ok || err != nil {
		t.Fatalf("tryLockFile = %v, %v", ok, err)
	}
	return path, holder
}

func pipeExchange(t *testing.T, method, path string) (*Exchange, net.Conn) {
	t.Helper()
	client, conn := net.Pipe()
	t.Cleanup(func() {
		client.Close()
		conn.Close()
	})
	return &Exchange{
		Conn:    conn,
		Request: &Request{Method: method, Resource: "/locked.txt", Version: 1.0, Headers: NewHeaders()},
		Path:    path,
		Timeout: time.Second,
		Logger:  quietLogger(),
	}, client
}

func TestTryLockFileReportsBusy(t *testing.T) {
	path, holder := lockedTarget(t, []byte("x"))
	other, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()

	if ok, err := tryLockFile(other); ok || err != nil {
		t.Fatalf("second lock = %v, %v; want busy", ok, err)
	}
	if err := unlockFile(holder); err != nil {
		t.Fatal(err)
	}
	if ok, err := tryLockFile(other); !ok || err != nil {
		t.Fatalf("lock after release = %v, %v", ok, err)
	}
}

func TestGETYieldsWhileTargetLocked(t *testing.T) {
	body := []byte("guarded body")
	path, holder := lockedTarget(t, body)
	x, client := pipeExchange(t, "GET", path)

	h := NewGETHandler(x)
	defer h.(io.Closer).Close()
	for i := 0; i < 3; i++ {
		if err := h.Step(); err != nil {
			t.Fatalf("step %d while locked: %v", i, err)
		}
	}

	replies := make(chan []byte, 1)
	go func() {
		reply, _ := io.ReadAll(client)
		replies <- reply
	}()
	if err := unlockFile(holder); err != nil {
		t.Fatal(err)
	}
	for i := 0; ; i++ {
		err := h.Step()
		if errors.Is(err, api.ErrExhausted) {
			break
		}
		if err != nil || i > 100 {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	x.Conn.Close()

	reply := <-replies
	if !bytes.HasPrefix(reply, []byte("HTTP/1.0 200 OK\r\n")) || !bytes.HasSuffix(reply, body) {
		t.Fatalf("reply = %q", reply)
	}
	if code, _ := h.Status(); code != 200 {
		t.Fatalf("status = %d", code)
	}
	if ok, err := tryLockFile(holder); !ok || err != nil {
		t.Fatalf("lock not released after transfer: %v, %v", ok, err)
	}
}

func TestHEADYieldsWhileTargetLocked(t *testing.T) {
	path, holder := lockedTarget(t, []byte("0123456789"))
	x, client := pipeExchange(t, "HEAD", path)

	h := NewHEADHandler(x)
	defer h.(io.Closer).Close()
	if err := h.Step(); err != nil {
		t.Fatalf("step while locked: %v", err)
	}

	replies := make(chan []byte, 1)
	go func() {
		reply, _ := io.ReadAll(client)
		replies <- reply
	}()
	if err := unlockFile(holder); err != nil {
		t.Fatal(err)
	}
	if err := h.Step(); !errors.Is(err, api.ErrExhausted) {
		t.Fatalf("step after release: %v", err)
	}
	x.Conn.Close()

	reply := string(<-replies)
	if !bytes.Contains([]byte(reply), []byte("Content-Length: 10\r\n")) {
		t.Fatalf("reply = %q", reply)
	}
}
