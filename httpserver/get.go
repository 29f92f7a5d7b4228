// File: httpserver/get.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// GET and HEAD over the local filesystem. The target stays under an
// exclusive advisory lock for the whole transfer. Lock acquisition never
// blocks a step: while another exchange holds the lock the handler yields
// and retries on its next step.

package httpserver

import (
	"errors"
	"io"
	"io/fs"
	"math/bits"
	"net/http"
	"os"
	"runtime"
	"syscall"

	"github.com/momentics/evserve/api"
	"github.com/momentics/evserve/pool"
)

const maxChunk = 4096

var chunks = pool.NewBytePool(maxChunk)

// BufSize returns the largest power of two not exceeding min(4096, n),
// or 0 when n is not positive.
func BufSize(n int64) int {
	if n <= 0 {
		return 0
	}
	if n > maxChunk {
		n = maxChunk
	}
	return 1 << (bits.Len64(uint64(n)) - 1)
}

// target is an opened file, waiting for or holding its lock.
type target struct {
	file   *os.File
	locked bool
}

// openTarget stats and opens path without locking it. The returned code
// is 200 on success, else the status to report.
func openTarget(path string) (*target, int) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, http.StatusNotFound
		}
		return nil, http.StatusInternalServerError
	}
	if fi.IsDir() {
		return nil, http.StatusNotFound
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, http.StatusInternalServerError
	}
	return &target{file: f}, http.StatusOK
}

// acquire makes one lock attempt and, once locked, measures the file.
func (t *target) acquire() (bool, int64, error) {
	ok, err := tryLockFile(t.file)
	if err != nil || !ok {
		return false, 0, err
	}
	t.locked = true
	size, err := t.file.Seek(0, io.SeekEnd)
	if err == nil {
		_, err = t.file.Seek(0, io.SeekStart)
	}
	return true, size, err
}

func (t *target) release() {
	if t.locked {
		_ = unlockFile(t.file)
		t.locked = false
	}
	t.file.Close()
}

// fileHandler holds what GET and HEAD share: the target and the deferred
// response head.
type fileHandler struct {
	*BaseHandler
	target    *target
	remaining int64
}

func newFileHandler(x *Exchange) fileHandler {
	h := fileHandler{BaseHandler: NewBaseHandler(x)}
	t, code := openTarget(x.Path)
	if code != http.StatusOK {
		h.SetStatus(code)
	} else {
		h.target = t
	}
	return h
}

// ready sends the response head once the target is locked. It reports
// false while the lock belongs to another exchange.
func (h *fileHandler) ready() bool {
	if h.sent {
		return true
	}
	if h.target != nil && !h.target.locked {
		ok, size, err := h.target.acquire()
		switch {
		case err != nil:
			h.x.Logger.Error("locking target", "path", h.x.Path, "err", err)
			h.release()
			h.SetStatus(http.StatusInternalServerError)
		case !ok:
			runtime.Gosched()
			return false
		default:
			h.remaining = size
			h.headers.Set("content-length", size)
		}
	}
	if err := h.Respond(); err != nil {
		h.release()
	}
	return true
}

// Close releases the lock and the file if the exchange was abandoned.
func (h *fileHandler) Close() error {
	h.release()
	return nil
}

func (h *fileHandler) release() {
	if h.target == nil {
		return
	}
	h.target.release()
	h.target = nil
}

type getHandler struct {
	fileHandler
}

// NewGETHandler opens the target. Steps wait for its lock, send the
// response head, then transfer one chunk each.
func NewGETHandler(x *Exchange) RequestHandler {
	return &getHandler{fileHandler: newFileHandler(x)}
}

func (h *getHandler) Step() error {
	if !h.ready() {
		return nil
	}
	if h.target == nil {
		return api.ErrExhausted
	}
	if h.remaining == 0 {
		h.release()
		return api.ErrExhausted
	}

	buf := chunks.Get()
	defer chunks.Put(buf)
	n, err := io.ReadFull(h.target.file, buf[:BufSize(h.remaining)])
	if n > 0 {
		if _, werr := h.x.write(buf[:n]); werr != nil {
			h.release()
			return api.ErrExhausted
		}
		h.remaining -= int64(n)
		h.x.Metrics.BodyBytes(n)
	}
	if err != nil || h.remaining == 0 {
		h.release()
		return api.ErrExhausted
	}
	return nil
}

type headHandler struct {
	fileHandler
}

// NewHEADHandler reports what GET would, without a body.
func NewHEADHandler(x *Exchange) RequestHandler {
	return &headHandler{fileHandler: newFileHandler(x)}
}

func (h *headHandler) Step() error {
	if !h.ready() {
		return nil
	}
	h.release()
	return api.ErrExhausted
}
