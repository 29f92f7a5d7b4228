// File: internal/concurrency/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Unbounded FIFO of task records shared by pool workers and by the
// result-capture channel.

package concurrency

import (
	"sync"

	"github.com/eapache/queue"
	"github.com/momentics/evserve/api"
)

// recordQueue is a blocking, unbounded FIFO. Get wakes up when an item is
// added or when the queue is closed.
type recordQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  *queue.Queue
	closed bool
}

func newRecordQueue() *recordQueue {
	q := &recordQueue{items: queue.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Put appends rec. It returns false if the queue is closed.
func (q *recordQueue) Put(rec *api.TaskRecord) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items.Add(rec)
	q.cond.Signal()
	return true
}

// Get blocks until an item is available. Items still queued after Shut are
// handed out; ok is false once the queue is closed and empty.
func (q *recordQueue) Get() (rec *api.TaskRecord, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Length() == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.items.Length() == 0 {
		return nil, false
	}
	return q.items.Remove().(*api.TaskRecord), true
}

// Shut closes the queue but leaves queued items for Get.
func (q *recordQueue) Shut() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Close closes the queue and removes every queued item, returning them in
// FIFO order. Blocked Get calls return immediately.
func (q *recordQueue) Close() []*api.TaskRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	rest := make([]*api.TaskRecord, 0, q.items.Length())
	for q.items.Length() > 0 {
		rest = append(rest, q.items.Remove().(*api.TaskRecord))
	}
	q.cond.Broadcast()
	return rest
}

// Len returns the number of queued items.
func (q *recordQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}
