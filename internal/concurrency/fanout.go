// File: internal/concurrency/fanout.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fanout spawns a goroutine per submitted task, optionally bounded by an
// admission gate.

package concurrency

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/evserve/api"
)

// Fanout runs tasks according to its concurrency parameter n:
//
//	n < 0   one new goroutine per submission, no admission control
//	n == 0  synchronously on the caller's goroutine
//	n > 0   the caller blocks until fewer than n tasks are active,
//	        then a new goroutine is started
//
// There is no queueing; a blocked submitter is the backpressure.
type Fanout struct {
	base
	n      int
	gate   chan struct{}
	wg     sync.WaitGroup
	mu     sync.RWMutex // orders wg.Add against Close
	closed atomic.Bool
}

var _ api.Scheduler = (*Fanout)(nil)

// NewFanout creates a fanout scheduler with concurrency parameter n.
func NewFanout(n int, opts ...Option) *Fanout {
	f := &Fanout{base: newBase("fanout", opts), n: n}
	if n > 0 {
		f.gate = make(chan struct{}, n)
	}
	return f
}

// Limit returns the configured concurrency parameter.
func (f *Fanout) Limit() int {
	return f.n
}

// Submit runs task inline (n == 0) or on a new goroutine, blocking at the
// admission gate when n > 0.
func (f *Fanout) Submit(task api.Task, args ...any) error {
	if task == nil {
		return api.ErrNilTask
	}
	if f.closed.Load() {
		return api.ErrSchedulerClosed
	}
	rec := api.NewTaskRecord(task, args...)
	f.submitted()
	if f.n == 0 {
		f.execute(rec)
		return nil
	}
	if f.gate != nil {
		f.gate <- struct{}{}
	}
	f.mu.RLock()
	if f.closed.Load() {
		f.mu.RUnlock()
		if f.gate != nil {
			<-f.gate
		}
		return api.ErrSchedulerClosed
	}
	f.enter()
	f.wg.Add(1)
	f.mu.RUnlock()
	go f.run(rec)
	return nil
}

func (f *Fanout) run(rec *api.TaskRecord) {
	defer f.wg.Done()
	result, err := safeRun(rec)
	f.leave()
	if f.gate != nil {
		<-f.gate
	}
	f.finish(rec, result, err)
}

// Close rejects further submissions and waits for running tasks.
func (f *Fanout) Close() {
	f.mu.Lock()
	if !f.closed.CompareAndSwap(false, true) {
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	f.wg.Wait()
	f.closeOutput()
}
