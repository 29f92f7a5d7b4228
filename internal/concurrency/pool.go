// File: internal/concurrency/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FixedPool starts a fixed number of long-lived workers that pull task
// records from one shared FIFO queue.

package concurrency

import (
	"runtime"
	"sync"

	"github.com/momentics/evserve/api"
)

// FixedPool executes queued tasks on exactly n workers.
type FixedPool struct {
	base
	alive   *Synchronized[bool]
	input   *recordQueue
	workers int
	wg      sync.WaitGroup
	handle  func(rec *api.TaskRecord)
}

var _ api.Scheduler = (*FixedPool)(nil)

// NewFixedPool starts n workers. n must be positive.
func NewFixedPool(n int, opts ...Option) (*FixedPool, error) {
	p, err := newFixedPool("pool", n, opts)
	if err != nil {
		return nil, err
	}
	p.handle = p.execute
	p.start()
	return p, nil
}

func newFixedPool(name string, n int, opts []Option) (*FixedPool, error) {
	if n <= 0 {
		return nil, api.ErrInvalidWorkerCount
	}
	return &FixedPool{
		base:    newBase(name, opts),
		alive:   NewSynchronized(true),
		input:   newRecordQueue(),
		workers: n,
	}, nil
}

func (p *FixedPool) start() {
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.worker(i)
	}
}

// NumWorkers returns the number of workers started.
func (p *FixedPool) NumWorkers() int {
	return p.workers
}

// Pending returns the number of queued records.
func (p *FixedPool) Pending() int {
	return p.input.Len()
}

// Submit enqueues task for execution.
func (p *FixedPool) Submit(task api.Task, args ...any) error {
	if task == nil {
		return api.ErrNilTask
	}
	return p.enqueue(api.NewTaskRecord(task, args...))
}

func (p *FixedPool) enqueue(rec *api.TaskRecord) error {
	if !p.alive.Get() || !p.input.Put(rec) {
		return api.ErrSchedulerClosed
	}
	p.submitted()
	return nil
}

// worker handles records in pickup order until the pool is stopped.
func (p *FixedPool) worker(id int) {
	defer p.wg.Done()
	if p.opts.pin {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := pinCurrentThread(id % runtime.NumCPU()); err != nil && p.opts.logger != nil {
			p.opts.logger.Warn("worker affinity", "scheduler", p.name, "worker", id, "err", err)
		}
	}
	for p.alive.Get() {
		rec, ok := p.input.Get()
		if !ok {
			return
		}
		if !p.alive.Get() {
			discard(rec)
			return
		}
		p.handle(rec)
	}
}

// requeue puts a partially complete record back at the tail of the queue.
func (p *FixedPool) requeue(rec *api.TaskRecord) {
	if !p.alive.Get() || !p.input.Put(rec) {
		discard(rec)
	}
}

// Close clears the liveness flag, wakes idle workers and waits for the
// tasks they are running. Queued records are discarded; discarded tasks
// that implement io.Closer are closed.
func (p *FixedPool) Close() {
	if !p.alive.Swap(false) {
		return
	}
	for _, rec := range p.input.Close() {
		discard(rec)
	}
	p.wg.Wait()
	p.closeOutput()
}
