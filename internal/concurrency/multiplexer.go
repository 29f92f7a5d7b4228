// File: internal/concurrency/multiplexer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Multiplexer interleaves step tasks across a fixed pool: every pickup runs
// exactly one step and re-enqueues the task at the tail if it is not done.

package concurrency

import (
	"errors"

	"github.com/momentics/evserve/api"
)

// Multiplexer is a FixedPool restricted to step tasks.
type Multiplexer struct {
	*FixedPool
}

var _ api.Scheduler = (*Multiplexer)(nil)

// NewMultiplexer starts n workers cooperatively sharing step tasks.
func NewMultiplexer(n int, opts ...Option) (*Multiplexer, error) {
	p, err := newFixedPool("multiplexer", n, opts)
	if err != nil {
		return nil, err
	}
	m := &Multiplexer{FixedPool: p}
	p.handle = m.stepOnce
	p.start()
	return m, nil
}

// Submit enqueues a step task. Arguments are recorded but never passed,
// since steps take none.
func (m *Multiplexer) Submit(task api.Task, args ...any) error {
	if task == nil {
		return api.ErrNilTask
	}
	if _, ok := task.(api.StepTask); !ok {
		return api.ErrNotStepTask
	}
	return m.enqueue(api.NewTaskRecord(task, args...))
}

// SubmitSteps enqueues a bare step task.
func (m *Multiplexer) SubmitSteps(st api.StepTask) error {
	if st == nil {
		return api.ErrNilTask
	}
	return m.Submit(api.AsTask(st))
}

func (m *Multiplexer) stepOnce(rec *api.TaskRecord) {
	st := rec.Task.(api.StepTask)
	m.enter()
	err := safeStep(st)
	m.leave()
	if err == nil {
		m.requeue(rec)
		return
	}
	if errors.Is(err, api.ErrExhausted) {
		err = nil
	}
	m.finish(rec, nil, err)
}
