// File: internal/concurrency/scheduler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Shared plumbing for the scheduler family: options, observer hooks,
// panic-safe execution and result capture.

package concurrency

import (
	"io"
	"log/slog"

	"github.com/momentics/evserve/api"
)

// Observer receives scheduler bookkeeping events. Implementations must be
// safe for concurrent use.
type Observer interface {
	TaskSubmitted(scheduler string)
	TaskFinished(scheduler string, err error)
	ActiveChanged(scheduler string, active int)
}

// Option configures a scheduler.
type Option func(*options)

type options struct {
	capture  bool
	observer Observer
	logger   *slog.Logger
	pin      bool
}

// WithCapture enables the result channel drained by Take.
func WithCapture() Option {
	return func(o *options) { o.capture = true }
}

// WithObserver attaches bookkeeping hooks, e.g. Prometheus metrics.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger logs uncaptured task failures at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCPUAffinity pins each pool worker to its own OS thread and CPU,
// worker i on CPU i modulo NumCPU. Fanout ignores it.
func WithCPUAffinity() Option {
	return func(o *options) { o.pin = true }
}

// base is embedded by every scheduler.
type base struct {
	name   string
	opts   options
	output *recordQueue
	active *Synchronized[int]
}

func newBase(name string, opts []Option) base {
	b := base{name: name, active: NewSynchronized(0)}
	for _, o := range opts {
		o(&b.opts)
	}
	if b.opts.capture {
		b.output = newRecordQueue()
	}
	return b
}

// Take blocks until a completed record is available.
func (b *base) Take() (*api.TaskRecord, error) {
	if b.output == nil {
		return nil, api.ErrCaptureDisabled
	}
	rec, ok := b.output.Get()
	if !ok {
		return nil, api.ErrSchedulerClosed
	}
	return rec, nil
}

// Active returns the number of tasks currently executing.
func (b *base) Active() int {
	return b.active.Get()
}

func (b *base) submitted() {
	if b.opts.observer != nil {
		b.opts.observer.TaskSubmitted(b.name)
	}
}

func (b *base) enter() {
	n := b.active.Transform(incr)
	if b.opts.observer != nil {
		b.opts.observer.ActiveChanged(b.name, n)
	}
}

func (b *base) leave() {
	n := b.active.Transform(decr)
	if b.opts.observer != nil {
		b.opts.observer.ActiveChanged(b.name, n)
	}
}

// execute runs rec to completion and records the outcome.
func (b *base) execute(rec *api.TaskRecord) {
	b.enter()
	result, err := safeRun(rec)
	b.leave()
	b.finish(rec, result, err)
}

// finish stores the outcome and publishes it when capture is enabled.
func (b *base) finish(rec *api.TaskRecord, result any, err error) {
	rec.Complete(result, err)
	if b.opts.observer != nil {
		b.opts.observer.TaskFinished(b.name, err)
	}
	if err != nil && b.opts.logger != nil && b.output == nil {
		b.opts.logger.Debug("task failed", "scheduler", b.name, "err", err)
	}
	if b.output != nil {
		b.output.Put(rec)
	}
}

// closeOutput lets pending Take calls drain and then fail.
func (b *base) closeOutput() {
	if b.output != nil {
		b.output.Shut()
	}
}

func safeRun(rec *api.TaskRecord) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, api.NewPanicError(r)
		}
	}()
	return rec.Task.Run(rec.Args...)
}

func safeStep(st api.StepTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = api.NewPanicError(r)
		}
	}()
	return st.Step()
}

// discard releases a record that will never run.
func discard(rec *api.TaskRecord) {
	if c, ok := rec.Task.(io.Closer); ok {
		_ = c.Close()
	}
}
