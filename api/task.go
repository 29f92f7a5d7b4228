// File: api/task.go
// Package api defines the task and step-task contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import (
	"errors"
	"io"
)

// Task is an invokable unit of work.
type Task interface {
	Run(args ...any) (any, error)
}

// TaskFunc adapts a plain function to Task.
type TaskFunc func(args ...any) (any, error)

// Run calls f(args...).
func (f TaskFunc) Run(args ...any) (any, error) {
	return f(args...)
}

// StepTask is a unit of work split into discrete, boundedly fast steps.
// Step returns ErrExhausted once there is nothing left to do. Any other
// non-nil error is a failure and also ends the task.
type StepTask interface {
	Step() error
}

// StepFunc adapts a plain function to StepTask.
type StepFunc func() error

// Step calls f().
func (f StepFunc) Step() error {
	return f()
}

// RunSteps executes st until it is exhausted or fails.
// Exhaustion is reported as a nil error.
func RunSteps(st StepTask) error {
	for {
		err := st.Step()
		if err == nil {
			continue
		}
		if errors.Is(err, ErrExhausted) {
			return nil
		}
		return err
	}
}

// SteppedTask is a step task that can also be run as a whole.
type SteppedTask interface {
	Task
	StepTask
}

// AsTask wraps st so that schedulers expecting a Task can run it to
// completion, while step-aware schedulers can still drive it one step at a time.
func AsTask(st StepTask) SteppedTask {
	if t, ok := st.(SteppedTask); ok {
		return t
	}
	return &stepAdapter{st: st}
}

type stepAdapter struct {
	st StepTask
}

func (a *stepAdapter) Step() error {
	return a.st.Step()
}

func (a *stepAdapter) Run(...any) (any, error) {
	return nil, RunSteps(a.st)
}

// Close forwards to the wrapped task when it owns resources.
func (a *stepAdapter) Close() error {
	if c, ok := a.st.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Unwrap returns the wrapped step task.
func (a *stepAdapter) Unwrap() StepTask {
	return a.st
}
