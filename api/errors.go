// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for evserve.

package api

import (
	"errors"
	"fmt"
	"runtime"
)

// Common errors used across the library.
var (
	// ErrExhausted is returned by StepTask.Step when no steps remain.
	ErrExhausted = errors.New("step task exhausted")

	ErrSchedulerClosed    = errors.New("scheduler is closed")
	ErrCaptureDisabled    = errors.New("result capture is disabled")
	ErrNotStepTask        = errors.New("task is not a step task")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrNilTask            = fmt.Errorf("nil task")
)

// PanicError wraps a value recovered from a panicking task together with
// the goroutine stack at the point of recovery.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

// NewPanicError captures the current goroutine stack.
func NewPanicError(v any) *PanicError {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{Value: v, Stack: string(buf[:n])}
}
