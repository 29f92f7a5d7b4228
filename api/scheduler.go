// Package api
// Author: momentics
//
// Scheduler contract: policies deciding how and when submitted tasks run.

package api

// Scheduler accepts tasks and either runs them immediately or enqueues
// them for later execution.
type Scheduler interface {
	// Submit runs or enqueues task with the given arguments.
	Submit(task Task, args ...any) error

	// Take blocks until a completed TaskRecord is available.
	// It returns ErrCaptureDisabled when the scheduler does not capture results.
	Take() (*TaskRecord, error)

	// Active returns the number of tasks currently executing.
	Active() int

	// Close stops accepting work and drains the scheduler.
	Close()
}
