// File: internal/concurrency/affinity_linux.go
//go:build linux
// +build linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// pinCurrentThread binds the calling OS thread to cpu. The caller must
// hold runtime.LockOSThread.
func pinCurrentThread(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sched_setaffinity cpu %d: %w", cpu, err)
	}
	return nil
}
