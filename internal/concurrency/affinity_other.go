// File: internal/concurrency/affinity_other.go
//go:build !linux
// +build !linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

// pinCurrentThread is a no-op where thread affinity is unavailable.
func pinCurrentThread(int) error {
	return nil
}
