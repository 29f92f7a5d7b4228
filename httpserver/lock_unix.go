//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

// File: httpserver/lock_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpserver

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// tryLockFile takes the exclusive advisory lock without blocking. It
// reports false with a nil error while another holder has the lock.
func tryLockFile(f *os.File) (bool, error) {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR) {
		return false, nil
	}
	return false, err
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
