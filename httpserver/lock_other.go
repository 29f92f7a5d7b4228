//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

// File: httpserver/lock_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpserver

import "os"

// No advisory locking on this platform; transfers are unserialised.
func tryLockFile(*os.File) (bool, error) { return true, nil }
func unlockFile(*os.File) error          { return nil }
