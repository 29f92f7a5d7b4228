// File: internal/concurrency/synchronized.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Synchronized is a mutex-guarded cell for small pieces of shared state
// (liveness flags, active-worker counters).

package concurrency

import "sync"

// Synchronized holds one value of type T. Every access happens under a
// single lock which is held only for the duration of the access.
type Synchronized[T any] struct {
	mu    sync.Mutex
	value T
}

// NewSynchronized returns a cell holding v.
func NewSynchronized[T any](v T) *Synchronized[T] {
	return &Synchronized[T]{value: v}
}

// Get returns the held value.
func (s *Synchronized[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the held value.
func (s *Synchronized[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

// Transform atomically replaces the held value with f(current) and
// returns the new value.
func (s *Synchronized[T]) Transform(f func(T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = f(s.value)
	return s.value
}

// Swap stores v and returns the previous value.
func (s *Synchronized[T]) Swap(v T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.value
	s.value = v
	return old
}

// Do invokes f against a pointer to the held value.
func (s *Synchronized[T]) Do(f func(*T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(&s.value)
}

// Apply invokes f against the value held by s and returns its result.
func Apply[T, R any](s *Synchronized[T], f func(T) R) R {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(s.value)
}

func incr(n int) int { return n + 1 }
func decr(n int) int { return n - 1 }
