// File: pool/objpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import "sync"

// ObjectPool is a generic object pool.
type ObjectPool[T any] interface {
	Get() T
	Put(T)
}

// SyncPool is a typed sync.Pool. An optional reset hook runs on every Put
// and may veto reuse by returning false.
type SyncPool[T any] struct {
	pool  sync.Pool
	reset func(T) bool
}

var _ ObjectPool[int] = (*SyncPool[int])(nil)

// NewSyncPool creates a pool whose empty Get calls creator.
func NewSyncPool[T any](creator func() T) *SyncPool[T] {
	sp := &SyncPool[T]{}
	sp.pool.New = func() any { return creator() }
	return sp
}

// WithReset installs the Put hook and returns sp.
func (sp *SyncPool[T]) WithReset(reset func(T) bool) *SyncPool[T] {
	sp.reset = reset
	return sp
}

func (sp *SyncPool[T]) Get() T {
	return sp.pool.Get().(T)
}

func (sp *SyncPool[T]) Put(obj T) {
	if sp.reset != nil && !sp.reset(obj) {
		return
	}
	sp.pool.Put(obj)
}
