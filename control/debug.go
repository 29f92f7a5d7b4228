// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Named probes sampled on demand for the admin /debug/state endpoint.

package control

import (
	"runtime"
	"sync"
)

// DebugProbes holds registered probe functions.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates a probe registry.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{
		probes: make(map[string]func() any),
	}
}

// RegisterProbe inserts a named debug hook, replacing any previous one.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState returns output of all probes.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make(map[string]any, len(dp.probes))
	for k, fn := range dp.probes {
		out[k] = fn()
	}
	return out
}

// RegisterPlatformProbes adds runtime probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("runtime.goroutines", func() any {
		return runtime.NumGoroutine()
	})
}
