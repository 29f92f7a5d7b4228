// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe key/value snapshot of the effective runtime configuration.

package control

import (
	"sort"
	"sync"
)

// ConfigStore is a key/value map with copy-on-read snapshots.
type ConfigStore struct {
	mu     sync.RWMutex
	config map[string]any
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config: make(map[string]any),
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	copy := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		copy[k] = v
	}
	return copy
}

// SetConfig merges new values into the store.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
}

// Get returns a single value.
func (cs *ConfigStore) Get(key string) (any, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	v, ok := cs.config[key]
	return v, ok
}

// Keys returns the stored keys in sorted order.
func (cs *ConfigStore) Keys() []string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	keys := make([]string, 0, len(cs.config))
	for k := range cs.config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
