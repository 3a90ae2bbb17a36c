// Package state persists small pieces of bot runtime state,
// currently just the update poll cursor.
package state

import "sync"

// Store is a tiny string KV used for the poller offset.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Memory is a process-local Store. The poller tolerates losing the
// cursor on restart, so nothing durable is needed here.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

var _ Store = (*Memory)(nil)
