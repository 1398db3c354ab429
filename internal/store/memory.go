package store

import (
	"context"
	"sync"
)

// Memory is a process-local Backend
type Memory struct {
	mu       sync.RWMutex
	docs     map[string][]byte
	commands map[string]string

	// SaveErr, when set, is returned by every Save
	SaveErr error
}

// NewMemory creates an empty Memory backend
func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte), commands: make(map[string]string)}
}

// Load returns a copy of the stored document
func (m *Memory) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Save replaces the stored document
func (m *Memory) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.docs[key] = append([]byte(nil), data...)
	return nil
}

// CommandSeen reports whether the command id was marked
func (m *Memory) CommandSeen(ctx context.Context, commandID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.commands[commandID]
	return ok, nil
}

// MarkCommand records a command id as applied
func (m *Memory) MarkCommand(ctx context.Context, commandID, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commands[commandID] = source
	return nil
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}
