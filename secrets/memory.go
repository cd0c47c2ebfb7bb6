package secrets

import "sync"

// Memory is a writable in-memory secret provider.
// It is safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory secret provider.
func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]string),
	}
}

// Get implements Provider.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	return value, ok, nil
}

// Set implements Provider.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

// Delete removes a secret. Removing an absent key is not an error.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
}

// Available implements Provider.
func (m *Memory) Available() bool {
	return true
}
