package storage

import (
	"sync"
)

// Memory keeps files in a map. Used by tests and the simulator; the fail
// switches inject the I/O errors a flash part produces.
type Memory struct {
	mu      sync.Mutex
	files   map[string][]byte
	mounted bool

	FailMount  error
	FailRead   error
	FailWrite  error
	FailDelete error
}

// NewMemory returns an empty backend.
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

func (m *Memory) Mount() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMount != nil {
		return m.FailMount
	}
	m.mounted = true
	return nil
}

func (m *Memory) Read(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.check(name)
	if err != nil {
		return nil, err
	}
	if m.FailRead != nil {
		return nil, m.FailRead
	}
	data, ok := m.files[p]
	if !ok {
		return nil, ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Write(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.check(name)
	if err != nil {
		return err
	}
	if m.FailWrite != nil {
		return m.FailWrite
	}
	m.files[p] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.check(name)
	if err != nil {
		return err
	}
	if m.FailDelete != nil {
		return m.FailDelete
	}
	if _, ok := m.files[p]; !ok {
		return ErrNotExist
	}
	delete(m.files, p)
	return nil
}

// Put seeds a file without mounting.
func (m *Memory) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, _ := clean(name)
	m.files[p] = append([]byte(nil), data...)
}

// Exists reports whether a file is present, mounted or not.
func (m *Memory) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, _ := clean(name)
	_, ok := m.files[p]
	return ok
}

func (m *Memory) check(name string) (string, error) {
	if !m.mounted {
		return "", ErrUnavailable
	}
	return clean(name)
}
