package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// Memory keeps objects in process memory. Used in tests and in development
// when no bucket is configured.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

func NewMemory(baseURL string) *Memory {
	return &Memory{objects: make(map[string][]byte), baseURL: baseURL}
}

func (m *Memory) Save(_ context.Context, path string, body io.Reader, _ string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}

	m.mu.Lock()
	m.objects[path] = buf.Bytes()
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	delete(m.objects, path)
	m.mu.Unlock()
	return nil
}

func (m *Memory) URL(_ context.Context, path string, _ bool) (string, error) {
	return m.baseURL + "/" + path, nil
}

// Has reports whether an object exists at path.
func (m *Memory) Has(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[path]
	return ok
}
