package fogstore

import (
	"context"
	"sync"
)

// Memory is an in-process store used by tests and single-machine play.
type Memory struct {
	mu       sync.Mutex
	blobs    map[string]*Blob
	handlers map[string][]func()

	// FailPuts makes every Put fail, for retry-path tests.
	FailPuts bool
}

func NewMemory() *Memory {
	return &Memory{
		blobs:    make(map[string]*Blob),
		handlers: make(map[string][]func()),
	}
}

func (m *Memory) Get(ctx context.Context, sceneID string) (*Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[sceneID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *Memory) Put(ctx context.Context, sceneID string, blob *Blob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPuts {
		return ErrStoreFailure
	}
	cp := *blob
	m.blobs[sceneID] = &cp
	return nil
}

func (m *Memory) OnReset(sceneID string, fn func()) {
	m.mu.Lock()
	m.handlers[sceneID] = append(m.handlers[sceneID], fn)
	m.mu.Unlock()
}

// FireReset simulates a server-originated reset broadcast for the scene.
func (m *Memory) FireReset(sceneID string) {
	m.mu.Lock()
	handlers := append([]func(){}, m.handlers[sceneID]...)
	delete(m.blobs, sceneID)
	m.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

// PutCount returns how many blobs are stored, for tests.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}
