// Package session provides auth.Store backends: in-process memory, a JSON
// file that plays the role of browser local storage, and Redis.
package session

import (
	"context"
	"sync"

	"github.com/xenking/kart-storefront/internal/domain/auth"
)

var _ auth.Store = (*Memory)(nil)

// Memory keeps the session in process memory. The zero value is ready to use.
type Memory struct {
	mu   sync.RWMutex
	sess auth.Session
}

// NewMemory returns a Memory store holding s.
func NewMemory(s auth.Session) *Memory {
	return &Memory{sess: s}
}

func (m *Memory) Get(_ context.Context) (auth.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess, nil
}

func (m *Memory) Set(_ context.Context, s auth.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = s
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = auth.Session{}
	return nil
}
