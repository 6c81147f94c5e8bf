package locks

import (
	"context"
	"fmt"
	"sync"
)

// LocalManager locks keys within one process.
type LocalManager struct {
	mu   sync.Mutex
	keys map[string]chan struct{}
}

func NewLocalManager() *LocalManager {
	return &LocalManager{keys: make(map[string]chan struct{})}
}

func (m *LocalManager) slot(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.keys[key]
	if !ok {
		ch = make(chan struct{}, 1)
		m.keys[key] = ch
	}
	return ch
}

func (m *LocalManager) Acquire(ctx context.Context, keys ...string) (Unlock, error) {
	return acquireAll(ctx, keys, func(ctx context.Context, key string) (func(), error) {
		ch := m.slot(key)
		select {
		case ch <- struct{}{}:
			return func() { <-ch }, nil
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotObtained, key, ctx.Err())
		}
	})
}
