// Package syncstore abstracts the shared key-value store that concurrent
// daemon instances use to exchange engine state. Implementations must
// deliver a change notification to watchers after every save, including
// saves made by other processes.
package syncstore

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Load when no blob exists under the key.
var ErrNotFound = errors.New("syncstore: key not found")

// Change notifies a watcher that the blob under Key was rewritten.
type Change struct {
	Key string
}

// Store is the shared storage used by the sync protocol. Each engine
// namespaces its own key and never touches another engine's key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	// Watch returns a channel of change notifications for key. The channel
	// is closed when ctx is cancelled.
	Watch(ctx context.Context, key string) (<-chan Change, error)
	Close() error
}

// MemoryStore is an in-process Store for tests and store-less operation.
type MemoryStore struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	watchers map[string][]chan Change
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs:    make(map[string][]byte),
		watchers: make(map[string][]chan Change),
	}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

func (m *MemoryStore) Save(_ context.Context, key string, blob []byte) error {
	m.mu.Lock()
	cp := make([]byte, len(blob))
	copy(cp, blob)
	m.blobs[key] = cp
	watchers := append([]chan Change(nil), m.watchers[key]...)
	m.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- Change{Key: key}:
		default: // watcher is behind; it will pull on its next notification
		}
	}
	return nil
}

func (m *MemoryStore) Watch(ctx context.Context, key string) (<-chan Change, error) {
	ch := make(chan Change, 8)
	m.mu.Lock()
	m.watchers[key] = append(m.watchers[key], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		ws := m.watchers[key]
		for i, w := range ws {
			if w == ch {
				m.watchers[key] = append(ws[:i], ws[i+1:]...)
				break
			}
		}
		m.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

func (m *MemoryStore) Close() error { return nil }
