package state

import (
	"context"
	"sync"

	"github.com/asad/localsession/internal/kv"
)

// Hub fans out "key changed" notices between bindings that share a store.
// A binding that writes a key notifies the hub; every other binding on the
// same key re-reads the store.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func()
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]func())}
}

// subscribe registers fn for key and returns its id.
func (h *Hub) subscribe(key string, fn func()) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	if h.subs[key] == nil {
		h.subs[key] = make(map[int]func())
	}
	h.subs[key][h.nextID] = fn
	return h.nextID
}

func (h *Hub) unsubscribe(key string, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs[key], id)
	if len(h.subs[key]) == 0 {
		delete(h.subs, key)
	}
}

// Notify tells every binding on key, except the one registered as origin,
// that the stored value may have changed. origin 0 notifies everyone.
func (h *Hub) Notify(key string, origin int) {
	h.mu.RLock()
	fns := make([]func(), 0, len(h.subs[key]))
	for id, fn := range h.subs[key] {
		if id != origin {
			fns = append(fns, fn)
		}
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// Follow forwards change reports from w into the hub until ctx is done.
func (h *Hub) Follow(ctx context.Context, w kv.Watcher) error {
	return w.Watch(ctx, func(key string) {
		h.Notify(key, 0)
	})
}
