// Package state mirrors key-value store entries into in-memory reactive
// values. A Value reads its entry once when bound, writes through to the
// store on Set, and notifies subscribers on every change.
package state

import (
	"sync"

	"github.com/goccy/go-json"

	"github.com/asad/localsession/internal/kv"
	"github.com/asad/localsession/internal/logging"
)

// Value is an in-memory mirror of one JSON-encoded store entry.
type Value[T any] struct {
	store   kv.Store
	key     string
	initial T
	logger  logging.Logger
	hub     *Hub
	hubID   int

	mu      sync.RWMutex
	current T
	raw     string // last encoded form seen; "" when the entry is absent
	nextSub int
	subs    map[int]func(T)
}

// Option configures a Value.
type Option func(*options)

type options struct {
	logger logging.Logger
	hub    *Hub
}

// WithLogger sets the logger used for decode warnings and refresh errors.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHub attaches the Value to a hub shared with other bindings.
func WithHub(h *Hub) Option {
	return func(o *options) { o.hub = h }
}

// Bind reads key from store and returns a Value mirroring it. An absent
// entry yields initial without writing anything. An entry that does not
// decode as T also yields initial and is logged. Store errors are
// returned as-is.
func Bind[T any](store kv.Store, key string, initial T, opts ...Option) (*Value[T], error) {
	o := options{logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	v := &Value[T]{
		store:   store,
		key:     key,
		initial: initial,
		logger:  o.logger.With(logging.String("key", key)),
		hub:     o.hub,
		subs:    make(map[int]func(T)),
	}

	raw, ok, err := store.Get(key)
	if err != nil {
		return nil, err
	}
	v.current, v.raw = v.decode(raw, ok), raw

	if v.hub != nil {
		v.hubID = v.hub.subscribe(key, v.refresh)
	}
	return v, nil
}

// Get returns the current in-memory value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set writes next to the store and, only if that succeeds, to memory.
// Memory holds the decoded form of what was written, so it shares no
// pointers with next.
func (v *Value[T]) Set(next T) error {
	encoded, err := json.Marshal(next)
	if err != nil {
		return err
	}
	var stored T
	if err := json.Unmarshal(encoded, &stored); err != nil {
		return err
	}

	v.mu.Lock()
	if err := v.store.Set(v.key, string(encoded)); err != nil {
		v.mu.Unlock()
		return err
	}
	v.current, v.raw = stored, string(encoded)
	subs := v.subscribers()
	v.mu.Unlock()

	v.publish(subs, stored)
	return nil
}

// Remove deletes the store entry and resets memory to the initial value.
func (v *Value[T]) Remove() error {
	v.mu.Lock()
	if err := v.store.Remove(v.key); err != nil {
		v.mu.Unlock()
		return err
	}
	v.current, v.raw = v.initial, ""
	subs := v.subscribers()
	v.mu.Unlock()

	v.publish(subs, v.initial)
	return nil
}

// Subscribe registers fn to be called with the new value after every
// change. The returned function unregisters it.
func (v *Value[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.nextSub++
	id := v.nextSub
	v.subs[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
}

// Close detaches the Value from its hub. Get keeps returning the last value.
func (v *Value[T]) Close() {
	if v.hub != nil {
		v.hub.unsubscribe(v.key, v.hubID)
	}
}

// refresh re-reads the store after another binding or process changed it.
// The read happens under v.mu so it cannot overtake a concurrent Set.
func (v *Value[T]) refresh() {
	v.mu.Lock()
	raw, ok, err := v.store.Get(v.key)
	if err != nil {
		v.mu.Unlock()
		v.logger.Error("failed to refresh value", logging.ErrorField(err))
		return
	}
	if !ok {
		raw = ""
	}
	if raw == v.raw {
		v.mu.Unlock()
		return
	}
	next := v.decode(raw, ok)
	v.current, v.raw = next, raw
	subs := v.subscribers()
	v.mu.Unlock()

	v.publish(subs, next)
}

func (v *Value[T]) decode(raw string, ok bool) T {
	if !ok {
		return v.initial
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		v.logger.Warn("stored value is not valid JSON, using initial value", logging.ErrorField(err))
		return v.initial
	}
	return out
}

// subscribers snapshots the subscriber list. Callers hold v.mu.
func (v *Value[T]) subscribers() []func(T) {
	fns := make([]func(T), 0, len(v.subs))
	for _, fn := range v.subs {
		fns = append(fns, fn)
	}
	return fns
}

func (v *Value[T]) publish(subs []func(T), next T) {
	for _, fn := range subs {
		fn(next)
	}
	if v.hub != nil {
		v.hub.Notify(v.key, v.hubID)
	}
}
