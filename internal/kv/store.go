// Package kv defines the persistent key-value store behind the session
// values, with in-memory, file and SQLite backends.
package kv

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidKey is returned when a key cannot be represented by a backend.
var ErrInvalidKey = errors.New("kv: invalid key")

// Store is a flat string key-value store.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key. ok is false if the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}

// Watcher is implemented by stores that can report changes made by other
// processes. Watch blocks until ctx is done, calling fn with each changed key.
type Watcher interface {
	Watch(ctx context.Context, fn func(key string)) error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// ValidKey reports whether key is usable as a store key. Every backend
// rejects other keys with ErrInvalidKey, so data stays portable between them.
func ValidKey(key string) bool {
	return len(key) <= 128 && keyPattern.MatchString(key)
}

func checkKey(key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
