package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileStore keeps each entry in its own file under DATA_DIR/kv/<key>.
// Writes go through a temporary file and a rename so readers never see a
// partially written value.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStore creates a file-backed store rooted at baseDir.
func NewFileStore(baseDir string) (*FileStore, error) {
	kvDir := filepath.Join(baseDir, "kv")
	if err := os.MkdirAll(kvDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create kv directory: %w", err)
	}
	return &FileStore{baseDir: kvDir}, nil
}

func (s *FileStore) entryPath(key string) string {
	return filepath.Join(s.baseDir, key)
}

func (s *FileStore) Get(key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	content, err := os.ReadFile(s.entryPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read entry %s: %w", key, err)
	}
	return string(content), true, nil
}

func (s *FileStore) Set(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.baseDir, ".tmp-"+key+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write entry %s: %w", key, err)
	}
	if err := os.Rename(tmpName, s.entryPath(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit entry %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Remove(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.entryPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete entry %s: %w", key, err)
	}
	return nil
}

// Watch reports keys whose files are created, written, renamed or removed.
// Our own writes are reported as well; consumers compare values themselves.
func (s *FileStore) Watch(ctx context.Context, fn func(key string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(s.baseDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.baseDir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			key := filepath.Base(ev.Name)
			if ValidKey(key) {
				fn(key)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

var (
	_ Store   = (*FileStore)(nil)
	_ Watcher = (*FileStore)(nil)
)
