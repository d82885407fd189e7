package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// MemoryStorage is an in-memory implementation of Storage. It does not
// survive restarts and exists for tests and ephemeral clients.
type MemoryStorage struct {
	mu    sync.RWMutex
	store map[string]string
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{store: make(map[string]string)}
}

func (m *MemoryStorage) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store[key], nil
}

func (m *MemoryStorage) Set(ctx context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = value
	return nil
}

func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

// FileStorage persists key/value pairs to a single JSON file. It is the
// durable local storage analog for token/user caching: written on login
// and profile updates, read back at process start.
type FileStorage struct {
	mu     sync.Mutex
	path   string
	logger Logger
}

// NewFileStorage creates a file-backed storage rooted at dir. An empty
// dir falls back to the user cache directory.
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve storage dir: %w", err)
		}
		dir = filepath.Join(cacheDir, "storefront")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	return &FileStorage{
		path:   filepath.Join(dir, "state.json"),
		logger: &NoOpLogger{},
	}, nil
}

// SetLogger configures the logger for this storage
func (f *FileStorage) SetLogger(logger Logger) {
	if logger != nil {
		f.logger = logger
	}
}

func (f *FileStorage) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return "", err
	}
	return entries[key], nil
}

func (f *FileStorage) Set(ctx context.Context, key string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}
	entries[key] = value
	return f.save(entries)
}

func (f *FileStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}
	if _, existed := entries[key]; !existed {
		return nil
	}
	delete(entries, key)
	return f.save(entries)
}

// load reads the state file. A missing or corrupt file yields an empty
// map: durable state must fail open to logged-out, never crash.
func (f *FileStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		f.logger.Warn("Discarding unreadable state file", map[string]interface{}{
			"operation": "storage_load",
			"path":      f.path,
			"error":     err.Error(),
		})
		return map[string]string{}, nil
	}
	return entries, nil
}

func (f *FileStorage) save(entries map[string]string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return os.Rename(tmp, f.path)
}
