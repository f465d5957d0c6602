// Package localstore is a string-keyed key-value store with JSON-serialized
// values, mirroring the browser-profile storage the UI relies on. Malformed
// values degrade to the caller's default instead of propagating parse errors.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

var ErrDirRequired = errors.New("storage directory not provided")

const fileName = "localstore.json"

// Store holds all keys in one JSON file. Writes are last-writer-wins; there
// is no cross-process coordination, matching the storage it models.
type Store struct {
	mu   sync.RWMutex
	fs   afero.Fs
	path string
	data map[string]json.RawMessage
}

// Open loads (or initializes) a store under dir on the given filesystem.
// A corrupt store file is treated as empty, not as a fatal error.
func Open(fsys afero.Fs, dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, ErrDirRequired
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	s := &Store{
		fs:   fsys,
		path: filepath.Join(dir, fileName),
		data: make(map[string]json.RawMessage),
	}

	raw, err := afero.ReadFile(fsys, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		log.Printf("[localstore] WARN: store file corrupt, starting empty: %v", err)
		s.data = make(map[string]json.RawMessage)
	}
	return s, nil
}

// Get decodes the value under key into v. It returns false when the key is
// missing or its value is corrupt; callers fall back to their default.
func (s *Store) Get(key string, v any) bool {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log.Printf("[localstore] WARN: value for %q corrupt, using default: %v", key, err)
		return false
	}
	return true
}

// Read is the typed accessor: it returns the stored value for key, or def
// when the key is absent or unreadable.
func Read[T any](s *Store, key string, def T) T {
	var v T
	if s.Get(key, &v) {
		return v
	}
	return def
}

// Put serializes v under key and persists the store.
func (s *Store) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = raw
	return s.saveLocked()
}

// Delete removes key and persists the store. Deleting a missing key is a
// no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.saveLocked()
}

// Keys returns all stored keys, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) saveLocked() error {
	encoded, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, encoded, 0o644); err != nil {
		return fmt.Errorf("write store temp file: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
