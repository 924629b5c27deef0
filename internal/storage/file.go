package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const fileDataVersion = 1

type fileEnvelope struct {
	Version int                        `json:"version"`
	Slots   map[string]json.RawMessage `json:"slots"`
}

// FileStore keeps every slot in one JSON document. Writes replace the
// file through a temp file and rename.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	slots  map[string]json.RawMessage
	closed bool
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &FileStore{path: path, slots: make(map[string]json.RawMessage)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read data file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("parse data file: %w", err)
	}
	if env.Version > fileDataVersion {
		return fmt.Errorf("parse data file: unsupported version %d", env.Version)
	}
	if env.Slots != nil {
		s.slots = env.Slots
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, key string, dst any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrClosed
	}
	raw, ok := s.slots[key]
	if !ok {
		return false, nil
	}
	return true, decode(key, raw, dst)
}

func (s *FileStore) Set(_ context.Context, key string, value any) error {
	data, err := encode(key, value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	prev, had := s.slots[key]
	s.slots[key] = data
	if err := s.persistLocked(); err != nil {
		if had {
			s.slots[key] = prev
		} else {
			delete(s.slots, key)
		}
		return err
	}
	return nil
}

// Refresh re-reads the data file, dropping the in-memory copy.
func (s *FileStore) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	prev := s.slots
	s.slots = make(map[string]json.RawMessage)
	if err := s.load(); err != nil {
		s.slots = prev
		return err
	}
	return nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FileStore) persistLocked() error {
	data, err := json.MarshalIndent(fileEnvelope{Version: fileDataVersion, Slots: s.slots}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp data file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}
