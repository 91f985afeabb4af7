package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend keeps one JSON document per namespace under dir.
type FileBackend struct {
	dir string
	// one lock for all namespaces; writes are small and infrequent
	mu sync.Mutex
}

func NewFileBackend(dir string) (*FileBackend, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir: %w", err)
	}

	if err := os.MkdirAll(absDir, 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	return &FileBackend{dir: absDir}, nil
}

func (b *FileBackend) Open(namespace string) (Store, error) {
	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}
	return &fileStore{backend: b, path: filepath.Join(b.dir, namespace+".json")}, nil
}

func (b *FileBackend) Close() error {
	return nil
}

type fileStore struct {
	backend *FileBackend
	path    string
}

func (s *fileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", false, err
	}

	value, ok := values[key]
	return value, ok, nil
}

func (s *fileStore) Set(_ context.Context, key string, value string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}

	values[key] = value
	return s.write(values)
}

func (s *fileStore) Remove(_ context.Context, key string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}

	if _, ok := values[key]; !ok {
		return nil
	}

	delete(values, key)
	if len(values) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %q: %w", filepath.Base(s.path), err)
		}
		return nil
	}
	return s.write(values)
}

func (s *fileStore) Clear(_ context.Context) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear %q: %w", filepath.Base(s.path), err)
	}
	return nil
}

func (s *fileStore) read() (map[string]string, error) {
	values := make(map[string]string)

	content, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", filepath.Base(s.path), err)
	}

	if err := json.Unmarshal(content, &values); err != nil {
		return nil, fmt.Errorf("decode %q: %w", filepath.Base(s.path), err)
	}
	return values, nil
}

func (s *fileStore) write(values map[string]string) error {
	content, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode %q: %w", filepath.Base(s.path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %q: %w", filepath.Base(s.path), err)
	}
	return nil
}
