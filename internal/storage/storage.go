package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Keys shared with the rest of the application.
const (
	KeyIsAuthenticated  = "isAuthenticated"
	KeyUserAccessToken  = "userAccessToken"
	KeyOwnerAccessToken = "ownerAccessToken"
	KeyRedirectTo       = "redirectTo"
	KeyUserLocation     = "userLocation"
)

var ErrInvalidNamespace = errors.New("invalid storage namespace")

// Store is the durable key/value storage of a single visitor.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
	// Clear removes every key of the namespace, including keys this
	// application never wrote.
	Clear(ctx context.Context) error
}

type Backend interface {
	Open(namespace string) (Store, error)
	Close() error
}

func validateNamespace(namespace string) error {
	if namespace == "" || strings.ContainsAny(namespace, `/\:`) || strings.Contains(namespace, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, namespace)
	}
	return nil
}

// MemoryBackend keeps every namespace in process memory. A namespace only
// exists while it holds at least one key, so visitors that never write
// cost nothing.
type MemoryBackend struct {
	mu     sync.RWMutex
	spaces map[string]map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{spaces: make(map[string]map[string]string)}
}

func (b *MemoryBackend) Open(namespace string) (Store, error) {
	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}
	return &memoryStore{backend: b, namespace: namespace}, nil
}

// Len reports how many namespaces currently hold data.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.spaces)
}

func (b *MemoryBackend) Close() error {
	return nil
}

type memoryStore struct {
	backend   *MemoryBackend
	namespace string
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()

	value, ok := s.backend.spaces[s.namespace][key]
	return value, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	values, ok := s.backend.spaces[s.namespace]
	if !ok {
		values = make(map[string]string)
		s.backend.spaces[s.namespace] = values
	}
	values[key] = value
	return nil
}

func (s *memoryStore) Remove(_ context.Context, key string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	values, ok := s.backend.spaces[s.namespace]
	if !ok {
		return nil
	}
	delete(values, key)
	if len(values) == 0 {
		delete(s.backend.spaces, s.namespace)
	}
	return nil
}

func (s *memoryStore) Clear(_ context.Context) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	delete(s.backend.spaces, s.namespace)
	return nil
}
