package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go-driveway/internal/apiclient"
	"go-driveway/internal/event"
	"go-driveway/internal/metrics"
	"go-driveway/internal/storage"
)

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Manager keeps the mounted session of every active visitor. Unmounting a
// session keeps its storage; the next Acquire mounts it again.
type Manager struct {
	backend   storage.Backend
	clientCfg apiclient.Config
	bus       event.Bus
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewManager(backend storage.Backend, clientCfg apiclient.Config, bus event.Bus, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		backend:   backend,
		clientCfg: clientCfg,
		bus:       bus,
		logger:    logger,
		sessions:  make(map[string]*entry),
	}
}

// Acquire returns the mounted session for id, mounting it on first use.
// Storage is read outside the registry lock; when two requests race for the
// same visitor the first one to register wins and the other copy is dropped.
func (m *Manager) Acquire(ctx context.Context, id string) (*Session, error) {
	if s, ok := m.touch(id); ok {
		return s, nil
	}

	s, err := m.build(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[id]; ok {
		existing.lastSeen = time.Now()
		return existing.session, nil
	}

	s.Mount()
	m.sessions[id] = &entry{session: s, lastSeen: time.Now()}
	metrics.ActiveSessions.Inc()
	m.logger.Debug("session mounted", "session_id", id)

	return s, nil
}

func (m *Manager) touch(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	existing.lastSeen = time.Now()
	return existing.session, true
}

func (m *Manager) build(ctx context.Context, id string) (*Session, error) {
	store, err := m.backend.Open(id)
	if err != nil {
		return nil, fmt.Errorf("open session storage: %w", err)
	}

	user, err := apiclient.NewForRole(m.clientCfg, store, apiclient.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("create user client: %w", err)
	}
	owner, err := apiclient.NewForRole(m.clientCfg, store, apiclient.RoleOwner)
	if err != nil {
		return nil, fmt.Errorf("create owner client: %w", err)
	}

	s := New(id, store, user, owner, WithBus(m.bus), WithLogger(m.logger))
	if err := s.Init(ctx); err != nil {
		return nil, fmt.Errorf("init session: %w", err)
	}
	return s, nil
}

func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return existing.session, true
}

func (m *Manager) Release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked(id)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id := range m.sessions {
		m.releaseLocked(id)
	}
}

// EvictIdle unmounts sessions not acquired for longer than idleTTL and
// returns how many were evicted.
func (m *Manager) EvictIdle(idleTTL time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-idleTTL)
	evicted := 0
	for id, existing := range m.sessions {
		if existing.lastSeen.Before(cutoff) {
			m.releaseLocked(id)
			evicted++
		}
	}
	return evicted
}

// StartEvictionTicker runs EvictIdle on a regular interval until ctx is cancelled.
func (m *Manager) StartEvictionTicker(ctx context.Context, idleTTL time.Duration) {
	interval := idleTTL / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := m.EvictIdle(idleTTL); evicted > 0 {
				m.logger.Info("evicted idle sessions", "count", evicted)
			}
		}
	}
}

func (m *Manager) releaseLocked(id string) {
	existing, ok := m.sessions[id]
	if !ok {
		return
	}

	existing.session.Unmount()
	delete(m.sessions, id)
	metrics.ActiveSessions.Dec()
}
