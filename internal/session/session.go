// Package session holds the per-visitor session: the authenticated flag and
// the user and owner bearer tokens, mirrored in durable storage, together
// with the backend clients that act on the visitor's behalf.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-driveway/internal/apiclient"
	"go-driveway/internal/event"
	"go-driveway/internal/metrics"
	"go-driveway/internal/storage"
)

const (
	ReasonExplicit     = "explicit"
	ReasonUnauthorized = "unauthorized"
)

type State struct {
	IsAuthenticated  bool
	UserAccessToken  string
	OwnerAccessToken string
}

type Snapshot struct {
	ID                  string     `json:"id"`
	IsAuthenticated     bool       `json:"is_authenticated"`
	HasUserToken        bool       `json:"has_user_token"`
	HasOwnerToken       bool       `json:"has_owner_token"`
	UserTokenExpiresAt  *time.Time `json:"user_token_expires_at,omitempty"`
	OwnerTokenExpiresAt *time.Time `json:"owner_token_expires_at,omitempty"`
}

type Session struct {
	id     string
	store  storage.Store
	user   *apiclient.Client
	owner  *apiclient.Client
	bus    event.Bus
	logger *slog.Logger

	mu    sync.RWMutex
	state State

	mountMu sync.Mutex
	release func()
}

type Option func(*Session)

func WithBus(bus event.Bus) Option {
	return func(s *Session) { s.bus = bus }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func New(id string, store storage.Store, user *apiclient.Client, owner *apiclient.Client, opts ...Option) *Session {
	s := &Session{
		id:     id,
		store:  store,
		user:   user,
		owner:  owner,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", id)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Init loads the persisted state. Afterwards the in-memory state only changes
// through the mutators below.
func (s *Session) Init(ctx context.Context) error {
	flag, _, err := s.store.Get(ctx, storage.KeyIsAuthenticated)
	if err != nil {
		return fmt.Errorf("read %s: %w", storage.KeyIsAuthenticated, err)
	}
	userToken, _, err := s.store.Get(ctx, storage.KeyUserAccessToken)
	if err != nil {
		return fmt.Errorf("read %s: %w", storage.KeyUserAccessToken, err)
	}
	ownerToken, _, err := s.store.Get(ctx, storage.KeyOwnerAccessToken)
	if err != nil {
		return fmt.Errorf("read %s: %w", storage.KeyOwnerAccessToken, err)
	}

	s.mu.Lock()
	s.state = State{
		IsAuthenticated:  flag != "" && flag != "false",
		UserAccessToken:  userToken,
		OwnerAccessToken: ownerToken,
	}
	s.mu.Unlock()

	return nil
}

func (s *Session) Login(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, storage.KeyUserAccessToken, token); err != nil {
		return fmt.Errorf("persist user token: %w", err)
	}
	if err := s.store.Set(ctx, storage.KeyIsAuthenticated, "true"); err != nil {
		return fmt.Errorf("persist auth flag: %w", err)
	}

	s.mu.Lock()
	s.state.IsAuthenticated = true
	s.state.UserAccessToken = token
	s.mu.Unlock()

	s.publish(event.TypeSessionLoggedIn)
	s.logger.Info("session logged in")
	return nil
}

func (s *Session) SetOwnerToken(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, storage.KeyOwnerAccessToken, token); err != nil {
		return fmt.Errorf("persist owner token: %w", err)
	}

	s.mu.Lock()
	s.state.OwnerAccessToken = token
	s.mu.Unlock()

	s.publish(event.TypeOwnerLoggedIn)
	return nil
}

func (s *Session) ClearOwnerToken(ctx context.Context) error {
	if err := s.store.Remove(ctx, storage.KeyOwnerAccessToken); err != nil {
		return fmt.Errorf("remove owner token: %w", err)
	}

	s.mu.Lock()
	s.state.OwnerAccessToken = ""
	s.mu.Unlock()

	s.publish(event.TypeOwnerLoggedOut)
	return nil
}

// Logout resets the in-memory state and wipes every key of the visitor's
// storage, not only the tokens.
func (s *Session) Logout(ctx context.Context) error {
	return s.logout(ctx, ReasonExplicit)
}

func (s *Session) logout(ctx context.Context, reason string) error {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()

	metrics.SessionLogouts.WithLabelValues(reason).Inc()
	s.publish(event.TypeSessionLoggedOut)

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session storage: %w", err)
	}

	s.logger.Info("session logged out", "reason", reason)
	return nil
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) IsAuthenticated() bool {
	return s.State().IsAuthenticated
}

func (s *Session) Snapshot() Snapshot {
	state := s.State()
	return Snapshot{
		ID:                  s.id,
		IsAuthenticated:     state.IsAuthenticated,
		HasUserToken:        state.UserAccessToken != "",
		HasOwnerToken:       state.OwnerAccessToken != "",
		UserTokenExpiresAt:  tokenExpiry(state.UserAccessToken),
		OwnerTokenExpiresAt: tokenExpiry(state.OwnerAccessToken),
	}
}

// Remember keeps a UI value such as the post-login redirect target.
func (s *Session) Remember(ctx context.Context, key string, value string) error {
	if err := s.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("remember %s: %w", key, err)
	}
	return nil
}

func (s *Session) Recall(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("recall %s: %w", key, err)
	}
	return value, ok, nil
}

// Forget removes a UI value once it has been consumed.
func (s *Session) Forget(ctx context.Context, key string) error {
	if err := s.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("forget %s: %w", key, err)
	}
	return nil
}

func (s *Session) Client(role apiclient.Role) *apiclient.Client {
	if role == apiclient.RoleOwner {
		return s.owner
	}
	return s.user
}

// Mount registers the session policy on both clients and returns the func
// that removes it again. Mounting an already mounted session registers
// nothing new.
func (s *Session) Mount() func() {
	s.mountMu.Lock()
	defer s.mountMu.Unlock()

	if s.release != nil {
		return s.Unmount
	}

	interceptor := NewPolicy(s, s.logger).Interceptor()
	userID := s.user.UseResponse(interceptor)
	ownerID := s.owner.UseResponse(interceptor)

	s.release = func() {
		s.user.EjectResponse(userID)
		s.owner.EjectResponse(ownerID)
	}
	return s.Unmount
}

func (s *Session) Unmount() {
	s.mountMu.Lock()
	defer s.mountMu.Unlock()

	if s.release == nil {
		return
	}
	s.release()
	s.release = nil
}

func (s *Session) Mounted() bool {
	s.mountMu.Lock()
	defer s.mountMu.Unlock()
	return s.release != nil
}

func (s *Session) publish(t event.Type) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.New(t, s.id, nil))
}

// tokenExpiry reads the exp claim without verifying the token; the backend
// owns verification. Opaque tokens have no expiry.
func tokenExpiry(token string) *time.Time {
	if token == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}

	expiresAt := exp.Time.UTC()
	return &expiresAt
}
