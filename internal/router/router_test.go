package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-driveway/internal/apiclient"
	"go-driveway/internal/config"
	"go-driveway/internal/event"
	"go-driveway/internal/handler"
	"go-driveway/internal/model"
	"go-driveway/internal/session"
	"go-driveway/internal/storage"
	"go-driveway/internal/validator"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
}

type sessionBody struct {
	IsAuthenticated    bool       `json:"is_authenticated"`
	HasUserToken       bool       `json:"has_user_token"`
	HasOwnerToken      bool       `json:"has_owner_token"`
	UserTokenExpiresAt *time.Time `json:"user_token_expires_at"`
	RedirectTo         string     `json:"redirect_to"`
}

// fakeAPI stands in for the marketplace backend and records what it was sent.
type fakeAPI struct {
	mu            sync.Mutex
	token         string
	refreshed     string
	ownerToken    string
	bookingStatus int
	lastQuery     map[string]string
	lastAuth      string
	userHits      int
}

func (f *fakeAPI) writeToken(w http.ResponseWriter, status int, token string, email string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"data":   map[string]any{"token": token, "user": map[string]any{"id": 1, "email": email}},
	})
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastAuth = r.Header.Get("Authorization")
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/api/auth/login":
		var payload model.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		f.writeToken(w, http.StatusOK, f.token, payload.Email)
	case "/api/auth/login/owner":
		var payload model.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Not an owner account"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"` + f.ownerToken + `"}`))
	case "/api/auth/register":
		var payload model.RegisterRequest
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.Email == "taken@example.com" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"The email has already been taken."}`))
			return
		}
		f.writeToken(w, http.StatusCreated, f.token, payload.Email)
	case "/api/auth/google":
		var payload model.GoogleLoginRequest
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.Credential != "google-id-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid Google credential"}`))
			return
		}
		f.writeToken(w, http.StatusOK, f.token, "ana@gmail.com")
	case "/api/auth/refresh":
		if f.lastAuth != "Bearer "+f.token {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"` + f.refreshed + `"}`))
	case "/api/auth/user":
		f.userHits++
		if f.lastAuth == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"id":1}}`))
	case "/api/parking-spots/search":
		f.lastQuery = map[string]string{}
		for key := range r.URL.Query() {
			f.lastQuery[key] = r.URL.Query().Get(key)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":3}]}`))
	case "/api/bookings":
		status := f.bookingStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if status == http.StatusUnauthorized {
			_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	}
}

func (f *fakeAPI) query() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

func (f *fakeAPI) authorization() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}

func (f *fakeAPI) userRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userHits
}

func (f *fakeAPI) setBookingStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookingStatus = status
}

type gateway struct {
	server  *httptest.Server
	client  *http.Client
	api     *fakeAPI
	bus     *event.InMemoryBus
	manager *session.Manager
}

func mintToken(t *testing.T, subject string, ttl time.Duration) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(ttl).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newGateway(t *testing.T) *gateway {
	t.Helper()

	api := &fakeAPI{
		token:      mintToken(t, "1", time.Hour),
		refreshed:  mintToken(t, "1", 2*time.Hour),
		ownerToken: mintToken(t, "owner-1", time.Hour),
	}
	backend := httptest.NewServer(api)
	t.Cleanup(backend.Close)

	cfg := &config.Config{
		RequestTimeout:      5 * time.Second,
		SessionCookieName:   "driveway_session",
		SessionCookieTTL:    time.Hour,
		LoginPath:           "/login",
		DashboardPath:       "/dashboard",
		CORSOrigins:         []string{"*"},
		RateLimitRPM:        -1,
		SessionRateLimitRPM: -1,
		DefaultHourlyRate:   5,
	}

	bus := event.NewBus()
	manager := session.NewManager(storage.NewMemoryBackend(), apiclient.DefaultConfig(backend.URL), bus, nil)
	t.Cleanup(manager.Close)

	server := httptest.NewServer(New(cfg, manager, Handlers{
		Session: handler.NewSessionHandler(bus),
		Booking: handler.NewBookingHandler(time.UTC, cfg.DefaultHourlyRate),
		Page:    handler.NewPageHandler(bus, model.PublicConfig{GoogleMapsAPIKey: "maps-key"}),
	}))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &gateway{server: server, client: client, api: api, bus: bus, manager: manager}
}

// startValidator runs the background token checks the way the server does.
func (g *gateway) startValidator(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	wait := validator.New(g.manager, g.bus, time.Second, nil).Start(ctx)
	t.Cleanup(func() {
		cancel()
		wait()
	})
}

func (g *gateway) do(t *testing.T, method string, path string, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, g.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response, data any) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func (g *gateway) session(t *testing.T) sessionBody {
	t.Helper()

	resp := g.do(t, http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body sessionBody
	decodeEnvelope(t, resp, &body)
	return body
}

func (g *gateway) login(t *testing.T) {
	t.Helper()

	resp := g.do(t, http.MethodPost, "/session/login", `{"email":"ana@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	g := newGateway(t)

	resp := g.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Empty(t, resp.Cookies(), "health checks do not open sessions")

	resp = g.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "driveway_active_sessions")
}

func TestPublicConfig(t *testing.T) {
	t.Parallel()

	g := newGateway(t)

	resp := g.do(t, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cfg model.PublicConfig
	env := decodeEnvelope(t, resp, &cfg)
	assert.True(t, env.Success)
	assert.Equal(t, "maps-key", cfg.GoogleMapsAPIKey)
}

func TestLoginFlowReturnsToRememberedPage(t *testing.T) {
	t.Parallel()

	g := newGateway(t)

	resp := g.do(t, http.MethodGet, "/bookings", "")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = g.do(t, http.MethodGet, "/login", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = g.do(t, http.MethodPost, "/session/login", `{"email":"ana@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	env := decodeEnvelope(t, resp, nil)
	assert.Equal(t, "AUTH_FAILED", env.Error.Code)
	assert.Equal(t, "Invalid credentials", env.Error.Message)

	resp = g.do(t, http.MethodPost, "/session/login", `{"email":"ana@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		Session    sessionBody     `json:"session"`
		RedirectTo string          `json:"redirect_to"`
		User       json.RawMessage `json:"user"`
	}
	decodeEnvelope(t, resp, &login)
	assert.True(t, login.Session.IsAuthenticated)
	assert.True(t, login.Session.HasUserToken)
	assert.NotNil(t, login.Session.UserTokenExpiresAt)
	assert.Equal(t, "/bookings", login.RedirectTo)
	assert.JSONEq(t, `{"id":1,"email":"ana@example.com"}`, string(login.User))

	// redirect target is consumed by the login
	assert.Empty(t, g.session(t).RedirectTo)

	resp = g.do(t, http.MethodGet, "/bookings", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = g.do(t, http.MethodGet, "/login", "")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp = g.do(t, http.MethodPost, "/session/login", `{"email":"ana@example.com","password":"secret"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestBackendUnauthorizedEndsSession(t *testing.T) {
	t.Parallel()

	g := newGateway(t)
	g.login(t)

	resp := g.do(t, http.MethodGet, "/api/bookings", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(g.api.authorization(), "Bearer "))

	g.api.setBookingStatus(http.StatusUnauthorized)
	resp = g.do(t, http.MethodGet, "/api/bookings", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Unauthenticated."}`, string(body))

	state := g.session(t)
	assert.False(t, state.IsAuthenticated)
	assert.False(t, state.HasUserToken)

	resp = g.do(t, http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestBackendForbiddenKeepsSession(t *testing.T) {
	t.Parallel()

	g := newGateway(t)
	g.login(t)

	g.api.setBookingStatus(http.StatusForbidden)
	resp := g.do(t, http.MethodGet, "/api/bookings", "")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	assert.True(t, g.session(t).IsAuthenticated)
}

func TestOwnerSpotsNeedOwnerLogin(t *testing.T) {
	t.Parallel()

	g := newGateway(t)

	resp := g.do(t, http.MethodGet, "/api/owner/spots", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeEnvelope(t, resp, nil).Error.Code)

	g.login(t)

	resp = g.do(t, http.MethodGet, "/api/owner/spots", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "OWNER_LOGIN_REQUIRED", decodeEnvelope(t, resp, nil).Error.Code)
	assert.True(t, g.session(t).IsAuthenticated)
}

func TestQuoteCorrectsWindow(t *testing.T) {
	t.Parallel()

	g := newGateway(t)

	resp := g.do(t, http.MethodPost, "/api/bookings/quote",
		`{"from_date":"2024-03-10","from_time":"10:00 AM","to_date":"2024-03-10","to_time":"09:00 AM","hourly_rate":4}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var quote model.QuoteResponse
	decodeEnvelope(t, resp, &quote)
	assert.True(t, quote.Corrected)
	assert.Equal(t, "11:00 AM", quote.ToTime)
	assert.InDelta(t, 1.0, quote.DurationHours, 0.0001)
	assert.InDelta(t, 4.0, quote.Price, 0.0001)
	assert.Equal(t, "2024-03-10 10:00:00", quote.From)
	assert.Equal(t, "2024-03-10 11:00:00", quote.To)

	resp = g.do(t, http.MethodPost, "/api/bookings/quote",
		`{"from_date":"2024-03-10","from_time":"25:00","to_date":"2024-03-10","to_time":"09:00 AM"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "BAD_REQUEST", decodeEnvelope(t, resp, nil).Error.Code)
}

func TestSearchForwardsCombinedDatetimes(t *testing.T) {
	t.Parallel()

	g := newGateway(t)

	resp := g.do(t, http.MethodGet,
		"/api/spots/search?from_date=2024-03-10&from_time=01:00%20PM&to_date=2024-03-10&to_time=03:30%20PM&lat=40.4&lng=-3.7&radius=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	query := g.api.query()
	assert.Equal(t, "2024-03-10 13:00:00", query["from"])
	assert.Equal(t, "2024-03-10 15:00:00", query["to"])
	assert.Equal(t, "5", query["radius"])
	assert.Equal(t, "40.4", query["lat"])
	assert.NotContains(t, query, "from_time")
}

func TestVisibilityPublishesOnlyWhenVisible(t *testing.T) {
	t.Parallel()

	g := newGateway(t)
	events, unsubscribe := g.bus.Subscribe()
	defer unsubscribe()

	resp := g.do(t, http.MethodPost, "/session/visibility", `{"state":"hidden"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = g.do(t, http.MethodPost, "/session/visibility", `{"state":"visible"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case e := <-events:
		assert.Equal(t, event.TypeTabVisible, e.Type)
		assert.NotEmpty(t, e.SessionID)
	case <-time.After(2 * time.Second):
		t.Fatal("no tab.visible event")
	}

	resp = g.do(t, http.MethodPost, "/session/visibility", `{"state":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogoutClearsSession(t *testing.T) {
	t.Parallel()

	g := newGateway(t)
	g.login(t)
	require.True(t, g.session(t).IsAuthenticated)

	resp := g.do(t, http.MethodPost, "/session/logout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	state := g.session(t)
	assert.False(t, state.IsAuthenticated)
	assert.False(t, state.HasUserToken)
	assert.False(t, state.HasOwnerToken)
}

func TestGuestPageLoadKeepsRememberedPage(t *testing.T) {
	t.Parallel()

	g := newGateway(t)
	g.startValidator(t)

	resp := g.do(t, http.MethodGet, "/bookings", "")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = g.do(t, http.MethodGet, "/login", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// a signed-out visitor has no token to check against the backend
	require.Never(t, func() bool { return g.api.userRequests() > 0 }, 300*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, "/bookings", g.session(t).RedirectTo)

	resp = g.do(t, http.MethodPost, "/session/login", `{"email":"ana@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		RedirectTo string `json:"redirect_to"`
	}
	decodeEnvelope(t, resp, &login)
	assert.Equal(t, "/bookings", login.RedirectTo)

	resp = g.do(t, http.MethodPost, "/session/visibility", `{"state":"visible"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool { return g.api.userRequests() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Bearer "+g.api.token, g.api.authorization())
	assert.True(t, g.session(t).IsAuthenticated)
}

func TestRegisterSignsIn(t *testing.T) {
	t.Parallel()

	g := newGateway(t)

	resp := g.do(t, http.MethodPost, "/session/register", `{"name":"Ana","email":"ana@example.com","password":"secret","password_confirmation":"other"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "password_confirmation", decodeEnvelope(t, resp, nil).Error.Details)

	resp = g.do(t, http.MethodPost, "/session/register", `{"name":"Ana","email":"taken@example.com","password":"secret"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	env := decodeEnvelope(t, resp, nil)
	assert.Equal(t, "AUTH_FAILED", env.Error.Code)
	assert.Equal(t, "The email has already been taken.", env.Error.Message)
	assert.False(t, g.session(t).IsAuthenticated)

	resp = g.do(t, http.MethodPost, "/session/register", `{"name":"Ana","email":"ana@example.com","password":"secret","password_confirmation":"secret"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var login struct {
		Session sessionBody     `json:"session"`
		User    json.RawMessage `json:"user"`
	}
	decodeEnvelope(t, resp, &login)
	assert.True(t, login.Session.IsAuthenticated)
	assert.JSONEq(t, `{"id":1,"email":"ana@example.com"}`, string(login.User))

	resp = g.do(t, http.MethodPost, "/session/register", `{"name":"Ana","email":"ana@example.com","password":"secret"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGoogleSignIn(t *testing.T) {
	t.Parallel()

	g := newGateway(t)

	resp := g.do(t, http.MethodPost, "/session/google", `{"credential":"  "}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = g.do(t, http.MethodPost, "/session/google", `{"credential":"forged"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_FAILED", decodeEnvelope(t, resp, nil).Error.Code)
	assert.False(t, g.session(t).IsAuthenticated)

	resp = g.do(t, http.MethodPost, "/session/google", `{"credential":"google-id-token"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	state := g.session(t)
	assert.True(t, state.IsAuthenticated)
	assert.True(t, state.HasUserToken)
}

func TestRefreshReplacesUserToken(t *testing.T) {
	t.Parallel()

	g := newGateway(t)

	resp := g.do(t, http.MethodPost, "/session/refresh", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeEnvelope(t, resp, nil).Error.Code)

	g.login(t)
	before := g.session(t).UserTokenExpiresAt
	require.NotNil(t, before)

	resp = g.do(t, http.MethodPost, "/session/refresh", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	state := g.session(t)
	require.True(t, state.IsAuthenticated)
	require.NotNil(t, state.UserTokenExpiresAt)
	assert.True(t, state.UserTokenExpiresAt.After(*before))

	resp = g.do(t, http.MethodGet, "/api/bookings", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer "+g.api.refreshed, g.api.authorization())
}

func TestOwnerLoginAndLogout(t *testing.T) {
	t.Parallel()

	g := newGateway(t)

	resp := g.do(t, http.MethodPost, "/session/owner", `{"email":"ana@example.com","password":"secret"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeEnvelope(t, resp, nil).Error.Code)

	g.login(t)

	// a rejected owner login is not a sign that the user token went stale
	resp = g.do(t, http.MethodPost, "/session/owner", `{"email":"ana@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	env := decodeEnvelope(t, resp, nil)
	assert.Equal(t, "AUTH_FAILED", env.Error.Code)
	assert.Equal(t, "Not an owner account", env.Error.Message)

	state := g.session(t)
	assert.True(t, state.IsAuthenticated)
	assert.True(t, state.HasUserToken)
	assert.False(t, state.HasOwnerToken)

	resp = g.do(t, http.MethodPost, "/session/owner", `{"email":"ana@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, g.session(t).HasOwnerToken)

	resp = g.do(t, http.MethodGet, "/api/owner/spots", "")
	assert.NotEqual(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer "+g.api.ownerToken, g.api.authorization())

	resp = g.do(t, http.MethodDelete, "/session/owner", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	state = g.session(t)
	assert.False(t, state.HasOwnerToken)
	assert.True(t, state.IsAuthenticated)
}
