package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go-driveway/internal/apiclient"
	"go-driveway/internal/event"
	"go-driveway/internal/middleware"
	"go-driveway/internal/model"
	"go-driveway/internal/session"
	"go-driveway/internal/storage"
	"go-driveway/pkg/apierror"
)

const (
	backendLoginPath    = "api/auth/login"
	backendRegisterPath = "api/auth/register"
	backendGooglePath   = "api/auth/google"
	backendRefreshPath  = "api/auth/refresh"
	backendLogoutPath   = "api/auth/logout"
	backendOwnerPath    = "api/auth/login/owner"
)

type SessionHandler struct {
	bus event.Bus
}

func NewSessionHandler(bus event.Bus) *SessionHandler {
	return &SessionHandler{bus: bus}
}

type sessionView struct {
	session.Snapshot
	RedirectTo string `json:"redirect_to,omitempty"`
}

func (h *SessionHandler) Show(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	view := sessionView{Snapshot: s.Snapshot()}
	if target, found, err := s.Recall(r.Context(), storage.KeyRedirectTo); err == nil && found {
		view.RedirectTo = target
	}

	writeSuccess(w, http.StatusOK, view)
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	payload.Email = strings.TrimSpace(payload.Email)
	if payload.Email == "" || payload.Password == "" {
		writeError(w, apierror.BadRequest("email and password are required", ""))
		return
	}

	h.authenticate(w, r, apiclient.RoleUser, backendLoginPath, payload, http.StatusOK)
}

func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	payload.Email = strings.TrimSpace(payload.Email)
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Email == "" || payload.Password == "" || payload.Name == "" {
		writeError(w, apierror.BadRequest("name, email and password are required", ""))
		return
	}
	if payload.PasswordConfirmation != "" && payload.PasswordConfirmation != payload.Password {
		writeError(w, apierror.BadRequest("password confirmation does not match", "password_confirmation"))
		return
	}

	h.authenticate(w, r, apiclient.RoleUser, backendRegisterPath, payload, http.StatusCreated)
}

func (h *SessionHandler) Google(w http.ResponseWriter, r *http.Request) {
	var payload model.GoogleLoginRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if strings.TrimSpace(payload.Credential) == "" {
		writeError(w, apierror.BadRequest("credential is required", "credential"))
		return
	}

	h.authenticate(w, r, apiclient.RoleUser, backendGooglePath, payload, http.StatusOK)
}

func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, apiclient.RoleUser, backendRefreshPath, map[string]any{}, http.StatusOK)
}

func (h *SessionHandler) OwnerLogin(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	payload.Email = strings.TrimSpace(payload.Email)
	if payload.Email == "" || payload.Password == "" {
		writeError(w, apierror.BadRequest("email and password are required", ""))
		return
	}

	h.authenticate(w, r, apiclient.RoleOwner, backendOwnerPath, payload, http.StatusOK)
}

func (h *SessionHandler) OwnerLogout(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	if err := s.ClearOwnerToken(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, sessionView{Snapshot: s.Snapshot()})
}

// Logout tells the backend first, best effort, then clears the session.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	if s.IsAuthenticated() {
		if _, err := s.Client(apiclient.RoleUser).Post(r.Context(), backendLogoutPath, nil); err != nil {
			slog.Warn("backend logout failed", "session_id", s.ID(), "error", err)
		}
	}

	if err := s.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, sessionView{Snapshot: s.Snapshot()})
}

func (h *SessionHandler) Visibility(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	var payload model.VisibilityRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	switch strings.ToLower(strings.TrimSpace(payload.State)) {
	case "visible":
		h.bus.Publish(event.New(event.TypeTabVisible, s.ID(), nil))
	case "hidden":
	default:
		writeError(w, apierror.BadRequest("state must be visible or hidden", "state"))
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *SessionHandler) authenticate(w http.ResponseWriter, r *http.Request, role apiclient.Role, path string, payload any, status int) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	resp, err := s.Client(role).Post(ctx, path, payload)
	if err != nil {
		writeError(w, backendError(err))
		return
	}

	if problem := backendProblem(resp, "AUTH_FAILED"); problem != nil {
		writeError(w, problem)
		return
	}

	token, user, err := extractToken(resp)
	if err != nil {
		writeError(w, err)
		return
	}

	if role == apiclient.RoleOwner {
		err = s.SetOwnerToken(ctx, token)
	} else {
		err = s.Login(ctx, token)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	response := model.LoginResponse{Session: s.Snapshot(), User: user}
	if role == apiclient.RoleUser {
		response.RedirectTo = consumeRedirect(ctx, s)
	}

	writeSuccess(w, status, response)
}

func consumeRedirect(ctx context.Context, s *session.Session) string {
	target, found, err := s.Recall(ctx, storage.KeyRedirectTo)
	if err != nil || !found {
		return ""
	}
	if err := s.Forget(ctx, storage.KeyRedirectTo); err != nil {
		slog.Warn("failed to clear redirect target", "session_id", s.ID(), "error", err)
	}
	return target
}

func currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, fmt.Errorf("%w: no session on request", model.ErrUnauthorized))
		return nil, false
	}
	return s, true
}

var tokenFields = []string{"token", "access_token", "accessToken"}

// extractToken finds the bearer token at the top level of the body or under
// data, together with the user object when the backend sends one.
func extractToken(resp *apiclient.Response) (string, json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := resp.Decode(&top); err != nil {
		return "", nil, fmt.Errorf("%w: %v", model.ErrTokenMissing, err)
	}

	candidates := []map[string]json.RawMessage{top}
	if raw, ok := top["data"]; ok {
		var data map[string]json.RawMessage
		if err := json.Unmarshal(raw, &data); err == nil {
			candidates = append(candidates, data)
		}
	}

	for _, fields := range candidates {
		for _, name := range tokenFields {
			raw, ok := fields[name]
			if !ok {
				continue
			}
			var token string
			if err := json.Unmarshal(raw, &token); err == nil && token != "" {
				return token, userOf(candidates), nil
			}
		}
	}

	return "", nil, model.ErrTokenMissing
}

func userOf(candidates []map[string]json.RawMessage) json.RawMessage {
	for _, fields := range candidates {
		if raw, ok := fields["user"]; ok {
			return raw
		}
	}
	return nil
}
