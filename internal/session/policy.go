package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go-driveway/internal/apiclient"
	"go-driveway/internal/metrics"
)

// LogoutExempt lists URL fragments whose own 401 means "these credentials
// were rejected" rather than "the session is gone".
var LogoutExempt = []string{
	"api/auth/login",
	"api/auth/refresh",
	"api/auth/register",
}

// Policy decides what a failed backend call means for the session.
type Policy struct {
	session *Session
	logger  *slog.Logger
	exempt  []string
}

func NewPolicy(s *Session, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{session: s, logger: logger, exempt: LogoutExempt}
}

func (p *Policy) Interceptor() apiclient.ResponseInterceptor {
	return apiclient.ResponseInterceptor{
		OnError: p.handleError,
	}
}

func (p *Policy) handleError(ctx context.Context, err error) (*apiclient.Response, error) {
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		return nil, err
	}

	if apiErr.Response == nil {
		metrics.InterceptedFailures.WithLabelValues("network").Inc()
		p.logger.Warn("backend unreachable", "method", apiErr.Method, "url", apiErr.URL, "error", apiErr.Err)
		return nil, err
	}

	switch apiErr.Response.Status {
	case http.StatusUnauthorized:
		metrics.InterceptedFailures.WithLabelValues("unauthorized").Inc()
		if p.isExempt(apiErr.URL) {
			p.logger.Info("credentials rejected", "url", apiErr.URL)
			break
		}
		p.logger.Warn("backend rejected session, logging out", "url", apiErr.URL)
		if logoutErr := p.session.logout(context.WithoutCancel(ctx), ReasonUnauthorized); logoutErr != nil {
			p.logger.Error("logout after 401 failed", "error", logoutErr)
		}
	case http.StatusForbidden:
		metrics.InterceptedFailures.WithLabelValues("forbidden").Inc()
		p.logger.Warn("backend denied action", "method", apiErr.Method, "url", apiErr.URL)
	default:
		metrics.InterceptedFailures.WithLabelValues("status").Inc()
	}

	if apiErr.HasBody() {
		return apiErr.Response, nil
	}
	return nil, err
}

func (p *Policy) isExempt(rawURL string) bool {
	for _, fragment := range p.exempt {
		if strings.Contains(rawURL, fragment) {
			return true
		}
	}
	return false
}
