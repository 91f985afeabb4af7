// Package validator re-checks visitor sessions against the backend in the
// background when a page loads or a tab becomes visible.
package validator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go-driveway/internal/apiclient"
	"go-driveway/internal/event"
	"go-driveway/internal/metrics"
	"go-driveway/internal/session"
)

const ProbePath = "api/auth/user"

var ErrUnknownSession = errors.New("unknown session")

type SessionLookup interface {
	Lookup(id string) (*session.Session, bool)
}

// Validator fires a "who am I" request for every load or visibility event.
// Checks are not deduplicated; a 401 answer reaches the session policy, which
// performs the logout.
type Validator struct {
	sessions SessionLookup
	bus      event.Bus
	timeout  time.Duration
	logger   *slog.Logger

	wg sync.WaitGroup
}

func New(sessions SessionLookup, bus event.Bus, timeout time.Duration, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Validator{sessions: sessions, bus: bus, timeout: timeout, logger: logger}
}

// Start subscribes to the bus and handles events in the background until ctx
// is cancelled. The returned func blocks until the loop and every in-flight
// probe have finished.
func (v *Validator) Start(ctx context.Context) func() {
	events, unsubscribe := v.bus.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer unsubscribe()
		v.loop(ctx, events)
	}()

	return func() {
		<-done
		v.wg.Wait()
	}
}

func (v *Validator) loop(ctx context.Context, events <-chan event.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Type != event.TypeAppLoaded && e.Type != event.TypeTabVisible {
				continue
			}

			v.wg.Add(1)
			go func(sessionID string, trigger event.Type) {
				defer v.wg.Done()

				probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), v.timeout)
				defer cancel()

				if err := v.Probe(probeCtx, sessionID); err != nil {
					v.logger.Warn("token check failed", "session_id", sessionID, "trigger", trigger, "error", err)
				}
			}(e.SessionID, e.Type)
		}
	}
}

// Probe runs one check for a signed-in session. It never changes the
// session itself.
func (v *Validator) Probe(ctx context.Context, sessionID string) error {
	s, ok := v.sessions.Lookup(sessionID)
	if !ok {
		metrics.TokenProbes.WithLabelValues("skipped").Inc()
		return fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}

	// Anonymous visitors have nothing to validate; a 401 here would log them
	// out and drop the page they were sent away from.
	if s.State().UserAccessToken == "" {
		metrics.TokenProbes.WithLabelValues("skipped").Inc()
		v.logger.Debug("token check skipped", "session_id", sessionID, "reason", "no token")
		return nil
	}

	resp, err := s.Client(apiclient.RoleUser).Get(ctx, ProbePath, nil)
	if err != nil {
		metrics.TokenProbes.WithLabelValues("error").Inc()
		return fmt.Errorf("probe %s: %w", ProbePath, err)
	}

	if problem, failed := resp.Problem(); failed {
		metrics.TokenProbes.WithLabelValues("rejected").Inc()
		return fmt.Errorf("probe %s: status %d: %s", ProbePath, resp.Status, problem)
	}

	metrics.TokenProbes.WithLabelValues("ok").Inc()
	v.logger.Debug("token check passed", "session_id", sessionID)
	return nil
}
