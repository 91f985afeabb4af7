package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-driveway/internal/config"
	"go-driveway/internal/handler"
	"go-driveway/internal/middleware"
	"go-driveway/internal/session"
)

type Sessions interface {
	Acquire(ctx context.Context, id string) (*session.Session, error)
}

type Handlers struct {
	Session *handler.SessionHandler
	Booking *handler.BookingHandler
	Page    *handler.PageHandler
}

func New(cfg *config.Config, sessions Sessions, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.SessionRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(app chi.Router) {
		app.Use(middleware.Timeout(cfg.RequestTimeout))
		app.Use(middleware.SessionLoader(sessions, middleware.SessionCookie{
			Name:   cfg.SessionCookieName,
			Secure: cfg.SessionCookieSecure,
			MaxAge: cfg.SessionCookieTTL,
		}))

		requireAuth := middleware.RequireAuth(cfg.LoginPath)
		requireGuest := middleware.RequireGuest(cfg.DashboardPath)

		app.Get("/config", h.Page.Config)

		app.With(requireGuest).Get("/login", h.Page.Page("login"))
		app.With(requireGuest).Get("/register", h.Page.Page("register"))
		app.With(requireAuth).Get("/dashboard", h.Page.Page("dashboard"))
		app.With(requireAuth).Get("/bookings", h.Page.Page("bookings"))
		app.With(requireAuth).Get("/owner", h.Page.Page("owner"))

		app.Route("/session", func(s chi.Router) {
			s.Get("/", h.Session.Show)
			s.With(middleware.RejectAuthenticated).Post("/login", h.Session.Login)
			s.With(middleware.RejectAuthenticated).Post("/register", h.Session.Register)
			s.With(middleware.RejectAuthenticated).Post("/google", h.Session.Google)
			s.With(middleware.RequireSession).Post("/refresh", h.Session.Refresh)
			s.With(middleware.RequireSession).Post("/owner", h.Session.OwnerLogin)
			s.With(middleware.RequireSession).Delete("/owner", h.Session.OwnerLogout)
			s.Post("/logout", h.Session.Logout)
			s.Post("/visibility", h.Session.Visibility)
		})

		app.Route("/api", func(api chi.Router) {
			api.Post("/bookings/quote", h.Booking.Quote)
			api.Get("/spots/search", h.Booking.SearchSpots)
			api.With(middleware.RequireSession).Get("/bookings", h.Booking.Bookings)
			api.With(middleware.RequireSession).Get("/owner/spots", h.Booking.OwnerSpots)
		})
	})

	return r
}
