package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-driveway/internal/apiclient"
	"go-driveway/internal/config"
	"go-driveway/internal/event"
	"go-driveway/internal/handler"
	"go-driveway/internal/metrics"
	"go-driveway/internal/model"
	"go-driveway/internal/router"
	"go-driveway/internal/session"
	"go-driveway/internal/storage"
	"go-driveway/internal/validator"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	slog.Info("session storage ready", "driver", cfg.StorageDriver)

	bus := event.NewBus()
	bus.OnDrop(func(event.Event) {
		metrics.EventsDropped.Inc()
	})

	clientCfg := apiclient.DefaultConfig(cfg.APIBaseURL)
	clientCfg.Timeout = cfg.APITimeout

	manager := session.NewManager(backend, clientCfg, bus, slog.Default())
	tokenValidator := validator.New(manager, bus, cfg.ProbeTimeout, slog.Default())

	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())
	waitValidator := tokenValidator.Start(backgroundCtx)
	go manager.StartEvictionTicker(backgroundCtx, cfg.SessionIdleTTL)

	appRouter := router.New(cfg, manager, router.Handlers{
		Session: handler.NewSessionHandler(bus),
		Booking: handler.NewBookingHandler(loc, cfg.DefaultHourlyRate),
		Page: handler.NewPageHandler(bus, model.PublicConfig{
			GoogleMapsAPIKey: cfg.GoogleMapsAPIKey,
			GoogleClientID:   cfg.GoogleClientID,
			SentryDSN:        cfg.SentryDSN,
			GAMeasurementID:  cfg.GAMeasurementID,
		}),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		cleanupFuncs: []func(){
			func() {
				backgroundCancel()
				waitValidator()
			},
			func() {
				manager.Close()
				bus.Close()
			},
			func() {
				if err := backend.Close(); err != nil {
					slog.Warn("failed to close session storage", "error", err)
				}
			},
		},
	}, nil
}

func newBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.StorageDriver {
	case config.StorageFile:
		backend, err := storage.NewFileBackend(cfg.StorageDir)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case config.StorageRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := storage.NewRedisClient(ctx, storage.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return storage.NewRedisBackend(client, "", cfg.SessionCookieTTL), nil
	default:
		return storage.NewMemoryBackend(), nil
	}
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)

	// sessions outlive in-flight requests, so they go after the listener
	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
