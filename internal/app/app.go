package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"eventix/internal/config"
	"eventix/internal/pkg/metrics"
	"eventix/internal/postgres"
	redisx "eventix/internal/redis"
	postgresrepo "eventix/internal/repository/postgres"
	redisrepo "eventix/internal/repository/redis"
	"eventix/internal/service"
	"eventix/internal/service/auth"
	"eventix/internal/service/events"
	httpgin "eventix/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	stream     *httpgin.SeatStream
	pubsub     *redisx.SeatUpdatesPubSub
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	dsn := cfg.Postgres.DSN()

	if err := postgres.Migrate(dsn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redisx.New(context.Background(), redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisx.NewSeatUpdatesPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(
		rdb, "bookings", cfg.Limits.BookingsPerMinute, 1*time.Minute,
	)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	m := metrics.New()

	services := service.NewServices(store, cache, pubsub, limiter, m, logger, service.Config{
		Auth: auth.Config{
			JWTSecret: cfg.Auth.JWTSecret,
			TokenTTL:  cfg.Auth.TokenTTL,
		},
		Events: events.Config{},
	})

	stream := httpgin.NewSeatStream()

	router := httpgin.NewRouter(httpgin.Deps{
		Auth:      services.Auth,
		Events:    services.Events,
		Bookings:  services.Booking,
		Idem:      idempotencyStore,
		Stream:    stream,
		JWTSecret: cfg.Auth.JWTSecret,
		Metrics:   m,
	}, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
		stream: stream,
		pubsub: pubsub,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Feed the SSE stream from the seat-update channel
	g.Go(func() error {
		if err := a.stream.Run(gCtx, a.pubsub); err != nil && gCtx.Err() == nil {
			return fmt.Errorf("seat update stream stopped: %w", err)
		}
		return nil
	})

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
