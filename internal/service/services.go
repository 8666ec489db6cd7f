package service

import (
	"log/slog"

	"eventix/internal/pkg/metrics"
	postgres "eventix/internal/repository/postgres"
	redis "eventix/internal/repository/redis"
	"eventix/internal/service/auth"
	"eventix/internal/service/booking"
	"eventix/internal/service/events"
	"eventix/internal/uow"
)

type Services struct {
	Auth    *auth.Service
	Events  *events.Service
	Booking *booking.Service
}

type Config struct {
	Auth   auth.Config
	Events events.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub booking.SeatUpdatePublisher,
	limiter booking.RateLimiter,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Services {
	return &Services{
		Auth:   auth.New(store.Users(), cfg.Auth),
		Events: events.New(store, cache, cfg.Events),
		Booking: booking.New(
			uow.NewUoW(store),
			booking.NewPGLedger(store),
			cache,
			pubsub,
			limiter,
			m,
			logger,
		),
	}
}
