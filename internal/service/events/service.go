package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventix/internal/domain"
	redisx "eventix/internal/redis"
	"eventix/internal/repository"
	postgresrepo "eventix/internal/repository/postgres"
	redisrepo "eventix/internal/repository/redis"
)

type Config struct {
	EventSummaryTTL time.Duration
	EventListTTL    time.Duration
}

// Service serves event reads through the cache and the administrative
// writes. It never touches available_seats beyond the initial
// available = total on creation; seat movement is the booking service's.
type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.EventSummaryTTL <= 0 {
		cfg.EventSummaryTTL = 60 * time.Second
	}

	if cfg.EventListTTL <= 0 {
		cfg.EventListTTL = 15 * time.Second
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// Get retrieves an event by its ID through the cache.
//
// Returns ErrEventNotFound if the event does not exist.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "service.events.Get"

	load := func(ctx context.Context) (domain.Event, error) {
		e, err := s.store.Events().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.Event{}, ErrEventNotFound
			}

			return domain.Event{}, err
		}

		return *e, nil
	}

	if s.cache == nil {
		e, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		return &e, nil
	}

	e, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyEventSummary(id),
		s.cfg.EventSummaryTTL,
		load,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &e, nil
}

// List retrieves events matching the filter. Only the unfiltered listing is
// cached; filtered queries go straight to the store.
func (s *Service) List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	const op = "service.events.List"

	unfiltered := f == (domain.EventFilter{})

	if s.cache == nil || !unfiltered {
		out, err := s.store.Events().List(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		return out, nil
	}

	out, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyEventList(),
		s.cfg.EventListTTL,
		func(ctx context.Context) ([]domain.Event, error) {
			return s.store.Events().List(ctx, f)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

type CreateInput struct {
	Title       string
	Description string
	Location    string
	Category    string
	StartsAt    time.Time
	PriceCents  int64
	TotalSeats  int
}

// Create adds a new event with every seat available.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Event, error) {
	const op = "service.events.Create"

	if in.TotalSeats <= 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidSeats)
	}

	if in.PriceCents < 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidPrice)
	}

	e := &domain.Event{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Category:    in.Category,
		StartsAt:    in.StartsAt,
		PriceCents:  in.PriceCents,
		TotalSeats:  in.TotalSeats,
	}

	id, err := s.store.Events().Create(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s.invalidate(ctx, id)

	out, err := s.store.Events().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

type UpdateInput struct {
	Title       string
	Description string
	Location    string
	Category    string
	StartsAt    time.Time
	PriceCents  int64
}

// Update rewrites the descriptive fields and the price. Already-confirmed
// bookings keep the total they were priced at; seat counts are untouchable
// here.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*domain.Event, error) {
	const op = "service.events.Update"

	if in.PriceCents < 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidPrice)
	}

	e := &domain.Event{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Category:    in.Category,
		StartsAt:    in.StartsAt,
		PriceCents:  in.PriceCents,
	}

	out, err := s.store.Events().Update(ctx, e)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrEventNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s.invalidate(ctx, id)

	return out, nil
}

// Delete removes an event without bookings.
//
// Returns ErrEventHasBookings while any booking, confirmed or cancelled,
// still references the event: the booking ledger is permanent, so deletion
// is restricted rather than cascaded.
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "service.events.Delete"

	if err := s.store.Events().Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrEventHasBookings),
			errors.Is(err, repository.ErrConflict):
			return fmt.Errorf("%s:%w", op, ErrEventHasBookings)
		case errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("%s:%w", op, ErrEventNotFound)
		}

		return fmt.Errorf("%s:%w", op, err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache != nil {
		_ = s.cache.InvalidateEvent(ctx, id)
	}
}
