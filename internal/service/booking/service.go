package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"eventix/internal/domain"
	"eventix/internal/pkg/metrics"
	"eventix/internal/repository"
	postgres "eventix/internal/repository/postgres"
	"eventix/internal/uow"
)

// TxRunner executes a function inside one atomic transaction and runs the
// registered hooks after commit. *uow.UoW satisfies it.
type TxRunner interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx postgres.DB, after func(uow.AfterCommit)) error) error
}

// SeatUpdatePublisher is the notification sink. Best effort: called after
// commit only, errors are logged and swallowed.
type SeatUpdatePublisher interface {
	PublishSeatUpdate(ctx context.Context, eventID int64, availableSeats int) error
}

// EventCacheInvalidator drops cached event views after a seat change.
type EventCacheInvalidator interface {
	InvalidateEvent(ctx context.Context, eventID int64) error
}

// RateLimiter caps booking creation per caller. nil disables limiting.
type RateLimiter interface {
	Allow(ctx context.Context, caller string) (bool, time.Duration, error)
}

// Service is the inventory transaction manager: the sole code path that
// mutates available_seats, always in lockstep with a booking status change
// and always inside one transaction.
type Service struct {
	runner  TxRunner
	ledger  Ledger
	cache   EventCacheInvalidator
	pubsub  SeatUpdatePublisher
	limiter RateLimiter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(
	runner TxRunner,
	ledger Ledger,
	cache EventCacheInvalidator,
	pubsub SeatUpdatePublisher,
	limiter RateLimiter,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		runner:  runner,
		ledger:  ledger,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
		metrics: m,
		logger:  logger,
	}
}

type CreateInput struct {
	EventID  int64
	Quantity int
	Mobile   string
}

// Create books quantity seats on the event for the caller.
//
// The availability check, the price read, the booking insert and the seat
// decrement all happen inside one serializable transaction, so two creates
// that would jointly oversell cannot both commit. A transient serialization
// failure is retried once before surfacing ErrTxConflict.
//
// Returns:
//   - ErrInvalidQuantity if quantity is not positive.
//   - ErrEventNotFound if the event does not exist.
//   - ErrInsufficientSeats if fewer than quantity seats are available.
//   - ErrTxConflict if the transaction lost twice to concurrent ones.
//   - *RateLimitedError if the caller exceeded the booking rate.
func (s *Service) Create(ctx context.Context, in CreateInput, ident domain.Identity) (*domain.Booking, error) {
	const op = "service.booking.Create"

	if in.Quantity <= 0 {
		s.count("invalid_quantity")
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidQuantity)
	}

	if s.limiter != nil {
		allowed, retry, err := s.limiter.Allow(ctx, fmt.Sprintf("user:%d", ident.UserID))
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !allowed {
			return nil, fmt.Errorf("%s:%w", op, &RateLimitedError{RetryAfter: retry})
		}
	}

	var created *domain.Booking

	err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.runner.Do(ctx, func(ctx context.Context, tx postgres.DB, after func(uow.AfterCommit)) error {
			ev, err := s.ledger.EventForUpdate(ctx, tx, in.EventID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("%s:%w", op, ErrEventNotFound)
				}

				return fmt.Errorf("%s:%w", op, err)
			}

			available, err := s.ledger.AdjustSeats(ctx, tx, in.EventID, -in.Quantity)
			if err != nil {
				if errors.Is(err, repository.ErrInsufficientSeats) {
					return fmt.Errorf("%s:%w", op, ErrInsufficientSeats)
				}

				return fmt.Errorf("%s:%w", op, err)
			}

			b := &domain.Booking{
				ID:         uuid.New(),
				UserID:     ident.UserID,
				EventID:    in.EventID,
				Quantity:   in.Quantity,
				TotalCents: int64(in.Quantity) * ev.PriceCents,
				Status:     domain.BookingConfirmed,
				Mobile:     in.Mobile,
			}

			if err := s.ledger.InsertBooking(ctx, tx, b); err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}

			created = b

			after(func(ctx context.Context) {
				s.notifySeatUpdate(ctx, in.EventID, available)
			})

			return nil
		})
	})
	if err != nil {
		s.countCreateFailure(err)
		return nil, err
	}

	s.count("created")

	return created, nil
}

// Cancel releases the booking's seat claim. The status flip and the seat
// increment commit atomically; a booking cancels at most once.
//
// Returns:
//   - ErrBookingNotFound if the booking does not exist.
//   - ErrNotAuthorized unless the caller owns the booking or is an admin.
//   - ErrAlreadyCancelled if the booking is already in its terminal state.
//   - ErrTxConflict if the transaction lost twice to concurrent ones.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, ident domain.Identity) (*domain.Booking, error) {
	const op = "service.booking.Cancel"

	var cancelled *domain.Booking

	err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.runner.Do(ctx, func(ctx context.Context, tx postgres.DB, after func(uow.AfterCommit)) error {
			b, err := s.ledger.BookingForUpdate(ctx, tx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("%s:%w", op, ErrBookingNotFound)
				}

				return fmt.Errorf("%s:%w", op, err)
			}

			if b.UserID != ident.UserID && !ident.IsAdmin() {
				return fmt.Errorf("%s:%w", op, ErrNotAuthorized)
			}

			if b.Status == domain.BookingCancelled {
				return fmt.Errorf("%s:%w", op, ErrAlreadyCancelled)
			}

			if err := s.ledger.CancelBooking(ctx, tx, id); err != nil {
				if errors.Is(err, repository.ErrAlreadyCancelled) {
					return fmt.Errorf("%s:%w", op, ErrAlreadyCancelled)
				}

				return fmt.Errorf("%s:%w", op, err)
			}

			available, err := s.ledger.AdjustSeats(ctx, tx, b.EventID, b.Quantity)
			if err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}

			cp := *b
			cp.Status = domain.BookingCancelled
			cancelled = &cp

			after(func(ctx context.Context) {
				s.notifySeatUpdate(ctx, cp.EventID, available)
			})

			return nil
		})
	})
	if err != nil {
		if errors.Is(err, ErrTxConflict) {
			s.count("conflict")
		}
		return nil, err
	}

	s.count("cancelled")

	return cancelled, nil
}

// Get retrieves a booking together with its event. Only the owner or an
// admin may see it.
func (s *Service) Get(ctx context.Context, id uuid.UUID, ident domain.Identity) (*domain.BookingWithEvent, error) {
	const op = "service.booking.Get"

	b, err := s.ledger.BookingWithEvent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrBookingNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if b.UserID != ident.UserID && !ident.IsAdmin() {
		return nil, fmt.Errorf("%s:%w", op, ErrNotAuthorized)
	}

	return b, nil
}

// ListMine retrieves the caller's bookings.
func (s *Service) ListMine(ctx context.Context, ident domain.Identity) ([]domain.BookingWithEvent, error) {
	const op = "service.booking.ListMine"

	out, err := s.ledger.BookingsByUser(ctx, ident.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// ListAll retrieves every booking. The transport layer restricts it to
// admins.
func (s *Service) ListAll(ctx context.Context) ([]domain.BookingWithEvent, error) {
	const op = "service.booking.ListAll"

	out, err := s.ledger.AllBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// AvailableSeats returns the current counters from a snapshot read.
func (s *Service) AvailableSeats(ctx context.Context, eventID int64) (*domain.SeatAvailability, error) {
	const op = "service.booking.AvailableSeats"

	av, err := s.ledger.Availability(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrEventNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return av, nil
}

// withRetry runs fn and retries it once when the failure is a transient
// concurrency error. The retry re-executes the whole transaction, so the
// availability re-check happens again from scratch.
func (s *Service) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil || !postgres.IsRetryable(err) {
		return err
	}

	if err := fn(ctx); err != nil {
		if postgres.IsRetryable(err) {
			return fmt.Errorf("%w: %w", ErrTxConflict, err)
		}

		return err
	}

	return nil
}

func (s *Service) notifySeatUpdate(ctx context.Context, eventID int64, available int) {
	if s.cache != nil {
		if err := s.cache.InvalidateEvent(ctx, eventID); err != nil {
			s.logger.Warn("failed to invalidate event cache",
				"error", err, "event_id", eventID)
		}
	}

	if s.pubsub != nil {
		if err := s.pubsub.PublishSeatUpdate(ctx, eventID, available); err != nil {
			s.logger.Warn("failed to publish seat update",
				"error", err, "event_id", eventID)
		}
	}
}

func (s *Service) count(outcome string) {
	if s.metrics != nil {
		s.metrics.BookingsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countCreateFailure(err error) {
	switch {
	case errors.Is(err, ErrInsufficientSeats):
		s.count("insufficient_seats")
	case errors.Is(err, ErrTxConflict):
		s.count("conflict")
	case errors.Is(err, ErrEventNotFound):
		s.count("event_not_found")
	default:
		s.count("error")
	}
}
