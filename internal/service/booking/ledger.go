package booking

import (
	"context"

	"github.com/google/uuid"

	"eventix/internal/domain"
	postgres "eventix/internal/repository/postgres"
)

// Ledger is the durable storage the manager mutates. Methods that take a tx
// run inside the manager's transaction; the rest are snapshot reads.
type Ledger interface {
	EventForUpdate(ctx context.Context, tx postgres.DB, id int64) (*domain.Event, error)
	AdjustSeats(ctx context.Context, tx postgres.DB, id int64, delta int) (int, error)

	InsertBooking(ctx context.Context, tx postgres.DB, b *domain.Booking) error
	BookingForUpdate(ctx context.Context, tx postgres.DB, id uuid.UUID) (*domain.Booking, error)
	CancelBooking(ctx context.Context, tx postgres.DB, id uuid.UUID) error

	BookingWithEvent(ctx context.Context, id uuid.UUID) (*domain.BookingWithEvent, error)
	BookingsByUser(ctx context.Context, userID int64) ([]domain.BookingWithEvent, error)
	AllBookings(ctx context.Context) ([]domain.BookingWithEvent, error)
	Availability(ctx context.Context, eventID int64) (*domain.SeatAvailability, error)
}

// PGLedger adapts the postgres store to the Ledger interface.
type PGLedger struct {
	store *postgres.Store
}

func NewPGLedger(store *postgres.Store) *PGLedger {
	return &PGLedger{store: store}
}

func (l *PGLedger) EventForUpdate(ctx context.Context, tx postgres.DB, id int64) (*domain.Event, error) {
	return l.store.Events().With(tx).GetLocked(ctx, id)
}

func (l *PGLedger) AdjustSeats(ctx context.Context, tx postgres.DB, id int64, delta int) (int, error) {
	return l.store.Events().With(tx).AdjustSeats(ctx, id, delta)
}

func (l *PGLedger) InsertBooking(ctx context.Context, tx postgres.DB, b *domain.Booking) error {
	return l.store.Bookings().With(tx).Insert(ctx, b)
}

func (l *PGLedger) BookingForUpdate(ctx context.Context, tx postgres.DB, id uuid.UUID) (*domain.Booking, error) {
	return l.store.Bookings().With(tx).GetLocked(ctx, id)
}

func (l *PGLedger) CancelBooking(ctx context.Context, tx postgres.DB, id uuid.UUID) error {
	return l.store.Bookings().With(tx).SetCancelled(ctx, id)
}

func (l *PGLedger) BookingWithEvent(ctx context.Context, id uuid.UUID) (*domain.BookingWithEvent, error) {
	return l.store.Bookings().GetWithEvent(ctx, id)
}

func (l *PGLedger) BookingsByUser(ctx context.Context, userID int64) ([]domain.BookingWithEvent, error) {
	return l.store.Bookings().ListByUser(ctx, userID)
}

func (l *PGLedger) AllBookings(ctx context.Context) ([]domain.BookingWithEvent, error) {
	return l.store.Bookings().ListAll(ctx)
}

func (l *PGLedger) Availability(ctx context.Context, eventID int64) (*domain.SeatAvailability, error) {
	return l.store.Events().Availability(ctx, eventID)
}
