package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventix/internal/domain"
	"eventix/internal/repository"
)

type BookingRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *BookingRepo) With(db DB) *BookingRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *BookingRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Insert writes a new booking row. The caller is responsible for running it
// in the same transaction as the seat decrement.
func (r *BookingRepo) Insert(ctx context.Context, b *domain.Booking) error {
	const op = "postgres.BookingRepo.Insert"

	db := r.handle()

	if err := db.QueryRow(ctx,
		`INSERT INTO bookings(id, user_id, event_id, quantity, total_cents,
			status, mobile)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		 RETURNING created_at`,
		b.ID, b.UserID, b.EventID, b.Quantity, b.TotalCents, b.Status,
		b.Mobile,
	).Scan(&b.CreatedAt); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// GetLocked reads the booking row under FOR UPDATE so a concurrent cancel of
// the same booking serializes behind this transaction. Must be called
// through With(tx).
func (r *BookingRepo) GetLocked(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.GetLocked"

	db := r.handle()

	var b domain.Booking
	if err := db.QueryRow(ctx,
		`SELECT id, user_id, event_id, quantity, total_cents, status,
			COALESCE(mobile, ''), created_at
		 FROM bookings WHERE id = $1
		 FOR UPDATE`,
		id,
	).Scan(
		&b.ID, &b.UserID, &b.EventID, &b.Quantity, &b.TotalCents, &b.Status,
		&b.Mobile, &b.CreatedAt,
	); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &b, nil
}

// SetCancelled flips a confirmed booking to cancelled. The status guard in
// the WHERE clause makes the transition one-way: a booking that is already
// cancelled affects zero rows.
func (r *BookingRepo) SetCancelled(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.BookingRepo.SetCancelled"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE bookings SET status = $2 WHERE id = $1 AND status = $3`,
		id, domain.BookingCancelled, domain.BookingConfirmed,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrAlreadyCancelled)
	}

	return nil
}

const bookingWithEventQuery = `
	SELECT b.id, b.user_id, b.event_id, b.quantity, b.total_cents, b.status,
		COALESCE(b.mobile, ''), b.created_at,
		e.id, e.title, e.description, e.location, e.category, e.starts_at,
		e.price_cents, e.total_seats, e.available_seats, e.created_at
	FROM bookings b
	JOIN events e ON e.id = b.event_id`

func scanBookingWithEvent(row interface{ Scan(...any) error }) (*domain.BookingWithEvent, error) {
	var out domain.BookingWithEvent
	if err := row.Scan(
		&out.ID, &out.UserID, &out.EventID, &out.Quantity, &out.TotalCents,
		&out.Status, &out.Mobile, &out.CreatedAt,
		&out.Event.ID, &out.Event.Title, &out.Event.Description,
		&out.Event.Location, &out.Event.Category, &out.Event.StartsAt,
		&out.Event.PriceCents, &out.Event.TotalSeats,
		&out.Event.AvailableSeats, &out.Event.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &out, nil
}

// GetWithEvent retrieves a booking together with its event.
//
// Returns repository.ErrNotFound if the booking does not exist.
func (r *BookingRepo) GetWithEvent(ctx context.Context, id uuid.UUID) (*domain.BookingWithEvent, error) {
	const op = "postgres.BookingRepo.GetWithEvent"

	db := r.handle()

	out, err := scanBookingWithEvent(
		db.QueryRow(ctx, bookingWithEventQuery+` WHERE b.id = $1`, id),
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// ListByUser retrieves all bookings owned by the user, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID int64) ([]domain.BookingWithEvent, error) {
	const op = "postgres.BookingRepo.ListByUser"

	return r.list(ctx, op,
		bookingWithEventQuery+` WHERE b.user_id = $1 ORDER BY b.created_at DESC`,
		userID,
	)
}

// ListAll retrieves every booking in the ledger, newest first.
func (r *BookingRepo) ListAll(ctx context.Context) ([]domain.BookingWithEvent, error) {
	const op = "postgres.BookingRepo.ListAll"

	return r.list(ctx, op,
		bookingWithEventQuery+` ORDER BY b.created_at DESC`,
	)
}

func (r *BookingRepo) list(ctx context.Context, op, q string, args ...any) ([]domain.BookingWithEvent, error) {
	db := r.handle()

	rows, err := db.Query(ctx, q, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.BookingWithEvent
	for rows.Next() {
		b, err := scanBookingWithEvent(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
