package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"eventix/internal/domain"
	"eventix/internal/repository"
)

type EventRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *EventRepo) With(db DB) *EventRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *EventRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const eventColumns = `id, title, description, location, category, starts_at,
		price_cents, total_seats, available_seats, created_at`

func scanEvent(row interface{ Scan(...any) error }, e *domain.Event) error {
	return row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.Category,
		&e.StartsAt, &e.PriceCents, &e.TotalSeats, &e.AvailableSeats,
		&e.CreatedAt,
	)
}

// Create inserts a new event. available_seats always starts equal to
// total_seats; only booking transactions may move it afterwards.
func (r *EventRepo) Create(ctx context.Context, e *domain.Event) (int64, error) {
	const op = "postgres.EventRepo.Create"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO events(title, description, location, category, starts_at,
			price_cents, total_seats, available_seats)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 RETURNING id`,
		e.Title, e.Description, e.Location, e.Category, e.StartsAt,
		e.PriceCents, e.TotalSeats,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

// GetByID retrieves an event by its ID.
//
// Returns repository.ErrNotFound if the event does not exist.
func (r *EventRepo) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgres.EventRepo.GetByID"

	db := r.handle()

	var e domain.Event
	row := db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	if err := scanEvent(row, &e); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &e, nil
}

// GetLocked reads the event row under FOR UPDATE so price and seat counts
// are observed consistently for the duration of the transaction. Must be
// called through With(tx).
func (r *EventRepo) GetLocked(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgres.EventRepo.GetLocked"

	db := r.handle()

	var e domain.Event
	row := db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
	if err := scanEvent(row, &e); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &e, nil
}

// List retrieves events matching the filter, soonest first.
func (r *EventRepo) List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	const op = "postgres.EventRepo.List"

	db := r.handle()

	var (
		conds []string
		args  []any
	)

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		p := fmt.Sprintf("$%d", len(args))
		conds = append(conds, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}

	if f.Location != "" {
		args = append(args, f.Location)
		conds = append(conds, fmt.Sprintf("location ILIKE $%d", len(args)))
	}

	if !f.From.IsZero() {
		args = append(args, f.From)
		conds = append(conds, fmt.Sprintf("starts_at >= $%d", len(args)))
	}

	q := `SELECT ` + eventColumns + ` FROM events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY starts_at"

	rows, err := db.Query(ctx, q, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// Update rewrites the descriptive fields and the price. Seat counts are not
// touched here: available_seats belongs to the booking transactions and
// total_seats is immutable after creation.
func (r *EventRepo) Update(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	const op = "postgres.EventRepo.Update"

	db := r.handle()

	var out domain.Event
	row := db.QueryRow(ctx,
		`UPDATE events
		 SET title = $2, description = $3, location = $4, category = $5,
			starts_at = $6, price_cents = $7
		 WHERE id = $1
		 RETURNING `+eventColumns,
		e.ID, e.Title, e.Description, e.Location, e.Category, e.StartsAt,
		e.PriceCents,
	)
	if err := scanEvent(row, &out); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &out, nil
}

// Delete removes an event. Events with bookings (confirmed or cancelled)
// cannot be deleted; bookings are a permanent ledger.
//
// Returns repository.ErrEventHasBookings when any booking references the
// event, repository.ErrNotFound when the event does not exist.
func (r *EventRepo) Delete(ctx context.Context, id int64) error {
	const op = "postgres.EventRepo.Delete"

	db := r.handle()

	var hasBookings bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE event_id = $1)`, id,
	).Scan(&hasBookings); err != nil {
		return wrapDBErr(op, err)
	}

	if hasBookings {
		return fmt.Errorf("%s:%w", op, repository.ErrEventHasBookings)
	}

	tag, err := db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// Availability returns the current seat counters from a snapshot read.
func (r *EventRepo) Availability(ctx context.Context, id int64) (*domain.SeatAvailability, error) {
	const op = "postgres.EventRepo.Availability"

	db := r.handle()

	av := domain.SeatAvailability{EventID: id}
	if err := db.QueryRow(ctx,
		`SELECT available_seats, total_seats FROM events WHERE id = $1`, id,
	).Scan(&av.AvailableSeats, &av.TotalSeats); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &av, nil
}

// AdjustSeats moves available_seats by delta (negative to claim seats,
// positive to return them) as a single conditional update. The WHERE clause
// re-checks the bound inside the transaction, so a concurrent claim that
// would drive the counter negative affects zero rows instead.
//
// Returns the new available_seats value, or repository.ErrInsufficientSeats
// when the event exists but cannot satisfy the claim.
func (r *EventRepo) AdjustSeats(ctx context.Context, id int64, delta int) (int, error) {
	const op = "postgres.EventRepo.AdjustSeats"

	db := r.handle()

	var available int
	err := db.QueryRow(ctx,
		`UPDATE events
		 SET available_seats = available_seats + $2
		 WHERE id = $1
			AND available_seats + $2 >= 0
			AND available_seats + $2 <= total_seats
		 RETURNING available_seats`,
		id, delta,
	).Scan(&available)
	if err == nil {
		return available, nil
	}

	// Zero rows: either the event is gone or the bound would be violated.
	var exists bool
	if chkErr := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id,
	).Scan(&exists); chkErr == nil && exists {
		return 0, fmt.Errorf("%s:%w", op, repository.ErrInsufficientSeats)
	}

	return 0, wrapDBErr(op, err)
}
