package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventix/internal/domain"
	"eventix/internal/repository"
	postgres "eventix/internal/repository/postgres"
	"eventix/internal/uow"
)

// memLedger keeps events and bookings in memory. Tx-taking methods assume
// the runner already holds the lock; snapshot reads take it themselves.
type memLedger struct {
	mu       sync.Mutex
	events   map[int64]*domain.Event
	bookings map[uuid.UUID]*domain.Booking

	// injected, consumed once per call site
	adjustErrs []error
}

func newMemLedger(events ...*domain.Event) *memLedger {
	l := &memLedger{
		events:   make(map[int64]*domain.Event),
		bookings: make(map[uuid.UUID]*domain.Booking),
	}
	for _, e := range events {
		cp := *e
		l.events[e.ID] = &cp
	}
	return l
}

func (l *memLedger) snapshot() (map[int64]domain.Event, map[uuid.UUID]domain.Booking) {
	evs := make(map[int64]domain.Event, len(l.events))
	for id, e := range l.events {
		evs[id] = *e
	}
	bks := make(map[uuid.UUID]domain.Booking, len(l.bookings))
	for id, b := range l.bookings {
		bks[id] = *b
	}
	return evs, bks
}

func (l *memLedger) restore(evs map[int64]domain.Event, bks map[uuid.UUID]domain.Booking) {
	l.events = make(map[int64]*domain.Event, len(evs))
	for id, e := range evs {
		cp := e
		l.events[id] = &cp
	}
	l.bookings = make(map[uuid.UUID]*domain.Booking, len(bks))
	for id, b := range bks {
		cp := b
		l.bookings[id] = &cp
	}
}

func (l *memLedger) EventForUpdate(_ context.Context, _ postgres.DB, id int64) (*domain.Event, error) {
	e, ok := l.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (l *memLedger) AdjustSeats(_ context.Context, _ postgres.DB, id int64, delta int) (int, error) {
	if len(l.adjustErrs) > 0 {
		err := l.adjustErrs[0]
		l.adjustErrs = l.adjustErrs[1:]
		if err != nil {
			return 0, err
		}
	}

	e, ok := l.events[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	next := e.AvailableSeats + delta
	if next < 0 || next > e.TotalSeats {
		return 0, repository.ErrInsufficientSeats
	}
	e.AvailableSeats = next
	return next, nil
}

func (l *memLedger) InsertBooking(_ context.Context, _ postgres.DB, b *domain.Booking) error {
	cp := *b
	l.bookings[b.ID] = &cp
	return nil
}

func (l *memLedger) BookingForUpdate(_ context.Context, _ postgres.DB, id uuid.UUID) (*domain.Booking, error) {
	b, ok := l.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (l *memLedger) CancelBooking(_ context.Context, _ postgres.DB, id uuid.UUID) error {
	b, ok := l.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	if b.Status == domain.BookingCancelled {
		return repository.ErrAlreadyCancelled
	}
	b.Status = domain.BookingCancelled
	return nil
}

func (l *memLedger) BookingWithEvent(_ context.Context, id uuid.UUID) (*domain.BookingWithEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	e := l.events[b.EventID]
	return &domain.BookingWithEvent{Booking: *b, Event: *e}, nil
}

func (l *memLedger) BookingsByUser(_ context.Context, userID int64) ([]domain.BookingWithEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.BookingWithEvent
	for _, b := range l.bookings {
		if b.UserID == userID {
			out = append(out, domain.BookingWithEvent{Booking: *b, Event: *l.events[b.EventID]})
		}
	}
	return out, nil
}

func (l *memLedger) AllBookings(_ context.Context) ([]domain.BookingWithEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.BookingWithEvent
	for _, b := range l.bookings {
		out = append(out, domain.BookingWithEvent{Booking: *b, Event: *l.events[b.EventID]})
	}
	return out, nil
}

func (l *memLedger) Availability(_ context.Context, eventID int64) (*domain.SeatAvailability, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &domain.SeatAvailability{
		EventID:        e.ID,
		AvailableSeats: e.AvailableSeats,
		TotalSeats:     e.TotalSeats,
	}, nil
}

func (l *memLedger) available(t *testing.T, eventID int64) int {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.events[eventID]
	require.True(t, ok)
	return e.AvailableSeats
}

// memRunner serializes transactions with the ledger's lock and restores the
// pre-transaction state on error, so a failed fn leaves no trace. Hooks run
// only after the "commit".
type memRunner struct {
	ledger *memLedger
}

func (r *memRunner) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx postgres.DB, after func(uow.AfterCommit)) error,
) error {
	r.ledger.mu.Lock()
	evs, bks := r.ledger.snapshot()

	var hooks []uow.AfterCommit
	err := fn(ctx, nil, func(h uow.AfterCommit) {
		hooks = append(hooks, h)
	})
	if err != nil {
		r.ledger.restore(evs, bks)
		r.ledger.mu.Unlock()
		return err
	}
	r.ledger.mu.Unlock()

	for _, h := range hooks {
		h(ctx)
	}
	return nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	updates []domain.SeatUpdate
}

func (p *recordingPublisher) PublishSeatUpdate(_ context.Context, eventID int64, availableSeats int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, domain.SeatUpdate{EventID: eventID, AvailableSeats: availableSeats})
	return nil
}

func (p *recordingPublisher) all() []domain.SeatUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.SeatUpdate(nil), p.updates...)
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 30 * time.Second, nil
}

func newTestService(l *memLedger, pub SeatUpdatePublisher) *Service {
	return New(&memRunner{ledger: l}, l, nil, pub, nil, nil, nil)
}

func testEvent(id int64, total, available int, priceCents int64) *domain.Event {
	return &domain.Event{
		ID:             id,
		Title:          "show",
		PriceCents:     priceCents,
		TotalSeats:     total,
		AvailableSeats: available,
	}
}

var (
	alice = domain.Identity{UserID: 1, Role: domain.RoleUser}
	bob   = domain.Identity{UserID: 2, Role: domain.RoleUser}
	root  = domain.Identity{UserID: 99, Role: domain.RoleAdmin}
)

func TestCreate_DecrementsSeats(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 10, 2500))
	svc := newTestService(ledger, nil)

	b, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 4}, alice)
	require.NoError(t, err)

	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.Equal(t, int64(4*2500), b.TotalCents)
	assert.Equal(t, alice.UserID, b.UserID)
	assert.Equal(t, 6, ledger.available(t, 1))
}

func TestCreate_ExactRemainingSeats(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 5, 1000))
	svc := newTestService(ledger, nil)

	_, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 5}, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.available(t, 1))
}

func TestCreate_InsufficientSeats(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 2, 1000))
	svc := newTestService(ledger, nil)

	_, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 5}, alice)
	require.ErrorIs(t, err, ErrInsufficientSeats)

	// nothing committed
	assert.Equal(t, 2, ledger.available(t, 1))
	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_InvalidQuantity(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 10, 1000))
	svc := newTestService(ledger, nil)

	for _, q := range []int{0, -1} {
		_, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: q}, alice)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Equal(t, 10, ledger.available(t, 1))
}

func TestCreate_EventNotFound(t *testing.T) {
	svc := newTestService(newMemLedger(), nil)

	_, err := svc.Create(context.Background(), CreateInput{EventID: 404, Quantity: 1}, alice)
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestCreate_RateLimited(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 10, 1000))
	svc := New(&memRunner{ledger: ledger}, ledger, nil, nil, denyLimiter{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 1}, alice)

	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 30*time.Second, rl.RetryAfter)
	assert.Equal(t, 10, ledger.available(t, 1))
}

func TestCreate_FrozenPrice(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 10, 2000))
	svc := newTestService(ledger, nil)

	b, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 2}, alice)
	require.NoError(t, err)
	require.Equal(t, int64(4000), b.TotalCents)

	// price change after booking must not affect the stored total
	ledger.mu.Lock()
	ledger.events[1].PriceCents = 9999
	ledger.mu.Unlock()

	got, err := svc.Get(context.Background(), b.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), got.TotalCents)
}

func TestCancel_RestoresSeats(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 10, 1000))
	svc := newTestService(ledger, nil)

	b, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 3}, alice)
	require.NoError(t, err)
	require.Equal(t, 7, ledger.available(t, 1))

	cancelled, err := svc.Cancel(context.Background(), b.ID, alice)
	require.NoError(t, err)

	assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	assert.Equal(t, 10, ledger.available(t, 1))
}

func TestCancel_Twice(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 10, 1000))
	svc := newTestService(ledger, nil)

	b, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 3}, alice)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), b.ID, alice)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), b.ID, alice)
	require.ErrorIs(t, err, ErrAlreadyCancelled)

	// the second cancel must not increment again
	assert.Equal(t, 10, ledger.available(t, 1))
}

func TestCancel_NotOwner(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 10, 1000))
	svc := newTestService(ledger, nil)

	b, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 3}, alice)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), b.ID, bob)
	require.ErrorIs(t, err, ErrNotAuthorized)

	// no state change
	assert.Equal(t, 7, ledger.available(t, 1))
	got, err := svc.Get(context.Background(), b.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)
}

func TestCancel_AdminMayCancelAnyBooking(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 10, 1000))
	svc := newTestService(ledger, nil)

	b, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 3}, alice)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), b.ID, root)
	require.NoError(t, err)
	assert.Equal(t, 10, ledger.available(t, 1))
}

func TestCancel_NotFound(t *testing.T) {
	svc := newTestService(newMemLedger(testEvent(1, 10, 10, 1000)), nil)

	_, err := svc.Cancel(context.Background(), uuid.New(), alice)
	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestBookCancelRoundTrip(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 50, 50, 1500))
	svc := newTestService(ledger, nil)

	for i := 0; i < 5; i++ {
		b, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 7}, alice)
		require.NoError(t, err)
		_, err = svc.Cancel(context.Background(), b.ID, alice)
		require.NoError(t, err)
	}

	assert.Equal(t, 50, ledger.available(t, 1))
}

func TestGet_OwnerOrAdminOnly(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 10, 1000))
	svc := newTestService(ledger, nil)

	b, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 1}, alice)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), b.ID, alice)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), b.ID, root)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), b.ID, bob)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestListMine_FiltersByOwner(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 100, 100, 1000))
	svc := newTestService(ledger, nil)

	_, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 1}, alice)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 2}, bob)
	require.NoError(t, err)

	mine, err := svc.ListMine(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, alice.UserID, mine[0].UserID)

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAvailableSeats(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 10, 1000))
	svc := newTestService(ledger, nil)

	_, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 4}, alice)
	require.NoError(t, err)

	av, err := svc.AvailableSeats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 6, av.AvailableSeats)
	assert.Equal(t, 10, av.TotalSeats)

	_, err = svc.AvailableSeats(context.Background(), 404)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestCreate_NoOversellUnderConcurrency(t *testing.T) {
	const (
		totalSeats = 10
		quantity   = 2
		callers    = 25
	)

	ledger := newMemLedger(testEvent(1, totalSeats, totalSeats, 1000))
	svc := newTestService(ledger, nil)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ident := domain.Identity{UserID: int64(i + 1), Role: domain.RoleUser}
			_, errs[i] = svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: quantity}, ident)
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientSeats):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, totalSeats/quantity, ok)
	assert.Equal(t, callers-ok, insufficient)
	assert.Equal(t, 0, ledger.available(t, 1))
}

func TestCreate_RetriesOnceOnSerializationFailure(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 10, 1000))
	ledger.adjustErrs = []error{&pgconn.PgError{Code: "40001"}}
	svc := newTestService(ledger, nil)

	b, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 2}, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.Equal(t, 8, ledger.available(t, 1))
}

func TestCreate_TxConflictAfterSecondFailure(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 10, 1000))
	ledger.adjustErrs = []error{
		&pgconn.PgError{Code: "40001"},
		&pgconn.PgError{Code: "55P03"},
	}
	svc := newTestService(ledger, nil)

	_, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 2}, alice)
	require.ErrorIs(t, err, ErrTxConflict)
	assert.Equal(t, 10, ledger.available(t, 1))
}

func TestCreate_PublishesAfterCommit(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 10, 1000))
	pub := &recordingPublisher{}
	svc := newTestService(ledger, pub)

	_, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 3}, alice)
	require.NoError(t, err)

	updates := pub.all()
	require.Len(t, updates, 1)
	assert.Equal(t, domain.SeatUpdate{EventID: 1, AvailableSeats: 7}, updates[0])
}

func TestCreate_NoPublishOnRollback(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 1, 1000))
	pub := &recordingPublisher{}
	svc := newTestService(ledger, pub)

	_, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 5}, alice)
	require.ErrorIs(t, err, ErrInsufficientSeats)
	assert.Empty(t, pub.all())
}

func TestCancel_PublishesRestoredCount(t *testing.T) {
	ledger := newMemLedger(testEvent(1, 10, 10, 1000))
	pub := &recordingPublisher{}
	svc := newTestService(ledger, pub)

	b, err := svc.Create(context.Background(), CreateInput{EventID: 1, Quantity: 3}, alice)
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), b.ID, alice)
	require.NoError(t, err)

	updates := pub.all()
	require.Len(t, updates, 2)
	assert.Equal(t, domain.SeatUpdate{EventID: 1, AvailableSeats: 10}, updates[1])
}
