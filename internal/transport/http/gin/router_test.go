package httpgin

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventix/internal/domain"
	"eventix/internal/service/auth"
	"eventix/internal/service/booking"
	"eventix/internal/service/events"
)

const testSecret = "router-test-secret"

type fakeAuth struct {
	registerErr error
	loginErr    error
	user        domain.User
}

func (f *fakeAuth) Register(_ context.Context, in auth.RegisterInput) (*domain.User, string, error) {
	if f.registerErr != nil {
		return nil, "", f.registerErr
	}
	u := f.user
	u.Email = in.Email
	return &u, "token", nil
}

func (f *fakeAuth) Login(context.Context, string, string) (*domain.User, string, error) {
	if f.loginErr != nil {
		return nil, "", f.loginErr
	}
	u := f.user
	return &u, "token", nil
}

func (f *fakeAuth) Me(context.Context, domain.Identity) (*domain.User, error) {
	u := f.user
	return &u, nil
}

func (f *fakeAuth) ListUsers(context.Context) ([]domain.User, error) {
	return []domain.User{f.user}, nil
}

type fakeEvents struct {
	getErr    error
	deleteErr error
	event     domain.Event
}

func (f *fakeEvents) Get(context.Context, int64) (*domain.Event, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	e := f.event
	return &e, nil
}

func (f *fakeEvents) List(context.Context, domain.EventFilter) ([]domain.Event, error) {
	return []domain.Event{f.event}, nil
}

func (f *fakeEvents) Create(context.Context, events.CreateInput) (*domain.Event, error) {
	e := f.event
	return &e, nil
}

func (f *fakeEvents) Update(context.Context, int64, events.UpdateInput) (*domain.Event, error) {
	e := f.event
	return &e, nil
}

func (f *fakeEvents) Delete(context.Context, int64) error {
	return f.deleteErr
}

type fakeBookings struct {
	createErr error
	cancelErr error
	getErr    error
	booking   domain.Booking
}

func (f *fakeBookings) Create(_ context.Context, in booking.CreateInput, ident domain.Identity) (*domain.Booking, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	b := f.booking
	b.UserID = ident.UserID
	b.EventID = in.EventID
	b.Quantity = in.Quantity
	return &b, nil
}

func (f *fakeBookings) Cancel(context.Context, uuid.UUID, domain.Identity) (*domain.Booking, error) {
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	b := f.booking
	b.Status = domain.BookingCancelled
	return &b, nil
}

func (f *fakeBookings) Get(context.Context, uuid.UUID, domain.Identity) (*domain.BookingWithEvent, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &domain.BookingWithEvent{Booking: f.booking}, nil
}

func (f *fakeBookings) ListMine(context.Context, domain.Identity) ([]domain.BookingWithEvent, error) {
	return []domain.BookingWithEvent{{Booking: f.booking}}, nil
}

func (f *fakeBookings) ListAll(context.Context) ([]domain.BookingWithEvent, error) {
	return []domain.BookingWithEvent{{Booking: f.booking}}, nil
}

func (f *fakeBookings) AvailableSeats(context.Context, int64) (*domain.SeatAvailability, error) {
	return &domain.SeatAvailability{EventID: 1, AvailableSeats: 5, TotalSeats: 10}, nil
}

type routerFakes struct {
	auth     *fakeAuth
	events   *fakeEvents
	bookings *fakeBookings
}

func newTestRouter(t *testing.T) (*gin.Engine, *routerFakes) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &routerFakes{
		auth:     &fakeAuth{user: domain.User{ID: 1, Name: "Alice", Email: "a@example.com", Role: domain.RoleUser}},
		events:   &fakeEvents{event: domain.Event{ID: 1, Title: "show", TotalSeats: 10, AvailableSeats: 5}},
		bookings: &fakeBookings{booking: domain.Booking{ID: uuid.New(), UserID: 1, EventID: 1, Quantity: 2, Status: domain.BookingConfirmed}},
	}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	r := NewRouter(Deps{
		Auth:      f.auth,
		Events:    f.events,
		Bookings:  f.bookings,
		Stream:    NewSeatStream(),
		JWTSecret: testSecret,
	}, logger)

	return r, f
}

func bearerFor(t *testing.T, ident domain.Identity) string {
	t.Helper()
	token, err := auth.SignToken(testSecret, ident, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister_Created(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/api/users/register", "", RegisterRequest{
		Name: "Alice", Email: "a@example.com", Password: "password1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "token", resp.Token)
}

func TestRegister_ValidationFailure(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/api/users/register", "", RegisterRequest{
		Name: "Alice", Email: "not-an-email", Password: "password1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_EmailTaken(t *testing.T) {
	r, f := newTestRouter(t)
	f.auth.registerErr = auth.ErrEmailTaken
	w := doJSON(r, http.MethodPost, "/api/users/register", "", RegisterRequest{
		Name: "Alice", Email: "a@example.com", Password: "password1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	r, f := newTestRouter(t)
	f.auth.loginErr = auth.ErrInvalidCredentials
	w := doJSON(r, http.MethodPost, "/api/users/login", "", LoginRequest{
		Email: "a@example.com", Password: "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe_RequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/api/users/me", "Bearer garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := bearerFor(t, domain.Identity{UserID: 1, Role: domain.RoleUser})
	w = doJSON(r, http.MethodGet, "/api/users/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListUsers_AdminOnly(t *testing.T) {
	r, _ := newTestRouter(t)

	user := bearerFor(t, domain.Identity{UserID: 1, Role: domain.RoleUser})
	w := doJSON(r, http.MethodGet, "/api/users", user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := bearerFor(t, domain.Identity{UserID: 99, Role: domain.RoleAdmin})
	w = doJSON(r, http.MethodGet, "/api/users", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetEvent_SetsETag(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/events/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/events/1", nil)
	req.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusNotModified, w2.Code)
}

func TestGetEvent_NotFound(t *testing.T) {
	r, f := newTestRouter(t)
	f.events.getErr = events.ErrEventNotFound
	w := doJSON(r, http.MethodGet, "/api/events/1", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetEvent_BadID(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodGet, "/api/events/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEvent_AdminOnly(t *testing.T) {
	r, _ := newTestRouter(t)
	body := CreateEventRequest{
		Title: "show", StartsAt: time.Now().Format(time.RFC3339), TotalSeats: 10,
	}

	w := doJSON(r, http.MethodPost, "/api/events", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	user := bearerFor(t, domain.Identity{UserID: 1, Role: domain.RoleUser})
	w = doJSON(r, http.MethodPost, "/api/events", user, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := bearerFor(t, domain.Identity{UserID: 99, Role: domain.RoleAdmin})
	w = doJSON(r, http.MethodPost, "/api/events", admin, body)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestDeleteEvent_ConflictWhileBookingsExist(t *testing.T) {
	r, f := newTestRouter(t)
	f.events.deleteErr = events.ErrEventHasBookings

	admin := bearerFor(t, domain.Identity{UserID: 99, Role: domain.RoleAdmin})
	w := doJSON(r, http.MethodDelete, "/api/events/1", admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetAvailability(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/events/1/availability", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.AvailableSeats)
	assert.Equal(t, 10, resp.TotalSeats)
}

func TestCreateBooking_StatusMapping(t *testing.T) {
	token := bearerFor(t, domain.Identity{UserID: 1, Role: domain.RoleUser})
	body := CreateBookingRequest{EventID: 1, Quantity: 2}

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"created", nil, http.StatusCreated},
		{"event not found", booking.ErrEventNotFound, http.StatusNotFound},
		{"insufficient seats", booking.ErrInsufficientSeats, http.StatusBadRequest},
		{"invalid quantity", booking.ErrInvalidQuantity, http.StatusBadRequest},
		{"tx conflict", booking.ErrTxConflict, http.StatusServiceUnavailable},
		{"rate limited", &booking.RateLimitedError{RetryAfter: 30 * time.Second}, http.StatusTooManyRequests},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, f := newTestRouter(t)
			f.bookings.createErr = tc.err
			w := doJSON(r, http.MethodPost, "/api/bookings", token, body)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestCreateBooking_RateLimitSetsRetryAfter(t *testing.T) {
	r, f := newTestRouter(t)
	f.bookings.createErr = &booking.RateLimitedError{RetryAfter: 30 * time.Second}

	token := bearerFor(t, domain.Identity{UserID: 1, Role: domain.RoleUser})
	w := doJSON(r, http.MethodPost, "/api/bookings", token, CreateBookingRequest{EventID: 1, Quantity: 2})

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestCreateBooking_MissingFields(t *testing.T) {
	r, _ := newTestRouter(t)
	token := bearerFor(t, domain.Identity{UserID: 1, Role: domain.RoleUser})

	w := doJSON(r, http.MethodPost, "/api/bookings", token, map[string]any{"event_id": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelBooking_StatusMapping(t *testing.T) {
	token := bearerFor(t, domain.Identity{UserID: 1, Role: domain.RoleUser})
	id := uuid.New()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"cancelled", nil, http.StatusOK},
		{"not found", booking.ErrBookingNotFound, http.StatusNotFound},
		{"already cancelled", booking.ErrAlreadyCancelled, http.StatusBadRequest},
		{"not owner", booking.ErrNotAuthorized, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, f := newTestRouter(t)
			f.bookings.cancelErr = tc.err
			w := doJSON(r, http.MethodPut, "/api/bookings/"+id.String()+"/cancel", token, nil)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestCancelBooking_BadUUID(t *testing.T) {
	r, _ := newTestRouter(t)
	token := bearerFor(t, domain.Identity{UserID: 1, Role: domain.RoleUser})

	w := doJSON(r, http.MethodPut, "/api/bookings/not-a-uuid/cancel", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBookings_AdminOnly(t *testing.T) {
	r, _ := newTestRouter(t)

	user := bearerFor(t, domain.Identity{UserID: 1, Role: domain.RoleUser})
	w := doJSON(r, http.MethodGet, "/api/bookings", user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodGet, "/api/bookings/my", user, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	admin := bearerFor(t, domain.Identity{UserID: 99, Role: domain.RoleAdmin})
	w = doJSON(r, http.MethodGet, "/api/bookings", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
