package httpgin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"eventix/internal/domain"
	"eventix/internal/pkg/metrics"
	redisrepo "eventix/internal/repository/redis"
	"eventix/internal/service/auth"
	"eventix/internal/service/booking"
	"eventix/internal/service/events"
)

// Handler-level views of the services. The concrete implementations live in
// internal/service; handlers only need these methods.

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Me(ctx context.Context, ident domain.Identity) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type EventsService interface {
	Get(ctx context.Context, id int64) (*domain.Event, error)
	List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error)
	Create(ctx context.Context, in events.CreateInput) (*domain.Event, error)
	Update(ctx context.Context, id int64, in events.UpdateInput) (*domain.Event, error)
	Delete(ctx context.Context, id int64) error
}

type BookingService interface {
	Create(ctx context.Context, in booking.CreateInput, ident domain.Identity) (*domain.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID, ident domain.Identity) (*domain.Booking, error)
	Get(ctx context.Context, id uuid.UUID, ident domain.Identity) (*domain.BookingWithEvent, error)
	ListMine(ctx context.Context, ident domain.Identity) ([]domain.BookingWithEvent, error)
	ListAll(ctx context.Context) ([]domain.BookingWithEvent, error)
	AvailableSeats(ctx context.Context, eventID int64) (*domain.SeatAvailability, error)
}

type Deps struct {
	Auth     AuthService
	Events   EventsService
	Bookings BookingService

	Idem      *redisrepo.IdempotencyStore
	Stream    *SeatStream
	JWTSecret string
	Metrics   *metrics.Metrics
}

func NewRouter(deps Deps, logger *slog.Logger, middlewares ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		LoggingMiddleware(logger),
		RequestIDMiddleware(),
		CORS(),
		MetricsMiddleware(deps.Metrics),
	)
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := AuthRequired(deps.JWTSecret)
	admin := AdminOnly()

	api := r.Group("/api")
	{
		users := api.Group("/users")
		{
			users.POST("/register", handleRegister(deps.Auth))
			users.POST("/login", handleLogin(deps.Auth))
			users.GET("/me", authed, handleMe(deps.Auth))
			users.GET("", authed, admin, handleListUsers(deps.Auth))
		}

		ev := api.Group("/events")
		{
			ev.GET("", handleListEvents(deps.Events))
			ev.GET("/seats/stream", handleSeatStream(deps.Stream))
			ev.GET("/:id", handleGetEvent(deps.Events))
			ev.GET("/:id/availability", handleGetAvailability(deps.Bookings))
			ev.POST("", authed, admin, handleCreateEvent(deps.Events))
			ev.PUT("/:id", authed, admin, handleUpdateEvent(deps.Events))
			ev.DELETE("/:id", authed, admin, handleDeleteEvent(deps.Events))
		}

		bk := api.Group("/bookings", authed)
		{
			bk.POST("", handleCreateBooking(deps.Bookings, deps.Idem))
			bk.GET("/my", handleListMyBookings(deps.Bookings))
			bk.GET("", admin, handleListAllBookings(deps.Bookings))
			bk.GET("/:id", handleGetBooking(deps.Bookings))
			bk.PUT("/:id/cancel", handleCancelBooking(deps.Bookings))
		}
	}

	return r
}

// --- Users ---

// @Summary  Register user
// @Param    req body  RegisterRequest true "payload"
// @Success  201 {object} AuthResponse
// @Failure  400 {object} ErrorResponse "email taken"
// @Router   /users/register [post]
func handleRegister(svc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		u, token, err := svc.Register(c.Request.Context(), auth.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Role:     domain.Role(req.Role),
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, AuthResponse{Token: token, User: toUserResponse(u)})
	}
}

// @Summary  Login
// @Param    req body  LoginRequest true "payload"
// @Success  200 {object} AuthResponse
// @Failure  401 {object} ErrorResponse
// @Router   /users/login [post]
func handleLogin(svc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		u, token, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: toUserResponse(u)})
	}
}

// @Summary  Current user
// @Security BearerAuth
// @Success  200 {object} UserResponse
// @Router   /users/me [get]
func handleMe(svc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identityFrom(c)
		if !ok {
			unauthorized(c)
			return
		}
		u, err := svc.Me(c.Request.Context(), ident)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toUserResponse(u))
	}
}

// @Summary  List users (admin)
// @Security BearerAuth
// @Success  200 {array} UserResponse
// @Router   /users [get]
func handleListUsers(svc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		us, err := svc.ListUsers(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		out := make([]UserResponse, 0, len(us))
		for i := range us {
			out = append(out, toUserResponse(&us[i]))
		}
		c.JSON(http.StatusOK, out)
	}
}

// --- Events ---

// @Summary  List events
// @Param    search   query string false "title/description substring"
// @Param    location query string false "location substring"
// @Param    date     query string false "only events starting at/after (RFC3339)"
// @Success  200 {array} EventResponse
// @Router   /events [get]
func handleListEvents(svc EventsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := domain.EventFilter{
			Search:   strings.TrimSpace(c.Query("search")),
			Location: strings.TrimSpace(c.Query("location")),
		}
		if raw := c.Query("date"); raw != "" {
			from, err := parseRFC3339(raw)
			if err != nil {
				badRequest(c, "invalid date (RFC3339)")
				return
			}
			f.From = from
		}
		es, err := svc.List(c.Request.Context(), f)
		if err != nil {
			respondErr(c, err)
			return
		}
		out := make([]EventResponse, 0, len(es))
		for i := range es {
			out = append(out, toEventResponse(&es[i]))
		}
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=15", true)
	}
}

// @Summary  Get event
// @Param    id  path  int  true  "Event ID"
// @Success  200 {object} EventResponse
// @Failure  404 {object} ErrorResponse
// @Router   /events/{id} [get]
func handleGetEvent(svc EventsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		e, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toEventResponse(e), "public, max-age=60", true)
	}
}

// @Summary  Seat availability
// @Param    id  path  int  true  "Event ID"
// @Success  200 {object} AvailabilityResponse
// @Failure  404 {object} ErrorResponse
// @Router   /events/{id}/availability [get]
func handleGetAvailability(svc BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		av, err := svc.AvailableSeats(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		resp := AvailabilityResponse{
			EventID:        av.EventID,
			AvailableSeats: av.AvailableSeats,
			TotalSeats:     av.TotalSeats,
		}
		writeJSONWithCache(c, http.StatusOK, resp, "public, max-age=5", true)
	}
}

// @Summary  Create event (admin)
// @Security BearerAuth
// @Param    req body  CreateEventRequest true "payload"
// @Success  201 {object} EventResponse
// @Failure  400 {object} ErrorResponse
// @Router   /events [post]
func handleCreateEvent(svc EventsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseRFC3339(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}
		e, err := svc.Create(c.Request.Context(), events.CreateInput{
			Title:       req.Title,
			Description: req.Description,
			Location:    req.Location,
			Category:    req.Category,
			StartsAt:    starts,
			PriceCents:  req.PriceCents,
			TotalSeats:  req.TotalSeats,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toEventResponse(e))
	}
}

// @Summary  Update event (admin)
// @Security BearerAuth
// @Param    id  path  int  true  "Event ID"
// @Param    req body  UpdateEventRequest true "payload"
// @Success  200 {object} EventResponse
// @Router   /events/{id} [put]
func handleUpdateEvent(svc EventsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req UpdateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseRFC3339(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}
		e, err := svc.Update(c.Request.Context(), id, events.UpdateInput{
			Title:       req.Title,
			Description: req.Description,
			Location:    req.Location,
			Category:    req.Category,
			StartsAt:    starts,
			PriceCents:  req.PriceCents,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toEventResponse(e))
	}
}

// @Summary  Delete event (admin)
// @Security BearerAuth
// @Param    id  path  int  true  "Event ID"
// @Success  204
// @Failure  409 {object} ErrorResponse "bookings exist"
// @Router   /events/{id} [delete]
func handleDeleteEvent(svc EventsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// --- Bookings ---

// @Summary  Create booking (idempotent)
// @Security BearerAuth
// @Param    req body  CreateBookingRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} BookingResponse
// @Failure  400 {object} ErrorResponse "invalid quantity / insufficient seats"
// @Failure  404 {object} ErrorResponse "event not found"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Failure  503 {object} ErrorResponse "transaction conflict, retry"
// @Router   /bookings [post]
func handleCreateBooking(
	svc BookingService,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identityFrom(c)
		if !ok {
			unauthorized(c)
			return
		}
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(ident.UserID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		b, err := svc.Create(c.Request.Context(), booking.CreateInput{
			EventID:  req.EventID,
			Quantity: req.Quantity,
			Mobile:   req.Mobile,
		}, ident)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := toBookingResponse(b)

		if idemStorageKey != "" && idem != nil {
			if payload, err := json.Marshal(resp); err == nil {
				_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(payload))
			}
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  My bookings
// @Security BearerAuth
// @Success  200 {array} BookingWithEventResponse
// @Router   /bookings/my [get]
func handleListMyBookings(svc BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identityFrom(c)
		if !ok {
			unauthorized(c)
			return
		}
		bs, err := svc.ListMine(c.Request.Context(), ident)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingWithEventList(bs))
	}
}

// @Summary  All bookings (admin)
// @Security BearerAuth
// @Success  200 {array} BookingWithEventResponse
// @Router   /bookings [get]
func handleListAllBookings(svc BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bs, err := svc.ListAll(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingWithEventList(bs))
	}
}

// @Summary  Get booking
// @Security BearerAuth
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingWithEventResponse
// @Failure  404 {object} ErrorResponse
// @Router   /bookings/{id} [get]
func handleGetBooking(svc BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identityFrom(c)
		if !ok {
			unauthorized(c)
			return
		}
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svc.Get(c.Request.Context(), id, ident)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingWithEventResponse(b))
	}
}

// @Summary  Cancel booking
// @Security BearerAuth
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Failure  400 {object} ErrorResponse "already cancelled"
// @Failure  403 {object} ErrorResponse
// @Router   /bookings/{id}/cancel [put]
func handleCancelBooking(svc BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identityFrom(c)
		if !ok {
			unauthorized(c)
			return
		}
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svc.Cancel(c.Request.Context(), id, ident)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(b))
	}
}

// --- Helpers ---

func toBookingWithEventList(bs []domain.BookingWithEvent) []BookingWithEventResponse {
	out := make([]BookingWithEventResponse, 0, len(bs))
	for i := range bs {
		out = append(out, toBookingWithEventResponse(&bs[i]))
	}
	return out
}

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var rl *booking.RateLimitedError
	if errors.As(err, &rl) {
		c.Header("Retry-After", strconv.Itoa(int(rl.RetryAfter.Seconds())+1))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
		return
	}

	switch {
	// auth service
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "email already registered"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, auth.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})

	// events service
	case errors.Is(err, events.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, events.ErrEventHasBookings):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "event has bookings"})
	case errors.Is(err, events.ErrInvalidSeats):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "total_seats must be positive"})
	case errors.Is(err, events.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "price_cents must not be negative"})

	// booking service
	case errors.Is(err, booking.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, booking.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
	case errors.Is(err, booking.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "quantity must be positive"})
	case errors.Is(err, booking.ErrInsufficientSeats):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "not enough seats available"})
	case errors.Is(err, booking.ErrAlreadyCancelled):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "booking already cancelled"})
	case errors.Is(err, booking.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not allowed"})
	case errors.Is(err, booking.ErrTxConflict):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "try again"})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
