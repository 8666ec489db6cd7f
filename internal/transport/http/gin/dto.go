package httpgin

import (
	"time"

	"eventix/internal/domain"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=user admin"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type CreateEventRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	StartsAt    string `json:"starts_at" binding:"required"`
	PriceCents  int64  `json:"price_cents" binding:"gte=0"`
	TotalSeats  int    `json:"total_seats" binding:"required,gt=0"`
}

type UpdateEventRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	StartsAt    string `json:"starts_at" binding:"required"`
	PriceCents  int64  `json:"price_cents" binding:"gte=0"`
}

type EventResponse struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	Category       string    `json:"category"`
	StartsAt       time.Time `json:"starts_at"`
	PriceCents     int64     `json:"price_cents"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats int       `json:"available_seats"`
	CreatedAt      time.Time `json:"created_at"`
}

type CreateBookingRequest struct {
	EventID  int64  `json:"event_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	Mobile   string `json:"mobile"`
}

type BookingResponse struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	EventID    int64     `json:"event_id"`
	Quantity   int       `json:"quantity"`
	TotalCents int64     `json:"total_cents"`
	Status     string    `json:"status"`
	Mobile     string    `json:"mobile,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type BookingWithEventResponse struct {
	BookingResponse
	Event EventResponse `json:"event"`
}

type AvailabilityResponse struct {
	EventID        int64 `json:"event_id"`
	AvailableSeats int   `json:"available_seats"`
	TotalSeats     int   `json:"total_seats"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toEventResponse(e *domain.Event) EventResponse {
	return EventResponse{
		ID:             e.ID,
		Title:          e.Title,
		Description:    e.Description,
		Location:       e.Location,
		Category:       e.Category,
		StartsAt:       e.StartsAt,
		PriceCents:     e.PriceCents,
		TotalSeats:     e.TotalSeats,
		AvailableSeats: e.AvailableSeats,
		CreatedAt:      e.CreatedAt,
	}
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:         b.ID.String(),
		UserID:     b.UserID,
		EventID:    b.EventID,
		Quantity:   b.Quantity,
		TotalCents: b.TotalCents,
		Status:     string(b.Status),
		Mobile:     b.Mobile,
		CreatedAt:  b.CreatedAt,
	}
}

func toBookingWithEventResponse(b *domain.BookingWithEvent) BookingWithEventResponse {
	return BookingWithEventResponse{
		BookingResponse: toBookingResponse(&b.Booking),
		Event:           toEventResponse(&b.Event),
	}
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
