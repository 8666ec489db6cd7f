package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Identity is the authenticated caller as seen by the services.
type Identity struct {
	UserID int64
	Role   Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type Event struct {
	ID             int64
	Title          string
	Description    string
	Location       string
	Category       string
	StartsAt       time.Time
	PriceCents     int64
	TotalSeats     int
	AvailableSeats int
	CreatedAt      time.Time
}

type Booking struct {
	ID         uuid.UUID
	UserID     int64
	EventID    int64
	Quantity   int
	TotalCents int64
	Status     BookingStatus
	Mobile     string
	CreatedAt  time.Time
}

type BookingWithEvent struct {
	Booking
	Event Event
}

type SeatAvailability struct {
	EventID        int64
	AvailableSeats int
	TotalSeats     int
}

// EventFilter narrows event listings. Zero values mean "no filter".
type EventFilter struct {
	Search   string
	Location string
	From     time.Time
}

// SeatUpdate is what the notification sink broadcasts after a booking
// transaction commits.
type SeatUpdate struct {
	EventID        int64 `json:"event_id"`
	AvailableSeats int   `json:"available_seats"`
}
