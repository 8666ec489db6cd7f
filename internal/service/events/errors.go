package events

import "errors"

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrEventHasBookings = errors.New("event has bookings and cannot be deleted")
	ErrInvalidSeats     = errors.New("total seats must be positive")
	ErrInvalidPrice     = errors.New("price must not be negative")
)
