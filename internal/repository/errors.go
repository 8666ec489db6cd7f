package repository

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientSeats = errors.New("not enough seats available")
	ErrAlreadyCancelled  = errors.New("booking already cancelled")
	ErrEventHasBookings  = errors.New("event has bookings")
)
