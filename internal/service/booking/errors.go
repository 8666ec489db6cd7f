package booking

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInsufficientSeats = errors.New("not enough seats")
	ErrAlreadyCancelled  = errors.New("booking already cancelled")
	ErrNotAuthorized     = errors.New("not authorized")

	// ErrTxConflict means the transaction lost to a concurrent one even
	// after the automatic retry. The request may be retried as a whole.
	ErrTxConflict = errors.New("transaction conflict")
)

type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}
