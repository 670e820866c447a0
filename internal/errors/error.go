package errors

import "github.com/pkg/errors"

var (
	// common errors
	ErrWorkspaceMissing = errors.New("workspace is missing")

	// account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrUnknownChannel    = errors.New("unknown channel")
	ErrFatalAccountState = errors.New("account is in a fatal error state")

	// scheduling errors
	ErrPoolExhausted      = errors.New("no eligible account for channel")
	ErrAccountNotEligible = errors.New("account is not eligible for selection")
	ErrUnknownStrategy    = errors.New("unknown rotation strategy")

	// reservation errors
	ErrReservationNotFound = errors.New("reservation not found")
	ErrReservationExpired  = errors.New("reservation has expired")

	// ErrCounterOverflow means the eligibility filter let through an account
	// without remaining capacity. It is a bug, not backpressure.
	ErrCounterOverflow = errors.New("usage increment would exceed limit")
)
