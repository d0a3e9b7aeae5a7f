package models

import "errors"

// Common errors used throughout the core
var (
	ErrEventNotFound   = errors.New("event not found")
	ErrSegmentNotFound = errors.New("ticket segment not found")
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrBuyerNotFound   = errors.New("buyer not found")

	ErrCapacityExceeded       = errors.New("capacity exceeded")
	ErrPerPersonLimitExceeded = errors.New("per-person ticket limit exceeded")
	ErrLoyaltyRequired        = errors.New("segment is reserved for loyal customers")

	ErrInvalidAmount       = errors.New("transaction amount must be greater than zero")
	ErrUnknownAccount      = errors.New("unknown account")
	ErrLedgerPostingFailed = errors.New("ledger posting failed")

	ErrIdempotencyConflict = errors.New("idempotency key reused with a different request")
	ErrUnauthorized        = errors.New("unauthorized access")
	ErrInvalidInput        = errors.New("invalid input")
)
