package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInsufficientFunds    = errors.New("insufficient pending funds")
	ErrDuplicateSubmission  = errors.New("designer already entered this contest")
	ErrIllegalTransition    = errors.New("status may only move forward")
	ErrConcurrencyConflict  = errors.New("settlement already in progress, retry")
	ErrInvalidKind          = errors.New("invalid earning kind")
	ErrInvalidStatus        = errors.New("invalid earning status")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrContestNotOpen       = errors.New("contest is not open for entries")
	ErrNotContestOwner      = errors.New("contest belongs to another client")
	ErrNoSubmission         = errors.New("designer has no entry in this contest")
	ErrDuplicateIdempotency = errors.New("duplicate idempotency key")
)
