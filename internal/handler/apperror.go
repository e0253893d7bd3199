package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}
	ErrTooManyRequests    = &AppError{http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, slow down"}

	ErrInvalidAmount         = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrInsufficientFunds     = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Requested amount exceeds pending earnings"}
	ErrDuplicateSubmission   = &AppError{http.StatusConflict, "DUPLICATE_SUBMISSION", "Designer already entered this contest"}
	ErrIllegalTransition     = &AppError{http.StatusConflict, "ILLEGAL_TRANSITION", "Ledger entry status may only move forward"}
	ErrConcurrencyConflict   = &AppError{http.StatusConflict, "CONCURRENCY_CONFLICT", "Another settlement is in progress, please retry"}
	ErrContestNotOpen        = &AppError{http.StatusUnprocessableEntity, "CONTEST_NOT_OPEN", "Contest is not open for entries"}
	ErrNotContestOwner       = &AppError{http.StatusForbidden, "NOT_CONTEST_OWNER", "Contest belongs to another client"}
	ErrNoSubmission          = &AppError{http.StatusUnprocessableEntity, "NO_SUBMISSION", "Designer has no entry in this contest"}
	ErrInvalidKind           = &AppError{http.StatusBadRequest, "INVALID_KIND", "Invalid earning kind"}
	ErrInvalidStatus         = &AppError{http.StatusBadRequest, "INVALID_STATUS", "Invalid earning status"}
	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
