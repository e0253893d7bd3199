package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type PayoutEventStatus string

const (
	PayoutEventStatusPending    PayoutEventStatus = "pending"
	PayoutEventStatusDispatched PayoutEventStatus = "dispatched"
	PayoutEventStatusFailed     PayoutEventStatus = "failed"
)

type PayoutEventType string

const (
	PayoutEventTypeCompleted PayoutEventType = "payout.completed"
	PayoutEventTypeFailed    PayoutEventType = "payout.failed"
)

// PayoutEvent is a payment-processor confirmation received on the webhook
// endpoint, queued for the background processor.
type PayoutEvent struct {
	ID             uuid.UUID
	IdempotencyKey string
	EventType      PayoutEventType
	Payload        json.RawMessage
	Status         PayoutEventStatus
	Attempts       int
	LastAttempt    *time.Time
	CreatedAt      time.Time
}
