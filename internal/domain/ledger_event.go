package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LedgerEvent is the audit record of a single status transition on a
// ledger entry.
type LedgerEvent struct {
	ID         uuid.UUID
	EntryID    uuid.UUID
	FromStatus EarningStatus
	ToStatus   EarningStatus
	Actor      string
	Payload    json.RawMessage
	CreatedAt  time.Time
}
