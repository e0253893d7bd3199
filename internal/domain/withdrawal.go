package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusFailed     WithdrawalStatus = "failed"
)

// Withdrawal is the persisted record of one settlement run. TotalMoved may
// exceed RequestedAmount: entries are the unit of settlement and the last
// entry claimed is never split.
type Withdrawal struct {
	ID              uuid.UUID
	DesignerID      uuid.UUID
	RequestedAmount decimal.Decimal
	TotalMoved      decimal.Decimal
	Status          WithdrawalStatus
	CreatedAt       time.Time
}
