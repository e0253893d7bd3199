package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EarningKind string

const (
	EarningKindContestWin     EarningKind = "contest_win"
	EarningKindProjectPayment EarningKind = "project_payment"
	EarningKindBonus          EarningKind = "bonus"
	EarningKindRefund         EarningKind = "refund"
)

func (k EarningKind) IsValid() bool {
	switch k {
	case EarningKindContestWin, EarningKindProjectPayment, EarningKindBonus, EarningKindRefund:
		return true
	default:
		return false
	}
}

type EarningStatus string

const (
	EarningStatusPending    EarningStatus = "pending"
	EarningStatusProcessing EarningStatus = "processing"
	EarningStatusCompleted  EarningStatus = "completed"
	EarningStatusFailed     EarningStatus = "failed"
)

func (s EarningStatus) IsValid() bool {
	switch s {
	case EarningStatusPending, EarningStatusProcessing, EarningStatusCompleted, EarningStatusFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether moving from s to next is one of the
// allowed forward edges. Completed and failed are terminal.
func (s EarningStatus) CanTransitionTo(next EarningStatus) bool {
	switch s {
	case EarningStatusPending:
		return next == EarningStatusProcessing || next == EarningStatusFailed
	case EarningStatusProcessing:
		return next == EarningStatusCompleted || next == EarningStatusFailed
	default:
		return false
	}
}

func (s EarningStatus) IsTerminal() bool {
	return s == EarningStatusCompleted || s == EarningStatusFailed
}

// LedgerEntry is one unit of money owed or paid to a designer. Entries are
// append-only: after creation only status, paid_at and withdrawal_id change,
// and status only moves forward. Entries are never deleted.
type LedgerEntry struct {
	ID           uuid.UUID
	DesignerID   uuid.UUID
	ContestID    *uuid.UUID
	Amount       decimal.Decimal
	Kind         EarningKind
	Status       EarningStatus
	WithdrawalID *uuid.UUID
	CreatedAt    time.Time
	PaidAt       *time.Time
}
