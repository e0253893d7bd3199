package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ContestStatus string

const (
	ContestStatusOpen     ContestStatus = "open"
	ContestStatusJudging  ContestStatus = "judging"
	ContestStatusResolved ContestStatus = "resolved"
)

type Contest struct {
	ID          uuid.UUID
	ClientID    uuid.UUID
	Title       string
	PrizeAmount decimal.Decimal
	Status      ContestStatus
	CreatedAt   time.Time
}

// ContestEntry records a single designer's participation in a single contest.
// At most one entry exists per (contest, designer) pair.
type ContestEntry struct {
	ID         uuid.UUID
	ContestID  uuid.UUID
	DesignerID uuid.UUID
	IsWinner   bool
	IsFinalist bool
	CreatedAt  time.Time
}
