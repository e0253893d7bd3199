package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
)

type userRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	IncrementSubmissionCount(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type contestRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Contest, error)
	CreateEntry(ctx context.Context, tx *sql.Tx, entry *domain.ContestEntry) error
	GetEntry(ctx context.Context, contestID, designerID uuid.UUID) (*domain.ContestEntry, error)
	MarkWinner(ctx context.Context, tx *sql.Tx, contestID, designerID uuid.UUID) (bool, error)
	MarkFinalist(ctx context.Context, tx *sql.Tx, contestID, designerID uuid.UUID) (bool, error)
}

type earningsWriter interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
}

type earningsRepository interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error)
	ListByDesigner(ctx context.Context, designerID uuid.UUID, status *domain.EarningStatus, kind *domain.EarningKind) ([]domain.LedgerEntry, error)
	GetByWithdrawalID(ctx context.Context, withdrawalID uuid.UUID) ([]domain.LedgerEntry, error)
	Transition(ctx context.Context, tx *sql.Tx, id uuid.UUID, from, to domain.EarningStatus) error
	Sum(ctx context.Context, designerID uuid.UUID, status *domain.EarningStatus, kind *domain.EarningKind) (decimal.Decimal, error)
	Count(ctx context.Context, designerID uuid.UUID, status *domain.EarningStatus, kind *domain.EarningKind) (int64, error)
}

type ledgerEventRepository interface {
	Create(ctx context.Context, tx *sql.Tx, event *domain.LedgerEvent) error
}

type payoutEventRepository interface {
	GetPending(ctx context.Context, limit int) ([]domain.PayoutEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PayoutEventStatus) error
}

type withdrawalUpdater interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.WithdrawalStatus) error
}
