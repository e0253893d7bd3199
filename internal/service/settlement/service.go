package settlement

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
)

type earningsRepo interface {
	ListPendingForUpdate(ctx context.Context, tx *sql.Tx, designerID uuid.UUID) ([]domain.LedgerEntry, error)
	ClaimForWithdrawal(ctx context.Context, tx *sql.Tx, id, withdrawalID uuid.UUID) error
	GetByWithdrawalID(ctx context.Context, withdrawalID uuid.UUID) ([]domain.LedgerEntry, error)
	Sum(ctx context.Context, designerID uuid.UUID, status *domain.EarningStatus, kind *domain.EarningKind) (decimal.Decimal, error)
}

type withdrawalRepo interface {
	Create(ctx context.Context, tx *sql.Tx, w *domain.Withdrawal) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error)
	ListByDesigner(ctx context.Context, designerID uuid.UUID) ([]domain.Withdrawal, error)
}

type eventRepo interface {
	Create(ctx context.Context, tx *sql.Tx, event *domain.LedgerEvent) error
}

// Service runs withdrawal settlements: matching a requested amount against a
// designer's pending ledger entries and advancing the claimed entries to
// processing as one transaction.
type Service struct {
	earnings    earningsRepo
	withdrawals withdrawalRepo
	events      eventRepo
	db          *sql.DB
}

func NewService(earnings earningsRepo, withdrawals withdrawalRepo, events eventRepo, db *sql.DB) *Service {
	return &Service{
		earnings:    earnings,
		withdrawals: withdrawals,
		events:      events,
		db:          db,
	}
}

func (s *Service) GetWithdrawalForDesigner(ctx context.Context, withdrawalID, designerID uuid.UUID) (*domain.Withdrawal, []domain.LedgerEntry, error) {
	w, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, nil, fmt.Errorf("GetWithdrawalForDesigner: %w", err)
	}

	if w.DesignerID != designerID {
		return nil, nil, fmt.Errorf("GetWithdrawalForDesigner: %w", domain.ErrNotFound)
	}

	entries, err := s.earnings.GetByWithdrawalID(ctx, withdrawalID)
	if err != nil {
		return nil, nil, fmt.Errorf("GetWithdrawalForDesigner: %w", err)
	}

	return w, entries, nil
}

func (s *Service) ListWithdrawals(ctx context.Context, designerID uuid.UUID) ([]domain.Withdrawal, error) {
	withdrawals, err := s.withdrawals.ListByDesigner(ctx, designerID)
	if err != nil {
		return nil, fmt.Errorf("ListWithdrawals: %w", err)
	}
	return withdrawals, nil
}
