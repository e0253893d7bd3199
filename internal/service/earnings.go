package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/logging"
)

// EarningsService owns ledger writes outside of settlement (project
// payments, bonuses, refunds) and the read-side dashboard projections.
type EarningsService struct {
	earnings earningsRepository
	db       *sql.DB
}

func NewEarningsService(earnings earningsRepository, db *sql.DB) *EarningsService {
	return &EarningsService{earnings: earnings, db: db}
}

type CreditRequest struct {
	DesignerID uuid.UUID
	ContestID  *uuid.UUID
	Amount     decimal.Decimal
	Kind       domain.EarningKind
}

// Credit appends a pending entry to the designer's ledger.
func (s *EarningsService) Credit(ctx context.Context, req CreditRequest) (*domain.LedgerEntry, error) {
	log := logging.FromContext(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("Credit: %w", domain.ErrInvalidAmount)
	}
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("Credit: %q: %w", req.Kind, domain.ErrInvalidKind)
	}

	entry := &domain.LedgerEntry{
		ID:         uuid.New(),
		DesignerID: req.DesignerID,
		ContestID:  req.ContestID,
		Amount:     req.Amount,
		Kind:       req.Kind,
		Status:     domain.EarningStatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Credit: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.earnings.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("Credit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Credit: commit: %w", err)
	}

	log.Info("ledger credited",
		"entry_id", entry.ID,
		"designer_id", req.DesignerID,
		"amount", req.Amount,
		"kind", req.Kind,
	)

	return entry, nil
}

type EarningsSummary struct {
	Entries         []domain.LedgerEntry
	TotalPending    decimal.Decimal
	TotalProcessing decimal.Decimal
	TotalCompleted  decimal.Decimal
	ContestWins     int64
	PaidProjects    int64
}

// Summary recomputes the dashboard projection from the current ledger state
// on every call. Totals are plain zero when no rows match.
func (s *EarningsService) Summary(ctx context.Context, designerID uuid.UUID, status *domain.EarningStatus, kind *domain.EarningKind) (*EarningsSummary, error) {
	entries, err := s.earnings.ListByDesigner(ctx, designerID, status, kind)
	if err != nil {
		return nil, fmt.Errorf("Summary: %w", err)
	}

	summary := &EarningsSummary{Entries: entries}

	totals := []struct {
		status domain.EarningStatus
		dst    *decimal.Decimal
	}{
		{domain.EarningStatusPending, &summary.TotalPending},
		{domain.EarningStatusProcessing, &summary.TotalProcessing},
		{domain.EarningStatusCompleted, &summary.TotalCompleted},
	}
	for _, tt := range totals {
		total, err := s.earnings.Sum(ctx, designerID, &tt.status, nil)
		if err != nil {
			return nil, fmt.Errorf("Summary: sum %s: %w", tt.status, err)
		}
		*tt.dst = total
	}

	winKind := domain.EarningKindContestWin
	wins, err := s.earnings.Count(ctx, designerID, nil, &winKind)
	if err != nil {
		return nil, fmt.Errorf("Summary: count wins: %w", err)
	}
	summary.ContestWins = wins

	projectKind := domain.EarningKindProjectPayment
	completed := domain.EarningStatusCompleted
	paid, err := s.earnings.Count(ctx, designerID, &completed, &projectKind)
	if err != nil {
		return nil, fmt.Errorf("Summary: count paid projects: %w", err)
	}
	summary.PaidProjects = paid

	return summary, nil
}
