package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/logging"
)

type WithdrawRequest struct {
	DesignerID uuid.UUID
	Amount     decimal.Decimal
}

type WithdrawResult struct {
	Withdrawal *domain.Withdrawal
	Entries    []domain.LedgerEntry
}

// Withdraw settles a withdrawal request against the designer's pending
// ledger entries, oldest first. The balance read and the status transitions
// happen under row locks in a single transaction, so two concurrent requests
// can never both claim the same pending funds: the second either sees only
// what remains or fails with ErrConcurrencyConflict and must retry whole.
func (s *Service) Withdraw(ctx context.Context, req WithdrawRequest) (*WithdrawResult, error) {
	log := logging.FromContext(ctx)

	// Rejected before any ledger read.
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("Withdraw: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: begin tx: %w", err)
	}
	defer tx.Rollback()

	pending, err := s.earnings.ListPendingForUpdate(ctx, tx, req.DesignerID)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	available := decimal.Zero
	for _, e := range pending {
		available = available.Add(e.Amount)
	}
	if available.LessThan(req.Amount) {
		return nil, fmt.Errorf("Withdraw: requested %s, pending %s: %w",
			req.Amount, available, domain.ErrInsufficientFunds)
	}

	claimed, moved := allocate(pending, req.Amount)

	now := time.Now().UTC()
	w := &domain.Withdrawal{
		ID:              uuid.New(),
		DesignerID:      req.DesignerID,
		RequestedAmount: req.Amount,
		TotalMoved:      moved,
		Status:          domain.WithdrawalStatusProcessing,
		CreatedAt:       now,
	}
	if err := s.withdrawals.Create(ctx, tx, w); err != nil {
		return nil, fmt.Errorf("Withdraw: create withdrawal: %w", err)
	}

	actor := fmt.Sprintf("designer:%s", req.DesignerID)
	for i := range claimed {
		if err := s.earnings.ClaimForWithdrawal(ctx, tx, claimed[i].ID, w.ID); err != nil {
			return nil, fmt.Errorf("Withdraw: claim entry %s: %w", claimed[i].ID, err)
		}

		event := &domain.LedgerEvent{
			ID:         uuid.New(),
			EntryID:    claimed[i].ID,
			FromStatus: domain.EarningStatusPending,
			ToStatus:   domain.EarningStatusProcessing,
			Actor:      actor,
			CreatedAt:  now,
		}
		if err := s.events.Create(ctx, tx, event); err != nil {
			return nil, fmt.Errorf("Withdraw: record event: %w", err)
		}

		claimed[i].Status = domain.EarningStatusProcessing
		claimed[i].WithdrawalID = &w.ID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Withdraw: commit: %w", err)
	}

	log.Info("withdrawal settled",
		"withdrawal_id", w.ID,
		"designer_id", req.DesignerID,
		"requested_amount", req.Amount,
		"total_moved", moved,
		"entries_affected", len(claimed),
	)

	return &WithdrawResult{Withdrawal: w, Entries: claimed}, nil
}

// allocate walks entries in the order given (the store returns them oldest
// first, id as tie-break) and selects those needed to cover requested.
// Entries are the unit of settlement: the last entry claimed moves whole even
// when only part of it is needed, so the returned total may exceed requested
// by at most that entry's amount.
func allocate(entries []domain.LedgerEntry, requested decimal.Decimal) ([]domain.LedgerEntry, decimal.Decimal) {
	remaining := requested
	moved := decimal.Zero

	var claimed []domain.LedgerEntry
	for _, e := range entries {
		if !remaining.IsPositive() {
			break
		}
		claimed = append(claimed, e)
		moved = moved.Add(e.Amount)
		remaining = remaining.Sub(e.Amount)
	}
	return claimed, moved
}
