package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/logging"
)

// ParticipationService guards the one-submission-per-contest rule and turns
// confirmed wins into contest_win ledger entries.
type ParticipationService struct {
	contests contestRepository
	users    userRepository
	earnings earningsWriter
	db       *sql.DB
}

func NewParticipationService(contests contestRepository, users userRepository, earnings earningsWriter, db *sql.DB) *ParticipationService {
	return &ParticipationService{
		contests: contests,
		users:    users,
		earnings: earnings,
		db:       db,
	}
}

// RecordSubmission creates the designer's contest entry and bumps their
// lifetime submission counter in one transaction. A second submission for the
// same (contest, designer) pair fails with ErrDuplicateSubmission and leaves
// the counter untouched.
func (s *ParticipationService) RecordSubmission(ctx context.Context, contestID, designerID uuid.UUID) (*domain.ContestEntry, error) {
	log := logging.FromContext(ctx)

	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("RecordSubmission: %w", err)
	}
	if contest.Status != domain.ContestStatusOpen {
		return nil, fmt.Errorf("RecordSubmission: %w", domain.ErrContestNotOpen)
	}

	designer, err := s.users.GetByID(ctx, designerID)
	if err != nil {
		return nil, fmt.Errorf("RecordSubmission: %w", err)
	}
	if designer.Role != domain.UserRoleDesigner {
		return nil, fmt.Errorf("RecordSubmission: only designers may enter: %w", domain.ErrInvalidRequest)
	}

	entry := &domain.ContestEntry{
		ID:         uuid.New(),
		ContestID:  contestID,
		DesignerID: designerID,
		CreatedAt:  time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("RecordSubmission: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.contests.CreateEntry(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("RecordSubmission: %w", err)
	}
	if err := s.users.IncrementSubmissionCount(ctx, tx, designerID); err != nil {
		return nil, fmt.Errorf("RecordSubmission: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("RecordSubmission: commit: %w", err)
	}

	log.Info("submission recorded",
		"contest_id", contestID,
		"designer_id", designerID,
		"entry_id", entry.ID,
	)

	return entry, nil
}

// ConfirmWinner marks the designer's entry as the winner and credits the
// contest prize as a pending contest_win ledger entry. Idempotent: only the
// call that actually flips is_winner creates the ledger entry; repeats return
// the no-op result with a nil entry.
func (s *ParticipationService) ConfirmWinner(ctx context.Context, contestID, designerID, actorClientID uuid.UUID) (*domain.LedgerEntry, error) {
	log := logging.FromContext(ctx)

	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("ConfirmWinner: %w", err)
	}
	if contest.ClientID != actorClientID {
		return nil, fmt.Errorf("ConfirmWinner: %w", domain.ErrNotContestOwner)
	}

	if _, err := s.contests.GetEntry(ctx, contestID, designerID); err != nil {
		return nil, fmt.Errorf("ConfirmWinner: %w", err)
	}

	if !contest.PrizeAmount.IsPositive() {
		return nil, fmt.Errorf("ConfirmWinner: prize %s: %w", contest.PrizeAmount, domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ConfirmWinner: begin tx: %w", err)
	}
	defer tx.Rollback()

	newlyMarked, err := s.contests.MarkWinner(ctx, tx, contestID, designerID)
	if err != nil {
		return nil, fmt.Errorf("ConfirmWinner: %w", err)
	}
	if !newlyMarked {
		log.Info("winner already confirmed, skipping",
			"contest_id", contestID,
			"designer_id", designerID,
		)
		return nil, nil
	}

	prize := &domain.LedgerEntry{
		ID:         uuid.New(),
		DesignerID: designerID,
		ContestID:  &contestID,
		Amount:     contest.PrizeAmount,
		Kind:       domain.EarningKindContestWin,
		Status:     domain.EarningStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.earnings.Create(ctx, tx, prize); err != nil {
		return nil, fmt.Errorf("ConfirmWinner: credit prize: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ConfirmWinner: commit: %w", err)
	}

	log.Info("winner confirmed",
		"contest_id", contestID,
		"designer_id", designerID,
		"entry_id", prize.ID,
		"prize_amount", contest.PrizeAmount,
	)

	return prize, nil
}

// MarkFinalist flips is_finalist with the same idempotent shape as
// ConfirmWinner but no money attached.
func (s *ParticipationService) MarkFinalist(ctx context.Context, contestID, designerID, actorClientID uuid.UUID) (bool, error) {
	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		return false, fmt.Errorf("MarkFinalist: %w", err)
	}
	if contest.ClientID != actorClientID {
		return false, fmt.Errorf("MarkFinalist: %w", domain.ErrNotContestOwner)
	}

	if _, err := s.contests.GetEntry(ctx, contestID, designerID); err != nil {
		return false, fmt.Errorf("MarkFinalist: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("MarkFinalist: begin tx: %w", err)
	}
	defer tx.Rollback()

	newlyMarked, err := s.contests.MarkFinalist(ctx, tx, contestID, designerID)
	if err != nil {
		return false, fmt.Errorf("MarkFinalist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("MarkFinalist: commit: %w", err)
	}

	return newlyMarked, nil
}
