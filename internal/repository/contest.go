package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
)

const contestColumns = `id, client_id, title, prize_amount, status, created_at`

const contestEntryColumns = `id, contest_id, designer_id, is_winner, is_finalist, created_at`

type ContestRepository struct {
	db *sql.DB
}

func NewContestRepository(db *sql.DB) *ContestRepository {
	return &ContestRepository{db: db}
}

func (r *ContestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contestColumns+` FROM contests WHERE id = $1`, id,
	)
	c, err := scanContest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

func (r *ContestRepository) Create(ctx context.Context, contest *domain.Contest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contests (id, client_id, title, prize_amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		contest.ID, contest.ClientID, contest.Title, contest.PrizeAmount,
		contest.Status, contest.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// CreateEntry relies on the unique (contest_id, designer_id) index to enforce
// one submission per designer per contest.
func (r *ContestRepository) CreateEntry(ctx context.Context, tx *sql.Tx, entry *domain.ContestEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO contest_entries (id, contest_id, designer_id, is_winner, is_finalist, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.ContestID, entry.DesignerID,
		entry.IsWinner, entry.IsFinalist, entry.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("CreateEntry: %w", domain.ErrDuplicateSubmission)
		}
		return fmt.Errorf("CreateEntry: %w", err)
	}
	return nil
}

func (r *ContestRepository) GetEntry(ctx context.Context, contestID, designerID uuid.UUID) (*domain.ContestEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contestEntryColumns+` FROM contest_entries
		WHERE contest_id = $1 AND designer_id = $2`,
		contestID, designerID,
	)
	e, err := scanContestEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetEntry: %w", domain.ErrNoSubmission)
		}
		return nil, fmt.Errorf("GetEntry: %w", err)
	}
	return e, nil
}

// MarkWinner flips is_winner and reports whether this call did the flipping.
// A second call matches zero rows, making the operation idempotent.
func (r *ContestRepository) MarkWinner(ctx context.Context, tx *sql.Tx, contestID, designerID uuid.UUID) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE contest_entries SET is_winner = TRUE
		WHERE contest_id = $1 AND designer_id = $2 AND is_winner = FALSE`,
		contestID, designerID,
	)
	if err != nil {
		return false, fmt.Errorf("MarkWinner: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("MarkWinner: rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *ContestRepository) MarkFinalist(ctx context.Context, tx *sql.Tx, contestID, designerID uuid.UUID) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE contest_entries SET is_finalist = TRUE
		WHERE contest_id = $1 AND designer_id = $2 AND is_finalist = FALSE`,
		contestID, designerID,
	)
	if err != nil {
		return false, fmt.Errorf("MarkFinalist: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("MarkFinalist: rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *ContestRepository) CountEntries(ctx context.Context, contestID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contest_entries WHERE contest_id = $1`, contestID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountEntries: %w", err)
	}
	return count, nil
}

func scanContest(s scanner) (*domain.Contest, error) {
	var c domain.Contest
	err := s.Scan(
		&c.ID, &c.ClientID, &c.Title, &c.PrizeAmount, &c.Status, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanContestEntry(s scanner) (*domain.ContestEntry, error) {
	var e domain.ContestEntry
	err := s.Scan(
		&e.ID, &e.ContestID, &e.DesignerID,
		&e.IsWinner, &e.IsFinalist, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
