package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
)

const withdrawalColumns = `id, designer_id, requested_amount, total_moved, status, created_at`

type WithdrawalRepository struct {
	db *sql.DB
}

func NewWithdrawalRepository(db *sql.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(ctx context.Context, tx *sql.Tx, w *domain.Withdrawal) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO withdrawals (id, designer_id, requested_amount, total_moved, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, w.DesignerID, w.RequestedAmount, w.TotalMoved, w.Status, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id,
	)
	w, err := scanWithdrawal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return w, nil
}

func (r *WithdrawalRepository) ListByDesigner(ctx context.Context, designerID uuid.UUID) ([]domain.Withdrawal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals
		WHERE designer_id = $1 ORDER BY created_at DESC`, designerID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByDesigner: %w", err)
	}
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByDesigner: scan: %w", err)
		}
		withdrawals = append(withdrawals, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByDesigner: rows: %w", err)
	}
	return withdrawals, nil
}

// UpdateStatus is driven by the payout processor once every claimed entry
// reaches a terminal state.
func (r *WithdrawalRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.WithdrawalStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE withdrawals SET status = $1 WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStatus: %w", domain.ErrNotFound)
	}
	return nil
}

func scanWithdrawal(s scanner) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	err := s.Scan(
		&w.ID, &w.DesignerID, &w.RequestedAmount, &w.TotalMoved,
		&w.Status, &w.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
