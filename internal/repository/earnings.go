package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
)

const earningColumns = `id, designer_id, contest_id, amount, kind, status,
	withdrawal_id, created_at, paid_at`

type EarningsRepository struct {
	db *sql.DB
}

func NewEarningsRepository(db *sql.DB) *EarningsRepository {
	return &EarningsRepository{db: db}
}

func (r *EarningsRepository) Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO earnings_ledger (
			id, designer_id, contest_id, amount, kind, status,
			withdrawal_id, created_at, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.DesignerID, entry.ContestID, entry.Amount, entry.Kind,
		entry.Status, entry.WithdrawalID, entry.CreatedAt, entry.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *EarningsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+earningColumns+` FROM earnings_ledger WHERE id = $1`, id,
	)
	e, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return e, nil
}

// ListByDesigner returns the designer's ledger rows, newest first, optionally
// filtered by status and kind. Nil filters match everything.
func (r *EarningsRepository) ListByDesigner(ctx context.Context, designerID uuid.UUID, status *domain.EarningStatus, kind *domain.EarningKind) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + earningColumns + ` FROM earnings_ledger WHERE designer_id = $1`
	args := []any{designerID}

	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if kind != nil {
		args = append(args, *kind)
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListByDesigner: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByDesigner: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByDesigner: rows: %w", err)
	}
	return entries, nil
}

// ListPendingForUpdate locks every pending entry for the designer for the
// duration of the transaction, ordered oldest first with id as the
// deterministic tie-break. NOWAIT turns lock contention from a concurrent
// settlement into domain.ErrConcurrencyConflict instead of blocking.
func (r *EarningsRepository) ListPendingForUpdate(ctx context.Context, tx *sql.Tx, designerID uuid.UUID) ([]domain.LedgerEntry, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+earningColumns+` FROM earnings_ledger
		WHERE designer_id = $1 AND status = $2
		ORDER BY created_at, id
		FOR UPDATE NOWAIT`,
		designerID, domain.EarningStatusPending,
	)
	if err != nil {
		if isLockNotAvailable(err) {
			return nil, fmt.Errorf("ListPendingForUpdate: %w", domain.ErrConcurrencyConflict)
		}
		return nil, fmt.Errorf("ListPendingForUpdate: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("ListPendingForUpdate: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		if isLockNotAvailable(err) {
			return nil, fmt.Errorf("ListPendingForUpdate: %w", domain.ErrConcurrencyConflict)
		}
		return nil, fmt.Errorf("ListPendingForUpdate: rows: %w", err)
	}
	return entries, nil
}

// Transition advances an entry along one of the allowed forward edges. The
// current status is part of the WHERE clause, so a row that moved underneath
// us (or an edge the status machine forbids) affects zero rows and surfaces
// as ErrIllegalTransition.
func (r *EarningsRepository) Transition(ctx context.Context, tx *sql.Tx, id uuid.UUID, from, to domain.EarningStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("Transition: %s -> %s: %w", from, to, domain.ErrIllegalTransition)
	}

	var paidAt *time.Time
	if to == domain.EarningStatusCompleted {
		now := time.Now().UTC()
		paidAt = &now
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE earnings_ledger SET status = $1, paid_at = COALESCE($2, paid_at)
		WHERE id = $3 AND status = $4`,
		to, paidAt, id, from,
	)
	if err != nil {
		return fmt.Errorf("Transition: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Transition: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Transition: %s -> %s: %w", from, to, domain.ErrIllegalTransition)
	}
	return nil
}

// ClaimForWithdrawal moves a pending entry to processing and tags it with the
// withdrawal that settled it.
func (r *EarningsRepository) ClaimForWithdrawal(ctx context.Context, tx *sql.Tx, id, withdrawalID uuid.UUID) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE earnings_ledger SET status = $1, withdrawal_id = $2
		WHERE id = $3 AND status = $4`,
		domain.EarningStatusProcessing, withdrawalID, id, domain.EarningStatusPending,
	)
	if err != nil {
		return fmt.Errorf("ClaimForWithdrawal: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ClaimForWithdrawal: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("ClaimForWithdrawal: %w", domain.ErrIllegalTransition)
	}
	return nil
}

func (r *EarningsRepository) GetByWithdrawalID(ctx context.Context, withdrawalID uuid.UUID) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+earningColumns+` FROM earnings_ledger
		WHERE withdrawal_id = $1 ORDER BY created_at, id`, withdrawalID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByWithdrawalID: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByWithdrawalID: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByWithdrawalID: rows: %w", err)
	}
	return entries, nil
}

// Sum totals the matching amounts. COALESCE keeps the zero-rows case a plain
// zero rather than a NULL scan error.
func (r *EarningsRepository) Sum(ctx context.Context, designerID uuid.UUID, status *domain.EarningStatus, kind *domain.EarningKind) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM earnings_ledger WHERE designer_id = $1`
	args := []any{designerID}

	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if kind != nil {
		args = append(args, *kind)
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}

	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("Sum: %w", err)
	}
	return total, nil
}

func (r *EarningsRepository) Count(ctx context.Context, designerID uuid.UUID, status *domain.EarningStatus, kind *domain.EarningKind) (int64, error) {
	query := `SELECT COUNT(*) FROM earnings_ledger WHERE designer_id = $1`
	args := []any{designerID}

	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if kind != nil {
		args = append(args, *kind)
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

func scanLedgerEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := s.Scan(
		&e.ID, &e.DesignerID, &e.ContestID, &e.Amount, &e.Kind,
		&e.Status, &e.WithdrawalID, &e.CreatedAt, &e.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
