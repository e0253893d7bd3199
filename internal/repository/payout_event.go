package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
)

const payoutEventColumns = `id, idempotency_key, event_type, payload, status,
	attempts, last_attempt, created_at`

type PayoutEventRepository struct {
	db *sql.DB
}

func NewPayoutEventRepository(db *sql.DB) *PayoutEventRepository {
	return &PayoutEventRepository{db: db}
}

func (r *PayoutEventRepository) Create(ctx context.Context, event *domain.PayoutEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payout_events (
			id, idempotency_key, event_type, payload, status, attempts, last_attempt, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.IdempotencyKey, event.EventType, event.Payload,
		event.Status, event.Attempts, event.LastAttempt, event.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrDuplicateIdempotency)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PayoutEventRepository) GetPending(ctx context.Context, limit int) ([]domain.PayoutEvent, error) {
	// FOR UPDATE SKIP LOCKED prevents multiple processors from claiming the same event
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+payoutEventColumns+` FROM payout_events
		WHERE status = $1 ORDER BY created_at LIMIT $2 FOR UPDATE SKIP LOCKED`,
		domain.PayoutEventStatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("GetPending: %w", err)
	}
	defer rows.Close()

	var events []domain.PayoutEvent
	for rows.Next() {
		e, err := scanPayoutEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetPending: scan: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetPending: rows: %w", err)
	}
	return events, nil
}

func (r *PayoutEventRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PayoutEventStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payout_events SET status = $1, attempts = attempts + 1, last_attempt = now()
		WHERE id = $2`,
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

func scanPayoutEvent(s scanner) (*domain.PayoutEvent, error) {
	var e domain.PayoutEvent
	err := s.Scan(
		&e.ID, &e.IdempotencyKey, &e.EventType, &e.Payload,
		&e.Status, &e.Attempts, &e.LastAttempt, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
