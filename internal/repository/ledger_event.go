package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
)

const ledgerEventColumns = `id, entry_id, from_status, to_status, actor, payload, created_at`

type LedgerEventRepository struct {
	db *sql.DB
}

func NewLedgerEventRepository(db *sql.DB) *LedgerEventRepository {
	return &LedgerEventRepository{db: db}
}

func (r *LedgerEventRepository) Create(ctx context.Context, tx *sql.Tx, event *domain.LedgerEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_events (id, entry_id, from_status, to_status, actor, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.EntryID, event.FromStatus, event.ToStatus,
		event.Actor, event.Payload, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *LedgerEventRepository) GetByEntryID(ctx context.Context, entryID uuid.UUID) ([]domain.LedgerEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerEventColumns+` FROM ledger_events
		WHERE entry_id = $1 ORDER BY created_at`, entryID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByEntryID: %w", err)
	}
	defer rows.Close()

	var events []domain.LedgerEvent
	for rows.Next() {
		e, err := scanLedgerEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByEntryID: scan: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByEntryID: rows: %w", err)
	}
	return events, nil
}

func scanLedgerEvent(s scanner) (*domain.LedgerEvent, error) {
	var e domain.LedgerEvent
	err := s.Scan(
		&e.ID, &e.EntryID, &e.FromStatus, &e.ToStatus,
		&e.Actor, &e.Payload, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
