package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
)

const payoutActor = "payout-provider"

// PayoutProcessor drains queued provider confirmations and advances the
// referenced ledger entries through the forward-only status machine:
// processing entries become completed (stamping paid_at) or failed. It is the
// only writer of the completed and failed statuses.
type PayoutProcessor struct {
	payouts     payoutEventRepository
	earnings    earningsRepository
	events      ledgerEventRepository
	withdrawals withdrawalUpdater
	db          *sql.DB
	logger      *slog.Logger
	interval    time.Duration
}

func NewPayoutProcessor(
	payouts payoutEventRepository,
	earnings earningsRepository,
	events ledgerEventRepository,
	withdrawals withdrawalUpdater,
	db *sql.DB,
	logger *slog.Logger,
	interval time.Duration,
) *PayoutProcessor {
	return &PayoutProcessor{
		payouts:     payouts,
		earnings:    earnings,
		events:      events,
		withdrawals: withdrawals,
		db:          db,
		logger:      logger,
		interval:    interval,
	}
}

func (p *PayoutProcessor) Start(ctx context.Context) {
	p.logger.Info("payout processor started", "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("payout processor stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *PayoutProcessor) poll(ctx context.Context) {
	events, err := p.payouts.GetPending(ctx, 10)
	if err != nil {
		p.logger.Error("failed to fetch pending payout events", "error", err)
		return
	}

	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error("failed to process payout event",
				"payout_event_id", event.ID,
				"error", err,
			)
		}
	}
}

type payoutCallbackPayload struct {
	EventID     string `json:"event_id"`
	EntryID     string `json:"entry_id"`
	Status      string `json:"status"`
	ProviderRef string `json:"provider_ref,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

func (p *PayoutProcessor) processEvent(ctx context.Context, event domain.PayoutEvent) error {
	var payload payoutCallbackPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		p.logger.Error("malformed payout payload", "payout_event_id", event.ID, "error", err)
		return p.payouts.UpdateStatus(ctx, event.ID, domain.PayoutEventStatusFailed)
	}

	entryID, err := uuid.Parse(payload.EntryID)
	if err != nil {
		p.logger.Error("invalid entry_id in payout event", "payout_event_id", event.ID, "entry_id", payload.EntryID)
		return p.payouts.UpdateStatus(ctx, event.ID, domain.PayoutEventStatusFailed)
	}

	entry, err := p.earnings.GetByID(ctx, entryID)
	if err != nil {
		p.logger.Warn("ledger entry not found for payout event", "payout_event_id", event.ID, "entry_id", entryID)
		return p.payouts.UpdateStatus(ctx, event.ID, domain.PayoutEventStatusFailed)
	}

	if entry.Status.IsTerminal() {
		p.logger.Info("ledger entry already terminal, skipping",
			"payout_event_id", event.ID,
			"entry_id", entryID,
			"entry_status", entry.Status,
		)
		return p.payouts.UpdateStatus(ctx, event.ID, domain.PayoutEventStatusDispatched)
	}

	var target domain.EarningStatus
	switch payload.Status {
	case "completed":
		target = domain.EarningStatusCompleted
	case "failed":
		target = domain.EarningStatusFailed
	default:
		p.logger.Error("unknown payout status", "payout_event_id", event.ID, "status", payload.Status)
		return p.payouts.UpdateStatus(ctx, event.ID, domain.PayoutEventStatusFailed)
	}

	if err := p.advanceEntry(ctx, entry, target, payload.Reason); err != nil {
		if errors.Is(err, domain.ErrIllegalTransition) {
			p.logger.Info("ledger entry moved concurrently, skipping",
				"payout_event_id", event.ID,
				"entry_id", entryID,
			)
			return p.payouts.UpdateStatus(ctx, event.ID, domain.PayoutEventStatusDispatched)
		}
		return fmt.Errorf("processEvent: %w", err)
	}

	if entry.WithdrawalID != nil {
		if err := p.rollUpWithdrawal(ctx, *entry.WithdrawalID); err != nil {
			p.logger.Error("failed to roll up withdrawal status",
				"withdrawal_id", *entry.WithdrawalID,
				"error", err,
			)
		}
	}

	return p.payouts.UpdateStatus(ctx, event.ID, domain.PayoutEventStatusDispatched)
}

func (p *PayoutProcessor) advanceEntry(ctx context.Context, entry *domain.LedgerEntry, target domain.EarningStatus, reason string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("advanceEntry: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := p.earnings.Transition(ctx, tx, entry.ID, entry.Status, target); err != nil {
		return fmt.Errorf("advanceEntry: %w", err)
	}

	now := time.Now().UTC()
	event := &domain.LedgerEvent{
		ID:         uuid.New(),
		EntryID:    entry.ID,
		FromStatus: entry.Status,
		ToStatus:   target,
		Actor:      payoutActor,
		CreatedAt:  now,
	}
	if reason != "" {
		payload, _ := json.Marshal(map[string]string{"reason": reason})
		event.Payload = payload
	}
	if err := p.events.Create(ctx, tx, event); err != nil {
		return fmt.Errorf("advanceEntry: record event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("advanceEntry: commit: %w", err)
	}

	p.logger.Info("ledger entry advanced",
		"entry_id", entry.ID,
		"from", entry.Status,
		"to", target,
	)
	return nil
}

// rollUpWithdrawal derives the withdrawal's status from its claimed entries
// once none of them is still processing. Rebuildable from the ledger, so a
// failure here is logged rather than failing the event.
func (p *PayoutProcessor) rollUpWithdrawal(ctx context.Context, withdrawalID uuid.UUID) error {
	entries, err := p.earnings.GetByWithdrawalID(ctx, withdrawalID)
	if err != nil {
		return fmt.Errorf("rollUpWithdrawal: %w", err)
	}

	anyFailed := false
	for _, e := range entries {
		if e.Status == domain.EarningStatusProcessing {
			return nil
		}
		if e.Status == domain.EarningStatusFailed {
			anyFailed = true
		}
	}

	status := domain.WithdrawalStatusCompleted
	if anyFailed {
		status = domain.WithdrawalStatusFailed
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rollUpWithdrawal: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := p.withdrawals.UpdateStatus(ctx, tx, withdrawalID, status); err != nil {
		return fmt.Errorf("rollUpWithdrawal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rollUpWithdrawal: commit: %w", err)
	}

	p.logger.Info("withdrawal rolled up", "withdrawal_id", withdrawalID, "status", status)
	return nil
}
