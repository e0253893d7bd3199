package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/repository"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/service/settlement"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/testutil"
)

func setupPayoutTest(t *testing.T, db *sql.DB) (*settlement.Service, *PayoutProcessor, *repository.PayoutEventRepository) {
	t.Helper()

	earnings := repository.NewEarningsRepository(db)
	withdrawals := repository.NewWithdrawalRepository(db)
	events := repository.NewLedgerEventRepository(db)
	payouts := repository.NewPayoutEventRepository(db)

	settlements := settlement.NewService(earnings, withdrawals, events, db)
	processor := NewPayoutProcessor(payouts, earnings, events, withdrawals, db, slog.Default(), time.Second)

	return settlements, processor, payouts
}

func insertPayoutEvent(t *testing.T, payouts *repository.PayoutEventRepository, entryID uuid.UUID, status, reason string) domain.PayoutEvent {
	t.Helper()
	ctx := context.Background()

	eventType := domain.PayoutEventTypeCompleted
	if status == "failed" {
		eventType = domain.PayoutEventTypeFailed
	}

	payload, _ := json.Marshal(payoutCallbackPayload{
		EventID:     uuid.NewString(),
		EntryID:     entryID.String(),
		Status:      status,
		ProviderRef: "prov-ref-123",
		Reason:      reason,
	})
	event := domain.PayoutEvent{
		ID:             uuid.New(),
		IdempotencyKey: uuid.NewString(),
		EventType:      eventType,
		Payload:        payload,
		Status:         domain.PayoutEventStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, payouts.Create(ctx, &event))
	return event
}

func claimedEntry(t *testing.T, db *sql.DB, settlements *settlement.Service, designerID uuid.UUID, amount string) (*domain.LedgerEntry, *domain.Withdrawal) {
	t.Helper()
	ctx := context.Background()

	testutil.SeedLedgerEntry(t, db, designerID, decimal.RequireFromString(amount), domain.EarningKindContestWin, time.Now().UTC())
	result, err := settlements.Withdraw(ctx, settlement.WithdrawRequest{
		DesignerID: designerID,
		Amount:     decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	return &result.Entries[0], result.Withdrawal
}

func TestProcessEvent_CompletedStampsPaidAt(t *testing.T) {
	db := testutil.SetupTestDB(t)
	settlements, processor, payouts := setupPayoutTest(t, db)
	ctx := context.Background()

	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	entry, withdrawal := claimedEntry(t, db, settlements, designer.ID, "100")

	event := insertPayoutEvent(t, payouts, entry.ID, "completed", "")
	require.NoError(t, processor.processEvent(ctx, event))

	assert.Equal(t, domain.EarningStatusCompleted, testutil.GetEntryStatus(t, db, entry.ID))
	assert.NotNil(t, testutil.GetEntryPaidAt(t, db, entry.ID))

	// Settlement plus completion leave a two-event trail.
	assert.Equal(t, 2, testutil.CountLedgerEvents(t, db, entry.ID))

	var wStatus domain.WithdrawalStatus
	require.NoError(t, db.QueryRow(`SELECT status FROM withdrawals WHERE id = $1`, withdrawal.ID).Scan(&wStatus))
	assert.Equal(t, domain.WithdrawalStatusCompleted, wStatus)
}

func TestProcessEvent_FailedLeavesNoPaidAt(t *testing.T) {
	db := testutil.SetupTestDB(t)
	settlements, processor, payouts := setupPayoutTest(t, db)
	ctx := context.Background()

	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	entry, withdrawal := claimedEntry(t, db, settlements, designer.ID, "100")

	event := insertPayoutEvent(t, payouts, entry.ID, "failed", "account closed")
	require.NoError(t, processor.processEvent(ctx, event))

	assert.Equal(t, domain.EarningStatusFailed, testutil.GetEntryStatus(t, db, entry.ID))
	assert.Nil(t, testutil.GetEntryPaidAt(t, db, entry.ID))

	var wStatus domain.WithdrawalStatus
	require.NoError(t, db.QueryRow(`SELECT status FROM withdrawals WHERE id = $1`, withdrawal.ID).Scan(&wStatus))
	assert.Equal(t, domain.WithdrawalStatusFailed, wStatus)
}

func TestProcessEvent_TerminalEntrySkipped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	settlements, processor, payouts := setupPayoutTest(t, db)
	ctx := context.Background()

	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	entry, _ := claimedEntry(t, db, settlements, designer.ID, "100")

	first := insertPayoutEvent(t, payouts, entry.ID, "completed", "")
	require.NoError(t, processor.processEvent(ctx, first))

	// A late contradicting confirmation must not move the entry again.
	second := insertPayoutEvent(t, payouts, entry.ID, "failed", "late duplicate")
	require.NoError(t, processor.processEvent(ctx, second))

	assert.Equal(t, domain.EarningStatusCompleted, testutil.GetEntryStatus(t, db, entry.ID))

	var status domain.PayoutEventStatus
	require.NoError(t, db.QueryRow(`SELECT status FROM payout_events WHERE id = $1`, second.ID).Scan(&status))
	assert.Equal(t, domain.PayoutEventStatusDispatched, status)
}

func TestProcessEvent_MalformedPayloadMarkedFailed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, processor, payouts := setupPayoutTest(t, db)
	ctx := context.Background()

	event := domain.PayoutEvent{
		ID:             uuid.New(),
		IdempotencyKey: uuid.NewString(),
		EventType:      domain.PayoutEventTypeCompleted,
		Payload:        json.RawMessage(`not-json`),
		Status:         domain.PayoutEventStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, payouts.Create(ctx, &event))
	require.NoError(t, processor.processEvent(ctx, event))

	var status domain.PayoutEventStatus
	require.NoError(t, db.QueryRow(`SELECT status FROM payout_events WHERE id = $1`, event.ID).Scan(&status))
	assert.Equal(t, domain.PayoutEventStatusFailed, status)
}

func TestProcessEvent_PartialWithdrawalStaysProcessing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	settlements, processor, payouts := setupPayoutTest(t, db)
	ctx := context.Background()

	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	testutil.SeedLedgerEntry(t, db, designer.ID, decimal.RequireFromString("60"), domain.EarningKindContestWin, base)
	testutil.SeedLedgerEntry(t, db, designer.ID, decimal.RequireFromString("40"), domain.EarningKindBonus, base.Add(time.Hour))

	result, err := settlements.Withdraw(ctx, settlement.WithdrawRequest{
		DesignerID: designer.ID,
		Amount:     decimal.RequireFromString("100"),
	})
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)

	event := insertPayoutEvent(t, payouts, result.Entries[0].ID, "completed", "")
	require.NoError(t, processor.processEvent(ctx, event))

	// One of two entries confirmed: the withdrawal is not rolled up yet.
	var wStatus domain.WithdrawalStatus
	require.NoError(t, db.QueryRow(`SELECT status FROM withdrawals WHERE id = $1`, result.Withdrawal.ID).Scan(&wStatus))
	assert.Equal(t, domain.WithdrawalStatusProcessing, wStatus)
}

func TestPayoutEvent_DuplicateIdempotencyKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, _, payouts := setupPayoutTest(t, db)
	ctx := context.Background()

	key := uuid.NewString()
	first := domain.PayoutEvent{
		ID:             uuid.New(),
		IdempotencyKey: key,
		EventType:      domain.PayoutEventTypeCompleted,
		Payload:        json.RawMessage(`{}`),
		Status:         domain.PayoutEventStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, payouts.Create(ctx, &first))

	dup := first
	dup.ID = uuid.New()
	err := payouts.Create(ctx, &dup)
	require.ErrorIs(t, err, domain.ErrDuplicateIdempotency)
}
