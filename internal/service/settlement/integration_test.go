package settlement_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/repository"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/service/settlement"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/testutil"
)

func setupSettlementService(t *testing.T, db *sql.DB) *settlement.Service {
	t.Helper()
	return settlement.NewService(
		repository.NewEarningsRepository(db),
		repository.NewWithdrawalRepository(db),
		repository.NewLedgerEventRepository(db),
		db,
	)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestWithdraw_OldestFirstSettlement(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db)
	ctx := context.Background()

	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	e100 := testutil.SeedLedgerEntry(t, db, designer.ID, d("100"), domain.EarningKindContestWin, base)
	e50 := testutil.SeedLedgerEntry(t, db, designer.ID, d("50"), domain.EarningKindProjectPayment, base.Add(time.Hour))
	e30 := testutil.SeedLedgerEntry(t, db, designer.ID, d("30"), domain.EarningKindBonus, base.Add(2*time.Hour))

	result, err := svc.Withdraw(ctx, settlement.WithdrawRequest{
		DesignerID: designer.ID,
		Amount:     d("120"),
	})

	require.NoError(t, err)
	assert.True(t, result.Withdrawal.RequestedAmount.Equal(d("120")))
	assert.True(t, result.Withdrawal.TotalMoved.Equal(d("150")), "last entry moves whole")
	assert.Equal(t, domain.WithdrawalStatusProcessing, result.Withdrawal.Status)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, e100.ID, result.Entries[0].ID)
	assert.Equal(t, e50.ID, result.Entries[1].ID)

	assert.Equal(t, domain.EarningStatusProcessing, testutil.GetEntryStatus(t, db, e100.ID))
	assert.Equal(t, domain.EarningStatusProcessing, testutil.GetEntryStatus(t, db, e50.ID))
	assert.Equal(t, domain.EarningStatusPending, testutil.GetEntryStatus(t, db, e30.ID))

	assert.Equal(t, 1, testutil.CountLedgerEvents(t, db, e100.ID))
	assert.Equal(t, 1, testutil.CountLedgerEvents(t, db, e50.ID))
	assert.Equal(t, 0, testutil.CountLedgerEvents(t, db, e30.ID))
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db)
	ctx := context.Background()

	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	e100 := testutil.SeedLedgerEntry(t, db, designer.ID, d("100"), domain.EarningKindContestWin, base)
	e50 := testutil.SeedLedgerEntry(t, db, designer.ID, d("50"), domain.EarningKindProjectPayment, base.Add(time.Hour))
	e30 := testutil.SeedLedgerEntry(t, db, designer.ID, d("30"), domain.EarningKindBonus, base.Add(2*time.Hour))

	_, err := svc.Withdraw(ctx, settlement.WithdrawRequest{
		DesignerID: designer.ID,
		Amount:     d("200"),
	})

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// Nothing moved.
	for _, e := range []*domain.LedgerEntry{e100, e50, e30} {
		assert.Equal(t, domain.EarningStatusPending, testutil.GetEntryStatus(t, db, e.ID))
	}

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM withdrawals WHERE designer_id = $1`, designer.ID).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestWithdraw_InvalidAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db)
	ctx := context.Background()

	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	testutil.SeedLedgerEntry(t, db, designer.ID, d("100"), domain.EarningKindContestWin, time.Now().UTC())

	for _, amount := range []string{"0", "-25"} {
		_, err := svc.Withdraw(ctx, settlement.WithdrawRequest{
			DesignerID: designer.ID,
			Amount:     d(amount),
		})
		require.ErrorIs(t, err, domain.ErrInvalidAmount, "amount %s", amount)
	}
}

func TestWithdraw_ProcessingFundsNotAvailable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db)
	ctx := context.Background()

	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	testutil.SeedLedgerEntry(t, db, designer.ID, d("80"), domain.EarningKindContestWin, base)
	testutil.SeedLedgerEntry(t, db, designer.ID, d("40"), domain.EarningKindBonus, base.Add(time.Hour))

	_, err := svc.Withdraw(ctx, settlement.WithdrawRequest{DesignerID: designer.ID, Amount: d("80")})
	require.NoError(t, err)

	// First withdrawal claimed the 80; only 40 remains pending.
	_, err = svc.Withdraw(ctx, settlement.WithdrawRequest{DesignerID: designer.ID, Amount: d("50")})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	result, err := svc.Withdraw(ctx, settlement.WithdrawRequest{DesignerID: designer.ID, Amount: d("40")})
	require.NoError(t, err)
	assert.True(t, result.Withdrawal.TotalMoved.Equal(d("40")))
}

func TestWithdraw_ConcurrentRequests(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db)
	ctx := context.Background()

	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	testutil.SeedLedgerEntry(t, db, designer.ID, d("60"), domain.EarningKindContestWin, base)
	testutil.SeedLedgerEntry(t, db, designer.ID, d("40"), domain.EarningKindProjectPayment, base.Add(time.Hour))

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Withdraw(ctx, settlement.WithdrawRequest{
				DesignerID: designer.ID,
				Amount:     d("90"),
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		// The loser either hit the row locks or saw too little left pending.
		if !errors.Is(err, domain.ErrConcurrencyConflict) && !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes, "exactly one withdrawal should succeed")

	// No entry was claimed twice and no more than 100 moved.
	var processing decimal.Decimal
	require.NoError(t, db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM earnings_ledger WHERE designer_id = $1 AND status = 'processing'`,
		designer.ID,
	).Scan(&processing))
	assert.True(t, processing.LessThanOrEqual(d("100")), "processing total %s", processing)

	var withdrawals int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM withdrawals WHERE designer_id = $1`, designer.ID).Scan(&withdrawals))
	assert.Equal(t, 1, withdrawals)
}

func TestGetWithdrawalForDesigner_OwnershipCheck(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db)
	ctx := context.Background()

	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	other := testutil.SeedDesigner(t, db, "other@test.com", "Other")
	testutil.SeedLedgerEntry(t, db, designer.ID, d("100"), domain.EarningKindContestWin, time.Now().UTC())

	result, err := svc.Withdraw(ctx, settlement.WithdrawRequest{DesignerID: designer.ID, Amount: d("100")})
	require.NoError(t, err)

	w, entries, err := svc.GetWithdrawalForDesigner(ctx, result.Withdrawal.ID, designer.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Withdrawal.ID, w.ID)
	assert.Len(t, entries, 1)

	_, _, err = svc.GetWithdrawalForDesigner(ctx, result.Withdrawal.ID, other.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
