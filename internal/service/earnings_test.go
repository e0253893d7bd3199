package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/repository"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/service"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/testutil"
)

func TestCredit_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewEarningsService(repository.NewEarningsRepository(db), db)
	ctx := context.Background()

	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")

	_, err := svc.Credit(ctx, service.CreditRequest{
		DesignerID: designer.ID,
		Amount:     decimal.Zero,
		Kind:       domain.EarningKindBonus,
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Credit(ctx, service.CreditRequest{
		DesignerID: designer.ID,
		Amount:     decimal.RequireFromString("-10"),
		Kind:       domain.EarningKindBonus,
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Credit(ctx, service.CreditRequest{
		DesignerID: designer.ID,
		Amount:     decimal.RequireFromString("10"),
		Kind:       domain.EarningKind("royalty"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidKind)
}

func TestCredit_CreatesPendingEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewEarningsService(repository.NewEarningsRepository(db), db)
	ctx := context.Background()

	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")

	entry, err := svc.Credit(ctx, service.CreditRequest{
		DesignerID: designer.ID,
		Amount:     decimal.RequireFromString("250.50"),
		Kind:       domain.EarningKindProjectPayment,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.EarningStatusPending, entry.Status)
	assert.Nil(t, entry.PaidAt)
	assert.Equal(t, domain.EarningStatusPending, testutil.GetEntryStatus(t, db, entry.ID))
}

func TestSummary_EmptyLedger(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewEarningsService(repository.NewEarningsRepository(db), db)
	ctx := context.Background()

	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")

	summary, err := svc.Summary(ctx, designer.ID, nil, nil)

	require.NoError(t, err)
	assert.Empty(t, summary.Entries)
	assert.True(t, summary.TotalPending.IsZero())
	assert.True(t, summary.TotalProcessing.IsZero())
	assert.True(t, summary.TotalCompleted.IsZero())
	assert.Equal(t, int64(0), summary.ContestWins)
	assert.Equal(t, int64(0), summary.PaidProjects)
}

func TestSummary_TotalsAndCounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	earnings := repository.NewEarningsRepository(db)
	svc := service.NewEarningsService(earnings, db)
	ctx := context.Background()

	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	win := testutil.SeedLedgerEntry(t, db, designer.ID, decimal.RequireFromString("500"), domain.EarningKindContestWin, base)
	project := testutil.SeedLedgerEntry(t, db, designer.ID, decimal.RequireFromString("200"), domain.EarningKindProjectPayment, base.Add(time.Hour))
	testutil.SeedLedgerEntry(t, db, designer.ID, decimal.RequireFromString("50"), domain.EarningKindBonus, base.Add(2*time.Hour))

	// Move the project payment to completed through the status machine.
	advanceToCompleted(t, db, earnings, project.ID)

	summary, err := svc.Summary(ctx, designer.ID, nil, nil)
	require.NoError(t, err)

	assert.Len(t, summary.Entries, 3)
	assert.True(t, summary.TotalPending.Equal(decimal.RequireFromString("550")), "pending %s", summary.TotalPending)
	assert.True(t, summary.TotalProcessing.IsZero())
	assert.True(t, summary.TotalCompleted.Equal(decimal.RequireFromString("200")))
	assert.Equal(t, int64(1), summary.ContestWins)
	assert.Equal(t, int64(1), summary.PaidProjects)

	// completed total equals the sum over entries with paid_at set
	paidAt := testutil.GetEntryPaidAt(t, db, project.ID)
	assert.NotNil(t, paidAt)
	assert.Nil(t, testutil.GetEntryPaidAt(t, db, win.ID))
}

func TestSummary_StatusAndKindFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewEarningsService(repository.NewEarningsRepository(db), db)
	ctx := context.Background()

	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	testutil.SeedLedgerEntry(t, db, designer.ID, decimal.RequireFromString("500"), domain.EarningKindContestWin, base)
	testutil.SeedLedgerEntry(t, db, designer.ID, decimal.RequireFromString("200"), domain.EarningKindProjectPayment, base.Add(time.Hour))

	kind := domain.EarningKindContestWin
	summary, err := svc.Summary(ctx, designer.ID, nil, &kind)
	require.NoError(t, err)
	require.Len(t, summary.Entries, 1)
	assert.Equal(t, domain.EarningKindContestWin, summary.Entries[0].Kind)

	status := domain.EarningStatusCompleted
	summary, err = svc.Summary(ctx, designer.ID, &status, nil)
	require.NoError(t, err)
	assert.Empty(t, summary.Entries)
}

func advanceToCompleted(t *testing.T, db *sql.DB, earnings *repository.EarningsRepository, id uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, earnings.Transition(ctx, tx, id, domain.EarningStatusPending, domain.EarningStatusProcessing))
	require.NoError(t, earnings.Transition(ctx, tx, id, domain.EarningStatusProcessing, domain.EarningStatusCompleted))
	require.NoError(t, tx.Commit())
}
