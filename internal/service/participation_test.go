package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/repository"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/service"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/testutil"
)

func setupParticipationService(t *testing.T, db *sql.DB) *service.ParticipationService {
	t.Helper()
	return service.NewParticipationService(
		repository.NewContestRepository(db),
		repository.NewUserRepository(db),
		repository.NewEarningsRepository(db),
		db,
	)
}

func TestRecordSubmission_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupParticipationService(t, db)
	ctx := context.Background()

	client := testutil.SeedClient(t, db, "client@test.com", "Client")
	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	contest := testutil.SeedContest(t, db, client.ID, "Logo redesign", decimal.RequireFromString("500"), domain.ContestStatusOpen)

	entry, err := svc.RecordSubmission(ctx, contest.ID, designer.ID)

	require.NoError(t, err)
	assert.Equal(t, contest.ID, entry.ContestID)
	assert.Equal(t, designer.ID, entry.DesignerID)
	assert.False(t, entry.IsWinner)
	assert.Equal(t, int64(1), testutil.GetSubmissionCount(t, db, designer.ID))
}

func TestRecordSubmission_DuplicateRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupParticipationService(t, db)
	ctx := context.Background()

	client := testutil.SeedClient(t, db, "client@test.com", "Client")
	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	contest := testutil.SeedContest(t, db, client.ID, "Logo redesign", decimal.RequireFromString("500"), domain.ContestStatusOpen)

	_, err := svc.RecordSubmission(ctx, contest.ID, designer.ID)
	require.NoError(t, err)

	_, err = svc.RecordSubmission(ctx, contest.ID, designer.ID)
	require.ErrorIs(t, err, domain.ErrDuplicateSubmission)

	// Counter untouched by the rejected attempt.
	assert.Equal(t, int64(1), testutil.GetSubmissionCount(t, db, designer.ID))
}

func TestRecordSubmission_ContestNotOpen(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupParticipationService(t, db)
	ctx := context.Background()

	client := testutil.SeedClient(t, db, "client@test.com", "Client")
	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	contest := testutil.SeedContest(t, db, client.ID, "Closed contest", decimal.RequireFromString("500"), domain.ContestStatusResolved)

	_, err := svc.RecordSubmission(ctx, contest.ID, designer.ID)
	require.ErrorIs(t, err, domain.ErrContestNotOpen)
	assert.Equal(t, int64(0), testutil.GetSubmissionCount(t, db, designer.ID))
}

func TestConfirmWinner_CreditsPrizeOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupParticipationService(t, db)
	ctx := context.Background()

	client := testutil.SeedClient(t, db, "client@test.com", "Client")
	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	contest := testutil.SeedContest(t, db, client.ID, "Logo redesign", decimal.RequireFromString("500"), domain.ContestStatusOpen)

	_, err := svc.RecordSubmission(ctx, contest.ID, designer.ID)
	require.NoError(t, err)

	prize, err := svc.ConfirmWinner(ctx, contest.ID, designer.ID, client.ID)
	require.NoError(t, err)
	require.NotNil(t, prize)
	assert.Equal(t, domain.EarningKindContestWin, prize.Kind)
	assert.Equal(t, domain.EarningStatusPending, prize.Status)
	assert.True(t, prize.Amount.Equal(decimal.RequireFromString("500")))
	require.NotNil(t, prize.ContestID)
	assert.Equal(t, contest.ID, *prize.ContestID)

	// Repeat confirmation is a no-op, not a second credit.
	repeat, err := svc.ConfirmWinner(ctx, contest.ID, designer.ID, client.ID)
	require.NoError(t, err)
	assert.Nil(t, repeat)

	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, designer.ID, domain.EarningKindContestWin))
}

func TestConfirmWinner_OnlyContestOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupParticipationService(t, db)
	ctx := context.Background()

	client := testutil.SeedClient(t, db, "client@test.com", "Client")
	otherClient := testutil.SeedClient(t, db, "other@test.com", "Other")
	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	contest := testutil.SeedContest(t, db, client.ID, "Logo redesign", decimal.RequireFromString("500"), domain.ContestStatusOpen)

	_, err := svc.RecordSubmission(ctx, contest.ID, designer.ID)
	require.NoError(t, err)

	_, err = svc.ConfirmWinner(ctx, contest.ID, designer.ID, otherClient.ID)
	require.ErrorIs(t, err, domain.ErrNotContestOwner)
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, db, designer.ID, domain.EarningKindContestWin))
}

func TestConfirmWinner_RequiresSubmission(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupParticipationService(t, db)
	ctx := context.Background()

	client := testutil.SeedClient(t, db, "client@test.com", "Client")
	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	contest := testutil.SeedContest(t, db, client.ID, "Logo redesign", decimal.RequireFromString("500"), domain.ContestStatusOpen)

	_, err := svc.ConfirmWinner(ctx, contest.ID, designer.ID, client.ID)
	require.ErrorIs(t, err, domain.ErrNoSubmission)
}

func TestMarkFinalist_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupParticipationService(t, db)
	ctx := context.Background()

	client := testutil.SeedClient(t, db, "client@test.com", "Client")
	designer := testutil.SeedDesigner(t, db, "designer@test.com", "Designer")
	contest := testutil.SeedContest(t, db, client.ID, "Logo redesign", decimal.RequireFromString("500"), domain.ContestStatusOpen)

	_, err := svc.RecordSubmission(ctx, contest.ID, designer.ID)
	require.NoError(t, err)

	marked, err := svc.MarkFinalist(ctx, contest.ID, designer.ID, client.ID)
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = svc.MarkFinalist(ctx, contest.ID, designer.ID, client.ID)
	require.NoError(t, err)
	assert.False(t, marked)
}
