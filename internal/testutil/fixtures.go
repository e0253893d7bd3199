package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
)

func seedUser(t *testing.T, db *sql.DB, email, name string, role domain.UserRole) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		Status:       domain.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, name, password_hash, role, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.Status, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func SeedDesigner(t *testing.T, db *sql.DB, email, name string) *domain.User {
	t.Helper()
	return seedUser(t, db, email, name, domain.UserRoleDesigner)
}

func SeedClient(t *testing.T, db *sql.DB, email, name string) *domain.User {
	t.Helper()
	return seedUser(t, db, email, name, domain.UserRoleClient)
}

func SeedContest(t *testing.T, db *sql.DB, clientID uuid.UUID, title string, prize decimal.Decimal, status domain.ContestStatus) *domain.Contest {
	t.Helper()

	c := &domain.Contest{
		ID:          uuid.New(),
		ClientID:    clientID,
		Title:       title,
		PrizeAmount: prize,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO contests (id, client_id, title, prize_amount, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.ClientID, c.Title, c.PrizeAmount, c.Status, c.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed contest %s: %v", title, err)
	}
	return c
}

// SeedLedgerEntry inserts a pending entry with the given created_at so tests
// control settlement order explicitly.
func SeedLedgerEntry(t *testing.T, db *sql.DB, designerID uuid.UUID, amount decimal.Decimal, kind domain.EarningKind, createdAt time.Time) *domain.LedgerEntry {
	t.Helper()

	e := &domain.LedgerEntry{
		ID:         uuid.New(),
		DesignerID: designerID,
		Amount:     amount,
		Kind:       kind,
		Status:     domain.EarningStatusPending,
		CreatedAt:  createdAt,
	}

	_, err := db.Exec(
		`INSERT INTO earnings_ledger (id, designer_id, amount, kind, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.DesignerID, e.Amount, e.Kind, e.Status, e.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed ledger entry: %v", err)
	}
	return e
}

func GetEntryStatus(t *testing.T, db *sql.DB, entryID uuid.UUID) domain.EarningStatus {
	t.Helper()

	var status domain.EarningStatus
	err := db.QueryRow(`SELECT status FROM earnings_ledger WHERE id = $1`, entryID).Scan(&status)
	if err != nil {
		t.Fatalf("get entry status %s: %v", entryID, err)
	}
	return status
}

func GetEntryPaidAt(t *testing.T, db *sql.DB, entryID uuid.UUID) *time.Time {
	t.Helper()

	var paidAt sql.NullTime
	err := db.QueryRow(`SELECT paid_at FROM earnings_ledger WHERE id = $1`, entryID).Scan(&paidAt)
	if err != nil {
		t.Fatalf("get entry paid_at %s: %v", entryID, err)
	}
	if !paidAt.Valid {
		return nil
	}
	return &paidAt.Time
}

func CountLedgerEntries(t *testing.T, db *sql.DB, designerID uuid.UUID, kind domain.EarningKind) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM earnings_ledger WHERE designer_id = $1 AND kind = $2`,
		designerID, kind,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for designer %s: %v", designerID, err)
	}
	return count
}

func CountLedgerEvents(t *testing.T, db *sql.DB, entryID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_events WHERE entry_id = $1`, entryID).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger events for entry %s: %v", entryID, err)
	}
	return count
}

func GetSubmissionCount(t *testing.T, db *sql.DB, userID uuid.UUID) int64 {
	t.Helper()

	var count int64
	err := db.QueryRow(`SELECT submission_count FROM users WHERE id = $1`, userID).Scan(&count)
	if err != nil {
		t.Fatalf("get submission count %s: %v", userID, err)
	}
	return count
}
