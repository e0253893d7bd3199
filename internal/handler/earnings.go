package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/logging"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/service"
)

type earningsService interface {
	Credit(ctx context.Context, req service.CreditRequest) (*domain.LedgerEntry, error)
	Summary(ctx context.Context, designerID uuid.UUID, status *domain.EarningStatus, kind *domain.EarningKind) (*service.EarningsSummary, error)
}

type EarningsHandler struct {
	earnings earningsService
}

func NewEarningsHandler(earnings earningsService) *EarningsHandler {
	return &EarningsHandler{earnings: earnings}
}

type ledgerEntryDTO struct {
	ID           uuid.UUID       `json:"id"`
	ContestID    *uuid.UUID      `json:"contest_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Kind         string          `json:"kind"`
	Status       string          `json:"status"`
	WithdrawalID *uuid.UUID      `json:"withdrawal_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
}

func toLedgerEntryDTO(e *domain.LedgerEntry) ledgerEntryDTO {
	return ledgerEntryDTO{
		ID:           e.ID,
		ContestID:    e.ContestID,
		Amount:       e.Amount,
		Kind:         string(e.Kind),
		Status:       string(e.Status),
		WithdrawalID: e.WithdrawalID,
		CreatedAt:    e.CreatedAt,
		PaidAt:       e.PaidAt,
	}
}

type earningsSummaryDTO struct {
	Entries         []ledgerEntryDTO `json:"entries"`
	TotalPending    decimal.Decimal  `json:"total_pending"`
	TotalProcessing decimal.Decimal  `json:"total_processing"`
	TotalCompleted  decimal.Decimal  `json:"total_completed"`
	ContestWins     int64            `json:"contest_wins"`
	PaidProjects    int64            `json:"paid_projects"`
}

type creditRequest struct {
	DesignerID string          `json:"designer_id"`
	ContestID  *string         `json:"contest_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Kind       string          `json:"kind"`
}

// Credit handles POST /api/v1/earnings: project payments, bonuses, and
// refunds credited outside the contest winner flow.
func (h *EarningsHandler) Credit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	designerID, err := uuid.Parse(req.DesignerID)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "designer_id", Message: "must be a valid UUID"}})
		return
	}

	var contestID *uuid.UUID
	if req.ContestID != nil {
		id, err := uuid.Parse(*req.ContestID)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "contest_id", Message: "must be a valid UUID"}})
			return
		}
		contestID = &id
	}

	entry, err := h.earnings.Credit(r.Context(), service.CreditRequest{
		DesignerID: designerID,
		ContestID:  contestID,
		Amount:     req.Amount,
		Kind:       domain.EarningKind(req.Kind),
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("credit rejected",
			"designer_id", designerID,
			"amount", req.Amount,
			"kind", req.Kind,
			"error", err,
		)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toLedgerEntryDTO(entry))
}

// Summary handles GET /api/v1/designers/{id}/earnings with optional status
// and kind query filters.
func (h *EarningsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	designerID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var status *domain.EarningStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.EarningStatus(s)
		if !st.IsValid() {
			RespondValidationError(w, []FieldError{{Field: "status", Message: "must be pending, processing, completed, or failed"}})
			return
		}
		status = &st
	}

	var kind *domain.EarningKind
	if k := r.URL.Query().Get("kind"); k != "" {
		kd := domain.EarningKind(k)
		if !kd.IsValid() {
			RespondValidationError(w, []FieldError{{Field: "kind", Message: "must be contest_win, project_payment, bonus, or refund"}})
			return
		}
		kind = &kd
	}

	summary, err := h.earnings.Summary(r.Context(), designerID, status, kind)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to build earnings summary", "error", err)
		RespondDomainError(w, err)
		return
	}

	dto := earningsSummaryDTO{
		Entries:         make([]ledgerEntryDTO, len(summary.Entries)),
		TotalPending:    summary.TotalPending,
		TotalProcessing: summary.TotalProcessing,
		TotalCompleted:  summary.TotalCompleted,
		ContestWins:     summary.ContestWins,
		PaidProjects:    summary.PaidProjects,
	}
	for i := range summary.Entries {
		dto.Entries[i] = toLedgerEntryDTO(&summary.Entries[i])
	}

	RespondSuccess(w, http.StatusOK, dto)
}
