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
	"github.com/crowdcanvas/crowdcanvas-backend/internal/service/settlement"
)

type settlementService interface {
	Withdraw(ctx context.Context, req settlement.WithdrawRequest) (*settlement.WithdrawResult, error)
	GetWithdrawalForDesigner(ctx context.Context, withdrawalID, designerID uuid.UUID) (*domain.Withdrawal, []domain.LedgerEntry, error)
	ListWithdrawals(ctx context.Context, designerID uuid.UUID) ([]domain.Withdrawal, error)
}

type WithdrawalHandler struct {
	settlements settlementService
}

func NewWithdrawalHandler(settlements settlementService) *WithdrawalHandler {
	return &WithdrawalHandler{settlements: settlements}
}

type withdrawRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type withdrawalDTO struct {
	ID              uuid.UUID       `json:"id"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	TotalMoved      decimal.Decimal `json:"total_moved"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toWithdrawalDTO(w *domain.Withdrawal) withdrawalDTO {
	return withdrawalDTO{
		ID:              w.ID,
		RequestedAmount: w.RequestedAmount,
		TotalMoved:      w.TotalMoved,
		Status:          string(w.Status),
		CreatedAt:       w.CreatedAt,
	}
}

type withdrawalDetailDTO struct {
	withdrawalDTO
	Entries []ledgerEntryDTO `json:"entries"`
}

// Create handles POST /api/v1/designers/{id}/withdrawals.
func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	designerID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	result, err := h.settlements.Withdraw(r.Context(), settlement.WithdrawRequest{
		DesignerID: designerID,
		Amount:     req.Amount,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("withdrawal rejected",
			"designer_id", designerID,
			"amount", req.Amount,
			"error", err,
		)
		RespondDomainError(w, err)
		return
	}

	dto := withdrawalDetailDTO{
		withdrawalDTO: toWithdrawalDTO(result.Withdrawal),
		Entries:       make([]ledgerEntryDTO, len(result.Entries)),
	}
	for i := range result.Entries {
		dto.Entries[i] = toLedgerEntryDTO(&result.Entries[i])
	}

	RespondSuccess(w, http.StatusCreated, dto)
}

// GetByID handles GET /api/v1/designers/{id}/withdrawals/{withdrawal_id}.
func (h *WithdrawalHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	designerID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	withdrawalID, err := uuid.Parse(r.PathValue("withdrawal_id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	withdrawal, entries, err := h.settlements.GetWithdrawalForDesigner(r.Context(), withdrawalID, designerID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dto := withdrawalDetailDTO{
		withdrawalDTO: toWithdrawalDTO(withdrawal),
		Entries:       make([]ledgerEntryDTO, len(entries)),
	}
	for i := range entries {
		dto.Entries[i] = toLedgerEntryDTO(&entries[i])
	}

	RespondSuccess(w, http.StatusOK, dto)
}

// List handles GET /api/v1/designers/{id}/withdrawals.
func (h *WithdrawalHandler) List(w http.ResponseWriter, r *http.Request) {
	designerID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	withdrawals, err := h.settlements.ListWithdrawals(r.Context(), designerID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list withdrawals", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]withdrawalDTO, len(withdrawals))
	for i := range withdrawals {
		dtos[i] = toWithdrawalDTO(&withdrawals[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}
