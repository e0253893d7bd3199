package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/auth"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/logging"
)

type participationService interface {
	RecordSubmission(ctx context.Context, contestID, designerID uuid.UUID) (*domain.ContestEntry, error)
	ConfirmWinner(ctx context.Context, contestID, designerID, actorClientID uuid.UUID) (*domain.LedgerEntry, error)
	MarkFinalist(ctx context.Context, contestID, designerID, actorClientID uuid.UUID) (bool, error)
}

type SubmissionHandler struct {
	participation participationService
}

func NewSubmissionHandler(participation participationService) *SubmissionHandler {
	return &SubmissionHandler{participation: participation}
}

type contestEntryDTO struct {
	ID         uuid.UUID `json:"id"`
	ContestID  uuid.UUID `json:"contest_id"`
	DesignerID uuid.UUID `json:"designer_id"`
	IsWinner   bool      `json:"is_winner"`
	IsFinalist bool      `json:"is_finalist"`
	CreatedAt  time.Time `json:"created_at"`
}

func toContestEntryDTO(e *domain.ContestEntry) contestEntryDTO {
	return contestEntryDTO{
		ID:         e.ID,
		ContestID:  e.ContestID,
		DesignerID: e.DesignerID,
		IsWinner:   e.IsWinner,
		IsFinalist: e.IsFinalist,
		CreatedAt:  e.CreatedAt,
	}
}

// Submit handles POST /api/v1/contests/{contest_id}/entries. The entrant is
// always the authenticated user.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	designerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	contestID, err := uuid.Parse(r.PathValue("contest_id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	entry, err := h.participation.RecordSubmission(r.Context(), contestID, designerID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("submission rejected",
			"contest_id", contestID,
			"designer_id", designerID,
			"error", err,
		)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toContestEntryDTO(entry))
}

type designationRequest struct {
	DesignerID string `json:"designer_id"`
}

func (req designationRequest) parse() (uuid.UUID, []FieldError) {
	if req.DesignerID == "" {
		return uuid.Nil, []FieldError{{Field: "designer_id", Message: "required"}}
	}
	id, err := uuid.Parse(req.DesignerID)
	if err != nil {
		return uuid.Nil, []FieldError{{Field: "designer_id", Message: "must be a valid UUID"}}
	}
	return id, nil
}

// ConfirmWinner handles POST /api/v1/contests/{contest_id}/winner. Only the
// contest's client may call it; repeats are acknowledged without crediting a
// second prize.
func (h *SubmissionHandler) ConfirmWinner(w http.ResponseWriter, r *http.Request) {
	clientID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	contestID, err := uuid.Parse(r.PathValue("contest_id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req designationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	designerID, fields := req.parse()
	if fields != nil {
		RespondValidationError(w, fields)
		return
	}

	prize, err := h.participation.ConfirmWinner(r.Context(), contestID, designerID, clientID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("winner confirmation rejected",
			"contest_id", contestID,
			"designer_id", designerID,
			"error", err,
		)
		RespondDomainError(w, err)
		return
	}

	if prize == nil {
		RespondSuccess(w, http.StatusOK, map[string]string{"status": "already_confirmed"})
		return
	}

	RespondSuccess(w, http.StatusCreated, toLedgerEntryDTO(prize))
}

// MarkFinalist handles POST /api/v1/contests/{contest_id}/finalists.
func (h *SubmissionHandler) MarkFinalist(w http.ResponseWriter, r *http.Request) {
	clientID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	contestID, err := uuid.Parse(r.PathValue("contest_id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req designationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	designerID, fields := req.parse()
	if fields != nil {
		RespondValidationError(w, fields)
		return
	}

	newlyMarked, err := h.participation.MarkFinalist(r.Context(), contestID, designerID, clientID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	status := "marked"
	if !newlyMarked {
		status = "already_marked"
	}
	RespondSuccess(w, http.StatusOK, map[string]string{"status": status})
}
