package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/domain"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/logging"
)

type payoutEventStore interface {
	Create(ctx context.Context, event *domain.PayoutEvent) error
}

// WebhookHandler receives payout confirmations from the payment provider and
// queues them for the background processor. Responds fast; the ledger work
// happens out of band.
type WebhookHandler struct {
	payouts payoutEventStore
	secret  string
}

func NewWebhookHandler(payouts payoutEventStore, secret string) *WebhookHandler {
	return &WebhookHandler{payouts: payouts, secret: secret}
}

type payoutPayload struct {
	EventID     string `json:"event_id"`
	EntryID     string `json:"entry_id"`
	Status      string `json:"status"`
	ProviderRef string `json:"provider_ref,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Timestamp   string `json:"timestamp"`
}

func (p payoutPayload) validate() []FieldError {
	var errs []FieldError

	if p.EventID == "" {
		errs = append(errs, FieldError{Field: "event_id", Message: "required"})
	} else if _, err := uuid.Parse(p.EventID); err != nil {
		errs = append(errs, FieldError{Field: "event_id", Message: "must be a valid UUID"})
	}

	if p.EntryID == "" {
		errs = append(errs, FieldError{Field: "entry_id", Message: "required"})
	} else if _, err := uuid.Parse(p.EntryID); err != nil {
		errs = append(errs, FieldError{Field: "entry_id", Message: "must be a valid UUID"})
	}

	if p.Status == "" {
		errs = append(errs, FieldError{Field: "status", Message: "required"})
	} else if p.Status != "completed" && p.Status != "failed" {
		errs = append(errs, FieldError{Field: "status", Message: "must be completed or failed"})
	}

	return errs
}

func (p payoutPayload) eventType() domain.PayoutEventType {
	if p.Status == "completed" {
		return domain.PayoutEventTypeCompleted
	}
	return domain.PayoutEventTypeFailed
}

var ErrInvalidSignature = &AppError{http.StatusUnauthorized, "INVALID_SIGNATURE", "Webhook signature is invalid"}

func (h *WebhookHandler) ReceivePayoutWebhook(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		log.Error("failed to read webhook body", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	sig := r.Header.Get("X-Webhook-Signature")
	if !verifyHMAC(body, sig, h.secret) {
		log.Warn("webhook signature verification failed")
		RespondAppError(w, ErrInvalidSignature, nil)
		return
	}

	var payload payoutPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Warn("failed to parse webhook payload", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := payload.validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	event := &domain.PayoutEvent{
		ID:             uuid.New(),
		IdempotencyKey: payload.EventID,
		EventType:      payload.eventType(),
		Payload:        body,
		Status:         domain.PayoutEventStatusPending,
		CreatedAt:      time.Now().UTC(),
	}

	if err := h.payouts.Create(r.Context(), event); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdempotency) {
			log.Info("duplicate webhook received", "event_id", payload.EventID, "entry_id", payload.EntryID)
			RespondSuccess(w, http.StatusOK, map[string]string{"status": "already_received"})
			return
		}
		log.Error("failed to store payout event", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	log.Info("payout event stored",
		"payout_event_id", event.ID,
		"provider_event_id", payload.EventID,
		"entry_id", payload.EntryID,
		"event_type", event.EventType,
	)

	RespondSuccess(w, http.StatusOK, map[string]string{"status": "received"})
}

func verifyHMAC(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
