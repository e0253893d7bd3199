package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/logging"
)

// Stand-in for the payout provider: accepts payout requests and calls the
// API's webhook back with a signed confirmation after a short delay. Requests
// with simulate=failed get a failure callback instead.

type payoutRequest struct {
	EntryID  string `json:"entry_id"`
	Amount   string `json:"amount"`
	Simulate string `json:"simulate,omitempty"`
}

type callbackPayload struct {
	EventID     string `json:"event_id"`
	EntryID     string `json:"entry_id"`
	Status      string `json:"status"`
	ProviderRef string `json:"provider_ref,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Timestamp   string `json:"timestamp"`
}

func main() {
	logging.Init("mock-provider", "info", os.Getenv("APP_ENV"))

	secret := os.Getenv("WEBHOOK_SECRET")
	callbackURL := os.Getenv("WEBHOOK_CALLBACK_URL")
	if callbackURL == "" {
		callbackURL = "http://app:8080/api/v1/webhooks/payouts"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})

	mux.HandleFunc("POST /payouts", func(w http.ResponseWriter, r *http.Request) {
		var req payoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		ref := uuid.New().String()
		go func() {
			time.Sleep(2 * time.Second)
			sendCallback(callbackURL, secret, req, ref)
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		if err := json.NewEncoder(w).Encode(map[string]string{"provider_ref": ref, "status": "accepted"}); err != nil {
			slog.Error("failed to write payout response", "error", err)
		}
	})

	slog.Info("mock provider started", "addr", ":8081", "callback_url", callbackURL)
	if err := http.ListenAndServe(":8081", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func sendCallback(url, secret string, req payoutRequest, ref string) {
	payload := callbackPayload{
		EventID:     uuid.New().String(),
		EntryID:     req.EntryID,
		Status:      "completed",
		ProviderRef: ref,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if req.Simulate == "failed" {
		payload.Status = "failed"
		payload.Reason = "simulated provider failure"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal callback", "error", err)
		return
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		slog.Error("failed to build callback request", "error", err)
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Webhook-Signature", sig)

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		slog.Error("callback delivery failed", "error", err, "entry_id", req.EntryID)
		return
	}
	defer resp.Body.Close()

	slog.Info("callback delivered",
		"entry_id", req.EntryID,
		"status", payload.Status,
		"response_status", resp.StatusCode,
	)
}
