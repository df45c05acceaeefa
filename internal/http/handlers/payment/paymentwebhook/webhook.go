// Package paymentwebhook receives payment confirmations from the gateway.
package paymentwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/premium-access/internal/lib/sl"
	"github.com/magabrotheeeer/premium-access/internal/models"
	"github.com/magabrotheeeer/premium-access/internal/storage/repository"
)

// EventPaymentSuccess is the only gateway event that changes account state.
const EventPaymentSuccess = "payment.success"

type Service interface {
	ApplyWebhook(ctx context.Context, ev models.WebhookEvent) error
}

type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// Payload mirrors the gateway webhook body.
type Payload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string            `json:"reference"`
		Amount    int64             `json:"amount"`
		PaidAt    time.Time         `json:"paid_at"`
		Metadata  map[string]string `json:"metadata"`
	} `json:"data"`
}

// verifySignature checks the X-Api-Signature header against an HMAC-SHA256
// of the raw body.
func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ServeHTTP godoc
// @Summary Payment webhook
// @Description Applies a confirmed payment to the account. Repeated deliveries of the same reference are no-ops.
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 "Applied or already applied"
// @Failure 401 "Bad signature"
// @Failure 404 "Unknown account"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Api-Signature")
	if signature == "" || !h.verifySignature(body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !strings.EqualFold(payload.Event, EventPaymentSuccess) {
		log.Info("ignored webhook event", slog.String("event", payload.Event))
		w.WriteHeader(http.StatusOK)
		return
	}

	accountUID := payload.Data.Metadata["user_id"]
	if accountUID == "" || payload.Data.Reference == "" {
		log.Error("webhook payload missing reference or account id")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ev := models.WebhookEvent{
		AccountUID:       accountUID,
		Reference:        payload.Data.Reference,
		AmountMinorUnits: payload.Data.Amount,
		PaidAt:           payload.Data.PaidAt.UTC(),
	}
	if err := h.service.ApplyWebhook(r.Context(), ev); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			log.Error("webhook for unknown account", slog.String("account_uid", accountUID))
			w.WriteHeader(http.StatusNotFound)
			return
		}
		log.Error("failed to apply webhook", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	log.Info("webhook processed",
		slog.String("event", payload.Event),
		slog.String("reference", payload.Data.Reference))
	w.WriteHeader(http.StatusOK)
}
