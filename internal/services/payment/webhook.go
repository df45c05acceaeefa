package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/premium-access/internal/access"
	"github.com/magabrotheeeer/premium-access/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/premium-access/internal/lib/sl"
	"github.com/magabrotheeeer/premium-access/internal/metrics"
	"github.com/magabrotheeeer/premium-access/internal/models"
	accesssvc "github.com/magabrotheeeer/premium-access/internal/services/access"
	"github.com/magabrotheeeer/premium-access/internal/storage/repository"
)

// SubscriptionPeriod is the fixed length of one paid subscription. Each
// successful payment buys exactly this window from paidAt; it is not
// cumulative with any unexpired trial remainder.
const SubscriptionPeriod = 7 * 24 * time.Hour

// PaymentAppliedEvent is what downstream consumers receive after a payment
// extends a subscription.
type PaymentAppliedEvent struct {
	AccountUID       string    `json:"account_uid"`
	Reference        string    `json:"reference"`
	AmountMinorUnits int64     `json:"amount_minor_units"`
	PaidAt           time.Time `json:"paid_at"`
	PaidUntil        time.Time `json:"paid_until"`
}

// ApplyWebhook applies a verified payment confirmation to the account.
//
// Redelivery of a reference that was already applied is a defined no-op
// success: the stored reference is compared under the account row lock and
// the subscription window stays untouched. An unknown account surfaces
// repository.ErrAccountNotFound so the delivery mechanism can retry per its
// own policy; this processor never retries internally. Signature checking
// of the inbound payload happened before this point.
func (s *Service) ApplyWebhook(ctx context.Context, ev models.WebhookEvent) error {
	const op = "payment.ApplyWebhook"

	account, err := s.repo.GetAccount(ctx, ev.AccountUID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			metrics.WebhooksUnknownAccountTotal.Inc()
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	paidUntil := ev.PaidAt.Add(SubscriptionPeriod)

	// Re-derive the display status through the access policy with the new
	// payment fields in place instead of hard-coding "paid". The next access
	// check refreshes the cache column again against its own instant.
	projected := *account
	projected.LastPaymentAt = &ev.PaidAt
	projected.SubscriptionPaidUntil = &paidUntil
	status := access.Evaluate(&projected, ev.PaidAt).Status

	applied, err := s.repo.ApplyPayment(ctx, ev.AccountUID, ev.Reference,
		ev.AmountMinorUnits, ev.PaidAt, paidUntil, status)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			metrics.WebhooksUnknownAccountTotal.Inc()
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if !applied {
		metrics.WebhooksDuplicateTotal.Inc()
		s.log.Info("duplicate webhook reference, subscription unchanged",
			slog.String("account_uid", ev.AccountUID),
			slog.String("reference", ev.Reference))
		return nil
	}

	metrics.WebhooksAppliedTotal.Inc()
	s.log.Info("payment applied",
		slog.String("account_uid", ev.AccountUID),
		slog.String("reference", ev.Reference),
		slog.Time("paid_until", paidUntil))

	if err := s.cache.Invalidate(accesssvc.CacheKey(ev.AccountUID)); err != nil {
		s.log.Warn("account cache invalidation failed", sl.Err(err))
	}

	event := PaymentAppliedEvent{
		AccountUID:       ev.AccountUID,
		Reference:        ev.Reference,
		AmountMinorUnits: ev.AmountMinorUnits,
		PaidAt:           ev.PaidAt,
		PaidUntil:        paidUntil,
	}
	if err := s.publisher.Publish(rabbitmq.RoutingKeyPaymentApplied, event); err != nil {
		s.log.Warn("payment event publish failed", sl.Err(err))
	}

	return nil
}
