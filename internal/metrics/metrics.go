// Package metrics registers the Prometheus counters of the access lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegistrationsTotal counts registration attempts by outcome
	// (created, conflict, error).
	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "premium_access_registrations_total",
		Help: "Registration attempts by outcome.",
	}, []string{"outcome"})

	// PaymentInitiationsTotal counts payment initiations by outcome (ok, failed).
	PaymentInitiationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "premium_access_payment_initiations_total",
		Help: "Payment initiations by outcome.",
	}, []string{"outcome"})

	// WebhooksAppliedTotal counts webhook events that extended a subscription.
	WebhooksAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "premium_access_webhooks_applied_total",
		Help: "Payment webhooks applied to an account.",
	})

	// WebhooksDuplicateTotal counts redelivered webhook events treated as no-ops.
	WebhooksDuplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "premium_access_webhooks_duplicate_total",
		Help: "Payment webhooks skipped because the reference was already applied.",
	})

	// WebhooksUnknownAccountTotal counts webhook events for accounts we do not know.
	WebhooksUnknownAccountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "premium_access_webhooks_unknown_account_total",
		Help: "Payment webhooks dropped because the account was not found.",
	})
)
