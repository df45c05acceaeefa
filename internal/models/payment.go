package models

import "time"

// PaymentIntent is the result of a payment initiation. It is handed to the
// client for the external checkout flow and is not persisted by this service;
// the gateway owns its state until the confirmation webhook arrives.
type PaymentIntent struct {
	Reference        string `json:"reference"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
	CheckoutURL      string `json:"checkout_url"`
}

// WebhookEvent is a verified payment confirmation handed to the webhook
// processor. AccountUID comes from the gateway metadata set at initiation.
type WebhookEvent struct {
	AccountUID       string
	Reference        string
	AmountMinorUnits int64
	PaidAt           time.Time
}
