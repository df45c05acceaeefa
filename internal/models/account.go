// Package models contains the domain structures of the access lifecycle:
// the persisted account record with its trial and payment fields, and the
// ephemeral payment types exchanged with the gateway.
package models

import "time"

// Account statuses. The stored status is a display cache of the access
// policy result, never the source of truth for an access decision.
const (
	StatusUnregistered = "unregistered"
	StatusTrial        = "trial"
	StatusTrialEnded   = "trial_ended"
	StatusPaid         = "paid"
)

// Account represents one registered user of the service.
//
// TrialStartedAt and TrialEndsAt are nil until the first successful identity
// verification and are always set together. The payment fields are written
// only by the webhook processor.
type Account struct {
	UID                   string     // Account identifier, assigned at creation
	PhoneNumber           string     // Mandatory unique identity key
	Email                 *string    // Optional, unique when present
	CredentialHash        []byte     // Present iff a password was set
	CredentialSalt        []byte     // Present iff a password was set
	Status                string     // Cached view of the last access evaluation
	TrialStartedAt        *time.Time // Start of the 48h trial window
	TrialEndsAt           *time.Time // End of the 48h trial window
	LastPaymentAt         *time.Time // Instant of the last confirmed payment
	SubscriptionPaidUntil *time.Time // End of the paid subscription window
	PaymentReference      *string    // Reference of the last applied payment
	AmountPaidMinorUnits  *int64     // Amount of the last applied payment
}

// HasTrial reports whether the trial window was ever activated.
func (a *Account) HasTrial() bool {
	return a.TrialStartedAt != nil && a.TrialEndsAt != nil
}
