// Package access derives the current access decision for an account.
//
// The decision is a pure function of the account record and the wall-clock
// instant passed in by the caller. The stored account status is deliberately
// ignored here: it is a display cache written after evaluation, and letting
// it participate in the decision is exactly the drift bug this package exists
// to prevent. Evaluation is O(1) and does no I/O, so it is safe to run on
// every access check from any number of concurrent callers.
package access

import (
	"time"

	"github.com/magabrotheeeer/premium-access/internal/models"
)

// Decision is the tri-state outcome of an access evaluation.
type Decision string

const (
	// DecisionGranted means the account holds an active paid subscription.
	DecisionGranted Decision = "granted"
	// DecisionTrial means access is granted under the free trial window.
	DecisionTrial Decision = "trial"
	// DecisionLocked means no trial or subscription covers the instant.
	DecisionLocked Decision = "locked"
)

// Allowed reports whether the decision grants access to premium content.
func (d Decision) Allowed() bool {
	return d == DecisionGranted || d == DecisionTrial
}

// Result carries the decision together with the status it derives, which
// callers persist back to the record as the display cache.
type Result struct {
	Decision Decision
	Status   string
}

// Evaluate computes the access decision for rec at now.
//
// The rules are ordered: an active paid subscription wins over everything,
// then an unexpired trial (the boundary instant is still inside the trial),
// then a trial that was activated but has passed, and finally an account
// whose trial was never armed. A lapsed subscription has no state of its
// own; once SubscriptionPaidUntil passes, rule 1 stops matching and the
// record collapses to the same locked state that ends a trial.
func Evaluate(rec *models.Account, now time.Time) Result {
	switch {
	case rec.SubscriptionPaidUntil != nil && now.Before(*rec.SubscriptionPaidUntil):
		return Result{Decision: DecisionGranted, Status: models.StatusPaid}
	case rec.TrialEndsAt != nil && !now.After(*rec.TrialEndsAt):
		return Result{Decision: DecisionTrial, Status: models.StatusTrial}
	case rec.TrialStartedAt != nil:
		return Result{Decision: DecisionLocked, Status: models.StatusTrialEnded}
	default:
		return Result{Decision: DecisionLocked, Status: models.StatusUnregistered}
	}
}
