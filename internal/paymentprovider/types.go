package paymentprovider

import "time"

// InitializeRequest is the payment initiation payload. The amount is always
// the server-side subscription price in minor currency units; the metadata
// carries the account identity so the confirmation webhook can be correlated.
type InitializeRequest struct {
	Amount      int64             `json:"amount"`
	Email       string            `json:"email"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CallbackURL string            `json:"callback_url"`
	Reference   string            `json:"reference"`
}

// InitializeResponse is the gateway's answer to an initiation request.
type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"` // checkout URL for the external browser flow
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyResponse is the gateway's answer to a transaction lookup.
type VerifyResponse struct {
	Status string    `json:"status"` // e.g. "success"
	Amount int64     `json:"amount"`
	PaidAt time.Time `json:"paid_at"`
}
