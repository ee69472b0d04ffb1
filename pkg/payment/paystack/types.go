package paystack

import "time"

// InitializeRequest starts a checkout session for a transaction.
// Amount is in the currency subunit (kobo for NGN).
type InitializeRequest struct {
	Email       string                 `json:"email"`
	Amount      int64                  `json:"amount"`
	Reference   string                 `json:"reference"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// InitializeResponse is the payload of a successful initialize call.
type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// TransactionData describes a transaction as reported by verify calls and
// webhook events.
type TransactionData struct {
	ID        int64      `json:"id"`
	Status    string     `json:"status"`
	Reference string     `json:"reference"`
	Amount    int64      `json:"amount"`
	Channel   string     `json:"channel"`
	Currency  string     `json:"currency"`
	PaidAt    *time.Time `json:"paid_at"`
}

// WebhookEvent is the envelope Paystack posts to the webhook endpoint.
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  TransactionData `json:"data"`
}

const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"

	TransactionSuccess = "success"
	TransactionFailed  = "failed"
)

// apiEnvelope wraps every Paystack API response.
type apiEnvelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

type initializeEnvelope struct {
	apiEnvelope
	Data InitializeResponse `json:"data"`
}

type verifyEnvelope struct {
	apiEnvelope
	Data TransactionData `json:"data"`
}
