package payment

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}

// CheckoutCompletedInput carries the fields acted on when a checkout session
// completes on the card processor.
type CheckoutCompletedInput struct {
	CheckoutSessionID string
	SessionPublicID   string
	PackID            string
	PaymentIntentID   string
	PaymentStatus     string
	AmountCents       int64
	Currency          string
}

// MvolaCallbackInput carries the fields acted on when the mobile-money
// gateway confirms or rejects a transaction.
type MvolaCallbackInput struct {
	CorrelationID  string
	Status         string
	TransactionRef string
}
