package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com/v1"

// Stripe event types acted on by the webhook receiver.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventCheckoutSessionExpired   = "checkout.session.expired"
	EventPaymentIntentFailed      = "payment_intent.payment_failed"
)

// StripeClient is a minimal client for the checkout/webhook surface we use.
type StripeClient struct {
	SecretKey     string
	WebhookSecret string
	APIBaseURL    string

	HTTPClient *http.Client
}

// CheckoutParams describe one checkout session to create.
type CheckoutParams struct {
	PriceID         string
	SessionPublicID string
	PackID          string
	CustomerEmail   string
	SuccessURL      string
	CancelURL       string
}

// CheckoutSession is the processor-side checkout object.
type CheckoutSession struct {
	ID                string          `json:"id"`
	URL               string          `json:"url"`
	ClientReferenceID string          `json:"client_reference_id"`
	PaymentIntent     string          `json:"payment_intent"`
	PaymentStatus     string          `json:"payment_status"`
	AmountTotal       int64           `json:"amount_total"`
	Currency          string          `json:"currency"`
	Metadata          CheckoutMeta    `json:"metadata"`
	Raw               json.RawMessage `json:"-"`
}

// CheckoutMeta is the metadata we attach to every checkout session.
type CheckoutMeta struct {
	SessionID string `json:"sessionId"`
	PackID    string `json:"packId"`
}

// Event is the envelope of a processor webhook delivery.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

func NewStripeClientFromEnv() *StripeClient {
	return &StripeClient{
		SecretKey:     strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		WebhookSecret: strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
		APIBaseURL:    strings.TrimSpace(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreateCheckoutSession creates a hosted checkout session for one pack.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is not configured")
	}
	if p.PriceID == "" || p.SessionPublicID == "" || p.PackID == "" {
		return nil, errors.New("price, session and pack are required")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][price]", p.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("client_reference_id", p.SessionPublicID)
	form.Set("metadata[sessionId]", p.SessionPublicID)
	form.Set("metadata[packId]", p.PackID)
	if p.CustomerEmail != "" {
		form.Set("customer_email", p.CustomerEmail)
	}
	if p.SuccessURL != "" {
		form.Set("success_url", p.SuccessURL)
	}
	if p.CancelURL != "" {
		form.Set("cancel_url", p.CancelURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("checkout session creation failed (%d): %s", resp.StatusCode, parseStripeError(body))
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("invalid checkout session response: %w", err)
	}
	session.Raw = body
	return &session, nil
}

// ParseEvent decodes a webhook envelope.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, errors.New("webhook payload missing id or type")
	}
	return &event, nil
}

// ParseCheckoutSession decodes the checkout session object of an event.
// The original session id travels in client_reference_id with a fallback to
// metadata.sessionId.
func ParseCheckoutSession(object json.RawMessage) (*CheckoutSession, error) {
	var session CheckoutSession
	if err := json.Unmarshal(object, &session); err != nil {
		return nil, fmt.Errorf("invalid checkout session object: %w", err)
	}
	if session.ClientReferenceID == "" {
		session.ClientReferenceID = session.Metadata.SessionID
	}
	if session.ClientReferenceID == "" {
		return nil, errors.New("checkout session carries no session reference")
	}
	session.Raw = object
	return &session, nil
}

func parseStripeError(body []byte) string {
	var wrapper struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error.Message != "" {
		return fmt.Sprintf("%s (%s)", wrapper.Error.Message, wrapper.Error.Code)
	}
	return string(body)
}
