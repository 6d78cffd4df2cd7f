package payment

import (
	"context"
	"encoding/base64"
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

const defaultMvolaAPIBaseURL = "https://api.mvola.mg"

// Mvola transaction statuses delivered on the callback.
const (
	MvolaStatusCompleted = "completed"
	MvolaStatusFailed    = "failed"
	MvolaStatusPending   = "pending"
)

// MvolaClient talks to the MVola merchant payment API.
type MvolaClient struct {
	ConsumerKey    string
	ConsumerSecret string
	MerchantMSISDN string
	APIBaseURL     string
	CallbackURL    string

	HTTPClient *http.Client
}

// MvolaInitiateParams describe one merchant-pay request.
type MvolaInitiateParams struct {
	Amount         int64
	CustomerMSISDN string
	CorrelationID  string
	Description    string
}

// MvolaCallback is the gateway's asynchronous status notification.
type MvolaCallback struct {
	ServerCorrelationID  string `json:"serverCorrelationId"`
	TransactionStatus    string `json:"transactionStatus"`
	TransactionReference string `json:"transactionReference"`
}

func NewMvolaClientFromEnv() *MvolaClient {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	callback := strings.TrimSpace(env.GetEnv("MVOLA_CALLBACK_URL", ""))
	if callback == "" && base != "" {
		callback = base + "/api/payment/mvola/callback"
	}

	return &MvolaClient{
		ConsumerKey:    strings.TrimSpace(env.GetEnv("MVOLA_CONSUMER_KEY", "")),
		ConsumerSecret: strings.TrimSpace(env.GetEnv("MVOLA_CONSUMER_SECRET", "")),
		MerchantMSISDN: strings.TrimSpace(env.GetEnv("MVOLA_MERCHANT_MSISDN", "")),
		APIBaseURL:     strings.TrimSpace(env.GetEnv("MVOLA_API_BASE_URL", defaultMvolaAPIBaseURL)),
		CallbackURL:    callback,
		HTTPClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// GetToken fetches a client-credentials access token.
func (c *MvolaClient) GetToken(ctx context.Context) (string, error) {
	if c.ConsumerKey == "" || c.ConsumerSecret == "" {
		return "", errors.New("MVOLA_CONSUMER_KEY/MVOLA_CONSUMER_SECRET are not configured")
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", "EXT_INT_MVOLA_SCOPE")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.ConsumerKey + ":" + c.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mvola token request failed (%d): %s", resp.StatusCode, body)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &token); err != nil || token.AccessToken == "" {
		return "", errors.New("invalid mvola token response")
	}
	return token.AccessToken, nil
}

// InitiatePayment starts a merchant-pay transaction; the result arrives
// asynchronously on the callback URL.
func (c *MvolaClient) InitiatePayment(ctx context.Context, p MvolaInitiateParams) error {
	if p.Amount <= 0 || p.CustomerMSISDN == "" || p.CorrelationID == "" {
		return errors.New("amount, customer msisdn and correlation id are required")
	}

	token, err := c.GetToken(ctx)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"amount":        fmt.Sprint(p.Amount),
		"currency":      "Ar",
		"descriptionText": p.Description,
		"requestDate":   time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		"debitParty":    []map[string]string{{"key": "msisdn", "value": p.CustomerMSISDN}},
		"creditParty":   []map[string]string{{"key": "msisdn", "value": c.MerchantMSISDN}},
		"metadata":      []map[string]string{{"key": "partnerName", "value": "Testingfun"}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.APIBaseURL+"/mvola/mm/transactions/type/merchantpay/1.0.0/", strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CorrelationID", p.CorrelationID)
	req.Header.Set("X-Callback-URL", c.CallbackURL)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mvola initiate failed (%d): %s", resp.StatusCode, respBody)
	}
	return nil
}

// ParseMvolaCallback decodes and normalizes the callback body.
func ParseMvolaCallback(payload []byte) (*MvolaCallback, error) {
	var cb MvolaCallback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("invalid mvola callback payload: %w", err)
	}
	if cb.ServerCorrelationID == "" {
		return nil, errors.New("mvola callback missing serverCorrelationId")
	}
	cb.TransactionStatus = strings.ToLower(strings.TrimSpace(cb.TransactionStatus))
	return &cb, nil
}
