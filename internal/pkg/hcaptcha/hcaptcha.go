package hcaptcha

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/env"
)

// Client verifies hCaptcha challenge tokens against the siteverify API.
// Registration is the only captcha-gated flow.
type Client struct {
	http   *resty.Client
	secret string
}

// NewClient builds a client for the given verification endpoint.
func NewClient(baseURL, secret string) *Client {
	http := resty.New()
	http.SetBaseURL(baseURL)
	http.SetTimeout(10 * time.Second)

	return &Client{http: http, secret: secret}
}

// NewClientFromEnv builds a client from HCAPTCHA_* environment variables.
func NewClientFromEnv() *Client {
	return NewClient(
		env.GetEnv("HCAPTCHA_VERIFY_URL", "https://api.hcaptcha.com"),
		env.GetEnv("HCAPTCHA_SECRET", ""),
	)
}

type verifyResponse struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Verify checks one challenge token. It returns false with an error naming
// the rejection codes when the API declines the token.
func (c *Client) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, errors.New("captcha token is empty")
	}
	if c.secret == "" {
		return false, errors.New("captcha secret is not configured")
	}

	var out verifyResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"secret":   c.secret,
			"response": token,
		}).
		SetResult(&out).
		Post("/siteverify")
	if err != nil {
		return false, fmt.Errorf("failed to reach captcha API: %w", err)
	}
	if res.IsError() {
		return false, fmt.Errorf("captcha API returned %d: %s", res.StatusCode(), res.String())
	}

	if !out.Success {
		if len(out.ErrorCodes) > 0 {
			return false, fmt.Errorf("captcha rejected: %s", strings.Join(out.ErrorCodes, ", "))
		}
		return false, errors.New("captcha rejected")
	}
	return true, nil
}

// Verify checks a token with a client built from the environment.
func Verify(ctx context.Context, token string) (bool, error) {
	return NewClientFromEnv().Verify(ctx, token)
}
