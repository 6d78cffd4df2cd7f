package actor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/env"
)

// Run status values reported by the actor platform.
const (
	RunStatusReady     = "READY"
	RunStatusRunning   = "RUNNING"
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusFailed    = "FAILED"
	RunStatusTimedOut  = "TIMED-OUT"
	RunStatusAborted   = "ABORTED"
)

// IsTerminalRunStatus reports whether the platform will not change the run
// status anymore.
func IsTerminalRunStatus(status string) bool {
	switch status {
	case RunStatusSucceeded, RunStatusFailed, RunStatusTimedOut, RunStatusAborted:
		return true
	}
	return false
}

// Run is the platform-side scraping job.
type Run struct {
	ID        string `json:"id"`
	ActorID   string `json:"actId"`
	Status    string `json:"status"`
	DatasetID string `json:"defaultDatasetId"`
}

// RunInput is the actor input for one extraction.
type RunInput struct {
	StartURL string `json:"startUrl"`
	MaxItems int    `json:"maxItems,omitempty"`
	// Incremental scrapes pass the newest post already delivered so the
	// actor can stop paging early.
	SincePostID string `json:"sincePostId,omitempty"`
}

// Client talks to the scraping-actor platform API.
type Client struct {
	http     *resty.Client
	token    string
	actorIDs map[string]string
}

// NewClientFromEnv builds a client from ACTOR_* environment variables.
func NewClientFromEnv() *Client {
	http := resty.New()
	http.SetBaseURL(env.GetEnv("ACTOR_API_BASE_URL", "https://api.apify.com/v2"))
	http.SetTimeout(30 * time.Second)

	return &Client{
		http:  http,
		token: env.GetEnv("ACTOR_API_TOKEN", ""),
		actorIDs: map[string]string{
			models.SERVICE_MARKETPLACE:       env.GetEnv("ACTOR_ID_MARKETPLACE", ""),
			models.SERVICE_FACEBOOK_POSTS:    env.GetEnv("ACTOR_ID_FACEBOOK_POSTS", ""),
			models.SERVICE_FACEBOOK_COMMENTS: env.GetEnv("ACTOR_ID_FACEBOOK_COMMENTS", ""),
		},
	}
}

// ActorIDFor resolves the configured actor for a service type.
func (c *Client) ActorIDFor(serviceType string) (string, error) {
	id := c.actorIDs[serviceType]
	if id == "" {
		return "", fmt.Errorf("no actor configured for service type %q", serviceType)
	}
	return id, nil
}

// StartRun starts an actor run for the given service type and input.
func (c *Client) StartRun(ctx context.Context, serviceType string, input RunInput) (*Run, error) {
	actorID, err := c.ActorIDFor(serviceType)
	if err != nil {
		return nil, err
	}

	var out struct {
		Data Run `json:"data"`
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token", c.token).
		SetHeader("Content-Type", "application/json").
		SetBody(input).
		SetResult(&out).
		Post(fmt.Sprintf("/acts/%s/runs", actorID))
	if err != nil {
		return nil, fmt.Errorf("failed to start actor run: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("actor platform returned %d: %s", res.StatusCode(), res.String())
	}
	return &out.Data, nil
}

// GetRun fetches the current state of a run.
func (c *Client) GetRun(ctx context.Context, runID string) (*Run, error) {
	var out struct {
		Data Run `json:"data"`
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token", c.token).
		SetResult(&out).
		Get(fmt.Sprintf("/actor-runs/%s", runID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch actor run %s: %w", runID, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("actor platform returned %d: %s", res.StatusCode(), res.String())
	}
	return &out.Data, nil
}

// ListDatasetItems pages through the run's dataset.
func (c *Client) ListDatasetItems(ctx context.Context, datasetID string, offset, limit int) ([]map[string]interface{}, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token", c.token).
		SetQueryParam("offset", fmt.Sprint(offset)).
		SetQueryParam("limit", fmt.Sprint(limit)).
		Get(fmt.Sprintf("/datasets/%s/items", datasetID))
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset items: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("actor platform returned %d: %s", res.StatusCode(), res.String())
	}

	var items []map[string]interface{}
	if err := json.Unmarshal(res.Body(), &items); err != nil {
		return nil, fmt.Errorf("failed to decode dataset items: %w", err)
	}
	return items, nil
}

// FetchAllItems drains the dataset up to maxItems.
func (c *Client) FetchAllItems(ctx context.Context, datasetID string, maxItems int) ([]map[string]interface{}, error) {
	const pageSize = 500

	var all []map[string]interface{}
	for offset := 0; maxItems <= 0 || len(all) < maxItems; offset += pageSize {
		page, err := c.ListDatasetItems(ctx, datasetID, offset, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			break
		}
	}
	if maxItems > 0 && len(all) > maxItems {
		all = all[:maxItems]
	}
	return all, nil
}
