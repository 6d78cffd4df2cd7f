package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/actor"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/env"
)

const DefaultModel = "openai/gpt-4o-mini"

// Up to this many items are inlined into the analysis prompt; beyond that the
// sample is cut to keep the request inside context limits.
const maxItemsPerPrompt = 200

// AnalysisResult is the stored outcome of one LLM analysis run.
type AnalysisResult struct {
	Model            string `json:"model"`
	Summary          string `json:"summary"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// Client talks to the LLM gateway (OpenAI-compatible chat completions).
type Client struct {
	http   *resty.Client
	apiKey string
}

// NewClientFromEnv builds a client from LLM_* environment variables.
func NewClientFromEnv() *Client {
	http := resty.New()
	http.SetBaseURL(env.GetEnv("LLM_GATEWAY_URL", "https://openrouter.ai/api/v1"))
	http.SetTimeout(120 * time.Second)

	return &Client{
		http:   http,
		apiKey: env.GetEnv("LLM_API_KEY", ""),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// AnalyzeItems asks the model to analyze the scraped items with the user's
// prompt and returns the summary plus token usage.
func (c *Client) AnalyzeItems(ctx context.Context, model, prompt string, items []actor.ScrapedItem) (*AnalysisResult, error) {
	if c.apiKey == "" {
		return nil, errors.New("LLM_API_KEY is not configured")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("prompt is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if len(items) > maxItemsPerPrompt {
		items = items[:maxItemsPerPrompt]
	}

	sample, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	req := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: "You analyze structured marketplace and social-media data extracted for a business user. Answer in the language of the user's question.",
			},
			{
				Role:    "user",
				Content: fmt.Sprintf("%s\n\nData (JSON):\n%s", strings.TrimSpace(prompt), sample),
			},
		},
	}

	var out chatResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("LLM gateway request failed: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("LLM gateway returned %d: %s", res.StatusCode(), res.String())
	}
	if out.Error != nil {
		return nil, fmt.Errorf("LLM gateway error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("LLM gateway returned no choices")
	}

	return &AnalysisResult{
		Model:            model,
		Summary:          out.Choices[0].Message.Content,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
	}, nil
}
