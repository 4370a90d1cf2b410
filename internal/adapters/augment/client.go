package augment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/pacer/pkg/logger"
)

// Defaults for the completion request.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultTemperature = 0.4
	DefaultMaxTokens   = 250
	DefaultTimeout     = 30 * time.Second

	maxErrorBody = 512
)

// Client calls an OpenAI-compatible chat completions endpoint. It never
// retries: a failed call is reported once and the caller moves on.
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      logger.Logger
}

// NewClient creates a client. An empty apiKey yields an unconfigured client
// whose Augment always returns Skipped.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:      strings.TrimSpace(apiKey),
		model:       DefaultModel,
		baseURL:     DefaultBaseURL,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		logger:      logger.Get().Named("augment"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Model returns the model name.
func (c *Client) Model() string { return c.model }

// Augment runs the pipeline step. Missing credential or frame is a skip;
// every error becomes Failed and is never returned to the caller.
func (c *Client) Augment(ctx context.Context, r Request) Outcome {
	if !c.Configured() || r.Frame == nil || len(r.Frame.Data) == 0 {
		return Skipped()
	}
	text, err := c.Describe(ctx, r)
	if err != nil {
		c.logger.Warn(ctx, "augmentation failed, using heuristic feedback",
			logger.String("sport", r.Sport),
			logger.Error(err),
		)
		return Failed(reason(err))
	}
	return Succeeded(text)
}

// Describe performs one completion call and returns the first choice's text.
// Used directly by the probe endpoint, so it reports ErrNotConfigured.
func (c *Client) Describe(ctx context.Context, r Request) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, ErrRateLimited)
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    buildMessages(r),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %w", ErrUnavailable, err)
	}

	url := strings.TrimRight(c.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %w", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request failed: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: API error (%d): %s", ErrUnavailable, resp.StatusCode, truncate(string(raw), maxErrorBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: parse response: %w", ErrUnavailable, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices", ErrUnavailable)
	}

	c.logger.Debug(ctx, "completion received",
		logger.String("model", parsed.Model),
		logger.Int("prompt_tokens", parsed.Usage.PromptTokens),
		logger.Int("completion_tokens", parsed.Usage.CompletionTokens),
		logger.Duration("took", time.Since(start)),
	)
	return parsed.Choices[0].Message.Content, nil
}

// reason condenses an error into a short Failed reason.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate limited"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return err.Error()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
