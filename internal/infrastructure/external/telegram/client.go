// Package telegram implements a minimal Telegram Bot API wrapper used for
// ops alerting. The game itself never talks to Telegram; the worker and the
// sagas push system alerts (job failures, payment mismatches, Gemini
// outages) into the ops chat through this client.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/studygotchi/studygotchi-hub/pkg/circuitbreaker"
)

// ClientConfig contains configuration for the Telegram client.
type ClientConfig struct {
	// Token is the Telegram Bot API token.
	Token string

	// BaseURL overrides the API host, mainly for tests.
	BaseURL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RetryAttempts is how many times a transient failure is retried.
	RetryAttempts int

	// RetryDelay is the initial delay between retries, doubled each attempt.
	RetryDelay time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(token string) ClientConfig {
	return ClientConfig{
		Token:         token,
		BaseURL:       "https://api.telegram.org",
		Timeout:       10 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// Message is the part of a Telegram message the alerter cares about.
type Message struct {
	MessageID int64 `json:"message_id"`
	Date      int64 `json:"date"`
}

// APIError represents a Telegram API error.
type APIError struct {
	Code        int
	Description string

	// RetryAfter is set on 429 responses, in seconds.
	RetryAfter int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

// Client is the Telegram Bot API client.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	breaker    *circuitbreaker.CircuitBreaker
}

// NewClient creates a new Telegram client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.telegram.org"
	}

	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     config.Logger,
	}

	// Алерты - необязательный трафик. Когда Telegram лежит, круг
	// размыкается и вызовы отваливаются сразу, не задерживая воркер.
	c.breaker = circuitbreaker.New("telegram",
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		}),
	)

	return c
}

// SendText sends a plain text message to the chat.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) (*Message, error) {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}

	var msg Message
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.withRetry(ctx, "sendMessage", payload, &msg)
	})
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &msg, nil
}

// withRetry retries transient failures with doubling delay, honoring the
// server's retry_after on 429.
func (c *Client) withRetry(ctx context.Context, method string, payload map[string]interface{}, out interface{}) error {
	delay := c.config.RetryDelay
	var lastErr error

	for attempt := 0; ; attempt++ {
		lastErr = c.post(ctx, method, payload, out)
		if lastErr == nil {
			return nil
		}
		if attempt >= c.config.RetryAttempts || !isRetryable(lastErr) {
			break
		}

		pause := delay
		var apiErr *APIError
		if errors.As(lastErr, &apiErr) && apiErr.RetryAfter > 0 {
			pause = time.Duration(apiErr.RetryAfter) * time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
		delay *= 2
	}

	if !isRetryable(lastErr) {
		return lastErr
	}
	return fmt.Errorf("api call failed after %d retries: %w", c.config.RetryAttempts, lastErr)
}

// post performs a single Bot API call and decodes the result into out.
func (c *Client) post(ctx context.Context, method string, payload map[string]interface{}, out interface{}) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.config.BaseURL, c.config.Token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var envelope struct {
		OK          bool            `json:"ok"`
		Result      json.RawMessage `json:"result,omitempty"`
		Description string          `json:"description,omitempty"`
		ErrorCode   int             `json:"error_code,omitempty"`
		Parameters  *struct {
			RetryAfter int `json:"retry_after,omitempty"`
		} `json:"parameters,omitempty"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if !envelope.OK {
		apiErr := &APIError{Code: envelope.ErrorCode, Description: envelope.Description}
		if envelope.Parameters != nil {
			apiErr.RetryAfter = envelope.Parameters.RetryAfter
		}
		return apiErr
	}

	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil
}

// isRetryable: 429 and 5xx from the API, plus transport-level failures.
func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}

	msg := err.Error()
	for _, marker := range []string{"timeout", "connection refused", "temporary", "reset"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
