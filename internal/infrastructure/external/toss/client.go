// Package toss implements the Toss Payments API client.
// Only the confirm call is used: the browser widget collects the payment,
// the backend settles it server-side and credits gems.
package toss

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/economy"
	"github.com/studygotchi/studygotchi-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Toss Payments client.
type ClientConfig struct {
	// SecretKey is the Toss Payments secret key (sk_...)
	SecretKey string

	// BaseURL is the API base URL (default: https://api.tosspayments.com)
	BaseURL string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RetryAttempts is the number of retry attempts for failed requests
	RetryAttempts int

	// RetryDelay is the initial delay between retries
	RetryDelay time.Duration

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(secretKey string) ClientConfig {
	return ClientConfig{
		SecretKey:     secretKey,
		BaseURL:       "https://api.tosspayments.com",
		Timeout:       30 * time.Second,
		RetryAttempts: 2,
		RetryDelay:    1 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// API TYPES
// ══════════════════════════════════════════════════════════════════════════════

// confirmRequest is the body of POST /v1/payments/confirm.
type confirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

// paymentDTO is the subset of the payment object the hub cares about.
type paymentDTO struct {
	OrderID     string `json:"orderId"`
	PaymentKey  string `json:"paymentKey"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"totalAmount"`
	ApprovedAt  string `json:"approvedAt"`
}

// APIError is the error envelope Toss returns on failure.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("toss api error %s: %s", e.Code, e.Message)
}

// retryable Toss failures are transient provider-side problems; everything
// else (wrong key, mismatched amount, already processed) is final.
func (e *APIError) retryable() bool {
	return e.StatusCode >= 500 || e.Code == "PROVIDER_ERROR" || e.Code == "FAILED_INTERNAL_SYSTEM_PROCESSING"
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the Toss Payments API client. It implements economy.PaymentProvider.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	authHeader string
	retrier    *retry.Retrier
}

// NewClient creates a new Toss Payments client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	// Toss uses Basic auth with the secret key as username and no password.
	encoded := base64.StdEncoding.EncodeToString([]byte(config.SecretKey + ":"))

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:     config.Logger,
		authHeader: "Basic " + encoded,
	}

	c.retrier = retry.New(
		retry.WithMaxAttempts(config.RetryAttempts+1),
		retry.WithInitialDelay(config.RetryDelay),
		retry.WithRetryIf(c.isRetryable),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			c.logger.Warn("toss request failed, retrying",
				"attempt", attempt,
				"delay", delay.String(),
				"error", err,
			)
		}),
	)

	return c
}

// Confirm settles a payment with Toss.
// The returned TotalAmount is the provider's figure; the caller credits
// gems from it, not from the client-claimed amount.
func (c *Client) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (economy.Confirmation, error) {
	body := confirmRequest{
		PaymentKey: paymentKey,
		OrderID:    orderID,
		Amount:     amount,
	}

	var payment paymentDTO
	if err := c.doRequest(ctx, "/v1/payments/confirm", body, &payment); err != nil {
		return economy.Confirmation{}, err
	}

	if payment.TotalAmount == 0 {
		payment.TotalAmount = amount
	}

	approvedAt := time.Now().UTC()
	if payment.ApprovedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, payment.ApprovedAt); err == nil {
			approvedAt = parsed
		}
	}

	return economy.Confirmation{
		OrderID:     payment.OrderID,
		PaymentKey:  payment.PaymentKey,
		TotalAmount: payment.TotalAmount,
		ApprovedAt:  approvedAt,
	}, nil
}

// doRequest executes a request with retry on transient failures.
func (c *Client) doRequest(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.doSingleRequest(ctx, path, body, result)
	})
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, path string, body interface{}, result interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")

	if c.config.Debug {
		c.logger.Debug("toss api request", "path", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr APIError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Code != "" {
			apiErr.StatusCode = resp.StatusCode
			return &apiErr
		}
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// isRetryable checks if an error is retryable.
func (c *Client) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.retryable()
	}

	errStr := err.Error()
	for _, marker := range []string{"timeout", "connection refused", "temporary", "reset", "EOF"} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}
