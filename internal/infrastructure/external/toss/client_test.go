package toss

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Confirm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/confirm", r.URL.Path)

		wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("sk_test_secret:"))
		assert.Equal(t, wantAuth, r.Header.Get("Authorization"))

		var req confirmRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pay_abc", req.PaymentKey)
		assert.Equal(t, "order_1700000000_x1y2", req.OrderID)
		assert.Equal(t, int64(4500), req.Amount)

		json.NewEncoder(w).Encode(paymentDTO{
			OrderID:     req.OrderID,
			PaymentKey:  req.PaymentKey,
			Status:      "DONE",
			TotalAmount: 4500,
			ApprovedAt:  "2026-08-29T10:30:00+09:00",
		})
	}))
	defer server.Close()

	cfg := DefaultClientConfig("sk_test_secret")
	cfg.BaseURL = server.URL
	client := NewClient(cfg)

	conf, err := client.Confirm(context.Background(), "pay_abc", "order_1700000000_x1y2", 4500)
	require.NoError(t, err)
	assert.Equal(t, "order_1700000000_x1y2", conf.OrderID)
	assert.Equal(t, "pay_abc", conf.PaymentKey)
	assert.Equal(t, int64(4500), conf.TotalAmount)

	want, _ := time.Parse(time.RFC3339, "2026-08-29T10:30:00+09:00")
	assert.True(t, conf.ApprovedAt.Equal(want))
}

func TestClient_Confirm_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    "INVALID_API_KEY",
			"message": "잘못된 시크릿키 연동 정보 입니다.",
		})
	}))
	defer server.Close()

	cfg := DefaultClientConfig("sk_bad")
	cfg.BaseURL = server.URL
	client := NewClient(cfg)

	_, err := client.Confirm(context.Background(), "pay_abc", "order_1", 1000)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "INVALID_API_KEY", apiErr.Code)
	assert.False(t, apiErr.retryable())
}

func TestClient_Confirm_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{
				"code":    "FAILED_INTERNAL_SYSTEM_PROCESSING",
				"message": "일시적 오류",
			})
			return
		}
		json.NewEncoder(w).Encode(paymentDTO{
			OrderID:     "order_2",
			PaymentKey:  "pay_def",
			Status:      "DONE",
			TotalAmount: 1000,
		})
	}))
	defer server.Close()

	cfg := DefaultClientConfig("sk_test")
	cfg.BaseURL = server.URL
	cfg.RetryDelay = time.Millisecond
	client := NewClient(cfg)

	conf, err := client.Confirm(context.Background(), "pay_def", "order_2", 1000)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, int64(1000), conf.TotalAmount)
}
