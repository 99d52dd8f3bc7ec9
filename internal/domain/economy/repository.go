package economy

import (
	"context"
	"time"
)

// PaymentRepository defines the interface for order persistence.
// Implemented by the infrastructure layer.
type PaymentRepository interface {
	// CreateOrder persists a new order.
	CreateOrder(ctx context.Context, o *Order) error

	// GetOrder returns an order by its order ID.
	// Returns ErrOrderNotFound if the order does not exist.
	GetOrder(ctx context.Context, orderID string) (*Order, error)

	// UpdateOrder persists order state changes.
	UpdateOrder(ctx context.Context, o *Order) error

	// GetOrdersByUser returns a user's orders, newest first.
	GetOrdersByUser(ctx context.Context, userID string, limit int) ([]*Order, error)

	// FindStaleReady returns READY orders older than the threshold
	// (abandoned checkouts, candidates for cancellation).
	FindStaleReady(ctx context.Context, olderThan time.Duration) ([]*Order, error)
}

// Confirmation is the provider's verdict on a payment.
type Confirmation struct {
	OrderID     string
	PaymentKey  string
	TotalAmount int64
	ApprovedAt  time.Time
}

// PaymentProvider confirms payments with the external processor.
// Implemented by the Toss Payments client in infrastructure.
type PaymentProvider interface {
	// Confirm settles a payment. The returned TotalAmount is the
	// provider's figure and overrides whatever the client claimed.
	Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (Confirmation, error)
}
