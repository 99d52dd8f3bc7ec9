// Package economy contains domain entities for the paid side of the
// game: point/gem packages, payment orders and the item shop.
// This is a pure domain layer with zero external dependencies.
package economy

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Domain errors for economy package.
var (
	ErrInvalidOrderID     = errors.New("economy: invalid order ID")
	ErrInvalidUserID      = errors.New("economy: invalid user ID")
	ErrUnknownPackage     = errors.New("economy: unknown package")
	ErrUnknownItem        = errors.New("economy: unknown shop item")
	ErrUnknownFood        = errors.New("economy: unknown food")
	ErrOrderNotFound      = errors.New("economy: order not found")
	ErrOrderAlreadyDone   = errors.New("economy: order already completed")
	ErrOrderCanceled      = errors.New("economy: order is canceled")
	ErrAmountMismatch     = errors.New("economy: paid amount does not match any package")
	ErrOrderOwnerMismatch = errors.New("economy: order belongs to another user")
	ErrNotEnoughGems      = errors.New("economy: not enough gems")
	ErrNotEnoughPoints    = errors.New("economy: not enough points")
)

// OrderStatus is the lifecycle state of a payment order.
type OrderStatus string

const (
	// StatusReady means the order was created and awaits payment.
	StatusReady OrderStatus = "READY"

	// StatusDone means the payment was confirmed and credited.
	StatusDone OrderStatus = "DONE"

	// StatusCanceled means the order was abandoned or refunded.
	StatusCanceled OrderStatus = "CANCELED"
)

var orderIDPattern = regexp.MustCompile(`^order_\d+_[a-z0-9]{8}$`)

// NewOrderID builds an order identifier from a millisecond timestamp
// and a random 8-char suffix. The format is shared with the client.
func NewOrderID(unixMillis int64, suffix string) string {
	return fmt.Sprintf("order_%d_%s", unixMillis, suffix)
}

// ValidOrderID reports whether the string is a well-formed order ID.
func ValidOrderID(id string) bool {
	return orderIDPattern.MatchString(id)
}

// Order is one payment order for a gem package.
type Order struct {
	OrderID   string
	UserID    string
	Amount    int64 // KRW
	Status    OrderStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder creates an order in READY state.
func NewOrder(orderID, userID string, amount int64, at time.Time) (*Order, error) {
	if !ValidOrderID(orderID) {
		return nil, ErrInvalidOrderID
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if amount <= 0 {
		return nil, errors.New("economy: order amount must be positive")
	}

	return &Order{
		OrderID:   orderID,
		UserID:    userID,
		Amount:    amount,
		Status:    StatusReady,
		CreatedAt: at,
		UpdatedAt: at,
	}, nil
}

// VerifyOwner checks that the confirming user owns this order.
func (o *Order) VerifyOwner(userID string) error {
	if o.UserID != userID {
		return ErrOrderOwnerMismatch
	}
	return nil
}

// Complete transitions the order to DONE.
// A second completion returns ErrOrderAlreadyDone so the caller can
// answer the retry with success without crediting twice.
func (o *Order) Complete(at time.Time) error {
	switch o.Status {
	case StatusDone:
		return ErrOrderAlreadyDone
	case StatusCanceled:
		return ErrOrderCanceled
	}
	o.Status = StatusDone
	o.UpdatedAt = at
	return nil
}

// Cancel transitions the order to CANCELED. Completed orders stay done.
func (o *Order) Cancel(at time.Time) error {
	if o.Status == StatusDone {
		return ErrOrderAlreadyDone
	}
	o.Status = StatusCanceled
	o.UpdatedAt = at
	return nil
}
