package command

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/economy"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE PAYMENT COMMAND
// Opens a payment order for a gem package. The client takes the order
// ID to the payment widget; the money only moves on confirmation.
// ══════════════════════════════════════════════════════════════════════════════

// CreatePaymentCommand contains the data to open a payment order.
type CreatePaymentCommand struct {
	// UserID is the buyer.
	UserID string

	// PackageID is the gem package being bought.
	PackageID string
}

// Validate validates the command.
func (c CreatePaymentCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("create_payment: user_id is required")
	}
	if c.PackageID == "" {
		return errors.New("create_payment: package_id is required")
	}
	return nil
}

// CreatePaymentResult contains the opened order.
type CreatePaymentResult struct {
	// Order is the opened order in READY state.
	Order *economy.Order

	// Package is the bundle the order pays for.
	Package economy.Package
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CreatePaymentHandler handles the CreatePaymentCommand.
type CreatePaymentHandler struct {
	paymentRepo economy.PaymentRepository
}

// NewCreatePaymentHandler creates a new CreatePaymentHandler.
func NewCreatePaymentHandler(paymentRepo economy.PaymentRepository) *CreatePaymentHandler {
	return &CreatePaymentHandler{paymentRepo: paymentRepo}
}

// Handle executes the create payment command.
func (h *CreatePaymentHandler) Handle(ctx context.Context, cmd CreatePaymentCommand) (*CreatePaymentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_payment: validation failed: %w", err)
	}

	pkg, ok := economy.PackageByID(cmd.PackageID)
	if !ok {
		return nil, fmt.Errorf("create_payment: %w: %q", economy.ErrUnknownPackage, cmd.PackageID)
	}

	now := time.Now().UTC()
	orderID := economy.NewOrderID(now.UnixMilli(), randomSuffix())

	order, err := economy.NewOrder(orderID, cmd.UserID, pkg.Price, now)
	if err != nil {
		return nil, fmt.Errorf("create_payment: %w", err)
	}

	if err := h.paymentRepo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create_payment: failed to save order: %w", err)
	}

	return &CreatePaymentResult{Order: order, Package: pkg}, nil
}

// randomSuffix returns the 8-char lowercase hex suffix for order IDs.
func randomSuffix() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
