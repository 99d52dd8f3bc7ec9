package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/economy"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIRM PAYMENT COMMAND
// Settles a payment with the provider and credits the gems. The
// credited bundle is resolved from the provider's confirmed amount, not
// from anything the client sent. A retried confirmation of a DONE order
// answers success without crediting twice.
// ══════════════════════════════════════════════════════════════════════════════

// ConfirmPaymentCommand contains the data to confirm a payment.
type ConfirmPaymentCommand struct {
	// UserID is the buyer confirming the payment.
	UserID string

	// OrderID is the order being settled.
	OrderID string

	// PaymentKey is the provider's payment key from the widget redirect.
	PaymentKey string

	// Amount is the amount the client claims was paid (KRW).
	Amount int64

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ConfirmPaymentCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("confirm_payment: user_id is required")
	}
	if !economy.ValidOrderID(c.OrderID) {
		return errors.New("confirm_payment: malformed order_id")
	}
	if c.PaymentKey == "" {
		return errors.New("confirm_payment: payment_key is required")
	}
	if c.Amount <= 0 {
		return errors.New("confirm_payment: amount must be positive")
	}
	return nil
}

// ConfirmPaymentResult contains the result of confirming a payment.
type ConfirmPaymentResult struct {
	// Order is the settled order.
	Order *economy.Order

	// Package is the credited bundle.
	Package economy.Package

	// GemsCredited is how many gems this confirmation credited.
	// Zero on an idempotent retry of an already settled order.
	GemsCredited int

	// GemBalance is the user's balance after crediting.
	GemBalance int

	// AlreadySettled indicates this was a retry of a DONE order.
	AlreadySettled bool

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ConfirmPaymentHandler handles the ConfirmPaymentCommand.
type ConfirmPaymentHandler struct {
	paymentRepo    economy.PaymentRepository
	userRepo       user.Repository
	provider       economy.PaymentProvider
	eventPublisher shared.EventPublisher
}

// NewConfirmPaymentHandler creates a new ConfirmPaymentHandler.
func NewConfirmPaymentHandler(
	paymentRepo economy.PaymentRepository,
	userRepo user.Repository,
	provider economy.PaymentProvider,
	eventPublisher shared.EventPublisher,
) *ConfirmPaymentHandler {
	return &ConfirmPaymentHandler{
		paymentRepo:    paymentRepo,
		userRepo:       userRepo,
		provider:       provider,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the confirm payment command.
func (h *ConfirmPaymentHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (*ConfirmPaymentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("confirm_payment: validation failed: %w", err)
	}

	order, err := h.paymentRepo.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		return nil, fmt.Errorf("confirm_payment: %w", err)
	}
	if err := order.VerifyOwner(cmd.UserID); err != nil {
		return nil, fmt.Errorf("confirm_payment: %w", err)
	}

	buyer, err := h.userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("confirm_payment: failed to load user: %w", err)
	}

	if order.Status == economy.StatusDone {
		pkg, _ := economy.PackageByPrice(order.Amount)
		return &ConfirmPaymentResult{
			Order:          order,
			Package:        pkg,
			GemBalance:     buyer.Gems,
			AlreadySettled: true,
		}, nil
	}

	confirmation, err := h.provider.Confirm(ctx, cmd.PaymentKey, cmd.OrderID, cmd.Amount)
	if err != nil {
		return nil, fmt.Errorf("confirm_payment: provider rejected payment: %w", err)
	}

	// The provider's figure is authoritative; an amount matching no
	// package means a tampered checkout, not a pricing change.
	pkg, ok := economy.PackageByPrice(confirmation.TotalAmount)
	if !ok {
		return nil, fmt.Errorf("confirm_payment: %w: %d KRW", economy.ErrAmountMismatch, confirmation.TotalAmount)
	}

	now := time.Now().UTC()
	if err := order.Complete(now); err != nil {
		if errors.Is(err, economy.ErrOrderAlreadyDone) {
			return &ConfirmPaymentResult{
				Order:          order,
				Package:        pkg,
				GemBalance:     buyer.Gems,
				AlreadySettled: true,
			}, nil
		}
		return nil, fmt.Errorf("confirm_payment: %w", err)
	}

	if err := h.paymentRepo.UpdateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("confirm_payment: failed to save order: %w", err)
	}

	buyer.CreditGems(pkg.Gems)
	if err := h.userRepo.Update(ctx, buyer); err != nil {
		return nil, fmt.Errorf("confirm_payment: failed to credit gems: %w", err)
	}

	event := shared.NewPaymentCompletedEvent(order.OrderID, buyer.ID, pkg.ID, pkg.Gems, confirmation.TotalAmount)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &ConfirmPaymentResult{
		Order:        order,
		Package:      pkg,
		GemsCredited: pkg.Gems,
		GemBalance:   buyer.Gems,
		Events:       []shared.Event{event},
	}, nil
}
