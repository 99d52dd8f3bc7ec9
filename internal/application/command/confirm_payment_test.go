package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studygotchi/studygotchi-hub/internal/domain/economy"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
)

const testOrderID = "order_1756400000000_a1b2c3d4"

func newTestOrder(t *testing.T, userID string, amount int64) *economy.Order {
	t.Helper()
	o, err := economy.NewOrder(testOrderID, userID, amount, time.Now().UTC().Add(-5*time.Minute))
	require.NoError(t, err)
	return o
}

func newTestBuyer(gems int) *user.User {
	return &user.User{ID: "u1", Email: "buyer@studygotchi.dev", DisplayName: "민지", Gems: gems}
}

func newConfirmFixture(o *economy.Order, buyer *user.User, provider *fakeProvider) (*ConfirmPaymentHandler, *fakePaymentRepo, *fakeUserRepo, *fakePublisher) {
	paymentRepo := newFakePaymentRepo(o)
	userRepo := newFakeUserRepo(buyer)
	publisher := &fakePublisher{}
	return NewConfirmPaymentHandler(paymentRepo, userRepo, provider, publisher), paymentRepo, userRepo, publisher
}

func TestConfirmPayment_CreditsGemsFromProviderAmount(t *testing.T) {
	provider := &fakeProvider{confirmation: economy.Confirmation{
		OrderID:     testOrderID,
		PaymentKey:  "pk_test",
		TotalAmount: 4500,
		ApprovedAt:  time.Now().UTC(),
	}}
	h, paymentRepo, userRepo, publisher := newConfirmFixture(newTestOrder(t, "u1", 4500), newTestBuyer(100), provider)

	result, err := h.Handle(context.Background(), ConfirmPaymentCommand{
		UserID:     "u1",
		OrderID:    testOrderID,
		PaymentKey: "pk_test",
		Amount:     4500,
	})
	require.NoError(t, err)

	// 4500 KRW - это пакет point_500.
	assert.Equal(t, "point_500", result.Package.ID)
	assert.Equal(t, 500, result.GemsCredited)
	assert.Equal(t, 600, result.GemBalance)
	assert.False(t, result.AlreadySettled)

	saved, _ := paymentRepo.GetOrder(context.Background(), testOrderID)
	assert.Equal(t, economy.StatusDone, saved.Status)

	buyer, _ := userRepo.GetByID(context.Background(), "u1")
	assert.Equal(t, 600, buyer.Gems)
	assert.True(t, publisher.has(shared.EventPaymentCompleted))
}

func TestConfirmPayment_RetryOfDoneOrderIsIdempotent(t *testing.T) {
	order := newTestOrder(t, "u1", 4500)
	require.NoError(t, order.Complete(time.Now().UTC()))
	provider := &fakeProvider{}
	h, _, _, _ := newConfirmFixture(order, newTestBuyer(600), provider)

	result, err := h.Handle(context.Background(), ConfirmPaymentCommand{
		UserID:     "u1",
		OrderID:    testOrderID,
		PaymentKey: "pk_test",
		Amount:     4500,
	})
	require.NoError(t, err)

	// Повтор отвечает успехом, но ничего не начисляет и не ходит к провайдеру.
	assert.True(t, result.AlreadySettled)
	assert.Zero(t, result.GemsCredited)
	assert.Equal(t, 600, result.GemBalance)
	assert.Zero(t, provider.calls)
}

func TestConfirmPayment_OwnerMismatch(t *testing.T) {
	h, _, _, _ := newConfirmFixture(newTestOrder(t, "u2", 4500), newTestBuyer(100), &fakeProvider{})

	_, err := h.Handle(context.Background(), ConfirmPaymentCommand{
		UserID:     "u1",
		OrderID:    testOrderID,
		PaymentKey: "pk_test",
		Amount:     4500,
	})
	assert.ErrorIs(t, err, economy.ErrOrderOwnerMismatch)
}

func TestConfirmPayment_ProviderAmountMatchingNoPackage(t *testing.T) {
	// Провайдер подтвердил сумму, которой нет в каталоге.
	provider := &fakeProvider{confirmation: economy.Confirmation{
		OrderID:     testOrderID,
		TotalAmount: 3999,
	}}
	h, paymentRepo, userRepo, _ := newConfirmFixture(newTestOrder(t, "u1", 4500), newTestBuyer(100), provider)

	_, err := h.Handle(context.Background(), ConfirmPaymentCommand{
		UserID:     "u1",
		OrderID:    testOrderID,
		PaymentKey: "pk_test",
		Amount:     4500,
	})
	assert.ErrorIs(t, err, economy.ErrAmountMismatch)

	// Заказ не завершён, гемы не начислены.
	saved, _ := paymentRepo.GetOrder(context.Background(), testOrderID)
	assert.Equal(t, economy.StatusReady, saved.Status)
	buyer, _ := userRepo.GetByID(context.Background(), "u1")
	assert.Equal(t, 100, buyer.Gems)
}
