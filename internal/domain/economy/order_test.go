package economy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderID_Format(t *testing.T) {
	id := NewOrderID(1767225600123, "a1b2c3d4")
	assert.Equal(t, "order_1767225600123_a1b2c3d4", id)
	assert.True(t, ValidOrderID(id))

	assert.False(t, ValidOrderID("order_123_short"))
	assert.False(t, ValidOrderID("order__a1b2c3d4"))
	assert.False(t, ValidOrderID("ord_1_a1b2c3d4"))
}

func TestNewOrder(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := NewOrderID(1767225600123, "a1b2c3d4")

	o, err := NewOrder(id, "user-1", 4500, at)
	assert.NoError(t, err)
	assert.Equal(t, StatusReady, o.Status)

	_, err = NewOrder("bogus", "user-1", 4500, at)
	assert.ErrorIs(t, err, ErrInvalidOrderID)
	_, err = NewOrder(id, "", 4500, at)
	assert.ErrorIs(t, err, ErrInvalidUserID)
	_, err = NewOrder(id, "user-1", 0, at)
	assert.Error(t, err)
}

func TestOrder_CompleteIdempotent(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	o, _ := NewOrder(NewOrderID(1, "a1b2c3d4"), "user-1", 1000, at)

	assert.NoError(t, o.Complete(at))
	assert.Equal(t, StatusDone, o.Status)

	// a retry must be distinguishable so the caller can skip re-crediting
	assert.ErrorIs(t, o.Complete(at.Add(time.Minute)), ErrOrderAlreadyDone)
	assert.Equal(t, StatusDone, o.Status)
}

func TestOrder_CancelRules(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	o, _ := NewOrder(NewOrderID(1, "a1b2c3d4"), "user-1", 1000, at)
	assert.NoError(t, o.Cancel(at))
	assert.ErrorIs(t, o.Complete(at), ErrOrderCanceled)

	done, _ := NewOrder(NewOrderID(2, "a1b2c3d4"), "user-1", 1000, at)
	_ = done.Complete(at)
	assert.ErrorIs(t, done.Cancel(at), ErrOrderAlreadyDone)
}

func TestOrder_VerifyOwner(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	o, _ := NewOrder(NewOrderID(1, "a1b2c3d4"), "user-1", 1000, at)

	assert.NoError(t, o.VerifyOwner("user-1"))
	assert.ErrorIs(t, o.VerifyOwner("user-2"), ErrOrderOwnerMismatch)
}

func TestPackages(t *testing.T) {
	pkg, ok := PackageByID("point_500")
	assert.True(t, ok)
	assert.Equal(t, 500, pkg.Gems)
	assert.Equal(t, int64(4500), pkg.Price)

	_, ok = PackageByID("point_9000")
	assert.False(t, ok)

	byPrice, ok := PackageByPrice(9900)
	assert.True(t, ok)
	assert.Equal(t, "point_1200", byPrice.ID)

	_, ok = PackageByPrice(1234)
	assert.False(t, ok)
}

func TestShopItems(t *testing.T) {
	potion, ok := ItemByID(ItemRevivePotion)
	assert.True(t, ok)
	assert.Equal(t, 100, potion.Price)

	sheet, ok := ItemByID(ItemCheatSheet)
	assert.True(t, ok)
	assert.Equal(t, 50, sheet.Price)

	_, ok = ItemByID("time_machine")
	assert.False(t, ok)
}
