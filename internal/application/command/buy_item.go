package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/studygotchi/studygotchi-hub/internal/domain/economy"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// BUY ITEM COMMAND
// Item shop purchase: spends gems on revive potions or cheat sheets.
// Gems come from confirmed payments, items land in the user inventory.
// ══════════════════════════════════════════════════════════════════════════════

// BuyItemCommand contains the data to buy a shop item.
type BuyItemCommand struct {
	// UserID is the buyer.
	UserID string

	// ItemID is the shop item to purchase.
	ItemID economy.ItemID

	// Quantity is how many to buy (defaults to 1).
	Quantity int
}

// Validate validates the command.
func (c BuyItemCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("buy_item: user_id is required")
	}
	if c.ItemID == "" {
		return errors.New("buy_item: item_id is required")
	}
	if c.Quantity < 0 {
		return errors.New("buy_item: quantity cannot be negative")
	}
	return nil
}

// BuyItemResult contains the result of buying a shop item.
type BuyItemResult struct {
	// Item is the purchased shop item.
	Item economy.ShopItem

	// Quantity is how many were bought.
	Quantity int

	// TotalCost is the gems spent.
	TotalCost int

	// GemsLeft is the gem balance after the purchase.
	GemsLeft int

	// Items is the inventory after the purchase.
	Items user.Items
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// BuyItemHandler handles the BuyItemCommand.
type BuyItemHandler struct {
	userRepo user.Repository
}

// NewBuyItemHandler creates a new BuyItemHandler.
func NewBuyItemHandler(userRepo user.Repository) *BuyItemHandler {
	return &BuyItemHandler{userRepo: userRepo}
}

// Handle executes the buy item command.
func (h *BuyItemHandler) Handle(ctx context.Context, cmd BuyItemCommand) (*BuyItemResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("buy_item: validation failed: %w", err)
	}

	qty := cmd.Quantity
	if qty == 0 {
		qty = 1
	}

	item, ok := economy.ItemByID(cmd.ItemID)
	if !ok {
		return nil, shared.NewDomainError("economy", "buy_item", shared.ErrNotFound,
			fmt.Sprintf("unknown item %q", cmd.ItemID))
	}

	buyer, err := h.userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("buy_item: failed to load user: %w", err)
	}

	cost := item.Price * qty
	if err := buyer.SpendGems(cost); err != nil {
		return nil, fmt.Errorf("buy_item: %w", err)
	}

	switch item.ID {
	case economy.ItemRevivePotion:
		buyer.AddRevivePotion(qty)
	case economy.ItemCheatSheet:
		buyer.AddCheatSheet(qty)
	default:
		return nil, fmt.Errorf("buy_item: item %q has no inventory slot", item.ID)
	}

	if err := h.userRepo.Update(ctx, buyer); err != nil {
		return nil, fmt.Errorf("buy_item: failed to save user: %w", err)
	}

	return &BuyItemResult{
		Item:      item,
		Quantity:  qty,
		TotalCost: cost,
		GemsLeft:  buyer.Gems,
		Items:     buyer.Items,
	}, nil
}
