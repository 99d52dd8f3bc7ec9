package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BUY FOOD COMMAND
// Grocery purchase: spends the pet's points on catalog food. Points are
// the earned in-game currency, distinct from paid gems.
// ══════════════════════════════════════════════════════════════════════════════

// BuyFoodCommand contains the data to buy food.
type BuyFoodCommand struct {
	// UserID is the pet owner.
	UserID string

	// FoodID is the catalog identifier to purchase.
	FoodID string

	// Quantity is how many portions to buy (defaults to 1).
	Quantity int
}

// Validate validates the command.
func (c BuyFoodCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("buy_food: user_id is required")
	}
	if c.FoodID == "" {
		return errors.New("buy_food: food_id is required")
	}
	if c.Quantity < 0 {
		return errors.New("buy_food: quantity cannot be negative")
	}
	return nil
}

// BuyFoodResult contains the result of buying food.
type BuyFoodResult struct {
	// FoodID is the purchased food.
	FoodID string

	// Quantity is how many portions were bought.
	Quantity int

	// TotalCost is the points spent.
	TotalCost pet.Points

	// PointsLeft is the balance after the purchase.
	PointsLeft pet.Points

	// Portions is the inventory count after the purchase.
	Portions int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// BuyFoodHandler handles the BuyFoodCommand.
type BuyFoodHandler struct {
	petRepo        pet.Repository
	sessions       pet.SessionTracker
	petCache       pet.Cache
	eventPublisher shared.EventPublisher
}

// NewBuyFoodHandler creates a new BuyFoodHandler.
func NewBuyFoodHandler(
	petRepo pet.Repository,
	sessions pet.SessionTracker,
	petCache pet.Cache,
	eventPublisher shared.EventPublisher,
) *BuyFoodHandler {
	return &BuyFoodHandler{
		petRepo:        petRepo,
		sessions:       sessions,
		petCache:       petCache,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the buy food command.
func (h *BuyFoodHandler) Handle(ctx context.Context, cmd BuyFoodCommand) (*BuyFoodResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("buy_food: validation failed: %w", err)
	}

	qty := cmd.Quantity
	if qty == 0 {
		qty = 1
	}

	food, ok := pet.FoodByID(cmd.FoodID)
	if !ok {
		return nil, shared.NewDomainError("pet", "buy_food", shared.ErrNotFound,
			fmt.Sprintf("unknown food %q", cmd.FoodID))
	}

	now := time.Now().UTC()

	live, err := resolveLivePet(ctx, h.petRepo, h.sessions, h.eventPublisher, cmd.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("buy_food: %w", err)
	}
	p := live.Pet

	cost := food.Price * pet.Points(qty)
	if !p.SpendPoints(cost) {
		return nil, shared.ErrInsufficientPoints
	}
	p.AddFood(food.ID, qty)

	if err := h.petRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("buy_food: failed to save pet: %w", err)
	}
	if h.petCache != nil {
		_ = h.petCache.Invalidate(ctx, p.ID)
	}

	return &BuyFoodResult{
		FoodID:     food.ID,
		Quantity:   qty,
		TotalCost:  cost,
		PointsLeft: p.Points,
		Portions:   p.FoodInventory[food.ID],
	}, nil
}
