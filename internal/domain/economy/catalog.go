package economy

// Package is a purchasable gem bundle. Prices are KRW as charged
// through the payment provider; gems are credited on confirmation.
type Package struct {
	ID    string
	Gems  int
	Price int64 // KRW
	Label string
}

// Packages is the fixed storefront, cheapest first.
var Packages = []Package{
	{ID: "point_100", Gems: 100, Price: 1000, Label: "100P"},
	{ID: "point_500", Gems: 500, Price: 4500, Label: "500P (10% 할인)"},
	{ID: "point_1200", Gems: 1200, Price: 9900, Label: "1200P (20% 할인)"},
}

// PackageByID returns a package by its identifier.
func PackageByID(id string) (Package, bool) {
	for _, p := range Packages {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}

// PackageByPrice returns the package matching a confirmed amount.
// Confirmation trusts the provider's totalAmount, not the client,
// so the credited bundle is resolved from the money actually paid.
func PackageByPrice(amount int64) (Package, bool) {
	for _, p := range Packages {
		if p.Price == amount {
			return p, true
		}
	}
	return Package{}, false
}

// ItemID identifies a shop item.
type ItemID string

const (
	// ItemRevivePotion brings a dead pet back (see pet.Revive).
	ItemRevivePotion ItemID = "revive_potion"

	// ItemCheatSheet lets the exam solver use general knowledge.
	ItemCheatSheet ItemID = "cheat_sheet"
)

// ShopItem is one gem-priced item.
type ShopItem struct {
	ID          ItemID
	Name        string
	Description string
	Price       int // gems
	Emoji       string
}

// ShopItems is the fixed item storefront.
var ShopItems = []ShopItem{
	{
		ID:          ItemRevivePotion,
		Name:        "부활 포션",
		Description: "유령 상태의 펫을 부활시킵니다.",
		Price:       100,
		Emoji:       "💊",
	},
	{
		ID:          ItemCheatSheet,
		Name:        "컨닝 페이퍼",
		Description: "시험 시 AI에게 추가 지식을 제공합니다.",
		Price:       50,
		Emoji:       "📝",
	},
}

// ItemByID returns a shop item by its identifier.
func ItemByID(id ItemID) (ShopItem, bool) {
	for _, it := range ShopItems {
		if it.ID == id {
			return it, true
		}
	}
	return ShopItem{}, false
}
