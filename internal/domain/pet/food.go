package pet

// ══════════════════════════════════════════════════════════════════════════════
// КАТАЛОГ ЕДЫ
// Система пяти нутриентов: каждая еда даёт разный профиль. Сбалансированный
// рацион важен - монодиета обрушивает отдельные нутриенты и убивает питомца.
// ══════════════════════════════════════════════════════════════════════════════

// FoodCategory - категория еды в витрине магазина.
type FoodCategory string

const (
	CategoryStaple  FoodCategory = "staple"
	CategoryProtein FoodCategory = "protein"
	CategorySnack   FoodCategory = "snack"
	CategoryFruit   FoodCategory = "fruit"
	CategoryDairy   FoodCategory = "dairy"
)

// Food описывает одну позицию каталога.
type Food struct {
	// ID - стабильный идентификатор, хранится в инвентаре.
	ID string

	// Name - отображаемое имя (корейский, как в клиенте).
	Name string

	// Emoji - иконка в витрине.
	Emoji string

	// Price - цена в поинтах.
	Price Points

	// HungerRestore - восстановление сытости за одну порцию.
	HungerRestore int

	// Nutrients - профиль нутриентов порции.
	Nutrients Nutrition

	// Description - описание в витрине.
	Description string

	// Category - категория в витрине.
	Category FoodCategory
}

// Foods - полный каталог. Порядок совпадает с витриной клиента.
var Foods = []Food{
	{
		ID: "rice", Name: "밥", Emoji: "🍚", Price: 5, HungerRestore: 25,
		Nutrients:   Nutrition{NutrientCarbs: 30, NutrientProtein: 5, NutrientFat: 2, NutrientVitamin: 3, NutrientMineral: 5},
		Description: "든든한 한 공기! 탄수화물 풍부", Category: CategoryStaple,
	},
	{
		ID: "bread", Name: "빵", Emoji: "🍞", Price: 4, HungerRestore: 20,
		Nutrients:   Nutrition{NutrientCarbs: 25, NutrientProtein: 5, NutrientFat: 8, NutrientVitamin: 2, NutrientMineral: 3},
		Description: "부드러운 식빵. 탄수화물+지방", Category: CategoryStaple,
	},
	{
		ID: "noodle", Name: "국수", Emoji: "🍜", Price: 6, HungerRestore: 22,
		Nutrients:   Nutrition{NutrientCarbs: 28, NutrientProtein: 8, NutrientFat: 5, NutrientVitamin: 5, NutrientMineral: 4},
		Description: "따뜻한 국수. 균형 잡힌 한 끼", Category: CategoryStaple,
	},
	{
		ID: "meat", Name: "고기", Emoji: "🍖", Price: 10, HungerRestore: 30,
		Nutrients:   Nutrition{NutrientCarbs: 2, NutrientProtein: 35, NutrientFat: 15, NutrientVitamin: 5, NutrientMineral: 8},
		Description: "구운 고기! 단백질의 왕", Category: CategoryProtein,
	},
	{
		ID: "fish", Name: "생선", Emoji: "🐟", Price: 8, HungerRestore: 25,
		Nutrients:   Nutrition{NutrientCarbs: 0, NutrientProtein: 28, NutrientFat: 12, NutrientVitamin: 8, NutrientMineral: 10},
		Description: "신선한 생선. 단백질+무기질", Category: CategoryProtein,
	},
	{
		ID: "egg_food", Name: "계란", Emoji: "🥚", Price: 3, HungerRestore: 15,
		Nutrients:   Nutrition{NutrientCarbs: 2, NutrientProtein: 20, NutrientFat: 10, NutrientVitamin: 10, NutrientMineral: 5},
		Description: "완전식품! 고른 영양소", Category: CategoryProtein,
	},
	{
		ID: "cookie", Name: "쿠키", Emoji: "🍪", Price: 3, HungerRestore: 10,
		Nutrients:   Nutrition{NutrientCarbs: 15, NutrientProtein: 3, NutrientFat: 20, NutrientVitamin: 1, NutrientMineral: 2},
		Description: "달콤한 쿠키. 지방 높음", Category: CategorySnack,
	},
	{
		ID: "cheese", Name: "치즈", Emoji: "🧀", Price: 6, HungerRestore: 12,
		Nutrients:   Nutrition{NutrientCarbs: 3, NutrientProtein: 12, NutrientFat: 18, NutrientVitamin: 5, NutrientMineral: 15},
		Description: "고소한 치즈. 지방+무기질", Category: CategorySnack,
	},
	{
		ID: "apple", Name: "사과", Emoji: "🍎", Price: 4, HungerRestore: 10,
		Nutrients:   Nutrition{NutrientCarbs: 12, NutrientProtein: 1, NutrientFat: 0, NutrientVitamin: 25, NutrientMineral: 5},
		Description: "싱싱한 사과! 비타민 풍부", Category: CategoryFruit,
	},
	{
		ID: "banana", Name: "바나나", Emoji: "🍌", Price: 3, HungerRestore: 12,
		Nutrients:   Nutrition{NutrientCarbs: 18, NutrientProtein: 2, NutrientFat: 1, NutrientVitamin: 15, NutrientMineral: 10},
		Description: "에너지 충전! 비타민+무기질", Category: CategoryFruit,
	},
	{
		ID: "salad", Name: "샐러드", Emoji: "🥗", Price: 7, HungerRestore: 8,
		Nutrients:   Nutrition{NutrientCarbs: 5, NutrientProtein: 5, NutrientFat: 5, NutrientVitamin: 30, NutrientMineral: 15},
		Description: "신선한 채소. 비타민의 보고", Category: CategoryFruit,
	},
	{
		ID: "milk", Name: "우유", Emoji: "🥛", Price: 4, HungerRestore: 10,
		Nutrients:   Nutrition{NutrientCarbs: 8, NutrientProtein: 10, NutrientFat: 8, NutrientVitamin: 5, NutrientMineral: 25},
		Description: "칼슘 듬뿍! 무기질 최고", Category: CategoryDairy,
	},
}

// FoodByID возвращает позицию каталога по идентификатору.
func FoodByID(id string) (Food, bool) {
	for _, f := range Foods {
		if f.ID == id {
			return f, true
		}
	}
	return Food{}, false
}
