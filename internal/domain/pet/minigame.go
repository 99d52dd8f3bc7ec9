package pet

// ══════════════════════════════════════════════════════════════════════════════
// КАТАЛОГ МИНИ-ИГР
// Каждая игра снижает скуку и приносит поинты. Кулдаун 24 часа действует
// на пару питомец+игра, так что за день можно сыграть в каждую игру один раз.
// ══════════════════════════════════════════════════════════════════════════════

// Minigame описывает одну мини-игру.
type Minigame struct {
	// ID - стабильный идентификатор, ключ кулдауна.
	ID string

	// Name - отображаемое имя.
	Name string

	// Emoji - иконка в меню игр.
	Emoji string

	// BoredomReduction - снижение скуки за одну игру.
	BoredomReduction int

	// PointsReward - награда в поинтах.
	PointsReward Points

	// Description - описание в меню.
	Description string
}

// Minigames - полный каталог. Порядок совпадает с меню клиента.
var Minigames = []Minigame{
	{
		ID: "rock_paper_scissors", Name: "가위바위보", Emoji: "✊",
		BoredomReduction: 60, PointsReward: 5,
		Description: "펫과 가위바위보 한 판!",
	},
	{
		ID: "memory_cards", Name: "카드 뒤집기", Emoji: "🃏",
		BoredomReduction: 80, PointsReward: 8,
		Description: "같은 그림 카드를 찾아보세요",
	},
	{
		ID: "number_guess", Name: "숫자 맞히기", Emoji: "🔢",
		BoredomReduction: 50, PointsReward: 4,
		Description: "펫이 생각한 숫자는?",
	},
	{
		ID: "catch_snack", Name: "간식 받기", Emoji: "🍪",
		BoredomReduction: 70, PointsReward: 6,
		Description: "떨어지는 간식을 받아먹어요",
	},
}

// MinigameByID возвращает игру по идентификатору.
func MinigameByID(id string) (Minigame, bool) {
	for _, g := range Minigames {
		if g.ID == id {
			return g, true
		}
	}
	return Minigame{}, false
}
