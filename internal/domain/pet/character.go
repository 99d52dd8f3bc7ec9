package pet

import "math/rand"

// ══════════════════════════════════════════════════════════════════════════════
// ВНЕШНОСТЬ И ХАРАКТЕР
// Спрайт, комната и MBTI назначаются при создании и дальше не меняются.
// ══════════════════════════════════════════════════════════════════════════════

// CharacterSprite - внешний вид питомца, один из 22 спрайтов.
type CharacterSprite string

const (
	SpriteRabbit    CharacterSprite = "rabbit"
	SpriteTiger     CharacterSprite = "tiger"
	SpriteDog       CharacterSprite = "dog"
	SpriteMonkey    CharacterSprite = "monkey"
	SpriteElephant  CharacterSprite = "elephant"
	SpriteGiraffe   CharacterSprite = "giraffe"
	SpritePanda     CharacterSprite = "panda"
	SpriteSquirrel  CharacterSprite = "squirrel"
	SpriteSloth     CharacterSprite = "sloth"
	SpriteWolf      CharacterSprite = "wolf"
	SpriteMouse     CharacterSprite = "mouse"
	SpriteHedgehog  CharacterSprite = "hedgehog"
	SpriteKoala     CharacterSprite = "koala"
	SpriteBear      CharacterSprite = "bear"
	SpriteHorse     CharacterSprite = "horse"
	SpritePig       CharacterSprite = "pig"
	SpriteMeerkat   CharacterSprite = "meerkat"
	SpriteDesertFox CharacterSprite = "dessertFox" // историческое написание, закреплено в данных
	SpriteRacoon    CharacterSprite = "racoon"
	SpriteDeer      CharacterSprite = "deer"
	SpriteCat       CharacterSprite = "cat"
	SpriteLion      CharacterSprite = "lion"
)

// CharacterSprites - полный список спрайтов в порядке выпуска.
var CharacterSprites = []CharacterSprite{
	SpriteRabbit, SpriteTiger, SpriteDog, SpriteMonkey, SpriteElephant,
	SpriteGiraffe, SpritePanda, SpriteSquirrel, SpriteSloth, SpriteWolf,
	SpriteMouse, SpriteHedgehog, SpriteKoala, SpriteBear, SpriteHorse,
	SpritePig, SpriteMeerkat, SpriteDesertFox, SpriteRacoon, SpriteDeer,
	SpriteCat, SpriteLion,
}

// IsValid проверяет, что спрайт известен системе.
func (s CharacterSprite) IsValid() bool {
	for _, known := range CharacterSprites {
		if s == known {
			return true
		}
	}
	return false
}

// RoomType - комната питомца.
type RoomType string

const (
	RoomBedroom   RoomType = "bedroom"
	RoomKitchen   RoomType = "kitchen"
	RoomClassroom RoomType = "classroom"
	RoomShop      RoomType = "shop"
)

// RoomTypes - полный список комнат.
var RoomTypes = []RoomType{RoomBedroom, RoomKitchen, RoomClassroom, RoomShop}

// IsValid проверяет, что комната известна системе.
func (r RoomType) IsValid() bool {
	for _, known := range RoomTypes {
		if r == known {
			return true
		}
	}
	return false
}

// MBTIType - характер питомца. Управляет тоном диалогов.
type MBTIType string

// MBTITypes - 16 типов в фиксированном порядке. Порядок значим:
// DeriveMBTI индексирует этот срез, перестановка сломает характеры
// существующих питомцев без колонки mbti.
var MBTITypes = []MBTIType{
	"INTJ", "INTP", "ENTJ", "ENTP",
	"INFJ", "INFP", "ENFJ", "ENFP",
	"ISTJ", "ISFJ", "ESTJ", "ESFJ",
	"ISTP", "ISFP", "ESTP", "ESFP",
}

// IsValid проверяет, что тип входит в список 16 типов.
func (m MBTIType) IsValid() bool {
	for _, known := range MBTITypes {
		if m == known {
			return true
		}
	}
	return false
}

// DeriveMBTI детерминированно выводит характер из ID питомца.
// Повторяет клиентский хеш (h*31 + байт) для legacy-записей без
// колонки mbti. До 32 бит усекается только операнд сдвига, остальная
// арифметика накапливается без переполнения, поэтому аккумулятор
// шире 32 бит.
func DeriveMBTI(id string) MBTIType {
	var h int64
	for i := 0; i < len(id); i++ {
		h = int64(int32(h)<<5) - h + int64(id[i])
	}
	if h < 0 {
		h = -h
	}
	return MBTITypes[h%int64(len(MBTITypes))]
}

// PickRandomCharacter возвращает случайный спрайт.
func PickRandomCharacter() CharacterSprite {
	return CharacterSprites[rand.Intn(len(CharacterSprites))]
}

// PickRandomRoom возвращает случайную комнату.
func PickRandomRoom() RoomType {
	return RoomTypes[rand.Intn(len(RoomTypes))]
}

// PickRandomMBTI возвращает случайный характер.
func PickRandomMBTI() MBTIType {
	return MBTITypes[rand.Intn(len(MBTITypes))]
}
