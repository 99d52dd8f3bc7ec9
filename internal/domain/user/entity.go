// Package user содержит доменную модель профиля пользователя:
// учётные данные, роль, баланс гемов и инвентарь предметов магазина.
package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTANTS & VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// InitialGems - стартовый баланс гемов нового пользователя.
const InitialGems = 100

// Role определяет роль пользователя в системе.
type Role string

const (
	// RoleStudent - ученик, хозяин питомца.
	RoleStudent Role = "student"

	// RoleTeacher - учитель, владелец классов и автор экзаменов.
	RoleTeacher Role = "teacher"
)

// IsValid проверяет корректность роли.
func (r Role) IsValid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// Items - инвентарь предметов магазина.
type Items struct {
	RevivePotion int
	CheatSheet   int
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidEmail - некорректный email.
	ErrInvalidEmail = errors.New("user: invalid email")

	// ErrInvalidDisplayName - некорректное отображаемое имя.
	ErrInvalidDisplayName = errors.New("user: display name must be 1-30 chars")

	// ErrInvalidRole - неизвестная роль.
	ErrInvalidRole = errors.New("user: invalid role")

	// ErrNotEnoughGems - недостаточно гемов.
	ErrNotEnoughGems = errors.New("user: not enough gems")

	// ErrNoRevivePotion - нет зелья воскрешения.
	ErrNoRevivePotion = errors.New("user: no revive potion in inventory")

	// ErrNoCheatSheet - нет шпаргалки.
	ErrNoCheatSheet = errors.New("user: no cheat sheet in inventory")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: USER
// ══════════════════════════════════════════════════════════════════════════════

// User - профиль пользователя. Гемы - внешняя валюта (пополняется
// платежами), в отличие от поинтов питомца, которые зарабатываются игрой.
type User struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// Email - адрес электронной почты.
	Email string

	// DisplayName - отображаемое имя.
	DisplayName string

	// Role - роль пользователя.
	Role Role

	// PasswordHash - bcrypt-хеш пароля. Сам пароль в домен не попадает.
	PasswordHash string

	// Gems - баланс гемов.
	Gems int

	// Items - инвентарь предметов.
	Items Items

	// CreatedAt - время регистрации.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewUserParams содержит параметры для создания пользователя.
type NewUserParams struct {
	ID           string
	Email        string
	DisplayName  string
	Role         Role
	PasswordHash string
}

// NewUser создаёт нового пользователя со стартовым балансом гемов.
func NewUser(params NewUserParams) (*User, error) {
	if params.ID == "" {
		return nil, errors.New("user: id is required")
	}
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return nil, ErrInvalidEmail
	}

	name := strings.TrimSpace(params.DisplayName)
	if len([]rune(name)) == 0 || len([]rune(name)) > 30 {
		return nil, ErrInvalidDisplayName
	}

	role := params.Role
	if role == "" {
		role = RoleStudent
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	now := time.Now().UTC()

	return &User{
		ID:           params.ID,
		Email:        params.Email,
		DisplayName:  name,
		Role:         role,
		PasswordHash: params.PasswordHash,
		Gems:         InitialGems,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// IsTeacher возвращает true для учителя.
func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

// CreditGems пополняет баланс гемов (подтверждённый платёж).
func (u *User) CreditGems(amount int) {
	if amount <= 0 {
		return
	}
	u.Gems += amount
	u.UpdatedAt = time.Now().UTC()
}

// SpendGems списывает гемы. Возвращает ErrNotEnoughGems при нехватке.
func (u *User) SpendGems(amount int) error {
	if amount < 0 || u.Gems < amount {
		return ErrNotEnoughGems
	}
	u.Gems -= amount
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// AddRevivePotion добавляет зелья воскрешения в инвентарь.
func (u *User) AddRevivePotion(qty int) {
	if qty <= 0 {
		return
	}
	u.Items.RevivePotion += qty
	u.UpdatedAt = time.Now().UTC()
}

// AddCheatSheet добавляет шпаргалки в инвентарь.
func (u *User) AddCheatSheet(qty int) {
	if qty <= 0 {
		return
	}
	u.Items.CheatSheet += qty
	u.UpdatedAt = time.Now().UTC()
}

// UseRevivePotion списывает одно зелье воскрешения.
func (u *User) UseRevivePotion() error {
	if u.Items.RevivePotion <= 0 {
		return ErrNoRevivePotion
	}
	u.Items.RevivePotion--
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// UseCheatSheet списывает одну шпаргалку.
func (u *User) UseCheatSheet() error {
	if u.Items.CheatSheet <= 0 {
		return ErrNoCheatSheet
	}
	u.Items.CheatSheet--
	u.UpdatedAt = time.Now().UTC()
	return nil
}
