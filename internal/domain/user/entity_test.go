package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validParams() NewUserParams {
	return NewUserParams{
		ID:           "user-1",
		Email:        "student@school.kr",
		DisplayName:  "민준",
		Role:         RoleStudent,
		PasswordHash: "$2a$10$fakehash",
	}
}

func TestNewUser_Defaults(t *testing.T) {
	u, err := NewUser(validParams())
	assert.NoError(t, err)
	assert.Equal(t, InitialGems, u.Gems)
	assert.Equal(t, 0, u.Items.RevivePotion)
	assert.Equal(t, 0, u.Items.CheatSheet)
	assert.False(t, u.IsTeacher())
}

func TestNewUser_RoleDefaultsToStudent(t *testing.T) {
	p := validParams()
	p.Role = ""
	u, err := NewUser(p)
	assert.NoError(t, err)
	assert.Equal(t, RoleStudent, u.Role)
}

func TestNewUser_Validation(t *testing.T) {
	p := validParams()
	p.Email = "not-an-email"
	_, err := NewUser(p)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	p = validParams()
	p.DisplayName = "  "
	_, err = NewUser(p)
	assert.ErrorIs(t, err, ErrInvalidDisplayName)

	p = validParams()
	p.Role = "admin"
	_, err = NewUser(p)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestGems_CreditAndSpend(t *testing.T) {
	u, _ := NewUser(validParams())

	u.CreditGems(500)
	assert.Equal(t, 600, u.Gems)

	u.CreditGems(-50) // ignored
	assert.Equal(t, 600, u.Gems)

	assert.NoError(t, u.SpendGems(600))
	assert.ErrorIs(t, u.SpendGems(1), ErrNotEnoughGems)
	assert.ErrorIs(t, u.SpendGems(-1), ErrNotEnoughGems)
}

func TestItems_UseRequiresStock(t *testing.T) {
	u, _ := NewUser(validParams())

	assert.ErrorIs(t, u.UseRevivePotion(), ErrNoRevivePotion)
	assert.ErrorIs(t, u.UseCheatSheet(), ErrNoCheatSheet)

	u.AddRevivePotion(1)
	u.AddCheatSheet(2)
	assert.NoError(t, u.UseRevivePotion())
	assert.ErrorIs(t, u.UseRevivePotion(), ErrNoRevivePotion)
	assert.NoError(t, u.UseCheatSheet())
	assert.Equal(t, 1, u.Items.CheatSheet)
}
