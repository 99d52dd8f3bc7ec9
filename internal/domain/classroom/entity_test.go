package classroom

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCode_Validation(t *testing.T) {
	assert.True(t, Code("AB12CD").IsValid())
	assert.False(t, Code("ab12cd").IsValid())
	assert.False(t, Code("AB12C").IsValid())
	assert.False(t, Code("AB12CDE").IsValid())
	assert.False(t, Code("AB-2CD").IsValid())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, Code("AB12CD"), Normalize("  ab12cd "))
}

func TestGenerateCode(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	seen := make(map[Code]bool)
	for i := 0; i < 100; i++ {
		c := GenerateCode(r)
		assert.True(t, c.IsValid(), string(c))
		seen[c] = true
	}
	// со случайным источником коллизии на сотне кодов крайне маловероятны
	assert.Greater(t, len(seen), 95)
}

func TestNewClassroom(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c, err := NewClassroom("room-1", " 3학년 2반 ", "teacher-1", "AB12CD", at)
	assert.NoError(t, err)
	assert.Equal(t, "3학년 2반", c.Name)
	assert.True(t, c.OwnedBy("teacher-1"))
	assert.False(t, c.OwnedBy("teacher-2"))

	_, err = NewClassroom("room-1", "  ", "teacher-1", "AB12CD", at)
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = NewClassroom("room-1", "name", "", "AB12CD", at)
	assert.ErrorIs(t, err, ErrInvalidTeacherID)
	_, err = NewClassroom("room-1", "name", "teacher-1", "bad", at)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestNewMembership(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m, err := NewMembership("room-1", "user-1", at)
	assert.NoError(t, err)
	assert.Equal(t, "room-1", m.ClassroomID)

	_, err = NewMembership("", "user-1", at)
	assert.Error(t, err)
	_, err = NewMembership("room-1", "", at)
	assert.Error(t, err)
}
