package cooldown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, Gate(time.Time{}, now, Study))
	assert.False(t, Gate(now.Add(-30*time.Minute), now, Study))
	assert.True(t, Gate(now.Add(-Study), now, Study))
	assert.True(t, Gate(now.Add(-2*time.Hour), now, Study))
}

func TestGate_FutureCheckpoint(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// clock skew: checkpoint in the future still blocks
	assert.False(t, Gate(now.Add(10*time.Minute), now, Study))
}

func TestRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Duration(0), Remaining(time.Time{}, now, Chat))
	assert.Equal(t, 40*time.Minute, Remaining(now.Add(-20*time.Minute), now, Chat))
	assert.Equal(t, time.Duration(0), Remaining(now.Add(-3*time.Hour), now, Chat))
}

func TestCheck(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, Check(now.Add(-25*time.Hour), now, Minigame))
	assert.ErrorIs(t, Check(now.Add(-time.Hour), now, Minigame), ErrOnCooldown)
}
