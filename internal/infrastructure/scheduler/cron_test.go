package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression_DigestTime(t *testing.T) {
	// 21:00 каждый день - формат, который собирает worker.
	ce, err := ParseCronExpression("0 21 * * *")
	require.NoError(t, err)

	after := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	next := ce.Next(after)
	assert.Equal(t, time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC), next)

	// После 21:00 - уже завтра.
	next = ce.Next(time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 11, 21, 0, 0, 0, time.UTC), next)
}

func TestParseCronExpression_Steps(t *testing.T) {
	ce, err := ParseCronExpression("*/15 * * * *")
	require.NoError(t, err)

	after := time.Date(2026, 3, 10, 9, 3, 0, 0, time.UTC)
	assert.Equal(t, 15, ce.Next(after).Minute())
}

func TestParseCronExpression_RangeAndList(t *testing.T) {
	// Будни, 9:00 и 18:00.
	ce, err := ParseCronExpression("0 9,18 * * 1-5")
	require.NoError(t, err)

	// 7 марта 2026 - суббота, ближайший будний запуск - понедельник 9:00.
	after := time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)
	next := ce.Next(after)
	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, 9, next.Hour())
}

func TestParseCronExpression_Invalid(t *testing.T) {
	cases := []string{
		"* * * *",      // не хватает поля
		"61 * * * *",   // минута вне диапазона
		"* * * * 7",    // день недели 0-6
		"*/0 * * * *",  // нулевой шаг
		"5-2 * * * *",  // перевёрнутый диапазон
		"abc * * * *",
	}
	for _, expr := range cases {
		_, err := ParseCronExpression(expr)
		assert.Error(t, err, expr)
	}
}

func TestIntervalSchedule_ClampsTinyPeriods(t *testing.T) {
	s := NewIntervalSchedule(0)
	now := time.Now()
	assert.Equal(t, now.Add(time.Second), s.Next(now))
	assert.Equal(t, "every 1s", s.String())
}
