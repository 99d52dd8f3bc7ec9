package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule fires at a fixed period, counted from the end of the
// previous run. Periods below one second are clamped to one second so a
// zero-valued config cannot spin the scheduler loop.
type IntervalSchedule struct {
	period time.Duration
}

// NewIntervalSchedule creates a fixed-period schedule.
func NewIntervalSchedule(period time.Duration) *IntervalSchedule {
	if period < time.Second {
		period = time.Second
	}
	return &IntervalSchedule{period: period}
}

// Next returns the next run time after t.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.period)
}

func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("every %s", s.period)
}
