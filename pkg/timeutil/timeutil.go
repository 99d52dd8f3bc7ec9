// Package timeutil provides timezone utilities for the Seoul timezone (UTC+9).
// This is essential for Studygotchi Hub as the player base is in Korea:
// daily resets, digests and quiet hours all follow KST.
// Handles date formatting, quiet hours, and timezone-aware time operations.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// SeoulTZ is the Seoul timezone (UTC+9, no DST).
// Korea abolished DST in 1988, so this is constant year-round.
var SeoulTZ = time.FixedZone("Asia/Seoul", 9*60*60)

// Now returns the current time in Seoul timezone.
func Now() time.Time {
	return time.Now().In(SeoulTZ)
}

// ToSeoul converts a time to Seoul timezone.
func ToSeoul(t time.Time) time.Time {
	return t.In(SeoulTZ)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a time in Seoul timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, SeoulTZ)
}

// DateTime creates a time in Seoul timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, SeoulTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Seoul timezone.
func StartOfDay(t time.Time) time.Time {
	seoul := ToSeoul(t)
	return time.Date(seoul.Year(), seoul.Month(), seoul.Day(), 0, 0, 0, 0, SeoulTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in Seoul timezone.
func EndOfDay(t time.Time) time.Time {
	seoul := ToSeoul(t)
	return time.Date(seoul.Year(), seoul.Month(), seoul.Day(), 23, 59, 59, 999999999, SeoulTZ)
}

// StartOfWeek returns the start of the week (Monday 00:00:00) in Seoul timezone.
func StartOfWeek(t time.Time) time.Time {
	seoul := ToSeoul(t)
	weekday := int(seoul.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	daysToSubtract := weekday - 1 // Monday = 1
	return StartOfDay(seoul.AddDate(0, 0, -daysToSubtract))
}

// EndOfWeek returns the end of the week (Sunday 23:59:59) in Seoul timezone.
func EndOfWeek(t time.Time) time.Time {
	start := StartOfWeek(t)
	return EndOfDay(start.AddDate(0, 0, 6))
}

// StartOfMonth returns the start of the month in Seoul timezone.
func StartOfMonth(t time.Time) time.Time {
	seoul := ToSeoul(t)
	return time.Date(seoul.Year(), seoul.Month(), 1, 0, 0, 0, 0, SeoulTZ)
}

// EndOfMonth returns the end of the month in Seoul timezone.
func EndOfMonth(t time.Time) time.Time {
	start := StartOfMonth(t)
	return EndOfDay(start.AddDate(0, 1, -1))
}

// IsToday checks if the given time is today in Seoul timezone.
func IsToday(t time.Time) bool {
	now := Now()
	seoul := ToSeoul(t)
	return seoul.Year() == now.Year() &&
		seoul.Month() == now.Month() &&
		seoul.Day() == now.Day()
}

// IsYesterday checks if the given time is yesterday in Seoul timezone.
func IsYesterday(t time.Time) bool {
	yesterday := Now().AddDate(0, 0, -1)
	seoul := ToSeoul(t)
	return seoul.Year() == yesterday.Year() &&
		seoul.Month() == yesterday.Month() &&
		seoul.Day() == yesterday.Day()
}

// IsThisWeek checks if the given time is in the current week.
func IsThisWeek(t time.Time) bool {
	now := Now()
	weekStart := StartOfWeek(now)
	weekEnd := EndOfWeek(now)
	seoul := ToSeoul(t)
	return !seoul.Before(weekStart) && !seoul.After(weekEnd)
}

// DaysSince calculates the number of days since the given time.
func DaysSince(t time.Time) int {
	now := StartOfDay(Now())
	then := StartOfDay(t)
	duration := now.Sub(then)
	return int(duration.Hours() / 24)
}

// Study-day boundaries. Most of the player base studies in the evening,
// so the "active" window is wide.
const (
	// StudyDayStart is when the study day starts (6:00 AM).
	StudyDayStart = 6
	// StudyDayEnd is when the study day ends (2:00 AM next day wraps to 26).
	StudyDayEnd = 24
	// QuietHoursStart is when notifications go quiet (10:00 PM).
	QuietHoursStart = 22
	// QuietHoursEnd is when notifications resume (9:00 AM).
	QuietHoursEnd = 9
)

// IsStudyHours checks if the given time is within the active study window.
func IsStudyHours(t time.Time) bool {
	seoul := ToSeoul(t)
	hour := seoul.Hour()
	return hour >= StudyDayStart && hour < StudyDayEnd
}

// IsWeekend checks if the given time is on a weekend.
func IsWeekend(t time.Time) bool {
	seoul := ToSeoul(t)
	weekday := seoul.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsWorkday checks if the given time is on a workday (Mon-Fri).
func IsWorkday(t time.Time) bool {
	return !IsWeekend(t)
}

// NextWorkday returns the next workday (skipping weekends).
func NextWorkday(t time.Time) time.Time {
	next := ToSeoul(t).AddDate(0, 0, 1)
	for IsWeekend(next) {
		next = next.AddDate(0, 0, 1)
	}
	return StartOfDay(next)
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
	// FormatKoreanDate is the Korean date format (YYYY년 M월 D일).
	FormatKoreanDate = "2006년 1월 2일"
	// FormatHumanDate is a human-readable format.
	FormatHumanDate = "2 January 2006"
	// FormatShortDate is a short format (Jan 2).
	FormatShortDate = "Jan 2"
)

// FormatSeoul formats a time in Seoul timezone with the given layout.
func FormatSeoul(t time.Time, layout string) string {
	return ToSeoul(t).Format(layout)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in Seoul timezone.
func FormatDateStr(t time.Time) string {
	return FormatSeoul(t, FormatDate)
}

// FormatTimeStr formats a time as a time string (HH:MM) in Seoul timezone.
func FormatTimeStr(t time.Time) string {
	return FormatSeoul(t, FormatTime)
}

// FormatDateTimeStr formats a time as datetime string in Seoul timezone.
func FormatDateTimeStr(t time.Time) string {
	return FormatSeoul(t, FormatDateTime)
}

// FormatKorean formats a time in Korean date format (YYYY년 M월 D일).
func FormatKorean(t time.Time) string {
	return FormatSeoul(t, FormatKoreanDate)
}

// FormatRelative returns a human-readable relative time string in Korean.
func FormatRelative(t time.Time) string {
	now := Now()
	seoul := ToSeoul(t)
	duration := now.Sub(seoul)

	if duration < 0 {
		duration = -duration
		return formatFutureDuration(duration)
	}

	return formatPastDuration(duration)
}

func formatPastDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "방금 전"
	case d < time.Hour:
		mins := int(d.Minutes())
		return fmt.Sprintf("%d분 전", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		return fmt.Sprintf("%d시간 전", hours)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "어제"
		}
		return fmt.Sprintf("%d일 전", days)
	case d < 30*24*time.Hour:
		weeks := int(d.Hours() / 24 / 7)
		return fmt.Sprintf("%d주 전", weeks)
	default:
		months := int(d.Hours() / 24 / 30)
		if months < 12 {
			return fmt.Sprintf("%d개월 전", months)
		}
		years := months / 12
		return fmt.Sprintf("%d년 전", years)
	}
}

func formatFutureDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "지금"
	case d < time.Hour:
		mins := int(d.Minutes())
		return fmt.Sprintf("%d분 후", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		return fmt.Sprintf("%d시간 후", hours)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "내일"
		}
		return fmt.Sprintf("%d일 후", days)
	}
}

// ParseSeoul parses a time string in Seoul timezone.
func ParseSeoul(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, SeoulTZ)
}

// ParseDateSeoul parses a date string (YYYY-MM-DD) in Seoul timezone.
func ParseDateSeoul(value string) (time.Time, error) {
	return ParseSeoul(FormatDate, value)
}

// ParseDateTimeSeoul parses a datetime string in Seoul timezone.
func ParseDateTimeSeoul(value string) (time.Time, error) {
	return ParseSeoul(FormatDateTime, value)
}

// Streak-related utilities for study-streak tracking.

// IsSameDay checks if two times are on the same day in Seoul timezone.
func IsSameDay(t1, t2 time.Time) bool {
	s1, s2 := ToSeoul(t1), ToSeoul(t2)
	return s1.Year() == s2.Year() && s1.YearDay() == s2.YearDay()
}

// IsConsecutiveDay checks if t2 is the day after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	s1, s2 := ToSeoul(t1), ToSeoul(t2)
	nextDay := s1.AddDate(0, 0, 1)
	return IsSameDay(nextDay, s2)
}

// DaysBetween calculates the number of days between two times.
func DaysBetween(t1, t2 time.Time) int {
	s1 := StartOfDay(t1)
	s2 := StartOfDay(t2)
	duration := s2.Sub(s1)
	days := int(duration.Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// Notification timing helpers.

// IsSafeNotificationTime checks if it's appropriate to send notifications (9:00-22:00).
func IsSafeNotificationTime(t time.Time) bool {
	seoul := ToSeoul(t)
	hour := seoul.Hour()
	return hour >= QuietHoursEnd && hour < QuietHoursStart
}

// NextSafeNotificationTime returns the next time when notifications are appropriate.
func NextSafeNotificationTime(t time.Time) time.Time {
	seoul := ToSeoul(t)
	hour := seoul.Hour()

	if hour < QuietHoursEnd {
		// Before 9 AM - return 9 AM today
		return DateTime(seoul.Year(), int(seoul.Month()), seoul.Day(), QuietHoursEnd, 0, 0)
	} else if hour >= QuietHoursStart {
		// After 10 PM - return 9 AM tomorrow
		tomorrow := seoul.AddDate(0, 0, 1)
		return DateTime(tomorrow.Year(), int(tomorrow.Month()), tomorrow.Day(), QuietHoursEnd, 0, 0)
	}

	// Already in safe time window
	return seoul
}

// WeekdayNameKo returns the Korean name for a weekday.
func WeekdayNameKo(t time.Time) string {
	seoul := ToSeoul(t)
	switch seoul.Weekday() {
	case time.Monday:
		return "월요일"
	case time.Tuesday:
		return "화요일"
	case time.Wednesday:
		return "수요일"
	case time.Thursday:
		return "목요일"
	case time.Friday:
		return "금요일"
	case time.Saturday:
		return "토요일"
	case time.Sunday:
		return "일요일"
	default:
		return ""
	}
}
