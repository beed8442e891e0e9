// Package timeutil holds the date/time math shared by the planner: Monday
// aligned weeks, ISO calendar dates and "HH:MM" wall-clock strings.
package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the persisted calendar-date format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ErrInvalidTimeOfDay is returned when an "HH:MM" string cannot be parsed.
var ErrInvalidTimeOfDay = errors.New("invalid time of day")

// StartOfWeek returns the Monday at 00:00:00 of the week containing t, in
// t's location. Sunday belongs to the week of the preceding Monday.
func StartOfWeek(t time.Time) time.Time {
	day := Midnight(t)
	offset := int(day.Weekday()) - 1
	if day.Weekday() == time.Sunday {
		offset = 6
	}
	return day.AddDate(0, 0, -offset)
}

// Midnight truncates t to 00:00 on the same local calendar day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FormatDate renders the local calendar fields of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string as local midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
}

// ParseTimeOfDay parses "HH:MM" into minutes since midnight. ok is false for
// empty or malformed input, including out-of-range hours or minutes.
func ParseTimeOfDay(s string) (minutes int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || parts[0] == "" || len(parts[1]) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// MinutesSinceMidnight parses "HH:MM" and returns 0 for absent or malformed
// input.
func MinutesSinceMidnight(s string) int {
	m, _ := ParseTimeOfDay(s)
	return m
}

// FormatTimeOfDay renders minutes since midnight as zero-padded "HH:MM".
func FormatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// WallClock combines a YYYY-MM-DD date and an "HH:MM" time into an instant
// in loc.
func WallClock(date, hhmm string, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	mins, ok := ParseTimeOfDay(hhmm)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, hhmm)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), mins/60, mins%60, 0, 0, day.Location()), nil
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves t by n calendar months, clamping the day of month so that
// Jan 31 + 1 month lands on the last day of February instead of overflowing
// into March.
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	day := t.Day()
	if max := DaysIn(first.Year(), first.Month()); day > max {
		day = max
	}
	return first.AddDate(0, 0, day-1)
}

// DefaultSlot returns the start/end strings offered for a new task created
// at now: the next full hour to the hour after that, wrapping at midnight.
func DefaultSlot(now time.Time) (start, end string) {
	next := (now.Hour() + 1) % 24
	return FormatTimeOfDay(next * 60), FormatTimeOfDay(((next + 1) % 24) * 60)
}
