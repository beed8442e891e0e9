package timeutil

import (
	"testing"
	"time"
)

func TestStartOfWeek(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2026, 3, 9, 0, 0, 0, 0, loc), "2026-03-09"},    // Monday
		{time.Date(2026, 3, 10, 15, 4, 5, 9, loc), "2026-03-09"},  // Tuesday
		{time.Date(2026, 3, 14, 23, 59, 0, 0, loc), "2026-03-09"}, // Saturday
		{time.Date(2026, 3, 15, 8, 0, 0, 0, loc), "2026-03-09"},   // Sunday
		{time.Date(2026, 3, 16, 0, 0, 1, 0, loc), "2026-03-16"},   // next Monday
		{time.Date(2026, 1, 1, 12, 0, 0, 0, loc), "2025-12-29"},   // across a year
	}
	for _, tc := range cases {
		got := StartOfWeek(tc.in)
		if FormatDate(got) != tc.want {
			t.Errorf("StartOfWeek(%v) = %s, want %s", tc.in, FormatDate(got), tc.want)
		}
		if got.Weekday() != time.Monday {
			t.Errorf("StartOfWeek(%v) weekday = %v", tc.in, got.Weekday())
		}
		if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Nanosecond() != 0 {
			t.Errorf("StartOfWeek(%v) = %v, not midnight", tc.in, got)
		}
		if got.Location() != loc {
			t.Errorf("StartOfWeek changed location to %v", got.Location())
		}
		if again := StartOfWeek(got); !again.Equal(got) {
			t.Errorf("StartOfWeek not idempotent: %v -> %v", got, again)
		}
	}
}

func TestStartOfWeekEveryDayOfYear(t *testing.T) {
	d := time.Date(2026, 1, 1, 13, 30, 0, 0, time.UTC)
	for i := 0; i < 366; i++ {
		day := d.AddDate(0, 0, i)
		ws := StartOfWeek(day)
		if ws.Weekday() != time.Monday {
			t.Fatalf("StartOfWeek(%s) = %s is a %v", FormatDate(day), FormatDate(ws), ws.Weekday())
		}
		if diff := Midnight(day).Sub(ws); diff < 0 || diff >= 7*24*time.Hour {
			t.Fatalf("StartOfWeek(%s) = %s is not within the same week", FormatDate(day), FormatDate(ws))
		}
	}
}

func TestFormatDateUsesLocalFields(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// 2026-08-14T20:00Z is already the 15th in UTC+10.
	in := time.Date(2026, 8, 14, 20, 0, 0, 0, time.UTC).In(loc)
	if got := FormatDate(in); got != "2026-08-15" {
		t.Errorf("FormatDate = %s, want 2026-08-15", got)
	}
	if got := FormatDate(time.Date(7, 2, 3, 0, 0, 0, 0, time.UTC)); got != "0007-02-03" {
		t.Errorf("FormatDate did not zero-pad: %s", got)
	}
}

func TestMinutesSinceMidnight(t *testing.T) {
	cases := map[string]int{
		"00:00": 0,
		"09:00": 540,
		"9:30":  570,
		"23:59": 1439,
		"":      0,
		"abc":   0,
		"10":    0,
		"10:5":  0,
		"25:00": 0,
		"10:60": 0,
		"-1:00": 0,
	}
	for in, want := range cases {
		if got := MinutesSinceMidnight(in); got != want {
			t.Errorf("MinutesSinceMidnight(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestWallClock(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	got, err := WallClock("2026-01-26", "10:00", loc)
	if err != nil {
		t.Fatalf("WallClock: %v", err)
	}
	want := time.Date(2026, 1, 26, 10, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("WallClock = %v, want %v", got, want)
	}
	if _, err := WallClock("2026-01-26", "nope", loc); err == nil {
		t.Error("expected error for malformed time")
	}
	if _, err := WallClock("26/01/2026", "10:00", loc); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestAddMonthsClampsDay(t *testing.T) {
	cases := []struct {
		in   time.Time
		n    int
		want string
	}{
		{time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), 1, "2026-02-28"},
		{time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), -1, "2026-02-28"},
		{time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC), 1, "2027-01-15"},
		{time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), -1, "2025-12-15"},
		{time.Date(2028, 1, 30, 0, 0, 0, 0, time.UTC), 1, "2028-02-29"},
	}
	for _, tc := range cases {
		if got := FormatDate(AddMonths(tc.in, tc.n)); got != tc.want {
			t.Errorf("AddMonths(%s, %d) = %s, want %s", FormatDate(tc.in), tc.n, got, tc.want)
		}
	}
}

func TestDefaultSlot(t *testing.T) {
	cases := []struct {
		hour, min  int
		start, end string
	}{
		{9, 12, "10:00", "11:00"},
		{22, 0, "23:00", "00:00"},
		{23, 45, "00:00", "01:00"},
	}
	for _, tc := range cases {
		start, end := DefaultSlot(time.Date(2026, 5, 5, tc.hour, tc.min, 0, 0, time.UTC))
		if start != tc.start || end != tc.end {
			t.Errorf("DefaultSlot(%02d:%02d) = %s-%s, want %s-%s", tc.hour, tc.min, start, end, tc.start, tc.end)
		}
	}
}
