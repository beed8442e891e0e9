package layout

import (
	"time"

	"github.com/teambition/rrule-go"

	"weekplan/internal/timeutil"
)

// WeekDays returns the seven local midnights starting at weekStart.
func WeekDays(weekStart time.Time) ([]time.Time, error) {
	return dailyRun(timeutil.Midnight(weekStart), 7)
}

// MonthGrid is the day layout of the mini-calendar for one month.
type MonthGrid struct {
	Year  int
	Month time.Month
	// LeadingBlanks is the number of empty cells before day 1 in a
	// Sunday-first row.
	LeadingBlanks int
	Days          []time.Time
}

// BuildMonthGrid enumerates every day of year/month at local midnight in loc.
func BuildMonthGrid(year int, month time.Month, loc *time.Location) (MonthGrid, error) {
	if loc == nil {
		loc = time.Local
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	days, err := dailyRun(first, timeutil.DaysIn(year, month))
	if err != nil {
		return MonthGrid{}, err
	}
	return MonthGrid{
		Year:          year,
		Month:         month,
		LeadingBlanks: int(first.Weekday()),
		Days:          days,
	}, nil
}

func dailyRun(start time.Time, count int) ([]time.Time, error) {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Count:   count,
		Dtstart: start,
	})
	if err != nil {
		return nil, err
	}
	return r.All(), nil
}
