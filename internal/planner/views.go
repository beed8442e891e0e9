package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"weekplan/internal/layout"
	"weekplan/internal/model"
	"weekplan/internal/store"
	"weekplan/internal/timeutil"
)

// WeekView is everything needed to draw the time grid for the current week.
// Building it has no side effects, so it can be rebuilt after any mutation.
type WeekView struct {
	Start      string      `json:"start"`
	End        string      `json:"end"`
	Label      string      `json:"label"`
	Filter     string      `json:"filter"`
	HourHeight float64     `json:"hourHeight"`
	HourLabels []string    `json:"hourLabels"`
	Days       []DayColumn `json:"days"`
}

type DayColumn struct {
	Date    string       `json:"date"`
	Weekday string       `json:"weekday"`
	Day     int          `json:"day"`
	IsToday bool         `json:"isToday"`
	Holiday string       `json:"holiday,omitempty"`
	Events  []PlacedTask `json:"events"`
}

// PlacedTask is a task with its grid geometry and display colour.
type PlacedTask struct {
	model.Task
	layout.Geometry
	// Color is empty for completed tasks, which render greyed out.
	Color string `json:"color,omitempty"`
}

// Week builds the week view for the cursor's current week.
func (p *Planner) Week(ctx context.Context, f store.Filter) (WeekView, error) {
	start, end := p.cursor.WeekRange()
	days, err := layout.WeekDays(start)
	if err != nil {
		return WeekView{}, err
	}
	all, err := p.store.List(ctx)
	if err != nil {
		return WeekView{}, err
	}
	byDate := make(map[string][]model.Task)
	for _, t := range all {
		byDate[t.Date] = append(byDate[t.Date], t)
	}

	today := timeutil.FormatDate(p.cursor.Now())
	view := WeekView{
		Start:      timeutil.FormatDate(start),
		End:        timeutil.FormatDate(end),
		Label:      WeekLabel(start, end),
		Filter:     string(f),
		HourHeight: p.layout.UnitsPerHour(),
		HourLabels: layout.HourLabels(),
		Days:       make([]DayColumn, 0, len(days)),
	}
	for _, d := range days {
		date := timeutil.FormatDate(d)
		col := DayColumn{
			Date:    date,
			Weekday: strings.ToUpper(d.Weekday().String()[:3]),
			Day:     d.Day(),
			IsToday: date == today,
			Events:  make([]PlacedTask, 0),
		}
		if label, ok := p.holidays.Lookup(date); ok {
			col.Holiday = label
		}
		for _, t := range byDate[date] {
			if !f.Match(t) {
				continue
			}
			pt := PlacedTask{Task: t, Geometry: p.layout.Compute(t)}
			if !t.Completed {
				pt.Color = t.Type.Color()
			}
			col.Events = append(col.Events, pt)
		}
		view.Days = append(view.Days, col)
	}
	return view, nil
}

// WeekLabel renders "Jan 26 - Feb 1, 2026".
func WeekLabel(start, end time.Time) string {
	return fmt.Sprintf("%s %d - %s %d, %d", start.Month().String()[:3], start.Day(), end.Month().String()[:3], end.Day(), end.Year())
}

// MonthView is the mini-calendar for the cursor's displayed month.
type MonthView struct {
	Year          int        `json:"year"`
	Month         int        `json:"month"`
	Label         string     `json:"label"`
	LeadingBlanks int        `json:"leadingBlanks"`
	Days          []MonthDay `json:"days"`
}

type MonthDay struct {
	Date    string `json:"date"`
	Day     int    `json:"day"`
	Today   bool   `json:"today"`
	Holiday string `json:"holiday,omitempty"`
	// Active marks days inside the week shown on the grid.
	Active bool `json:"active"`
}

// Month builds the mini-calendar view.
func (p *Planner) Month() (MonthView, error) {
	year, month := p.cursor.MonthContext()
	grid, err := layout.BuildMonthGrid(year, month, p.cursor.Location())
	if err != nil {
		return MonthView{}, err
	}

	today := timeutil.FormatDate(p.cursor.Now())
	current := timeutil.FormatDate(p.cursor.WeekStart())
	view := MonthView{
		Year:          year,
		Month:         int(month),
		Label:         fmt.Sprintf("%s %d", month.String(), year),
		LeadingBlanks: grid.LeadingBlanks,
		Days:          make([]MonthDay, 0, len(grid.Days)),
	}
	for _, d := range grid.Days {
		date := timeutil.FormatDate(d)
		md := MonthDay{
			Date:   date,
			Day:    d.Day(),
			Today:  date == today,
			Active: timeutil.FormatDate(timeutil.StartOfWeek(d)) == current,
		}
		if label, ok := p.holidays.Lookup(date); ok {
			md.Holiday = label
		}
		view.Days = append(view.Days, md)
	}
	return view, nil
}
