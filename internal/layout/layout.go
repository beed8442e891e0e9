// Package layout maps tasks onto the 24-hour week grid.
//
// Geometry is in grid units where one hour is HourHeight units; the renderer
// must draw its hour rows with the same constant. Overlapping tasks are not
// offset horizontally: they simply overlap.
package layout

import (
	"fmt"

	"weekplan/internal/model"
	"weekplan/internal/timeutil"
)

const (
	DefaultHourHeight  = 50
	DefaultMinDuration = 30 // minutes

	defaultStart = "00:00"
	defaultEnd   = "01:00"
)

// Geometry is the vertical placement of one task in its day column.
type Geometry struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Engine computes task geometry. The zero value uses the defaults.
type Engine struct {
	// HourHeight is the height of one hour row (H).
	HourHeight float64
	// MinDuration is the visual floor in minutes. It never changes the
	// stored task.
	MinDuration int
}

// UnitsPerHour is HourHeight or its default.
func (e Engine) UnitsPerHour() float64 {
	if e.HourHeight <= 0 {
		return DefaultHourHeight
	}
	return e.HourHeight
}

func (e Engine) minDuration() int {
	if e.MinDuration <= 0 {
		return DefaultMinDuration
	}
	return e.MinDuration
}

// Compute places t on the grid. Missing times default to 00:00-01:00;
// malformed times count as midnight.
func (e Engine) Compute(t model.Task) Geometry {
	startStr, endStr := t.StartTime, t.EndTime
	if startStr == "" {
		startStr = defaultStart
	}
	if endStr == "" {
		endStr = defaultEnd
	}
	start := timeutil.MinutesSinceMidnight(startStr)
	end := timeutil.MinutesSinceMidnight(endStr)

	duration := end - start
	if min := e.minDuration(); duration < min {
		duration = min
	}

	h := e.UnitsPerHour()
	return Geometry{
		Top:    float64(start) / 60 * h,
		Height: float64(duration) / 60 * h,
	}
}

// GridHeight is the full height of a day column.
func (e Engine) GridHeight() float64 {
	return 24 * e.UnitsPerHour()
}

// HourLabels returns the 24 sidebar labels, "12 AM" through "11 PM".
func HourLabels() []string {
	labels := make([]string, 0, 24)
	for i := 0; i < 24; i++ {
		switch {
		case i == 0:
			labels = append(labels, "12 AM")
		case i < 12:
			labels = append(labels, fmt.Sprintf("%d AM", i))
		case i == 12:
			labels = append(labels, "12 PM")
		default:
			labels = append(labels, fmt.Sprintf("%d PM", i-12))
		}
	}
	return labels
}
