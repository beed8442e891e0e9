package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"weekplan/internal/model"
	"weekplan/internal/timeutil"
)

const productID = "-//weekplan//weekplan//EN"

// Extension properties carrying fields iCalendar has no slot for.
const (
	propType = ical.ComponentProperty("X-WEEKPLAN-TYPE")
	propMeet = ical.ComponentProperty("X-WEEKPLAN-MEET")
)

// Export renders tasks as a VCALENDAR. Each task becomes one VEVENT whose
// UID is the task id; times are the task's wall clock in loc. Tasks without
// a parseable date are skipped.
func Export(tasks []model.Task, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.Local
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, t := range tasks {
		start, end, ok := taskSpan(t, loc)
		if !ok {
			continue
		}
		ev := cal.AddEvent(string(t.ID))
		ev.SetDtStampTime(now.UTC())
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetSummary(t.Title)
		if t.Description != "" {
			ev.SetDescription(t.Description)
		}
		if t.Location != "" {
			ev.SetLocation(t.Location)
		}
		typ := t.Type
		if typ == "" {
			typ = model.TypeEvent
		}
		ev.SetProperty(propType, string(typ))
		if t.HasMeet {
			ev.SetProperty(propMeet, "TRUE")
		}
		if t.Completed {
			ev.SetProperty(ical.ComponentPropertyStatus, "COMPLETED")
		}
	}
	return cal.Serialize()
}

// taskSpan resolves a task's start/end instants with the same defaults the
// grid uses for missing times.
func taskSpan(t model.Task, loc *time.Location) (start, end time.Time, ok bool) {
	day, err := timeutil.ParseDate(t.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	startMin, endMin := 0, 60
	if m, ok := timeutil.ParseTimeOfDay(t.StartTime); ok {
		startMin = m
	}
	if m, ok := timeutil.ParseTimeOfDay(t.EndTime); ok {
		endMin = m
	}
	if endMin <= startMin {
		endMin = startMin + 30
	}
	start = day.Add(time.Duration(startMin) * time.Minute)
	end = day.Add(time.Duration(endMin) * time.Minute)
	return start, end, true
}
