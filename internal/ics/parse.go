package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "weekplan/internal/log"
	"weekplan/internal/model"
	"weekplan/internal/store"
	"weekplan/internal/timeutil"
)

// Import converts the VEVENTs of an ICS payload into tasks keyed by their
// UID, so importing the same feed twice updates rather than duplicates.
//
//   - Recurring events (RRULE) and overridden instances (RECURRENCE-ID) are
//     skipped: recurrences are not expanded.
//   - All-day events become 00:00-23:59 on their start date.
//   - Timed events crossing midnight are cut at 23:59 of their start date.
//   - Each result passes the same validation as a task saved from the form;
//     events that fail it are skipped.
func Import(body []byte, loc *time.Location) ([]model.Task, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	tasks := make([]model.Task, 0)
	for _, ve := range cal.Events() {
		t, err := parseVEvent(ve, loc)
		if err != nil {
			appLog.Warn("ics: skipping vevent", "reason", err.Error())
			continue
		}
		tasks = append(tasks, t)
	}
	appLog.Info("ics import parsed", "task_count", len(tasks))
	return tasks, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (model.Task, error) {
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return model.Task{}, errors.New("missing UID")
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		return model.Task{}, errors.New("recurring event " + uidProp.Value)
	}
	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		return model.Task{}, errors.New("recurrence override " + uidProp.Value)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return model.Task{}, errors.New("missing DTSTART on " + uidProp.Value)
	}

	d := store.Draft{Type: string(model.TypeEvent)}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		d.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		d.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		d.Location = p.Value
	}
	if p := ve.GetProperty(propType); p != nil {
		d.Type = p.Value
	}
	if p := ve.GetProperty(propMeet); p != nil {
		d.HasMeet = strings.EqualFold(p.Value, "TRUE")
	}

	if isAllDay(dtStart) {
		start, err := resolveTime(dtStart, loc, ve.GetAllDayStartAt)
		if err != nil {
			return model.Task{}, err
		}
		d.Date = timeutil.FormatDate(start)
		d.StartTime, d.EndTime = "00:00", "23:59"
	} else {
		start, err := resolveTime(dtStart, loc, ve.GetStartAt)
		if err != nil {
			return model.Task{}, err
		}
		end := start.Add(time.Hour)
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if e, err := resolveTime(dtEnd, loc, ve.GetEndAt); err == nil {
				end = e
			}
		}
		d.Date = timeutil.FormatDate(start)
		d.StartTime = start.Format("15:04")
		if timeutil.FormatDate(end) != d.Date {
			d.EndTime = "23:59"
		} else {
			d.EndTime = end.Format("15:04")
		}
	}

	if err := d.Validate(); err != nil {
		return model.Task{}, err
	}
	typ, _ := model.ParseTaskType(d.Type)
	t := model.Task{
		ID:          model.TaskID(uidProp.Value),
		Title:       strings.TrimSpace(d.Title),
		Date:        d.Date,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		Description: d.Description,
		Location:    d.Location,
		Type:        typ,
		HasMeet:     d.HasMeet,
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil && strings.EqualFold(p.Value, "COMPLETED") {
		t.Completed = true
	}
	return t, nil
}

func isAllDay(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// resolveTime converts a DTSTART/DTEND into loc. Floating values (no TZID,
// no trailing Z) are local wall clock and are read directly in loc; the
// library handles UTC and TZID forms.
func resolveTime(p *ical.IANAProperty, loc *time.Location, viaLib func() (time.Time, error)) (time.Time, error) {
	_, hasTZ := p.ICalParameters["TZID"]
	if !hasTZ && !strings.HasSuffix(p.Value, "Z") {
		return parseFloating(p.Value, loc)
	}
	t, err := viaLib()
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

func parseFloating(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}
