// Package planner is the single controller the presentation layer talks to.
// It owns the task store, the week cursor, the layout engine and the holiday
// table, and builds the week and month render models from them.
package planner

import (
	"context"
	"time"

	"weekplan/internal/cursor"
	"weekplan/internal/holiday"
	"weekplan/internal/layout"
	"weekplan/internal/model"
	"weekplan/internal/store"
	"weekplan/internal/timeutil"
)

type Planner struct {
	store    *store.Store
	cursor   *cursor.Cursor
	layout   layout.Engine
	holidays *holiday.Table
}

func New(s *store.Store, c *cursor.Cursor, le layout.Engine, h *holiday.Table) *Planner {
	return &Planner{store: s, cursor: c, layout: le, holidays: h}
}

func (p *Planner) Store() *store.Store    { return p.store }
func (p *Planner) Cursor() *cursor.Cursor { return p.cursor }

func (p *Planner) ListTasksForDate(ctx context.Context, date string, f store.Filter) ([]model.Task, error) {
	return p.store.ListForDate(ctx, date, f)
}

// UpsertTask creates a task from d when id is empty, otherwise updates the
// task with id. found is false for an update of an absent id.
func (p *Planner) UpsertTask(ctx context.Context, id model.TaskID, d store.Draft) (task model.Task, found bool, err error) {
	if id == "" {
		task, err = p.store.Create(ctx, d)
		return task, err == nil, err
	}
	return p.store.Update(ctx, id, d)
}

func (p *Planner) DeleteTask(ctx context.Context, id model.TaskID) (bool, error) {
	return p.store.Remove(ctx, id)
}

func (p *Planner) ToggleCompleted(ctx context.Context, id model.TaskID) (completed, found bool, err error) {
	return p.store.Toggle(ctx, id)
}

func (p *Planner) ComputeLayout(t model.Task) layout.Geometry {
	return p.layout.Compute(t)
}

func (p *Planner) CurrentWeekRange() (start, end time.Time) {
	return p.cursor.WeekRange()
}

func (p *Planner) CurrentMonthContext() (int, time.Month) {
	return p.cursor.MonthContext()
}

func (p *Planner) GoToToday(ctx context.Context) error {
	return p.cursor.GoToToday(ctx)
}

func (p *Planner) SelectDate(ctx context.Context, date string) error {
	return p.cursor.SelectDateString(ctx, date)
}

func (p *Planner) ShiftDisplayedMonth(delta int) {
	p.cursor.ShiftMonth(delta)
}

// NewTaskDefaults returns the prefilled values for a fresh task on date
// (today when empty).
func (p *Planner) NewTaskDefaults(date string) store.Draft {
	now := p.cursor.Now()
	if date == "" {
		date = timeutil.FormatDate(now)
	}
	start, end := timeutil.DefaultSlot(now)
	return store.Draft{Date: date, StartTime: start, EndTime: end, Type: string(model.TypeEvent)}
}

// ImportTasks upserts already-validated tasks (for example from an ICS
// feed) by id and returns how many were written.
func (p *Planner) ImportTasks(ctx context.Context, tasks []model.Task) (int, error) {
	n := 0
	for _, t := range tasks {
		if _, err := p.store.Upsert(ctx, t); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
