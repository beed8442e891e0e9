// Package cursor owns the "current week" shown on the grid and the month
// browsed in the mini-calendar. The two are deliberately independent:
// browsing months never moves the grid until a day is selected.
package cursor

import (
	"context"
	"sync"
	"time"

	appLog "weekplan/internal/log"
	"weekplan/internal/session"
	"weekplan/internal/timeutil"
)

// Cursor is safe for concurrent use.
type Cursor struct {
	repo *session.Repository
	loc  *time.Location
	now  func() time.Time

	mu           sync.RWMutex
	weekStart    time.Time
	calendarDate time.Time
}

// Config wires a Cursor. Now and Location default to time.Now / time.Local.
type Config struct {
	Repo     *session.Repository
	Location *time.Location
	Now      func() time.Time
}

// Load restores the cursor from the repository. Without saved state the
// week defaults to the current one; the mini-calendar starts on the month
// of the restored week.
func Load(ctx context.Context, cfg Config) (*Cursor, error) {
	c := &Cursor{repo: cfg.Repo, loc: cfg.Location, now: cfg.Now}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.now == nil {
		c.now = time.Now
	}

	ref := c.now().In(c.loc)
	if c.repo != nil {
		saved, ok, err := c.repo.LoadWeekStart(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			ref = saved.In(c.loc)
		}
	}

	c.weekStart = timeutil.StartOfWeek(ref)
	c.calendarDate = c.weekStart
	appLog.Debug("cursor loaded", "week_start", timeutil.FormatDate(c.weekStart))
	return c, nil
}

// GoToToday moves both the week grid and the mini-calendar to now.
func (c *Cursor) GoToToday(ctx context.Context) error {
	now := c.now().In(c.loc)
	ws := timeutil.StartOfWeek(now)
	if err := c.persist(ctx, ws); err != nil {
		return err
	}

	c.mu.Lock()
	c.weekStart = ws
	c.calendarDate = now
	c.mu.Unlock()
	return nil
}

// SelectDate moves the week grid to the week containing d. The month shown
// by the mini-calendar is left alone.
func (c *Cursor) SelectDate(ctx context.Context, d time.Time) error {
	ws := timeutil.StartOfWeek(d.In(c.loc))
	if err := c.persist(ctx, ws); err != nil {
		return err
	}

	c.mu.Lock()
	c.weekStart = ws
	c.mu.Unlock()
	return nil
}

// SelectDateString is SelectDate for a YYYY-MM-DD string.
func (c *Cursor) SelectDateString(ctx context.Context, date string) error {
	d, err := timeutil.ParseDate(date, c.loc)
	if err != nil {
		return err
	}
	return c.SelectDate(ctx, d)
}

// ShiftMonth moves the mini-calendar by delta months. The week grid is
// never touched and nothing is persisted.
func (c *Cursor) ShiftMonth(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calendarDate = timeutil.AddMonths(c.calendarDate, delta)
}

// WeekStart is the Monday midnight of the displayed week.
func (c *Cursor) WeekStart() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.weekStart
}

// WeekRange returns the displayed week's Monday and Sunday (both local
// midnight, inclusive).
func (c *Cursor) WeekRange() (start, end time.Time) {
	ws := c.WeekStart()
	return ws, ws.AddDate(0, 0, 6)
}

// CalendarDate is the reference date of the mini-calendar.
func (c *Cursor) CalendarDate() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.calendarDate
}

// MonthContext is the year and month shown by the mini-calendar.
func (c *Cursor) MonthContext() (int, time.Month) {
	d := c.CalendarDate()
	return d.Year(), d.Month()
}

// Location is the wall-clock zone of the cursor.
func (c *Cursor) Location() *time.Location { return c.loc }

// Now returns the cursor's clock reading in its location.
func (c *Cursor) Now() time.Time { return c.now().In(c.loc) }

func (c *Cursor) persist(ctx context.Context, weekStart time.Time) error {
	if c.repo == nil {
		return nil
	}
	return c.repo.SaveWeekStart(ctx, weekStart)
}
