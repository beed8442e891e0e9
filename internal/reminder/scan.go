// Package reminder fires one notification per task shortly before it starts.
//
// Scan is the pure decision step; Engine wraps it with the task source, the
// persisted ledger, a permission gate and a dispatcher, and runs it on a
// cron schedule.
package reminder

import (
	"time"

	"weekplan/internal/model"
	"weekplan/internal/timeutil"
)

const (
	DefaultWindow   = 15 * time.Minute
	DefaultSchedule = "@every 60s"
	DefaultIcon     = "https://cdn-icons-png.flaticon.com/512/2693/2693507.png"
)

// Ledger is the ordered set of task ids already reminded this session. It
// only grows; methods return new ledgers and never modify the receiver.
type Ledger struct {
	ids []model.TaskID
}

func NewLedger(ids []model.TaskID) Ledger {
	out := Ledger{}
	for _, id := range ids {
		out = out.With(id)
	}
	return out
}

func (l Ledger) Contains(id model.TaskID) bool {
	for _, x := range l.ids {
		if x == id {
			return true
		}
	}
	return false
}

// With returns l plus id.
func (l Ledger) With(id model.TaskID) Ledger {
	if l.Contains(id) {
		return l
	}
	ids := make([]model.TaskID, len(l.ids), len(l.ids)+1)
	copy(ids, l.ids)
	return Ledger{ids: append(ids, id)}
}

func (l Ledger) IDs() []model.TaskID {
	out := make([]model.TaskID, len(l.ids))
	copy(out, l.ids)
	return out
}

func (l Ledger) Len() int { return len(l.ids) }

// ScanOptions tunes Scan. Zero values use the defaults.
type ScanOptions struct {
	Window   time.Duration
	Location *time.Location
	Icon     string
}

// Decision is the result of one scan.
type Decision struct {
	Fire   []model.Notification
	Ledger Ledger
}

// Added reports whether the scan put anything new into the ledger.
func (d Decision) Added() bool { return len(d.Fire) > 0 }

// Scan picks every task that is dated, timed, not completed, not in ledger,
// and starts within (0, window] of now. It returns the notifications to fire
// and the ledger including their ids.
func Scan(tasks []model.Task, now time.Time, ledger Ledger, opts ScanOptions) Decision {
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	loc := opts.Location
	if loc == nil {
		loc = now.Location()
	}
	icon := opts.Icon
	if icon == "" {
		icon = DefaultIcon
	}

	out := Decision{Ledger: ledger}
	for _, t := range tasks {
		if t.Date == "" || t.StartTime == "" || t.Completed {
			continue
		}
		if out.Ledger.Contains(t.ID) {
			continue
		}
		start, err := timeutil.WallClock(t.Date, t.StartTime, loc)
		if err != nil {
			continue
		}
		diff := start.Sub(now)
		if diff <= 0 || diff > window {
			continue
		}
		out.Fire = append(out.Fire, notificationFor(t, icon))
		out.Ledger = out.Ledger.With(t.ID)
	}
	return out
}

func notificationFor(t model.Task, icon string) model.Notification {
	body := "Starts at " + t.StartTime
	if t.Location != "" {
		body += " at " + t.Location
	}
	return model.Notification{
		TaskID: t.ID,
		Title:  "Upcoming Event: " + t.Title,
		Body:   body,
		Icon:   icon,
	}
}
