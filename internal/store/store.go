// Package store is the task collection: CRUD keyed by id over the session
// repository, each mutation a complete load-all/change-one/save-all.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	appLog "weekplan/internal/log"
	"weekplan/internal/model"
	"weekplan/internal/session"
	"weekplan/internal/timeutil"
)

// Write-boundary validation errors.
var (
	ErrEmptyTitle       = errors.New("please add a title")
	ErrMissingDate      = errors.New("date is required (YYYY-MM-DD)")
	ErrInvalidTimeRange = errors.New("end time must be after start time")
	ErrInvalidType      = errors.New("type must be one of event, task, appointment")
)

// IsValidation reports whether err is one of the write-boundary errors.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyTitle) ||
		errors.Is(err, ErrMissingDate) ||
		errors.Is(err, ErrInvalidTimeRange) ||
		errors.Is(err, ErrInvalidType)
}

// Filter narrows a date listing by completion status.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterCompleted Filter = "completed"
	FilterPending   Filter = "pending"
)

// ParseFilter maps a query value onto a Filter; unknown values mean all.
func ParseFilter(s string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterCompleted:
		return FilterCompleted
	case FilterPending:
		return FilterPending
	default:
		return FilterAll
	}
}

// Match reports whether t passes the filter.
func (f Filter) Match(t model.Task) bool {
	switch f {
	case FilterCompleted:
		return t.Completed
	case FilterPending:
		return !t.Completed
	default:
		return true
	}
}

// Store serialises every operation so that concurrent HTTP handlers and the
// reminder tick never interleave inside a read-modify-write.
type Store struct {
	repo  *session.Repository
	newID func() (model.TaskID, error)

	mu sync.Mutex
}

// Option customises a Store.
type Option func(*Store)

// WithIDGenerator replaces the UUIDv7 id source, mainly for tests.
func WithIDGenerator(gen func() (model.TaskID, error)) Option {
	return func(s *Store) { s.newID = gen }
}

func New(repo *session.Repository, opts ...Option) *Store {
	s := &Store{repo: repo, newID: newUUIDv7}
	for _, o := range opts {
		o(s)
	}
	return s
}

// newUUIDv7 derives ids from the creation time; uuid guarantees ordering and
// uniqueness for ids created within the same millisecond.
func newUUIDv7() (model.TaskID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return model.TaskID(id.String()), nil
}

// List returns every stored task. Order carries no meaning.
func (s *Store) List(ctx context.Context) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.LoadTasks(ctx)
}

// ListForDate returns the tasks on date (YYYY-MM-DD) that match f.
func (s *Store) ListForDate(ctx context.Context, date string, f Filter) ([]model.Task, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Task, 0)
	for _, t := range all {
		if t.Date == date && f.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Get returns the task with id, if present.
func (s *Store) Get(ctx context.Context, id model.TaskID) (model.Task, bool, error) {
	all, err := s.List(ctx)
	if err != nil {
		return model.Task{}, false, err
	}
	for _, t := range all {
		if t.ID == id {
			return t, true, nil
		}
	}
	return model.Task{}, false, nil
}

// Upsert replaces the task with the same id, or appends it. A task without
// an id is assigned a fresh one. The stored task is returned.
func (s *Store) Upsert(ctx context.Context, task model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == "" {
		id, err := s.newID()
		if err != nil {
			return model.Task{}, fmt.Errorf("generate task id: %w", err)
		}
		task.ID = id
	}
	if task.Type == "" {
		task.Type = model.TypeEvent
	}

	tasks, err := s.repo.LoadTasks(ctx)
	if err != nil {
		return model.Task{}, err
	}
	replaced := false
	for i := range tasks {
		if tasks[i].ID == task.ID {
			tasks[i] = task
			replaced = true
			break
		}
	}
	if !replaced {
		tasks = append(tasks, task)
	}
	if err := s.repo.SaveTasks(ctx, tasks); err != nil {
		return model.Task{}, err
	}

	appLog.Debug("task saved", "id", task.ID, "date", task.Date, "replaced", replaced)
	return task, nil
}

// Create validates d and stores it as a new, not completed task.
func (s *Store) Create(ctx context.Context, d Draft) (model.Task, error) {
	if err := d.Validate(); err != nil {
		return model.Task{}, err
	}
	t := d.apply(model.Task{})
	return s.Upsert(ctx, t)
}

// Update validates d and applies it to the task with id, keeping the id and
// completion state. found is false (and nothing is written) when id is
// absent.
func (s *Store) Update(ctx context.Context, id model.TaskID, d Draft) (task model.Task, found bool, err error) {
	if err := d.Validate(); err != nil {
		return model.Task{}, false, err
	}
	err = s.mutate(ctx, id, func(t *model.Task) {
		*t = d.apply(*t)
		task = *t
		found = true
	})
	return task, found, err
}

// Remove deletes the task with id. Removing an absent id is a no-op and
// reports false.
func (s *Store) Remove(ctx context.Context, id model.TaskID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.repo.LoadTasks(ctx)
	if err != nil {
		return false, err
	}
	kept := tasks[:0]
	removed := false
	for _, t := range tasks {
		if t.ID == id {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	if !removed {
		return false, nil
	}
	if err := s.repo.SaveTasks(ctx, kept); err != nil {
		return false, err
	}
	appLog.Debug("task removed", "id", id)
	return true, nil
}

// SetCompleted sets the completion flag of the task with id.
func (s *Store) SetCompleted(ctx context.Context, id model.TaskID, completed bool) (bool, error) {
	found := false
	err := s.mutate(ctx, id, func(t *model.Task) {
		t.Completed = completed
		found = true
	})
	return found, err
}

// Toggle flips the completion flag of the task with id and returns the new
// state.
func (s *Store) Toggle(ctx context.Context, id model.TaskID) (completed, found bool, err error) {
	err = s.mutate(ctx, id, func(t *model.Task) {
		t.Completed = !t.Completed
		completed = t.Completed
		found = true
	})
	return completed, found, err
}

// mutate runs fn on the task with id and persists the whole collection. It
// writes nothing when id is absent.
func (s *Store) mutate(ctx context.Context, id model.TaskID, fn func(*model.Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.repo.LoadTasks(ctx)
	if err != nil {
		return err
	}
	for i := range tasks {
		if tasks[i].ID == id {
			fn(&tasks[i])
			return s.repo.SaveTasks(ctx, tasks)
		}
	}
	return nil
}

// Draft carries the field values the presentation submits on save.
type Draft struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Type        string `json:"type"`
	HasMeet     bool   `json:"hasMeet"`
}

// Validate applies the write-boundary rules: non-empty title, a parseable
// date, startTime strictly before endTime (lexical comparison of zero-padded
// HH:MM) and a known type.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	if _, err := time.Parse(timeutil.DateLayout, strings.TrimSpace(d.Date)); err != nil {
		return ErrMissingDate
	}
	if _, ok := timeutil.ParseTimeOfDay(d.StartTime); !ok || len(d.StartTime) != 5 {
		return fmt.Errorf("%w: start %q", ErrInvalidTimeRange, d.StartTime)
	}
	if _, ok := timeutil.ParseTimeOfDay(d.EndTime); !ok || len(d.EndTime) != 5 {
		return fmt.Errorf("%w: end %q", ErrInvalidTimeRange, d.EndTime)
	}
	if d.StartTime >= d.EndTime {
		return ErrInvalidTimeRange
	}
	if _, ok := model.ParseTaskType(d.Type); !ok {
		return ErrInvalidType
	}
	return nil
}

func (d Draft) apply(t model.Task) model.Task {
	typ, _ := model.ParseTaskType(d.Type)
	t.Title = strings.TrimSpace(d.Title)
	t.Date = strings.TrimSpace(d.Date)
	t.StartTime = d.StartTime
	t.EndTime = d.EndTime
	t.Description = d.Description
	t.Location = d.Location
	t.Type = typ
	t.HasMeet = d.HasMeet
	return t
}
