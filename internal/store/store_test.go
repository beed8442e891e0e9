package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"weekplan/internal/model"
	"weekplan/internal/session"
)

func newTestStore() *Store {
	n := 0
	return New(session.NewRepository(session.NewMemory()), WithIDGenerator(func() (model.TaskID, error) {
		n++
		return model.TaskID(fmt.Sprintf("id-%d", n)), nil
	}))
}

func validDraft() Draft {
	return Draft{
		Title:     "  Design review ",
		Date:      "2026-08-15",
		StartTime: "09:00",
		EndTime:   "10:00",
		Location:  "Room 4",
		Type:      "appointment",
		HasMeet:   true,
	}
}

func TestCreateAndListForDate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	created, err := s.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "id-1" || created.Title != "Design review" || created.Type != model.TypeAppointment || created.Completed {
		t.Fatalf("unexpected created task: %+v", created)
	}

	got, err := s.ListForDate(ctx, "2026-08-15", FilterAll)
	if err != nil {
		t.Fatalf("ListForDate: %v", err)
	}
	if len(got) != 1 || got[0] != created {
		t.Fatalf("ListForDate = %+v, want [%+v]", got, created)
	}

	other, _ := s.ListForDate(ctx, "2026-08-16", FilterAll)
	if len(other) != 0 {
		t.Errorf("expected no tasks on another date, got %d", len(other))
	}
}

func TestUpsertRoundTripByID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	task := model.Task{ID: "fixed", Title: "Gym", Date: "2026-03-10", StartTime: "07:00", EndTime: "08:00", Type: model.TypeTask}
	if _, err := s.Upsert(ctx, task); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	task.Title = "Gym (legs)"
	if _, err := s.Upsert(ctx, task); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}

	all, _ := s.List(ctx)
	if len(all) != 1 {
		t.Fatalf("expected upsert to replace, got %d tasks", len(all))
	}
	listed, _ := s.ListForDate(ctx, "2026-03-10", FilterAll)
	if len(listed) != 1 || listed[0] != task {
		t.Fatalf("ListForDate = %+v, want %+v", listed, task)
	}
}

func TestUpsertDefaultsType(t *testing.T) {
	s := newTestStore()
	got, err := s.Upsert(context.Background(), model.Task{Title: "x", Date: "2026-01-01"})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID == "" || got.Type != model.TypeEvent {
		t.Errorf("expected generated id and event type, got %+v", got)
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	s.Create(ctx, validDraft())
	s.Create(ctx, validDraft())

	removed, err := s.Remove(ctx, "does-not-exist")
	if err != nil || removed {
		t.Fatalf("Remove(missing) = %v, %v", removed, err)
	}
	all, _ := s.List(ctx)
	if len(all) != 2 {
		t.Fatalf("task count changed to %d", len(all))
	}

	removed, err = s.Remove(ctx, "id-1")
	if err != nil || !removed {
		t.Fatalf("Remove(id-1) = %v, %v", removed, err)
	}
	all, _ = s.List(ctx)
	if len(all) != 1 || all[0].ID != "id-2" {
		t.Fatalf("after remove: %+v", all)
	}
}

func TestToggleAndFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	a, _ := s.Create(ctx, validDraft())
	s.Create(ctx, validDraft())

	done, found, err := s.Toggle(ctx, a.ID)
	if err != nil || !found || !done {
		t.Fatalf("Toggle = %v,%v,%v", done, found, err)
	}

	completed, _ := s.ListForDate(ctx, "2026-08-15", FilterCompleted)
	pending, _ := s.ListForDate(ctx, "2026-08-15", FilterPending)
	if len(completed) != 1 || completed[0].ID != a.ID {
		t.Errorf("completed = %+v", completed)
	}
	if len(pending) != 1 || pending[0].ID == a.ID {
		t.Errorf("pending = %+v", pending)
	}

	if _, found, _ := s.Toggle(ctx, "nope"); found {
		t.Error("Toggle on missing id reported found")
	}
	if found, _ := s.SetCompleted(ctx, a.ID, false); !found {
		t.Error("SetCompleted did not find task")
	}
	got, _, _ := s.Get(ctx, a.ID)
	if got.Completed {
		t.Error("SetCompleted(false) did not persist")
	}
}

func TestUpdateKeepsIDAndCompletion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	a, _ := s.Create(ctx, validDraft())
	s.SetCompleted(ctx, a.ID, true)

	d := validDraft()
	d.Title = "Moved review"
	d.Date = "2026-08-17"
	d.Type = "task"
	updated, found, err := s.Update(ctx, a.ID, d)
	if err != nil || !found {
		t.Fatalf("Update = %v, %v", found, err)
	}
	if updated.ID != a.ID || !updated.Completed || updated.Title != "Moved review" || updated.Type != model.TypeTask {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if _, found, err := s.Update(ctx, "missing", d); err != nil || found {
		t.Errorf("Update(missing) = %v, %v", found, err)
	}
	all, _ := s.List(ctx)
	if len(all) != 1 {
		t.Errorf("Update on missing id must not create, got %d tasks", len(all))
	}
}

func TestDraftValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Draft)
		want   error
	}{
		{"empty title", func(d *Draft) { d.Title = "   " }, ErrEmptyTitle},
		{"bad date", func(d *Draft) { d.Date = "15/08/2026" }, ErrMissingDate},
		{"equal times", func(d *Draft) { d.EndTime = d.StartTime }, ErrInvalidTimeRange},
		{"end before start", func(d *Draft) { d.StartTime, d.EndTime = "11:00", "10:30" }, ErrInvalidTimeRange},
		{"unpadded time", func(d *Draft) { d.StartTime = "9:00" }, ErrInvalidTimeRange},
		{"unknown type", func(d *Draft) { d.Type = "meeting" }, ErrInvalidType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			tc.mutate(&d)
			err := d.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate = %v, want %v", err, tc.want)
			}
			if !IsValidation(err) {
				t.Errorf("IsValidation(%v) = false", err)
			}
		})
	}
	if err := validDraft().Validate(); err != nil {
		t.Errorf("valid draft rejected: %v", err)
	}
}

func TestCreateRejectsWithoutWriting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	d := validDraft()
	d.Title = ""
	if _, err := s.Create(ctx, d); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("Create = %v", err)
	}
	all, _ := s.List(ctx)
	if len(all) != 0 {
		t.Errorf("rejected draft was stored")
	}
}

func TestListIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	s.Create(ctx, validDraft())
	first, _ := s.ListForDate(ctx, "2026-08-15", FilterAll)
	second, _ := s.ListForDate(ctx, "2026-08-15", FilterAll)
	if len(first) != len(second) || first[0] != second[0] {
		t.Errorf("listing changed without mutation: %+v vs %+v", first, second)
	}
}

func TestDefaultIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	s := New(session.NewRepository(session.NewMemory()))
	seen := make(map[model.TaskID]bool)
	for i := 0; i < 50; i++ {
		task, err := s.Create(ctx, validDraft())
		if err != nil {
			t.Fatal(err)
		}
		if seen[task.ID] {
			t.Fatalf("duplicate id %s", task.ID)
		}
		seen[task.ID] = true
	}
}

func TestParseFilter(t *testing.T) {
	if ParseFilter("Completed") != FilterCompleted || ParseFilter("pending") != FilterPending || ParseFilter("") != FilterAll || ParseFilter("x") != FilterAll {
		t.Error("unexpected ParseFilter mapping")
	}
}
