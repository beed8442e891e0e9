package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"weekplan/internal/model"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFile(filepath.Join(dir, "session.json"))
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	lite, err := NewSQLite(filepath.Join(dir, "session.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { lite.Close() })

	return map[string]KV{
		"memory": NewMemory(),
		"file":   file,
		"sqlite": lite,
	}
}

func TestKVBackends(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("Get(missing) = ok=%v err=%v", ok, err)
			}
			if err := kv.Set(ctx, "k", "v1"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := kv.Set(ctx, "k", "v2"); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			v, ok, err := kv.Get(ctx, "k")
			if err != nil || !ok || v != "v2" {
				t.Fatalf("Get(k) = %q,%v,%v", v, ok, err)
			}
			if err := kv.Delete(ctx, "k"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, ok, _ := kv.Get(ctx, "k"); ok {
				t.Fatal("key still present after Delete")
			}
		})
	}
}

func TestFileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	f, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := f.Set(ctx, KeyTasks, `[]`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	again, err := NewFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if v, ok, _ := again.Get(ctx, KeyTasks); !ok || v != `[]` {
		t.Fatalf("reopened value = %q,%v", v, ok)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("session file perms = %o, want 600", perm)
	}
}

func TestFileCorruptedStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile on corrupted file: %v", err)
	}
	if _, ok, _ := f.Get(context.Background(), KeyTasks); ok {
		t.Error("expected empty store after corruption")
	}
}

func TestRepositoryTasksRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(NewMemory())

	tasks, err := repo.LoadTasks(ctx)
	if err != nil || len(tasks) != 0 || tasks == nil {
		t.Fatalf("LoadTasks on empty = %v, %v", tasks, err)
	}

	in := []model.Task{{ID: "a", Title: "Standup", Date: "2026-01-26", StartTime: "10:00", EndTime: "10:15", Type: model.TypeEvent}}
	if err := repo.SaveTasks(ctx, in); err != nil {
		t.Fatalf("SaveTasks: %v", err)
	}
	out, err := repo.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("LoadTasks: %v", err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Fatalf("LoadTasks = %+v, want %+v", out, in)
	}

	raw, _, _ := repo.KV().Get(ctx, KeyTasks)
	if raw[:12] != `{"version":1` {
		t.Errorf("tasks not written as versioned envelope: %s", raw)
	}
}

func TestRepositoryReadsLegacyLayout(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	kv.Set(ctx, KeyTasks, `[{"id":1769400000000,"title":"Old","date":"2026-01-26","type":"task","completed":false,"hasMeet":false}]`)
	kv.Set(ctx, KeyWeekStart, `2026-01-25T18:30:00.000Z`)
	kv.Set(ctx, KeyLedger, `[1769400000000]`)
	repo := NewRepository(kv)

	tasks, err := repo.LoadTasks(ctx)
	if err != nil || len(tasks) != 1 || tasks[0].ID != "1769400000000" {
		t.Fatalf("legacy tasks = %+v, %v", tasks, err)
	}

	ws, ok, err := repo.LoadWeekStart(ctx)
	if err != nil || !ok {
		t.Fatalf("legacy week start ok=%v err=%v", ok, err)
	}
	if !ws.Equal(time.Date(2026, 1, 25, 18, 30, 0, 0, time.UTC)) {
		t.Errorf("legacy week start = %v", ws)
	}

	ids, err := repo.LoadLedger(ctx)
	if err != nil || len(ids) != 1 || ids[0] != "1769400000000" {
		t.Fatalf("legacy ledger = %v, %v", ids, err)
	}
}

func TestRepositoryRecoversFromGarbage(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	kv.Set(ctx, KeyTasks, `{"version":1,"data":"not-a-list"}`)
	kv.Set(ctx, KeyWeekStart, `yesterday`)
	kv.Set(ctx, KeyLedger, `{"version":99,"data":[]}`)
	repo := NewRepository(kv)

	if tasks, err := repo.LoadTasks(ctx); err != nil || len(tasks) != 0 {
		t.Errorf("garbage tasks = %v, %v", tasks, err)
	}
	if _, ok, err := repo.LoadWeekStart(ctx); err != nil || ok {
		t.Errorf("garbage week start ok=%v err=%v", ok, err)
	}
	if ids, err := repo.LoadLedger(ctx); err != nil || len(ids) != 0 {
		t.Errorf("future-version ledger = %v, %v", ids, err)
	}
}

func TestRepositoryWeekStartRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(NewMemory())
	loc := time.FixedZone("IST", 5*3600+1800)
	want := time.Date(2026, 3, 9, 0, 0, 0, 0, loc)

	if err := repo.SaveWeekStart(ctx, want); err != nil {
		t.Fatalf("SaveWeekStart: %v", err)
	}
	got, ok, err := repo.LoadWeekStart(ctx)
	if err != nil || !ok || !got.Equal(want) {
		t.Fatalf("LoadWeekStart = %v,%v,%v want %v", got, ok, err, want)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("redis", ""); err == nil {
		t.Error("expected error for unknown backend")
	}
	kv, err := Open("", "")
	if err != nil {
		t.Fatalf("Open default: %v", err)
	}
	if _, ok := kv.(*Memory); !ok {
		t.Errorf("default backend = %T, want *Memory", kv)
	}
}
