package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	appLog "weekplan/internal/log"
	"weekplan/internal/model"
)

// Persisted keys.
const (
	KeyTasks     = "weeklyTasks"
	KeyWeekStart = "currentWeekStart"
	KeyLedger    = "notifiedEvents"
)

// SchemaVersion is written into every envelope. Values without an envelope
// are treated as version 0 (the bare, unversioned layout).
const SchemaVersion = 1

type envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// Repository is the typed load/save contract over a KV. Decoding failures
// are logged and recovered here (empty collection, absent cursor) so that
// no caller ever sees a parse error.
type Repository struct {
	kv KV
}

func NewRepository(kv KV) *Repository {
	return &Repository{kv: kv}
}

// KV exposes the underlying backend.
func (r *Repository) KV() KV { return r.kv }

func (r *Repository) LoadTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	ok, err := r.load(ctx, KeyTasks, &tasks)
	if err != nil || !ok {
		return []model.Task{}, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (r *Repository) SaveTasks(ctx context.Context, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	return r.save(ctx, KeyTasks, tasks)
}

// LoadWeekStart returns the saved cursor reference instant. ok is false
// when nothing (or nothing readable) is stored.
func (r *Repository) LoadWeekStart(ctx context.Context) (t time.Time, ok bool, err error) {
	raw, found, err := r.kv.Get(ctx, KeyWeekStart)
	if err != nil || !found {
		return time.Time{}, false, err
	}

	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "{") {
		var str string
		if _, derr := decodeValue(s, &str); derr != nil {
			appLog.Error("session: unreadable week cursor; using default", derr, "key", KeyWeekStart)
			return time.Time{}, false, nil
		}
		s = str
	} else if strings.HasPrefix(s, `"`) {
		if derr := json.Unmarshal([]byte(s), &s); derr != nil {
			appLog.Error("session: unreadable week cursor; using default", derr, "key", KeyWeekStart)
			return time.Time{}, false, nil
		}
	}

	t, perr := time.Parse(time.RFC3339Nano, s)
	if perr != nil {
		appLog.Error("session: unreadable week cursor; using default", perr, "key", KeyWeekStart)
		return time.Time{}, false, nil
	}
	return t, true, nil
}

func (r *Repository) SaveWeekStart(ctx context.Context, t time.Time) error {
	return r.save(ctx, KeyWeekStart, t.Format(time.RFC3339Nano))
}

func (r *Repository) LoadLedger(ctx context.Context) ([]model.TaskID, error) {
	var ids []model.TaskID
	ok, err := r.load(ctx, KeyLedger, &ids)
	if err != nil || !ok {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) SaveLedger(ctx context.Context, ids []model.TaskID) error {
	if ids == nil {
		ids = []model.TaskID{}
	}
	return r.save(ctx, KeyLedger, ids)
}

func (r *Repository) load(ctx context.Context, key string, out any) (bool, error) {
	raw, found, err := r.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("session get %s: %w", key, err)
	}
	if !found || strings.TrimSpace(raw) == "" {
		return false, nil
	}
	version, err := decodeValue(raw, out)
	if err != nil {
		appLog.Error("session: unreadable value; treating as empty", err, "key", key)
		return false, nil
	}
	appLog.Debug("session: loaded", "key", key, "version", version)
	return true, nil
}

func (r *Repository) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session encode %s: %w", key, err)
	}
	wrapped, err := json.Marshal(envelope{Version: SchemaVersion, Data: data})
	if err != nil {
		return fmt.Errorf("session encode %s: %w", key, err)
	}
	if err := r.kv.Set(ctx, key, string(wrapped)); err != nil {
		return fmt.Errorf("session set %s: %w", key, err)
	}
	return nil
}

// decodeValue unwraps an envelope (or accepts a bare version-0 value) into
// out and reports the schema version it found.
func decodeValue(raw string, out any) (int, error) {
	b := bytes.TrimSpace([]byte(raw))
	if len(b) == 0 || b[0] != '{' {
		return 0, json.Unmarshal(b, out)
	}

	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return 0, err
	}
	if env.Version < 1 || env.Version > SchemaVersion {
		return env.Version, fmt.Errorf("unsupported schema version %d", env.Version)
	}
	if len(env.Data) == 0 {
		return env.Version, fmt.Errorf("envelope has no data")
	}
	return env.Version, json.Unmarshal(env.Data, out)
}
