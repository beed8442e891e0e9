package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "weekplan/internal/log"
	"weekplan/internal/model"
)

// TaskSource supplies the current task snapshot.
type TaskSource interface {
	List(ctx context.Context) ([]model.Task, error)
}

// LedgerStore persists the notification ledger.
type LedgerStore interface {
	LoadLedger(ctx context.Context) ([]model.TaskID, error)
	SaveLedger(ctx context.Context, ids []model.TaskID) error
}

// Config wires an Engine.
type Config struct {
	Tasks  TaskSource
	Ledger LedgerStore

	// Dispatcher delivers notifications. Nil means no notification
	// capability and disables the engine.
	Dispatcher Dispatcher
	// Permission gates every tick. Nil is treated as not granted.
	Permission Permission

	// Schedule is a cron spec; DefaultSchedule when empty.
	Schedule string
	Scan     ScanOptions
	Now      func() time.Time
}

type Engine struct {
	cfg Config

	tickMu sync.Mutex

	mu   sync.Mutex
	cron *cron.Cron
	done chan struct{}
}

func New(cfg Config) *Engine {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{cfg: cfg}
}

// Enabled reports whether a tick would do anything right now.
func (e *Engine) Enabled() bool {
	return e.cfg.Dispatcher != nil && e.cfg.Permission != nil && e.cfg.Permission.Granted()
}

// Tick runs one scan-and-dispatch pass and returns how many notifications
// were delivered without error. Without capability or permission it
// silently does nothing. The ledger is written only when the pass fired
// something.
func (e *Engine) Tick(ctx context.Context) (int, error) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	if !e.Enabled() {
		appLog.Debug("reminder tick skipped; notifications not permitted")
		return 0, nil
	}

	tasks, err := e.cfg.Tasks.List(ctx)
	if err != nil {
		return 0, err
	}
	var ids []model.TaskID
	if e.cfg.Ledger != nil {
		if ids, err = e.cfg.Ledger.LoadLedger(ctx); err != nil {
			return 0, err
		}
	}

	now := e.cfg.Now()
	decision := Scan(tasks, now, NewLedger(ids), e.cfg.Scan)
	if !decision.Added() {
		return 0, nil
	}

	// Fired ids stay in the ledger even when a channel fails.
	sent := 0
	for _, n := range decision.Fire {
		if err := e.cfg.Dispatcher.Dispatch(ctx, n); err != nil {
			appLog.Error("reminder dispatch failed", err, "task_id", n.TaskID)
			continue
		}
		sent++
	}

	ledger := decision.Ledger
	if e.cfg.Ledger != nil {
		if err := e.cfg.Ledger.SaveLedger(ctx, ledger.IDs()); err != nil {
			return sent, err
		}
	}
	appLog.Info("reminder tick", "fired", sent, "ledger_size", ledger.Len())
	return sent, nil
}

// Start schedules Tick on the configured cron spec until ctx is cancelled or
// Stop is called.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cron != nil {
		return errors.New("reminder engine already started")
	}

	loc := e.cfg.Scan.Location
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc), cron.WithLogger(cronLogger{}))
	if _, err := c.AddFunc(e.cfg.Schedule, func() {
		if _, err := e.Tick(ctx); err != nil {
			appLog.Error("reminder tick failed", err)
		}
	}); err != nil {
		return err
	}
	c.Start()
	e.cron = c
	done := make(chan struct{})
	e.done = done
	appLog.Info("reminder engine started", "schedule", e.cfg.Schedule, "window", e.cfg.Scan.Window)

	go func() {
		select {
		case <-ctx.Done():
			e.Stop()
		case <-done:
		}
	}()
	return nil
}

// Stop halts the schedule and waits for a running tick to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	c, done := e.cron, e.done
	e.cron, e.done = nil, nil
	e.mu.Unlock()
	if c == nil {
		return
	}
	close(done)
	<-c.Stop().Done()
	appLog.Info("reminder engine stopped")
}

// cronLogger routes robfig/cron's own logging into the application log.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	appLog.Error("cron: "+msg, err, kv...)
}
