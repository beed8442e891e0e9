package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weekplan/internal/capture"
	"weekplan/internal/config"
	"weekplan/internal/cursor"
	"weekplan/internal/holiday"
	"weekplan/internal/ics"
	"weekplan/internal/layout"
	appLog "weekplan/internal/log"
	"weekplan/internal/planner"
	"weekplan/internal/reminder"
	"weekplan/internal/session"
	"weekplan/internal/store"
	"weekplan/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	debug      bool
	once       bool
	exportPath string
	importSrc  string
	snapshot   bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", conf.Timezone)
	}

	appLog.Info("weekplan starting",
		"listen", conf.Listen,
		"timezone", loc.String(),
		"session_backend", conf.Session.Backend,
		"reminders", conf.Reminder.Enabled,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flags, conf, loc); err != nil {
		appLog.Error("weekplan failed", err)
		os.Exit(1)
	}
	appLog.Info("weekplan exiting")
}

func run(ctx context.Context, flags flagConfig, conf *config.Config, loc *time.Location) error {
	kv, err := session.Open(conf.Session.Backend, conf.Session.Path)
	if err != nil {
		return err
	}
	defer kv.Close()

	repo := session.NewRepository(kv)
	tasks := store.New(repo)
	cur, err := cursor.Load(ctx, cursor.Config{Repo: repo, Location: loc})
	if err != nil {
		return err
	}
	p := planner.New(tasks, cur, layout.Engine{
		HourHeight:  conf.HourHeight,
		MinDuration: conf.MinDurationMinutes,
	}, holiday.New(conf.Holidays))

	// At most one one-shot mode runs, then the process exits.
	switch {
	case flags.importSrc != "":
		return runImport(ctx, p, flags.importSrc, loc)
	case flags.exportPath != "":
		return runExport(ctx, p, flags.exportPath)
	case flags.snapshot:
		return runSnapshot(ctx, conf)
	case flags.once:
		// No client is attached to grant permission, so the one-shot tick
		// delivers to the log and webhook only.
		eng := reminder.New(reminderConfig(conf, loc, tasks, repo, baseDispatchers(conf), reminder.AlwaysGranted))
		n, err := eng.Tick(ctx)
		appLog.Info("one-shot reminder tick done", "fired", n)
		return err
	}

	outbox := reminder.NewOutbox(100)
	if conf.Reminder.Enabled {
		var perm reminder.Permission = outbox
		if conf.Reminder.AutoGrant {
			perm = reminder.AlwaysGranted
		}
		dispatchers := append(baseDispatchers(conf), outbox)
		eng := reminder.New(reminderConfig(conf, loc, tasks, repo, dispatchers, perm))
		if err := eng.Start(ctx); err != nil {
			return err
		}
		defer eng.Stop()
	}

	srv := web.NewServer(p, web.Options{
		Listen:    conf.Listen,
		BasicAuth: conf.BasicAuth,
		Outbox:    outbox,
	})
	return srv.ListenAndServe(ctx)
}

func baseDispatchers(conf *config.Config) reminder.Multi {
	m := reminder.Multi{reminder.LogDispatcher{}}
	if conf.Reminder.WebhookURL != "" {
		m = append(m, reminder.NewWebhook(conf.Reminder.WebhookURL))
	}
	return m
}

func reminderConfig(conf *config.Config, loc *time.Location, tasks *store.Store, repo *session.Repository, d reminder.Multi, perm reminder.Permission) reminder.Config {
	return reminder.Config{
		Tasks:      tasks,
		Ledger:     repo,
		Dispatcher: d,
		Permission: perm,
		Schedule:   conf.Reminder.Schedule,
		Scan: reminder.ScanOptions{
			Window:   conf.ReminderWindow(),
			Location: loc,
			Icon:     conf.Reminder.Icon,
		},
	}
}

func runImport(ctx context.Context, p *planner.Planner, src string, loc *time.Location) error {
	body, err := ics.NewFetcher(0).Read(ctx, src)
	if err != nil {
		return err
	}
	imported, err := ics.Import(body, loc)
	if err != nil {
		return err
	}
	n, err := p.ImportTasks(ctx, imported)
	appLog.Info("ics import done", "written", n)
	return err
}

func runExport(ctx context.Context, p *planner.Planner, path string) error {
	all, err := p.Store().List(ctx)
	if err != nil {
		return err
	}
	c := p.Cursor()
	body := ics.Export(all, c.Location(), c.Now())
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return err
	}
	appLog.Info("ics export done", "path", path, "task_count", len(all))
	return nil
}

func runSnapshot(ctx context.Context, conf *config.Config) error {
	opts := capture.Options{
		URL:        conf.Snapshot.URL,
		OutputPath: conf.Snapshot.Output,
		Width:      conf.Snapshot.Width,
		Height:     conf.Snapshot.Height,
		Timeout:    time.Duration(conf.Snapshot.TimeoutSeconds) * time.Second,
	}
	if conf.BasicAuth != nil {
		opts.Username = conf.BasicAuth.Username
		opts.Password = conf.BasicAuth.Password
	}
	if err := capture.CapturePNG(ctx, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./weekplan.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&cfg.once, "once", false, "Run one reminder scan and exit")
	flag.StringVar(&cfg.exportPath, "export", "", "Write all tasks as an ICS file and exit")
	flag.StringVar(&cfg.importSrc, "import", "", "Import tasks from an ICS file or URL and exit")
	flag.BoolVar(&cfg.snapshot, "snapshot", false, "Capture the week page as PNG (needs a running server) and exit")

	flag.Parse()

	return cfg
}
