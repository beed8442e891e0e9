package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// SessionConfig selects where planner state (tasks, displayed week,
// notified ledger) lives between runs.
type SessionConfig struct {
	// Backend is one of "memory", "file", "sqlite".
	Backend string `yaml:"backend" json:"backend"`
	// Path is the JSON file or sqlite database; ignored for memory.
	Path string `yaml:"path" json:"path"`
}

// ReminderConfig drives the periodic reminder scan.
type ReminderConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Schedule is a robfig/cron spec, e.g. "@every 60s" or "* * * * *".
	Schedule string `yaml:"schedule" json:"schedule"`
	// WindowMinutes is how far ahead of its start a task is announced.
	WindowMinutes int    `yaml:"window_minutes" json:"window_minutes"`
	Icon          string `yaml:"icon" json:"icon"`
	// WebhookURL, if set, receives every notification as a JSON POST.
	WebhookURL string `yaml:"webhook_url,omitempty" json:"webhook_url,omitempty"`
	// AutoGrant skips the client permission handshake.
	AutoGrant bool `yaml:"auto_grant" json:"auto_grant"`
}

// SnapshotConfig controls the headless capture of the week page.
type SnapshotConfig struct {
	URL            string `yaml:"url" json:"url"`
	Output         string `yaml:"output" json:"output"`
	Width          int    `yaml:"width" json:"width"`
	Height         int    `yaml:"height" json:"height"`
	TimeoutSeconds int    `yaml:"timeout" json:"timeout"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone that defines the planner's local wall
	// clock. Empty means the process local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// HourHeight is the vertical units per hour of the day grid.
	HourHeight float64 `yaml:"hour_height" json:"hour_height"`

	// MinDurationMinutes is the shortest rendered block height.
	MinDurationMinutes int `yaml:"min_duration_minutes" json:"min_duration_minutes"`

	Session  SessionConfig  `yaml:"session" json:"session"`
	Reminder ReminderConfig `yaml:"reminder" json:"reminder"`

	// Holidays maps YYYY-MM-DD to a label. Empty uses the built-in table.
	Holidays map[string]string `yaml:"holidays" json:"holidays"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`
}

const (
	defaultListen     = "127.0.0.1:8080"
	defaultSchedule   = "@every 60s"
	defaultWindow     = 15
	defaultHourHeight = 50
	defaultMinMinutes = 30
	defaultIcon       = "https://cdn-icons-png.flaticon.com/512/2693/2693507.png"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:             defaultListen,
		Timezone:           "",
		LogLevel:           "info",
		HourHeight:         defaultHourHeight,
		MinDurationMinutes: defaultMinMinutes,
		Session: SessionConfig{
			Backend: "file",
			Path:    "./var/weekplan-session.json",
		},
		Reminder: ReminderConfig{
			Enabled:       true,
			Schedule:      defaultSchedule,
			WindowMinutes: defaultWindow,
			Icon:          defaultIcon,
		},
		Holidays: map[string]string{},
		Snapshot: SnapshotConfig{
			URL:            "http://" + defaultListen + "/",
			Output:         "./var/week.png",
			Width:          800,
			Height:         480,
			TimeoutSeconds: 30,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.HourHeight <= 0 {
		c.HourHeight = defaultHourHeight
	}
	if c.MinDurationMinutes <= 0 {
		c.MinDurationMinutes = defaultMinMinutes
	}

	switch c.Session.Backend {
	case "memory", "file", "sqlite":
	default:
		// Unknown value; fall back to file so state is never silently lost.
		c.Session.Backend = "file"
	}
	if c.Session.Path == "" {
		switch c.Session.Backend {
		case "sqlite":
			c.Session.Path = "./var/weekplan.db"
		case "file":
			c.Session.Path = "./var/weekplan-session.json"
		}
	}

	if c.Reminder.Schedule == "" {
		c.Reminder.Schedule = defaultSchedule
	}
	if c.Reminder.WindowMinutes <= 0 {
		c.Reminder.WindowMinutes = defaultWindow
	}
	if c.Reminder.Icon == "" {
		c.Reminder.Icon = defaultIcon
	}

	if c.Holidays == nil {
		c.Holidays = map[string]string{}
	}

	if c.Snapshot.URL == "" {
		c.Snapshot.URL = "http://" + c.Listen + "/"
	}
	if c.Snapshot.Output == "" {
		c.Snapshot.Output = "./var/week.png"
	}
	if c.Snapshot.Width <= 0 {
		c.Snapshot.Width = 800
	}
	if c.Snapshot.Height <= 0 {
		c.Snapshot.Height = 480
	}
	if c.Snapshot.TimeoutSeconds <= 0 {
		c.Snapshot.TimeoutSeconds = 30
	}
}

// Location resolves Timezone. Empty or unknown zones resolve to the
// process local zone; the error reports an unknown name.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, err
	}
	return loc, nil
}

// ReminderWindow is WindowMinutes as a duration.
func (c *Config) ReminderWindow() time.Duration {
	return time.Duration(c.Reminder.WindowMinutes) * time.Minute
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms,
// creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".weekplan-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
