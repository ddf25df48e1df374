package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Monitors    MonitorsConfig  `toml:"monitors"`
	Classifier  ClassifierToml  `toml:"classifier"`
	Halts       HaltsConfig     `toml:"halts"`
	Intel       IntelConfig     `toml:"intel"`
	Alerts      AlertsConfig    `toml:"alerts"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	SQLite SQLiteConfig `toml:"sqlite"`
	Badger BadgerConfig `toml:"badger"`
}

// SQLiteConfig represents SQLite-specific configuration
type SQLiteConfig struct {
	Path          string `toml:"path"`            // Database file path
	CacheSizeMB   int    `toml:"cache_size_mb"`   // Page cache size in MB
	BusyTimeoutMS int    `toml:"busy_timeout_ms"` // Lock wait timeout
	WALMode       bool   `toml:"wal_mode"`        // Enable write-ahead logging
}

// BadgerConfig represents the alert outbox database configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete outbox on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// MonitorsConfig contains per-source polling configuration
type MonitorsConfig struct {
	Filings  FilingMonitorConfig `toml:"filings"`
	Newsfeed NewsfeedConfig      `toml:"newsfeed"`
}

// FilingMonitorConfig configures the regulatory filing monitor
type FilingMonitorConfig struct {
	Enabled      bool     `toml:"enabled"`
	PollInterval Duration `toml:"poll_interval"` // Filing feed poll cadence (default: 60s)
	FetchTimeout Duration `toml:"fetch_timeout"` // Per-fetch network timeout
	BaseURL      string   `toml:"base_url"`      // Override feed base URL (tests)
	UserAgent    string   `toml:"user_agent"`    // Fair-access identification required by the feed
	MaxFilings   int      `toml:"max_filings"`   // Max filings processed per cycle
}

// NewsfeedConfig configures the structured news-signal source.
// Signals arrive as JSON files dropped into the watch directory by the
// upstream mail/research pipeline; the monitor never parses raw email.
type NewsfeedConfig struct {
	Enabled         bool     `toml:"enabled"`
	PollInterval    Duration `toml:"poll_interval"`    // Directory scan cadence (default: 30s)
	WatchDir        string   `toml:"watch_dir"`        // Directory containing signal JSON files
	StageConfidence float64  `toml:"stage_confidence"` // Signals below this feed the aggregator only (default: 0.50)
}

// ClassifierToml points at the externally loaded rules file so keyword
// lists and thresholds can be recalibrated without a redeploy.
type ClassifierToml struct {
	RulesPath string `toml:"rules_path"` // TOML or YAML rules file
}

// HaltsConfig configures the trading-halt correlator
type HaltsConfig struct {
	Enabled      bool     `toml:"enabled"`
	PollInterval Duration `toml:"poll_interval"` // Halt feed poll cadence (default: 15s)
	FetchTimeout Duration `toml:"fetch_timeout"`
	NasdaqURL    string   `toml:"nasdaq_url"` // Override for tests
	NyseURL      string   `toml:"nyse_url"`   // Override for tests
}

// IntelConfig configures the multi-source aggregator
type IntelConfig struct {
	MatchThreshold  float64  `toml:"match_threshold"`   // Token-set similarity floor for name matching (default: 0.80)
	StaleAfter      Duration `toml:"stale_after"`       // Corroboration window before tier decay (default: 336h = 14d)
	DecaySchedule   string   `toml:"decay_schedule"`    // Cron schedule for the decay sweep
	ActiveMinConf   float64  `toml:"active_min_conf"`   // Per-source confidence required for active tier
	ActiveMinSource int      `toml:"active_min_source"` // Independent sources required for active tier
}

// AlertsConfig configures the alert dispatcher
type AlertsConfig struct {
	Enabled       bool     `toml:"enabled"`
	WebhookURL    string   `toml:"webhook_url"`    // Optional webhook sink; empty = log only
	DispatchEvery Duration `toml:"dispatch_every"` // Outbox drain cadence
	MaxAttempts   int      `toml:"max_attempts"`   // Delivery attempts before dead-letter
}

// SchedulerConfig configures periodic maintenance jobs
type SchedulerConfig struct {
	BadgerGCSchedule string `toml:"badger_gc_schedule"` // Value-log GC for the alert outbox
	RulesReload      string `toml:"rules_reload"`       // Classifier rules reload schedule
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in arbitror.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{
				Path:          "./data/arbitror.db",
				CacheSizeMB:   64,
				BusyTimeoutMS: 5000,
				WALMode:       true,
			},
			Badger: BadgerConfig{
				Path: "./data/outbox",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Monitors: MonitorsConfig{
			Filings: FilingMonitorConfig{
				Enabled:      true,
				PollInterval: Duration(60 * time.Second),
				FetchTimeout: Duration(30 * time.Second),
				UserAgent:    "arbitror/1.0 (research; bob@ternarybob.com)",
				MaxFilings:   40,
			},
			Newsfeed: NewsfeedConfig{
				Enabled:         false, // Opt-in: requires an upstream pipeline dropping signal files
				PollInterval:    Duration(30 * time.Second),
				WatchDir:        "./data/signals",
				StageConfidence: 0.50,
			},
		},
		Classifier: ClassifierToml{
			RulesPath: "./rules.toml",
		},
		Halts: HaltsConfig{
			Enabled:      true,
			PollInterval: Duration(15 * time.Second),
			FetchTimeout: Duration(10 * time.Second),
		},
		Intel: IntelConfig{
			MatchThreshold:  0.80,
			StaleAfter:      Duration(14 * 24 * time.Hour),
			DecaySchedule:   "0 6 * * *", // Daily, before US market open
			ActiveMinConf:   0.75,
			ActiveMinSource: 2,
		},
		Alerts: AlertsConfig{
			Enabled:       true,
			DispatchEvery: Duration(5 * time.Second),
			MaxAttempts:   3,
		},
		Scheduler: SchedulerConfig{
			BadgerGCSchedule: "30 */4 * * *",
			RulesReload:      "*/30 * * * *",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files.
// Later files override earlier files; env overrides all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ARBITROR_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("ARBITROR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("ARBITROR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if path := os.Getenv("ARBITROR_SQLITE_PATH"); path != "" {
		config.Storage.SQLite.Path = path
	}
	if path := os.Getenv("ARBITROR_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	if level := os.Getenv("ARBITROR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("ARBITROR_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if rules := os.Getenv("ARBITROR_RULES_PATH"); rules != "" {
		config.Classifier.RulesPath = rules
	}

	if interval := os.Getenv("ARBITROR_FILINGS_POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Monitors.Filings.PollInterval = Duration(d)
		}
	}
	if interval := os.Getenv("ARBITROR_HALTS_POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Halts.PollInterval = Duration(d)
		}
	}
	if webhook := os.Getenv("ARBITROR_ALERT_WEBHOOK"); webhook != "" {
		config.Alerts.WebhookURL = webhook
	}
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
