package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arbitror.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadFromFilesParsesDurationStrings(t *testing.T) {
	path := writeConfig(t, `
[monitors.filings]
poll_interval = "90s"
fetch_timeout = "20s"

[monitors.newsfeed]
poll_interval = "45s"

[halts]
poll_interval = "10s"
fetch_timeout = "5s"

[intel]
stale_after = "336h"

[alerts]
dispatch_every = "2s"
`)

	config, err := LoadFromFiles(path)
	if err != nil {
		t.Fatalf("LoadFromFiles() error = %v", err)
	}

	tests := []struct {
		name string
		got  Duration
		want time.Duration
	}{
		{"filings poll_interval", config.Monitors.Filings.PollInterval, 90 * time.Second},
		{"filings fetch_timeout", config.Monitors.Filings.FetchTimeout, 20 * time.Second},
		{"newsfeed poll_interval", config.Monitors.Newsfeed.PollInterval, 45 * time.Second},
		{"halts poll_interval", config.Halts.PollInterval, 10 * time.Second},
		{"halts fetch_timeout", config.Halts.FetchTimeout, 5 * time.Second},
		{"intel stale_after", config.Intel.StaleAfter, 336 * time.Hour},
		{"alerts dispatch_every", config.Alerts.DispatchEvery, 2 * time.Second},
	}
	for _, tt := range tests {
		if tt.got.Duration() != tt.want {
			t.Errorf("%s = %s, want %s", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadFromFilesRejectsInvalidDuration(t *testing.T) {
	path := writeConfig(t, `
[halts]
poll_interval = "every few seconds"
`)

	if _, err := LoadFromFiles(path); err == nil {
		t.Fatal("LoadFromFiles() accepted an unparseable duration")
	}
}

func TestLoadShippedLocalConfig(t *testing.T) {
	path := filepath.Join("..", "..", "deployments", "local", "arbitror.toml")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("shipped config not present: %v", err)
	}

	config, err := LoadFromFiles(path)
	if err != nil {
		t.Fatalf("LoadFromFiles(%s) error = %v", path, err)
	}

	if got := config.Monitors.Filings.PollInterval.Duration(); got != 60*time.Second {
		t.Errorf("filings poll_interval = %s, want 60s", got)
	}
	if got := config.Halts.PollInterval.Duration(); got != 15*time.Second {
		t.Errorf("halts poll_interval = %s, want 15s", got)
	}
	if got := config.Intel.StaleAfter.Duration(); got != 336*time.Hour {
		t.Errorf("intel stale_after = %s, want 336h", got)
	}
	if got := config.Alerts.DispatchEvery.Duration(); got != 5*time.Second {
		t.Errorf("alerts dispatch_every = %s, want 5s", got)
	}
	if got := config.Monitors.Newsfeed.StageConfidence; got != 0.50 {
		t.Errorf("newsfeed stage_confidence = %v, want 0.50", got)
	}
}

func TestFileOverridesDefaultsPartially(t *testing.T) {
	path := writeConfig(t, `
[halts]
poll_interval = "7s"
`)

	config, err := LoadFromFiles(path)
	if err != nil {
		t.Fatalf("LoadFromFiles() error = %v", err)
	}

	if got := config.Halts.PollInterval.Duration(); got != 7*time.Second {
		t.Errorf("halts poll_interval = %s, want 7s", got)
	}
	// Untouched sections keep their defaults
	if got := config.Monitors.Filings.PollInterval.Duration(); got != 60*time.Second {
		t.Errorf("filings poll_interval = %s, want default 60s", got)
	}
	if config.Server.Port != 8080 {
		t.Errorf("server port = %d, want default 8080", config.Server.Port)
	}
}

func TestEnvOverridesPollInterval(t *testing.T) {
	t.Setenv("ARBITROR_HALTS_POLL_INTERVAL", "3s")

	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles() error = %v", err)
	}
	if got := config.Halts.PollInterval.Duration(); got != 3*time.Second {
		t.Errorf("halts poll_interval = %s, want env override 3s", got)
	}
}
