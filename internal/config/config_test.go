package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"PROPGIC_PORT", "PROPGIC_METRICS_PORT", "PROPGIC_ADMIN_TOKEN",
	"PROPGIC_DATABASE_DRIVER", "PROPGIC_DATABASE_URL", "PROPGIC_HERMES_URL",
	"PROPGIC_ACQUISITION_TIMEOUT_MS", "PROPGIC_TICK_INTERVAL_MS", "PROPGIC_AUTO_RUN",
	"PROPGIC_RUN_TIMEOUT_MS",
	"PROPGIC_SCORING_PROFILE", "PROPGIC_SCORING_MODE", "PROPGIC_PROFILES_DIR",
	"PROPGIC_LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8700 {
		t.Errorf("expected port 8700, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("expected postgres driver, got %s", cfg.Database.Driver)
	}
	if cfg.Hermes.URL != "nats://localhost:4222" {
		t.Errorf("expected nats URL, got %s", cfg.Hermes.URL)
	}
	if len(cfg.Acquisition.Sources) != 0 {
		t.Errorf("expected no sources by default, got %d", len(cfg.Acquisition.Sources))
	}
	if cfg.Analysis.BatchSize != 10 {
		t.Errorf("expected batch size 10, got %d", cfg.Analysis.BatchSize)
	}
	if !cfg.Analysis.AutoRun {
		t.Error("expected auto_run enabled by default")
	}
	if cfg.Scoring.DefaultProfile != "anchor-v1" {
		t.Errorf("expected default profile anchor-v1, got %s", cfg.Scoring.DefaultProfile)
	}
	if cfg.Scoring.DefaultMode != "strict" {
		t.Errorf("expected default mode strict, got %s", cfg.Scoring.DefaultMode)
	}
	if cfg.Scoring.MaxStrengths != 6 || cfg.Scoring.MaxRisks != 4 {
		t.Errorf("expected insight caps 6/4, got %d/%d", cfg.Scoring.MaxStrengths, cfg.Scoring.MaxRisks)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got '%s'", cfg.Logging.Format)
	}

	// Duration helpers
	if cfg.TickInterval() != 10*time.Second {
		t.Errorf("expected TickInterval 10s, got %v", cfg.TickInterval())
	}
	if cfg.AcquisitionTimeout() != 20*time.Second {
		t.Errorf("expected AcquisitionTimeout 20s, got %v", cfg.AcquisitionTimeout())
	}
	if cfg.RunTimeout() != 2*time.Minute {
		t.Errorf("expected RunTimeout 2m, got %v", cfg.RunTimeout())
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "propgic.yaml")
	data := `
server:
  port: 9100
database:
  driver: sqlite
  url: /var/lib/propgic/propgic.db
acquisition:
  timeout_ms: 5000
  sources:
    - name: domain
      url: http://domain-bridge:8080
      priority: 1
      hosts: [domain.com.au]
    - name: research
      url: http://research:8080
      token: abc
      priority: 9
scoring:
  default_mode: renormalized
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("expected port 9100, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected untouched metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected sqlite driver, got %s", cfg.Database.Driver)
	}
	if len(cfg.Acquisition.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Acquisition.Sources))
	}
	if got := cfg.Acquisition.Sources[0].Hosts; len(got) != 1 || got[0] != "domain.com.au" {
		t.Errorf("unexpected hosts: %v", got)
	}
	if cfg.Acquisition.Sources[1].Token != "abc" {
		t.Errorf("expected token abc, got %s", cfg.Acquisition.Sources[1].Token)
	}
	if cfg.AcquisitionTimeout() != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.AcquisitionTimeout())
	}
	if cfg.Scoring.DefaultMode != "renormalized" {
		t.Errorf("expected renormalized, got %s", cfg.Scoring.DefaultMode)
	}
	if cfg.Scoring.DefaultProfile != "anchor-v1" {
		t.Errorf("expected default profile kept, got %s", cfg.Scoring.DefaultProfile)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PROPGIC_PORT", "9000")
	t.Setenv("PROPGIC_METRICS_PORT", "9001")
	t.Setenv("PROPGIC_ADMIN_TOKEN", "secret-token")
	t.Setenv("PROPGIC_DATABASE_DRIVER", "sqlite")
	t.Setenv("PROPGIC_DATABASE_URL", ":memory:")
	t.Setenv("PROPGIC_HERMES_URL", "nats://nats:4222")
	t.Setenv("PROPGIC_ACQUISITION_TIMEOUT_MS", "3000")
	t.Setenv("PROPGIC_TICK_INTERVAL_MS", "2000")
	t.Setenv("PROPGIC_AUTO_RUN", "false")
	t.Setenv("PROPGIC_RUN_TIMEOUT_MS", "45000")
	t.Setenv("PROPGIC_SCORING_PROFILE", "anchor-url-v1")
	t.Setenv("PROPGIC_SCORING_MODE", "renormalized")
	t.Setenv("PROPGIC_PROFILES_DIR", "/etc/propgic/profiles")
	t.Setenv("PROPGIC_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 9001 {
		t.Errorf("expected metrics port 9001, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.AdminToken != "secret-token" {
		t.Errorf("expected admin token 'secret-token', got '%s'", cfg.Server.AdminToken)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.URL != ":memory:" {
		t.Errorf("unexpected database config %+v", cfg.Database)
	}
	if cfg.Hermes.URL != "nats://nats:4222" {
		t.Errorf("expected hermes URL, got '%s'", cfg.Hermes.URL)
	}
	if cfg.AcquisitionTimeout() != 3*time.Second {
		t.Errorf("expected 3s acquisition timeout, got %v", cfg.AcquisitionTimeout())
	}
	if cfg.Analysis.TickIntervalMs != 2000 {
		t.Errorf("expected tick 2000, got %d", cfg.Analysis.TickIntervalMs)
	}
	if cfg.Analysis.AutoRun {
		t.Error("expected auto_run disabled")
	}
	if cfg.RunTimeout() != 45*time.Second {
		t.Errorf("expected 45s run timeout, got %v", cfg.RunTimeout())
	}
	if cfg.Scoring.DefaultProfile != "anchor-url-v1" {
		t.Errorf("expected profile anchor-url-v1, got '%s'", cfg.Scoring.DefaultProfile)
	}
	if cfg.Scoring.DefaultMode != "renormalized" {
		t.Errorf("expected mode renormalized, got '%s'", cfg.Scoring.DefaultMode)
	}
	if cfg.Scoring.ProfilesDir != "/etc/propgic/profiles" {
		t.Errorf("expected profiles dir, got '%s'", cfg.Scoring.ProfilesDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got '%s'", cfg.Logging.Level)
	}
}
