package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Hermes      HermesConfig      `yaml:"hermes"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

// DatabaseConfig selects the analysis store. Driver is "postgres" or
// "sqlite"; for sqlite the URL is a file path or ":memory:".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

// SourceConfig describes one upstream property data provider.
type SourceConfig struct {
	Name     string   `yaml:"name"`
	URL      string   `yaml:"url"`
	Token    string   `yaml:"token"`
	Priority int      `yaml:"priority"`
	Hosts    []string `yaml:"hosts"`
}

type AcquisitionConfig struct {
	TimeoutMs int            `yaml:"timeout_ms"`
	Sources   []SourceConfig `yaml:"sources"`
}

// AnalysisConfig drives the runner. An analysis left in_progress longer
// than RunTimeoutMs is marked failed by the timeout sweep.
type AnalysisConfig struct {
	TickIntervalMs int  `yaml:"tick_interval_ms"`
	BatchSize      int  `yaml:"batch_size"`
	AutoRun        bool `yaml:"auto_run"`
	RunTimeoutMs   int  `yaml:"run_timeout_ms"`
}

type ScoringConfig struct {
	DefaultProfile string `yaml:"default_profile"`
	DefaultMode    string `yaml:"default_mode"`
	ProfilesDir    string `yaml:"profiles_dir"`
	MaxStrengths   int    `yaml:"max_strengths"`
	MaxRisks       int    `yaml:"max_risks"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Analysis.TickIntervalMs) * time.Millisecond
}

func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.Analysis.RunTimeoutMs) * time.Millisecond
}

func (c *Config) AcquisitionTimeout() time.Duration {
	return time.Duration(c.Acquisition.TimeoutMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Database: DatabaseConfig{
			Driver: "postgres",
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Acquisition: AcquisitionConfig{
			TimeoutMs: 20000,
		},
		Analysis: AnalysisConfig{
			TickIntervalMs: 10000,
			BatchSize:      10,
			AutoRun:        true,
			RunTimeoutMs:   120000,
		},
		Scoring: ScoringConfig{
			DefaultProfile: "anchor-v1",
			DefaultMode:    "strict",
			MaxStrengths:   6,
			MaxRisks:       4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PROPGIC_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("PROPGIC_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("PROPGIC_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("PROPGIC_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("PROPGIC_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("PROPGIC_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("PROPGIC_ACQUISITION_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Acquisition.TimeoutMs = n
		}
	}
	if v := os.Getenv("PROPGIC_TICK_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.TickIntervalMs = n
		}
	}
	if v := os.Getenv("PROPGIC_RUN_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.RunTimeoutMs = n
		}
	}
	if v := os.Getenv("PROPGIC_AUTO_RUN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Analysis.AutoRun = b
		}
	}
	if v := os.Getenv("PROPGIC_SCORING_PROFILE"); v != "" {
		cfg.Scoring.DefaultProfile = v
	}
	if v := os.Getenv("PROPGIC_SCORING_MODE"); v != "" {
		cfg.Scoring.DefaultMode = v
	}
	if v := os.Getenv("PROPGIC_PROFILES_DIR"); v != "" {
		cfg.Scoring.ProfilesDir = v
	}
	if v := os.Getenv("PROPGIC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
