// Package config holds the process configuration for the witness
// generator, loaded from a YAML file with sane local-run defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can be written as "45m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// Database configures the relational job store.
type Database struct {
	// DSN selects the backend: a postgres:// URL or a SQLite file path.
	DSN             string   `yaml:"dsn"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
}

// Blob configures the embedded artifact store.
type Blob struct {
	Dir string `yaml:"dir"`
}

// Worker configures the polling engine.
type Worker struct {
	PollInterval Duration `yaml:"poll_interval"`
	Concurrency  int      `yaml:"concurrency"`
}

// Keys configures verification-key resolution. With an empty file path
// the process falls back to the synthetic dev registry.
type Keys struct {
	File string `yaml:"file"`
}

// Requeue configures the stale-lease sweep that returns abandoned
// in-progress jobs to the queue.
type Requeue struct {
	Enabled    bool     `yaml:"enabled"`
	Schedule   string   `yaml:"schedule"`
	StaleAfter Duration `yaml:"stale_after"`
}

// Otel configures trace export.
type Otel struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Service  string `yaml:"service"`
}

// Config is the full process configuration.
type Config struct {
	Database Database `yaml:"database"`
	Blob     Blob     `yaml:"blob"`
	Worker   Worker   `yaml:"worker"`
	Keys     Keys     `yaml:"keys"`
	Requeue  Requeue  `yaml:"requeue"`
	Otel     Otel     `yaml:"otel"`
}

// Default returns a configuration suitable for a local single-process run.
func Default() Config {
	return Config{
		Database: Database{
			DSN:             "witnessgen.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: Duration{time.Hour},
		},
		Blob: Blob{
			Dir: "blobs",
		},
		Worker: Worker{
			PollInterval: Duration{time.Second},
			Concurrency:  4,
		},
		Requeue: Requeue{
			Enabled:    false,
			Schedule:   "*/5 * * * *",
			StaleAfter: Duration{10 * time.Minute},
		},
		Otel: Otel{
			Service: "witnessgen",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults
// unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot run.
func (c Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("config: database.dsn is required")
	}
	if c.Blob.Dir == "" {
		return fmt.Errorf("config: blob.dir is required")
	}
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1")
	}
	if c.Worker.PollInterval.Duration <= 0 {
		return fmt.Errorf("config: worker.poll_interval must be positive")
	}
	if c.Requeue.Enabled && c.Requeue.Schedule == "" {
		return fmt.Errorf("config: requeue.schedule is required when requeue is enabled")
	}
	return nil
}
