// Package config holds the robonews process configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/RobinCoderZhao/robonews/internal/ingest/catalog"
	"github.com/RobinCoderZhao/robonews/internal/ingest/feedreader"
	"github.com/RobinCoderZhao/robonews/internal/ingest/pipeline"
	appconfig "github.com/RobinCoderZhao/robonews/pkg/config"
	"github.com/RobinCoderZhao/robonews/pkg/logger"
	"github.com/RobinCoderZhao/robonews/pkg/notify"
	"github.com/RobinCoderZhao/robonews/pkg/storage"
)

// DefaultPath is read when no path is given and ROBONEWS_CONFIG is unset.
const DefaultPath = "robonews.yaml"

// Config is the root configuration.
type Config struct {
	Database storage.Config   `yaml:"database"`
	Fetch    FetchConfig      `yaml:"fetch"`
	Schedule ScheduleConfig   `yaml:"schedule"`
	API      APIConfig        `yaml:"api"`
	Notify   NotifyConfig     `yaml:"notify"`
	Log      logger.Config    `yaml:"log"`
	Sources  []catalog.Source `yaml:"sources"` // replaces the built-in catalog when non-empty
}

// FetchConfig tunes ingestion runs.
type FetchConfig struct {
	Timeout     time.Duration `yaml:"timeout" env:"FETCH_TIMEOUT"`         // per source
	Concurrency int           `yaml:"concurrency" env:"FETCH_CONCURRENCY"` // 0 = all sources at once
	UserAgent   string        `yaml:"user_agent" env:"FETCH_USER_AGENT"`
}

// ScheduleConfig controls periodic runs in serve mode.
type ScheduleConfig struct {
	Interval time.Duration `yaml:"interval" env:"FETCH_INTERVAL"` // 0 disables
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Addr        string        `yaml:"addr" env:"API_ADDR"`
	FetchSecret string        `yaml:"fetch_secret" env:"FETCH_SECRET"`
	FetchEvery  time.Duration `yaml:"fetch_every"` // minimum spacing of triggered runs
	FetchBurst  int           `yaml:"fetch_burst"`
	CORSOrigins []string      `yaml:"cors_origins" env:"CORS_ORIGINS"`
}

// NotifyConfig lists the channels run reports go to.
type NotifyConfig struct {
	Webhook  notify.WebhookConfig  `yaml:"webhook"`
	Telegram notify.TelegramConfig `yaml:"telegram"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Database: storage.Config{
			Driver: storage.SQLite,
			DSN:    "data/robonews.db",
		},
		Fetch: FetchConfig{
			Timeout:   pipeline.DefaultTimeout,
			UserAgent: feedreader.DefaultUserAgent,
		},
		Schedule: ScheduleConfig{Interval: 30 * time.Minute},
		API: APIConfig{
			Addr:        ":8080",
			FetchEvery:  10 * time.Second,
			FetchBurst:  2,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Log: logger.Config{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path falls back to ROBONEWS_CONFIG, then DefaultPath; a missing
// default file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("ROBONEWS_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath
	}

	var err error
	if explicit {
		err = appconfig.Load(path, &cfg)
	} else {
		err = appconfig.LoadOrDefault(path, &cfg)
	}
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the process can not run with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case storage.SQLite, storage.Postgres, "":
	default:
		return fmt.Errorf("database.driver: unsupported %q", c.Database.Driver)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch.timeout: must not be negative")
	}
	if c.Fetch.Concurrency < 0 {
		return fmt.Errorf("fetch.concurrency: must not be negative")
	}
	if c.Schedule.Interval < 0 {
		return fmt.Errorf("schedule.interval: must not be negative")
	}
	if len(c.Sources) > 0 {
		if err := catalog.Validate(c.Sources); err != nil {
			return fmt.Errorf("sources: %w", err)
		}
	}
	return nil
}

// Catalog returns the configured sources, or the built-in catalog.
func (c Config) Catalog() []catalog.Source {
	if len(c.Sources) > 0 {
		return c.Sources
	}
	return catalog.Default()
}
