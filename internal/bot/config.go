package bot

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/tickerbot/core/config"
	coredatabase "github.com/m3rciful/tickerbot/core/database"
)

const (
	defaultIdleTimeoutSeconds  = 40
	defaultSweepIntervalSecond = 30
	defaultNewsTimeoutSeconds  = 10
	defaultNewsMaxItems        = 10
)

// SessionConfig tunes conversation lifetimes.
type SessionConfig struct {
	IdleTimeoutSeconds   int `yaml:"idle_timeout_seconds" envconfig:"SESSION_IDLE_TIMEOUT_SECONDS"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds" envconfig:"SESSION_SWEEP_INTERVAL_SECONDS"`
}

// IdleTimeout returns the idle duration.
func (c SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

// RoomsConfig declares the allow-list sources. Allowed maps chat id to the
// single thread id the bot answers in.
type RoomsConfig struct {
	UseDatabase bool            `yaml:"use_database" envconfig:"ROOMS_USE_DATABASE"`
	Allowed     map[int64]int64 `yaml:"allowed" ignored:"true"`
}

// NewsConfig tunes the headline feed.
type NewsConfig struct {
	FeedURL        string `yaml:"feed_url" envconfig:"NEWS_FEED_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"NEWS_TIMEOUT_SECONDS"`
	MaxItems       int    `yaml:"max_items" envconfig:"NEWS_MAX_ITEMS"`
}

// Config is the full application configuration: the shared core sections
// inlined, plus the bot's own.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Session  SessionConfig       `yaml:"session"`
	Rooms    RoomsConfig         `yaml:"rooms"`
	News     NewsConfig          `yaml:"news"`
	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// Load reads the YAML file, applies environment overrides and validates.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return err
	}

	if cfg.Session.IdleTimeoutSeconds < 0 {
		return fmt.Errorf("session.idle_timeout_seconds must be >= 0")
	}
	if cfg.Session.IdleTimeoutSeconds == 0 {
		cfg.Session.IdleTimeoutSeconds = defaultIdleTimeoutSeconds
	}
	if cfg.Session.SweepIntervalSeconds <= 0 {
		cfg.Session.SweepIntervalSeconds = defaultSweepIntervalSecond
	}

	if cfg.Rooms.UseDatabase && !cfg.Database.Enabled() {
		return fmt.Errorf("rooms.use_database requires a configured database")
	}

	if cfg.News.TimeoutSeconds <= 0 {
		cfg.News.TimeoutSeconds = defaultNewsTimeoutSeconds
	}
	if cfg.News.MaxItems <= 0 {
		cfg.News.MaxItems = defaultNewsMaxItems
	}
	return nil
}
