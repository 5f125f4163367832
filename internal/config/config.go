// Package config builds the bot configuration from an optional YAML file, a
// .env file and the process environment. Secrets come from the environment only.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load
const (
	EnvBotToken    = "BOT_TOKEN"
	EnvChatID      = "CHAT_ID"
	EnvBaseURL     = "BASE_URL"
	EnvDBPath      = "DB_PATH"
	EnvLogLevel    = "LOG_LEVEL"
	EnvMetricsAddr = "METRICS_ADDR"
)

var (
	ErrMissingBotToken = errors.New(EnvBotToken + " is not set")
	ErrMissingChatID   = errors.New(EnvChatID + " is not set")
)

// Config holds every setting of the bot. It is built once at startup and
// passed to the components that need it.
type Config struct {
	BotToken string `yaml:"-"`
	ChatID   string `yaml:"-"`

	BaseURL       string        `yaml:"base_url"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
	CheckInterval time.Duration `yaml:"check_interval"`
	SendDelay     time.Duration `yaml:"send_delay"`
	MaxCards      int           `yaml:"max_cards"`
	MaxPerCycle   int           `yaml:"max_per_cycle"`
	DBPath        string        `yaml:"db_path"`
	MetricsAddr   string        `yaml:"metrics_addr"`
	LogLevel      string        `yaml:"log_level"`
	PollTimeout   time.Duration `yaml:"poll_timeout"`
}

// Load reads .env (if present), then the YAML file at path (if non-empty), then
// environment overrides, and finally fills defaults. It does not check secrets;
// see Validate.
func Load(path string) (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}

	c.BotToken = strings.TrimSpace(os.Getenv(EnvBotToken))
	c.ChatID = strings.TrimSpace(os.Getenv(EnvChatID))
	overrideString(&c.BaseURL, EnvBaseURL)
	overrideString(&c.DBPath, EnvDBPath)
	overrideString(&c.LogLevel, EnvLogLevel)
	overrideString(&c.MetricsAddr, EnvMetricsAddr)

	c.applyDefaults()
	return &c, nil
}

func overrideString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

// Defaults
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://projects.pervye.ru"
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = 15 * time.Second
	}
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = 10 * time.Second
	}
	if c.CheckInterval == 0 {
		c.CheckInterval = 2 * time.Hour
	}
	if c.SendDelay == 0 {
		c.SendDelay = time.Second
	}
	if c.MaxCards <= 0 {
		c.MaxCards = 10
	}
	if c.MaxPerCycle <= 0 {
		c.MaxPerCycle = 3
	}
	if c.DBPath == "" {
		c.DBPath = "events.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = 30 * time.Second
	}
}

// Validate reports every missing required secret
func (c *Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, ErrMissingBotToken)
	}
	if c.ChatID == "" {
		errs = append(errs, ErrMissingChatID)
	}
	return errors.Join(errs...)
}
