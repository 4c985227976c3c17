// Package config loads vrchatbot settings from a YAML file, VRCHATBOT_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "VRCHATBOT"
	configName = "vrchatbot"
)

// Config is the full application configuration.
type Config struct {
	DataDir        string        `mapstructure:"data_dir" validate:"required"`
	Storage        string        `mapstructure:"storage" validate:"oneof=file bbolt memory"`
	SealPassphrase string        `mapstructure:"seal_passphrase"`
	Locale         string        `mapstructure:"locale" validate:"oneof=en zh"`
	API            APIConfig     `mapstructure:"api"`
	Session        SessionConfig `mapstructure:"session"`
	Server         ServerConfig  `mapstructure:"server"`
	Alerts         AlertsConfig  `mapstructure:"alerts"`
	Log            LogConfig     `mapstructure:"log"`
}

// APIConfig configures the upstream VRChat client.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url" validate:"required,url"`
	UserAgent string        `mapstructure:"user_agent" validate:"required"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Rate      float64       `mapstructure:"rate" validate:"gte=0"`
	Burst     int           `mapstructure:"burst" validate:"gte=1"`
}

// SessionConfig tunes the session layer and conversations.
type SessionConfig struct {
	ExpireTimeout     time.Duration `mapstructure:"expire_timeout" validate:"gt=0"`
	ProbeTTL          time.Duration `mapstructure:"probe_ttl" validate:"gte=0"`
	PruneStaleCookies bool          `mapstructure:"prune_stale_cookies"`
}

// ServerConfig configures the HTTP gateway.
type ServerConfig struct {
	Addr  string `mapstructure:"addr" validate:"required,hostname_port"`
	Token string `mapstructure:"token"`
	// TrustedProxies are CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string `mapstructure:"trusted_proxies" validate:"dive,cidr"`
}

// AlertsConfig routes login anomaly alerts to a webhook.
type AlertsConfig struct {
	WebhookURL    string `mapstructure:"webhook_url" validate:"omitempty,url"`
	WebhookHeader string `mapstructure:"webhook_header"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", filepath.Join("data", "vrchat"))
	v.SetDefault("storage", "file")
	v.SetDefault("locale", "en")
	v.SetDefault("api.base_url", "https://api.vrchat.cloud/api/1")
	v.SetDefault("api.user_agent", "vrchatbot/1.0 (+https://github.com/jmcleod/vrchatbot)")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.rate", 2.0)
	v.SetDefault("api.burst", 4)
	v.SetDefault("session.expire_timeout", 120*time.Second)
	v.SetDefault("session.probe_ttl", 10*time.Second)
	v.SetDefault("session.prune_stale_cookies", true)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.token", "")
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("seal_passphrase", "")
	v.SetDefault("alerts.webhook_url", "")
	v.SetDefault("alerts.webhook_header", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults, env binding and the config
// file search set up. An empty configFile searches ./vrchatbot.yaml and
// ~/.vrchatbot/vrchatbot.yaml.
func New(configFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		v.SetConfigFile(found)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func findConfigFile() string {
	home, _ := os.UserHomeDir()
	for _, dir := range []string{".", filepath.Join(home, ".vrchatbot")} {
		for _, ext := range []string{".yaml", ".yml"} {
			p := filepath.Join(dir, configName+ext)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// Load reads the config file (a missing file is fine), unmarshals and
// validates.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks struct tags.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// SlogLevel maps Log.Level to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger described by Log.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func formatValidationErrors(err error) error {
	validationErrors, ok := errors.AsType[validator.ValidationErrors](err)
	if !ok {
		return err
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatSingleValidationError(e))
	}
	return errors.New(strings.Join(messages, "; "))
}

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "cidr":
		return fmt.Sprintf("%s must be a CIDR", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "gt", "gte":
		return fmt.Sprintf("%s must be %s %s", field, map[string]string{"gt": ">", "gte": ">="}[e.Tag()], e.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
