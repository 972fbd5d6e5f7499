// Package config loads foldermon configuration from a TOML file, environment
// variables and command-line overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is where the config file is looked up when none is given.
const DefaultPath = "config/config.toml"

// Config holds the application configuration.
type Config struct {
	// FolderPath is the directory tree to watch.
	FolderPath string `toml:"folder_path" env:"FOLDER_PATH" validate:"required"`

	App    AppConfig     `toml:"app"`
	Logger LoggerConfig  `toml:"logger"`
	Watch  WatchConfig   `toml:"watch"`
	Notify NotifyConfig  `toml:"notify"`
	Email  EmailSettings `toml:"email_settings"`
	Server ServerConfig  `toml:"server"`
	UI     UIConfig      `toml:"ui"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `toml:"environment" env:"ENV" env-default:"development" validate:"oneof=development staging production"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string `toml:"level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn warning error"`
	Format string `toml:"format" env:"LOG_FORMAT" validate:"omitempty,oneof=json pretty"`
	// File receives logs while the terminal UI owns the screen.
	File string `toml:"file" env:"LOG_FILE" env-default:"foldermon.log"`
}

// WatchConfig holds watcher, classifier and delivery queue configuration.
type WatchConfig struct {
	Extension      string        `toml:"extension" env:"WATCH_EXTENSION" env-default:".pdf" validate:"required"`
	Backend        string        `toml:"backend" env:"WATCH_BACKEND" env-default:"auto" validate:"oneof=auto inotify fsnotify notify"`
	IgnorePatterns []string      `toml:"ignore_patterns" env:"WATCH_IGNORE_PATTERNS" env-separator:","`
	IgnoreHidden   bool          `toml:"ignore_hidden" env:"WATCH_IGNORE_HIDDEN"`
	TickInterval   time.Duration `toml:"tick_interval" env:"WATCH_TICK_INTERVAL" env-default:"100ms" validate:"gt=0"`
	QueueCapacity  int           `toml:"queue_capacity" env:"WATCH_QUEUE_CAPACITY" validate:"gte=0"`
	QueueOverflow  string        `toml:"queue_overflow" env:"WATCH_QUEUE_OVERFLOW" env-default:"drop-newest" validate:"oneof=drop-newest drop-oldest block"`
}

// NotifyConfig holds notification side-effect configuration.
type NotifyConfig struct {
	// Enabled is the initial state of the notify flag.
	Enabled bool `toml:"enabled" env:"NOTIFY_ENABLED"`
	// Channel is "email" or "log"; empty selects email when an SMTP server is configured.
	Channel string  `toml:"channel" env:"NOTIFY_CHANNEL" validate:"omitempty,oneof=email log"`
	Rate    float64 `toml:"rate" env:"NOTIFY_RATE" env-default:"1" validate:"gt=0"`
	Burst   int     `toml:"burst" env:"NOTIFY_BURST" env-default:"5" validate:"gt=0"`
}

// EmailSettings holds SMTP settings for email notifications.
type EmailSettings struct {
	SMTPServer   string `toml:"smtp_server" env:"SMTP_SERVER"`
	SMTPPort     int    `toml:"smtp_port" env:"SMTP_PORT" env-default:"465" validate:"gt=0,lte=65535"`
	SMTPUser     string `toml:"smtp_user" env:"SMTP_USER"`
	SMTPPassword string `toml:"smtp_password" env:"SMTP_PASSWORD"`
	Sender       string `toml:"sender" env:"SMTP_SENDER" validate:"omitempty,email"`
	Recipient    string `toml:"recipient" env:"SMTP_RECIPIENT" validate:"omitempty,email"`
	// SSL selects implicit TLS; otherwise STARTTLS is required.
	SSL     bool   `toml:"ssl" env:"SMTP_SSL"`
	Subject string `toml:"subject" env:"SMTP_SUBJECT"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Enabled        bool          `toml:"enabled" env:"SERVER_ENABLED"`
	Name           string        `toml:"name" env:"SERVER_NAME" env-default:"foldermon"`
	Port           string        `toml:"port" env:"SERVER_PORT" env-default:"8080" validate:"numeric"`
	ReadTimeout    time.Duration `toml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	IdleTimeout    time.Duration `toml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	AllowedOrigins []string      `toml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	RateLimit      float64       `toml:"rate_limit" env:"SERVER_RATE_LIMIT" env-default:"20" validate:"gt=0"`
	RateBurst      int           `toml:"rate_burst" env:"SERVER_RATE_BURST" env-default:"40" validate:"gt=0"`
	AdvertiseMDNS  bool          `toml:"advertise_mdns" env:"ADVERTISE_MDNS"`
}

// UIConfig holds presentation configuration.
type UIConfig struct {
	Mode    string `toml:"mode" env:"UI_MODE" env-default:"tui" validate:"oneof=tui headless"`
	ShowLog bool   `toml:"show_log" env:"UI_SHOW_LOG"`
}

// Overrides carries command-line values. Empty strings and nil pointers
// leave the loaded value untouched.
type Overrides struct {
	ConfigPath    string
	FolderPath    string
	Extension     string
	Backend       string
	Environment   string
	LogLevel      string
	Port          string
	Headless      *bool
	NotifyEnabled *bool
	ServerEnabled *bool
	ShowLog       *bool
}

// Default returns a Config with the defaults that env-default tags cannot
// express. cleanenv only applies a default when the field is still zero, so
// booleans that default to true are seeded here instead.
func Default() Config {
	return Config{
		Notify: NotifyConfig{Enabled: true},
		Email:  EmailSettings{SSL: true},
		Server: ServerConfig{Enabled: true},
	}
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line overrides (highest priority).
// 2. Environment variables.
// 3. TOML config file.
// 4. Default values (lowest priority).
func LoadConfig(ov Overrides) (*Config, error) {
	path := ov.ConfigPath
	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.apply(ov)

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// apply copies set overrides onto the config.
func (c *Config) apply(ov Overrides) {
	setString(&c.FolderPath, ov.FolderPath)
	setString(&c.Watch.Extension, ov.Extension)
	setString(&c.Watch.Backend, ov.Backend)
	setString(&c.App.Environment, ov.Environment)
	setString(&c.Logger.Level, ov.LogLevel)
	setString(&c.Server.Port, ov.Port)

	if ov.Headless != nil {
		if *ov.Headless {
			c.UI.Mode = "headless"
		} else {
			c.UI.Mode = "tui"
		}
	}
	if ov.NotifyEnabled != nil {
		c.Notify.Enabled = *ov.NotifyEnabled
	}
	if ov.ServerEnabled != nil {
		c.Server.Enabled = *ov.ServerEnabled
	}
	if ov.ShowLog != nil {
		c.UI.ShowLog = *ov.ShowLog
	}

	c.Logger.Level = strings.ToLower(c.Logger.Level)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// NotifyChannel resolves the notification channel, defaulting to email when
// an SMTP server is configured.
func (c *Config) NotifyChannel() string {
	if c.Notify.Channel != "" {
		return c.Notify.Channel
	}
	if c.Email.SMTPServer != "" {
		return "email"
	}
	return "log"
}

// Headless reports whether the terminal UI is disabled.
func (c *Config) Headless() bool {
	return c.UI.Mode == "headless"
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.NotifyChannel() == "email" {
		missing := []string{}
		if c.Email.SMTPServer == "" {
			missing = append(missing, "smtp_server")
		}
		if c.Email.Sender == "" {
			missing = append(missing, "sender")
		}
		if c.Email.Recipient == "" {
			missing = append(missing, "recipient")
		}
		if len(missing) > 0 {
			return fmt.Errorf("email notifications require email_settings: %s", strings.Join(missing, ", "))
		}
	}

	return nil
}

func (c *Config) expandPaths() error {
	folder, err := expandPath(c.FolderPath)
	if err != nil {
		return fmt.Errorf("invalid folder path: %w", err)
	}
	c.FolderPath = folder

	logFile, err := expandPath(c.Logger.File)
	if err != nil {
		return fmt.Errorf("invalid log file path: %w", err)
	}
	c.Logger.File = logFile

	return nil
}

// expandPath expands ~ and makes the path absolute. Empty stays empty.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}
