package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"omsz_portal/internal/models"
	"omsz_portal/internal/rollover"
)

// Config is the full service configuration.
type Config struct {
	Server        ServerConfig   `yaml:"server"`
	Storage       StorageConfig  `yaml:"storage"`
	Admin         AdminConfig    `yaml:"admin"`
	Session       SessionConfig  `yaml:"session"`
	Rollover      RolloverConfig `yaml:"rollover"`
	SummaryWindow WindowConfig   `yaml:"summary_window"`
	Locale        LocaleConfig   `yaml:"locale"`
	Log           LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	SessionSecret string `yaml:"session_secret"`
	StaticDir     string `yaml:"static_dir"`
	SecureCookie  bool   `yaml:"secure_cookie"`
}

type StorageConfig struct {
	Driver        string `yaml:"driver"` // memory, file, postgres, redis
	FilePath      string `yaml:"file_path"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	KeyPrefix     string `yaml:"key_prefix"`

	RedisDialTimeout time.Duration `yaml:"redis_dial_timeout"`
	RedisReadTimeout time.Duration `yaml:"redis_read_timeout"`
}

// AdminConfig describes the bootstrap administrator seeded into an empty store.
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	FullName string `yaml:"full_name"`
	Rank     string `yaml:"rank"`
}

type SessionConfig struct {
	InactivityTimeout time.Duration `yaml:"inactivity_timeout"`
}

type RolloverConfig struct {
	Weekday string `yaml:"weekday"`
	Time    string `yaml:"time"` // HH:MM
	CatchUp bool   `yaml:"catch_up"`
}

// WindowConfig is the weekly period during which the live summary is shown.
type WindowConfig struct {
	Weekday string `yaml:"weekday"`
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
}

type LocaleConfig struct {
	Timezone string `yaml:"timezone"`
	Language string `yaml:"language"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Environment string `yaml:"environment"`
	WithSource  bool   `yaml:"with_source"`
	File        string `yaml:"file"`
	MaxSizeMB   int    `yaml:"max_size_mb"`
	MaxBackups  int    `yaml:"max_backups"`
	MaxAgeDays  int    `yaml:"max_age_days"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":8084",
			StaticDir: "./static",
		},
		Storage: StorageConfig{
			Driver:    "file",
			FilePath:  "./data/portal.json",
			KeyPrefix: "omsz-portal.",

			RedisDialTimeout: 5 * time.Second,
			RedisReadTimeout: 3 * time.Second,
		},
		Admin: AdminConfig{
			Username: "asd",
			Password: "1134",
			FullName: "Admin",
			Rank:     models.TopRank,
		},
		Session: SessionConfig{
			InactivityTimeout: 60 * time.Minute,
		},
		Rollover: RolloverConfig{
			Weekday: "sunday",
			Time:    "20:00",
			CatchUp: true,
		},
		SummaryWindow: WindowConfig{
			Weekday: "sunday",
			Start:   "20:00",
			End:     "21:00",
		},
		Locale: LocaleConfig{
			Timezone: "Europe/Budapest",
			Language: "hu",
		},
		Log: LogConfig{
			Level:       "info",
			Environment: "dev",
			MaxSizeMB:   100,
			MaxBackups:  5,
			MaxAgeDays:  28,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Server.Addr = getEnv("PORTAL_ADDR", cfg.Server.Addr)
	cfg.Server.SessionSecret = getEnv("PORTAL_SESSION_SECRET", cfg.Server.SessionSecret)
	cfg.Server.StaticDir = getEnv("PORTAL_STATIC_DIR", cfg.Server.StaticDir)

	cfg.Storage.Driver = getEnv("PORTAL_STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.FilePath = getEnv("PORTAL_STORAGE_FILE", cfg.Storage.FilePath)
	cfg.Storage.PostgresDSN = getEnv("PORTAL_POSTGRES_DSN", cfg.Storage.PostgresDSN)
	cfg.Storage.RedisAddr = getEnv("PORTAL_REDIS_ADDR", cfg.Storage.RedisAddr)
	cfg.Storage.RedisPassword = getEnv("PORTAL_REDIS_PASSWORD", cfg.Storage.RedisPassword)
	cfg.Storage.KeyPrefix = getEnv("PORTAL_KEY_PREFIX", cfg.Storage.KeyPrefix)
	if v := os.Getenv("PORTAL_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORTAL_REDIS_DB: %w", err)
		}
		cfg.Storage.RedisDB = db
	}
	if v := os.Getenv("PORTAL_REDIS_DIAL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PORTAL_REDIS_DIAL_TIMEOUT: %w", err)
		}
		cfg.Storage.RedisDialTimeout = d
	}
	if v := os.Getenv("PORTAL_REDIS_READ_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PORTAL_REDIS_READ_TIMEOUT: %w", err)
		}
		cfg.Storage.RedisReadTimeout = d
	}

	cfg.Admin.Username = getEnv("PORTAL_ADMIN_USERNAME", cfg.Admin.Username)
	cfg.Admin.Password = getEnv("PORTAL_ADMIN_PASSWORD", cfg.Admin.Password)

	if v := os.Getenv("PORTAL_INACTIVITY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PORTAL_INACTIVITY_TIMEOUT: %w", err)
		}
		cfg.Session.InactivityTimeout = d
	}

	cfg.Locale.Timezone = getEnv("PORTAL_TIMEZONE", cfg.Locale.Timezone)
	cfg.Locale.Language = getEnv("PORTAL_LANGUAGE", cfg.Locale.Language)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Environment = getEnv("ENV", cfg.Log.Environment)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	if v := os.Getenv("LOG_WITH_SOURCE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_WITH_SOURCE: %w", err)
		}
		cfg.Log.WithSource = b
	}
	return nil
}

// Validate checks the configuration for values the service cannot run with.
func Validate(cfg *Config) error {
	var problems []string

	switch cfg.Storage.Driver {
	case "memory":
	case "file":
		if cfg.Storage.FilePath == "" {
			problems = append(problems, "storage.file_path is required for the file driver")
		}
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			problems = append(problems, "storage.postgres_dsn is required for the postgres driver")
		}
	case "redis":
		if cfg.Storage.RedisAddr == "" {
			problems = append(problems, "storage.redis_addr is required for the redis driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage.driver %q", cfg.Storage.Driver))
	}

	if cfg.Admin.Username == "" || cfg.Admin.Password == "" {
		problems = append(problems, "admin.username and admin.password are required")
	}
	if !models.IsRank(cfg.Admin.Rank) {
		problems = append(problems, fmt.Sprintf("admin.rank %q is not a known rank", cfg.Admin.Rank))
	}

	if cfg.Storage.RedisDialTimeout < 0 || cfg.Storage.RedisReadTimeout < 0 {
		problems = append(problems, "storage redis timeouts must not be negative")
	}
	if cfg.Log.MaxSizeMB < 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0 {
		problems = append(problems, "log rotation limits must not be negative")
	}

	if cfg.Session.InactivityTimeout <= 0 {
		problems = append(problems, "session.inactivity_timeout must be positive")
	}

	if _, err := rollover.ParseInstant(cfg.Rollover.Weekday, cfg.Rollover.Time); err != nil {
		problems = append(problems, "rollover: "+err.Error())
	}
	if _, err := rollover.ParseWindow(cfg.SummaryWindow.Weekday, cfg.SummaryWindow.Start, cfg.SummaryWindow.End); err != nil {
		problems = append(problems, "summary_window: "+err.Error())
	}

	if _, err := time.LoadLocation(cfg.Locale.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("locale.timezone %q: %v", cfg.Locale.Timezone, err))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
