package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/flowly/internal/common"
)

// EnvPrefix prefixes environment overrides, e.g. FLOWLY_DATABASE_PATH.
const EnvPrefix = "FLOWLY"

// Configuration keys.
const (
	KeyDatabasePath   = "database.path"
	KeyLogLevel       = "logging.level"
	KeyLogFormat      = "logging.format"
	KeyLedgerTimezone = "ledger.timezone"
	KeyServerAddr     = "server.addr"
)

// DefaultServerAddr is where the HTTP API listens by default.
const DefaultServerAddr = "127.0.0.1:8080"

// Config is the resolved application configuration.
type Config struct {
	// Location is the time zone used for "today" and calendar dates.
	Location     *time.Location
	DatabasePath string
	LogLevel     string
	LogFormat    string
	ServerAddr   string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyLedgerTimezone, "Local")
	v.SetDefault(KeyServerAddr, DefaultServerAddr)
}

// LoadEnv loads a .env file into the process environment. An empty path
// tries .env in the working directory and ignores its absence. Variables
// already set are not overridden.
func LoadEnv(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// Load resolves the configuration from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabasePath: ExpandPath(v.GetString(KeyDatabasePath)),
		LogLevel:     v.GetString(KeyLogLevel),
		LogFormat:    v.GetString(KeyLogFormat),
		ServerAddr:   v.GetString(KeyServerAddr),
	}

	tz := v.GetString(KeyLedgerTimezone)
	if tz == "" {
		tz = "Local"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %w", common.ErrInvalidConfig, KeyLedgerTimezone, tz, err)
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyDatabasePath)
	}
	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %s: %w", common.ErrInvalidConfig, KeyLogLevel, err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: %s must be console or json, got %q", common.ErrInvalidConfig, KeyLogFormat, c.LogFormat)
	}
	if c.ServerAddr != "" {
		if _, _, err := net.SplitHostPort(c.ServerAddr); err != nil {
			return fmt.Errorf("%w: %s: %w", common.ErrInvalidConfig, KeyServerAddr, err)
		}
	}
	if c.Location == nil {
		return fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyLedgerTimezone)
	}
	return nil
}

// Now returns the current time in the ledger's time zone.
func (c *Config) Now() time.Time {
	return time.Now().In(c.Location)
}
