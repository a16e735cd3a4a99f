// Package config loads keychainctl configuration from environment variables,
// an optional YAML file and command-line flags.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ericfisherdev/keychainquery/internal/domain/model"
)

// EnvPrefix is prepended to every environment variable Load reads.
const EnvPrefix = "KEYCHAINQUERY"

// Store backends.
const (
	StoreSQLite    = "sqlite"
	StoreOSKeyring = "oskeyring"
)

// Config holds the validated configuration.
type Config struct {
	Store          string   `mapstructure:"store"`
	DBPath         string   `mapstructure:"db_path"`
	SecretKeyHex   string   `mapstructure:"secret_key"`
	KeyringService string   `mapstructure:"keyring_service"`
	AccessGroups   []string `mapstructure:"access_groups"`

	DefaultAccessibilityName string `mapstructure:"default_accessibility"`
	PlatformFamily           string `mapstructure:"platform_family"`
	PlatformVersion          string `mapstructure:"platform_version"`

	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	KeyringBackends []string `mapstructure:"keyring_backends"`
	KeyringFileDir  string   `mapstructure:"keyring_file_dir"`
	KeyringPassword string   `mapstructure:"keyring_password"`

	// Derived during validation.
	SecretKey            []byte              `mapstructure:"-"`
	DefaultAccessibility model.Accessibility `mapstructure:"-"`
}

// flagKeys maps command-line flag names onto configuration keys.
var flagKeys = map[string]string{
	"store":            "store",
	"db-path":          "db_path",
	"log-level":        "log_level",
	"log-file":         "log_file",
	"platform":         "platform_family",
	"platform-version": "platform_version",
	"accessibility":    "default_accessibility",
}

// Load reads configuration in increasing precedence: defaults, the YAML file
// named by KEYCHAINQUERY_CONFIG, KEYCHAINQUERY_* environment variables and
// any changed flags in flags (which may be nil).
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("store", StoreSQLite)
	v.SetDefault("db_path", "keychainquery.db")
	v.SetDefault("secret_key", "")
	v.SetDefault("keyring_service", "keychainquery")
	v.SetDefault("access_groups", []string{})
	v.SetDefault("default_accessibility", "")
	v.SetDefault("platform_family", "")
	v.SetDefault("platform_version", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("keyring_backends", []string{})
	v.SetDefault("keyring_file_dir", "")
	v.SetDefault("keyring_password", "")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AccessGroups = splitList(cfg.AccessGroups)
	cfg.KeyringBackends = splitList(cfg.KeyringBackends)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	switch c.Store {
	case StoreSQLite, StoreOSKeyring:
	default:
		errs = append(errs, fmt.Errorf("%s_STORE must be %q or %q, got %q", EnvPrefix, StoreSQLite, StoreOSKeyring, c.Store))
	}

	if c.SecretKeyHex != "" {
		key, err := hex.DecodeString(c.SecretKeyHex)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s_SECRET_KEY is not valid hex: %w", EnvPrefix, err))
		case len(key) != 32:
			errs = append(errs, fmt.Errorf("%s_SECRET_KEY must be 64 hex characters, got %d", EnvPrefix, len(c.SecretKeyHex)))
		default:
			c.SecretKey = key
		}
	}

	a, err := model.ParseAccessibility(c.DefaultAccessibilityName)
	if err != nil {
		errs = append(errs, fmt.Errorf("%s_DEFAULT_ACCESSIBILITY: %w", EnvPrefix, err))
	}
	c.DefaultAccessibility = a

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		errs = append(errs, fmt.Errorf("%s_LOG_LEVEL must be debug, info, warn or error, got %q", EnvPrefix, c.LogLevel))
	}

	return errors.Join(errs...)
}

// Platform returns detected with any configured override applied. A family
// override without a version clears the detected version.
func (c *Config) Platform(detected model.Platform) model.Platform {
	p := detected
	if c.PlatformFamily != "" {
		family := model.ParseOSFamily(c.PlatformFamily)
		if family != p.Family {
			p.Version = ""
		}
		p.Family = family
	}
	if c.PlatformVersion != "" {
		p.Version = c.PlatformVersion
	}
	return p
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(in []string) []string {
	out := []string{}
	for _, entry := range in {
		for _, s := range strings.Split(entry, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
