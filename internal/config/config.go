package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath       = "CONFIG_PATH"
	EnvDBConnection     = "DB_CONNECTION"
	EnvJWTSecret        = "JWT_SECRET"
	EnvJWTExpiry        = "JWT_EXPIRY"
	EnvLockoutThreshold = "AUTH_LOCKOUT_THRESHOLD"
	EnvStrictMenu       = "AUTH_STRICT_MENU_RESOLUTION"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// AuthConfig holds account security settings.
type AuthConfig struct {
	LockoutThreshold       int  `yaml:"lockout-threshold"`        // Failed attempts before disable.
	PasswordMinLength      int  `yaml:"password-min-length"`      // Minimum password length on change.
	PasswordMaxLength      int  `yaml:"password-max-length"`      // Maximum password length on change.
	PasswordLifetimeMonths int  `yaml:"password-lifetime-months"` // Months until a forced reset.
	StrictMenuResolution   bool `yaml:"strict-menu-resolution"`   // Deny when no menu context resolves.
}

// RateLimitConfig holds login rate limiter settings.
type RateLimitConfig struct {
	LoginPerSecond int    `yaml:"login-per-second"` // Login attempts per account per second, 0 disables.
	RedisEnabled   bool   `yaml:"redis-enabled"`    // Use Redis instead of the in-memory window.
	RedisAddr      string `yaml:"redis-addr"`       // Redis host:port.
	RedisPassword  string `yaml:"redis-password"`   // Redis password.
	RedisDB        int    `yaml:"redis-db"`         // Redis logical database.
	RedisPrefix    string `yaml:"redis-prefix"`     // Key prefix.
}

// LoadDatabaseDSN reads the database DSN from the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 8 * time.Hour

// LoadJWTConfig loads JWT settings from the YAML config file.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	// fileConfig maps the YAML fields needed for JWT settings.
	type fileConfig struct {
		JWT JWTConfig `yaml:"jwt"`
	}

	result := JWTConfig{Expiry: defaultJWTExpiry}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.JWT
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}

	if result.Expiry <= 0 {
		result.Expiry = defaultJWTExpiry
	}
	return result, nil
}

// Defaults applied when the config omits auth settings.
const (
	DefaultLockoutThreshold       = 5
	DefaultPasswordMinLength      = 8
	DefaultPasswordMaxLength      = 16
	DefaultPasswordLifetimeMonths = 3
)

// LoadAuthConfig loads account security settings from the YAML config file.
func LoadAuthConfig(configPath string) (AuthConfig, error) {
	// fileConfig maps the YAML fields needed for auth settings.
	type fileConfig struct {
		Auth AuthConfig `yaml:"auth"`
	}

	var result AuthConfig

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.Auth
		}
	}

	if raw := strings.TrimSpace(os.Getenv(EnvLockoutThreshold)); raw != "" {
		if threshold, errParse := strconv.Atoi(raw); errParse == nil && threshold > 0 {
			result.LockoutThreshold = threshold
		}
	}
	if raw := strings.TrimSpace(os.Getenv(EnvStrictMenu)); raw != "" {
		if strict, errParse := strconv.ParseBool(raw); errParse == nil {
			result.StrictMenuResolution = strict
		}
	}

	if result.LockoutThreshold <= 0 {
		result.LockoutThreshold = DefaultLockoutThreshold
	}
	if result.PasswordMinLength <= 0 {
		result.PasswordMinLength = DefaultPasswordMinLength
	}
	if result.PasswordMaxLength < result.PasswordMinLength {
		result.PasswordMaxLength = DefaultPasswordMaxLength
	}
	if result.PasswordLifetimeMonths <= 0 {
		result.PasswordLifetimeMonths = DefaultPasswordLifetimeMonths
	}
	return result, nil
}

// LoadRateLimitConfig loads login rate limiter settings from the YAML config file.
func LoadRateLimitConfig(configPath string) (RateLimitConfig, error) {
	// fileConfig maps the YAML fields needed for rate limiter settings.
	type fileConfig struct {
		RateLimit RateLimitConfig `yaml:"rate-limit"`
	}

	var result RateLimitConfig

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.RateLimit
		}
	}

	if result.LoginPerSecond < 0 {
		result.LoginPerSecond = 0
	}
	if result.RedisDB < 0 {
		result.RedisDB = 0
	}
	return result, nil
}
