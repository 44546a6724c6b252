// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

const (
	defaultPrivateKey = "88888888888888888888888888888888"
	defaultJWTSecret  = "pokerlog-development-jwt-secret-change-me"

	minJWTSecretLength = 32
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	PrivateKey  string   `mapstructure:"privatekey"`

	// Token settings
	JWTSecret     string `mapstructure:"jwtsecret"`
	TokenTTLHours int    `mapstructure:"tokenttlhours"`

	// Timezone applied when a request does not name one
	DefaultTimezone string `mapstructure:"defaulttimezone"`

	// Comma separated list, "*" allows any origin
	CORSAllowedOrigins string `mapstructure:"corsallowedorigins"`

	// File paths
	DatabasePath          string `mapstructure:"storagepath"`
	DatabaseName          string `mapstructure:"-"` // Derived from other settings
	PublicDirectory       string `mapstructure:"publicdir"`
	PublicAssetsUrlPrefix string `mapstructure:"publicassetsurlprefix"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseMaxOpenConns int `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int `mapstructure:"dbmaxidleconns"`

	// Support mail settings
	SupportEmail string `mapstructure:"supportemail"`
	FromEmail    string `mapstructure:"fromemail"`
	SMTPHost     string `mapstructure:"smtphost"`
	SMTPPort     int    `mapstructure:"smtpport"`
	SMTPSecure   bool   `mapstructure:"smtpsecure"`
	SMTPUser     string `mapstructure:"smtpuser"`
	SMTPPass     string `mapstructure:"smtppass"`

	// Number of sessions generated by the demo seeder
	SeedSessionCount int `mapstructure:"seedsessioncount"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		v.SetDefault("appname", "pokerlog")
		v.SetDefault("appport", "3001")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("privatekey", defaultPrivateKey)
		v.SetDefault("jwtsecret", defaultJWTSecret)
		v.SetDefault("tokenttlhours", 30*24)
		v.SetDefault("defaulttimezone", "UTC")
		v.SetDefault("corsallowedorigins", "*")
		v.SetDefault("storagepath", "storage")
		v.SetDefault("publicdir", "web/dist")
		v.SetDefault("publicassetsurlprefix", "/")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("supportemail", "support@pokertracker.local")
		v.SetDefault("fromemail", "noreply@pokertracker.local")
		v.SetDefault("smtpport", 587)
		v.SetDefault("smtpsecure", false)
		v.SetDefault("seedsessioncount", 120)

		v.BindEnv("appname", "POKERLOG_APP_NAME")
		v.BindEnv("appport", "POKERLOG_APP_PORT")
		v.BindEnv("environment", "POKERLOG_ENV")
		v.BindEnv("loglevel", "POKERLOG_LOG_LEVEL")
		v.BindEnv("privatekey", "POKERLOG_PRIVATE_KEY")
		v.BindEnv("jwtsecret", "POKERLOG_JWT_SECRET")
		v.BindEnv("tokenttlhours", "POKERLOG_TOKEN_TTL_HOURS")
		v.BindEnv("defaulttimezone", "POKERLOG_DEFAULT_TIMEZONE")
		v.BindEnv("corsallowedorigins", "POKERLOG_CORS_ALLOWED_ORIGINS")
		v.BindEnv("storagepath", "POKERLOG_STORAGE_PATH")
		v.BindEnv("publicdir", "POKERLOG_PUBLIC_DIR")
		v.BindEnv("publicassetsurlprefix", "POKERLOG_PUBLIC_ASSETS_URL_PREFIX")
		v.BindEnv("logsdir", "POKERLOG_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "POKERLOG_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "POKERLOG_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "POKERLOG_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbmaxopenconns", "POKERLOG_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "POKERLOG_DB_MAX_IDLE_CONNS")
		v.BindEnv("supportemail", "SUPPORT_EMAIL")
		v.BindEnv("fromemail", "FROM_EMAIL")
		v.BindEnv("smtphost", "SMTP_HOST")
		v.BindEnv("smtpport", "SMTP_PORT")
		v.BindEnv("smtpsecure", "SMTP_SECURE")
		v.BindEnv("smtpuser", "SMTP_USER")
		v.BindEnv("smtppass", "SMTP_PASS")
		v.BindEnv("seedsessioncount", "POKERLOG_SEED_SESSION_COUNT")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		cfg.DatabaseName = cfg.GetDatabasePath()
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	if c.PrivateKey == "" {
		return fmt.Errorf("private key is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.TokenTTLHours <= 0 {
		return fmt.Errorf("token ttl must be positive, got %d hours", c.TokenTTLHours)
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid default timezone %q: %w", c.DefaultTimezone, err)
	}

	if c.IsProduction() {
		if c.PrivateKey == defaultPrivateKey {
			return fmt.Errorf("production requires a unique POKERLOG_PRIVATE_KEY (cannot use default)")
		}
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("production requires a unique POKERLOG_JWT_SECRET (cannot use default)")
		}
		if len(c.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("POKERLOG_JWT_SECRET must be at least %d bytes", minJWTSecretLength)
		}
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetPort returns the HTTP server port (implements cartridge.Config interface).
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetPublicDirectory returns the path to public/static assets (implements cartridge.Config interface).
func (c *Config) GetPublicDirectory() string {
	return c.PublicDirectory
}

// GetAssetsPrefix returns the URL prefix for static assets (implements cartridge.Config interface).
func (c *Config) GetAssetsPrefix() string {
	return c.PublicAssetsUrlPrefix
}

// GetAppName returns the application name (implements cartridge.FactoryConfig interface).
func (c *Config) GetAppName() string {
	return c.AppName
}

// DatabaseDSN returns the database connection string (implements cartridge.FactoryConfig interface).
func (c *Config) DatabaseDSN() string {
	return c.GetDatabasePath()
}

// GetSessionSecret returns the session encryption key (implements cartridge.FactoryConfig interface).
func (c *Config) GetSessionSecret() string {
	return c.PrivateKey
}

// GetTokenTTL returns how long issued bearer tokens stay valid.
func (c *Config) GetTokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// GetDefaultLocation returns the timezone used when a request carries none.
func (c *Config) GetDefaultLocation() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetCORSAllowedOrigins returns the origins accepted by the JSON API in fiber's format.
func (c *Config) GetCORSAllowedOrigins() string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ",")
}

// SMTPConfigured reports whether outbound support mail can be delivered.
func (c *Config) SMTPConfigured() bool {
	return strings.TrimSpace(c.SMTPHost) != ""
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1
// - Development/Production: 10
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// GetLogLevel returns the log level as a string (implements cartridge.LogConfigProvider).
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory (implements cartridge.LogConfigProvider).
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
