package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Good-for-good/goodforgood-sub000/internal/validation"
)

// EnvPrefix is the prefix for environment overrides (e.g. GFG_PG_HOST).
const EnvPrefix = "GFG"

// Config holds all application configuration.
type Config struct {
	PG        PGConfig        `mapstructure:"pg"`
	Server    ServerConfig    `mapstructure:"server"`
	Session   SessionConfig   `mapstructure:"session"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// Validate checks if all configuration sections have valid values.
func (c Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.Session.Store == string(SessionStoreRedis) && c.Redis.URL == "" {
		return errors.New("session.store=redis requires redis.url")
	}
	return nil
}

// PGConfig holds PostgreSQL connection settings.
// Environment variables use GFG_PG_* prefix (e.g., GFG_PG_HOST, GFG_PG_PORT).
type PGConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Database string `mapstructure:"database" validate:"required"`
	SSLMode  string `mapstructure:"sslmode" validate:"required,sslmode"`

	MaxConns          int32         `mapstructure:"max_conns" validate:"required,min=1"`
	MinConns          int32         `mapstructure:"min_conns" validate:"min=0,ltefield=MaxConns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime" validate:"required,gt=0"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time" validate:"required,gt=0"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period" validate:"required,gt=0"`

	// Migration credentials own DDL (cmd/migrate); app credentials are DML only (cmd/server).
	UserMigration string `mapstructure:"user_migration"`
	PassMigration string `mapstructure:"pass_migration"`
	UserApp       string `mapstructure:"user_app" validate:"required"`
	PassApp       string `mapstructure:"pass_app"`
}

// MigrationDSN returns the connection string used by cmd/migrate.
// Falls back to the app credentials when no migration user is configured.
func (c PGConfig) MigrationDSN() string {
	if c.UserMigration == "" {
		return c.AppDSN()
	}
	return c.buildDSN(c.UserMigration, c.PassMigration)
}

// AppDSN returns the connection string for runtime queries.
func (c PGConfig) AppDSN() string {
	return c.buildDSN(c.UserApp, c.PassApp)
}

func (c PGConfig) buildDSN(user, password string) string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, user, c.Database, c.SSLMode)
	if password != "" {
		dsn += fmt.Sprintf(" password='%s'", escapePassword(password))
	}
	return dsn
}

// SSLMode represents valid PostgreSQL SSL modes.
// PGConfig keeps SSLMode as a string for viper; the "sslmode" validator enforces it.
type SSLMode string

// Valid SSL modes for PostgreSQL connections.
const (
	SSLModeDisable    SSLMode = "disable"
	SSLModeAllow      SSLMode = "allow"
	SSLModePrefer     SSLMode = "prefer"
	SSLModeRequire    SSLMode = "require"
	SSLModeVerifyCA   SSLMode = "verify-ca"
	SSLModeVerifyFull SSLMode = "verify-full"
)

// Valid returns true if the SSLMode is a recognized PostgreSQL SSL mode.
func (m SSLMode) Valid() bool {
	switch m {
	case SSLModeDisable, SSLModeAllow, SSLModePrefer, SSLModeRequire, SSLModeVerifyCA, SSLModeVerifyFull:
		return true
	default:
		return false
	}
}

// escapePassword escapes backslashes and single quotes for a single-quoted DSN value.
func escapePassword(password string) string {
	escaped := strings.ReplaceAll(password, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)
	return escaped
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"required,gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"required,gt=0"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" validate:"required,gt=0"`
	// TrustedProxies lists the CIDRs or addresses whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty means the peer address is used.
	TrustedProxies []string `mapstructure:"trusted_proxies" validate:"dive,cidr|ip"`
}

// SessionStore names a session storage backend.
type SessionStore string

// Session storage backends.
const (
	SessionStorePostgres SessionStore = "postgres"
	SessionStoreRedis    SessionStore = "redis"
	SessionStoreMemory   SessionStore = "memory"
)

// SessionConfig holds session lifetime and storage settings.
type SessionConfig struct {
	// Duration is the full lifetime granted on login and on each extension.
	Duration time.Duration `mapstructure:"duration" validate:"required,gt=0"`
	// ExtendThreshold triggers an extension when less lifetime than this remains.
	ExtendThreshold time.Duration `mapstructure:"extend_threshold" validate:"required,gt=0,ltefield=Duration"`
	// PruneAge removes sessions created longer ago than this whenever someone logs in.
	PruneAge        time.Duration `mapstructure:"prune_age" validate:"required,gt=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"required,gt=0"`
	Store           string        `mapstructure:"store" validate:"required,sessionstore"`
	CookieName      string        `mapstructure:"cookie_name" validate:"required"`
	CookieSecure    bool          `mapstructure:"cookie_secure"`
}

// RedisConfig holds settings for the redis session backend.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size" validate:"min=0"`
	MinIdleConns int           `mapstructure:"min_idle_conns" validate:"min=0"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" validate:"gte=0"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
}

// AuditConfig holds audit trail read settings.
type AuditConfig struct {
	// RegroupWindow is the createdAt proximity used to cluster entries for display.
	RegroupWindow   time.Duration `mapstructure:"regroup_window" validate:"required,gt=0"`
	DefaultPageSize int           `mapstructure:"default_page_size" validate:"required,min=1,ltefield=MaxPageSize"`
	MaxPageSize     int           `mapstructure:"max_page_size" validate:"required,min=1,max=10000"`
}

// CORSConfig holds cross-origin settings for the browser console.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig holds the login rate limit.
type RateLimitConfig struct {
	LoginPerMinute int `mapstructure:"login_per_minute" validate:"required,min=1"`
	LoginBurst     int `mapstructure:"login_burst" validate:"required,min=1"`
}

// LogLevel represents valid log levels.
type LogLevel string

// Valid log levels.
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat represents valid log formats.
type LogFormat string

// Valid log formats.
const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,loglevel"`
	Format string `mapstructure:"format" validate:"required,logformat"`
	Output string `mapstructure:"output" validate:"required"`
}

// NewViper creates a new Viper instance with defaults set.
// Use this when you need to bind CLI flags before loading config.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// Load reads configuration from file, environment, and defaults.
// Priority: CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	return LoadWithViper(NewViper(), configPath)
}

// LoadWithViper reads configuration using a pre-configured Viper instance.
func LoadWithViper(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pg.host", "localhost")
	v.SetDefault("pg.port", 5432)
	v.SetDefault("pg.database", "goodforgood_development")
	v.SetDefault("pg.sslmode", "disable")
	v.SetDefault("pg.max_conns", 25)
	v.SetDefault("pg.min_conns", 2)
	v.SetDefault("pg.max_conn_lifetime", time.Hour)
	v.SetDefault("pg.max_conn_idle_time", 30*time.Minute)
	v.SetDefault("pg.health_check_period", time.Minute)
	v.SetDefault("pg.user_migration", "")
	v.SetDefault("pg.pass_migration", "")
	v.SetDefault("pg.user_app", "postgres")
	v.SetDefault("pg.pass_app", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("session.duration", 2*time.Hour)
	v.SetDefault("session.extend_threshold", 30*time.Minute)
	v.SetDefault("session.prune_age", 24*time.Hour)
	v.SetDefault("session.cleanup_interval", 10*time.Minute)
	v.SetDefault("session.store", string(SessionStorePostgres))
	v.SetDefault("session.cookie_name", "gfg_session")
	v.SetDefault("session.cookie_secure", true)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 1)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("audit.regroup_window", time.Second)
	v.SetDefault("audit.default_page_size", 20)
	v.SetDefault("audit.max_page_size", 100)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("ratelimit.login_per_minute", 10)
	v.SetDefault("ratelimit.login_burst", 5)
}
