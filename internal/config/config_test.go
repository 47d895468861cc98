package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// clearEnvVars clears GFG_* overrides for the duration of the test so shell
// settings cannot leak into default assertions.
func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, EnvPrefix+"_") {
			key, _, _ := strings.Cut(kv, "=")
			t.Setenv(key, "")
			_ = os.Unsetenv(key)
		}
	}
}

func validConfig() Config {
	return Config{
		PG: PGConfig{
			Host:              "localhost",
			Port:              5432,
			Database:          "goodforgood_test",
			SSLMode:           "disable",
			MaxConns:          25,
			MinConns:          2,
			MaxConnLifetime:   time.Hour,
			MaxConnIdleTime:   30 * time.Minute,
			HealthCheckPeriod: time.Minute,
			UserApp:           "gfg_app",
		},
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Session: SessionConfig{
			Duration:        2 * time.Hour,
			ExtendThreshold: 30 * time.Minute,
			PruneAge:        24 * time.Hour,
			CleanupInterval: 10 * time.Minute,
			Store:           "postgres",
			CookieName:      "gfg_session",
		},
		Audit: AuditConfig{
			RegroupWindow:   time.Second,
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: 10,
			LoginBurst:     5,
		},
	}
}

func Test_Load_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.PG.Database != "goodforgood_development" {
		t.Errorf("expected goodforgood_development, got %s", cfg.PG.Database)
	}
	if cfg.Session.Duration != 2*time.Hour {
		t.Errorf("expected 2h session, got %v", cfg.Session.Duration)
	}
	if cfg.Session.ExtendThreshold != 30*time.Minute {
		t.Errorf("expected 30m extend threshold, got %v", cfg.Session.ExtendThreshold)
	}
	if cfg.Session.PruneAge != 24*time.Hour {
		t.Errorf("expected 24h prune age, got %v", cfg.Session.PruneAge)
	}
	if cfg.Session.Store != "postgres" {
		t.Errorf("expected postgres store, got %s", cfg.Session.Store)
	}
	if cfg.Audit.RegroupWindow != time.Second {
		t.Errorf("expected 1s regroup window, got %v", cfg.Audit.RegroupWindow)
	}
	if cfg.Audit.DefaultPageSize != 20 || cfg.Audit.MaxPageSize != 100 {
		t.Errorf("unexpected page sizes: %d/%d", cfg.Audit.DefaultPageSize, cfg.Audit.MaxPageSize)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected json, got %s", cfg.Logging.Format)
	}
}

func Test_Load_EnvVarOverride(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("GFG_SERVER_PORT", "9001")
	t.Setenv("GFG_SESSION_DURATION", "3h")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9001 {
		t.Errorf("expected 9001 (from GFG_SERVER_PORT), got %d", cfg.Server.Port)
	}
	if cfg.Session.Duration != 3*time.Hour {
		t.Errorf("expected 3h (from GFG_SESSION_DURATION), got %v", cfg.Session.Duration)
	}
}

func Test_LoadWithViper_CLIOverride(t *testing.T) {
	clearEnvVars(t)
	configPath := t.TempDir() + "/config.yaml"

	yamlContent := `
server:
  port: 8080
audit:
  regroup_window: 2s
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0600); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	v := NewViper()
	v.Set("server.port", 9000)

	cfg, err := LoadWithViper(v, configPath)
	if err != nil {
		t.Fatalf("LoadWithViper failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected 9000 (CLI override), got %d", cfg.Server.Port)
	}
	if cfg.Audit.RegroupWindow != 2*time.Second {
		t.Errorf("expected 2s from file, got %v", cfg.Audit.RegroupWindow)
	}
}

func Test_Load_InvalidYAML(t *testing.T) {
	configPath := t.TempDir() + "/invalid.yaml"

	invalidYAML := `
pg:
  host: localhost
  port: invalid_not_a_number
  user testuser
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0600); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}

func Test_Config_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"bad sslmode", func(c *Config) { c.PG.SSLMode = "sometimes" }, true},
		{"min conns above max", func(c *Config) { c.PG.MinConns = 30 }, true},
		{"unknown session store", func(c *Config) { c.Session.Store = "sqlite" }, true},
		{"threshold longer than lifetime", func(c *Config) { c.Session.ExtendThreshold = 3 * time.Hour }, true},
		{"redis store without url", func(c *Config) { c.Session.Store = "redis" }, true},
		{"redis store with url", func(c *Config) {
			c.Session.Store = "redis"
			c.Redis.URL = "redis://localhost:6379/0"
		}, false},
		{"default page size above max", func(c *Config) { c.Audit.DefaultPageSize = 500 }, true},
		{"zero regroup window", func(c *Config) { c.Audit.RegroupWindow = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, true},
		{"trusted proxies", func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.0/8", "192.0.2.10"} }, false},
		{"bad trusted proxy", func(c *Config) { c.Server.TrustedProxies = []string{"proxy.internal"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_PGConfig_DSN(t *testing.T) {
	cfg := PGConfig{
		Host:     "db",
		Port:     5432,
		Database: "gfg",
		SSLMode:  "disable",
		UserApp:  "gfg_app",
		PassApp:  `it's\secret`,
	}

	want := `host=db port=5432 user=gfg_app dbname=gfg sslmode=disable password='it\'s\\secret'`
	if got := cfg.AppDSN(); got != want {
		t.Errorf("AppDSN() = %q, want %q", got, want)
	}
	if got := cfg.MigrationDSN(); got != want {
		t.Errorf("MigrationDSN() without migration user = %q, want app DSN", got)
	}

	cfg.UserMigration = "gfg_migration"
	want = "host=db port=5432 user=gfg_migration dbname=gfg sslmode=disable"
	if got := cfg.MigrationDSN(); got != want {
		t.Errorf("MigrationDSN() = %q, want %q", got, want)
	}
}
