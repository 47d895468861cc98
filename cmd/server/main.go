// Package main provides the server entrypoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Good-for-good/goodforgood-sub000/internal/api"
	"github.com/Good-for-good/goodforgood-sub000/internal/audit"
	"github.com/Good-for-good/goodforgood-sub000/internal/audit/trail"
	"github.com/Good-for-good/goodforgood-sub000/internal/auth"
	"github.com/Good-for-good/goodforgood-sub000/internal/config"
	"github.com/Good-for-good/goodforgood-sub000/internal/db"
	"github.com/Good-for-good/goodforgood-sub000/internal/logging"
	"github.com/Good-for-good/goodforgood-sub000/internal/metrics"
)

var (
	cfgFile string
	cfg     *config.Config
	v       *viper.Viper
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	// Create viper instance for CLI flag binding
	v = config.NewViper()

	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "Good for Good API server",
		Long:  "Good for Good API server - trust administration with a full audit trail",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadWithViper(v, cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return nil
		},
		RunE: runServer,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	// PostgreSQL flags (match GFG_PG_* env vars)
	rootCmd.PersistentFlags().String("pg-host", "localhost", "PostgreSQL host")
	rootCmd.PersistentFlags().Int("pg-port", 5432, "PostgreSQL port")
	rootCmd.PersistentFlags().String("pg-database", "goodforgood_development", "PostgreSQL database name")
	rootCmd.PersistentFlags().String("pg-sslmode", "disable", "PostgreSQL SSL mode")
	rootCmd.PersistentFlags().Int32("pg-max-conns", 25, "max database connections")
	rootCmd.PersistentFlags().Int32("pg-min-conns", 2, "min database connections")
	rootCmd.PersistentFlags().String("pg-user-app", "postgres", "PostgreSQL app user")
	rootCmd.PersistentFlags().String("pg-pass-app", "", "PostgreSQL app password")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")
	rootCmd.PersistentFlags().String("log-output", "stdout", "log output (stdout, stderr, or file path)")

	// Server flags
	rootCmd.Flags().Int("port", 8080, "server port")
	rootCmd.Flags().Duration("http-read-timeout", 15*time.Second, "HTTP read timeout")
	rootCmd.Flags().Duration("http-write-timeout", 15*time.Second, "HTTP write timeout")
	rootCmd.Flags().Duration("http-idle-timeout", 60*time.Second, "HTTP idle timeout")
	rootCmd.Flags().StringSlice("trusted-proxies", nil, "proxy CIDRs or IPs whose X-Forwarded-For is trusted")

	// Session flags
	rootCmd.Flags().String("session-store", "postgres", "session store (postgres, redis, memory)")
	rootCmd.Flags().Duration("session-duration", 2*time.Hour, "session lifetime granted on login and extension")
	rootCmd.Flags().Duration("session-extend-threshold", 30*time.Minute, "extend sessions with less than this remaining")
	rootCmd.Flags().Duration("session-prune-age", 24*time.Hour, "remove sessions created longer ago than this on login")
	rootCmd.Flags().Duration("session-cleanup-interval", 10*time.Minute, "session cleanup interval")
	rootCmd.Flags().String("session-cookie-name", "gfg_session", "session cookie name")
	rootCmd.Flags().Bool("session-cookie-secure", true, "mark the session cookie Secure")

	// Redis flags
	rootCmd.Flags().String("redis-url", "", "redis URL for the redis session store")

	// Audit flags
	rootCmd.Flags().Duration("audit-regroup-window", time.Second, "createdAt proximity used to cluster audit entries")

	// CORS and rate limit flags
	rootCmd.Flags().StringSlice("cors-allowed-origins", []string{"http://localhost:3000"}, "allowed CORS origins")
	rootCmd.Flags().Int("login-per-minute", 10, "login attempts per minute per client IP")
	rootCmd.Flags().Int("login-burst", 5, "login attempt burst per client IP")

	rootCmd.AddCommand(pruneAuditCmd())

	// Bind flags to viper for priority override.
	// Note: We use fmt.Fprintln to stderr for errors here because logging
	// isn't configured yet - config must be loaded first to know log settings.
	if err := bindFlags(rootCmd); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bindFlags(cmd *cobra.Command) error {
	// flagBinder collects BindPFlag errors to catch flag name typos at startup
	b := &flagBinder{v: v, cmd: cmd}

	b.bind("pg.host", "pg-host")
	b.bind("pg.port", "pg-port")
	b.bind("pg.database", "pg-database")
	b.bind("pg.sslmode", "pg-sslmode")
	b.bind("pg.max_conns", "pg-max-conns")
	b.bind("pg.min_conns", "pg-min-conns")
	b.bind("pg.user_app", "pg-user-app")
	b.bind("pg.pass_app", "pg-pass-app")

	b.bind("logging.level", "log-level")
	b.bind("logging.format", "log-format")
	b.bind("logging.output", "log-output")

	b.bind("server.port", "port")
	b.bind("server.read_timeout", "http-read-timeout")
	b.bind("server.write_timeout", "http-write-timeout")
	b.bind("server.idle_timeout", "http-idle-timeout")
	b.bind("server.trusted_proxies", "trusted-proxies")

	b.bind("session.store", "session-store")
	b.bind("session.duration", "session-duration")
	b.bind("session.extend_threshold", "session-extend-threshold")
	b.bind("session.prune_age", "session-prune-age")
	b.bind("session.cleanup_interval", "session-cleanup-interval")
	b.bind("session.cookie_name", "session-cookie-name")
	b.bind("session.cookie_secure", "session-cookie-secure")

	b.bind("redis.url", "redis-url")

	b.bind("audit.regroup_window", "audit-regroup-window")

	b.bind("cors.allowed_origins", "cors-allowed-origins")
	b.bind("ratelimit.login_per_minute", "login-per-minute")
	b.bind("ratelimit.login_burst", "login-burst")

	return b.err()
}

// flagBinder collects errors from BindPFlag calls.
type flagBinder struct {
	v      *viper.Viper
	cmd    *cobra.Command
	errors []string
}

func (b *flagBinder) bind(key, flagName string) {
	flag := b.cmd.Flags().Lookup(flagName)
	if flag == nil {
		flag = b.cmd.PersistentFlags().Lookup(flagName)
	}
	if flag == nil {
		b.errors = append(b.errors, fmt.Sprintf("flag %q not found", flagName))
		return
	}
	if err := b.v.BindPFlag(key, flag); err != nil {
		b.errors = append(b.errors, fmt.Sprintf("failed to bind %q to %q: %v", flagName, key, err))
	}
}

func (b *flagBinder) err() error {
	if len(b.errors) == 0 {
		return nil
	}
	return fmt.Errorf("flag binding errors: %v", b.errors)
}

// closeLogger wraps the logging cleanup for deferred use.
func closeLogger(closeFn logging.CloseFunc) {
	if err := closeFn(); err != nil {
		// Can't use slog here as we're closing it
		fmt.Fprintf(os.Stderr, "error closing log file: %v\n", err)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer closeLogger(logging.SetupDefault(cfg.Logging))
	metrics.Init()

	// Connect to database using config
	pool, err := db.NewPoolFromConfig(ctx, cfg.PG)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	queries := db.New(pool)

	store, closeStore, err := newSessionStore(ctx, queries)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions := auth.NewManager(store, queries, cfg.Session)
	interceptor := audit.NewInterceptor(auth.NewResolver(sessions), audit.NewRecorder())
	limiter := api.NewLoginLimiter(cfg.RateLimit)

	handler, _ := api.NewRouter(api.Deps{
		Config:   cfg,
		Pool:     pool,
		Pinger:   pool,
		Gateway:  db.Audited(queries, interceptor),
		Sessions: sessions,
		Audit:    trail.NewService(queries, cfg.Audit),
		Limiter:  limiter,
	})

	// Background maintenance stops with ctx.
	go sessions.RunCleanup(ctx, cfg.Session.CleanupInterval)
	go limiter.Run(ctx, time.Minute)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Error channel for server goroutine
	serverErr := make(chan error, 1)

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port, "session_store", cfg.Session.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		slog.Info("shutting down server")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited")
	return nil
}

// newSessionStore builds the configured session backend. The returned func
// releases any connection the store owns.
func newSessionStore(ctx context.Context, queries *db.Queries) (auth.Store, func(), error) {
	switch config.SessionStore(cfg.Session.Store) {
	case config.SessionStoreRedis:
		client, err := auth.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return auth.NewRedisStore(client), func() { _ = client.Close() }, nil
	case config.SessionStoreMemory:
		slog.Warn("using in-memory session store; sessions are lost on restart")
		return auth.NewMemoryStore(), func() {}, nil
	default:
		return auth.NewPostgresStore(queries), func() {}, nil
	}
}
