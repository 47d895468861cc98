// Package main provides database migration commands using goose.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Good-for-good/goodforgood-sub000/internal/config"
	"github.com/Good-for-good/goodforgood-sub000/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	v       *viper.Viper

	// Replaced in tests.
	getwd = os.Getwd
	chdir = os.Chdir
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	v = config.NewViper()

	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long:  "Database migration tool using goose - manages the Good for Good PostgreSQL schema",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadWithViper(v, cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logging.SetupDefault(cfg.Logging)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	// Database flags (shared across all subcommands)
	rootCmd.PersistentFlags().String("pg-host", "localhost", "PostgreSQL host")
	rootCmd.PersistentFlags().Int("pg-port", 5432, "PostgreSQL port")
	rootCmd.PersistentFlags().String("pg-database", "goodforgood_development", "PostgreSQL database name")
	rootCmd.PersistentFlags().String("pg-sslmode", "disable", "PostgreSQL SSL mode")
	rootCmd.PersistentFlags().String("pg-user-migration", "", "PostgreSQL migration user (falls back to the app user)")
	rootCmd.PersistentFlags().String("pg-pass-migration", "", "PostgreSQL migration password")

	if err := bindFlags(rootCmd); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Subcommands
	rootCmd.AddCommand(upCmd())
	rootCmd.AddCommand(downCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(createCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bindFlags(cmd *cobra.Command) error {
	var errs []error
	bind := func(key, flagName string) {
		flag := cmd.PersistentFlags().Lookup(flagName)
		if flag == nil {
			errs = append(errs, fmt.Errorf("flag %q not found", flagName))
			return
		}
		if err := v.BindPFlag(key, flag); err != nil {
			errs = append(errs, fmt.Errorf("failed to bind %q to %q: %w", flagName, key, err))
		}
	}

	bind("pg.host", "pg-host")
	bind("pg.port", "pg-port")
	bind("pg.database", "pg-database")
	bind("pg.sslmode", "pg-sslmode")
	bind("pg.user_migration", "pg-user-migration")
	bind("pg.pass_migration", "pg-pass-migration")

	return errors.Join(errs...)
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Migrate database to most recent version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd.Context(), "up")
		},
	}
}

func downCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd.Context(), "down")
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd.Context(), "status")
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show current database version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd.Context(), "version")
		},
	}
}

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new migration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			migrationsDir, err := findMigrationsDir()
			if err != nil {
				return err
			}
			return goose.Create(nil, migrationsDir, args[0], "sql")
		},
	}
}

func runMigration(ctx context.Context, command string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	migrationsDir, err := findMigrationsDir()
	if err != nil {
		return err
	}

	user := cfg.PG.UserMigration
	if user == "" {
		user = cfg.PG.UserApp
	}
	slog.Info("connecting to database",
		"host", cfg.PG.Host,
		"port", cfg.PG.Port,
		"database", cfg.PG.Database,
		"user", user,
	)

	// Open database connection using pgx stdlib driver
	conn, err := sql.Open("pgx", cfg.PG.MigrationDSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, conn, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// findMigrationsDir walks up from the working directory looking for
// db/migrations, so the tool works from the repo root and from cmd/migrate.
func findMigrationsDir() (string, error) {
	wd, err := getwd()
	if err != nil {
		return "", fmt.Errorf("failed to locate migrations: %w", err)
	}

	for dir := wd; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, "db", "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}
	return "", fmt.Errorf("migrations directory db/migrations not found from %s", wd)
}
