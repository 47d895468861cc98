package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Good-for-good/goodforgood-sub000/internal/db"
	"github.com/Good-for-good/goodforgood-sub000/internal/logging"
)

// minPruneAge keeps an accidental small value from wiping recent history.
const minPruneAge = 24 * time.Hour

func pruneAuditCmd() *cobra.Command {
	var olderThan time.Duration
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune-audit",
		Short: "Delete audit log entries older than a given age",
		Long: "Deletes audit log entries created before now minus --older-than. " +
			"This is the only path that removes audit rows; the server itself never does.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < minPruneAge {
				return fmt.Errorf("--older-than must be at least %s", minPruneAge)
			}

			defer closeLogger(logging.SetupDefault(cfg.Logging))
			ctx := cmd.Context()

			pool, err := db.NewPoolFromConfig(ctx, cfg.PG)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			before := time.Now().Add(-olderThan)
			if dryRun {
				n, err := db.New(pool).CountAuditLogs(ctx, db.AuditLogFilter{To: &before})
				if err != nil {
					return fmt.Errorf("count audit logs: %w", err)
				}
				slog.InfoContext(ctx, "audit prune dry run", "before", before, "would_delete", n)
				return nil
			}

			n, err := db.New(pool).DeleteAuditLogsBefore(ctx, before)
			if err != nil {
				return fmt.Errorf("prune audit logs: %w", err)
			}
			slog.InfoContext(ctx, "audit logs pruned", "before", before, "deleted", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "delete entries older than this (e.g. 8760h)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report how many entries would be deleted")
	_ = cmd.MarkFlagRequired("older-than")
	return cmd
}
