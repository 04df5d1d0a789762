package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/fraudcheck/internal/cli"
	"github.com/Veraticus/fraudcheck/internal/config"
	"github.com/Veraticus/fraudcheck/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the run history schema to the latest version.

Saving runs migrates automatically; this command is for preparing a
database ahead of time or checking which version it is on.`,
		RunE: runMigrate,
	}

	// Flags
	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	out := cmd.OutOrStdout()

	settings, err := config.Load()
	if err != nil {
		return err
	}
	dbPath := settings.DatabasePath

	slog.Info("Starting database migration",
		"database", dbPath,
		"status_only", status)

	// Create storage instance
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	if status {
		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		var b strings.Builder
		b.WriteString(cli.FormatTitle(cli.ChartIcon+" Database Migration Status") + "\n")
		fmt.Fprintf(&b, "Database:        %s\n", dbPath)
		fmt.Fprintf(&b, "Current version: %d\n", current)
		fmt.Fprintf(&b, "Latest version:  %d\n", storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			b.WriteString(cli.FormatWarning("Migrations pending, run 'fraudcheck migrate'") + "\n")
		}
		fmt.Fprint(out, b.String()) //nolint:forbidigo // User-facing output
		return nil
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	msg := fmt.Sprintf("Database at %s is on schema version %d", dbPath, storage.ExpectedSchemaVersion)
	fmt.Fprintln(out, cli.FormatSuccess(msg)) //nolint:forbidigo // User-facing output
	return nil
}
