package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/fraudcheck/internal/config"
	"github.com/Veraticus/fraudcheck/internal/dataset"
	"github.com/Veraticus/fraudcheck/internal/model"
	"github.com/Veraticus/fraudcheck/internal/pipeline"
	"github.com/Veraticus/fraudcheck/internal/storage"
)

// initStorage opens the run history database and brings it to the latest schema.
func initStorage(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// bindFlags binds command flags to config keys. Binding happens when the
// command runs so commands sharing a key do not override each other.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}
	return nil
}

// datasetArg lets a positional dataset argument override dataset.path.
func datasetArg(args []string) {
	if len(args) == 1 {
		viper.Set("dataset.path", args[0])
	}
}

func optionsFromSettings(s *config.Settings) pipeline.Options {
	return pipeline.Options{
		DatasetPath: s.DatasetPath,
		Dataset: dataset.Options{
			Member:      s.Member,
			LabelColumn: s.LabelColumn,
		},
		Params: model.RunParameters{
			Model:        s.Model,
			TestFraction: s.TestFraction,
			Seed:         s.Seed,
			Trees:        s.Trees,
			Features:     s.Features,
			Stratify:     s.Stratify,
		},
		Save: s.SaveRuns,
	}
}
