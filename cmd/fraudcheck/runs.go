package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/fraudcheck/internal/cli"
	"github.com/Veraticus/fraudcheck/internal/common"
	"github.com/Veraticus/fraudcheck/internal/config"
	"github.com/Veraticus/fraudcheck/internal/model"
	"github.com/Veraticus/fraudcheck/internal/storage"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse stored evaluation runs",
		Long: `List, show and delete evaluation runs saved with 'fraudcheck evaluate --save'.

Runs can be referred to by any unique prefix of their ID.`,
	}

	cmd.AddCommand(runsListCmd())
	cmd.AddCommand(runsShowCmd())
	cmd.AddCommand(runsDeleteCmd())

	return cmd
}

func runsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withRunStore(cmd, func(store *storage.SQLiteStorage) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderRunList(runs)) //nolint:forbidigo // User-facing output
				return nil
			})
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "maximum number of runs to list (0 = all)")

	return cmd
}

func runsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			return withRunStore(cmd, func(store *storage.SQLiteStorage) error {
				run, err := lookupRun(cmd, store, args[0])
				if err != nil {
					return err
				}
				rendered, err := renderRun(run, output)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), rendered) //nolint:forbidigo // User-facing output
				return nil
			})
		},
	}

	cmd.Flags().StringP("output", "o", "text", "output format (text, yaml, json)")

	return cmd
}

func runsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunStore(cmd, func(store *storage.SQLiteStorage) error {
				// Resolve prefixes first so only one exact run is ever deleted.
				run, err := lookupRun(cmd, store, args[0])
				if err != nil {
					return err
				}
				if err := store.DeleteRun(cmd.Context(), run.ID); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted run "+run.ID)) //nolint:forbidigo // User-facing output
				return nil
			})
		},
	}
}

func withRunStore(cmd *cobra.Command, fn func(*storage.SQLiteStorage) error) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}

	store, err := initStorage(cmd.Context(), settings.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			common.LogError(closeErr, "failed to close storage", nil)
		}
	}()

	return fn(store)
}

func lookupRun(cmd *cobra.Command, store *storage.SQLiteStorage, id string) (*model.EvaluationRun, error) {
	run, err := store.GetRun(cmd.Context(), id)
	if errors.Is(err, storage.ErrAmbiguousRunID) {
		return nil, common.NewUserError("several runs start with "+id+", give more of the ID", err)
	}
	return run, err
}

func renderRun(run *model.EvaluationRun, format string) (string, error) {
	switch format {
	case "text", "":
		return cli.RenderRun(run), nil
	case "yaml":
		data, err := yaml.Marshal(run)
		if err != nil {
			return "", fmt.Errorf("failed to encode run as YAML: %w", err)
		}
		return string(data), nil
	case "json":
		data, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode run as JSON: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, yaml or json)", format)
	}
}
