package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/fraudcheck/internal/cli"
	"github.com/Veraticus/fraudcheck/internal/common"
	"github.com/Veraticus/fraudcheck/internal/config"
	"github.com/Veraticus/fraudcheck/internal/metrics"
	"github.com/Veraticus/fraudcheck/internal/model"
	"github.com/Veraticus/fraudcheck/internal/pipeline"
	"github.com/Veraticus/fraudcheck/internal/service"
)

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate [dataset]",
		Short: "Train a classifier and score it on a held-out split",
		Long: `Load a labeled transaction table, hold out a seeded fraction of it,
train a classifier on the rest and report how it does on the held-out rows.

The dataset is a CSV file or a zip archive containing one. The last column
(or --label) holds the class: 0 for legitimate, 1 for fraudulent. The same
seed and test fraction always produce the same split.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd, map[string]string{
				"member":        "dataset.member",
				"label":         "dataset.label",
				"test-fraction": "split.test_fraction",
				"seed":          "split.seed",
				"stratify":      "split.stratify",
				"model":         "model.kind",
				"trees":         "model.trees",
				"features":      "model.features",
				"save":          "storage.save_runs",
			})
		},
		RunE: runEvaluate,
	}

	// Flags
	cmd.Flags().String("member", "", "CSV member inside a zip archive (default: the only CSV)")
	cmd.Flags().String("label", config.DefaultLabelColumn, "name of the label column")
	cmd.Flags().Float64("test-fraction", config.DefaultTestFraction, "fraction of rows held out for evaluation")
	cmd.Flags().Uint64("seed", 0, "seed for the train/test split")
	cmd.Flags().Bool("stratify", false, "keep the class ratio on both sides of the split")
	cmd.Flags().String("model", model.ModelForest, "classifier to train (forest, majority)")
	cmd.Flags().Int("trees", config.DefaultTrees, "number of trees in the forest")
	cmd.Flags().Int("features", 0, "features considered per tree (0 = square root of the feature count)")
	cmd.Flags().Bool("save", false, "store the run in the run history database")
	cmd.Flags().Bool("report", false, "also print the per-class classification report")
	cmd.Flags().Bool("no-progress", false, "hide progress bars")

	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	datasetArg(args)

	settings, err := config.Load()
	if err != nil {
		return err
	}

	var store service.RunStore
	if settings.SaveRuns {
		sqlStore, storeErr := initStorage(ctx, settings.DatabasePath)
		if storeErr != nil {
			return fmt.Errorf("failed to initialize storage: %w", storeErr)
		}
		defer func() {
			if closeErr := sqlStore.Close(); closeErr != nil {
				common.LogError(closeErr, "failed to close storage", nil)
			}
		}()
		store = sqlStore
	}

	opts := optionsFromSettings(settings)
	if noProgress, _ := cmd.Flags().GetBool("no-progress"); !noProgress {
		opts.Progress = cmd.ErrOrStderr()
	}

	runner := pipeline.NewRunner(nil, store)

	table, summary, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, cli.RenderSummary(summary)) //nolint:forbidigo // User-facing output

	run, err := runner.Evaluate(ctx, table, opts)
	if errors.Is(err, common.ErrMissingData) {
		return common.NewUserError("cannot train on incomplete rows, see 'fraudcheck inspect'", err)
	}
	if run == nil {
		return err
	}

	results := cli.RenderMetrics(&run.Report) + "\n" + cli.RenderConfusion(run.Report.Confusion)
	if report, _ := cmd.Flags().GetBool("report"); report {
		results += "\n\n" + metrics.ClassificationReport(&run.Report)
	}
	fmt.Fprintln(out, results) //nolint:forbidigo // User-facing output

	if err != nil {
		return err
	}

	if settings.SaveRuns {
		fmt.Fprintln(out, cli.FormatSuccess("Saved run "+run.ID)) //nolint:forbidigo // User-facing output
	}
	return nil
}
