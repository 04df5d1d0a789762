package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/fraudcheck/internal/cli"
	"github.com/Veraticus/fraudcheck/internal/config"
	"github.com/Veraticus/fraudcheck/internal/pipeline"
)

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [dataset]",
		Short: "Describe a dataset without training",
		Long: `Print the shape of a transaction table, how many cells are missing and
how the rows split between legitimate and fraudulent transactions.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd, map[string]string{
				"member": "dataset.member",
				"label":  "dataset.label",
			})
		},
		RunE: runInspect,
	}

	cmd.Flags().String("member", "", "CSV member inside a zip archive (default: the only CSV)")
	cmd.Flags().String("label", config.DefaultLabelColumn, "name of the label column")
	cmd.Flags().Bool("describe", false, "print per-column statistics")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	datasetArg(args)

	settings, err := config.Load()
	if err != nil {
		return err
	}

	table, summary, err := pipeline.NewRunner(nil, nil).Load(cmd.Context(), optionsFromSettings(settings))
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(cli.FormatTitle(summary.Source) + "\n")
	b.WriteString(cli.RenderSummary(summary))
	if summary.MissingValues > 0 {
		b.WriteString(cli.FormatWarning("evaluate refuses tables with missing values") + "\n")
	}
	if describe, _ := cmd.Flags().GetBool("describe"); describe {
		b.WriteString("\n" + cli.RenderColumnStats(table.Describe()) + "\n")
	}

	fmt.Fprint(out, b.String()) //nolint:forbidigo // User-facing output
	return nil
}
