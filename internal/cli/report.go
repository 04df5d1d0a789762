package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Veraticus/fraudcheck/internal/model"
)

var printer = message.NewPrinter(language.English)

// runIDWidth is how much of a run ID list views show.
const runIDWidth = 8

// FormatCount renders an integer with thousands separators.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatMetric renders a metric value with fixed precision.
func FormatMetric(v float64) string {
	return printer.Sprintf("%.6f", v)
}

// ShortID truncates a run ID for list views.
func ShortID(id string) string {
	if len(id) <= runIDWidth {
		return id
	}
	return id[:runIDWidth]
}

// RenderSummary describes a loaded dataset: its shape, missing values and class balance.
func RenderSummary(s model.DatasetSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The dataframe has %s rows and %s columns.\n", FormatCount(s.Rows), FormatCount(s.Columns))

	missing := fmt.Sprintf("There are %s missing values.", FormatCount(s.MissingValues))
	if s.MissingValues > 0 {
		missing = WarningStyle.Render(missing)
	}
	b.WriteString(missing + "\n")

	fmt.Fprintf(&b, "There are %s non-fraudulent transactions and %s fraudulent transactions.\n",
		FormatCount(s.Legitimate), FormatCount(s.Fraudulent))
	b.WriteString(SubtleStyle.Render(printer.Sprintf("Fraud rate: %.4f%%", 100*s.FraudRate())) + "\n")
	return b.String()
}

// RenderMetrics lists the error count and every metric. Metrics that fell back
// to 0 are marked as undefined.
func RenderMetrics(r *model.MetricsReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Errors: %s of %s\n", FormatCount(r.Errors), FormatCount(r.N))

	lines := []struct {
		label      string
		value      float64
		degenerate bool
	}{
		{"The accuracy is", r.Accuracy, false},
		{"The precision is", r.Precision, r.Degenerate.Precision},
		{"The recall is", r.Recall, r.Degenerate.Recall},
		{"The F1-Score is", r.F1, r.Degenerate.F1},
		{"The Matthews correlation coefficient is", r.MCC, r.Degenerate.MCC},
	}
	for _, l := range lines {
		line := l.label + " " + FormatMetric(l.value)
		if l.degenerate {
			line += " " + SubtleStyle.Render("(undefined, reported as 0)")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// RenderConfusion renders the confusion matrix with ground truth as rows.
func RenderConfusion(cm model.ConfusionMatrix) string {
	t := newTable().
		Headers("", "predicted legitimate", "predicted fraudulent").
		Row("actual legitimate",
			FormatCount(cm[model.LabelLegitimate][model.LabelLegitimate]),
			FormatCount(cm[model.LabelLegitimate][model.LabelFraudulent])).
		Row("actual fraudulent",
			FormatCount(cm[model.LabelFraudulent][model.LabelLegitimate]),
			FormatCount(cm[model.LabelFraudulent][model.LabelFraudulent]))
	return t.String()
}

// RenderRun renders a complete evaluation run.
func RenderRun(run *model.EvaluationRun) string {
	var details strings.Builder
	fmt.Fprintf(&details, "Run:      %s\n", run.ID)
	fmt.Fprintf(&details, "Dataset:  %s\n", run.Summary.Source)
	fmt.Fprintf(&details, "Model:    %s\n", describeModel(run.Params))
	fmt.Fprintf(&details, "Split:    %s train / %s test (test fraction %.2f, seed %d%s)\n",
		FormatCount(run.TrainRows), FormatCount(run.TestRows),
		run.Params.TestFraction, run.Params.Seed, stratifiedSuffix(run.Params.Stratify))
	fmt.Fprintf(&details, "Timing:   train %s, predict %s, total %s",
		roundDuration(run.TrainDuration), roundDuration(run.InferDuration), roundDuration(run.Duration()))

	return lipgloss.JoinVertical(lipgloss.Left,
		RenderBox(ChartIcon+" Evaluation", details.String()),
		"",
		RenderSummary(run.Summary),
		RenderMetrics(&run.Report),
		RenderConfusion(run.Report.Confusion),
	)
}

// RenderColumnStats renders per-column descriptive statistics.
func RenderColumnStats(stats []model.ColumnStats) string {
	t := newTable().Headers("column", "count", "missing", "min", "max", "mean", "std")
	for _, s := range stats {
		t.Row(s.Name,
			FormatCount(s.Count),
			FormatCount(s.Missing),
			printer.Sprintf("%.4f", s.Min),
			printer.Sprintf("%.4f", s.Max),
			printer.Sprintf("%.4f", s.Mean),
			printer.Sprintf("%.4f", s.StdDev),
		)
	}
	return t.String()
}

// RenderRunList renders stored runs as a table, one row per run.
func RenderRunList(runs []model.EvaluationRun) string {
	if len(runs) == 0 {
		return FormatInfo("No evaluation runs stored yet")
	}

	t := newTable().Headers("id", "started", "model", "test rows", "errors", "precision", "recall", "f1", "mcc")
	for _, run := range runs {
		r := run.Report
		t.Row(ShortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			describeModel(run.Params),
			FormatCount(run.TestRows),
			FormatCount(r.Errors),
			printer.Sprintf("%.4f", r.Precision),
			printer.Sprintf("%.4f", r.Recall),
			printer.Sprintf("%.4f", r.F1),
			printer.Sprintf("%.4f", r.MCC),
		)
	}
	return t.String()
}

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		})
}

func describeModel(p model.RunParameters) string {
	if p.Model == model.ModelForest {
		features := "sqrt"
		if p.Features > 0 {
			features = fmt.Sprint(p.Features)
		}
		return fmt.Sprintf("forest (%d trees, %s features)", p.Trees, features)
	}
	return p.Model
}

func stratifiedSuffix(stratify bool) string {
	if stratify {
		return ", stratified"
	}
	return ""
}

func roundDuration(d time.Duration) time.Duration {
	if d < time.Second {
		return d.Round(time.Millisecond)
	}
	return d.Round(10 * time.Millisecond)
}
