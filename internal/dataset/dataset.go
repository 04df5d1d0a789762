// Package dataset loads the labeled transaction table from a CSV file or from
// a zip archive that holds one.
package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Veraticus/fraudcheck/internal/common"
	"github.com/Veraticus/fraudcheck/internal/model"
)

// nullTokens are the cell values counted as missing, besides empty cells.
var nullTokens = []string{"NA", "NaN", "nan", "null", "NULL", "<nil>"}

// Options control how a table is read.
type Options struct {
	// Member names the CSV file inside a zip archive. Empty selects the only CSV member.
	Member string
	// LabelColumn names the label column. Empty selects the last column.
	LabelColumn string
}

// Table is a transaction table held in memory. It is never mutated after loading.
type Table struct {
	frame  dataframe.DataFrame
	source string
	label  string
}

// Load reads the table at path. Paths ending in .zip are read as archives.
func Load(ctx context.Context, path string, opts Options) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		r      io.ReadCloser
		source = path
		err    error
	)
	if isArchive(path) {
		var member string
		r, member, err = openArchiveMember(path, opts.Member)
		if err != nil {
			return nil, err
		}
		source = path + "!" + member
	} else {
		r, err = os.Open(path) //nolint:gosec // path comes from the command line
		if err != nil {
			return nil, fmt.Errorf("failed to open dataset: %w", err)
		}
	}
	defer func() { _ = r.Close() }()

	table, err := Read(r, source, opts)
	if err != nil {
		return nil, err
	}

	slog.Info("loaded dataset",
		"source", source,
		"rows", table.frame.Nrow(),
		"columns", table.frame.Ncol())

	return table, nil
}

// Read parses CSV text with a header row. Every cell is read as a float; cells
// that do not parse count as missing.
func Read(r io.Reader, source string, opts Options) (*Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.Float),
		dataframe.NaNValues(nullTokens),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, df.Err)
	}
	if df.Nrow() == 0 {
		return nil, fmt.Errorf("%s: %w", source, common.ErrEmptyDataset)
	}

	names := df.Names()
	if len(names) < 2 {
		return nil, fmt.Errorf("%w: %s has %d column(s), need at least one feature and a label",
			common.ErrInvalidInput, source, len(names))
	}

	label := opts.LabelColumn
	if label == "" {
		label = names[len(names)-1]
	} else if !slices.Contains(names, label) {
		return nil, fmt.Errorf("%w: label column %q not found in %s", common.ErrInvalidInput, label, source)
	}

	return &Table{frame: df, source: source, label: label}, nil
}

// Source describes where the table was read from.
func (t *Table) Source() string {
	return t.source
}

// LabelColumn returns the name of the label column.
func (t *Table) LabelColumn() string {
	return t.label
}

// FeatureNames returns every column name except the label, in file order.
func (t *Table) FeatureNames() []string {
	names := t.frame.Names()
	features := make([]string, 0, len(names)-1)
	for _, n := range names {
		if n != t.label {
			features = append(features, n)
		}
	}
	return features
}

// Summary reports the table's shape, missing cells and class balance.
func (t *Table) Summary() model.DatasetSummary {
	summary := model.DatasetSummary{
		Source:      t.source,
		LabelColumn: t.label,
		ColumnNames: t.frame.Names(),
		Rows:        t.frame.Nrow(),
		Columns:     t.frame.Ncol(),
	}

	for _, name := range summary.ColumnNames {
		summary.MissingValues += countNaN(t.frame.Col(name))
	}

	for _, v := range t.frame.Col(t.label).Float() {
		switch v {
		case 0:
			summary.Legitimate++
		case 1:
			summary.Fraudulent++
		}
	}

	return summary
}

// FeaturesAndLabels divides the table into a feature matrix and a label vector
// with matching row order. It refuses tables with missing cells and labels
// other than 0 and 1.
func (t *Table) FeaturesAndLabels() (model.FeatureMatrix, model.LabelVector, error) {
	if missing := t.Summary().MissingValues; missing > 0 {
		return nil, nil, fmt.Errorf("%w: %d missing value(s) in %s", common.ErrMissingData, missing, t.source)
	}

	rows := t.frame.Nrow()
	names := t.FeatureNames()

	columns := make([][]float64, len(names))
	for j, name := range names {
		columns[j] = t.frame.Col(name).Float()
	}

	features := make(model.FeatureMatrix, rows)
	for i := range rows {
		row := make([]float64, len(names))
		for j := range names {
			row[j] = columns[j][i]
		}
		features[i] = row
	}

	raw := t.frame.Col(t.label).Float()
	labels := make(model.LabelVector, rows)
	for i, v := range raw {
		switch v {
		case 0:
			labels[i] = model.LabelLegitimate
		case 1:
			labels[i] = model.LabelFraudulent
		default:
			return nil, nil, fmt.Errorf("%w: row %d has label %v in column %q, want 0 or 1",
				common.ErrInvalidInput, i+1, v, t.label)
		}
	}

	return features, labels, nil
}

// Describe computes per-column statistics, ignoring missing cells.
// StdDev is the sample standard deviation.
func (t *Table) Describe() []model.ColumnStats {
	names := t.frame.Names()
	stats := make([]model.ColumnStats, 0, len(names))

	for _, name := range names {
		col := t.frame.Col(name)
		values := make([]float64, 0, col.Len())
		for _, v := range col.Float() {
			if !math.IsNaN(v) {
				values = append(values, v)
			}
		}

		cs := model.ColumnStats{
			Name:    name,
			Count:   len(values),
			Missing: col.Len() - len(values),
		}
		if len(values) > 0 {
			cs.Min = floats.Min(values)
			cs.Max = floats.Max(values)
			cs.Mean = stat.Mean(values, nil)
		}
		if len(values) > 1 {
			cs.StdDev = stat.StdDev(values, nil)
		}
		stats = append(stats, cs)
	}

	return stats
}

func countNaN(s series.Series) int {
	n := 0
	for _, isNaN := range s.IsNaN() {
		if isNaN {
			n++
		}
	}
	return n
}
