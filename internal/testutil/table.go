package testutil

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TableBuilder assembles a labeled transaction table for tests. Legitimate
// rows come first, then fraudulent rows. Feature values are derived from the
// row number so every build of the same table is identical.
//
// Example:
//
//	path := testutil.NewTable(t).
//		WithLegitimate(16).
//		WithFraudulent(4).
//		WriteCSV()
type TableBuilder struct {
	t          *testing.T
	missing    map[[2]int]bool
	columns    []string
	legitimate int
	fraudulent int
}

// DefaultColumns mirror the shape of the credit-card dataset at a smaller width.
var DefaultColumns = []string{"Time", "V1", "V2", "Amount"}

// NewTable starts an empty table with DefaultColumns and a Class label.
func NewTable(t *testing.T) *TableBuilder {
	t.Helper()
	return &TableBuilder{
		t:       t,
		columns: DefaultColumns,
		missing: map[[2]int]bool{},
	}
}

// WithColumns replaces the feature column names.
func (b *TableBuilder) WithColumns(names ...string) *TableBuilder {
	b.columns = names
	return b
}

// WithLegitimate adds n legitimate rows.
func (b *TableBuilder) WithLegitimate(n int) *TableBuilder {
	b.legitimate += n
	return b
}

// WithFraudulent adds n fraudulent rows.
func (b *TableBuilder) WithFraudulent(n int) *TableBuilder {
	b.fraudulent += n
	return b
}

// WithMissing blanks the feature cell at row, col.
func (b *TableBuilder) WithMissing(row, col int) *TableBuilder {
	b.missing[[2]int{row, col}] = true
	return b
}

// Rows returns the number of data rows the table will hold.
func (b *TableBuilder) Rows() int {
	return b.legitimate + b.fraudulent
}

// CSV renders the table with a header line.
func (b *TableBuilder) CSV() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(b.columns, ",") + ",Class\n")

	for row := range b.Rows() {
		class := 0
		if row >= b.legitimate {
			class = 1
		}
		for col := range b.columns {
			if !b.missing[[2]int{row, col}] {
				// Fraudulent rows sit far from legitimate ones in feature space.
				fmt.Fprintf(&sb, "%g", float64(row*(col+1))/4+float64(class*100))
			}
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, "%d\n", class)
	}
	return sb.String()
}

// WriteCSV writes the table to a CSV file in a temp dir and returns its path.
func (b *TableBuilder) WriteCSV() string {
	b.t.Helper()
	path := filepath.Join(b.t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, []byte(b.CSV()), 0o600); err != nil {
		b.t.Fatalf("failed to write table: %v", err)
	}
	return path
}

// WriteArchive writes the table as member of a zip archive in a temp dir and
// returns the archive path.
func (b *TableBuilder) WriteArchive(member string) string {
	b.t.Helper()
	path := filepath.Join(b.t.TempDir(), "bundle.zip")

	f, err := os.Create(path) //nolint:gosec // temp dir path
	if err != nil {
		b.t.Fatalf("failed to create archive: %v", err)
	}
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)
	w, err := zw.Create(member)
	if err != nil {
		b.t.Fatalf("failed to add archive member: %v", err)
	}
	if _, err := w.Write([]byte(b.CSV())); err != nil {
		b.t.Fatalf("failed to write archive member: %v", err)
	}
	if err := zw.Close(); err != nil {
		b.t.Fatalf("failed to finish archive: %v", err)
	}
	return path
}
