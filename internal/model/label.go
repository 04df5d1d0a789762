// Package model defines the core domain models used throughout the application.
package model

import "fmt"

// Label is the binary class of a transaction.
type Label int

// Label values. The fraudulent class is the positive class for every metric.
const (
	LabelLegitimate Label = 0
	LabelFraudulent Label = 1
)

// Valid reports whether l is one of the two known classes.
func (l Label) Valid() bool {
	return l == LabelLegitimate || l == LabelFraudulent
}

func (l Label) String() string {
	switch l {
	case LabelLegitimate:
		return "legitimate"
	case LabelFraudulent:
		return "fraudulent"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

// LabelVector is an ordered sequence of labels, one per transaction.
type LabelVector []Label

// Counts returns the number of legitimate and fraudulent labels.
// Values outside the two classes are not counted.
func (v LabelVector) Counts() (legitimate, fraudulent int) {
	for _, l := range v {
		switch l {
		case LabelLegitimate:
			legitimate++
		case LabelFraudulent:
			fraudulent++
		}
	}
	return legitimate, fraudulent
}

// FeatureMatrix holds one row of numeric feature values per transaction.
// Row i always describes the same transaction as label i of its LabelVector.
type FeatureMatrix [][]float64

// Rows returns the number of rows.
func (m FeatureMatrix) Rows() int {
	return len(m)
}

// Cols returns the width of the first row, or 0 for an empty matrix.
func (m FeatureMatrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}
