package model

// DatasetSummary describes a loaded transaction table before any training.
type DatasetSummary struct {
	Source        string   `json:"source" yaml:"source"`
	LabelColumn   string   `json:"label_column" yaml:"label_column"`
	ColumnNames   []string `json:"column_names,omitempty" yaml:"column_names,omitempty"`
	Rows          int      `json:"rows" yaml:"rows"`
	Columns       int      `json:"columns" yaml:"columns"`
	MissingValues int      `json:"missing_values" yaml:"missing_values"`
	Legitimate    int      `json:"legitimate" yaml:"legitimate"`
	Fraudulent    int      `json:"fraudulent" yaml:"fraudulent"`
}

// FraudRate returns the share of fraudulent rows, or 0 for an empty table.
func (s DatasetSummary) FraudRate() float64 {
	total := s.Legitimate + s.Fraudulent
	if total == 0 {
		return 0
	}
	return float64(s.Fraudulent) / float64(total)
}

// ColumnStats holds descriptive statistics for one column.
// Missing cells are excluded from every statistic.
type ColumnStats struct {
	Name    string
	Count   int
	Missing int
	Min     float64
	Max     float64
	Mean    float64
	StdDev  float64
}

// Split is a partition of a feature matrix and its labels into a training
// subset and an evaluation subset. TrainIndex and TestIndex hold the original
// row number of every row on each side.
type Split struct {
	TrainFeatures FeatureMatrix
	TestFeatures  FeatureMatrix
	TrainLabels   LabelVector
	TestLabels    LabelVector
	TrainIndex    []int
	TestIndex     []int
}
