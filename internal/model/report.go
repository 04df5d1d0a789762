package model

// ConfusionMatrix counts (ground truth, prediction) pairs.
// The first index is the true label, the second the predicted label.
type ConfusionMatrix [2][2]int

// Total returns the number of counted pairs.
func (c ConfusionMatrix) Total() int {
	return c[0][0] + c[0][1] + c[1][0] + c[1][1]
}

// TruePositives returns fraudulent transactions predicted as fraudulent.
func (c ConfusionMatrix) TruePositives() int { return c[LabelFraudulent][LabelFraudulent] }

// FalsePositives returns legitimate transactions predicted as fraudulent.
func (c ConfusionMatrix) FalsePositives() int { return c[LabelLegitimate][LabelFraudulent] }

// TrueNegatives returns legitimate transactions predicted as legitimate.
func (c ConfusionMatrix) TrueNegatives() int { return c[LabelLegitimate][LabelLegitimate] }

// FalseNegatives returns fraudulent transactions predicted as legitimate.
func (c ConfusionMatrix) FalseNegatives() int { return c[LabelFraudulent][LabelLegitimate] }

// DegenerateMetrics records which metrics had a zero denominator and were
// resolved to 0 instead of being computed.
type DegenerateMetrics struct {
	Precision bool `json:"precision" yaml:"precision"`
	Recall    bool `json:"recall" yaml:"recall"`
	F1        bool `json:"f1" yaml:"f1"`
	MCC       bool `json:"mcc" yaml:"mcc"`
}

// Any reports whether at least one metric is degenerate.
func (d DegenerateMetrics) Any() bool {
	return d.Precision || d.Recall || d.F1 || d.MCC
}

// MetricsReport is the outcome of comparing predictions with ground truth.
type MetricsReport struct {
	Confusion  ConfusionMatrix   `json:"confusion_matrix" yaml:"confusion_matrix"`
	Degenerate DegenerateMetrics `json:"degenerate" yaml:"degenerate"`
	N          int               `json:"n" yaml:"n"`
	TP         int               `json:"true_positives" yaml:"true_positives"`
	FP         int               `json:"false_positives" yaml:"false_positives"`
	TN         int               `json:"true_negatives" yaml:"true_negatives"`
	FN         int               `json:"false_negatives" yaml:"false_negatives"`
	Errors     int               `json:"errors" yaml:"errors"`
	Accuracy   float64           `json:"accuracy" yaml:"accuracy"`
	Precision  float64           `json:"precision" yaml:"precision"`
	Recall     float64           `json:"recall" yaml:"recall"`
	F1         float64           `json:"f1" yaml:"f1"`
	MCC        float64           `json:"mcc" yaml:"mcc"`
}
