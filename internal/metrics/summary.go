package metrics

import (
	"github.com/sjwhitworth/golearn/evaluation"

	"github.com/Veraticus/fraudcheck/internal/model"
)

// ConfusionMap converts a report's counts into golearn's confusion matrix,
// keyed by class name for the true label and then the predicted label.
func ConfusionMap(r *model.MetricsReport) evaluation.ConfusionMatrix {
	legit := model.LabelLegitimate.String()
	fraud := model.LabelFraudulent.String()

	return evaluation.ConfusionMatrix{
		legit: {legit: r.TN, fraud: r.FP},
		fraud: {legit: r.FN, fraud: r.TP},
	}
}

// ClassificationReport renders per-class precision, recall and F1 for both
// classes, the way golearn summarises a confusion matrix.
func ClassificationReport(r *model.MetricsReport) string {
	return evaluation.GetSummary(ConfusionMap(r))
}
