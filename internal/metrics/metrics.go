// Package metrics turns ground-truth and predicted labels into a MetricsReport.
//
// The fraudulent class (label 1) is the positive class. Metrics whose
// denominator is zero resolve to 0 and are flagged in MetricsReport.Degenerate.
package metrics

import (
	"fmt"
	"math"

	"github.com/Veraticus/fraudcheck/internal/common"
	"github.com/Veraticus/fraudcheck/internal/model"
)

// Evaluate compares predicted labels with ground truth position by position.
// Both vectors must be non-empty, of equal length, and hold only 0 and 1.
func Evaluate(truth, predicted model.LabelVector) (*model.MetricsReport, error) {
	if len(truth) != len(predicted) {
		return nil, fmt.Errorf("%w: %d ground-truth labels but %d predictions",
			common.ErrInvalidInput, len(truth), len(predicted))
	}
	if len(truth) == 0 {
		return nil, fmt.Errorf("%w: no labels to evaluate", common.ErrInvalidInput)
	}

	var cm model.ConfusionMatrix
	for i, t := range truth {
		p := predicted[i]
		if !t.Valid() {
			return nil, fmt.Errorf("%w: ground truth at position %d is %d, want 0 or 1",
				common.ErrInvalidInput, i, int(t))
		}
		if !p.Valid() {
			return nil, fmt.Errorf("%w: prediction at position %d is %d, want 0 or 1",
				common.ErrInvalidInput, i, int(p))
		}
		cm[t][p]++
	}

	return FromConfusion(cm)
}

// FromConfusion derives every metric from confusion matrix counts.
func FromConfusion(cm model.ConfusionMatrix) (*model.MetricsReport, error) {
	for t := range cm {
		for p := range cm[t] {
			if cm[t][p] < 0 {
				return nil, fmt.Errorf("%w: negative count %d at [%d][%d]", common.ErrInvalidInput, cm[t][p], t, p)
			}
		}
	}

	n := cm.Total()
	if n == 0 {
		return nil, fmt.Errorf("%w: confusion matrix is empty", common.ErrInvalidInput)
	}

	tp, fp := cm.TruePositives(), cm.FalsePositives()
	tn, fn := cm.TrueNegatives(), cm.FalseNegatives()

	r := &model.MetricsReport{
		Confusion: cm,
		N:         n,
		TP:        tp,
		FP:        fp,
		TN:        tn,
		FN:        fn,
		Errors:    fp + fn,
		Accuracy:  float64(tp+tn) / float64(n),
	}

	r.Precision, r.Degenerate.Precision = ratio(tp, tp+fp)
	r.Recall, r.Degenerate.Recall = ratio(tp, tp+fn)

	if sum := r.Precision + r.Recall; sum == 0 {
		r.Degenerate.F1 = true
	} else {
		r.F1 = 2 * r.Precision * r.Recall / sum
	}

	r.MCC, r.Degenerate.MCC = matthews(tp, fp, tn, fn)

	return r, nil
}

// ratio returns num/den, or 0 and true when den is zero.
func ratio(num, den int) (float64, bool) {
	if den == 0 {
		return 0, true
	}
	return float64(num) / float64(den), false
}

// matthews computes the Matthews correlation coefficient in float64 so the
// product of four marginals cannot overflow.
func matthews(tp, fp, tn, fn int) (float64, bool) {
	marginals := [4]float64{
		float64(tp + fp),
		float64(tp + fn),
		float64(tn + fp),
		float64(tn + fn),
	}
	denom := 1.0
	for _, m := range marginals {
		if m == 0 {
			return 0, true
		}
		denom *= m
	}

	num := float64(tp)*float64(tn) - float64(fp)*float64(fn)
	mcc := num / math.Sqrt(denom)

	// Rounding can push a perfect correlation a hair past the bound.
	return math.Max(-1, math.Min(1, mcc)), false
}
