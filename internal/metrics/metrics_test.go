package metrics

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/fraudcheck/internal/common"
	"github.com/Veraticus/fraudcheck/internal/model"
)

func labels(values ...int) model.LabelVector {
	v := make(model.LabelVector, len(values))
	for i, x := range values {
		v[i] = model.Label(x)
	}
	return v
}

func complement(v model.LabelVector) model.LabelVector {
	out := make(model.LabelVector, len(v))
	for i, l := range v {
		out[i] = 1 - l
	}
	return out
}

func TestEvaluate_ConcreteScenario(t *testing.T) {
	r, err := Evaluate(labels(0, 0, 1, 1, 0), labels(0, 1, 1, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, 5, r.N)
	assert.Equal(t, 1, r.TP)
	assert.Equal(t, 1, r.FP)
	assert.Equal(t, 2, r.TN)
	assert.Equal(t, 1, r.FN)
	assert.Equal(t, 2, r.Errors)
	assert.InDelta(t, 0.6, r.Accuracy, 1e-12)
	assert.InDelta(t, 0.5, r.Precision, 1e-12)
	assert.InDelta(t, 0.5, r.Recall, 1e-12)
	assert.InDelta(t, 0.5, r.F1, 1e-12)
	assert.InDelta(t, 1.0/6.0, r.MCC, 1e-12)
	assert.False(t, r.Degenerate.Any())
	assert.Equal(t, model.ConfusionMatrix{{2, 1}, {1, 1}}, r.Confusion)
}

func TestEvaluate_PerfectPrediction(t *testing.T) {
	tests := []struct {
		name  string
		truth model.LabelVector
	}{
		{name: "two rows", truth: labels(0, 1)},
		{name: "balanced", truth: labels(0, 1, 0, 1, 1, 0)},
		{name: "imbalanced", truth: labels(0, 0, 0, 0, 0, 0, 0, 0, 0, 1)},
		{name: "mostly fraud", truth: labels(1, 1, 1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predicted := append(model.LabelVector{}, tt.truth...)
			r, err := Evaluate(tt.truth, predicted)
			require.NoError(t, err)

			assert.Equal(t, 0, r.Errors)
			assert.InDelta(t, 1.0, r.Accuracy, 1e-12)
			assert.InDelta(t, 1.0, r.Precision, 1e-12)
			assert.InDelta(t, 1.0, r.Recall, 1e-12)
			assert.InDelta(t, 1.0, r.F1, 1e-12)
			assert.InDelta(t, 1.0, r.MCC, 1e-12)
		})
	}
}

func TestEvaluate_ComplementPrediction(t *testing.T) {
	for _, truth := range []model.LabelVector{
		labels(0),
		labels(1),
		labels(0, 1, 1, 0, 1),
		labels(0, 0, 0, 0),
	} {
		r, err := Evaluate(truth, complement(truth))
		require.NoError(t, err)

		assert.Equal(t, len(truth), r.Errors)
		assert.InDelta(t, 0.0, r.Accuracy, 1e-12)
		assert.Equal(t, len(truth), r.Confusion.Total())
	}
}

func TestEvaluate_MixedComplementIsPerfectlyAnticorrelated(t *testing.T) {
	truth := labels(0, 1, 1, 0, 1)
	r, err := Evaluate(truth, complement(truth))
	require.NoError(t, err)
	assert.InDelta(t, -1.0, r.MCC, 1e-12)
}

func TestEvaluate_Degenerate(t *testing.T) {
	tests := []struct {
		name      string
		truth     model.LabelVector
		predicted model.LabelVector
		want      model.DegenerateMetrics
		accuracy  float64
	}{
		{
			name:      "all legitimate, all predicted legitimate",
			truth:     labels(0, 0, 0, 0),
			predicted: labels(0, 0, 0, 0),
			want:      model.DegenerateMetrics{Precision: true, Recall: true, F1: true, MCC: true},
			accuracy:  1,
		},
		{
			name:      "no positive predictions",
			truth:     labels(0, 1, 0, 1),
			predicted: labels(0, 0, 0, 0),
			want:      model.DegenerateMetrics{Precision: true, F1: true, MCC: true},
			accuracy:  0.5,
		},
		{
			name:      "no positive ground truth",
			truth:     labels(0, 0, 0),
			predicted: labels(1, 0, 0),
			want:      model.DegenerateMetrics{Recall: true, F1: true, MCC: true},
			accuracy:  2.0 / 3.0,
		},
		{
			name:      "only fraud everywhere",
			truth:     labels(1, 1),
			predicted: labels(1, 1),
			want:      model.DegenerateMetrics{MCC: true},
			accuracy:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Evaluate(tt.truth, tt.predicted)
			require.NoError(t, err)

			assert.Equal(t, tt.want, r.Degenerate)
			assert.InDelta(t, tt.accuracy, r.Accuracy, 1e-12)
			if tt.want.Precision {
				assert.Zero(t, r.Precision)
			}
			if tt.want.Recall {
				assert.Zero(t, r.Recall)
			}
			if tt.want.F1 {
				assert.Zero(t, r.F1)
			}
			if tt.want.MCC {
				assert.Zero(t, r.MCC)
			}
		})
	}
}

func TestEvaluate_InvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		contains  string
		truth     model.LabelVector
		predicted model.LabelVector
	}{
		{name: "unequal length", truth: labels(0, 1, 0), predicted: labels(0, 1), contains: "3 ground-truth labels but 2 predictions"},
		{name: "empty", truth: labels(), predicted: labels(), contains: "no labels"},
		{name: "bad truth", truth: labels(0, 2), predicted: labels(0, 1), contains: "ground truth at position 1"},
		{name: "bad prediction", truth: labels(0, 1), predicted: labels(-1, 1), contains: "prediction at position 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Evaluate(tt.truth, tt.predicted)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestFromConfusion(t *testing.T) {
	t.Run("matches Evaluate", func(t *testing.T) {
		fromVectors, err := Evaluate(labels(0, 0, 1, 1, 0), labels(0, 1, 1, 0, 0))
		require.NoError(t, err)

		fromCounts, err := FromConfusion(model.ConfusionMatrix{{2, 1}, {1, 1}})
		require.NoError(t, err)

		assert.Equal(t, fromVectors, fromCounts)
	})

	t.Run("large counts do not overflow", func(t *testing.T) {
		r, err := FromConfusion(model.ConfusionMatrix{{3_000_000_000, 1_000_000}, {2_000_000, 4_000_000}})
		require.NoError(t, err)
		assert.False(t, math.IsNaN(r.MCC))
		assert.Greater(t, r.MCC, 0.0)
		assert.LessOrEqual(t, r.MCC, 1.0)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := FromConfusion(model.ConfusionMatrix{})
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("negative", func(t *testing.T) {
		_, err := FromConfusion(model.ConfusionMatrix{{1, -1}, {0, 1}})
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})
}

func TestClassificationReport(t *testing.T) {
	r, err := Evaluate(labels(0, 0, 1, 1, 0), labels(0, 1, 1, 0, 0))
	require.NoError(t, err)

	cm := ConfusionMap(r)
	assert.Equal(t, 2, cm["legitimate"]["legitimate"])
	assert.Equal(t, 1, cm["legitimate"]["fraudulent"])
	assert.Equal(t, 1, cm["fraudulent"]["legitimate"])
	assert.Equal(t, 1, cm["fraudulent"]["fraudulent"])

	summary := ClassificationReport(r)
	assert.True(t, strings.Contains(summary, "legitimate"))
	assert.True(t, strings.Contains(summary, "fraudulent"))
}

// FuzzEvaluate checks the invariants that must hold for any valid pair of
// binary vectors.
func FuzzEvaluate(f *testing.F) {
	f.Add([]byte{0, 0, 1, 1, 0}, []byte{0, 1, 1, 0, 0})
	f.Add([]byte{0, 0, 0}, []byte{0, 0, 0})
	f.Add([]byte{1}, []byte{0})
	f.Add([]byte{1, 1, 1, 1}, []byte{1, 0, 1, 0})

	f.Fuzz(func(t *testing.T, a, b []byte) {
		n := min(len(a), len(b))
		if n == 0 {
			return
		}
		truth := make(model.LabelVector, n)
		predicted := make(model.LabelVector, n)
		for i := range n {
			truth[i] = model.Label(a[i] & 1)
			predicted[i] = model.Label(b[i] & 1)
		}

		r, err := Evaluate(truth, predicted)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}

		if r.Confusion.Total() != n {
			t.Errorf("confusion total = %d, want %d", r.Confusion.Total(), n)
		}
		if r.Errors != r.FP+r.FN {
			t.Errorf("errors = %d, want FP+FN = %d", r.Errors, r.FP+r.FN)
		}
		for name, v := range map[string]float64{
			"accuracy":  r.Accuracy,
			"precision": r.Precision,
			"recall":    r.Recall,
			"f1":        r.F1,
		} {
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Errorf("%s = %v, want within [0,1]", name, v)
			}
		}
		if r.MCC < -1 || r.MCC > 1 || math.IsNaN(r.MCC) {
			t.Errorf("mcc = %v, want within [-1,1]", r.MCC)
		}
	})
}
