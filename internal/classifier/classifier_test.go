package classifier

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/fraudcheck/internal/common"
	"github.com/Veraticus/fraudcheck/internal/model"
)

// separable returns rows whose label is 1 exactly when both features are large.
func separable(n int) (model.FeatureMatrix, model.LabelVector) {
	features := make(model.FeatureMatrix, n)
	labels := make(model.LabelVector, n)
	for i := range n {
		x := float64(i) / float64(n)
		features[i] = []float64{x, x + 0.01}
		if x >= 0.5 {
			labels[i] = model.LabelFraudulent
		}
	}
	return features, labels
}

func TestNew(t *testing.T) {
	tests := []struct {
		wantErr error
		want    any
		name    string
		kind    string
	}{
		{name: "forest", kind: model.ModelForest, want: &Forest{}},
		{name: "default is forest", kind: "", want: &Forest{}},
		{name: "majority", kind: model.ModelMajority, want: &Majority{}},
		{name: "unknown", kind: "svm", wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(Config{Kind: tt.kind, Trees: 5})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, c)
		})
	}
}

func TestMajority(t *testing.T) {
	ctx := context.Background()

	t.Run("predicts most frequent label", func(t *testing.T) {
		m := &Majority{}
		features := model.FeatureMatrix{{1}, {2}, {3}}
		require.NoError(t, m.Train(ctx, features, model.LabelVector{0, 0, 1}))

		got, err := m.Infer(ctx, model.FeatureMatrix{{4}, {5}})
		require.NoError(t, err)
		assert.Equal(t, model.LabelVector{0, 0}, got)
	})

	t.Run("fraud majority", func(t *testing.T) {
		m := &Majority{}
		require.NoError(t, m.Train(ctx, model.FeatureMatrix{{1}, {2}, {3}}, model.LabelVector{1, 1, 0}))

		got, err := m.Infer(ctx, model.FeatureMatrix{{4}})
		require.NoError(t, err)
		assert.Equal(t, model.LabelVector{1}, got)
	})

	t.Run("tie goes to legitimate", func(t *testing.T) {
		m := &Majority{}
		require.NoError(t, m.Train(ctx, model.FeatureMatrix{{1}, {2}}, model.LabelVector{1, 0}))

		got, err := m.Infer(ctx, model.FeatureMatrix{{4}})
		require.NoError(t, err)
		assert.Equal(t, model.LabelVector{0}, got)
	})

	t.Run("not trained", func(t *testing.T) {
		_, err := (&Majority{}).Infer(ctx, model.FeatureMatrix{{1}})
		assert.ErrorIs(t, err, ErrNotTrained)
	})

	t.Run("invalid training set", func(t *testing.T) {
		m := &Majority{}
		assert.ErrorIs(t, m.Train(ctx, nil, nil), common.ErrInvalidInput)
		assert.ErrorIs(t, m.Train(ctx, model.FeatureMatrix{{1}}, model.LabelVector{0, 1}), common.ErrInvalidInput)
		assert.ErrorIs(t, m.Train(ctx, model.FeatureMatrix{{1}}, model.LabelVector{7}), common.ErrInvalidInput)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, (&Majority{}).Train(cctx, model.FeatureMatrix{{1}}, model.LabelVector{0}), context.Canceled)
	})
}

func TestNewForest(t *testing.T) {
	f, err := NewForest(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultTrees, f.config.Trees)

	_, err = NewForest(Config{Trees: -1})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	_, err = NewForest(Config{Trees: 10, Features: -2})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestForest_Validation(t *testing.T) {
	ctx := context.Background()
	features, labels := separable(20)

	t.Run("infer before train", func(t *testing.T) {
		f, err := NewForest(Config{Trees: 3})
		require.NoError(t, err)
		_, err = f.Infer(ctx, features)
		assert.ErrorIs(t, err, ErrNotTrained)
	})

	t.Run("mismatched labels", func(t *testing.T) {
		f, err := NewForest(Config{Trees: 3})
		require.NoError(t, err)
		assert.ErrorIs(t, f.Train(ctx, features, labels[:5]), common.ErrInvalidInput)
	})

	t.Run("too many features per tree", func(t *testing.T) {
		f, err := NewForest(Config{Trees: 3, Features: 5})
		require.NoError(t, err)
		assert.ErrorIs(t, f.Train(ctx, features, labels), common.ErrInvalidConfig)
	})

	t.Run("ragged rows", func(t *testing.T) {
		f, err := NewForest(Config{Trees: 3})
		require.NoError(t, err)
		ragged := append(model.FeatureMatrix{}, features...)
		ragged[3] = []float64{1}
		assert.ErrorIs(t, f.Train(ctx, ragged, labels), common.ErrInvalidInput)
	})

	t.Run("cancelled", func(t *testing.T) {
		f, err := NewForest(Config{Trees: 3})
		require.NoError(t, err)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, f.Train(cctx, features, labels), context.Canceled)
	})
}

func TestForest_TrainInfer(t *testing.T) {
	ctx := context.Background()
	features, labels := separable(60)

	var progress bytes.Buffer
	f, err := NewForest(Config{Trees: 5, Progress: &progress})
	require.NoError(t, err)
	require.NoError(t, f.Train(ctx, features, labels))

	got, err := f.Infer(ctx, features)
	require.NoError(t, err)
	require.Len(t, got, len(features))
	for i, l := range got {
		assert.True(t, l.Valid(), "prediction %d = %d", i, l)
	}

	t.Run("width mismatch", func(t *testing.T) {
		_, err := f.Infer(ctx, model.FeatureMatrix{{0.1, 0.2, 0.3}})
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("empty input", func(t *testing.T) {
		got, err := f.Infer(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestClassValue(t *testing.T) {
	for _, l := range []model.Label{model.LabelLegitimate, model.LabelFraudulent} {
		back, err := parseClass(classValue(l))
		require.NoError(t, err)
		assert.Equal(t, l, back)
	}

	_, err := parseClass("2")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
