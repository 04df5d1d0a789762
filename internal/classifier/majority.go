package classifier

import (
	"context"

	"github.com/Veraticus/fraudcheck/internal/model"
)

// Majority predicts the most frequent training label for every row. Ties go to
// the legitimate class. It is a baseline: on fraud data it reaches high
// accuracy while catching no fraud at all.
type Majority struct {
	label   model.Label
	trained bool
}

// Train records the majority label.
func (m *Majority) Train(ctx context.Context, features model.FeatureMatrix, labels model.LabelVector) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkTraining(features, labels); err != nil {
		return err
	}

	legitimate, fraudulent := labels.Counts()
	m.label = model.LabelLegitimate
	if fraudulent > legitimate {
		m.label = model.LabelFraudulent
	}
	m.trained = true
	return nil
}

// Infer returns the majority label once per row.
func (m *Majority) Infer(ctx context.Context, features model.FeatureMatrix) (model.LabelVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !m.trained {
		return nil, ErrNotTrained
	}

	out := make(model.LabelVector, len(features))
	for i := range out {
		out[i] = m.label
	}
	return out, nil
}
