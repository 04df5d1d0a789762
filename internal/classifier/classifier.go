// Package classifier provides the fraud classifiers that satisfy service.Classifier.
package classifier

import (
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/fraudcheck/internal/common"
	"github.com/Veraticus/fraudcheck/internal/model"
	"github.com/Veraticus/fraudcheck/internal/service"
)

// ErrNotTrained is returned by Infer when Train has not succeeded yet.
var ErrNotTrained = errors.New("classifier has not been trained")

// Config selects and tunes a classifier.
type Config struct {
	// Progress receives progress bars while rows are converted. Nil disables them.
	Progress io.Writer
	// Kind is model.ModelForest or model.ModelMajority.
	Kind string
	// Trees is the forest size.
	Trees int
	// Features is the number of features each tree considers. Zero selects
	// floor(sqrt(feature count)).
	Features int
}

// New builds the classifier described by cfg.
func New(cfg Config) (service.Classifier, error) {
	switch cfg.Kind {
	case model.ModelForest, "":
		return NewForest(cfg)
	case model.ModelMajority:
		return &Majority{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown model %q (want %s or %s)",
			common.ErrInvalidConfig, cfg.Kind, model.ModelForest, model.ModelMajority)
	}
}

// checkTraining validates a training set shared by every classifier.
func checkTraining(features model.FeatureMatrix, labels model.LabelVector) error {
	if len(features) == 0 {
		return fmt.Errorf("%w: no training rows", common.ErrInvalidInput)
	}
	if len(features) != len(labels) {
		return fmt.Errorf("%w: %d training rows but %d labels", common.ErrInvalidInput, len(features), len(labels))
	}
	for i, l := range labels {
		if !l.Valid() {
			return fmt.Errorf("%w: training label at row %d is %d, want 0 or 1", common.ErrInvalidInput, i, int(l))
		}
	}
	return nil
}
