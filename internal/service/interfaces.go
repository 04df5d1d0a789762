// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/fraudcheck/internal/model"
)

// Classifier is the narrow train/infer capability the pipeline needs from a
// model. Any implementation can be swapped in without touching evaluation.
type Classifier interface {
	// Train fits the model. Row i of features belongs to label i.
	Train(ctx context.Context, features model.FeatureMatrix, labels model.LabelVector) error
	// Infer predicts one label per row, in row order.
	Infer(ctx context.Context, features model.FeatureMatrix) (model.LabelVector, error)
}

// RunStore defines the contract for persisting evaluation runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *model.EvaluationRun) error
	// GetRun accepts a full run ID or a unique prefix of one.
	GetRun(ctx context.Context, id string) (*model.EvaluationRun, error)
	// ListRuns returns the most recent runs first. A limit of 0 returns all runs.
	ListRuns(ctx context.Context, limit int) ([]model.EvaluationRun, error)
	DeleteRun(ctx context.Context, id string) error

	// Database management
	Migrate(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int, error)
	Close() error
}
