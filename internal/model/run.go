package model

import "time"

// Classifier kinds.
const (
	ModelForest   = "forest"
	ModelMajority = "majority"
)

// RunParameters are the knobs that produced an evaluation run.
type RunParameters struct {
	Model        string  `json:"model" yaml:"model"`
	TestFraction float64 `json:"test_fraction" yaml:"test_fraction"`
	Seed         uint64  `json:"seed" yaml:"seed"`
	Trees        int     `json:"trees,omitempty" yaml:"trees,omitempty"`
	Features     int     `json:"features,omitempty" yaml:"features,omitempty"`
	Stratify     bool    `json:"stratify" yaml:"stratify"`
}

// EvaluationRun records one train/predict/evaluate cycle.
type EvaluationRun struct {
	StartedAt     time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt    time.Time      `json:"finished_at" yaml:"finished_at"`
	ID            string         `json:"id" yaml:"id"`
	DatasetPath   string         `json:"dataset_path" yaml:"dataset_path"`
	Summary       DatasetSummary `json:"dataset" yaml:"dataset"`
	Report        MetricsReport  `json:"metrics" yaml:"metrics"`
	Params        RunParameters  `json:"parameters" yaml:"parameters"`
	TrainRows     int            `json:"train_rows" yaml:"train_rows"`
	TestRows      int            `json:"test_rows" yaml:"test_rows"`
	TrainDuration time.Duration  `json:"train_duration" yaml:"train_duration"`
	InferDuration time.Duration  `json:"infer_duration" yaml:"infer_duration"`
}

// Duration returns the wall time of the whole run.
func (r EvaluationRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
