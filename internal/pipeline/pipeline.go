// Package pipeline runs one fraud evaluation end to end: load the table,
// split it, train a classifier, predict the held-out rows and score them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/fraudcheck/internal/classifier"
	"github.com/Veraticus/fraudcheck/internal/common"
	"github.com/Veraticus/fraudcheck/internal/dataset"
	"github.com/Veraticus/fraudcheck/internal/metrics"
	"github.com/Veraticus/fraudcheck/internal/model"
	"github.com/Veraticus/fraudcheck/internal/partition"
	"github.com/Veraticus/fraudcheck/internal/service"
)

// ErrNoStore is returned when a run should be saved but the runner has no store.
var ErrNoStore = errors.New("no run store configured")

// ClassifierFactory builds an untrained classifier.
type ClassifierFactory func(cfg classifier.Config) (service.Classifier, error)

// Options describe one evaluation.
type Options struct {
	// Progress receives progress bars from the classifier. Nil disables them.
	Progress    io.Writer
	DatasetPath string
	Dataset     dataset.Options
	Params      model.RunParameters
	// Save persists the finished run in the runner's store.
	Save bool
}

// Validate checks options before any work starts.
func (o Options) Validate() error {
	if strings.TrimSpace(o.DatasetPath) == "" {
		return fmt.Errorf("%w: dataset path is required", common.ErrInvalidConfig)
	}
	if o.Params.TestFraction <= 0 || o.Params.TestFraction >= 1 {
		return fmt.Errorf("%w: test fraction must be between 0 and 1 exclusive, got %v",
			common.ErrInvalidConfig, o.Params.TestFraction)
	}
	return nil
}

// Runner executes evaluations. It keeps no dataset state between runs.
type Runner struct {
	newClassifier ClassifierFactory
	store         service.RunStore
	now           func() time.Time
	newID         func() string
}

// NewRunner creates a runner. A nil factory selects classifier.New; a nil
// store disables saving.
func NewRunner(factory ClassifierFactory, store service.RunStore) *Runner {
	if factory == nil {
		factory = classifier.New
	}
	return &Runner{
		newClassifier: factory,
		store:         store,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// Run loads the dataset named by opts and evaluates it.
func (r *Runner) Run(ctx context.Context, opts Options) (*model.EvaluationRun, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	table, _, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	return r.Evaluate(ctx, table, opts)
}

// Load reads the dataset and summarizes it.
func (r *Runner) Load(ctx context.Context, opts Options) (*dataset.Table, model.DatasetSummary, error) {
	start := r.now()
	table, err := dataset.Load(ctx, opts.DatasetPath, opts.Dataset)
	if err != nil {
		return nil, model.DatasetSummary{}, fmt.Errorf("failed to load dataset: %w", err)
	}

	summary := table.Summary()
	slog.Info("dataset ready",
		"source", summary.Source,
		"rows", summary.Rows,
		"missing", summary.MissingValues,
		"fraudulent", summary.Fraudulent,
		"duration", r.now().Sub(start))
	return table, summary, nil
}

// Evaluate trains on one side of a seeded split of table, predicts the other
// side and scores the predictions.
func (r *Runner) Evaluate(ctx context.Context, table *dataset.Table, opts Options) (*model.EvaluationRun, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Save && r.store == nil {
		return nil, ErrNoStore
	}

	started := r.now()
	summary := table.Summary()

	features, labels, err := table.FeaturesAndLabels()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare features: %w", err)
	}

	split, err := r.split(features, labels, opts.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to split dataset: %w", err)
	}
	common.LogInfo("split dataset", common.Fields{
		"train":    len(split.TrainLabels),
		"test":     len(split.TestLabels),
		"seed":     opts.Params.Seed,
		"stratify": opts.Params.Stratify,
	})

	params := effectiveParams(opts.Params)
	common.LogDebug("building classifier", common.Fields{
		"model":    params.Model,
		"trees":    params.Trees,
		"features": params.Features,
	})
	clf, err := r.newClassifier(classifier.Config{
		Progress: opts.Progress,
		Kind:     params.Model,
		Trees:    params.Trees,
		Features: params.Features,
	})
	if err != nil {
		return nil, err
	}

	trainStart := r.now()
	if err := clf.Train(ctx, split.TrainFeatures, split.TrainLabels); err != nil {
		return nil, fmt.Errorf("failed to train %s classifier: %w", params.Model, err)
	}
	trainDuration := r.now().Sub(trainStart)
	slog.Info("trained classifier", "model", params.Model, "rows", len(split.TrainLabels), "duration", trainDuration)

	inferStart := r.now()
	predictions, err := clf.Infer(ctx, split.TestFeatures)
	if err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}
	inferDuration := r.now().Sub(inferStart)
	slog.Info("predicted evaluation rows", "rows", len(predictions), "duration", inferDuration)

	report, err := metrics.Evaluate(split.TestLabels, predictions)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate predictions: %w", err)
	}

	run := &model.EvaluationRun{
		ID:            r.newID(),
		StartedAt:     started,
		FinishedAt:    r.now(),
		DatasetPath:   opts.DatasetPath,
		Summary:       summary,
		Report:        *report,
		Params:        params,
		TrainRows:     len(split.TrainLabels),
		TestRows:      len(split.TestLabels),
		TrainDuration: trainDuration,
		InferDuration: inferDuration,
	}
	slog.Info("evaluation complete",
		"id", run.ID,
		"errors", report.Errors,
		"accuracy", report.Accuracy,
		"mcc", report.MCC,
		"degenerate", report.Degenerate.Any())

	if opts.Save {
		if err := r.store.SaveRun(ctx, run); err != nil {
			return run, fmt.Errorf("failed to save run %s: %w", run.ID, err)
		}
	}

	return run, nil
}

func (r *Runner) split(features model.FeatureMatrix, labels model.LabelVector, p model.RunParameters) (model.Split, error) {
	if p.Stratify {
		return partition.StratifiedSplit(features, labels, p.TestFraction, p.Seed)
	}
	return partition.TrainTestSplit(features, labels, p.TestFraction, p.Seed)
}

// effectiveParams fills in the defaults the classifier applies so stored runs
// record what actually ran.
func effectiveParams(p model.RunParameters) model.RunParameters {
	if p.Model == "" {
		p.Model = model.ModelForest
	}
	if p.Model == model.ModelForest && p.Trees == 0 {
		p.Trees = classifier.DefaultTrees
	}
	if p.Model != model.ModelForest {
		p.Trees = 0
		p.Features = 0
	}
	return p
}
