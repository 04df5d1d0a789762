package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/ensemble"

	"github.com/Veraticus/fraudcheck/internal/common"
	"github.com/Veraticus/fraudcheck/internal/model"
)

// DefaultTrees is the forest size used when none is configured.
const DefaultTrees = 200

// cancelCheckInterval is how many rows are converted between context checks.
const cancelCheckInterval = 4096

// Forest is a random forest backed by golearn. Every tree is trained on a
// bootstrap sample of the training rows.
type Forest struct {
	forest *ensemble.RandomForest
	class  *base.CategoricalAttribute
	config Config
	attrs  []base.Attribute
	width  int
}

// NewForest validates cfg and returns an untrained forest.
func NewForest(cfg Config) (*Forest, error) {
	if cfg.Trees == 0 {
		cfg.Trees = DefaultTrees
	}
	if cfg.Trees < 0 {
		return nil, fmt.Errorf("%w: trees must be positive, got %d", common.ErrInvalidConfig, cfg.Trees)
	}
	if cfg.Features < 0 {
		return nil, fmt.Errorf("%w: features must not be negative, got %d", common.ErrInvalidConfig, cfg.Features)
	}
	return &Forest{config: cfg}, nil
}

// Train fits the forest. A failed Train leaves any previous model in place.
func (f *Forest) Train(ctx context.Context, features model.FeatureMatrix, labels model.LabelVector) error {
	if err := checkTraining(features, labels); err != nil {
		return err
	}

	width := features.Cols()
	if width == 0 {
		return fmt.Errorf("%w: training rows have no features", common.ErrInvalidInput)
	}

	perTree := f.config.Features
	if perTree == 0 {
		perTree = max(1, int(math.Sqrt(float64(width))))
	}
	if perTree > width {
		return fmt.Errorf("%w: %d features per tree but rows have only %d", common.ErrInvalidConfig, perTree, width)
	}

	attrs, class := newAttributes(width)
	inst, err := buildInstances(ctx, attrs, class, features, labels, f.bar(len(features), "Preparing training rows"))
	if err != nil {
		return err
	}

	slog.Info("fitting random forest",
		"trees", f.config.Trees,
		"features_per_tree", perTree,
		"rows", len(features))

	start := time.Now()
	rf := ensemble.NewRandomForest(f.config.Trees, perTree)
	if err := rf.Fit(inst); err != nil {
		return fmt.Errorf("failed to fit random forest: %w", err)
	}
	slog.Debug("random forest fitted", "duration", time.Since(start))

	f.forest = rf
	f.attrs = attrs
	f.class = class
	f.width = width
	return nil
}

// Infer predicts a label for every row.
func (f *Forest) Infer(ctx context.Context, features model.FeatureMatrix) (model.LabelVector, error) {
	if f.forest == nil {
		return nil, ErrNotTrained
	}
	if len(features) == 0 {
		return model.LabelVector{}, nil
	}

	inst, err := buildInstances(ctx, f.attrs, f.class, features, nil, f.bar(len(features), "Preparing evaluation rows"))
	if err != nil {
		return nil, err
	}

	predictions, err := f.forest.Predict(inst)
	if err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}

	_, rows := predictions.Size()
	if rows != len(features) {
		return nil, fmt.Errorf("forest returned %d predictions for %d rows", rows, len(features))
	}

	out := make(model.LabelVector, rows)
	for i := range rows {
		label, err := parseClass(base.GetClass(predictions, i))
		if err != nil {
			return nil, fmt.Errorf("prediction %d: %w", i, err)
		}
		out[i] = label
	}
	return out, nil
}

func (f *Forest) bar(rows int, description string) *progressbar.ProgressBar {
	if f.config.Progress == nil {
		return progressbar.DefaultSilent(int64(rows), description)
	}
	return progressbar.NewOptions(rows,
		progressbar.OptionSetWriter(f.config.Progress),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// newAttributes declares one float attribute per feature and a categorical
// class attribute whose values are "0" and "1", in that order.
func newAttributes(width int) ([]base.Attribute, *base.CategoricalAttribute) {
	attrs := make([]base.Attribute, width)
	for j := range width {
		attrs[j] = base.NewFloatAttribute(fmt.Sprintf("f%d", j))
	}

	class := base.NewCategoricalAttribute()
	class.SetName("class")
	class.GetSysValFromString(classValue(model.LabelLegitimate))
	class.GetSysValFromString(classValue(model.LabelFraudulent))

	return attrs, class
}

// buildInstances copies rows into golearn's dense storage. With nil labels the
// class column is filled with the legitimate class as a placeholder.
func buildInstances(
	ctx context.Context,
	attrs []base.Attribute,
	class *base.CategoricalAttribute,
	features model.FeatureMatrix,
	labels model.LabelVector,
	bar *progressbar.ProgressBar,
) (*base.DenseInstances, error) {
	inst := base.NewDenseInstances()

	specs := make([]base.AttributeSpec, len(attrs))
	for j, a := range attrs {
		specs[j] = inst.AddAttribute(a)
	}
	classSpec := inst.AddAttribute(class)
	if err := inst.AddClassAttribute(class); err != nil {
		return nil, fmt.Errorf("failed to declare class attribute: %w", err)
	}

	if err := inst.Extend(len(features)); err != nil {
		return nil, fmt.Errorf("failed to allocate %d rows: %w", len(features), err)
	}

	placeholder := class.GetSysValFromString(classValue(model.LabelLegitimate))
	for i, row := range features {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if len(row) != len(attrs) {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", common.ErrInvalidInput, i, len(row), len(attrs))
		}
		for j, v := range row {
			inst.Set(specs[j], i, base.PackFloatToBytes(v))
		}

		if labels == nil {
			inst.Set(classSpec, i, placeholder)
		} else {
			inst.Set(classSpec, i, class.GetSysValFromString(classValue(labels[i])))
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	return inst, nil
}

func classValue(l model.Label) string {
	if l == model.LabelFraudulent {
		return "1"
	}
	return "0"
}

func parseClass(s string) (model.Label, error) {
	switch s {
	case "0":
		return model.LabelLegitimate, nil
	case "1":
		return model.LabelFraudulent, nil
	default:
		return 0, fmt.Errorf("%w: unexpected class %q", common.ErrInvalidInput, s)
	}
}
