package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/fraudcheck/internal/common"
	"github.com/Veraticus/fraudcheck/internal/model"
)

// Defaults reproduce the reference evaluation: an 80/20 split with seed 0 and
// a 200-tree forest over the Kaggle credit-card bundle.
const (
	DefaultDatasetPath  = "310_23498_bundle_archive.zip"
	DefaultLabelColumn  = "Class"
	DefaultTestFraction = 0.20
	DefaultTrees        = 200
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
)

// Settings is the resolved configuration for one invocation.
type Settings struct {
	DatasetPath  string
	Member       string
	LabelColumn  string
	Model        string
	DatabasePath string
	LogLevel     string
	LogFormat    string
	TestFraction float64
	Seed         uint64
	Trees        int
	Features     int
	Stratify     bool
	SaveRuns     bool
}

// DefaultDatabasePath returns where run history lives when database.path is unset.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "fraudcheck.db")
	}
	return filepath.Join(home, ".local", "share", "fraudcheck", "fraudcheck.db")
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("dataset.path", DefaultDatasetPath)
	v.SetDefault("dataset.member", "")
	v.SetDefault("dataset.label", DefaultLabelColumn)
	v.SetDefault("split.test_fraction", DefaultTestFraction)
	v.SetDefault("split.seed", uint64(0))
	v.SetDefault("split.stratify", false)
	v.SetDefault("model.kind", model.ModelForest)
	v.SetDefault("model.trees", DefaultTrees)
	v.SetDefault("model.features", 0)
	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("storage.save_runs", false)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}

// Load resolves settings from the global viper instance.
func Load() (*Settings, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom resolves settings from v. Keys v does not know fall back to their
// defaults, then the result is validated.
func LoadFrom(v *viper.Viper) (*Settings, error) {
	SetDefaults(v)

	s := &Settings{
		DatasetPath:  ExpandPath(v.GetString("dataset.path")),
		Member:       v.GetString("dataset.member"),
		LabelColumn:  v.GetString("dataset.label"),
		TestFraction: v.GetFloat64("split.test_fraction"),
		Seed:         v.GetUint64("split.seed"),
		Stratify:     v.GetBool("split.stratify"),
		Model:        strings.ToLower(v.GetString("model.kind")),
		Trees:        v.GetInt("model.trees"),
		Features:     v.GetInt("model.features"),
		DatabasePath: ExpandPath(v.GetString("database.path")),
		SaveRuns:     v.GetBool("storage.save_runs"),
		LogLevel:     v.GetString("logging.level"),
		LogFormat:    strings.ToLower(v.GetString("logging.format")),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the settings describe a runnable evaluation.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.DatasetPath) == "" {
		return fmt.Errorf("%w: dataset.path is required", common.ErrMissingConfig)
	}
	if math.IsNaN(s.TestFraction) || s.TestFraction <= 0 || s.TestFraction >= 1 {
		return fmt.Errorf("%w: split.test_fraction must be between 0 and 1 exclusive, got %v",
			common.ErrInvalidConfig, s.TestFraction)
	}
	switch s.Model {
	case model.ModelForest, model.ModelMajority:
	default:
		return fmt.Errorf("%w: model.kind must be %s or %s, got %q",
			common.ErrInvalidConfig, model.ModelForest, model.ModelMajority, s.Model)
	}
	if s.Trees < 0 {
		return fmt.Errorf("%w: model.trees cannot be negative, got %d", common.ErrInvalidConfig, s.Trees)
	}
	if s.Features < 0 {
		return fmt.Errorf("%w: model.features cannot be negative, got %d", common.ErrInvalidConfig, s.Features)
	}
	if s.SaveRuns && strings.TrimSpace(s.DatabasePath) == "" {
		return fmt.Errorf("%w: database.path is required when storage.save_runs is set", common.ErrMissingConfig)
	}
	if _, err := common.ParseLevel(s.LogLevel); err != nil {
		return err
	}
	switch s.LogFormat {
	case "console", "json", "":
	default:
		return fmt.Errorf("%w: logging.format must be console or json, got %q", common.ErrInvalidConfig, s.LogFormat)
	}
	return nil
}
