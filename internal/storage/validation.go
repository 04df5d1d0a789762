package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/fraudcheck/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidRun      = errors.New("invalid evaluation run")
	ErrInvalidPageSize = errors.New("limit cannot be negative")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRun checks that a run is complete enough to be stored and reloaded.
func validateRun(run *model.EvaluationRun) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if run.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRun)
	}
	if run.StartedAt.IsZero() || run.FinishedAt.IsZero() {
		return fmt.Errorf("%w: missing timestamps", ErrInvalidRun)
	}
	if run.FinishedAt.Before(run.StartedAt) {
		return fmt.Errorf("%w: finished before it started", ErrInvalidRun)
	}
	if run.DatasetPath == "" {
		return fmt.Errorf("%w: missing dataset path", ErrInvalidRun)
	}
	if run.Params.Model == "" {
		return fmt.Errorf("%w: missing model", ErrInvalidRun)
	}
	if total := run.Report.Confusion.Total(); total == 0 || total != run.TestRows {
		return fmt.Errorf("%w: confusion matrix counts %d rows but %d were evaluated", ErrInvalidRun, total, run.TestRows)
	}
	return nil
}
