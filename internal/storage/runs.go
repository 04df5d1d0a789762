package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/fraudcheck/internal/common"
	"github.com/Veraticus/fraudcheck/internal/metrics"
	"github.com/Veraticus/fraudcheck/internal/model"
)

var (
	// ErrRunNotFound is returned when no run matches an ID or prefix.
	ErrRunNotFound = fmt.Errorf("evaluation run %w", common.ErrNotFound)
	// ErrAmbiguousRunID is returned when an ID prefix matches more than one run.
	ErrAmbiguousRunID = errors.New("run ID prefix matches more than one run")
)

const runColumns = `
	id, started_at, finished_at, dataset_path, dataset_source, label_column, column_names,
	dataset_rows, dataset_columns, missing_values, legitimate, fraudulent,
	model, trees, features, test_fraction, seed, stratify,
	train_rows, test_rows,
	true_negatives, false_positives, false_negatives, true_positives,
	train_duration_ns, infer_duration_ns`

// SaveRun stores a finished evaluation run.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *model.EvaluationRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	var columnsJSON *string
	if len(run.Summary.ColumnNames) > 0 {
		data, err := json.Marshal(run.Summary.ColumnNames)
		if err != nil {
			return fmt.Errorf("failed to marshal column names: %w", err)
		}
		str := string(data)
		columnsJSON = &str
	}

	cm := run.Report.Confusion
	query := `INSERT INTO evaluation_runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.DatasetPath, run.Summary.Source, run.Summary.LabelColumn, columnsJSON,
		run.Summary.Rows, run.Summary.Columns, run.Summary.MissingValues,
		run.Summary.Legitimate, run.Summary.Fraudulent,
		run.Params.Model, run.Params.Trees, run.Params.Features,
		run.Params.TestFraction, int64(run.Params.Seed), run.Params.Stratify, //nolint:gosec // stored bit for bit
		run.TrainRows, run.TestRows,
		cm.TrueNegatives(), cm.FalsePositives(), cm.FalseNegatives(), cm.TruePositives(),
		run.TrainDuration.Nanoseconds(), run.InferDuration.Nanoseconds(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: run %s already exists", common.ErrDuplicateEntry, run.ID)
		}
		return fmt.Errorf("failed to save run: %w", err)
	}

	slog.Info("saved evaluation run", "id", run.ID, "model", run.Params.Model)
	return nil
}

// GetRun retrieves a run by its full ID or a unique prefix of it.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*model.EvaluationRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `SELECT ` + runColumns + `
		FROM evaluation_runs
		WHERE substr(id, 1, length(?)) = ?
		ORDER BY id = ? DESC, started_at DESC
		LIMIT 2`

	rows, err := s.db.QueryContext(ctx, query, id, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}

	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return &runs[0], nil
	default:
		// An exact match sorts first and wins over longer IDs sharing the prefix.
		if runs[0].ID == id {
			return &runs[0], nil
		}
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRunID, id)
	}
}

// ListRuns returns runs newest first. A limit of 0 returns every run.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]model.EvaluationRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, ErrInvalidPageSize
	}

	query := `SELECT ` + runColumns + `
		FROM evaluation_runs
		ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRuns(rows)
}

// DeleteRun removes a run by its full ID.
func (s *SQLiteStorage) DeleteRun(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM evaluation_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	slog.Info("deleted evaluation run", "id", id)
	return nil
}

func scanRuns(rows *sql.Rows) ([]model.EvaluationRun, error) {
	var runs []model.EvaluationRun
	for rows.Next() {
		var (
			run         model.EvaluationRun
			columnsJSON sql.NullString
			seed        int64
			cm          model.ConfusionMatrix
			trainNS     int64
			inferNS     int64
		)

		err := rows.Scan(
			&run.ID, &run.StartedAt, &run.FinishedAt,
			&run.DatasetPath, &run.Summary.Source, &run.Summary.LabelColumn, &columnsJSON,
			&run.Summary.Rows, &run.Summary.Columns, &run.Summary.MissingValues,
			&run.Summary.Legitimate, &run.Summary.Fraudulent,
			&run.Params.Model, &run.Params.Trees, &run.Params.Features,
			&run.Params.TestFraction, &seed, &run.Params.Stratify,
			&run.TrainRows, &run.TestRows,
			&cm[model.LabelLegitimate][model.LabelLegitimate],
			&cm[model.LabelLegitimate][model.LabelFraudulent],
			&cm[model.LabelFraudulent][model.LabelLegitimate],
			&cm[model.LabelFraudulent][model.LabelFraudulent],
			&trainNS, &inferNS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if columnsJSON.Valid && columnsJSON.String != "" {
			if err := json.Unmarshal([]byte(columnsJSON.String), &run.Summary.ColumnNames); err != nil {
				return nil, fmt.Errorf("failed to unmarshal column names for run %s: %w", run.ID, err)
			}
		}

		report, err := metrics.FromConfusion(cm)
		if err != nil {
			return nil, fmt.Errorf("run %s has an unusable confusion matrix: %w", run.ID, err)
		}

		run.Params.Seed = uint64(seed) //nolint:gosec // stored bit for bit
		run.Report = *report
		run.TrainDuration = time.Duration(trainNS)
		run.InferDuration = time.Duration(inferNS)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}
