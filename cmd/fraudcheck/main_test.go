package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/fraudcheck/internal/common"
	"github.com/Veraticus/fraudcheck/internal/model"
	"github.com/Veraticus/fraudcheck/internal/storage"
	"github.com/Veraticus/fraudcheck/internal/testutil"
)

type testEnv struct {
	configPath string
	dbPath     string
	dataPath   string
}

// newTestEnv writes a config that points run history into a temp dir and a
// 20-row transaction table whose last 4 rows are fraudulent.
func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()

	env := testEnv{
		configPath: filepath.Join(dir, "config.yaml"),
		dbPath:     filepath.Join(dir, "runs", "fraudcheck.db"),
		dataPath:   testutil.NewTable(t).WithLegitimate(16).WithFraudulent(4).WriteCSV(),
	}

	cfg := fmt.Sprintf("database:\n  path: %s\nmodel:\n  kind: majority\nlogging:\n  level: error\n", env.dbPath)
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o600))
	return env
}

// run executes the CLI with a fresh root command and viper state.
func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config", e.configPath}, args...))

	err := root.Execute()
	return stdout.String(), err
}

func TestEvaluateCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "evaluate", env.dataPath, "--stratify", "--no-progress")
	require.NoError(t, err)

	assert.Contains(t, out, "The dataframe has 20 rows and 5 columns.")
	assert.Contains(t, out, "There are 0 missing values.")
	assert.Contains(t, out, "There are 16 non-fraudulent transactions and 4 fraudulent transactions.")
	assert.Contains(t, out, "Errors: 1 of 5")
	assert.Contains(t, out, "The accuracy is 0.800000")
	assert.Contains(t, out, "The precision is 0.000000 (undefined, reported as 0)")
	assert.Contains(t, out, "predicted fraudulent")
	assert.NotContains(t, out, "Saved run")

	_, statErr := os.Stat(env.dbPath)
	assert.True(t, os.IsNotExist(statErr), "runs are only stored with --save")
}

func TestEvaluateCommand_Report(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "evaluate", env.dataPath, "--report", "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "legitimate")
	assert.Contains(t, out, "fraudulent")
}

func TestEvaluateCommand_Archive(t *testing.T) {
	env := newTestEnv(t)
	archive := testutil.NewTable(t).WithLegitimate(16).WithFraudulent(4).WriteArchive("creditcard.csv")

	out, err := env.run(t, "evaluate", archive, "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "There are 16 non-fraudulent transactions and 4 fraudulent transactions.")

	_, err = env.run(t, "evaluate", archive, "--member", "other.csv", "--no-progress")
	require.ErrorIs(t, err, common.ErrArchiveMember)
}

func TestEvaluateCommand_Errors(t *testing.T) {
	env := newTestEnv(t)

	t.Run("invalid test fraction", func(t *testing.T) {
		_, err := env.run(t, "evaluate", env.dataPath, "--test-fraction", "1.5")
		require.ErrorIs(t, err, common.ErrInvalidConfig)
	})

	t.Run("unknown model", func(t *testing.T) {
		_, err := env.run(t, "evaluate", env.dataPath, "--model", "svm")
		require.ErrorIs(t, err, common.ErrInvalidConfig)
	})

	t.Run("missing values", func(t *testing.T) {
		holes := testutil.NewTable(t).WithLegitimate(3).WithFraudulent(1).WithMissing(0, 1).WriteCSV()

		out, err := env.run(t, "evaluate", holes)
		require.ErrorIs(t, err, common.ErrMissingData)
		assert.Contains(t, out, "There are 1 missing values.")
	})

	t.Run("too many arguments", func(t *testing.T) {
		_, err := env.run(t, "evaluate", "a.csv", "b.csv")
		require.Error(t, err)
	})
}

func TestRunsCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "evaluate", env.dataPath, "--save", "--seed", "3", "--no-progress")
	require.NoError(t, err)
	require.Contains(t, out, "Saved run ")

	store, err := storage.NewSQLiteStorage(env.dbPath)
	require.NoError(t, err)
	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.Len(t, runs, 1)
	id := runs[0].ID
	assert.Equal(t, uint64(3), runs[0].Params.Seed)

	t.Run("list", func(t *testing.T) {
		out, err := env.run(t, "runs", "list")
		require.NoError(t, err)
		assert.Contains(t, out, id[:8])
		assert.Contains(t, out, "majority")
	})

	t.Run("show text by prefix", func(t *testing.T) {
		out, err := env.run(t, "runs", "show", id[:8])
		require.NoError(t, err)
		assert.Contains(t, out, id)
		assert.Contains(t, out, "The dataframe has 20 rows and 5 columns.")
	})

	t.Run("show yaml", func(t *testing.T) {
		out, err := env.run(t, "runs", "show", id, "--output", "yaml")
		require.NoError(t, err)

		var got model.EvaluationRun
		require.NoError(t, yaml.Unmarshal([]byte(out), &got))
		assert.Equal(t, id, got.ID)
		assert.Equal(t, 4, got.TestRows)
		assert.Equal(t, runs[0].Report.Confusion, got.Report.Confusion)
	})

	t.Run("show json", func(t *testing.T) {
		out, err := env.run(t, "runs", "show", id, "-o", "json")
		require.NoError(t, err)

		var got model.EvaluationRun
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, id, got.ID)
		assert.Equal(t, model.ModelMajority, got.Params.Model)
	})

	t.Run("show unknown format", func(t *testing.T) {
		_, err := env.run(t, "runs", "show", id, "-o", "xml")
		require.Error(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		out, err := env.run(t, "runs", "delete", id[:8])
		require.NoError(t, err)
		assert.Contains(t, out, "Deleted run "+id)

		_, err = env.run(t, "runs", "show", id)
		require.ErrorIs(t, err, storage.ErrRunNotFound)
	})
}

func TestInspectCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "inspect", env.dataPath, "--describe")
	require.NoError(t, err)
	assert.Contains(t, out, "The dataframe has 20 rows and 5 columns.")
	assert.Contains(t, out, "Amount")
	assert.Contains(t, out, "mean")
	assert.NotContains(t, out, "refuses")
}

func TestMigrateCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 0")
	assert.Contains(t, out, "Migrations pending")

	_, err = env.run(t, "migrate")
	require.NoError(t, err)

	out, err = env.run(t, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("Current version: %d", storage.ExpectedSchemaVersion))
	assert.NotContains(t, out, "Migrations pending")
}

func TestVersionCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "fraudcheck dev\n", out)
}
