package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 12, cfg.Analysis.Horizon)
	assert.Equal(t, 0.95, cfg.Analysis.Confidence)
	assert.Equal(t, []int{5, 10, 15, 20, 30}, cfg.Analysis.LjungBoxLags)
	assert.Equal(t, 2*time.Minute, cfg.Analysis.Search.Timeout)

	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default().Analysis.Horizon, cfg.Analysis.Horizon)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
analysis:
  cutoff: "2020-03-01"
  horizon: 6
  confidence: 0.9
data:
  input_path: incidents.csv
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "2020-03-01", cfg.Analysis.Cutoff)
		assert.Equal(t, 6, cfg.Analysis.Horizon)
		assert.Equal(t, 0.9, cfg.Analysis.Confidence)
		assert.Equal(t, "incidents.csv", cfg.Data.InputPath)
		// untouched sections keep their defaults
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("SHOCKCAST_ANALYSIS_HORIZON", "24")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 24, cfg.Analysis.Horizon)
	})

	t.Run("invalid cutoff rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("analysis:\n  cutoff: \"01/2020\"\n"), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("confidence outside open interval rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("analysis:\n  confidence: 1.0\n"), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestCutoffDate(t *testing.T) {
	cfg := Default()
	cutoff, err := cfg.Analysis.CutoffDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), cutoff)
}
