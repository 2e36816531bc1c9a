package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parcelsurf/pkg/errors"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "parcelsurf.yaml")

	cfg := DefaultConfig()
	cfg.Growth.Regions = 12
	cfg.Inflation.Normals = "unit"
	cfg.Evaluation.OffDiagonalCraddock = true
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("growth:\n  regions: 7\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Growth.Regions)
	assert.Equal(t, 100, cfg.Inflation.Iterations)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("inflation:\n  stepSmooth: 2\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))

	require.NoError(t, os.WriteFile(path, []byte("growth: [1, 2\n"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "stepNormal: 0.1")
}

func TestProcessingNumCores(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, runtime.NumCPU(), cfg.Processing.NumCores)

	path := filepath.Join(t.TempDir(), "cores.yaml")
	require.NoError(t, os.WriteFile(path, []byte("processing:\n  numCores: 2\n"), 0644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Processing.NumCores)

	require.NoError(t, os.WriteFile(path, []byte("processing:\n  numCores: 0\n"), 0644))
	_, err = LoadConfig(path)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}
