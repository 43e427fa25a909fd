package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lintang/campusnav/pkg/config"
	"lintang/campusnav/pkg/datastructure"
)

func TestDefault(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Server.ListenAddr)
	assert.Equal(t, "nodes.json", cfg.Data.NodesFile)
	assert.Equal(t, []float64{1e-5, 1e-4, 1e-3, 1e-2}, cfg.Routing.SnapThresholds)
	assert.Equal(t, 3, cfg.Routing.DefaultK)
	assert.Equal(t, 4, cfg.Routing.ExhaustiveStopLimit)

	opts := cfg.EngineOptions()
	assert.Equal(t, datastructure.GridNeighborhood, opts.POIPolicy)
	assert.Equal(t, 0.005, opts.POICellSize)
}

func TestParse(t *testing.T) {
	t.Run("partial file keeps defaults", func(t *testing.T) {
		cfg, err := config.Parse([]byte(`
server:
  listen_addr: ":8080"
routing:
  poi_neighborhood: cell
  snap_thresholds: [0.0001, 0.01]
log:
  level: debug
  development: true
`))
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.ListenAddr)
		assert.Equal(t, "./data", cfg.Data.Dir)
		assert.Equal(t, "cell", cfg.Routing.POINeighborhood)
		assert.Equal(t, []float64{0.0001, 0.01}, cfg.EngineOptions().SnapThresholds)
		assert.Equal(t, 5, cfg.Routing.SnapCandidates)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.True(t, cfg.Log.Development)
	})

	t.Run("empty file", func(t *testing.T) {
		cfg, err := config.Parse(nil)
		require.NoError(t, err)
		assert.Equal(t, config.Default(), cfg)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := config.Parse([]byte("routing:\n  poi_neighborhood: 5x5\n"))
		assert.Error(t, err)
		_, err = config.Parse([]byte("routing:\n  default_k: -1\n"))
		assert.Error(t, err)
		_, err = config.Parse([]byte("routing:\n  snap_thresholds: [0.1, -1]\n"))
		assert.Error(t, err)
		_, err = config.Parse([]byte("unknown_section: 1\n"))
		assert.Error(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data:\n  use_snapshot: true\n  db_path: /tmp/db\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Data.UseSnapshot)
	assert.Equal(t, "/tmp/db", cfg.Data.DBPath)
	assert.Equal(t, "nodes.json", cfg.DatasetFiles().Nodes)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
