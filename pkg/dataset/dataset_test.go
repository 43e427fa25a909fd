package dataset_test

import (
	"lintang/campusnav/pkg/dataset"
	"lintang/campusnav/pkg/datastructure"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const nodesJSON = `{
  "10": {"lat": 33.644, "lon": 72.991, "elevation": 512.5},
  "2":  {"lat": 33.643, "lon": 72.992},
  "7":  {"lat": 33.642, "lon": 72.993, "elevation": 0}
}`

const edgesJSON = `[
  {"u": "2", "v": "10", "weight": 120.5, "is_walkable": true, "is_drivable": true, "highway": "service", "geometry": "LINESTRING (72.992 33.643, 72.991 33.644)"},
  {"u": 10, "v": 7, "weight": 80, "is_walkable": true, "is_drivable": false, "highway": "footway"},
  {"u": "7", "v": "99", "weight": 10, "is_walkable": true, "is_drivable": true, "highway": "residential"}
]`

const poisJSON = `[
  {"name": "Library", "lat": 33.6441, "lon": 72.9911, "type": "amenity"},
  {"name": "Cafe", "lat": 33.6431, "lon": 72.9921, "type": "shop"}
]`

func TestReaders(t *testing.T) {
	t.Run("nodes sorted by id with default elevation", func(t *testing.T) {
		nodes, err := dataset.ReadNodes(strings.NewReader(nodesJSON))
		require.NoError(t, err)
		require.Len(t, nodes, 3)
		assert.Equal(t, []int64{2, 7, 10}, []int64{nodes[0].ID, nodes[1].ID, nodes[2].ID})
		assert.Equal(t, 0.0, nodes[0].Elevation)
		assert.Equal(t, 512.5, nodes[2].Elevation)
	})

	t.Run("edge ids as strings or numbers", func(t *testing.T) {
		edges, err := dataset.ReadEdges(strings.NewReader(edgesJSON))
		require.NoError(t, err)
		require.Len(t, edges, 3)
		assert.Equal(t, dataset.NodeID(2), edges[0].U)
		assert.Equal(t, dataset.NodeID(10), edges[1].U)

		e := edges[1].Edge()
		assert.Equal(t, int64(7), e.ToNodeID)
		assert.True(t, e.Walkable)
		assert.False(t, e.Drivable)
		assert.Equal(t, "footway", e.RoadClass)
	})

	t.Run("bad node id", func(t *testing.T) {
		_, err := dataset.ReadNodes(strings.NewReader(`{"abc": {"lat": 1, "lon": 2}}`))
		assert.Error(t, err)
		_, err = dataset.ReadEdges(strings.NewReader(`[{"u": "x1", "v": "2"}]`))
		assert.Error(t, err)
	})

	t.Run("pois", func(t *testing.T) {
		pois, err := dataset.ReadPOIs(strings.NewReader(poisJSON))
		require.NoError(t, err)
		assert.Equal(t, datastructure.PointOfInterest{Name: "Library", Lat: 33.6441, Lon: 72.9911, Category: "amenity"}, pois[0])
	})
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestLoadDir(t *testing.T) {
	log := zap.NewNop()

	t.Run("all files", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"nodes.json": nodesJSON, "edges.json": edgesJSON, "pois.json": poisJSON})

		ds, err := dataset.LoadDir(dir, dataset.DefaultFiles(), log)
		require.NoError(t, err)
		assert.Len(t, ds.Nodes, 3)
		assert.Len(t, ds.Edges, 3)
		assert.Len(t, ds.POIs, 2)
	})

	t.Run("missing poi file is tolerated", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"nodes.json": nodesJSON, "edges.json": edgesJSON})

		ds, err := dataset.LoadDir(dir, dataset.DefaultFiles(), log)
		require.NoError(t, err)
		assert.Empty(t, ds.POIs)
		assert.Len(t, ds.Nodes, 3)
	})

	t.Run("broken poi file is tolerated", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"nodes.json": nodesJSON, "edges.json": edgesJSON, "pois.json": "{not json"})

		ds, err := dataset.LoadDir(dir, dataset.DefaultFiles(), log)
		require.NoError(t, err)
		assert.Empty(t, ds.POIs)
	})

	t.Run("missing nodes file fails", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"edges.json": edgesJSON})
		_, err := dataset.LoadDir(dir, dataset.DefaultFiles(), log)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("write then load", func(t *testing.T) {
		dir := t.TempDir()
		ds := &dataset.Dataset{
			Nodes: []datastructure.Node{{ID: 1, Lat: 33.644, Lon: 72.991, Elevation: 3}, {ID: 2, Lat: 33.645, Lon: 72.991}},
			Edges: []dataset.EdgeRecord{{U: 1, V: 2, Weight: 111, IsWalkable: true, IsDrivable: true, Highway: "service"}},
		}
		require.NoError(t, dataset.WriteDir(dir, dataset.DefaultFiles(), ds))

		got, err := dataset.LoadDir(dir, dataset.DefaultFiles(), log)
		require.NoError(t, err)
		assert.Equal(t, ds.Nodes, got.Nodes)
		assert.Equal(t, ds.Edges, got.Edges)
		assert.Empty(t, got.POIs)
	})
}
