package engine_test

import (
	"lintang/campusnav/pkg/dataset"
	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/engine"
	"lintang/campusnav/pkg/engine/routingalgorithm"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// gridDataset 3x3 residential grid, ids 1-9 row by row, 100m edges both ways,
// plus one edge to a node that does not exist.
func gridDataset() *dataset.Dataset {
	lats := []float64{33.644, 33.643, 33.642}
	lons := []float64{72.991, 72.992, 72.993}
	ds := &dataset.Dataset{}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			ds.Nodes = append(ds.Nodes, datastructure.Node{ID: int64(r*3 + c + 1), Lat: lats[r], Lon: lons[c]})
		}
	}
	pairs := [][2]int64{{1, 2}, {2, 3}, {4, 5}, {5, 6}, {7, 8}, {8, 9}, {1, 4}, {4, 7}, {2, 5}, {5, 8}, {3, 6}, {6, 9}}
	for _, p := range pairs {
		ds.Edges = append(ds.Edges,
			dataset.EdgeRecord{U: dataset.NodeID(p[0]), V: dataset.NodeID(p[1]), Weight: 100, IsWalkable: true, IsDrivable: true, Highway: "residential"},
			dataset.EdgeRecord{U: dataset.NodeID(p[1]), V: dataset.NodeID(p[0]), Weight: 100, IsWalkable: true, IsDrivable: true, Highway: "residential"},
		)
	}
	ds.Edges = append(ds.Edges, dataset.EdgeRecord{U: 9, V: 404, Weight: 10, IsWalkable: true, Highway: "footway"})
	ds.POIs = []datastructure.PointOfInterest{
		{Name: "Main Gate", Lat: 33.644, Lon: 72.991, Category: "landmark"},
		{Name: "Main Gate", Lat: 33.644, Lon: 72.991, Category: "landmark"},
		{Name: "Cafe", Lat: 33.644, Lon: 72.991, Category: "cafe"},
		{Name: "Library", Lat: 33.644, Lon: 72.991, Category: "library"},
	}
	return ds
}

func loadedEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New(engine.DefaultOptions(), zap.NewNop())
	stats := e.Load(gridDataset())
	require.Equal(t, 9, stats.Nodes)
	return e
}

func TestEngineNotLoaded(t *testing.T) {
	e := engine.New(engine.DefaultOptions(), nil)
	assert.False(t, e.Loaded())

	_, err := e.Search(1, 2, datastructure.ModeCar, routingalgorithm.AlgorithmAStar)
	assert.ErrorIs(t, err, engine.ErrNotLoaded)
	_, err = e.KShortest(1, 2, 3, datastructure.ModeCar)
	assert.ErrorIs(t, err, engine.ErrNotLoaded)
	_, err = e.OptimizeOrder(1, []int64{2}, datastructure.ModeCar)
	assert.ErrorIs(t, err, engine.ErrNotLoaded)
	_, err = e.MultiStop([]int64{1, 2}, datastructure.ModeCar)
	assert.ErrorIs(t, err, engine.ErrNotLoaded)

	_, ok := e.NearestNode(33.644, 72.991, datastructure.ModeWalk)
	assert.False(t, ok)
	assert.Empty(t, e.NearbyPOIs(33.644, 72.991))
}

func TestEngineLoad(t *testing.T) {
	e := engine.New(engine.DefaultOptions(), zap.NewNop())
	stats := e.Load(gridDataset())
	assert.Equal(t, engine.LoadStats{Nodes: 9, Edges: 24, DroppedEdges: 1, POIs: 4}, stats)
	assert.True(t, e.Loaded())

	nodes, edges, pois := e.NetworkSize()
	assert.Equal(t, 9, nodes)
	assert.Equal(t, 24, edges)
	assert.Equal(t, 4, pois)

	t.Run("no pois", func(t *testing.T) {
		ds := gridDataset()
		ds.POIs = nil
		stats := e.Load(ds)
		assert.Equal(t, 0, stats.POIs)
		assert.Equal(t, 9, stats.Nodes)
	})
}

func TestEngineSearch(t *testing.T) {
	e := loadedEngine(t)

	t.Run("a star on the grid", func(t *testing.T) {
		res, err := e.Search(1, 9, datastructure.ModeCar, routingalgorithm.AlgorithmAStar)
		require.NoError(t, err)
		require.True(t, res.Found)
		assert.Len(t, res.Path, 5)
		assert.Equal(t, int64(1), res.Path[0])
		assert.Equal(t, int64(9), res.Path[4])
		assert.InDelta(t, 400/8.3, res.Cost, 1e-9)
		assert.InDelta(t, 400, e.PathLength(res.Path), 200)
	})

	t.Run("bfs counts hops", func(t *testing.T) {
		res, err := e.Search(1, 9, datastructure.ModeWalk, routingalgorithm.AlgorithmBFS)
		require.NoError(t, err)
		require.True(t, res.Found)
		assert.Equal(t, 4.0, res.Cost)
	})

	t.Run("rush hour slows residential roads", func(t *testing.T) {
		e.SetRushHour(true)
		defer e.SetRushHour(false)
		assert.True(t, e.RushHour())

		res, err := e.Search(1, 9, datastructure.ModeCar, routingalgorithm.AlgorithmAStar)
		require.NoError(t, err)
		assert.InDelta(t, 400/(8.3/1.1), res.Cost, 1e-9)
	})

	t.Run("unknown node and unknown algorithm", func(t *testing.T) {
		res, err := e.Search(1, 404, datastructure.ModeCar, routingalgorithm.AlgorithmAStar)
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.True(t, math.IsInf(res.Cost, 1))

		_, err = e.Search(1, 9, datastructure.ModeCar, "dijkstra")
		assert.ErrorIs(t, err, engine.ErrUnknownAlgorithm)
	})
}

func TestEngineKShortestRestoresWeights(t *testing.T) {
	e := loadedEngine(t)
	before := e.WeightSnapshot()

	routes, err := e.KShortest(1, 9, 3, datastructure.ModeCar)
	require.NoError(t, err)
	require.NotEmpty(t, routes)
	assert.InDelta(t, 400/8.3, routes[0].Cost, 1e-9)
	assert.Equal(t, before, e.WeightSnapshot())

	_, err = e.KShortest(1, 9, 0, datastructure.ModeCar)
	assert.ErrorIs(t, err, routingalgorithm.ErrInvalidK)
}

func TestEngineMultiStop(t *testing.T) {
	e := loadedEngine(t)

	tour, err := e.OptimizeOrder(1, nil, datastructure.ModeCar)
	require.NoError(t, err)
	assert.True(t, tour.Found)
	assert.Empty(t, tour.Order)
	assert.Equal(t, 0.0, tour.Cost)
	assert.Empty(t, tour.Segments)

	tour, err = e.OptimizeOrder(1, []int64{9, 2}, datastructure.ModeCar)
	require.NoError(t, err)
	require.True(t, tour.Found)
	assert.Equal(t, []int64{2, 9}, tour.Order)
	assert.InDelta(t, 400/8.3, tour.Cost, 1e-9)

	res, err := e.MultiStop([]int64{1, 5, 9}, datastructure.ModeCar)
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, int64(1), res.Path[0])
	assert.Equal(t, int64(9), res.Path[len(res.Path)-1])
	assert.Contains(t, res.Path, int64(5))
}

func TestEnginePOIs(t *testing.T) {
	e := loadedEngine(t)

	assert.Len(t, e.NearbyPOIs(33.644, 72.991), 4)

	id, ok := e.NearestNode(33.6441, 72.9911, datastructure.ModeWalk)
	require.True(t, ok)
	assert.Equal(t, int64(1), id)

	path := []int64{1, 2, 3, 6, 9}
	pois := e.POIsAlongRoute(path, []string{"Cafe"}, 0, 0)
	require.Len(t, pois, 2)
	assert.Equal(t, "Main Gate", pois[0].Name)
	assert.Equal(t, "Library", pois[1].Name)

	pois = e.POIsAlongRoute(path, nil, 2, 1)
	require.Len(t, pois, 1)
	assert.Equal(t, "Main Gate", pois[0].Name)

	assert.Empty(t, e.POIsAlongRoute(nil, nil, 0, 0))
}
