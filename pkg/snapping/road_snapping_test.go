package snapping_test

import (
	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/snapping"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addRoad(g *datastructure.RoadNetwork, u, v int64, class string, walkable, drivable bool) {
	g.AddEdge(u, datastructure.Edge{ToNodeID: v, Weight: 50, Walkable: walkable, Drivable: drivable, RoadClass: class})
	g.AddEdge(v, datastructure.Edge{ToNodeID: u, Weight: 50, Walkable: walkable, Drivable: drivable, RoadClass: class})
}

func TestSnapPrefersLocalRoads(t *testing.T) {
	g := datastructure.NewRoadNetwork()
	// highway node 1 and service node 2 on both sides of the query point
	g.AddNode(datastructure.Node{ID: 1, Lat: 33.6440, Lon: 72.9910})
	g.AddNode(datastructure.Node{ID: 2, Lat: 33.6440, Lon: 72.9912})
	g.AddNode(datastructure.Node{ID: 3, Lat: 33.6450, Lon: 72.9910})
	g.AddNode(datastructure.Node{ID: 4, Lat: 33.6430, Lon: 72.9912})
	addRoad(g, 1, 3, "motorway", false, true)
	addRoad(g, 2, 4, "service", true, true)

	s := snapping.NewSnapper(g, nil, 0)

	res, ok := s.Snap(33.6440, 72.9911, datastructure.ModeCar)
	require.True(t, ok)
	assert.Equal(t, int64(2), res.NodeID)
	assert.True(t, res.LocalRoad)
	assert.InDelta(t, 9.3, res.OffsetMeters, 0.5)

	// much closer to the highway node, still inside the candidate window
	id, ok := s.NearestNode(33.6440, 72.99101, datastructure.ModeCar)
	require.True(t, ok)
	assert.Equal(t, int64(2), id)
}

func TestSnapFallsBackToClosest(t *testing.T) {
	g := datastructure.NewRoadNetwork()
	g.AddNode(datastructure.Node{ID: 1, Lat: 33.6440, Lon: 72.9910})
	g.AddNode(datastructure.Node{ID: 2, Lat: 33.6445, Lon: 72.9910})
	addRoad(g, 1, 2, "primary", true, true)

	s := snapping.NewSnapper(g, nil, 0)
	res, ok := s.Snap(33.6441, 72.9910, datastructure.ModeWalk)
	require.True(t, ok)
	assert.Equal(t, int64(1), res.NodeID)
	assert.False(t, res.LocalRoad)
}

func TestSnapCandidateWindow(t *testing.T) {
	g := datastructure.NewRoadNetwork()
	// five motorway nodes north of the query point, closest first
	for i := int64(1); i <= 5; i++ {
		g.AddNode(datastructure.Node{ID: i, Lat: 33.6440 + 0.0001*float64(i), Lon: 72.9910})
	}
	for i := int64(1); i < 5; i++ {
		addRoad(g, i, i+1, "motorway", false, true)
	}
	// service road further away than all of them
	g.AddNode(datastructure.Node{ID: 6, Lat: 33.6448, Lon: 72.9910})
	g.AddNode(datastructure.Node{ID: 7, Lat: 33.6470, Lon: 72.9910})
	addRoad(g, 6, 7, "service", true, true)

	s := snapping.NewSnapper(g, nil, 0)
	id, ok := s.NearestNode(33.6440, 72.9910, datastructure.ModeCar)
	require.True(t, ok)
	assert.Equal(t, int64(1), id)

	// a wider window lets the service node in
	wide := snapping.NewSnapper(g, nil, 6)
	id, ok = wide.NearestNode(33.6440, 72.9910, datastructure.ModeCar)
	require.True(t, ok)
	assert.Equal(t, int64(6), id)
}

func TestSnapModePool(t *testing.T) {
	g := datastructure.NewRoadNetwork()
	g.AddNode(datastructure.Node{ID: 1, Lat: 33.6440, Lon: 72.9910})
	g.AddNode(datastructure.Node{ID: 2, Lat: 33.6441, Lon: 72.9910})
	g.AddNode(datastructure.Node{ID: 3, Lat: 33.6520, Lon: 72.9990})
	g.AddNode(datastructure.Node{ID: 4, Lat: 33.6521, Lon: 72.9990})
	addRoad(g, 1, 2, "footway", true, false)
	addRoad(g, 3, 4, "residential", true, true)

	s := snapping.NewSnapper(g, nil, 0)

	walk, ok := s.NearestNode(33.6440, 72.9910, datastructure.ModeWalk)
	require.True(t, ok)
	assert.Equal(t, int64(1), walk)

	car, ok := s.NearestNode(33.6440, 72.9910, datastructure.ModeCar)
	require.True(t, ok)
	assert.Equal(t, int64(3), car)
}

func TestSnapEmptyModePoolUsesAllNodes(t *testing.T) {
	g := datastructure.NewRoadNetwork()
	g.AddNode(datastructure.Node{ID: 1, Lat: 33.6440, Lon: 72.9910})
	g.AddNode(datastructure.Node{ID: 2, Lat: 33.6441, Lon: 72.9910})
	addRoad(g, 1, 2, "footway", true, false)

	s := snapping.NewSnapper(g, nil, 0)
	id, ok := s.NearestNode(33.6441, 72.9910, datastructure.ModeCar)
	require.True(t, ok)
	assert.Equal(t, int64(2), id)
}

func TestSnapWidening(t *testing.T) {
	g := datastructure.NewRoadNetwork()
	g.AddNode(datastructure.Node{ID: 1, Lat: 33.6440, Lon: 72.9910})
	g.AddNode(datastructure.Node{ID: 2, Lat: 33.6441, Lon: 72.9910})
	addRoad(g, 1, 2, "service", true, true)

	s := snapping.NewSnapper(g, nil, 0)

	t.Run("found at a wider threshold", func(t *testing.T) {
		// ~0.05 degrees away, only the last threshold covers it
		id, ok := s.NearestNode(33.6940, 72.9910, datastructure.ModeWalk)
		require.True(t, ok)
		assert.Equal(t, int64(2), id)
	})

	t.Run("too far away", func(t *testing.T) {
		_, ok := s.NearestNode(34.6440, 72.9910, datastructure.ModeWalk)
		assert.False(t, ok)
	})

	t.Run("custom thresholds", func(t *testing.T) {
		tight := snapping.NewSnapper(g, []float64{1e-6}, 5)
		_, ok := tight.NearestNode(33.6940, 72.9910, datastructure.ModeWalk)
		assert.False(t, ok)
	})

	t.Run("empty network", func(t *testing.T) {
		empty := snapping.NewSnapper(datastructure.NewRoadNetwork(), nil, 0)
		_, ok := empty.NearestNode(33.6440, 72.9910, datastructure.ModeCar)
		assert.False(t, ok)
	})
}
