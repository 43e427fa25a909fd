package routingalgorithm_test

import (
	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/engine/cost"
	"lintang/campusnav/pkg/engine/routingalgorithm"
	"lintang/campusnav/pkg/geo"
	"testing"

	"github.com/stretchr/testify/require"
)

type testEdge struct {
	u, v     int64
	weight   float64
	class    string
	walkable bool
	drivable bool
	bothWays bool
}

func buildNetwork(t *testing.T, nodes []datastructure.Node, edges []testEdge) *datastructure.RoadNetwork {
	t.Helper()
	g := datastructure.NewRoadNetwork()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, e := range edges {
		require.True(t, g.AddEdge(e.u, datastructure.Edge{ToNodeID: e.v, Weight: e.weight,
			Walkable: e.walkable, Drivable: e.drivable, RoadClass: e.class}))
		if e.bothWays {
			require.True(t, g.AddEdge(e.v, datastructure.Edge{ToNodeID: e.u, Weight: e.weight,
				Walkable: e.walkable, Drivable: e.drivable, RoadClass: e.class}))
		}
	}
	return g
}

func road(u, v int64, w float64) testEdge {
	return testEdge{u: u, v: v, weight: w, class: "service", walkable: true, drivable: true, bothWays: true}
}

// gridNetwork 3x3 grid, ids 1-9 row by row, every edge 100m service road in both directions.
//
//	1 - 2 - 3
//	|   |   |
//	4 - 5 - 6
//	|   |   |
//	7 - 8 - 9
func gridNetwork(t *testing.T) *datastructure.RoadNetwork {
	lats := []float64{33.644, 33.643, 33.642}
	lons := []float64{72.991, 72.992, 72.993}
	nodes := []datastructure.Node{}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			nodes = append(nodes, datastructure.Node{ID: int64(r*3 + c + 1), Lat: lats[r], Lon: lons[c]})
		}
	}
	edges := []testEdge{
		road(1, 2, 100), road(2, 3, 100), road(4, 5, 100), road(5, 6, 100), road(7, 8, 100), road(8, 9, 100),
		road(1, 4, 100), road(4, 7, 100), road(2, 5, 100), road(5, 8, 100), road(3, 6, 100), road(6, 9, 100),
	}
	return buildNetwork(t, nodes, edges)
}

func newRouter(g *datastructure.RoadNetwork) (*routingalgorithm.RouteAlgorithm, *cost.CostFunction) {
	cf := cost.NewCostFunction(geo.DefaultProjection())
	return routingalgorithm.NewRouteAlgorithm(g, cf), cf
}

// assertConnected every consecutive pair of path is joined by a mode-valid edge.
func assertConnected(t *testing.T, g *datastructure.RoadNetwork, path []int64, mode datastructure.TravelMode) {
	t.Helper()
	for i := 0; i+1 < len(path); i++ {
		ok := false
		for _, e := range g.Neighbors(path[i]) {
			if e.ToNodeID == path[i+1] && e.AllowedFor(mode) {
				ok = true
				break
			}
		}
		require.True(t, ok, "no %s edge %d -> %d", mode, path[i], path[i+1])
	}
	seen := map[int64]bool{}
	for _, id := range path {
		require.False(t, seen[id], "path revisits %d", id)
		seen[id] = true
	}
}
