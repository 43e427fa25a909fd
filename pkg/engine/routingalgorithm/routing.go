package routingalgorithm

import (
	"errors"
	"math"
	"time"

	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/engine/cost"
)

var ErrInvalidK = errors.New("k must be greater than zero")

const (
	AlgorithmAStar = "a_star"
	AlgorithmBFS   = "bfs"
)

type RoadGraph interface {
	Node(id int64) (datastructure.Node, bool)
	Neighbors(id int64) []datastructure.Edge
	BeginWeightTxn() *datastructure.WeightTxn
}

type SearchStats struct {
	Algorithm      string
	NodesExplored  int
	HeapOperations int
	Duration       time.Duration
}

// RouteResult path from start to goal inclusive. Cost is seconds for A*, hops for BFS,
// +Inf when Found is false.
type RouteResult struct {
	Path  []int64
	Cost  float64
	Found bool
	Stats SearchStats
}

func notFound(algorithm string) RouteResult {
	return RouteResult{
		Path:  nil,
		Cost:  math.Inf(1),
		Found: false,
		Stats: SearchStats{Algorithm: algorithm},
	}
}

type RouteAlgorithm struct {
	g    RoadGraph
	cost *cost.CostFunction
}

func NewRouteAlgorithm(g RoadGraph, cf *cost.CostFunction) *RouteAlgorithm {
	return &RouteAlgorithm{g: g, cost: cf}
}

// PathCost re-evaluates the travel time of path on the current weights. For parallel
// edges the cheapest mode-valid one is used. ok is false when a hop has no usable edge.
func (rt *RouteAlgorithm) PathCost(path []int64, mode datastructure.TravelMode,
	traffic cost.TrafficCondition) (float64, bool) {
	total := 0.0
	for i := 0; i+1 < len(path); i++ {
		from, ok := rt.g.Node(path[i])
		if !ok {
			return math.Inf(1), false
		}
		to, ok := rt.g.Node(path[i+1])
		if !ok {
			return math.Inf(1), false
		}

		best := math.Inf(1)
		for _, e := range rt.g.Neighbors(path[i]) {
			if e.ToNodeID != path[i+1] || !e.AllowedFor(mode) {
				continue
			}
			if c := rt.cost.EdgeCost(from, to, e, mode, traffic); c < best {
				best = c
			}
		}
		if math.IsInf(best, 1) {
			return math.Inf(1), false
		}
		total += best
	}
	return total, true
}

func reconstructPath(cameFrom map[int64]int64, start, current int64) []int64 {
	path := []int64{current}
	for current != start {
		current = cameFrom[current]
		path = append(path, current)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
