package routingalgorithm

import (
	"math"
	"time"

	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/engine/cost"
)

// AStar shortest travel time from -> to. Unknown ids return not found without searching.
//
// The heap has no decrease-key: an improved node is pushed again and the older entry
// stays in the heap. A popped entry whose rank is above g(u)+h(u) is stale and skipped.
// Optimality depends on this check together with an admissible heuristic.
func (rt *RouteAlgorithm) AStar(from, to int64, mode datastructure.TravelMode,
	traffic cost.TrafficCondition) RouteResult {
	start := time.Now()

	fromNode, ok := rt.g.Node(from)
	if !ok {
		return notFound(AlgorithmAStar)
	}
	toNode, ok := rt.g.Node(to)
	if !ok {
		return notFound(AlgorithmAStar)
	}

	stats := SearchStats{Algorithm: AlgorithmAStar}

	heap := datastructure.NewMinHeap[int64]()
	gScore := map[int64]float64{from: 0}
	hScore := map[int64]float64{from: rt.cost.Heuristic(fromNode, toNode, mode)}
	cameFrom := make(map[int64]int64)

	heap.Insert(datastructure.PriorityQueueNode[int64]{Rank: hScore[from], Item: from})
	stats.HeapOperations++

	for !heap.IsEmpty() {
		current, _ := heap.ExtractMin()
		stats.HeapOperations++

		u := current.Item
		if current.Rank > gScore[u]+hScore[u] {
			// stale entry
			continue
		}
		stats.NodesExplored++

		if u == to {
			stats.Duration = time.Since(start)
			return RouteResult{
				Path:  reconstructPath(cameFrom, from, u),
				Cost:  gScore[u],
				Found: true,
				Stats: stats,
			}
		}

		uNode, _ := rt.g.Node(u)
		for _, e := range rt.g.Neighbors(u) {
			if !e.AllowedFor(mode) {
				continue
			}
			vNode, ok := rt.g.Node(e.ToNodeID)
			if !ok {
				continue
			}
			edgeCost := rt.cost.EdgeCost(uNode, vNode, e, mode, traffic)
			if math.IsInf(edgeCost, 1) || math.IsNaN(edgeCost) {
				continue
			}

			v := e.ToNodeID
			tentative := gScore[u] + edgeCost
			if old, seen := gScore[v]; seen && tentative >= old {
				continue
			}
			gScore[v] = tentative
			cameFrom[v] = u
			if _, ok := hScore[v]; !ok {
				hScore[v] = rt.cost.Heuristic(vNode, toNode, mode)
			}
			heap.Insert(datastructure.PriorityQueueNode[int64]{Rank: tentative + hScore[v], Item: v})
			stats.HeapOperations++
		}
	}

	res := notFound(AlgorithmAStar)
	stats.Duration = time.Since(start)
	res.Stats = stats
	return res
}
