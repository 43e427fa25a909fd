package routingalgorithm

import (
	"time"

	"lintang/campusnav/pkg/datastructure"
)

// BFS fewest hops from -> to, ignoring edge cost. Forbidden and mode-invalid edges
// are skipped the same way as in AStar. Cost is the hop count.
func (rt *RouteAlgorithm) BFS(from, to int64, mode datastructure.TravelMode) RouteResult {
	start := time.Now()

	if _, ok := rt.g.Node(from); !ok {
		return notFound(AlgorithmBFS)
	}
	if _, ok := rt.g.Node(to); !ok {
		return notFound(AlgorithmBFS)
	}

	stats := SearchStats{Algorithm: AlgorithmBFS}

	// visited sekaligus predecessor map
	cameFrom := map[int64]int64{from: from}
	queue := []int64{from}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		stats.NodesExplored++

		if u == to {
			path := reconstructPath(cameFrom, from, u)
			stats.Duration = time.Since(start)
			return RouteResult{
				Path:  path,
				Cost:  float64(len(path) - 1),
				Found: true,
				Stats: stats,
			}
		}

		for _, e := range rt.g.Neighbors(u) {
			if !e.AllowedFor(mode) {
				continue
			}
			if _, seen := cameFrom[e.ToNodeID]; seen {
				continue
			}
			if _, ok := rt.g.Node(e.ToNodeID); !ok {
				continue
			}
			cameFrom[e.ToNodeID] = u
			queue = append(queue, e.ToNodeID)
		}
	}

	res := notFound(AlgorithmBFS)
	stats.Duration = time.Since(start)
	res.Stats = stats
	return res
}
