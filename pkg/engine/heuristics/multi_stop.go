package heuristics

import (
	"math"
	"time"

	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/engine/cost"
	"lintang/campusnav/pkg/engine/routingalgorithm"
	"lintang/campusnav/pkg/util"
)

const (
	DefaultExhaustiveStopLimit = 4

	AlgorithmBruteForce      = "brute_force"
	AlgorithmNearestNeighbor = "nearest_neighbor"
	AlgorithmMultiStop       = "multi_stop"
)

type Router interface {
	AStar(from, to int64, mode datastructure.TravelMode, traffic cost.TrafficCondition) routingalgorithm.RouteResult
	ShortestPathManyToMany(legs []datastructure.Leg, mode datastructure.TravelMode,
		traffic cost.TrafficCondition, numWorkers int) map[datastructure.Leg]routingalgorithm.RouteResult
}

type TourStats struct {
	Algorithm      string
	Stops          int
	NodesExplored  int
	HeapOperations int
	Permutations   int
	AStarCalls     int
	Duration       time.Duration
}

// TourResult chosen visiting order (stops only, start excluded), the summed A* time of
// all legs, and the path of every consecutive leg keyed by (from, to).
type TourResult struct {
	Order    []int64
	Cost     float64
	Found    bool
	Segments map[datastructure.Leg][]int64
	Stats    TourStats
}

type MultiStopOptimizer struct {
	router          Router
	exhaustiveLimit int
	numWorkers      int
}

func NewMultiStopOptimizer(router Router, exhaustiveLimit, numWorkers int) *MultiStopOptimizer {
	if exhaustiveLimit <= 0 {
		exhaustiveLimit = DefaultExhaustiveStopLimit
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &MultiStopOptimizer{
		router:          router,
		exhaustiveLimit: exhaustiveLimit,
		numWorkers:      numWorkers,
	}
}

func failedTour(stats TourStats) TourResult {
	return TourResult{
		Order:    []int64{},
		Cost:     math.Inf(1),
		Found:    false,
		Segments: map[datastructure.Leg][]int64{},
		Stats:    stats,
	}
}

// OptimizeRouteOrder picks the order to visit stops from start, without returning to start.
// Up to the exhaustive limit every permutation is evaluated, above it a greedy nearest
// neighbour tour is built. No stops is a trivial success with zero cost.
func (o *MultiStopOptimizer) OptimizeRouteOrder(start int64, stops []int64, mode datastructure.TravelMode,
	traffic cost.TrafficCondition) TourResult {
	if len(stops) == 0 {
		return TourResult{
			Order:    []int64{},
			Cost:     0,
			Found:    true,
			Segments: map[datastructure.Leg][]int64{},
			Stats:    TourStats{Algorithm: AlgorithmBruteForce},
		}
	}
	if len(stops) > o.exhaustiveLimit {
		return o.nearestNeighbor(start, stops, mode, traffic)
	}
	return o.bruteForce(start, stops, mode, traffic)
}

// bruteForce evaluates permutations of stop positions in lexicographic order. Leg paths
// are computed once up front on the worker pool. A permutation with a missing leg is
// skipped, ties keep the earlier permutation.
func (o *MultiStopOptimizer) bruteForce(start int64, stops []int64, mode datastructure.TravelMode,
	traffic cost.TrafficCondition) TourResult {
	begin := time.Now()
	stats := TourStats{Algorithm: AlgorithmBruteForce, Stops: len(stops)}

	legs := make([]datastructure.Leg, 0, len(stops)*len(stops))
	for _, s := range stops {
		legs = append(legs, datastructure.Leg{From: start, To: s})
		for _, t := range stops {
			if s != t {
				legs = append(legs, datastructure.Leg{From: s, To: t})
			}
		}
	}
	paths := o.router.ShortestPathManyToMany(legs, mode, traffic, o.numWorkers)
	stats.AStarCalls = len(paths)
	for _, res := range paths {
		stats.NodesExplored += res.Stats.NodesExplored
		stats.HeapOperations += res.Stats.HeapOperations
	}

	legResult := func(from, to int64) routingalgorithm.RouteResult {
		if from == to {
			return routingalgorithm.RouteResult{Path: []int64{from}, Cost: 0, Found: true}
		}
		return paths[datastructure.Leg{From: from, To: to}]
	}

	perm := make([]int, len(stops))
	for i := range perm {
		perm[i] = i
	}

	bestCost := math.Inf(1)
	var bestPerm []int
	for {
		stats.Permutations++

		total := 0.0
		valid := true
		current := start
		for _, idx := range perm {
			res := legResult(current, stops[idx])
			if !res.Found {
				valid = false
				break
			}
			total += res.Cost
			current = stops[idx]
		}
		if valid && total < bestCost {
			bestCost = total
			bestPerm = append(bestPerm[:0], perm...)
		}

		if !util.NextPermutation(perm) {
			break
		}
	}

	stats.Duration = time.Since(begin)
	if bestPerm == nil {
		return failedTour(stats)
	}

	order := make([]int64, len(bestPerm))
	segments := make(map[datastructure.Leg][]int64, len(bestPerm))
	current := start
	for i, idx := range bestPerm {
		order[i] = stops[idx]
		segments[datastructure.Leg{From: current, To: stops[idx]}] = legResult(current, stops[idx]).Path
		current = stops[idx]
	}

	return TourResult{
		Order:    order,
		Cost:     bestCost,
		Found:    true,
		Segments: segments,
		Stats:    stats,
	}
}

// nearestNeighbor greedy: dari posisi sekarang selalu ke stop belum dikunjungi yang waktu A*-nya paling kecil.
// gagal kalau di satu langkah tidak ada stop yang reachable.
func (o *MultiStopOptimizer) nearestNeighbor(start int64, stops []int64, mode datastructure.TravelMode,
	traffic cost.TrafficCondition) TourResult {
	begin := time.Now()
	stats := TourStats{Algorithm: AlgorithmNearestNeighbor, Stops: len(stops)}

	unvisited := make([]int64, len(stops))
	copy(unvisited, stops)

	order := make([]int64, 0, len(stops))
	segments := make(map[datastructure.Leg][]int64, len(stops))
	current := start
	total := 0.0

	for len(unvisited) > 0 {
		bestIdx := -1
		var best routingalgorithm.RouteResult
		for i, candidate := range unvisited {
			res := o.router.AStar(current, candidate, mode, traffic)
			stats.AStarCalls++
			stats.NodesExplored += res.Stats.NodesExplored
			stats.HeapOperations += res.Stats.HeapOperations

			if res.Found && (bestIdx == -1 || res.Cost < best.Cost) {
				bestIdx = i
				best = res
			}
		}

		if bestIdx == -1 {
			stats.Duration = time.Since(begin)
			return failedTour(stats)
		}

		next := unvisited[bestIdx]
		order = append(order, next)
		segments[datastructure.Leg{From: current, To: next}] = best.Path
		total += best.Cost
		current = next
		unvisited = append(unvisited[:bestIdx], unvisited[bestIdx+1:]...)
	}

	stats.Duration = time.Since(begin)
	return TourResult{
		Order:    order,
		Cost:     total,
		Found:    true,
		Segments: segments,
		Stats:    stats,
	}
}

// MultiStopRoute stitches A* legs through stops in the given order. The shared node
// between two legs appears once. Any unreachable leg fails the whole route.
func (o *MultiStopOptimizer) MultiStopRoute(stops []int64, mode datastructure.TravelMode,
	traffic cost.TrafficCondition) routingalgorithm.RouteResult {
	begin := time.Now()
	stats := routingalgorithm.SearchStats{Algorithm: AlgorithmMultiStop}

	if len(stops) == 0 {
		return routingalgorithm.RouteResult{Path: nil, Cost: math.Inf(1), Found: false, Stats: stats}
	}
	if len(stops) == 1 {
		res := o.router.AStar(stops[0], stops[0], mode, traffic)
		res.Stats.Algorithm = AlgorithmMultiStop
		return res
	}

	fullPath := []int64{stops[0]}
	total := 0.0
	for i := 0; i+1 < len(stops); i++ {
		res := o.router.AStar(stops[i], stops[i+1], mode, traffic)
		stats.NodesExplored += res.Stats.NodesExplored
		stats.HeapOperations += res.Stats.HeapOperations
		if !res.Found {
			stats.Duration = time.Since(begin)
			return routingalgorithm.RouteResult{Path: nil, Cost: math.Inf(1), Found: false, Stats: stats}
		}
		fullPath = append(fullPath, res.Path[1:]...)
		total += res.Cost
	}

	stats.Duration = time.Since(begin)
	return routingalgorithm.RouteResult{Path: fullPath, Cost: total, Found: true, Stats: stats}
}

// Stitch joins the segments of a tour into one path starting at start.
func (r TourResult) Stitch(start int64) []int64 {
	path := []int64{start}
	current := start
	for _, next := range r.Order {
		seg := r.Segments[datastructure.Leg{From: current, To: next}]
		if len(seg) > 1 {
			path = append(path, seg[1:]...)
		}
		current = next
	}
	return path
}
