package engine

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"lintang/campusnav/pkg/dataset"
	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/engine/cost"
	"lintang/campusnav/pkg/engine/heuristics"
	"lintang/campusnav/pkg/engine/routingalgorithm"
	"lintang/campusnav/pkg/geo"
	"lintang/campusnav/pkg/snapping"
)

var (
	ErrNotLoaded        = errors.New("engine: road network not loaded")
	ErrUnknownAlgorithm = errors.New("engine: unknown search algorithm")
)

const (
	DefaultPOISampleEvery = 10
	DefaultPOILimit       = 5
)

type Options struct {
	// ReferenceLatitude 0 pakai 93000 m/deg lon.
	ReferenceLatitude   float64
	POICellSize         float64
	POIPolicy           datastructure.GridPolicy
	SnapThresholds      []float64
	SnapCandidates      int
	ExhaustiveStopLimit int
	Workers             int
}

func DefaultOptions() Options {
	return Options{
		POICellSize:         datastructure.DefaultPOICellSize,
		POIPolicy:           datastructure.GridNeighborhood,
		SnapThresholds:      snapping.DefaultThresholds,
		SnapCandidates:      snapping.DefaultMaxCandidates,
		ExhaustiveStopLimit: heuristics.DefaultExhaustiveStopLimit,
		Workers:             runtime.NumCPU(),
	}
}

type LoadStats struct {
	Nodes        int
	Edges        int
	DroppedEdges int
	POIs         int
}

// Engine is the routing facade. Searches share the network under a read lock; the
// k-shortest diversifier mutates edge weights and therefore runs exclusively.
type Engine struct {
	mu   sync.RWMutex
	opts Options
	log  *zap.Logger

	g         *datastructure.RoadNetwork
	pois      *datastructure.SpatialGrid
	cost      *cost.CostFunction
	router    *routingalgorithm.RouteAlgorithm
	snapper   *snapping.Snapper
	optimizer *heuristics.MultiStopOptimizer

	rushHour atomic.Bool
}

func New(opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Engine{
		opts: opts,
		log:  log,
		cost: cost.NewCostFunction(geo.NewProjectionAt(opts.ReferenceLatitude)),
	}
}

// Load builds a fresh network and POI index from ds and swaps it in. Edges that reference
// unknown nodes or carry an invalid weight are dropped. POIs may be empty.
func (e *Engine) Load(ds *dataset.Dataset) LoadStats {
	g := datastructure.NewRoadNetwork()
	for _, n := range ds.Nodes {
		g.AddNode(n)
	}

	stats := LoadStats{}
	for _, rec := range ds.Edges {
		if !g.AddEdge(int64(rec.U), rec.Edge()) {
			stats.DroppedEdges++
		}
	}

	grid := datastructure.NewSpatialGrid(e.opts.POICellSize, e.opts.POIPolicy)
	for _, p := range ds.POIs {
		grid.Insert(p)
	}

	router := routingalgorithm.NewRouteAlgorithm(g, e.cost)
	snapper := snapping.NewSnapper(g, e.opts.SnapThresholds, e.opts.SnapCandidates)
	optimizer := heuristics.NewMultiStopOptimizer(router, e.opts.ExhaustiveStopLimit, e.opts.Workers)

	e.mu.Lock()
	e.g = g
	e.pois = grid
	e.router = router
	e.snapper = snapper
	e.optimizer = optimizer
	e.mu.Unlock()

	stats.Nodes = g.NumNodes()
	stats.Edges = g.NumEdges()
	stats.POIs = grid.Len()
	e.log.Info("road network loaded",
		zap.Int("nodes", stats.Nodes),
		zap.Int("edges", stats.Edges),
		zap.Int("dropped_edges", stats.DroppedEdges),
		zap.Int("pois", stats.POIs),
		zap.String("poi_policy", string(grid.Policy())))
	return stats
}

func (e *Engine) Loaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.g != nil
}

func (e *Engine) SetRushHour(active bool) {
	e.rushHour.Store(active)
	e.log.Info("traffic condition changed", zap.Bool("rush_hour", active))
}

func (e *Engine) RushHour() bool {
	return e.rushHour.Load()
}

// Traffic kondisi lalu lintas untuk search berikutnya.
func (e *Engine) Traffic() cost.TrafficCondition {
	if e.rushHour.Load() {
		return cost.RushHourTraffic
	}
	return cost.NormalTraffic
}

func (e *Engine) Projection() geo.Projection {
	return e.cost.Projection()
}

func (e *Engine) Node(id int64) (datastructure.Node, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.g == nil {
		return datastructure.Node{}, false
	}
	return e.g.Node(id)
}

// PathNodes resolves path ids to nodes, skipping ids that are not in the network.
func (e *Engine) PathNodes(path []int64) []datastructure.Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	nodes := make([]datastructure.Node, 0, len(path))
	if e.g == nil {
		return nodes
	}
	for _, id := range path {
		if n, ok := e.g.Node(id); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func (e *Engine) NearestNode(lat, lon float64, mode datastructure.TravelMode) (int64, bool) {
	res, ok := e.Snap(lat, lon, mode)
	return res.NodeID, ok
}

func (e *Engine) Snap(lat, lon float64, mode datastructure.TravelMode) (snapping.SnapResult, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.snapper == nil {
		return snapping.SnapResult{}, false
	}
	res, ok := e.snapper.Snap(lat, lon, mode)
	e.log.Debug("snap",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.String("mode", string(mode)),
		zap.Bool("found", ok),
		zap.Int64("node", res.NodeID))
	return res, ok
}

// Search runs a_star or bfs between two node ids. An unreachable goal is a normal result
// (Found false, Cost +Inf), errors are reserved for misuse.
func (e *Engine) Search(start, end int64, mode datastructure.TravelMode, algorithm string) (routingalgorithm.RouteResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.router == nil {
		return routingalgorithm.RouteResult{Cost: math.Inf(1)}, ErrNotLoaded
	}

	var res routingalgorithm.RouteResult
	switch algorithm {
	case routingalgorithm.AlgorithmAStar, "":
		res = e.router.AStar(start, end, mode, e.Traffic())
	case routingalgorithm.AlgorithmBFS:
		res = e.router.BFS(start, end, mode)
	default:
		return routingalgorithm.RouteResult{Cost: math.Inf(1)}, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}

	e.log.Debug("search",
		zap.String("algorithm", res.Stats.Algorithm),
		zap.Int64("from", start),
		zap.Int64("to", end),
		zap.String("mode", string(mode)),
		zap.Bool("found", res.Found),
		zap.Float64("cost", res.Cost),
		zap.Int("nodes_explored", res.Stats.NodesExplored),
		zap.Duration("took", res.Stats.Duration))
	return res, nil
}

// KShortest holds the write lock: the diversifier penalises edge weights in place and
// restores them before returning.
func (e *Engine) KShortest(start, end int64, k int, mode datastructure.TravelMode) ([]routingalgorithm.RouteResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.router == nil {
		return nil, ErrNotLoaded
	}

	routes, err := e.router.KShortestPaths(start, end, k, mode, e.Traffic())
	if err != nil {
		return nil, err
	}
	e.log.Debug("k shortest",
		zap.Int64("from", start),
		zap.Int64("to", end),
		zap.Int("k", k),
		zap.String("mode", string(mode)),
		zap.Int("found", len(routes)))
	return routes, nil
}

func (e *Engine) OptimizeOrder(start int64, stops []int64, mode datastructure.TravelMode) (heuristics.TourResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.optimizer == nil {
		return heuristics.TourResult{Cost: math.Inf(1), Order: []int64{}, Segments: map[datastructure.Leg][]int64{}}, ErrNotLoaded
	}

	tour := e.optimizer.OptimizeRouteOrder(start, stops, mode, e.Traffic())
	e.log.Debug("optimize order",
		zap.String("algorithm", tour.Stats.Algorithm),
		zap.Int64("start", start),
		zap.Int64s("stops", stops),
		zap.Int64s("order", tour.Order),
		zap.Bool("found", tour.Found),
		zap.Float64("cost", tour.Cost),
		zap.Int("astar_calls", tour.Stats.AStarCalls))
	return tour, nil
}

// MultiStop routes through stops in the given order.
func (e *Engine) MultiStop(stops []int64, mode datastructure.TravelMode) (routingalgorithm.RouteResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.optimizer == nil {
		return routingalgorithm.RouteResult{Cost: math.Inf(1)}, ErrNotLoaded
	}
	res := e.optimizer.MultiStopRoute(stops, mode, e.Traffic())
	e.log.Debug("multi stop",
		zap.Int64s("stops", stops),
		zap.Bool("found", res.Found),
		zap.Float64("cost", res.Cost))
	return res, nil
}

func (e *Engine) NearbyPOIs(lat, lon float64) []datastructure.PointOfInterest {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.pois == nil {
		return []datastructure.PointOfInterest{}
	}
	return e.pois.Nearby(lat, lon)
}

// POIsAlongRoute samples every sampleEvery-th path node starting at the first, collects nearby
// POIs, drops names in exclude and duplicates by name, and returns at most limit of them
// in path order.
func (e *Engine) POIsAlongRoute(path []int64, exclude []string, sampleEvery, limit int) []datastructure.PointOfInterest {
	if sampleEvery <= 0 {
		sampleEvery = DefaultPOISampleEvery
	}
	if limit <= 0 {
		limit = DefaultPOILimit
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	out := []datastructure.PointOfInterest{}
	if e.pois == nil || len(path) == 0 {
		return out
	}

	seen := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		seen[name] = true
	}

	visit := func(id int64) bool {
		n, ok := e.g.Node(id)
		if !ok {
			return false
		}
		for _, p := range e.pois.Nearby(n.Lat, n.Lon) {
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			out = append(out, p)
			if len(out) >= limit {
				return true
			}
		}
		return false
	}

	for i := 0; i < len(path); i += sampleEvery {
		if visit(path[i]) {
			break
		}
	}
	return out
}

// PathLength total equirectangular length of path in meters.
func (e *Engine) PathLength(path []int64) float64 {
	nodes := e.PathNodes(path)
	proj := e.cost.Projection()
	total := 0.0
	for i := 0; i+1 < len(nodes); i++ {
		total += proj.Distance(nodes[i].Lat, nodes[i].Lon, nodes[i+1].Lat, nodes[i+1].Lon)
	}
	return total
}

// NetworkSize counts of the loaded network, zero when nothing is loaded.
func (e *Engine) NetworkSize() (nodes, edges, pois int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.g == nil {
		return 0, 0, 0
	}
	return e.g.NumNodes(), e.g.NumEdges(), e.pois.Len()
}

// WeightSnapshot copy of every edge weight, keyed by source node.
func (e *Engine) WeightSnapshot() map[int64][]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.g == nil {
		return map[int64][]float64{}
	}
	return e.g.SnapshotWeights()
}

// PathCost travel time of path in seconds under the current traffic condition.
func (e *Engine) PathCost(path []int64, mode datastructure.TravelMode) (float64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.router == nil {
		return math.Inf(1), false
	}
	return e.router.PathCost(path, mode, e.Traffic())
}
