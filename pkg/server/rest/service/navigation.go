package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/engine"
	"lintang/campusnav/pkg/engine/heuristics"
	"lintang/campusnav/pkg/engine/routingalgorithm"
	"lintang/campusnav/pkg/geo"
	"lintang/campusnav/pkg/kv"
	"lintang/campusnav/pkg/server"
	"lintang/campusnav/pkg/snapping"
	"lintang/campusnav/pkg/util"
)

const (
	// FuelCostPerKm perkiraan biaya bensin per km (rupee).
	FuelCostPerKm = 150.0
	CaloriesPerKm = 50.0
	HistoryLimit  = 5
)

var ErrNoRoute = errors.New("no route between the given locations")

type RoutingEngine interface {
	Snap(lat, lon float64, mode datastructure.TravelMode) (snapping.SnapResult, bool)
	Search(start, end int64, mode datastructure.TravelMode, algorithm string) (routingalgorithm.RouteResult, error)
	KShortest(start, end int64, k int, mode datastructure.TravelMode) ([]routingalgorithm.RouteResult, error)
	OptimizeOrder(start int64, stops []int64, mode datastructure.TravelMode) (heuristics.TourResult, error)
	MultiStop(stops []int64, mode datastructure.TravelMode) (routingalgorithm.RouteResult, error)
	NearbyPOIs(lat, lon float64) []datastructure.PointOfInterest
	POIsAlongRoute(path []int64, exclude []string, sampleEvery, limit int) []datastructure.PointOfInterest
	PathNodes(path []int64) []datastructure.Node
	PathLength(path []int64) float64
	PathCost(path []int64, mode datastructure.TravelMode) (float64, bool)
	SetRushHour(active bool)
	RushHour() bool
}

type KVDB interface {
	NearbyPOIs(lat, lon, radiusKm float64) ([]datastructure.PointOfInterest, error)
	AppendTrip(trip kv.TripRecord) error
	RecentTrips(limit int) ([]kv.TripRecord, error)
}

// Location titik yang dipilih user. Name opsional, dipakai di history dan untuk
// membuang POI tujuan dari daftar POI sepanjang rute.
type Location struct {
	Lat  float64
	Lon  float64
	Name string
}

func (l Location) label() string {
	if l.Name != "" {
		return l.Name
	}
	return fmt.Sprintf("%.5f,%.5f", l.Lat, l.Lon)
}

type TripStats struct {
	DistanceMeters float64
	GeodesicMeters float64
	ClimbMeters    float64
	DescentMeters  float64
	FuelCost       float64
	Calories       float64
}

type Route struct {
	Mode        datastructure.TravelMode
	NodeIDs     []int64
	Coordinates []datastructure.Coordinate
	Polyline    string
	// Cost seconds for a_star, hops for bfs
	Cost       float64
	ETAMinutes float64
	Trip       TripStats
	Search     routingalgorithm.SearchStats
	POIs       []datastructure.PointOfInterest
}

type Tour struct {
	Route
	// Order index ke stops sesuai urutan kunjungan
	Order        []int
	Permutations int
	AStarCalls   int
}

type NavigationService struct {
	router RoutingEngine
	kv     KVDB
	log    *zap.Logger
}

// NewNavigationService kvDB boleh nil, history dan radius search jadi nonaktif.
func NewNavigationService(router RoutingEngine, kvDB KVDB, log *zap.Logger) *NavigationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &NavigationService{router: router, kv: kvDB, log: log}
}

func (uc *NavigationService) snap(loc Location, mode datastructure.TravelMode, which string) (int64, error) {
	res, ok := uc.router.Snap(loc.Lat, loc.Lon, mode)
	if !ok {
		return 0, server.WrapErrorf(nil, server.ErrNotFound,
			"sorry!! the %s location (%.5f, %.5f) is not covered by the %s network", which, loc.Lat, loc.Lon, mode)
	}
	return res.NodeID, nil
}

func tripStats(nodes []datastructure.Node, length float64, mode datastructure.TravelMode) TripStats {
	stats := TripStats{DistanceMeters: util.RoundFloat(length, 2)}
	geodesic := 0.0
	for i := 0; i+1 < len(nodes); i++ {
		geodesic += geo.S2Distance(nodes[i].Lat, nodes[i].Lon, nodes[i+1].Lat, nodes[i+1].Lon)
		diff := nodes[i+1].Elevation - nodes[i].Elevation
		if diff > 0 {
			stats.ClimbMeters += diff
		} else {
			stats.DescentMeters -= diff
		}
	}
	stats.GeodesicMeters = util.RoundFloat(geodesic, 2)

	km := length / 1000
	switch mode {
	case datastructure.ModeCar:
		stats.FuelCost = util.RoundFloat(km*FuelCostPerKm, 2)
	case datastructure.ModeWalk:
		stats.Calories = util.RoundFloat(km*CaloriesPerKm, 2)
	}
	return stats
}

func (uc *NavigationService) buildRoute(res routingalgorithm.RouteResult, mode datastructure.TravelMode, exclude []string) Route {
	nodes := uc.router.PathNodes(res.Path)
	coords := make([]datastructure.Coordinate, len(nodes))
	latLons := make([][]float64, len(nodes))
	for i, n := range nodes {
		coords[i] = n.Coordinate()
		latLons[i] = []float64{n.Lat, n.Lon}
	}

	seconds := res.Cost
	if res.Stats.Algorithm == routingalgorithm.AlgorithmBFS {
		// bfs cost = jumlah hop, eta dihitung ulang dari waktu tempuh path
		seconds, _ = uc.router.PathCost(res.Path, mode)
	}

	return Route{
		Mode:        mode,
		NodeIDs:     res.Path,
		Coordinates: coords,
		Polyline:    geo.RenderPath(latLons),
		Cost:        util.RoundFloat(res.Cost, 2),
		ETAMinutes:  util.RoundFloat(seconds/60, 2),
		Trip:        tripStats(nodes, uc.router.PathLength(res.Path), mode),
		Search:      res.Stats,
		POIs:        uc.router.POIsAlongRoute(res.Path, exclude, engine.DefaultPOISampleEvery, engine.DefaultPOILimit),
	}
}

func (uc *NavigationService) logTrip(src, dst Location, route Route) {
	if uc.kv == nil {
		return
	}
	err := uc.kv.AppendTrip(kv.TripRecord{
		From:    src.label(),
		To:      dst.label(),
		Mode:    string(route.Mode),
		Minutes: route.ETAMinutes,
		Meters:  route.Trip.DistanceMeters,
	})
	if err != nil {
		uc.log.Warn("failed to save trip history", zap.Error(err))
	}
}

func searchError(err error) error {
	switch {
	case errors.Is(err, engine.ErrUnknownAlgorithm), errors.Is(err, routingalgorithm.ErrInvalidK):
		return server.WrapErrorf(err, server.ErrBadParamInput, "%s", err.Error())
	case errors.Is(err, engine.ErrNotLoaded):
		return server.WrapErrorf(err, server.ErrConflict, "road network is still loading, try again later")
	default:
		return server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
	}
}

func (uc *NavigationService) ShortestPath(ctx context.Context, src, dst Location, mode datastructure.TravelMode,
	algorithm string) (Route, error) {
	from, err := uc.snap(src, mode, "source")
	if err != nil {
		return Route{}, err
	}
	to, err := uc.snap(dst, mode, "destination")
	if err != nil {
		return Route{}, err
	}

	res, err := uc.router.Search(from, to, mode, algorithm)
	if err != nil {
		return Route{}, searchError(err)
	}
	if !res.Found {
		return Route{}, server.WrapErrorf(ErrNoRoute, server.ErrNotFound, "no %s route found between the given locations", mode)
	}

	route := uc.buildRoute(res, mode, []string{src.Name, dst.Name})
	uc.logTrip(src, dst, route)
	return route, nil
}

// Alternatives up to k distinct routes, the first one is always the shortest.
func (uc *NavigationService) Alternatives(ctx context.Context, src, dst Location, mode datastructure.TravelMode,
	k int) ([]Route, error) {
	if k <= 0 {
		return nil, server.WrapErrorf(routingalgorithm.ErrInvalidK, server.ErrBadParamInput, "k must be greater than zero")
	}
	from, err := uc.snap(src, mode, "source")
	if err != nil {
		return nil, err
	}
	to, err := uc.snap(dst, mode, "destination")
	if err != nil {
		return nil, err
	}

	results, err := uc.router.KShortest(from, to, k, mode)
	if err != nil {
		return nil, searchError(err)
	}
	if len(results) == 0 {
		return nil, server.WrapErrorf(ErrNoRoute, server.ErrNotFound, "no %s route found between the given locations", mode)
	}

	routes := make([]Route, len(results))
	for i, res := range results {
		routes[i] = uc.buildRoute(res, mode, []string{src.Name, dst.Name})
	}
	uc.logTrip(src, dst, routes[0])
	return routes, nil
}

// MultiStop routes from start through every stop. With keepOrder the stops are visited as
// given, otherwise the visiting order is optimised.
func (uc *NavigationService) MultiStop(ctx context.Context, start Location, stops []Location,
	mode datastructure.TravelMode, keepOrder bool) (Tour, error) {
	startID, err := uc.snap(start, mode, "start")
	if err != nil {
		return Tour{}, err
	}
	stopIDs := make([]int64, len(stops))
	for i, s := range stops {
		if stopIDs[i], err = uc.snap(s, mode, fmt.Sprintf("stop #%d", i+1)); err != nil {
			return Tour{}, err
		}
	}

	exclude := []string{start.Name}
	for _, s := range stops {
		exclude = append(exclude, s.Name)
	}

	if keepOrder {
		res, err := uc.router.MultiStop(append([]int64{startID}, stopIDs...), mode)
		if err != nil {
			return Tour{}, searchError(err)
		}
		if !res.Found {
			return Tour{}, server.WrapErrorf(ErrNoRoute, server.ErrNotFound, "one of the stops can not be reached by %s", mode)
		}
		order := make([]int, len(stops))
		for i := range order {
			order[i] = i
		}
		tour := Tour{Route: uc.buildRoute(res, mode, exclude), Order: order, AStarCalls: len(stops)}
		uc.logTour(start, stops, order, tour.Route)
		return tour, nil
	}

	result, err := uc.router.OptimizeOrder(startID, stopIDs, mode)
	if err != nil {
		return Tour{}, searchError(err)
	}
	if !result.Found {
		return Tour{}, server.WrapErrorf(ErrNoRoute, server.ErrNotFound, "one of the stops can not be reached by %s", mode)
	}

	res := routingalgorithm.RouteResult{
		Path:  result.Stitch(startID),
		Cost:  result.Cost,
		Found: true,
		Stats: routingalgorithm.SearchStats{
			Algorithm:      result.Stats.Algorithm,
			NodesExplored:  result.Stats.NodesExplored,
			HeapOperations: result.Stats.HeapOperations,
			Duration:       result.Stats.Duration,
		},
	}
	order := stopOrder(stopIDs, result.Order)
	tour := Tour{
		Route:        uc.buildRoute(res, mode, exclude),
		Order:        order,
		Permutations: result.Stats.Permutations,
		AStarCalls:   result.Stats.AStarCalls,
	}
	uc.logTour(start, stops, order, tour.Route)
	return tour, nil
}

func (uc *NavigationService) logTour(start Location, stops []Location, order []int, route Route) {
	if len(order) == 0 {
		return
	}
	uc.logTrip(start, stops[order[len(order)-1]], route)
}

// stopOrder maps the visited node ids back to positions in stopIDs. Stops that snapped to
// the same node are assigned in input order.
func stopOrder(stopIDs, visited []int64) []int {
	used := make([]bool, len(stopIDs))
	order := make([]int, 0, len(visited))
	for _, id := range visited {
		for i, s := range stopIDs {
			if !used[i] && s == id {
				used[i] = true
				order = append(order, i)
				break
			}
		}
	}
	return order
}

// NearbyPOIs POI di sekitar titik. radiusKm > 0 pakai index h3 di pebble, selain itu grid in-memory.
func (uc *NavigationService) NearbyPOIs(ctx context.Context, lat, lon, radiusKm float64) ([]datastructure.PointOfInterest, error) {
	if radiusKm > 0 && uc.kv != nil {
		pois, err := uc.kv.NearbyPOIs(lat, lon, radiusKm)
		if err != nil {
			return nil, server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
		}
		return pois, nil
	}
	return uc.router.NearbyPOIs(lat, lon), nil
}

func (uc *NavigationService) SetRushHour(ctx context.Context, active bool) bool {
	uc.router.SetRushHour(active)
	return uc.router.RushHour()
}

func (uc *NavigationService) RushHour(ctx context.Context) bool {
	return uc.router.RushHour()
}

func (uc *NavigationService) History(ctx context.Context) ([]kv.TripRecord, error) {
	if uc.kv == nil {
		return []kv.TripRecord{}, nil
	}
	trips, err := uc.kv.RecentTrips(HistoryLimit)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
	}
	return trips, nil
}

// AverageSpeedKmh rata-rata kecepatan rute, 0 kalau tidak bergerak.
func (r Route) AverageSpeedKmh() float64 {
	if r.ETAMinutes == 0 || math.IsInf(r.ETAMinutes, 0) {
		return 0
	}
	return util.RoundFloat((r.Trip.DistanceMeters/1000)/(r.ETAMinutes/60), 2)
}
