package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lintang/campusnav/pkg/dataset"
	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/engine"
	"lintang/campusnav/pkg/engine/routingalgorithm"
	"lintang/campusnav/pkg/kv"
	"lintang/campusnav/pkg/server"
	"lintang/campusnav/pkg/server/rest/service"
)

var (
	gate    = service.Location{Lat: 33.644, Lon: 72.991, Name: "Main Gate"}
	hostel  = service.Location{Lat: 33.642, Lon: 72.993, Name: "Hostel"}
	center  = service.Location{Lat: 33.643, Lon: 72.992}
	faraway = service.Location{Lat: 10, Lon: 10}
)

func campusGrid() *dataset.Dataset {
	lats := []float64{33.644, 33.643, 33.642}
	lons := []float64{72.991, 72.992, 72.993}
	ds := &dataset.Dataset{}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			ds.Nodes = append(ds.Nodes, datastructure.Node{ID: int64(r*3 + c + 1), Lat: lats[r], Lon: lons[c], Elevation: float64(r * 2)})
		}
	}
	pairs := [][2]int64{{1, 2}, {2, 3}, {4, 5}, {5, 6}, {7, 8}, {8, 9}, {1, 4}, {4, 7}, {2, 5}, {5, 8}, {3, 6}, {6, 9}}
	for _, p := range pairs {
		ds.Edges = append(ds.Edges,
			dataset.EdgeRecord{U: dataset.NodeID(p[0]), V: dataset.NodeID(p[1]), Weight: 100, IsWalkable: true, IsDrivable: true, Highway: "residential"},
			dataset.EdgeRecord{U: dataset.NodeID(p[1]), V: dataset.NodeID(p[0]), Weight: 100, IsWalkable: true, IsDrivable: true, Highway: "residential"},
		)
	}
	ds.POIs = []datastructure.PointOfInterest{
		{Name: "Main Gate", Lat: 33.644, Lon: 72.991, Category: "landmark"},
		{Name: "Cafe", Lat: 33.644, Lon: 72.991, Category: "cafe"},
		{Name: "Library", Lat: 33.6441, Lon: 72.9911, Category: "library"},
	}
	return ds
}

func newService(t *testing.T, withKV bool) (*service.NavigationService, *kv.KVDB) {
	t.Helper()
	ds := campusGrid()
	e := engine.New(engine.DefaultOptions(), zap.NewNop())
	e.Load(ds)
	if !withKV {
		return service.NewNavigationService(e, nil, zap.NewNop()), nil
	}

	db, err := kv.Open("campusnav-service-test", vfs.NewMem(), zap.NewNop(), 2)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.SaveDataset(ds))
	return service.NewNavigationService(e, db, zap.NewNop()), db
}

func errCode(t *testing.T, err error) error {
	t.Helper()
	var serr *server.Error
	require.True(t, errors.As(err, &serr), "expected *server.Error, got %v", err)
	return serr.Code()
}

func TestShortestPath(t *testing.T) {
	svc, _ := newService(t, false)
	ctx := context.Background()

	t.Run("car a star", func(t *testing.T) {
		route, err := svc.ShortestPath(ctx, gate, hostel, datastructure.ModeCar, routingalgorithm.AlgorithmAStar)
		require.NoError(t, err)
		require.Len(t, route.NodeIDs, 5)
		assert.Equal(t, int64(1), route.NodeIDs[0])
		assert.Equal(t, int64(9), route.NodeIDs[4])
		assert.Len(t, route.Coordinates, 5)
		assert.NotEmpty(t, route.Polyline)
		assert.InDelta(t, 400/8.3/60, route.ETAMinutes, 0.01)
		assert.Greater(t, route.Trip.DistanceMeters, 0.0)
		assert.Greater(t, route.Trip.GeodesicMeters, 0.0)
		assert.Greater(t, route.Trip.FuelCost, 0.0)
		assert.Equal(t, 0.0, route.Trip.Calories)
		assert.InDelta(t, 4.0, route.Trip.ClimbMeters, 1e-9)
		assert.Equal(t, 0.0, route.Trip.DescentMeters)
		assert.Greater(t, route.AverageSpeedKmh(), 0.0)
		assert.Equal(t, routingalgorithm.AlgorithmAStar, route.Search.Algorithm)

		names := []string{}
		for _, p := range route.POIs {
			names = append(names, p.Name)
		}
		assert.NotContains(t, names, "Main Gate")
		assert.Contains(t, names, "Cafe")
	})

	t.Run("walk bfs eta comes from travel time", func(t *testing.T) {
		route, err := svc.ShortestPath(ctx, gate, hostel, datastructure.ModeWalk, routingalgorithm.AlgorithmBFS)
		require.NoError(t, err)
		assert.Equal(t, 4.0, route.Cost)
		assert.Greater(t, route.ETAMinutes, 0.0)
		assert.Greater(t, route.Trip.Calories, 0.0)
		assert.Equal(t, 0.0, route.Trip.FuelCost)
	})

	t.Run("location outside the network", func(t *testing.T) {
		_, err := svc.ShortestPath(ctx, gate, faraway, datastructure.ModeCar, routingalgorithm.AlgorithmAStar)
		require.Error(t, err)
		assert.Equal(t, server.ErrNotFound, errCode(t, err))
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := svc.ShortestPath(ctx, gate, hostel, datastructure.ModeCar, "dijkstra")
		require.Error(t, err)
		assert.Equal(t, server.ErrBadParamInput, errCode(t, err))
		assert.ErrorIs(t, err, engine.ErrUnknownAlgorithm)
	})

	t.Run("engine not loaded", func(t *testing.T) {
		empty := service.NewNavigationService(engine.New(engine.DefaultOptions(), nil), nil, nil)
		_, err := empty.ShortestPath(ctx, gate, hostel, datastructure.ModeCar, routingalgorithm.AlgorithmAStar)
		require.Error(t, err)
	})
}

func TestAlternatives(t *testing.T) {
	svc, _ := newService(t, false)
	ctx := context.Background()

	routes, err := svc.Alternatives(ctx, gate, hostel, datastructure.ModeCar, 3)
	require.NoError(t, err)
	require.NotEmpty(t, routes)
	assert.LessOrEqual(t, len(routes), 3)
	assert.InDelta(t, 400/8.3/60, routes[0].ETAMinutes, 0.01)
	for _, r := range routes {
		assert.Equal(t, int64(1), r.NodeIDs[0])
		assert.Equal(t, int64(9), r.NodeIDs[len(r.NodeIDs)-1])
	}

	_, err = svc.Alternatives(ctx, gate, hostel, datastructure.ModeCar, 0)
	require.Error(t, err)
	assert.Equal(t, server.ErrBadParamInput, errCode(t, err))
}

func TestMultiStop(t *testing.T) {
	svc, _ := newService(t, false)
	ctx := context.Background()

	t.Run("optimised order", func(t *testing.T) {
		tour, err := svc.MultiStop(ctx, gate, []service.Location{hostel, {Lat: 33.644, Lon: 72.992}}, datastructure.ModeCar, false)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 0}, tour.Order)
		assert.Equal(t, int64(1), tour.NodeIDs[0])
		assert.Equal(t, int64(9), tour.NodeIDs[len(tour.NodeIDs)-1])
		assert.InDelta(t, 400/8.3/60, tour.ETAMinutes, 0.01)
		assert.Greater(t, tour.AStarCalls, 0)
	})

	t.Run("keep order", func(t *testing.T) {
		tour, err := svc.MultiStop(ctx, gate, []service.Location{hostel, center}, datastructure.ModeCar, true)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, tour.Order)
		assert.Equal(t, int64(5), tour.NodeIDs[len(tour.NodeIDs)-1])
		assert.Contains(t, tour.NodeIDs, int64(9))
	})

	t.Run("stop outside the network", func(t *testing.T) {
		_, err := svc.MultiStop(ctx, gate, []service.Location{faraway}, datastructure.ModeWalk, false)
		require.Error(t, err)
		assert.Equal(t, server.ErrNotFound, errCode(t, err))
	})
}

func TestNearbyPOIsAndHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("without kv", func(t *testing.T) {
		svc, _ := newService(t, false)
		pois, err := svc.NearbyPOIs(ctx, 33.644, 72.991, 0)
		require.NoError(t, err)
		assert.Len(t, pois, 3)

		// radius tanpa kv jatuh ke grid
		pois, err = svc.NearbyPOIs(ctx, 33.644, 72.991, 1)
		require.NoError(t, err)
		assert.Len(t, pois, 3)

		trips, err := svc.History(ctx)
		require.NoError(t, err)
		assert.Empty(t, trips)
	})

	t.Run("with kv", func(t *testing.T) {
		svc, _ := newService(t, true)
		pois, err := svc.NearbyPOIs(ctx, 33.644, 72.991, 0.5)
		require.NoError(t, err)
		require.Len(t, pois, 3)
		assert.Equal(t, "Cafe", pois[0].Name)
		assert.Equal(t, "Library", pois[2].Name)

		_, err = svc.ShortestPath(ctx, gate, hostel, datastructure.ModeCar, routingalgorithm.AlgorithmAStar)
		require.NoError(t, err)
		_, err = svc.ShortestPath(ctx, hostel, center, datastructure.ModeWalk, routingalgorithm.AlgorithmAStar)
		require.NoError(t, err)

		trips, err := svc.History(ctx)
		require.NoError(t, err)
		require.Len(t, trips, 2)
		assert.Equal(t, "Hostel", trips[0].From)
		assert.Equal(t, "33.64300,72.99200", trips[0].To)
		assert.Equal(t, "walk", trips[0].Mode)
		assert.Equal(t, "Main Gate", trips[1].From)
		assert.Equal(t, "car", trips[1].Mode)
	})
}

func TestRushHour(t *testing.T) {
	svc, _ := newService(t, false)
	ctx := context.Background()

	assert.False(t, svc.RushHour(ctx))
	assert.True(t, svc.SetRushHour(ctx, true))
	route, err := svc.ShortestPath(ctx, gate, hostel, datastructure.ModeCar, routingalgorithm.AlgorithmAStar)
	require.NoError(t, err)
	assert.InDelta(t, 400/(8.3/1.1)/60, route.ETAMinutes, 0.01)
	assert.False(t, svc.SetRushHour(ctx, false))
}
