package kv

import (
	byteorder "encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"github.com/uber/h3-go/v4"
	"go.uber.org/zap"

	"lintang/campusnav/pkg/concurrent"
	"lintang/campusnav/pkg/dataset"
	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/geo"
)

const (
	nodePrefix    = "n/"
	poiPrefix     = "p/"
	historyPrefix = "h/"

	poiResolution = 9
	saveBatchSize = 512

	DefaultHistoryKeep = 100
)

var ErrNoSnapshot = errors.New("kv: no network snapshot stored")

type KVDB struct {
	db           *pebble.DB
	log          *zap.Logger
	workers      int
	showProgress bool
	historyKeep  int
}

// Open buka pebble db di path. fs nil = disk.
func Open(path string, fs vfs.FS, log *zap.Logger, workers int) (*KVDB, error) {
	opts := &pebble.Options{}
	if fs != nil {
		opts.FS = fs
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", path, err)
	}
	return NewKVDB(db, log, workers), nil
}

func NewKVDB(db *pebble.DB, log *zap.Logger, workers int) *KVDB {
	if workers < 1 {
		workers = 4
	}
	return &KVDB{db: db, log: log, workers: workers, historyKeep: DefaultHistoryKeep}
}

func (k *KVDB) SetShowProgress(show bool) {
	k.showProgress = show
}

// SetHistoryKeep jumlah trip yang disimpan, minimal 1.
func (k *KVDB) SetHistoryKeep(n int) {
	if n < 1 {
		n = 1
	}
	k.historyKeep = n
}

func (k *KVDB) Close() error {
	return k.db.Close()
}

// nodeKey "n/" + id big-endian dengan sign bit dibalik, jadi urutan key = urutan id.
func nodeKey(id int64) []byte {
	key := make([]byte, len(nodePrefix)+8)
	copy(key, nodePrefix)
	byteorder.BigEndian.PutUint64(key[len(nodePrefix):], uint64(id)^(1<<63))
	return key
}

func poiKey(cell h3.Cell) []byte {
	return []byte(poiPrefix + cell.String())
}

func historyKey(unixNano int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", historyPrefix, unixNano))
}

func upperBound(prefix string) []byte {
	end := []byte(prefix)
	end[len(end)-1]++
	return end
}

func (k *KVDB) progressBar(max int, desc string) *progressbar.ProgressBar {
	if !k.showProgress {
		return progressbar.DefaultSilent(int64(max), desc)
	}
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

// SaveDataset replaces the stored network snapshot with ds. Nodes are written in batches
// on the worker pool; each node key carries the node and its outgoing edges. POIs are
// bucketed by their h3 cell.
func (k *KVDB) SaveDataset(ds *dataset.Dataset) error {
	for _, prefix := range []string{nodePrefix, poiPrefix} {
		if err := k.db.DeleteRange([]byte(prefix), upperBound(prefix), pebble.Sync); err != nil {
			return fmt.Errorf("clear %s: %w", prefix, err)
		}
	}

	adj := make(map[int64][]datastructure.Edge, len(ds.Nodes))
	for _, e := range ds.Edges {
		adj[int64(e.U)] = append(adj[int64(e.U)], e.Edge())
	}

	numBatches := (len(ds.Nodes) + saveBatchSize - 1) / saveBatchSize
	bar := k.progressBar(numBatches, "[cyan][1/2][reset] saving road network to pebble db...")

	workers := concurrent.NewWorkerPool[concurrent.SaveNodeJobItem, error](k.workers, numBatches)
	for i := 0; i < len(ds.Nodes); i += saveBatchSize {
		end := i + saveBatchSize
		if end > len(ds.Nodes) {
			end = len(ds.Nodes)
		}
		workers.AddJob(concurrent.SaveNodeJobItem{Nodes: ds.Nodes[i:end]})
	}
	workers.Close()

	workers.Start(func(job concurrent.SaveNodeJobItem) error {
		defer bar.Add(1)
		return k.saveNodes(job.Nodes, adj)
	})
	workers.Wait()

	var errs []error
	for err := range workers.CollectResults() {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("save nodes: %w", errors.Join(errs...))
	}

	buckets := make(map[h3.Cell][]datastructure.PointOfInterest)
	for _, p := range ds.POIs {
		cell := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lon), poiResolution)
		buckets[cell] = append(buckets[cell], p)
	}

	bar = k.progressBar(len(buckets), "[cyan][2/2][reset] saving h3 indexed pois to pebble db...")
	batch := k.db.NewBatch()
	defer batch.Close()
	for cell, pois := range buckets {
		val, err := encode(pois)
		if err != nil {
			return fmt.Errorf("encode pois %s: %w", cell.String(), err)
		}
		if err := batch.Set(poiKey(cell), val, nil); err != nil {
			return err
		}
		bar.Add(1)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit pois: %w", err)
	}

	k.log.Info("network snapshot saved",
		zap.Int("nodes", len(ds.Nodes)),
		zap.Int("edges", len(ds.Edges)),
		zap.Int("poi_cells", len(buckets)))
	return nil
}

func (k *KVDB) saveNodes(nodes []datastructure.Node, adj map[int64][]datastructure.Edge) error {
	batch := k.db.NewBatch()
	defer batch.Close()
	for _, n := range nodes {
		val, err := encode(newNodeRecord(n, adj[n.ID]))
		if err != nil {
			return fmt.Errorf("encode node %d: %w", n.ID, err)
		}
		if err := batch.Set(nodeKey(n.ID), val, nil); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

func (k *KVDB) scan(prefix string, fn func(val []byte) error) error {
	iter, err := k.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return err
	}
	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Value()); err != nil {
			iter.Close()
			return err
		}
	}
	return iter.Close()
}

// LoadDataset reads the snapshot back. Nodes come out sorted by id, edges grouped by
// source node in their original order.
func (k *KVDB) LoadDataset() (*dataset.Dataset, error) {
	ds := &dataset.Dataset{
		Nodes: []datastructure.Node{},
		Edges: []dataset.EdgeRecord{},
		POIs:  []datastructure.PointOfInterest{},
	}

	err := k.scan(nodePrefix, func(val []byte) error {
		var rec NodeRecord
		if err := decode(val, &rec); err != nil {
			return err
		}
		ds.Nodes = append(ds.Nodes, rec.Node())
		for _, e := range rec.Edges {
			ds.Edges = append(ds.Edges, dataset.EdgeRecord{
				U:          dataset.NodeID(rec.ID),
				V:          dataset.NodeID(e.To),
				Weight:     e.Weight,
				IsWalkable: e.Walkable,
				IsDrivable: e.Drivable,
				Highway:    e.RoadClass,
				Geometry:   e.Geometry,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	if len(ds.Nodes) == 0 {
		return nil, ErrNoSnapshot
	}

	err = k.scan(poiPrefix, func(val []byte) error {
		var pois []datastructure.PointOfInterest
		if err := decode(val, &pois); err != nil {
			return err
		}
		ds.POIs = append(ds.POIs, pois...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load pois: %w", err)
	}

	k.log.Info("network snapshot loaded",
		zap.Int("nodes", len(ds.Nodes)),
		zap.Int("edges", len(ds.Edges)),
		zap.Int("pois", len(ds.POIs)))
	return ds, nil
}

// NearbyPOIs POI dalam radiusKm dari (lat, lon), urut dari yang paling dekat.
func (k *KVDB) NearbyPOIs(lat, lon, radiusKm float64) ([]datastructure.PointOfInterest, error) {
	type withDist struct {
		poi  datastructure.PointOfInterest
		dist float64
	}
	found := []withDist{}
	here := geo.NewLocation(lat, lon)

	for _, cell := range kRingIndexesArea(lat, lon, radiusKm) {
		val, closer, err := k.db.Get(poiKey(cell))
		if errors.Is(err, pebble.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var pois []datastructure.PointOfInterest
		err = decode(val, &pois)
		closer.Close()
		if err != nil {
			return nil, fmt.Errorf("decode pois %s: %w", cell.String(), err)
		}

		for _, p := range pois {
			d := geo.HaversineDistance(here, geo.NewLocation(p.Lat, p.Lon))
			if d <= radiusKm {
				found = append(found, withDist{p, d})
			}
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].dist != found[j].dist {
			return found[i].dist < found[j].dist
		}
		return found[i].poi.Name < found[j].poi.Name
	})
	pois := make([]datastructure.PointOfInterest, len(found))
	for i, f := range found {
		pois[i] = f.poi
	}
	return pois, nil
}

/*
*
  - https://observablehq.com/@nrabinowitz/h3-radius-lookup?collection=@nrabinowitz/h3
    search cell neighbor dari cell dari lat,lon  yang radius nya = searchRadiusKm
*/
func kRingIndexesArea(lat, lon, searchRadiusKm float64) []h3.Cell {
	origin := h3.LatLngToCell(h3.NewLatLng(lat, lon), poiResolution)
	originArea := h3.CellAreaKm2(origin)
	searchArea := math.Pi * searchRadiusKm * searchRadiusKm

	radius := 0
	diskArea := originArea

	for diskArea < searchArea {
		radius++
		cellCount := float64(3*radius*(radius+1) + 1)
		diskArea = cellCount * originArea
	}
	// satu ring tambahan supaya titik di pinggir cell tetap ketemu
	return h3.GridDisk(origin, radius+1)
}

// AppendTrip logs a computed route. Only the newest historyKeep entries are retained.
func (k *KVDB) AppendTrip(trip TripRecord) error {
	if trip.UnixNano == 0 {
		trip.UnixNano = time.Now().UnixNano()
	}
	val, err := encode(trip)
	if err != nil {
		return fmt.Errorf("encode trip: %w", err)
	}
	if err := k.db.Set(historyKey(trip.UnixNano), val, pebble.Sync); err != nil {
		return fmt.Errorf("save trip: %w", err)
	}
	return k.trimHistory()
}

func (k *KVDB) trimHistory() error {
	iter, err := k.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(historyPrefix),
		UpperBound: upperBound(historyPrefix),
	})
	if err != nil {
		return err
	}

	batch := k.db.NewBatch()
	defer batch.Close()
	count := 0
	for iter.Last(); iter.Valid(); iter.Prev() {
		count++
		if count > k.historyKeep {
			key := append([]byte{}, iter.Key()...)
			if err := batch.Delete(key, nil); err != nil {
				iter.Close()
				return err
			}
		}
	}
	if err := iter.Close(); err != nil {
		return err
	}
	if batch.Empty() {
		return nil
	}
	return batch.Commit(pebble.Sync)
}

// RecentTrips newest first, at most limit entries.
func (k *KVDB) RecentTrips(limit int) ([]TripRecord, error) {
	trips := []TripRecord{}
	if limit <= 0 {
		return trips, nil
	}

	iter, err := k.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(historyPrefix),
		UpperBound: upperBound(historyPrefix),
	})
	if err != nil {
		return nil, err
	}
	for iter.Last(); iter.Valid() && len(trips) < limit; iter.Prev() {
		var trip TripRecord
		if err := decode(iter.Value(), &trip); err != nil {
			iter.Close()
			return nil, fmt.Errorf("decode trip: %w", err)
		}
		trips = append(trips, trip)
	}
	return trips, iter.Close()
}
