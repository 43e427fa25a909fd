package osmparser

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/k0kubun/go-ansi"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"lintang/campusnav/pkg/dataset"
	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/geo"
)

// highway values that are not part of the routable network
var skippedHighway = map[string]bool{
	"proposed":     true,
	"construction": true,
	"abandoned":    true,
	"platform":     true,
	"raceway":      true,
	"bus_guideway": true,
	"elevator":     true,
	"bus_stop":     true,
}

var nonDrivable = map[string]bool{
	"footway":    true,
	"steps":      true,
	"corridor":   true,
	"path":       true,
	"cycleway":   true,
	"pedestrian": true,
	"track":      true,
}

var nonWalkable = map[string]bool{
	"motorway":      true,
	"motorway_link": true,
}

// poiTags tag key -> value yang dianggap POI.
var poiTags = map[string]map[string]bool{
	"amenity": {
		"cafe": true, "fast_food": true, "fuel": true, "library": true, "university": true, "parking": true,
		"restaurant": true, "hospital": true, "clinic": true, "pharmacy": true, "bank": true, "atm": true,
		"police": true, "fire_station": true, "bus_station": true, "taxi": true, "place_of_worship": true,
		"school": true, "college": true, "marketplace": true, "cinema": true, "theatre": true, "gym": true,
		"sports_centre": true,
	},
	"building": {"university": true, "hospital": true, "hotel": true, "commercial": true, "mosque": true, "church": true},
	"shop":     {"mall": true, "supermarket": true, "convenience": true},
	"tourism":  {"hotel": true, "guest_house": true, "museum": true, "attraction": true},
	"barrier":  {"gate": true},
}

var categoryPriority = []string{"amenity", "tourism", "shop", "building"}

// ClassifyHighway walkable/drivable flags for an OSM highway value.
func ClassifyHighway(highway string) (walkable, drivable bool) {
	return !nonWalkable[highway], !nonDrivable[highway]
}

func IsRoutableHighway(highway string) bool {
	return highway != "" && !skippedHighway[highway]
}

// IsPOI reports whether tags describe a named point of interest.
func IsPOI(tags osm.Tags) bool {
	if tags.Find("name") == "" {
		return false
	}
	for key, values := range poiTags {
		if values[tags.Find(key)] {
			return true
		}
	}
	return false
}

// CategoryFromTags value of the first of amenity, tourism, shop, building present, else "landmark".
func CategoryFromTags(tags osm.Tags) string {
	for _, key := range categoryPriority {
		if v := tags.Find(key); v != "" {
			return v
		}
	}
	return "landmark"
}

func isOneway(tags osm.Tags) bool {
	switch tags.Find("oneway") {
	case "yes", "1", "true":
		return true
	}
	return false
}

type OsmParser struct {
	log          *zap.Logger
	procs        int
	showProgress bool
}

func NewOSMParser(log *zap.Logger, procs int, showProgress bool) *OsmParser {
	if procs <= 0 {
		procs = 3
	}
	return &OsmParser{log: log, procs: procs, showProgress: showProgress}
}

func (p *OsmParser) progressBar(max int64, desc string) *progressbar.ProgressBar {
	if !p.showProgress {
		return progressbar.DefaultSilent(max, desc)
	}
	return progressbar.NewOptions64(max,
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

// Parse reads an .osm.pbf in two passes: ways first (routable highways and POI ways),
// then the coordinates of every node those ways reference plus tagged POI nodes.
func (p *OsmParser) Parse(ctx context.Context, r io.ReadSeeker) (*dataset.Dataset, error) {
	ways := []*osm.Way{}
	wayNodes := make(map[osm.NodeID]bool)

	bar := p.progressBar(-1, "[cyan][1/2][reset] memproses openstreetmap way...")
	scanner := osmpbf.New(ctx, r, p.procs)
	scanner.SkipNodes = true
	scanner.SkipRelations = true
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		bar.Add(1)
		if !IsRoutableHighway(way.Tags.Find("highway")) && !IsPOI(way.Tags) {
			continue
		}
		ways = append(ways, way)
		for _, wn := range way.Nodes {
			wayNodes[wn.ID] = true
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("scan ways: %w", err)
	}
	scanner.Close()

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind pbf: %w", err)
	}

	nodes := make(map[osm.NodeID]*osm.Node)
	poiNodes := []*osm.Node{}
	bar = p.progressBar(-1, "[cyan][2/2][reset] memproses openstreetmap node...")
	scanner = osmpbf.New(ctx, r, p.procs)
	scanner.SkipWays = true
	scanner.SkipRelations = true
	for scanner.Scan() {
		node, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		bar.Add(1)
		if wayNodes[node.ID] {
			nodes[node.ID] = node
		}
		if IsPOI(node.Tags) {
			poiNodes = append(poiNodes, node)
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("scan nodes: %w", err)
	}
	scanner.Close()

	ds := p.BuildDataset(ways, nodes, poiNodes)
	p.log.Info("openstreetmap parsed",
		zap.Int("ways", len(ways)),
		zap.Int("nodes", len(ds.Nodes)),
		zap.Int("edges", len(ds.Edges)),
		zap.Int("pois", len(ds.POIs)))
	return ds, nil
}

// BuildDataset turns scanned ways and nodes into the routing dataset. Every pair of
// consecutive way nodes becomes an edge weighted by its great-circle length. Oneway roads
// keep the reverse direction for pedestrians only.
func (p *OsmParser) BuildDataset(ways []*osm.Way, nodes map[osm.NodeID]*osm.Node, poiNodes []*osm.Node) *dataset.Dataset {
	used := make(map[osm.NodeID]bool)
	edges := []dataset.EdgeRecord{}
	pois := []datastructure.PointOfInterest{}

	for _, way := range ways {
		if IsPOI(way.Tags) {
			if lat, lon, ok := centroid(way, nodes); ok {
				pois = append(pois, datastructure.PointOfInterest{
					Name:     way.Tags.Find("name"),
					Lat:      lat,
					Lon:      lon,
					Category: CategoryFromTags(way.Tags),
				})
			}
		}

		highway := way.Tags.Find("highway")
		if !IsRoutableHighway(highway) {
			continue
		}
		walkable, drivable := ClassifyHighway(highway)
		oneway := isOneway(way.Tags)

		for i := 0; i+1 < len(way.Nodes); i++ {
			from, okFrom := nodes[way.Nodes[i].ID]
			to, okTo := nodes[way.Nodes[i+1].ID]
			if !okFrom || !okTo {
				continue
			}
			length := geo.HaversineDistance(geo.NewLocation(from.Lat, from.Lon), geo.NewLocation(to.Lat, to.Lon)) * 1000

			used[from.ID] = true
			used[to.ID] = true
			edges = append(edges, dataset.EdgeRecord{
				U: dataset.NodeID(from.ID), V: dataset.NodeID(to.ID), Weight: length,
				IsWalkable: walkable, IsDrivable: drivable, Highway: highway,
			})
			if oneway && !walkable {
				continue
			}
			edges = append(edges, dataset.EdgeRecord{
				U: dataset.NodeID(to.ID), V: dataset.NodeID(from.ID), Weight: length,
				IsWalkable: walkable, IsDrivable: drivable && !oneway, Highway: highway,
			})
		}
	}

	for _, n := range poiNodes {
		pois = append(pois, datastructure.PointOfInterest{
			Name:     n.Tags.Find("name"),
			Lat:      n.Lat,
			Lon:      n.Lon,
			Category: CategoryFromTags(n.Tags),
		})
	}

	outNodes := make([]datastructure.Node, 0, len(used))
	for id := range used {
		n := nodes[id]
		// elevation dari tag ele kalau ada, selain itu 0
		ele, err := strconv.ParseFloat(n.Tags.Find("ele"), 64)
		if err != nil {
			ele = 0
		}
		outNodes = append(outNodes, datastructure.Node{ID: int64(id), Lat: n.Lat, Lon: n.Lon, Elevation: ele})
	}
	sort.Slice(outNodes, func(i, j int) bool {
		return outNodes[i].ID < outNodes[j].ID
	})

	return &dataset.Dataset{Nodes: outNodes, Edges: edges, POIs: pois}
}

func centroid(way *osm.Way, nodes map[osm.NodeID]*osm.Node) (float64, float64, bool) {
	lat, lon := 0.0, 0.0
	count := 0
	for _, wn := range way.Nodes {
		n, ok := nodes[wn.ID]
		if !ok {
			continue
		}
		lat += n.Lat
		lon += n.Lon
		count++
	}
	if count == 0 {
		return 0, 0, false
	}
	return lat / float64(count), lon / float64(count), true
}
