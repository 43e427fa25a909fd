package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"lintang/campusnav/pkg/datastructure"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	DefaultNodesFile = "nodes.json"
	DefaultEdgesFile = "edges.json"
	DefaultPOIsFile  = "pois.json"
)

// NodeID accepts both "123" and 123 in json.
type NodeID int64

func (id *NodeID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid node id %q: %w", s, err)
		}
		*id = NodeID(v)
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("invalid node id %s: %w", string(b), err)
	}
	*id = NodeID(v)
	return nil
}

func (id NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(id), 10))
}

type NodeRecord struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Elevation float64 `json:"elevation"`
}

type EdgeRecord struct {
	U          NodeID  `json:"u"`
	V          NodeID  `json:"v"`
	Weight     float64 `json:"weight"`
	IsWalkable bool    `json:"is_walkable"`
	IsDrivable bool    `json:"is_drivable"`
	Highway    string  `json:"highway"`
	Geometry   string  `json:"geometry,omitempty"`
}

func (e EdgeRecord) Edge() datastructure.Edge {
	return datastructure.Edge{
		ToNodeID:  int64(e.V),
		Weight:    e.Weight,
		Walkable:  e.IsWalkable,
		Drivable:  e.IsDrivable,
		RoadClass: e.Highway,
		Geometry:  e.Geometry,
	}
}

// Dataset is the finished node/edge/POI input of the routing engine.
type Dataset struct {
	Nodes []datastructure.Node
	Edges []EdgeRecord
	POIs  []datastructure.PointOfInterest
}

type Files struct {
	Nodes string
	Edges string
	POIs  string
}

func DefaultFiles() Files {
	return Files{
		Nodes: DefaultNodesFile,
		Edges: DefaultEdgesFile,
		POIs:  DefaultPOIsFile,
	}
}

// ReadNodes decodes {"id": {lat, lon, elevation}}. Nodes are returned sorted by id.
func ReadNodes(r io.Reader) ([]datastructure.Node, error) {
	raw := make(map[string]NodeRecord)
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode nodes: %w", err)
	}

	nodes := make([]datastructure.Node, 0, len(raw))
	for key, rec := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid node id %q: %w", key, err)
		}
		nodes = append(nodes, datastructure.Node{
			ID:        id,
			Lat:       rec.Lat,
			Lon:       rec.Lon,
			Elevation: rec.Elevation,
		})
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes, nil
}

func ReadEdges(r io.Reader) ([]EdgeRecord, error) {
	edges := []EdgeRecord{}
	if err := json.NewDecoder(r).Decode(&edges); err != nil {
		return nil, fmt.Errorf("decode edges: %w", err)
	}
	return edges, nil
}

func ReadPOIs(r io.Reader) ([]datastructure.PointOfInterest, error) {
	pois := []datastructure.PointOfInterest{}
	if err := json.NewDecoder(r).Decode(&pois); err != nil {
		return nil, fmt.Errorf("decode pois: %w", err)
	}
	return pois, nil
}

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	return read(f)
}

// LoadDir reads the three dataset files from dir. A missing or unreadable POI file is
// logged and results in no POIs, it never fails the node/edge load.
func LoadDir(dir string, files Files, log *zap.Logger) (*Dataset, error) {
	nodes, err := readFile(filepath.Join(dir, files.Nodes), ReadNodes)
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	edges, err := readFile(filepath.Join(dir, files.Edges), ReadEdges)
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}

	poiPath := filepath.Join(dir, files.POIs)
	pois, err := readFile(poiPath, ReadPOIs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("poi file not found", zap.String("path", poiPath))
		} else {
			log.Warn("error loading pois", zap.String("path", poiPath), zap.Error(err))
		}
		pois = []datastructure.PointOfInterest{}
	}

	log.Info("dataset loaded",
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
		zap.Int("pois", len(pois)))

	return &Dataset{Nodes: nodes, Edges: edges, POIs: pois}, nil
}

// WriteDir writes the dataset in the format LoadDir reads.
func WriteDir(dir string, files Files, ds *Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	nodes := make(map[string]NodeRecord, len(ds.Nodes))
	for _, n := range ds.Nodes {
		nodes[strconv.FormatInt(n.ID, 10)] = NodeRecord{Lat: n.Lat, Lon: n.Lon, Elevation: n.Elevation}
	}

	pois := ds.POIs
	if pois == nil {
		pois = []datastructure.PointOfInterest{}
	}
	edges := ds.Edges
	if edges == nil {
		edges = []EdgeRecord{}
	}

	out := []struct {
		name string
		v    interface{}
	}{
		{files.Nodes, nodes},
		{files.Edges, edges},
		{files.POIs, pois},
	}
	for _, o := range out {
		b, err := json.Marshal(o.v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", o.name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, o.name), b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", o.name, err)
		}
	}
	return nil
}
