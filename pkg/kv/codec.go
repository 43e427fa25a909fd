package kv

import (
	"lintang/campusnav/pkg/datastructure"

	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
)

// NodeRecord satu node beserta semua outgoing edge-nya, disimpan di satu key.
type NodeRecord struct {
	ID        int64
	Lat       float64
	Lon       float64
	Elevation float64
	Edges     []EdgeRecord
}

type EdgeRecord struct {
	To        int64
	Weight    float64
	Walkable  bool
	Drivable  bool
	RoadClass string
	Geometry  string
}

// TripRecord satu rute yang pernah dihitung lewat REST api.
type TripRecord struct {
	UnixNano int64
	From     string
	To       string
	Mode     string
	Minutes  float64
	Meters   float64
}

func newNodeRecord(n datastructure.Node, edges []datastructure.Edge) NodeRecord {
	rec := NodeRecord{
		ID:        n.ID,
		Lat:       n.Lat,
		Lon:       n.Lon,
		Elevation: n.Elevation,
		Edges:     make([]EdgeRecord, len(edges)),
	}
	for i, e := range edges {
		rec.Edges[i] = EdgeRecord{
			To:        e.ToNodeID,
			Weight:    e.Weight,
			Walkable:  e.Walkable,
			Drivable:  e.Drivable,
			RoadClass: e.RoadClass,
			Geometry:  e.Geometry,
		}
	}
	return rec
}

func (r NodeRecord) Node() datastructure.Node {
	return datastructure.Node{ID: r.ID, Lat: r.Lat, Lon: r.Lon, Elevation: r.Elevation}
}

func (e EdgeRecord) Edge() datastructure.Edge {
	return datastructure.Edge{
		ToNodeID:  e.To,
		Weight:    e.Weight,
		Walkable:  e.Walkable,
		Drivable:  e.Drivable,
		RoadClass: e.RoadClass,
		Geometry:  e.Geometry,
	}
}

// encode binary lalu compress pakai zstd.
func encode(v interface{}) ([]byte, error) {
	bb, err := binary.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Compress(bb)
}

func decode(bbCompressed []byte, v interface{}) error {
	bb, err := Decompress(bbCompressed)
	if err != nil {
		return err
	}
	return binary.Unmarshal(bb, v)
}

func Compress(bb []byte) ([]byte, error) {
	var bbCompressed []byte
	bbCompressed, err := zstd.Compress(bbCompressed, bb)
	if err != nil {
		return []byte{}, err
	}
	return bbCompressed, nil
}

func Decompress(bbCompressed []byte) ([]byte, error) {
	var bb []byte
	bb, err := zstd.Decompress(bb, bbCompressed)
	if err != nil {
		return []byte{}, err
	}
	return bb, nil
}
