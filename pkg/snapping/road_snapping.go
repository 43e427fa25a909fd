package snapping

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/geo"
)

const (
	DefaultMaxCandidates = 5

	// half side of the box stored for every node
	nodeTol = 1e-9
)

// DefaultThresholds squared-degree radius yang dicoba berurutan sebelum menyerah.
var DefaultThresholds = []float64{1e-5, 1e-4, 1e-3, 1e-2}

type SnapGraph interface {
	Node(id int64) (datastructure.Node, bool)
	NodeIDs() []int64
	ModeNodeIDs(mode datastructure.TravelMode) []int64
	HasRoadClass(id int64, pred func(roadClass string) bool) bool
}

type nodeRect struct {
	id       int64
	location rtreego.Point
}

func (n *nodeRect) Bounds() rtreego.Rect {
	return n.location.ToRect(nodeTol)
}

type candidate struct {
	id     int64
	distSq float64
}

type SnapResult struct {
	NodeID int64
	// great-circle meters between the query point and the node
	OffsetMeters float64
	LocalRoad    bool
}

// Snapper maps a coordinate to a network node usable by a travel mode. Each mode has its
// own rtree over the nodes touching a mode-valid edge, the query box only narrows the
// candidates before the exact squared-degree filter.
type Snapper struct {
	g             SnapGraph
	trees         map[datastructure.TravelMode]*rtreego.Rtree
	allNodes      *rtreego.Rtree
	thresholds    []float64
	maxCandidates int
}

func NewSnapper(g SnapGraph, thresholds []float64, maxCandidates int) *Snapper {
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds
	}
	sorted := make([]float64, len(thresholds))
	copy(sorted, thresholds)
	sort.Float64s(sorted)

	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}

	s := &Snapper{
		g:             g,
		trees:         make(map[datastructure.TravelMode]*rtreego.Rtree),
		thresholds:    sorted,
		maxCandidates: maxCandidates,
	}
	s.allNodes = s.buildTree(g.NodeIDs())
	for _, mode := range []datastructure.TravelMode{datastructure.ModeCar, datastructure.ModeWalk} {
		ids := g.ModeNodeIDs(mode)
		if len(ids) == 0 {
			// pool kosong, pakai semua node
			s.trees[mode] = s.allNodes
			continue
		}
		s.trees[mode] = s.buildTree(ids)
	}
	return s
}

func (s *Snapper) buildTree(ids []int64) *rtreego.Rtree {
	tree := rtreego.NewTree(2, 25, 50) // 2 dimension, 25 min entries dan 50 max entries
	for _, id := range ids {
		n, ok := s.g.Node(id)
		if !ok {
			continue
		}
		tree.Insert(&nodeRect{id: id, location: rtreego.Point{n.Lat, n.Lon}})
	}
	return tree
}

func (s *Snapper) tree(mode datastructure.TravelMode) *rtreego.Rtree {
	if t, ok := s.trees[mode]; ok {
		return t
	}
	return s.allNodes
}

// candidates nodes strictly within threshold squared degrees, closest first, ties by id.
func (s *Snapper) candidates(tree *rtreego.Rtree, lat, lon, threshold float64) []candidate {
	query := rtreego.Point{lat, lon}.ToRect(math.Sqrt(threshold))
	found := tree.SearchIntersect(query)

	out := make([]candidate, 0, len(found))
	for _, sp := range found {
		nr := sp.(*nodeRect)
		dLat := nr.location[0] - lat
		dLon := nr.location[1] - lon
		distSq := dLat*dLat + dLon*dLon
		if distSq < threshold {
			out = append(out, candidate{id: nr.id, distSq: distSq})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].distSq != out[j].distSq {
			return out[i].distSq < out[j].distSq
		}
		return out[i].id < out[j].id
	})
	return out
}

// Snap returns the best entry node near (lat, lon) for mode. Among the closest candidates
// the first one with an outgoing service/residential/living_street edge wins, otherwise
// the closest. The radius widens through the thresholds until a candidate is found.
func (s *Snapper) Snap(lat, lon float64, mode datastructure.TravelMode) (SnapResult, bool) {
	tree := s.tree(mode)
	for _, threshold := range s.thresholds {
		cands := s.candidates(tree, lat, lon, threshold)
		if len(cands) == 0 {
			continue
		}
		if len(cands) > s.maxCandidates {
			cands = cands[:s.maxCandidates]
		}

		chosen := cands[0].id
		local := false
		for _, c := range cands {
			if s.g.HasRoadClass(c.id, datastructure.IsLocalRoad) {
				chosen = c.id
				local = true
				break
			}
		}

		n, _ := s.g.Node(chosen)
		return SnapResult{
			NodeID:       chosen,
			OffsetMeters: geo.S2Distance(lat, lon, n.Lat, n.Lon),
			LocalRoad:    local,
		}, true
	}
	return SnapResult{}, false
}

func (s *Snapper) NearestNode(lat, lon float64, mode datastructure.TravelMode) (int64, bool) {
	res, ok := s.Snap(lat, lon, mode)
	return res.NodeID, ok
}
