package datastructure

const DefaultPOICellSize = 0.005

type GridPolicy string

const (
	// GridSingleCell hanya cek cell yang sama dengan titik query.
	GridSingleCell GridPolicy = "cell"
	// GridNeighborhood cek 3x3 cell di sekitar titik query, supaya titik dekat batas cell tetap lihat tetangganya.
	GridNeighborhood GridPolicy = "3x3"
)

type gridKey struct {
	lat int64
	lon int64
}

// SpatialGrid is a uniform hash grid of POIs. Keys truncate lat/lon toward zero.
type SpatialGrid struct {
	cellSize float64
	policy   GridPolicy
	cells    map[gridKey][]PointOfInterest
	size     int
}

func NewSpatialGrid(cellSize float64, policy GridPolicy) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = DefaultPOICellSize
	}
	if policy != GridSingleCell {
		policy = GridNeighborhood
	}
	return &SpatialGrid{
		cellSize: cellSize,
		policy:   policy,
		cells:    make(map[gridKey][]PointOfInterest),
	}
}

func (s *SpatialGrid) key(lat, lon float64) gridKey {
	return gridKey{
		lat: int64(lat / s.cellSize),
		lon: int64(lon / s.cellSize),
	}
}

func (s *SpatialGrid) Insert(p PointOfInterest) {
	k := s.key(p.Lat, p.Lon)
	s.cells[k] = append(s.cells[k], p)
	s.size++
}

func (s *SpatialGrid) Len() int {
	return s.size
}

func (s *SpatialGrid) Policy() GridPolicy {
	return s.policy
}

// Nearby returns the POIs in the query cell, or in the 3x3 block around it
// depending on the policy. Order: by cell (dx, dy from -1 to 1), then insertion.
func (s *SpatialGrid) Nearby(lat, lon float64) []PointOfInterest {
	center := s.key(lat, lon)
	if s.policy == GridSingleCell {
		pois := s.cells[center]
		out := make([]PointOfInterest, len(pois))
		copy(out, pois)
		return out
	}

	out := []PointOfInterest{}
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			out = append(out, s.cells[gridKey{center.lat + dx, center.lon + dy}]...)
		}
	}
	return out
}

// All returns every indexed POI, unordered across cells.
func (s *SpatialGrid) All() []PointOfInterest {
	out := make([]PointOfInterest, 0, s.size)
	for _, pois := range s.cells {
		out = append(out, pois...)
	}
	return out
}
