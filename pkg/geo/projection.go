package geo

import "math"

const (
	MetersPerDegreeLat = 111000.0
	// MetersPerDegreeLon for the reference campus region (~33.6 N).
	MetersPerDegreeLon = 93000.0

	metersPerDegreeEquator = 111320.0
)

// Projection is a local equirectangular projection used by the cost functions.
// It is only accurate for small regions around the latitude it was built for.
type Projection struct {
	latScale float64
	lonScale float64
}

// DefaultProjection uses the constants of the reference region.
func DefaultProjection() Projection {
	return Projection{
		latScale: MetersPerDegreeLat,
		lonScale: MetersPerDegreeLon,
	}
}

// NewProjectionAt recomputes the longitude scale for another region.
// refLat 0 means the default projection.
func NewProjectionAt(refLat float64) Projection {
	if refLat == 0 {
		return DefaultProjection()
	}
	return Projection{
		latScale: MetersPerDegreeLat,
		lonScale: metersPerDegreeEquator * math.Cos(refLat*math.Pi/180.0),
	}
}

func (p Projection) LonScale() float64 {
	return p.lonScale
}

// Distance in meters between two lat/lon points.
func (p Projection) Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dy := (lat2 - lat1) * p.latScale
	dx := (lon2 - lon1) * p.lonScale
	return math.Sqrt(dx*dx + dy*dy)
}
