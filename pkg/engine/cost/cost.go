package cost

import (
	"math"

	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/geo"
)

// TrafficCondition is passed into every search. The zero value is normal traffic.
type TrafficCondition struct {
	RushHour bool
}

var (
	NormalTraffic   = TrafficCondition{}
	RushHourTraffic = TrafficCondition{RushHour: true}
)

// ToblerSpeed walking speed in m/s for a slope (rise over run).
func ToblerSpeed(slope float64) float64 {
	speedKmh := 6 * math.Exp(-3.5*math.Abs(slope+0.05))
	return speedKmh / 3.6
}

// ToblerTime seconds to walk dist meters with an elevation change of elevDiff meters.
func ToblerTime(dist, elevDiff float64) float64 {
	if dist == 0 {
		return 0
	}
	return dist / ToblerSpeed(elevDiff/dist)
}

// CarTime seconds to drive dist meters on roadClass with an elevation change of elevDiff.
func CarTime(dist, elevDiff float64, roadClass string, traffic TrafficCondition) float64 {
	if dist == 0 {
		return 0
	}
	speed := CarBaseSpeed(roadClass)
	if traffic.RushHour {
		speed = speed / RushHourMultiplier(roadClass)
	}

	slope := elevDiff / dist
	if slope > slopeThreshold {
		speed *= uphillFactor
	} else if slope < -slopeThreshold {
		speed *= downhillFactor
	}

	return dist/speed + IntersectionDelay(roadClass, dist, traffic)
}

// CostFunction converts edges to travel time and estimates remaining time for A*.
type CostFunction struct {
	proj geo.Projection
}

func NewCostFunction(proj geo.Projection) *CostFunction {
	return &CostFunction{proj: proj}
}

func (c *CostFunction) Projection() geo.Projection {
	return c.proj
}

// Distance straight-line meters between two nodes.
func (c *CostFunction) Distance(a, b datastructure.Node) float64 {
	return c.proj.Distance(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Heuristic lower bound on travel seconds from a to b. distance / max speed of the mode.
func (c *CostFunction) Heuristic(a, b datastructure.Node, mode datastructure.TravelMode) float64 {
	return c.Distance(a, b) / MaxSpeed(mode)
}

// EdgeCost travel seconds over e from -> to. The edge weight is used as the distance,
// so a penalized weight makes the edge proportionally slower. Forbidden edges cost +Inf.
func (c *CostFunction) EdgeCost(from, to datastructure.Node, e datastructure.Edge,
	mode datastructure.TravelMode, traffic TrafficCondition) float64 {
	if math.IsInf(e.Weight, 1) {
		return math.Inf(1)
	}
	elevDiff := to.Elevation - from.Elevation
	if mode == datastructure.ModeWalk {
		return ToblerTime(e.Weight, elevDiff)
	}
	return CarTime(e.Weight, elevDiff, e.RoadClass, traffic)
}
