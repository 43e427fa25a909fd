package cost

import "lintang/campusnav/pkg/datastructure"

const (
	// MaxCarBaseSpeed is the fastest road class speed in m/s.
	MaxCarBaseSpeed = 25.0
	// MaxCarSpeed bound atas speed mobil setelah bonus turunan (25 * 1.03), dibulatkan ke atas. dipakai heuristic.
	MaxCarSpeed = 26.0
	// MaxWalkSpeed is above the Tobler peak of 6/3.6 m/s at slope -0.05.
	MaxWalkSpeed = 1.8

	defaultCarSpeed = 8.3

	uphillFactor   = 0.92
	downhillFactor = 1.03
	slopeThreshold = 0.05
)

// CarBaseSpeed free-flow speed (m/s) per road class. unknown class pakai default.
func CarBaseSpeed(roadClass string) float64 {
	switch roadClass {
	case datastructure.RoadMotorway:
		return 25.0
	case datastructure.RoadMotorwayLink:
		return 19.4
	case datastructure.RoadTrunk:
		return 19.4
	case datastructure.RoadTrunkLink:
		return 16.7
	case datastructure.RoadPrimary:
		return 13.9
	case datastructure.RoadPrimaryLink:
		return 11.1
	case datastructure.RoadSecondary:
		return 11.1
	case datastructure.RoadSecondaryLink:
		return 9.7
	case datastructure.RoadTertiary:
		return 9.7
	case datastructure.RoadTertiaryLink:
		return 8.3
	case datastructure.RoadResidential:
		return 8.3
	case datastructure.RoadLivingStreet:
		return 5.6
	case datastructure.RoadService:
		return 5.6
	case datastructure.RoadUnclassified:
		return 8.3
	default:
		return defaultCarSpeed
	}
}

// RushHourMultiplier speed dibagi nilai ini saat rush hour. motorway/trunk paling macet.
func RushHourMultiplier(roadClass string) float64 {
	switch roadClass {
	case datastructure.RoadMotorway:
		return 1.5
	case datastructure.RoadMotorwayLink:
		return 1.6
	case datastructure.RoadTrunk, datastructure.RoadTrunkLink:
		return 2.0
	case datastructure.RoadPrimary:
		return 1.8
	case datastructure.RoadPrimaryLink:
		return 1.7
	case datastructure.RoadSecondary:
		return 1.5
	case datastructure.RoadSecondaryLink:
		return 1.4
	case datastructure.RoadTertiary:
		return 1.3
	case datastructure.RoadResidential:
		return 1.1
	default:
		return 1.0
	}
}

func hasTrafficLights(roadClass string) bool {
	switch roadClass {
	case datastructure.RoadPrimary, datastructure.RoadSecondary, datastructure.RoadTrunk:
		return true
	}
	return false
}

// IntersectionDelay seconds of signal delay for an edge of length dist.
// 2s per 500m on major roads, 4s during rush hour, 0 elsewhere.
func IntersectionDelay(roadClass string, dist float64, traffic TrafficCondition) float64 {
	if !hasTrafficLights(roadClass) {
		return 0
	}
	perBlock := 2.0
	if traffic.RushHour {
		perBlock = 4.0
	}
	return (dist / 500) * perBlock
}

// MaxSpeed for mode, never below any speed EdgeCost can produce.
func MaxSpeed(mode datastructure.TravelMode) float64 {
	if mode == datastructure.ModeCar {
		return MaxCarSpeed
	}
	return MaxWalkSpeed
}
