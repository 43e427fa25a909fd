package datastructure

import (
	"math"
	"strings"
)

type TravelMode string

const (
	ModeCar  TravelMode = "car"
	ModeWalk TravelMode = "walk"
)

// ParseTravelMode terima "car"/"drive" dan "walk"/"foot". selain itu ok=false.
func ParseTravelMode(s string) (TravelMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "car", "drive", "driving":
		return ModeCar, true
	case "walk", "foot", "walking":
		return ModeWalk, true
	}
	return "", false
}

// Node is a road network vertex. Elevation is in meters, 0 when unknown.
type Node struct {
	ID        int64
	Lat       float64
	Lon       float64
	Elevation float64
}

// Edge is a directed edge stored in the adjacency list of its source node.
// Weight is the physical length in meters, never a time cost. +Inf forbids traversal.
type Edge struct {
	ToNodeID  int64
	Weight    float64
	Walkable  bool
	Drivable  bool
	RoadClass string
	Geometry  string
}

// AllowedFor reports whether the edge may be used by mode and is not forbidden.
func (e Edge) AllowedFor(mode TravelMode) bool {
	if math.IsInf(e.Weight, 1) || math.IsNaN(e.Weight) {
		return false
	}
	switch mode {
	case ModeCar:
		return e.Drivable
	case ModeWalk:
		return e.Walkable
	}
	return false
}

type PointOfInterest struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Category string  `json:"type"`
}

const (
	RoadMotorway      = "motorway"
	RoadMotorwayLink  = "motorway_link"
	RoadTrunk         = "trunk"
	RoadTrunkLink     = "trunk_link"
	RoadPrimary       = "primary"
	RoadPrimaryLink   = "primary_link"
	RoadSecondary     = "secondary"
	RoadSecondaryLink = "secondary_link"
	RoadTertiary      = "tertiary"
	RoadTertiaryLink  = "tertiary_link"
	RoadResidential   = "residential"
	RoadLivingStreet  = "living_street"
	RoadService       = "service"
	RoadUnclassified  = "unclassified"
	RoadFootway       = "footway"
)

// localRoadClass road yang aman jadi titik masuk rute (jalan kampus / perumahan).
var localRoadClass = map[string]bool{
	RoadService:      true,
	RoadResidential:  true,
	RoadLivingStreet: true,
}

func IsLocalRoad(roadClass string) bool {
	return localRoadClass[roadClass]
}

// Leg is one consecutive (from, to) pair of a multi-stop route.
type Leg struct {
	From int64
	To   int64
}
