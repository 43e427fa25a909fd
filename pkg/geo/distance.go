package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// haversine distance
const earthRadiusKM = 6371.0

type Location struct {
	Latitude  float64
	Longitude float64
}

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

func NewLocation(latDegree float64, lonDegree float64) Location {
	return Location{
		Latitude:  degreeToRadians(latDegree),
		Longitude: degreeToRadians(lonDegree),
	}
}

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

func havFormula(locationOne Location, locationTwo Location) float64 {
	latDiff := locationOne.Latitude - locationTwo.Latitude
	lonDiff := locationOne.Longitude - locationTwo.Longitude

	return havFunction(latDiff) + math.Cos(locationOne.Latitude)*math.Cos(locationTwo.Latitude)*havFunction(lonDiff)
}

func archaversine(havAngle float64) float64 {
	return 2.0 * math.Asin(math.Sqrt(havAngle))
}

// HaversineDistance in kilometers.
func HaversineDistance(locationOne Location, locationTwo Location) float64 {
	return earthRadiusKM * archaversine(havFormula(locationOne, locationTwo))
}

// S2Distance great-circle distance in meters, dipakai buat laporan jarak snap & panjang rute.
func S2Distance(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * earthRadiusKM * 1000
}

// ProjectToSegment returns the point on segment (aLat,aLon)-(bLat,bLon) closest to (lat,lon).
func ProjectToSegment(lat, lon, aLat, aLon, bLat, bLon float64) (float64, float64) {
	p := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	a := s2.PointFromLatLng(s2.LatLngFromDegrees(aLat, aLon))
	b := s2.PointFromLatLng(s2.LatLngFromDegrees(bLat, bLon))
	if a.ApproxEqual(b) {
		return aLat, aLon
	}
	proj := s2.LatLngFromPoint(s2.Project(p, a, b))
	return proj.Lat.Degrees(), proj.Lng.Degrees()
}
