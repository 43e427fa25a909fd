package geo

import (
	"github.com/twpayne/go-polyline"
)

// RenderPath encode [lat, lon] pairs jadi google polyline string.
func RenderPath(coords [][]float64) string {
	if len(coords) == 0 {
		return ""
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodePath kebalikan RenderPath.
func DecodePath(s string) ([][]float64, error) {
	coords, _, err := polyline.DecodeCoords([]byte(s))
	return coords, err
}
