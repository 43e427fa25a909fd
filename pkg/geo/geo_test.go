package geo_test

import (
	"lintang/campusnav/pkg/geo"
	"lintang/campusnav/pkg/util"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjection(t *testing.T) {
	t.Run("default projection constants", func(t *testing.T) {
		p := geo.DefaultProjection()
		assert.InDelta(t, 111.0, p.Distance(33.644, 72.991, 33.645, 72.991), 1e-6)
		assert.InDelta(t, 93.0, p.Distance(33.644, 72.991, 33.644, 72.992), 1e-6)
		assert.InDelta(t, 0.0, p.Distance(33.644, 72.991, 33.644, 72.991), 1e-12)
	})

	t.Run("projection at another latitude", func(t *testing.T) {
		p := geo.NewProjectionAt(60)
		assert.InDelta(t, 55660.0, p.LonScale(), 1)
		assert.Equal(t, geo.MetersPerDegreeLon, geo.NewProjectionAt(0).LonScale())
	})
}

func TestDistances(t *testing.T) {
	t.Run("haversine and s2 agree on short distances", func(t *testing.T) {
		km := geo.HaversineDistance(geo.NewLocation(33.644, 72.991), geo.NewLocation(33.654, 72.991))
		m := geo.S2Distance(33.644, 72.991, 33.654, 72.991)
		assert.InDelta(t, km*1000, m, 0.5)
		assert.Equal(t, 1.11, util.RoundFloat(km, 2))
	})

	t.Run("projection onto a segment", func(t *testing.T) {
		lat, lon := geo.ProjectToSegment(33.645, 72.9915, 33.644, 72.991, 33.644, 72.992)
		assert.InDelta(t, 33.644, lat, 1e-4)
		assert.InDelta(t, 72.9915, lon, 1e-4)
	})
}

func TestRenderPath(t *testing.T) {
	coords := [][]float64{{33.644, 72.991}, {33.643, 72.992}, {33.642, 72.993}}
	s := geo.RenderPath(coords)
	require.NotEmpty(t, s)

	decoded, err := geo.DecodePath(s)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	for i := range coords {
		assert.True(t, math.Abs(coords[i][0]-decoded[i][0]) < 1e-5)
		assert.True(t, math.Abs(coords[i][1]-decoded[i][1]) < 1e-5)
	}

	assert.Equal(t, "", geo.RenderPath(nil))
}
