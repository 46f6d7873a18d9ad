package lref

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fgtools.fluvialgeomorph.org/internal/models"
)

func TestStationPointsStraightKilometer(t *testing.T) {
	r, err := BuildRoute(orb.LineString{{0, 0}, {1000, 0}}, "reach", 0, 1)
	require.NoError(t, err)

	pts, err := StationPoints(r, FixedSpacing(100))
	require.NoError(t, err)
	require.Len(t, pts, 11)

	for i, p := range pts {
		assert.True(t, p.HasMeasure())
		assert.InDelta(t, float64(i)*0.1, p.Measure, 1e-12)
		assert.InDelta(t, float64(i)*100, p.X, 1e-9)
		assert.Equal(t, "reach", p.RouteID)
	}
	assert.Equal(t, 0.0, pts[0].Measure)
	assert.Equal(t, 1.0, pts[10].Measure)
}

func TestStationPointsFirstMeasureEqualsFromMeasure(t *testing.T) {
	line := orb.LineString{{0, 0}, {37.5, 12}, {90, 40}, {140, 41}}
	for _, from := range []float64{0, 3.25, 12.9} {
		r, err := BuildRoute(line, "r", from, from+0.4)
		require.NoError(t, err)
		for _, spacing := range []float64{1, 7, 25, 500} {
			pts, err := StationPoints(r, FixedSpacing(spacing))
			require.NoError(t, err)
			require.NotEmpty(t, pts)
			assert.Equal(t, from, pts[0].Measure, "spacing %v", spacing)
			assert.Equal(t, from+0.4, pts[len(pts)-1].Measure)
			for i := 1; i < len(pts); i++ {
				assert.GreaterOrEqual(t, pts[i].Measure, pts[i-1].Measure)
			}
		}
	}
}

func TestStationPointsFixedSpacingKeepsRouteVertices(t *testing.T) {
	line := orb.LineString{{0, 0}, {150, 0}, {150, 45}, {400, 45}}
	r, err := BuildRoute(line, "bend", 0, 445)
	require.NoError(t, err)

	pts, err := StationPoints(r, FixedSpacing(100))
	require.NoError(t, err)

	var xy []orb.Point
	for _, p := range pts {
		xy = append(xy, orb.Point{p.X, p.Y})
	}
	for i, v := range line {
		assert.Contains(t, xy, v)
		assert.Equal(t, r.Measures[i], pts[indexOf(xy, v)].Measure)
	}
	// 150 -> 2 parts, 45 -> 1 part, 250 -> 3 parts
	require.Len(t, pts, 1+2+1+3)
	assert.InDeltaSlice(t, []float64{0, 75, 150, 195, 195 + 250.0/3, 195 + 500.0/3, 445}, stationMeasures(pts), 1e-9)
	for i := 1; i < len(pts); i++ {
		assert.LessOrEqual(t, pts[i].Measure-pts[i-1].Measure, 100+1e-9)
		assert.Equal(t, i, pts[i].Vertex)
	}
}

func indexOf(points []orb.Point, p orb.Point) int {
	for i, q := range points {
		if q == p {
			return i
		}
	}
	return -1
}

func stationMeasures(pts []models.StationPoint) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Measure
	}
	return out
}

func TestStationPointsExistingVertices(t *testing.T) {
	r, err := BuildRoute(orb.LineString{{0, 0}, {30, 40}, {30, 100}}, "xs", 0, 110)
	require.NoError(t, err)

	pts, err := StationPoints(r, ExistingVertices)
	require.NoError(t, err)
	require.Len(t, pts, 3)
	assert.Equal(t, []float64{0, 50, 110}, []float64{pts[0].Measure, pts[1].Measure, pts[2].Measure})
}

func TestModeForDistance(t *testing.T) {
	m, err := ModeForDistance(0)
	require.NoError(t, err)
	assert.Equal(t, ExistingVertices, m)

	m, err = ModeForDistance(5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, m.Spacing())

	_, err = ModeForDistance(-1)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)
}

func TestCorrectFirstMeasures(t *testing.T) {
	pts := []models.StationPoint{
		{RouteID: "1", Vertex: 1, Measure: 10},
		{RouteID: "1", Vertex: 0, Measure: math.NaN()},
		{RouteID: "2", Vertex: 0, Measure: math.NaN()},
		{RouteID: "3", Vertex: 0, Measure: 4},
	}
	changed := CorrectFirstMeasures(pts, map[string]float64{"1": 5})
	assert.Equal(t, 2, changed)
	assert.Equal(t, 5.0, pts[1].Measure)
	assert.Equal(t, 0.0, pts[2].Measure)
	assert.Equal(t, 4.0, pts[3].Measure)
	assert.Equal(t, 10.0, pts[0].Measure)
}

func TestStationPointsForRoutesOrdering(t *testing.T) {
	a, err := BuildRoute(orb.LineString{{0, 0}, {10, 0}}, "b", 0, 10)
	require.NoError(t, err)
	b, err := BuildRoute(orb.LineString{{0, 5}, {10, 5}}, "a", 0, 10)
	require.NoError(t, err)

	pts, err := StationPointsForRoutes([]*Route{a, b}, FixedSpacing(5))
	require.NoError(t, err)
	require.Len(t, pts, 6)
	assert.Equal(t, "a", pts[0].RouteID)
	assert.Equal(t, "b", pts[3].RouteID)
	assert.Equal(t, 0.0, pts[3].Measure)
}
