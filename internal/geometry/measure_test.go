package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fgtools.fluvialgeomorph.org/internal/models"
)

func straightLine(length float64) orb.LineString {
	return orb.LineString{{0, 0}, {length, 0}}
}

func TestDensify(t *testing.T) {
	t.Run("splits segments evenly and keeps endpoints", func(t *testing.T) {
		out, err := Densify(straightLine(1000), 100)
		require.NoError(t, err)
		require.Len(t, out, 11)
		assert.Equal(t, orb.Point{0, 0}, out[0])
		assert.Equal(t, orb.Point{1000, 0}, out[10])
		for i := 1; i < len(out); i++ {
			assert.InDelta(t, 100, out[i][0]-out[i-1][0], 1e-9)
		}
	})

	t.Run("uneven segment keeps max gap under spacing", func(t *testing.T) {
		ls := orb.LineString{{0, 0}, {250, 0}, {250, 30}}
		out, err := Densify(ls, 100)
		require.NoError(t, err)
		// 250 -> 3 parts, 30 -> 1 part
		require.Len(t, out, 5)
		for i := 1; i < len(out); i++ {
			d := Length(orb.LineString{out[i-1], out[i]})
			assert.LessOrEqual(t, d, 100+Tolerance)
		}
		assert.Equal(t, ls[1], out[3])
	})

	t.Run("line shorter than spacing is unchanged", func(t *testing.T) {
		ls := straightLine(40)
		out, err := Densify(ls, 100)
		require.NoError(t, err)
		assert.Equal(t, ls, out)
	})

	t.Run("is idempotent", func(t *testing.T) {
		ls := orb.LineString{{0, 0}, {333.3, 12}, {700, -45}, {1234.5, 80}}
		once, err := Densify(ls, 37)
		require.NoError(t, err)
		twice, err := Densify(once, 37)
		require.NoError(t, err)
		assert.Equal(t, len(once), len(twice))
	})

	t.Run("rejects non-positive spacing", func(t *testing.T) {
		for _, s := range []float64{0, -5} {
			_, err := Densify(straightLine(10), s)
			assert.ErrorIs(t, err, models.ErrInvalidParameter)
		}
	})
}

func TestTotalLength(t *testing.T) {
	ls := straightLine(1000)

	km, err := TotalLength(ls, models.Meter, models.Kilometer)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, km, 1e-12)

	ft, err := TotalLength(ls, models.Meter, models.Foot)
	require.NoError(t, err)
	assert.InDelta(t, 3280.839895, ft, 1e-6)

	_, err = TotalLength(ls, models.Meter, models.LinearUnit("furlong"))
	assert.ErrorIs(t, err, models.ErrUnsupportedLinearUnit)
}

func TestInterpolateAndProject(t *testing.T) {
	ls := orb.LineString{{0, 0}, {100, 0}, {100, 100}}
	cum := CumulativeDistances(ls)
	assert.Equal(t, []float64{0, 100, 200}, cum)

	assert.Equal(t, orb.Point{50, 0}, Interpolate(ls, cum, 50))
	assert.Equal(t, orb.Point{100, 50}, Interpolate(ls, cum, 150))
	assert.Equal(t, orb.Point{0, 0}, Interpolate(ls, cum, -10))
	assert.Equal(t, orb.Point{100, 100}, Interpolate(ls, cum, 999))

	pr := ProjectPoint(ls, orb.Point{120, 40})
	assert.InDelta(t, 140, pr.Along, 1e-9)
	assert.InDelta(t, 20, pr.Offset, 1e-9)
	assert.Equal(t, 1, pr.Segment)
}

func TestIntersections(t *testing.T) {
	xs := orb.LineString{{50, -20}, {50, 20}}
	fl := orb.LineString{{0, 0}, {100, 0}}
	pts := Intersections(xs, fl)
	require.Len(t, pts, 1)
	assert.InDelta(t, 50, pts[0][0], 1e-9)
	assert.InDelta(t, 0, pts[0][1], 1e-9)

	assert.Empty(t, Intersections(orb.LineString{{0, 5}, {10, 5}}, fl))
}

func TestChain(t *testing.T) {
	a := orb.LineString{{0, 0}, {10, 0}}
	b := orb.LineString{{10, 0}, {20, 0}}
	c := orb.LineString{{50, 0}, {60, 0}}

	joined, ok := Chain([]orb.LineString{b, a})
	require.True(t, ok)
	assert.Equal(t, orb.LineString{{0, 0}, {10, 0}, {20, 0}}, joined)

	_, ok = Chain([]orb.LineString{a, c})
	assert.False(t, ok)
}
