package watershed

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/lref"
	"fgtools.fluvialgeomorph.org/internal/models"
	"fgtools.fluvialgeomorph.org/internal/raster"
)

func testContext(buf *bytes.Buffer) context.Context {
	return logging.WithLogger(context.Background(), logging.NewStructuredLogger(buf, slog.LevelDebug))
}

// uniformGrid is a size x size grid of value with a distinct center cell.
func uniformGrid(size int, cell, value, center float64, unit models.LinearUnit) *raster.Grid {
	g := raster.NewGrid(size, size, 0, 0, cell, -9999, unit)
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			g.Set(r, c, value)
		}
	}
	g.Set(size/2, size/2, center)
	return g
}

func TestWatershedAreaSmallWarning(t *testing.T) {
	var buf bytes.Buffer
	accum := uniformGrid(3, 30, 1, 500, models.Meter)

	a, err := WatershedArea(testContext(&buf), orb.Point{45, 45}, accum, 0, "")
	require.NoError(t, err)

	assert.InDelta(t, 0.1740, a.SquareMiles, 0.0005)
	assert.InDelta(t, 30*30*500*SqMilesPerSqMeter, a.SquareMiles, 1e-12)
	assert.Equal(t, 500.0, a.CellCount)
	assert.True(t, a.Small)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), "less than a quarter square mile")
}

func TestWatershedAreaMetersAndFeetAgree(t *testing.T) {
	var buf bytes.Buffer
	ctx := testContext(&buf)
	const count = 250000.0

	meters := uniformGrid(3, 30, 1, count, models.Meter)
	feetCell := 30 / 0.3048
	feet := uniformGrid(3, feetCell, 1, count, models.Foot)

	am, err := WatershedArea(ctx, orb.Point{45, 45}, meters, 0, "")
	require.NoError(t, err)
	af, err := WatershedArea(ctx, orb.Point{1.5 * feetCell, 1.5 * feetCell}, feet, 0, "")
	require.NoError(t, err)

	assert.False(t, am.Small)
	assert.InEpsilon(t, am.SquareMiles, af.SquareMiles, 0.01)
}

func TestWatershedAreaUnsupportedUnit(t *testing.T) {
	var buf bytes.Buffer
	accum := uniformGrid(3, 30, 1, 500, models.Kilometer)

	_, err := WatershedArea(testContext(&buf), orb.Point{45, 45}, accum, 0, "")
	assert.True(t, errors.Is(err, models.ErrUnsupportedLinearUnit))

	_, err = WatershedArea(testContext(&buf), orb.Point{45, 45}, accum, 0, models.Meter)
	assert.NoError(t, err, "explicit unit overrides the grid")
}

func TestSnapPourPoint(t *testing.T) {
	g := uniformGrid(5, 10, 1, 10, models.Meter)
	g.Set(1, 1, 1000)

	tests := []struct {
		name     string
		snap     float64
		row, col int
		count    float64
	}{
		{"own cell only", 5, 2, 2, 10},
		{"reaches the high cell", 15, 1, 1, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, col, count, err := SnapPourPoint(orb.Point{25, 25}, g, tt.snap)
			require.NoError(t, err)
			assert.Equal(t, tt.row, row)
			assert.Equal(t, tt.col, col)
			assert.Equal(t, tt.count, count)
		})
	}

	t.Run("ties go to the lowest row and column", func(t *testing.T) {
		g.Set(1, 3, 1000)
		row, col, _, err := SnapPourPoint(orb.Point{25, 25}, g, 15)
		require.NoError(t, err)
		assert.Equal(t, 1, row)
		assert.Equal(t, 1, col)
	})

	t.Run("nothing in reach", func(t *testing.T) {
		_, _, _, err := SnapPourPoint(orb.Point{500, 500}, g, 5)
		assert.True(t, errors.Is(err, models.ErrNoMatchFound))
	})

	t.Run("negative distance", func(t *testing.T) {
		_, _, _, err := SnapPourPoint(orb.Point{25, 25}, g, -1)
		assert.True(t, errors.Is(err, models.ErrInvalidParameter))
	})
}

func TestWatershedAreasKeepOrder(t *testing.T) {
	var buf bytes.Buffer
	g := raster.NewGrid(4, 1, 0, 0, 100, -9999, models.Meter)
	for c := 0; c < 4; c++ {
		g.Set(0, c, float64(1000*(c+1)))
	}
	pours := []PourPoint{
		{Seq: 3, Point: orb.Point{350, 50}},
		{Seq: 1, Point: orb.Point{50, 50}},
		{Seq: 2, Point: orb.Point{150, 50}},
	}

	for _, workers := range []int{0, 1, 4} {
		areas, err := WatershedAreas(testContext(&buf), pours, g, 0, "", workers)
		require.NoError(t, err)
		require.Len(t, areas, 3)
		assert.Equal(t, 3, areas[0].Seq)
		assert.Equal(t, 4000.0, areas[0].CellCount)
		assert.Equal(t, 1000.0, areas[1].CellCount)
		assert.Equal(t, 2000.0, areas[2].CellCount)
	}

	_, err := WatershedAreas(testContext(&buf), []PourPoint{{Seq: 9, Point: orb.Point{5000, 5000}}}, g, 0, "", 2)
	assert.True(t, errors.Is(err, models.ErrNoMatchFound))
	assert.Contains(t, err.Error(), "seq 9")
}

func TestRiverPosition(t *testing.T) {
	r, err := lref.BuildRoute(orb.LineString{{0, 0}, {1000, 0}}, "flowline", 0, 1)
	require.NoError(t, err)

	m, err := RiverPosition(orb.Point{250, 40}, r)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, m, 1e-12)

	_, err = RiverPosition(orb.Point{0, 0}, nil)
	assert.True(t, errors.Is(err, models.ErrInvalidParameter))
}

func TestRiverPositionFromStations(t *testing.T) {
	points := []models.StationPoint{
		{RouteID: "1", Measure: 0.0, X: 0},
		{RouteID: "1", Measure: 0.1, X: 100},
		{RouteID: "1", Measure: 0.2, X: 200},
		{RouteID: "1", Measure: math.NaN(), X: 140},
	}

	m, err := RiverPositionFromStations(orb.Point{140, 0}, points)
	require.NoError(t, err)
	assert.Equal(t, 0.1, m)

	m, err = RiverPositionFromStations(orb.Point{150, 0}, points)
	require.NoError(t, err)
	assert.Equal(t, 0.1, m, "equidistant picks the lower measure")

	_, err = RiverPositionFromStations(orb.Point{0, 0}, nil)
	assert.True(t, errors.Is(err, models.ErrNoMatchFound))
}

func TestCrossingPoint(t *testing.T) {
	flowlines := []lref.RouteLine{
		{RouteID: "b", Line: orb.LineString{{0, 5}, {100, 5}}, Attributes: models.Attributes{models.FieldReachName: "B"}},
		{RouteID: "a", Line: orb.LineString{{0, 0}, {100, 0}}, Attributes: models.Attributes{models.FieldReachName: "A"}},
	}

	c, err := CrossingPoint(orb.LineString{{50, -10}, {50, 10}}, flowlines)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Flowline)
	assert.Equal(t, "A", c.ReachName)
	assert.InDelta(t, 50, c.Point[0], 1e-9)
	assert.InDelta(t, 0, c.Point[1], 1e-9)

	_, err = CrossingPoint(orb.LineString{{500, -10}, {500, 10}}, flowlines)
	assert.True(t, errors.Is(err, models.ErrNoMatchFound))
}

func TestResequence(t *testing.T) {
	records := []models.CrossSectionRecord{
		{Seq: 1, RiverPosition: models.Float64Ptr(3)},
		{Seq: 2, RiverPosition: models.Float64Ptr(1)},
		{Seq: 3},
		{Seq: 4, RiverPosition: models.Float64Ptr(2)},
	}

	out := Resequence(records, 1)
	require.Len(t, out, 4)
	var positions []float64
	for i, r := range out {
		assert.Equal(t, i+1, r.Seq)
		if r.RiverPosition != nil {
			positions = append(positions, *r.RiverPosition)
		}
	}
	assert.Equal(t, []float64{1, 2, 3}, positions)
	assert.Nil(t, out[3].RiverPosition)
	assert.Equal(t, 1, records[0].Seq, "input is not modified")
	assert.True(t, CheckSequence(out).OK())
}

func TestCheckMonotonic(t *testing.T) {
	records := []models.CrossSectionRecord{
		{Seq: 3, ReachName: "A", RiverPosition: models.Float64Ptr(0.2), WatershedArea: models.Float64Ptr(3)},
		{Seq: 1, ReachName: "A", RiverPosition: models.Float64Ptr(0.1), WatershedArea: models.Float64Ptr(1)},
		{Seq: 2, ReachName: "A", RiverPosition: models.Float64Ptr(0.3), WatershedArea: models.Float64Ptr(2)},
		{Seq: 4, ReachName: "B", WatershedArea: models.Float64Ptr(5)},
		{Seq: 5, ReachName: "B", WatershedArea: models.Float64Ptr(4)},
	}

	v := CheckMonotonic(records)
	require.Len(t, v, 2)
	assert.Equal(t, Violation{ReachName: "A", Field: FieldRiverPosition, PrevSeq: 2, Seq: 3, Prev: 0.3, Value: 0.2}, v[0])
	assert.Equal(t, FieldWatershedArea, v[1].Field)
	assert.Equal(t, "B", v[1].ReachName)
	assert.Contains(t, v[0].String(), "seq 3")

	assert.Empty(t, CheckMonotonic(records[:2]))
}

func TestCheckSequence(t *testing.T) {
	rep := CheckSequence([]models.CrossSectionRecord{{Seq: 1}, {Seq: 2}, {Seq: 2}, {Seq: 5}})
	assert.False(t, rep.OK())
	assert.Equal(t, []int{2}, rep.Duplicates)
	assert.Equal(t, []SeqRange{{From: 3, To: 4}}, rep.Missing)
	assert.Equal(t, 2, rep.MissingCount())

	assert.True(t, CheckSequence(nil).OK())
}

func TestCheckSequenceWideGap(t *testing.T) {
	rep := CheckSequence([]models.CrossSectionRecord{{Seq: 20000000}, {Seq: 1}, {Seq: 2}, {Seq: 9}})
	assert.False(t, rep.OK())
	assert.Empty(t, rep.Duplicates)
	assert.Equal(t, []SeqRange{{From: 3, To: 8}, {From: 10, To: 19999999}}, rep.Missing)
	assert.Equal(t, 19999996, rep.MissingCount())
}
