package fgdb

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fgtools.fluvialgeomorph.org/internal/appconf"
	"fgtools.fluvialgeomorph.org/internal/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(NewConfig(":memory:", appconf.Test, false))
	require.NoError(t, err, "NewClient should succeed")
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClient_InvalidConfigHandling(t *testing.T) {
	client, err := NewClient(NewConfig("/tmp/invalid_test_db.sqlite", appconf.Test, false))
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "test database must use in-memory storage")

	_, err = NewClient(NewConfig("", appconf.Development, false))
	assert.Error(t, err)
}

func TestNewClient_AppliesSchema(t *testing.T) {
	client := newTestClient(t)

	counts, err := client.TableCounts(context.Background())
	require.NoError(t, err)
	for _, table := range []string{"datasets", "line_features", "station_points", "cross_sections", "loop_points"} {
		n, ok := counts[table]
		assert.True(t, ok, table)
		assert.Zero(t, n, table)
	}
	assert.NotEmpty(t, client.RunID())
}

func TestLinesRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	lines := []LineFeature{
		{FID: 2, RouteID: "b", Geometry: orb.LineString{{0, 0}, {10, 0}}},
		{FID: 1, RouteID: "a", Geometry: orb.LineString{{0, 0}, {0, 10}, {5, 15}}, Attributes: models.Attributes{"ReachName": "upper"}},
	}
	require.NoError(t, client.WriteLines(ctx, "flowline", models.Meter, lines))

	got, unit, err := client.Lines(ctx, "flowline")
	require.NoError(t, err)
	assert.Equal(t, models.Meter, unit)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].RouteID)
	assert.Equal(t, lines[1].Geometry, got[0].Geometry)
	assert.Equal(t, "upper", got[0].Attributes["ReachName"])

	got, _, err = client.Lines(ctx, "flowline", Where("ReachName", Eq, "upper"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].FID)

	_, _, err = client.Lines(ctx, "missing")
	assert.True(t, errors.Is(err, ErrDatasetNotFound))
}

func TestStationPointsCorrectFirstMeasure(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	points := []models.StationPoint{
		{RouteID: "1", Vertex: 1, Measure: 0.5, X: 50},
		{RouteID: "1", Vertex: 0, Measure: math.NaN(), X: 0},
		{RouteID: "1", Vertex: 2, Measure: 1.0, X: 100, Z: models.Float64Ptr(12.5)},
		{RouteID: "2", Vertex: 0, Measure: math.NaN(), X: 0, Y: 10},
	}
	require.NoError(t, client.WriteStationPoints(ctx, "flowline_points", models.Meter, points, map[string]float64{"1": 0.25}))

	got, err := client.StationPoints(ctx, "flowline_points")
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "1", got[0].RouteID)
	assert.Equal(t, 0.25, got[0].Measure, "first station takes the stored from_measure")
	assert.Equal(t, 0.5, got[1].Measure)
	require.NotNil(t, got[2].Z)
	assert.Equal(t, 12.5, *got[2].Z)
	assert.Equal(t, 0.0, got[3].Measure, "routes without a from_measure start at 0")

	got, err = client.StationPoints(ctx, "flowline_points", Where("measure", Ge, 0.5), Where("route_id", Eq, "1"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0.5, got[0].Measure, "filtering does not move the first station")

	got, err = client.StationPoints(ctx, "flowline_points", Where("measure", Le, 0.0))
	require.NoError(t, err)
	require.Len(t, got, 1, "filters see the corrected first measure")
	assert.Equal(t, "2", got[0].RouteID)
}

func TestStationPointsAttributePredicates(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	points := []models.StationPoint{
		{RouteID: "left", Vertex: 0, Measure: 0, Attributes: models.Attributes{models.FieldBank: "left", models.FieldLoop: 1}},
		{RouteID: "left", Vertex: 1, Measure: 10, Attributes: models.Attributes{models.FieldBank: "left"}},
		{RouteID: "right", Vertex: 0, Measure: 0, Attributes: models.Attributes{models.FieldBank: "right", models.FieldLoop: 2}},
	}
	require.NoError(t, client.WriteStationPoints(ctx, "bankline_points", models.Meter, points, nil))

	got, err := client.StationPoints(ctx, "bankline_points", Where(models.FieldLoop, IsNotNull, nil))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = client.StationPoints(ctx, "bankline_points",
		Where(models.FieldBank, Eq, "left"), Where(models.FieldLoop, IsNull, nil))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 10.0, got[0].Measure)

	_, err = client.StationPoints(ctx, "bankline_points", Where("bank", "LIKE", "l%"))
	assert.True(t, errors.Is(err, models.ErrInvalidParameter))
}

func TestCrossSectionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	records := []models.CrossSectionRecord{
		{Seq: 2, ReachName: "A", Geometry: orb.LineString{{0, 0}, {0, 10}}},
		{Seq: 1, ReachName: "A", RiverPosition: models.Float64Ptr(0.4), WatershedArea: models.Float64Ptr(12.1),
			Loop: models.IntPtr(3), Bend: models.IntPtr(1), Geometry: orb.LineString{{5, 0}, {5, 10}}},
	}
	require.NoError(t, client.WriteCrossSections(ctx, "cross_section", models.Foot, records))

	got, unit, err := client.CrossSections(ctx, "cross_section")
	require.NoError(t, err)
	assert.Equal(t, models.Foot, unit)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Seq)
	assert.Equal(t, 0.4, *got[0].RiverPosition)
	assert.Equal(t, 3, *got[0].Loop)
	assert.Nil(t, got[1].RiverPosition)
	assert.Nil(t, got[1].Loop)

	got, _, err = client.CrossSections(ctx, "cross_section", Where("loop", IsNotNull, nil))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = client.StationPoints(ctx, "cross_section")
	assert.True(t, errors.Is(err, models.ErrInvalidParameter), "kind mismatch")
}

func TestLoopPoints(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	points := []models.LoopPoint{
		{Loop: 2, Bend: 1, Position: models.PositionStart, X: 1, Y: 1},
		{Loop: 1, Bend: 0, Position: models.PositionApex, X: 2, Y: 2},
	}
	require.NoError(t, client.WriteLoopPoints(ctx, "loop_points", models.Meter, points))

	got, err := client.LoopPoints(ctx, "loop_points")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Loop)

	got, err = client.LoopPoints(ctx, "loop_points", Where("loop", Eq, 2))
	require.NoError(t, err)
	assert.Equal(t, []models.LoopPoint{points[0]}, got)

	_, err = client.LoopPoints(ctx, "loop_points", Where("colour", Eq, "red"))
	assert.True(t, errors.Is(err, models.ErrInvalidParameter))
}

func TestDatasets(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	require.NoError(t, client.WriteLoopPoints(ctx, "b_loops", models.Meter, []models.LoopPoint{{Loop: 1}}))
	require.NoError(t, client.WriteStationPoints(ctx, "a_points", models.Meter, []models.StationPoint{{RouteID: "1"}, {RouteID: "1", Vertex: 1}}, nil))

	ds, err := client.ListDatasets(ctx)
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, "a_points", ds[0].Name)
	assert.Equal(t, KindStations, ds[0].Kind)
	assert.Equal(t, 2, ds[0].Features)
	assert.Equal(t, client.RunID(), ds[0].RunID)

	// Rewriting replaces the old features.
	require.NoError(t, client.WriteStationPoints(ctx, "a_points", models.Meter, []models.StationPoint{{RouteID: "9"}}, nil))
	d, err := client.GetDataset(ctx, "a_points")
	require.NoError(t, err)
	assert.Equal(t, 1, d.Features)

	require.NoError(t, client.DropDataset(ctx, "a_points"))
	_, err = client.GetDataset(ctx, "a_points")
	assert.True(t, errors.Is(err, ErrDatasetNotFound))

	counts, err := client.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counts["station_points"])
	assert.Equal(t, 1, counts["loop_points"])
}
