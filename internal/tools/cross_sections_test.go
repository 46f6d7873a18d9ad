package tools

import (
	"bytes"
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fgtools.fluvialgeomorph.org/internal/models"
	"fgtools.fluvialgeomorph.org/internal/raster"
	"fgtools.fluvialgeomorph.org/internal/watershed"
)

func verticalXS(x float64) orb.LineString {
	return orb.LineString{{x, -20}, {x, 20}}
}

func TestXSRiverPositionAndResequence(t *testing.T) {
	var buf bytes.Buffer
	tools := newTestTools(t, &buf)
	ctx := context.Background()
	importFlowline(t, tools, "flowline")
	_, err := tools.FlowlinePoints(ctx, FlowlinePointsParams{Flowline: "flowline", Output: "flowline_points", StationDistance: 100})
	require.NoError(t, err)

	xs := writeGeoJSONFixture(t, "xs.geojson",
		feature{geom: verticalXS(700), props: map[string]any{"Seq": 1.0}},
		feature{geom: verticalXS(300), props: map[string]any{"Seq": 2.0}},
		feature{geom: verticalXS(2000), props: map[string]any{"Seq": 3.0}},
	)
	_, err = tools.ImportCrossSections(ctx, xs, "xs", "", models.Meter)
	require.NoError(t, err)

	records, err := tools.XSRiverPosition(ctx, XSRiverPositionParams{CrossSections: "xs", Flowline: "flowline", FlowlinePoints: "flowline_points"})
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.NotNil(t, records[0].RiverPosition)
	assert.InDelta(t, 0.7, *records[0].RiverPosition, 1e-9)
	assert.Equal(t, "R", records[0].ReachName)
	require.NotNil(t, records[1].RiverPosition)
	assert.InDelta(t, 0.3, *records[1].RiverPosition, 1e-9)
	assert.Nil(t, records[2].RiverPosition)
	assert.Contains(t, buf.String(), "cross section does not cross the flowline")

	resequenced, err := tools.XSResequence(ctx, "xs", 1)
	require.NoError(t, err)
	require.Len(t, resequenced, 3)
	assert.Equal(t, 300.0, resequenced[0].Geometry[0][0])
	assert.Equal(t, 700.0, resequenced[1].Geometry[0][0])
	assert.Equal(t, 2000.0, resequenced[2].Geometry[0][0])

	stored, _, err := tools.Workspace.CrossSections(ctx, "xs")
	require.NoError(t, err)
	for i, r := range stored {
		assert.Equal(t, i+1, r.Seq)
		seq, ok := r.Attributes.Int("Seq")
		require.True(t, ok)
		assert.Equal(t, r.Seq, seq)
	}

	report, err := tools.XSCheck(ctx, "xs")
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestXSRiverPositionFromRoute(t *testing.T) {
	var buf bytes.Buffer
	tools := newTestTools(t, &buf)
	ctx := context.Background()
	importFlowline(t, tools, "flowline")

	xs := writeGeoJSONFixture(t, "xs.geojson",
		feature{geom: verticalXS(250), props: map[string]any{"Seq": 1.0}},
		feature{geom: verticalXS(640), props: map[string]any{"Seq": 2.0}},
	)
	_, err := tools.ImportCrossSections(ctx, xs, "xs", "", models.Meter)
	require.NoError(t, err)

	records, err := tools.XSRiverPosition(ctx, XSRiverPositionParams{CrossSections: "xs", Flowline: "flowline", KmToMouth: 2})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].RiverPosition)
	assert.InDelta(t, 2.25, *records[0].RiverPosition, 1e-9)
	require.NotNil(t, records[1].RiverPosition)
	assert.InDelta(t, 2.64, *records[1].RiverPosition, 1e-9)
	assert.Equal(t, "R", records[1].ReachName)
	assert.Contains(t, buf.String(), `"method":"route"`)
}

func TestXSWatershedAreaSmallWatershed(t *testing.T) {
	var buf bytes.Buffer
	tools := newTestTools(t, &buf)
	ctx := context.Background()
	importFlowline(t, tools, "flowline")

	accum := raster.NewGrid(40, 10, 0, -135, 30, -9999, models.Meter)
	for i := range accum.Data {
		accum.Data[i] = 1
	}
	accum.Set(5, 10, 500)
	path := writeGrid(t, accum)

	xs := writeGeoJSONFixture(t, "xs.geojson",
		feature{geom: verticalXS(315), props: map[string]any{"Seq": 1.0}},
		feature{geom: verticalXS(5000), props: map[string]any{"Seq": 2.0}},
	)
	_, err := tools.ImportCrossSections(ctx, xs, "xs", "", models.Meter)
	require.NoError(t, err)

	records, err := tools.XSWatershedArea(ctx, XSWatershedAreaParams{
		CrossSections: "xs",
		Flowline:      "flowline",
		FlowAccum:     path,
		SnapDistance:  30,
		Workers:       2,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].WatershedArea)
	assert.InDelta(t, 30*30*500*0.0000003861, *records[0].WatershedArea, 1e-9)
	assert.Equal(t, "R", records[0].ReachName)
	assert.Nil(t, records[1].WatershedArea)
	assert.Contains(t, buf.String(), "watershed area is less than a quarter square mile")

	stored, _, err := tools.Workspace.CrossSections(ctx, "xs")
	require.NoError(t, err)
	require.NotNil(t, stored[0].WatershedArea)
	assert.InDelta(t, *records[0].WatershedArea, *stored[0].WatershedArea, 1e-12)
}

func TestXSAssignLoops(t *testing.T) {
	var buf bytes.Buffer
	tools := newTestTools(t, &buf)
	ctx := context.Background()

	bank := []models.StationPoint{
		{RouteID: "L", Vertex: 0, Measure: 0, X: 0, Y: 0, Attributes: models.Attributes{models.FieldBank: models.BankLeft}},
		{RouteID: "L", Vertex: 1, Measure: 100, X: 100, Y: 0, Attributes: models.Attributes{models.FieldLoop: 2, models.FieldBend: 1}},
		{RouteID: "L", Vertex: 2, Measure: 200, X: 200, Y: 0, Attributes: models.Attributes{models.FieldLoop: 3, models.FieldBend: 2}},
	}
	require.NoError(t, tools.Workspace.WriteStationPoints(ctx, "bankline_points", models.Meter, bank, nil))

	xs := writeGeoJSONFixture(t, "xs.geojson",
		feature{geom: verticalXS(101), props: map[string]any{"Seq": 1.0}},
		feature{geom: verticalXS(500), props: map[string]any{"Seq": 2.0}},
	)
	_, err := tools.ImportCrossSections(ctx, xs, "xs", "", models.Meter)
	require.NoError(t, err)

	records, err := tools.XSAssignLoops(ctx, "xs", "bankline_points", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].Loop)
	assert.Equal(t, 2, *records[0].Loop)
	assert.Equal(t, 1, *records[0].Bend)
	assert.Nil(t, records[1].Loop)
}

func TestXSCheckReportsProblems(t *testing.T) {
	var buf bytes.Buffer
	tools := newTestTools(t, &buf)
	ctx := context.Background()

	xs := writeGeoJSONFixture(t, "xs.geojson",
		feature{geom: verticalXS(10), props: map[string]any{"Seq": 1.0, "ReachName": "R", "river_position": 0.1}},
		feature{geom: verticalXS(30), props: map[string]any{"Seq": 2.0, "ReachName": "R", "river_position": 0.3}},
		feature{geom: verticalXS(20), props: map[string]any{"Seq": 4.0, "ReachName": "R", "river_position": 0.2}},
	)
	_, err := tools.ImportCrossSections(ctx, xs, "xs", "", models.Meter)
	require.NoError(t, err)

	report, err := tools.XSCheck(ctx, "xs")
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, []watershed.SeqRange{{From: 3, To: 3}}, report.Sequence.Missing)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, 4, report.Violations[0].Seq)
	assert.Contains(t, buf.String(), `"violations":1`)
}
