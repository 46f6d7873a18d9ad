package tools

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fgtools.fluvialgeomorph.org/internal/models"
)

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"out/points.csv", FormatCSV, false},
		{"out/points.GeoJSON", FormatGeoJSON, false},
		{"out/points.json", FormatGeoJSON, false},
		{"out/points.shp", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatForPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExportStationPoints(t *testing.T) {
	var buf bytes.Buffer
	tools := newTestTools(t, &buf)
	ctx := context.Background()
	importFlowline(t, tools, "flowline")
	_, err := tools.FlowlinePoints(ctx, FlowlinePointsParams{Flowline: "flowline", Output: "flowline_points", StationDistance: 500})
	require.NoError(t, err)

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "points.csv")
	n, err := tools.Export(ctx, "flowline_points", csvPath, "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close() // nolint:errcheck
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"route_id", "vertex", "POINT_M", "POINT_X", "POINT_Y", "POINT_Z",
		models.FieldUncalibrated, models.FieldReachName, models.FieldCalibrationDiff}, rows[0])
	assert.Equal(t, []string{"R", "0", "0", "0", "0", "", "0", "R", "0"}, rows[1])
	assert.Equal(t, "500", rows[2][3])

	jsonPath := filepath.Join(dir, "points.geojson")
	n, err = tools.Export(ctx, "flowline_points", jsonPath, "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	b, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(b)
	require.NoError(t, err)
	require.Len(t, fc.Features, 3)
	assert.Equal(t, orb.Point{1000, 0}, fc.Features[2].Geometry)
	assert.Equal(t, "R", fc.Features[2].Properties["route_id"])
}

func TestExportLinesAndUnknownDataset(t *testing.T) {
	var buf bytes.Buffer
	tools := newTestTools(t, &buf)
	ctx := context.Background()
	importFlowline(t, tools, "flowline")

	path := filepath.Join(t.TempDir(), "lines.csv")
	_, err := tools.Export(ctx, "flowline", path, FormatCSV)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "LINESTRING(0 0,1000 0)")

	_, err = tools.Export(ctx, "nope", path, FormatCSV)
	assert.Error(t, err)
}
