package tools

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"

	"fgtools.fluvialgeomorph.org/fgdb"
	"fgtools.fluvialgeomorph.org/internal/app"
	"fgtools.fluvialgeomorph.org/internal/appconf"
	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
	"fgtools.fluvialgeomorph.org/internal/raster"
)

func newTestTools(t *testing.T, buf *bytes.Buffer) *Tools {
	t.Helper()
	client, err := fgdb.NewClient(fgdb.NewConfig(":memory:", appconf.Test, false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return New(&app.Application{
		Config:    appconf.Config{Env: appconf.Test},
		Tools:     app.DefaultConfig().Tools,
		Logger:    logging.NewStructuredLogger(buf, slog.LevelDebug),
		Workspace: client,
	})
}

type feature struct {
	geom  orb.Geometry
	props map[string]any
}

func writeGeoJSONFixture(t *testing.T, name string, features ...feature) string {
	t.Helper()
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		gf := geojson.NewFeature(f.geom)
		for k, v := range f.props {
			gf.Properties[k] = v
		}
		fc.Append(gf)
	}
	b, err := fc.MarshalJSON()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func writeGrid(t *testing.T, g *raster.Grid) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.asc")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, raster.WriteASCIIGrid(f, g))
	require.NoError(t, f.Close())
	return path
}

// importFlowline loads a straight 1000 m reach "R" along the x axis.
func importFlowline(t *testing.T, tools *Tools, dataset string) {
	t.Helper()
	path := writeGeoJSONFixture(t, "flowline.geojson", feature{
		geom:  orb.LineString{{0, 0}, {1000, 0}},
		props: map[string]any{models.FieldReachName: "R"},
	})
	n, err := tools.ImportLines(context.Background(), LineImport{Path: path, Dataset: dataset, Unit: models.Meter})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
