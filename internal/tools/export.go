package tools

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"fgtools.fluvialgeomorph.org/fgdb"
	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// Export formats.
const (
	FormatCSV     = "csv"
	FormatGeoJSON = "geojson"
)

// FormatForPath picks the export format from a file extension.
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".geojson", ".json":
		return FormatGeoJSON, nil
	}
	return "", fmt.Errorf("%w: cannot infer an export format from %q", models.ErrInvalidParameter, path)
}

// table is a dataset flattened for export.
type table struct {
	columns  []string
	rows     [][]any
	geometry []orb.Geometry
}

// Export writes dataset to path as CSV or GeoJSON. An empty format is
// inferred from the extension.
func (t *Tools) Export(ctx context.Context, dataset, path, format string) (n int, err error) {
	ctx = t.withLogger(ctx)
	if format == "" {
		if format, err = FormatForPath(path); err != nil {
			return 0, err
		}
	}
	tbl, err := t.readTable(ctx, dataset)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("error creating %s: %w", path, err)
	}
	logger := logging.FromContext(ctx)
	defer logging.CloseFile(&err, logger, f, path)

	switch format {
	case FormatCSV:
		err = writeCSV(f, tbl)
	case FormatGeoJSON:
		err = writeGeoJSON(f, tbl)
	default:
		err = fmt.Errorf("%w: export format %q", models.ErrInvalidParameter, format)
	}
	if err != nil {
		return 0, err
	}
	logging.LogOperation(logger, "dataset exported",
		slog.String("component", "export"),
		slog.String("dataset", dataset),
		slog.String("path", path),
		slog.String("format", format),
		slog.Int("features", len(tbl.rows)))
	return len(tbl.rows), nil
}

func (t *Tools) readTable(ctx context.Context, dataset string) (*table, error) {
	d, err := t.Workspace.GetDataset(ctx, dataset)
	if err != nil {
		return nil, err
	}
	switch d.Kind {
	case fgdb.KindLines:
		lines, _, err := t.Workspace.Lines(ctx, dataset)
		if err != nil {
			return nil, err
		}
		return linesTable(lines), nil
	case fgdb.KindStations:
		points, err := t.Workspace.StationPoints(ctx, dataset)
		if err != nil {
			return nil, err
		}
		return stationsTable(points), nil
	case fgdb.KindCrossSections:
		records, _, err := t.Workspace.CrossSections(ctx, dataset)
		if err != nil {
			return nil, err
		}
		return crossSectionsTable(records), nil
	case fgdb.KindLoopPoints:
		points, err := t.Workspace.LoopPoints(ctx, dataset)
		if err != nil {
			return nil, err
		}
		return loopPointsTable(points), nil
	}
	return nil, fmt.Errorf("%w: dataset %s has unknown kind %q", models.ErrInvalidParameter, dataset, d.Kind)
}

// attributeKeys returns the sorted union of attribute names, minus the
// fixed columns.
func attributeKeys(fixed []string, attrs ...models.Attributes) []string {
	skip := make(map[string]bool, len(fixed))
	for _, f := range fixed {
		skip[f] = true
	}
	seen := map[string]bool{}
	var keys []string
	for _, a := range attrs {
		for k := range a {
			if !skip[k] && !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func appendAttributes(row []any, keys []string, attrs models.Attributes) []any {
	for _, k := range keys {
		row = append(row, attrs[k])
	}
	return row
}

func linesTable(lines []fgdb.LineFeature) *table {
	fixed := []string{"fid", "route_id", "wkt"}
	all := make([]models.Attributes, len(lines))
	for i, l := range lines {
		all[i] = l.Attributes
	}
	keys := attributeKeys(fixed, all...)
	tbl := &table{columns: append(fixed, keys...)}
	for _, l := range lines {
		row := []any{l.FID, l.RouteID, wkt.MarshalString(l.Geometry)}
		tbl.rows = append(tbl.rows, appendAttributes(row, keys, l.Attributes))
		tbl.geometry = append(tbl.geometry, l.Geometry)
	}
	return tbl
}

func stationsTable(points []models.StationPoint) *table {
	fixed := []string{"route_id", "vertex", "POINT_M", "POINT_X", "POINT_Y", "POINT_Z"}
	all := make([]models.Attributes, len(points))
	for i, p := range points {
		all[i] = p.Attributes
	}
	keys := attributeKeys(fixed, all...)
	tbl := &table{columns: append(fixed, keys...)}
	for _, p := range points {
		var z any
		if p.Z != nil {
			z = *p.Z
		}
		row := []any{p.RouteID, p.Vertex, p.Measure, p.X, p.Y, z}
		tbl.rows = append(tbl.rows, appendAttributes(row, keys, p.Attributes))
		tbl.geometry = append(tbl.geometry, orb.Point{p.X, p.Y})
	}
	return tbl
}

func crossSectionsTable(records []models.CrossSectionRecord) *table {
	fixed := []string{"Seq", models.FieldReachName, "river_position", "watershed_area", models.FieldLoop, models.FieldBend}
	all := make([]models.Attributes, len(records))
	for i, r := range records {
		all[i] = r.Attributes
	}
	keys := attributeKeys(fixed, all...)
	tbl := &table{columns: append(fixed, keys...)}
	for _, r := range records {
		row := []any{r.Seq, r.ReachName, floatOrNil(r.RiverPosition), floatOrNil(r.WatershedArea), intOrNil(r.Loop), intOrNil(r.Bend)}
		tbl.rows = append(tbl.rows, appendAttributes(row, keys, r.Attributes))
		tbl.geometry = append(tbl.geometry, r.Geometry)
	}
	return tbl
}

func loopPointsTable(points []models.LoopPoint) *table {
	tbl := &table{columns: []string{models.FieldLoop, models.FieldBend, models.FieldPosition, "POINT_X", "POINT_Y"}}
	for _, p := range points {
		tbl.rows = append(tbl.rows, []any{p.Loop, p.Bend, p.Position, p.X, p.Y})
		tbl.geometry = append(tbl.geometry, orb.Point{p.X, p.Y})
	}
	return tbl
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func intOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// formatValue renders a cell. Nil and NaN become empty cells.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

func writeCSV(w io.Writer, tbl *table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tbl.columns); err != nil {
		return err
	}
	record := make([]string, len(tbl.columns))
	for _, row := range tbl.rows {
		for i, v := range row {
			record[i] = formatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeGeoJSON(w io.Writer, tbl *table) error {
	fc := geojson.NewFeatureCollection()
	for i, row := range tbl.rows {
		f := geojson.NewFeature(tbl.geometry[i])
		for j, v := range row {
			name := tbl.columns[j]
			if name == "wkt" {
				continue
			}
			if x, ok := v.(float64); ok && math.IsNaN(x) {
				v = nil
			}
			f.Properties[name] = v
		}
		fc.Append(f)
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
