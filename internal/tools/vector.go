package tools

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"fgtools.fluvialgeomorph.org/fgdb"
	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
	"fgtools.fluvialgeomorph.org/internal/watershed"
)

// Default identifier fields of the imported feature classes.
const (
	DefaultRouteField = models.FieldReachName
	DefaultSeqField   = "Seq"
)

func readFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return fc, nil
}

// propertyString renders an identifier property. Numbers without a
// fractional part print as integers so "Seq": 3 becomes "3".
func propertyString(props geojson.Properties, key string) (string, bool) {
	switch v := props[key].(type) {
	case string:
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

func lineParts(g orb.Geometry) ([]orb.LineString, bool) {
	switch v := g.(type) {
	case orb.LineString:
		return []orb.LineString{v}, true
	case orb.MultiLineString:
		return []orb.LineString(v), true
	}
	return nil, false
}

// LineImport describes a GeoJSON line file to load as a lines dataset.
type LineImport struct {
	Path       string
	Dataset    string
	RouteField string
	Unit       models.LinearUnit
}

// ImportLines loads LineString and MultiLineString features. Each part of a
// multi-line becomes its own feature sharing the route id; the route builder
// later chains or rejects them.
func (t *Tools) ImportLines(ctx context.Context, in LineImport) (int, error) {
	ctx = t.withLogger(ctx)
	if err := requireName("lines", in.Dataset); err != nil {
		return 0, err
	}
	if in.RouteField == "" {
		in.RouteField = DefaultRouteField
	}
	fc, err := readFeatureCollection(in.Path)
	if err != nil {
		return 0, err
	}

	var lines []fgdb.LineFeature
	for i, f := range fc.Features {
		parts, ok := lineParts(f.Geometry)
		if !ok {
			return 0, fmt.Errorf("%w: feature %d of %s is a %s, want a line", models.ErrInvalidParameter, i, in.Path, f.Geometry.GeoJSONType())
		}
		routeID, ok := propertyString(f.Properties, in.RouteField)
		if !ok {
			return 0, fmt.Errorf("%w: feature %d of %s has no %s", models.ErrInvalidParameter, i, in.Path, in.RouteField)
		}
		for _, part := range parts {
			lines = append(lines, fgdb.LineFeature{
				FID:        len(lines) + 1,
				RouteID:    routeID,
				Geometry:   part,
				Attributes: models.Attributes(f.Properties.Clone()),
			})
		}
	}
	if err := t.Workspace.WriteLines(ctx, in.Dataset, in.Unit, lines); err != nil {
		return 0, err
	}
	logging.LogOperation(logging.FromContext(ctx), "lines imported",
		slog.String("component", "import"),
		slog.String("dataset", in.Dataset),
		slog.String("source", in.Path),
		slog.Int("features", len(lines)))
	return len(lines), nil
}

// ImportLoopPoints loads Point features carrying loop, bend and position
// properties.
func (t *Tools) ImportLoopPoints(ctx context.Context, path, dataset string, unit models.LinearUnit) (int, error) {
	ctx = t.withLogger(ctx)
	if err := requireName("loop points", dataset); err != nil {
		return 0, err
	}
	fc, err := readFeatureCollection(path)
	if err != nil {
		return 0, err
	}

	points := make([]models.LoopPoint, 0, len(fc.Features))
	for i, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			return 0, fmt.Errorf("%w: feature %d of %s is not a point", models.ErrInvalidParameter, i, path)
		}
		attrs := models.Attributes(f.Properties)
		loop, ok := attrs.Int(models.FieldLoop)
		if !ok {
			return 0, fmt.Errorf("%w: loop point %d has no loop", models.ErrInvalidParameter, i)
		}
		bend, _ := attrs.Int(models.FieldBend)
		position, _ := attrs.String(models.FieldPosition)
		points = append(points, models.LoopPoint{Loop: loop, Bend: bend, Position: position, X: p[0], Y: p[1]})
	}
	if err := t.Workspace.WriteLoopPoints(ctx, dataset, unit, points); err != nil {
		return 0, err
	}
	logging.LogOperation(logging.FromContext(ctx), "loop points imported",
		slog.String("component", "import"),
		slog.String("dataset", dataset),
		slog.Int("features", len(points)))
	return len(points), nil
}

// ImportCrossSections loads cross section lines keyed by seqField.
func (t *Tools) ImportCrossSections(ctx context.Context, path, dataset, seqField string, unit models.LinearUnit) (int, error) {
	ctx = t.withLogger(ctx)
	if err := requireName("cross sections", dataset); err != nil {
		return 0, err
	}
	if seqField == "" {
		seqField = DefaultSeqField
	}
	fc, err := readFeatureCollection(path)
	if err != nil {
		return 0, err
	}

	records := make([]models.CrossSectionRecord, 0, len(fc.Features))
	for i, f := range fc.Features {
		parts, ok := lineParts(f.Geometry)
		if !ok || len(parts) != 1 {
			return 0, fmt.Errorf("%w: cross section %d of %s must be a single line", models.ErrInvalidParameter, i, path)
		}
		attrs := models.Attributes(f.Properties.Clone())
		seq, ok := attrs.Int(seqField)
		if !ok {
			return 0, fmt.Errorf("%w: cross section %d of %s has no %s", models.ErrInvalidParameter, i, path, seqField)
		}
		rec := models.CrossSectionRecord{Seq: seq, Geometry: parts[0], Attributes: attrs}
		rec.ReachName, _ = attrs.String(models.FieldReachName)
		if v, ok := attrs.Float(watershed.FieldRiverPosition); ok {
			rec.RiverPosition = models.Float64Ptr(v)
		}
		if v, ok := attrs.Float(watershed.FieldWatershedArea); ok {
			rec.WatershedArea = models.Float64Ptr(v)
		}
		records = append(records, rec)
	}
	models.SortBySeq(records)
	if err := t.Workspace.WriteCrossSections(ctx, dataset, unit, records); err != nil {
		return 0, err
	}
	logging.LogOperation(logging.FromContext(ctx), "cross sections imported",
		slog.String("component", "import"),
		slog.String("dataset", dataset),
		slog.Int("features", len(records)))
	return len(records), nil
}

// PointImport describes a GeoJSON point file to load as a stations dataset,
// such as a set of calibration points.
type PointImport struct {
	Path         string
	Dataset      string
	RouteField   string
	MeasureField string
	Unit         models.LinearUnit
}

// ImportStationPoints loads Point features. Features without a numeric
// measure are stored with an undefined measure.
func (t *Tools) ImportStationPoints(ctx context.Context, in PointImport) (int, error) {
	ctx = t.withLogger(ctx)
	if err := requireName("points", in.Dataset); err != nil {
		return 0, err
	}
	if in.RouteField == "" {
		in.RouteField = DefaultRouteField
	}
	fc, err := readFeatureCollection(in.Path)
	if err != nil {
		return 0, err
	}

	points := make([]models.StationPoint, 0, len(fc.Features))
	vertex := make(map[string]int)
	for i, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			return 0, fmt.Errorf("%w: feature %d of %s is not a point", models.ErrInvalidParameter, i, in.Path)
		}
		routeID, ok := propertyString(f.Properties, in.RouteField)
		if !ok {
			return 0, fmt.Errorf("%w: feature %d of %s has no %s", models.ErrInvalidParameter, i, in.Path, in.RouteField)
		}
		attrs := models.Attributes(f.Properties.Clone())
		measure, ok := attrs.Float(in.MeasureField)
		if !ok {
			measure = math.NaN()
		}
		// vertex 0 would be pinned to the route's from measure on read
		vertex[routeID]++
		points = append(points, models.StationPoint{
			RouteID:    routeID,
			Vertex:     vertex[routeID],
			Measure:    measure,
			X:          p[0],
			Y:          p[1],
			Attributes: attrs,
		})
	}
	if err := t.Workspace.WriteStationPoints(ctx, in.Dataset, in.Unit, points, nil); err != nil {
		return 0, err
	}
	logging.LogOperation(logging.FromContext(ctx), "points imported",
		slog.String("component", "import"),
		slog.String("dataset", in.Dataset),
		slog.Int("features", len(points)))
	return len(points), nil
}
