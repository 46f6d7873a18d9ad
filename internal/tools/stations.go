package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/paulmach/orb"

	"fgtools.fluvialgeomorph.org/internal/attach"
	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/loops"
	"fgtools.fluvialgeomorph.org/internal/lref"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// XSStationPointsParams configures XSStationPoints.
type XSStationPointsParams struct {
	CrossSections   string
	Output          string
	StationDistance float64
	DEM             string
	DetrendDEM      string
}

// XSStationPoints places stations along every cross section, measured from
// the cross section's start, and samples the elevation surfaces. The route
// id of each station is the cross section's seq.
func (t *Tools) XSStationPoints(ctx context.Context, p XSStationPointsParams) ([]models.StationPoint, error) {
	ctx = t.withLogger(ctx)
	if err := requireName("output", p.Output); err != nil {
		return nil, err
	}
	mode, err := lref.ModeForDistance(p.StationDistance)
	if err != nil {
		return nil, err
	}
	records, unit, err := t.Workspace.CrossSections(ctx, p.CrossSections)
	if err != nil {
		return nil, fmt.Errorf("error reading cross sections %s: %w", p.CrossSections, err)
	}

	lines := make([]lref.RouteLine, len(records))
	for i, r := range records {
		lines[i] = lref.RouteLine{
			RouteID: strconv.Itoa(r.Seq),
			Line:    r.Geometry,
			Attributes: models.Attributes{
				"Seq":                 r.Seq,
				models.FieldReachName: r.ReachName,
			},
		}
	}
	routes, err := lref.BuildRoutesForCollection(lines, lref.ConstantMeasure(0), lref.LengthMeasure(unit, unit, 0))
	if err != nil {
		return nil, fmt.Errorf("error building cross section routes: %w", err)
	}
	points, err := lref.StationPointsForRoutes(routes, mode)
	if err != nil {
		return nil, err
	}
	copyRouteAttributes(points, routeAttributes(lines, "Seq", models.FieldReachName))
	// route ids sort as text; the station order follows seq
	sortBySeq(points)

	if err := t.attachSurfaces(ctx, points, unit, p.DEM, p.DetrendDEM); err != nil {
		return nil, err
	}
	if err := t.Workspace.WriteStationPoints(ctx, p.Output, unit, points, fromMeasures(routes)); err != nil {
		return nil, err
	}
	logging.LogOperation(logging.FromContext(ctx), "cross section points written",
		slog.String("component", "xs_points"),
		slog.String("dataset", p.Output),
		slog.Int("cross_sections", len(routes)),
		slog.Int("points", len(points)))
	return points, nil
}

// BanklinePointsParams configures BanklinePoints.
type BanklinePointsParams struct {
	Banklines        string // lines dataset keyed by bank_id, carrying bank and ReachName
	LoopPoints       string
	Valleyline       string // optional lines dataset keyed by ReachName
	Output           string
	StationDistance  float64
	DEM              string
	LoopSnapDistance float64
	LoopTolerance    float64
	UnmatchedPolicy  attach.UnmatchedPolicy
}

// ValleyPrefix prefixes the valley line fields joined onto bankline points.
const ValleyPrefix = "valley_"

// BanklinePoints places stations along both banklines, classifies them by
// meander loop and bend and joins the nearest valley line station to each.
func (t *Tools) BanklinePoints(ctx context.Context, p BanklinePointsParams) ([]models.StationPoint, error) {
	ctx = t.withLogger(ctx)
	logger := logging.FromContext(ctx)
	if err := requireName("output", p.Output); err != nil {
		return nil, err
	}
	if p.LoopSnapDistance == 0 {
		p.LoopSnapDistance = loops.DefaultSnapDistance
	}
	if p.LoopTolerance == 0 {
		p.LoopTolerance = loops.DefaultTolerance
	}

	routes, points, unit, err := t.lineStations(ctx, p.Banklines, p.StationDistance, models.FieldBank, models.FieldReachName)
	if err != nil {
		return nil, err
	}
	if err := t.attachSurfaces(ctx, points, unit, p.DEM, ""); err != nil {
		return nil, err
	}

	if p.LoopPoints != "" {
		if points, err = t.classifyBankPoints(ctx, routes, points, p); err != nil {
			return nil, err
		}
	}

	if p.Valleyline != "" {
		_, valley, _, err := t.lineStations(ctx, p.Valleyline, p.StationDistance)
		if err != nil {
			return nil, err
		}
		points, err = attach.JoinNearest(ctx, points, valley, attach.ClosestPlanar(), p.UnmatchedPolicy, ValleyPrefix)
		if err != nil {
			return nil, err
		}
	}

	if err := t.Workspace.WriteStationPoints(ctx, p.Output, unit, points, fromMeasures(routes)); err != nil {
		return nil, err
	}
	logging.LogOperation(logger, "bankline points written",
		slog.String("component", "bankline"),
		slog.String("dataset", p.Output),
		slog.Int("points", len(points)))
	return points, nil
}

func (t *Tools) classifyBankPoints(ctx context.Context, routes []*lref.Route, points []models.StationPoint, p BanklinePointsParams) ([]models.StationPoint, error) {
	logger := logging.FromContext(ctx)
	loopPoints, err := t.Workspace.LoopPoints(ctx, p.LoopPoints)
	if err != nil {
		return nil, fmt.Errorf("error reading loop points %s: %w", p.LoopPoints, err)
	}

	banks := make([]orb.LineString, len(routes))
	for i, r := range routes {
		banks[i] = r.Line
	}
	snapped, moved, err := loops.SnapLoopPoints(loopPoints, banks, p.LoopSnapDistance)
	if err != nil {
		return nil, err
	}
	assocs, err := loops.AssociateLoopPoints(points, snapped, p.LoopTolerance)
	if err != nil {
		return nil, err
	}
	ranges := loops.DeriveRanges(assocs)
	logging.LogOperation(logger, "loop ranges derived",
		slog.String("component", "bankline"),
		slog.Int("loop_points", len(loopPoints)),
		slog.Int("snapped", moved),
		slog.Int("associated", len(assocs)),
		slog.Int("ranges", len(ranges)))
	return loops.Classify(ctx, points, ranges)
}

func sortBySeq(points []models.StationPoint) {
	seqs := make(map[string]int, len(points))
	for _, p := range points {
		if _, ok := seqs[p.RouteID]; !ok {
			seqs[p.RouteID], _ = strconv.Atoi(p.RouteID)
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		a, b := points[i], points[j]
		if sa, sb := seqs[a.RouteID], seqs[b.RouteID]; sa != sb {
			return sa < sb
		}
		if a.Measure != b.Measure {
			return a.Measure < b.Measure
		}
		return a.Vertex < b.Vertex
	})
}
