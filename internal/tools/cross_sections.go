package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/loops"
	"fgtools.fluvialgeomorph.org/internal/lref"
	"fgtools.fluvialgeomorph.org/internal/models"
	"fgtools.fluvialgeomorph.org/internal/raster"
	"fgtools.fluvialgeomorph.org/internal/watershed"
)

// crossings finds where each cross section meets the flowline. Cross sections
// that miss every flowline are logged and left out of the map.
func (t *Tools) crossings(ctx context.Context, records []models.CrossSectionRecord, flowline string) (map[int]watershed.Crossing, []lref.RouteLine, error) {
	features, _, err := t.Workspace.Lines(ctx, flowline)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading flowline %s: %w", flowline, err)
	}
	lines := routeLines(features)
	logger := logging.FromContext(ctx)

	out := make(map[int]watershed.Crossing, len(records))
	for _, r := range records {
		c, err := watershed.CrossingPoint(r.Geometry, lines)
		if errors.Is(err, models.ErrNoMatchFound) {
			logger.Warn("cross section does not cross the flowline",
				slog.String("component", "cross_sections"),
				slog.Int("seq", r.Seq))
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("seq %d: %w", r.Seq, err)
		}
		if c.ReachName == "" {
			c.ReachName = lines[c.Flowline].RouteID
		}
		out[r.Seq] = c
	}
	return out, lines, nil
}

// XSRiverPositionParams configures XSRiverPosition.
type XSRiverPositionParams struct {
	CrossSections  string
	Flowline       string
	FlowlinePoints string  // optional flowline stations dataset
	KmToMouth      float64 // river kilometer of the flowline's downstream end, used without stations
}

// positioner returns the river position of a crossing.
type positioner func(c watershed.Crossing, lines []lref.RouteLine) (float64, error)

// XSRiverPosition sets each cross section's river position and its reach
// name to the crossed reach. With flowline points the position is the
// measure of the closest station; without them it is the kilometer measure
// of the flowline route at the crossing.
func (t *Tools) XSRiverPosition(ctx context.Context, p XSRiverPositionParams) ([]models.CrossSectionRecord, error) {
	ctx = t.withLogger(ctx)
	records, unit, err := t.Workspace.CrossSections(ctx, p.CrossSections)
	if err != nil {
		return nil, err
	}

	var position positioner
	method := "stations"
	if p.FlowlinePoints != "" {
		position, err = t.stationPositioner(ctx, p.FlowlinePoints)
	} else {
		method = "route"
		position, err = t.routePositioner(ctx, p.Flowline, p.KmToMouth)
	}
	if err != nil {
		return nil, err
	}

	cross, lines, err := t.crossings(ctx, records, p.Flowline)
	if err != nil {
		return nil, err
	}
	for i := range records {
		c, ok := cross[records[i].Seq]
		if !ok {
			continue
		}
		pos, err := position(c, lines)
		if err != nil {
			return nil, fmt.Errorf("seq %d: %w", records[i].Seq, err)
		}
		records[i].RiverPosition = models.Float64Ptr(pos)
		records[i].ReachName = c.ReachName
	}

	if err := t.Workspace.WriteCrossSections(ctx, p.CrossSections, unit, records); err != nil {
		return nil, err
	}
	logging.LogOperation(logging.FromContext(ctx), "river positions assigned",
		slog.String("component", "cross_sections"),
		slog.String("dataset", p.CrossSections),
		slog.String("method", method),
		slog.Int("cross_sections", len(records)),
		slog.Int("positioned", len(cross)))
	return records, nil
}

func (t *Tools) stationPositioner(ctx context.Context, flowlinePoints string) (positioner, error) {
	stations, err := t.Workspace.StationPoints(ctx, flowlinePoints)
	if err != nil {
		return nil, fmt.Errorf("error reading flowline points %s: %w", flowlinePoints, err)
	}
	byRoute := make(map[string][]models.StationPoint)
	for _, s := range stations {
		byRoute[s.RouteID] = append(byRoute[s.RouteID], s)
	}
	return func(c watershed.Crossing, lines []lref.RouteLine) (float64, error) {
		candidates := byRoute[lines[c.Flowline].RouteID]
		if len(candidates) == 0 {
			candidates = stations
		}
		return watershed.RiverPositionFromStations(c.Point, candidates)
	}, nil
}

// routePositioner measures the flowline in kilometers from the mouth, the
// same way FlowlinePoints does.
func (t *Tools) routePositioner(ctx context.Context, flowline string, kmToMouth float64) (positioner, error) {
	features, unit, err := t.Workspace.Lines(ctx, flowline)
	if err != nil {
		return nil, fmt.Errorf("error reading flowline %s: %w", flowline, err)
	}
	routes, err := lref.BuildRoutesForCollection(routeLines(features),
		lref.ConstantMeasure(kmToMouth),
		lref.LengthMeasure(unit, models.Kilometer, kmToMouth))
	if err != nil {
		return nil, fmt.Errorf("error building flowline routes: %w", err)
	}
	byID := make(map[string]*lref.Route, len(routes))
	for _, r := range routes {
		byID[r.ID] = r
	}
	return func(c watershed.Crossing, lines []lref.RouteLine) (float64, error) {
		return watershed.RiverPosition(c.Point, byID[lines[c.Flowline].RouteID])
	}, nil
}

// XSWatershedAreaParams configures XSWatershedArea.
type XSWatershedAreaParams struct {
	CrossSections string
	Flowline      string
	FlowAccum     string // ESRI ASCII D8 cell count grid, e.g. ContributingArea's FlowAccumGrid
	SnapDistance  float64
	Unit          models.LinearUnit // overrides the grid's unit when set
	Workers       int
}

// XSWatershedArea computes the drainage area upstream of each cross
// section's flowline crossing.
func (t *Tools) XSWatershedArea(ctx context.Context, p XSWatershedAreaParams) ([]models.CrossSectionRecord, error) {
	ctx = t.withLogger(ctx)
	start := time.Now()
	records, unit, err := t.Workspace.CrossSections(ctx, p.CrossSections)
	if err != nil {
		return nil, err
	}
	accum, err := raster.Open(p.FlowAccum, unit)
	if err != nil {
		return nil, fmt.Errorf("error opening flow accumulation %s: %w", p.FlowAccum, err)
	}
	cross, _, err := t.crossings(ctx, records, p.Flowline)
	if err != nil {
		return nil, err
	}

	var pours []watershed.PourPoint
	for _, r := range records {
		if c, ok := cross[r.Seq]; ok {
			pours = append(pours, watershed.PourPoint{Seq: r.Seq, Point: c.Point})
		}
	}
	areas, err := watershed.WatershedAreas(ctx, pours, accum, p.SnapDistance, p.Unit, p.Workers)
	if err != nil {
		return nil, err
	}
	bySeq := make(map[int]watershed.Area, len(areas))
	for _, a := range areas {
		bySeq[a.Seq] = a
	}
	for i := range records {
		a, ok := bySeq[records[i].Seq]
		if !ok {
			continue
		}
		records[i].WatershedArea = models.Float64Ptr(a.SquareMiles)
		records[i].ReachName = cross[records[i].Seq].ReachName
	}

	if err := t.Workspace.WriteCrossSections(ctx, p.CrossSections, unit, records); err != nil {
		return nil, err
	}
	logging.LogTimed(logging.FromContext(ctx), "watershed areas computed", start,
		slog.String("component", "watershed"),
		slog.String("dataset", p.CrossSections),
		slog.Int("pour_points", len(pours)),
		slog.Int("areas", len(areas)))
	return records, nil
}

// XSResequence renumbers the cross sections by river position.
func (t *Tools) XSResequence(ctx context.Context, crossSections string, startSeq int) ([]models.CrossSectionRecord, error) {
	ctx = t.withLogger(ctx)
	records, unit, err := t.Workspace.CrossSections(ctx, crossSections)
	if err != nil {
		return nil, err
	}
	records = watershed.Resequence(records, startSeq)
	for i := range records {
		records[i].Set(DefaultSeqField, records[i].Seq)
	}
	if err := t.Workspace.WriteCrossSections(ctx, crossSections, unit, records); err != nil {
		return nil, err
	}
	logging.LogOperation(logging.FromContext(ctx), "cross sections resequenced",
		slog.String("component", "cross_sections"),
		slog.String("dataset", crossSections),
		slog.Int("start_seq", startSeq),
		slog.Int("cross_sections", len(records)))
	return records, nil
}

// XSAssignLoops copies the loop and bend of the nearest classified bankline
// point onto each cross section.
func (t *Tools) XSAssignLoops(ctx context.Context, crossSections, banklinePoints string, radius float64) ([]models.CrossSectionRecord, error) {
	ctx = t.withLogger(ctx)
	if radius == 0 {
		radius = loops.DefaultXSSearchRange
	}
	records, unit, err := t.Workspace.CrossSections(ctx, crossSections)
	if err != nil {
		return nil, err
	}
	bank, err := t.Workspace.StationPoints(ctx, banklinePoints)
	if err != nil {
		return nil, fmt.Errorf("error reading bankline points %s: %w", banklinePoints, err)
	}
	records, err = loops.AssignCrossSectionLoops(ctx, records, bank, radius)
	if err != nil {
		return nil, err
	}
	if err := t.Workspace.WriteCrossSections(ctx, crossSections, unit, records); err != nil {
		return nil, err
	}
	return records, nil
}

// CheckReport gathers the cross section consistency checks.
type CheckReport struct {
	Sequence   watershed.SequenceReport `json:"sequence"`
	Violations []watershed.Violation    `json:"violations"`
}

// OK reports whether every check passed.
func (r CheckReport) OK() bool {
	return r.Sequence.OK() && len(r.Violations) == 0
}

// XSCheck verifies seq values are unique and contiguous and that river
// position and watershed area never decrease along seq within a reach.
func (t *Tools) XSCheck(ctx context.Context, crossSections string) (CheckReport, error) {
	ctx = t.withLogger(ctx)
	logger := logging.FromContext(ctx)
	records, _, err := t.Workspace.CrossSections(ctx, crossSections)
	if err != nil {
		return CheckReport{}, err
	}
	report := CheckReport{
		Sequence:   watershed.CheckSequence(records),
		Violations: watershed.CheckMonotonic(records),
	}
	for _, v := range report.Violations {
		logger.Warn(v.String(), slog.String("component", "xs_check"))
	}
	logging.LogOperation(logger, "cross sections checked",
		slog.String("component", "xs_check"),
		slog.String("dataset", crossSections),
		slog.Int("duplicates", len(report.Sequence.Duplicates)),
		slog.Int("missing", report.Sequence.MissingCount()),
		slog.Int("violations", len(report.Violations)))
	return report, nil
}
