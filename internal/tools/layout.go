package tools

import (
	"context"
	"fmt"
	"log/slog"

	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/lref"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// XSLayoutParams configures XSLayout.
type XSLayoutParams struct {
	Flowline  string
	Output    string
	Spacing   float64           // in the flowline's linear unit; 0 lays one per segment
	HalfWidth float64           // distance from the flowline to each transect end
	WidthUnit models.LinearUnit // unit of HalfWidth, defaults to the flowline's
}

// XSLayout lays cross sections across the flowline, one at the middle of
// each piece, perpendicular to it. Cross sections are numbered from 1 in
// route order and carry the reach name of the route they cross.
func (t *Tools) XSLayout(ctx context.Context, p XSLayoutParams) ([]models.CrossSectionRecord, error) {
	ctx = t.withLogger(ctx)
	if err := requireName("output", p.Output); err != nil {
		return nil, err
	}
	mode, err := lref.ModeForDistance(p.Spacing)
	if err != nil {
		return nil, err
	}

	features, unit, err := t.Workspace.Lines(ctx, p.Flowline)
	if err != nil {
		return nil, fmt.Errorf("error reading flowline %s: %w", p.Flowline, err)
	}
	halfWidth := p.HalfWidth
	if p.WidthUnit != "" {
		if halfWidth, err = models.Convert(p.HalfWidth, p.WidthUnit, unit); err != nil {
			return nil, err
		}
	}

	lines := routeLines(features)
	routes, err := lref.BuildRoutesForCollection(lines, lref.ConstantMeasure(0), lref.LengthMeasure(unit, unit, 0))
	if err != nil {
		return nil, fmt.Errorf("error building flowline routes: %w", err)
	}
	reaches := routeAttributes(lines, models.FieldReachName)

	var records []models.CrossSectionRecord
	for _, r := range routes {
		transects, err := lref.Transects(r, mode, halfWidth)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", r.ID, err)
		}
		reach, ok := reaches[r.ID].String(models.FieldReachName)
		if !ok || reach == "" {
			reach = r.ID
		}
		for _, x := range transects {
			rec := models.CrossSectionRecord{
				Seq:       len(records) + 1,
				ReachName: reach,
				Geometry:  x.Line,
			}
			rec.Set(DefaultSeqField, rec.Seq)
			records = append(records, rec)
		}
	}

	if err := t.Workspace.WriteCrossSections(ctx, p.Output, unit, records); err != nil {
		return nil, err
	}
	logging.LogOperation(logging.FromContext(ctx), "cross sections laid out",
		slog.String("component", "xs_layout"),
		slog.String("dataset", p.Output),
		slog.String("spacing", mode.String()),
		slog.Float64("half_width", halfWidth),
		slog.Int("cross_sections", len(records)))
	return records, nil
}
