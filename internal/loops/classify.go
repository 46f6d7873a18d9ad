package loops

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/paulmach/orb"

	"fgtools.fluvialgeomorph.org/internal/geometry"
	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// Classify writes loop and bend onto every bank point whose measure lies in a
// range on the point's bank. A range with an empty bank matches every bank.
// Bend 0 ranges are skipped. Ranges are applied in loop, bend order so a
// later range wins where two overlap; overlaps are logged. Points in no range
// are returned unchanged.
func Classify(ctx context.Context, bankPoints []models.StationPoint, ranges []models.LoopBendRange) ([]models.StationPoint, error) {
	logger := logging.FromContext(ctx)

	ordered := make([]models.LoopBendRange, len(ranges))
	copy(ordered, ranges)
	SortRanges(ordered)
	for _, r := range ordered {
		if math.IsNaN(r.StartMeasure) || math.IsNaN(r.EndMeasure) || r.StartMeasure > r.EndMeasure {
			return nil, fmt.Errorf("%w: loop %d bend %d range [%g, %g]",
				models.ErrInvalidParameter, r.Loop, r.Bend, r.StartMeasure, r.EndMeasure)
		}
	}

	if err := CheckOverlaps(ordered); err != nil {
		logger.Warn("overlapping bend ranges, last applied wins",
			slog.String("component", "loops"),
			slog.String("error", err.Error()))
	}

	out := make([]models.StationPoint, len(bankPoints))
	for i, p := range bankPoints {
		p.Attributes = p.Attributes.Clone()
		out[i] = p
	}

	classified := map[int]struct{}{}
	for _, r := range ordered {
		if r.Bend == 0 {
			continue
		}
		for i := range out {
			p := &out[i]
			if !p.HasMeasure() || !r.Contains(p.Measure) {
				continue
			}
			if bank, _ := p.Attributes.String(models.FieldBank); r.Bank != "" && bank != r.Bank {
				continue
			}
			p.Set(models.FieldLoop, r.Loop)
			p.Set(models.FieldBend, r.Bend)
			classified[i] = struct{}{}
		}
	}

	logging.LogOperation(logger, "loops and bends assigned",
		slog.String("component", "loops"),
		slog.Int("ranges", len(ordered)),
		slog.Int("points", len(out)),
		slog.Int("classified", len(classified)))
	return out, nil
}

// AssignCrossSectionLoops gives each cross section the loop and bend of the
// classified bank point closest to its line, when that point is within
// radius. Cross sections with no such point have loop and bend cleared.
func AssignCrossSectionLoops(ctx context.Context, xs []models.CrossSectionRecord, bankPoints []models.StationPoint, radius float64) ([]models.CrossSectionRecord, error) {
	if !(radius > 0) {
		return nil, fmt.Errorf("%w: search radius %v", models.ErrInvalidParameter, radius)
	}
	logger := logging.FromContext(ctx)

	var classified []models.StationPoint
	for _, p := range bankPoints {
		if _, ok := p.Attributes.Int(models.FieldLoop); ok {
			classified = append(classified, p)
		}
	}
	models.SortByMeasure(classified)

	out := make([]models.CrossSectionRecord, len(xs))
	copy(out, xs)
	assigned := 0
	for i := range out {
		out[i].Loop, out[i].Bend = nil, nil
		if len(out[i].Geometry) == 0 {
			continue
		}
		best, bestD := -1, math.Inf(1)
		for j, p := range classified {
			d := geometry.ProjectPoint(out[i].Geometry, orb.Point{p.X, p.Y}).Offset
			// classified is in measure order, so strict < keeps the lowest
			// measure on ties.
			if d < bestD-geometry.Tolerance {
				best, bestD = j, d
			}
		}
		if best < 0 || bestD > radius {
			continue
		}
		loop, _ := classified[best].Attributes.Int(models.FieldLoop)
		bend, _ := classified[best].Attributes.Int(models.FieldBend)
		out[i].Loop = models.IntPtr(loop)
		out[i].Bend = models.IntPtr(bend)
		assigned++
	}

	logging.LogOperation(logger, "cross section loops assigned",
		slog.String("component", "loops"),
		slog.Int("cross_sections", len(out)),
		slog.Int("assigned", assigned))
	return out, nil
}
