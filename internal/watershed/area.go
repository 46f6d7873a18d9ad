package watershed

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"golang.org/x/sync/errgroup"

	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
	"fgtools.fluvialgeomorph.org/internal/raster"
)

// Square miles per square linear unit.
const (
	SqMilesPerSqMeter = 0.0000003861
	SqMilesPerSqFoot  = 0.00000003587
)

// SmallAreaSqMiles is the area below which a watershed is reported as
// implausible; it usually means the snap distance is too small.
const SmallAreaSqMiles = 0.25

// Grid is the flow accumulation raster contract.
type Grid interface {
	raster.Surface
	CellAt(x, y float64) (row, col int, ok bool)
	CellCenter(row, col int) orb.Point
	Value(row, col int) (float64, bool)
}

// AreaFactor returns the square-mile factor for a grid's linear unit.
func AreaFactor(unit models.LinearUnit) (float64, error) {
	switch unit {
	case models.Meter:
		return SqMilesPerSqMeter, nil
	case models.Foot, models.USSurveyFoot:
		return SqMilesPerSqFoot, nil
	}
	return 0, fmt.Errorf("%w: watershed area needs meters or feet, got %q", models.ErrUnsupportedLinearUnit, string(unit))
}

// Area is a watershed area computed at a snapped pour point.
type Area struct {
	Seq         int
	SquareMiles float64
	CellCount   float64
	PourPoint   orb.Point
	Row, Col    int
	Small       bool
}

// SnapPourPoint moves p to the center of the highest accumulation cell whose
// center lies within snapDistance of p. The cell containing p is always a
// candidate. Ties go to the nearest cell, then the lowest row and column.
func SnapPourPoint(p orb.Point, accum Grid, snapDistance float64) (row, col int, count float64, err error) {
	if snapDistance < 0 || math.IsNaN(snapDistance) {
		return 0, 0, 0, fmt.Errorf("%w: snap distance %v", models.ErrInvalidParameter, snapDistance)
	}
	r0, c0, inside := accum.CellAt(p[0], p[1])
	cell := accum.CellSize()
	reach := int(math.Ceil(snapDistance/cell)) + 1

	row, col = -1, -1
	bestD := math.Inf(1)
	for r := r0 - reach; r <= r0+reach; r++ {
		for c := c0 - reach; c <= c0+reach; c++ {
			v, ok := accum.Value(r, c)
			if !ok {
				continue
			}
			d := planar.Distance(p, accum.CellCenter(r, c))
			if d > snapDistance && !(inside && r == r0 && c == c0) {
				continue
			}
			better := row < 0 || v > count ||
				(v == count && (d < bestD || (d == bestD && (r < row || (r == row && c < col)))))
			if better {
				row, col, count, bestD = r, c, v, d
			}
		}
	}
	if row < 0 {
		return 0, 0, 0, fmt.Errorf("%w: no accumulation cell within %g of (%g, %g)",
			models.ErrNoMatchFound, snapDistance, p[0], p[1])
	}
	return row, col, count, nil
}

// WatershedArea snaps p onto the accumulation grid and converts the cell count
// there into square miles. unit overrides the grid's own linear unit when
// set. Areas under SmallAreaSqMiles are logged and still returned.
func WatershedArea(ctx context.Context, p orb.Point, accum Grid, snapDistance float64, unit models.LinearUnit) (Area, error) {
	if accum == nil {
		return Area{}, fmt.Errorf("%w: no flow accumulation grid", models.ErrInvalidParameter)
	}
	if unit == "" {
		unit = accum.Unit()
	}
	factor, err := AreaFactor(unit)
	if err != nil {
		return Area{}, err
	}

	row, col, count, err := SnapPourPoint(p, accum, snapDistance)
	if err != nil {
		return Area{}, err
	}

	size := accum.CellSize()
	a := Area{
		SquareMiles: size * size * count * factor,
		CellCount:   count,
		PourPoint:   accum.CellCenter(row, col),
		Row:         row,
		Col:         col,
	}
	a.Small = a.SquareMiles < SmallAreaSqMiles

	logger := logging.FromContext(ctx)
	if a.Small {
		logger.Warn("watershed area is less than a quarter square mile, try increasing the snap distance",
			slog.String("component", "watershed"),
			slog.Float64("area_sq_mi", a.SquareMiles),
			slog.Float64("cell_count", count),
			slog.Float64("snap_distance", snapDistance))
	} else {
		logger.Debug("watershed area",
			slog.String("component", "watershed"),
			slog.Float64("area_sq_mi", a.SquareMiles),
			slog.Float64("cell_count", count))
	}
	return a, nil
}

// PourPoint is a cross section's flowline crossing keyed by its seq.
type PourPoint struct {
	Seq   int
	Point orb.Point
}

// WatershedAreas computes one area per pour point. With workers > 1 the
// points are processed concurrently; results keep the input order.
func WatershedAreas(ctx context.Context, pours []PourPoint, accum Grid, snapDistance float64, unit models.LinearUnit, workers int) ([]Area, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]Area, len(pours))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, pp := range pours {
		i, pp := i, pp
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := WatershedArea(gctx, pp.Point, accum, snapDistance, unit)
			if err != nil {
				return fmt.Errorf("seq %d: %w", pp.Seq, err)
			}
			a.Seq = pp.Seq
			out[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logging.LogOperation(logging.FromContext(ctx), "watershed areas computed",
		slog.String("component", "watershed"),
		slog.Int("cross_sections", len(out)),
		slog.Int("workers", workers))
	return out, nil
}
