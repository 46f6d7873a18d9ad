// Package loops assigns meander loop and bend identifiers to bankline station
// points and to cross sections.
package loops

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"fgtools.fluvialgeomorph.org/internal/geometry"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// Default search distances, in the linear unit of the data.
const (
	DefaultSnapDistance  = 50.0
	DefaultTolerance     = 1.0
	DefaultXSSearchRange = 5.0
)

// SnapLoopPoints moves every loop point within distance of a line onto the
// nearest point of that line. It returns the moved copy and the number of
// points snapped.
func SnapLoopPoints(points []models.LoopPoint, lines []orb.LineString, distance float64) ([]models.LoopPoint, int, error) {
	if !(distance > 0) {
		return nil, 0, fmt.Errorf("%w: snap distance %v", models.ErrInvalidParameter, distance)
	}
	out := make([]models.LoopPoint, len(points))
	copy(out, points)

	snapped := 0
	for i := range out {
		p := orb.Point{out[i].X, out[i].Y}
		best := geometry.Projection{Offset: math.Inf(1)}
		for _, ls := range lines {
			if len(ls) == 0 {
				continue
			}
			if pr := geometry.ProjectPoint(ls, p); pr.Offset < best.Offset {
				best = pr
			}
		}
		if best.Offset <= distance {
			out[i].X, out[i].Y = best.Point[0], best.Point[1]
			snapped++
		}
	}
	return out, snapped, nil
}

// Association ties a bank station point to the loop point closest to it.
type Association struct {
	Point     int // index into the bank points
	Measure   float64
	Bank      string
	LoopPoint models.LoopPoint
	Distance  float64
}

// AssociateLoopPoints pairs each bank point with its closest loop point when
// that loop point is within tolerance. Bank points without a defined measure
// are skipped. Associations come back in bank point order.
func AssociateLoopPoints(bankPoints []models.StationPoint, loopPoints []models.LoopPoint, tolerance float64) ([]Association, error) {
	if !(tolerance > 0) {
		return nil, fmt.Errorf("%w: loop point tolerance %v", models.ErrInvalidParameter, tolerance)
	}

	var out []Association
	for i, bp := range bankPoints {
		if !bp.HasMeasure() {
			continue
		}
		at := orb.Point{bp.X, bp.Y}
		best, bestD := -1, math.Inf(1)
		for j, lp := range loopPoints {
			if d := planar.Distance(at, orb.Point{lp.X, lp.Y}); d < bestD {
				best, bestD = j, d
			}
		}
		if best < 0 || bestD > tolerance {
			continue
		}
		bank, _ := bp.Attributes.String(models.FieldBank)
		out = append(out, Association{
			Point:     i,
			Measure:   bp.Measure,
			Bank:      bank,
			LoopPoint: loopPoints[best],
			Distance:  bestD,
		})
	}
	return out, nil
}
