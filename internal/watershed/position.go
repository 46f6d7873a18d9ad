// Package watershed derives the river position and upstream drainage area of
// cross sections from a flowline route and a flow accumulation grid.
package watershed

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"fgtools.fluvialgeomorph.org/internal/geometry"
	"fgtools.fluvialgeomorph.org/internal/lref"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// RiverPosition is the flowline route's measure at the point of the route
// nearest to p.
func RiverPosition(p orb.Point, flowline *lref.Route) (float64, error) {
	if flowline == nil {
		return 0, fmt.Errorf("%w: no flowline route", models.ErrInvalidParameter)
	}
	return flowline.Locate(p).Measure, nil
}

// RiverPositionFromStations is the measure of the flowline station point
// closest to p. Ties go to the lower measure, then the lower route id.
func RiverPositionFromStations(p orb.Point, flowlinePoints []models.StationPoint) (float64, error) {
	best := -1
	bestD := math.Inf(1)
	for i, fp := range flowlinePoints {
		if !fp.HasMeasure() {
			continue
		}
		d := planar.Distance(p, orb.Point{fp.X, fp.Y})
		switch {
		case best < 0 || d < bestD-geometry.Tolerance:
		case math.Abs(d-bestD) <= geometry.Tolerance && tieWins(fp, flowlinePoints[best]):
		default:
			continue
		}
		best, bestD = i, d
	}
	if best < 0 {
		return 0, fmt.Errorf("%w: no flowline points with a measure", models.ErrNoMatchFound)
	}
	return flowlinePoints[best].Measure, nil
}

func tieWins(a, b models.StationPoint) bool {
	if a.Measure != b.Measure {
		return a.Measure < b.Measure
	}
	return a.RouteID < b.RouteID
}

// Crossing is where a cross section meets a flowline.
type Crossing struct {
	Point     orb.Point
	Flowline  int // index of the crossed flowline
	ReachName string
}

// CrossingPoint returns the first intersection of the cross section with any
// of the flowlines, walking the cross section from its start. A cross section
// that crosses nothing yields ErrNoMatchFound.
func CrossingPoint(xs orb.LineString, flowlines []lref.RouteLine) (Crossing, error) {
	best := Crossing{Flowline: -1}
	bestAlong := math.Inf(1)
	for i, fl := range flowlines {
		pts := geometry.Intersections(xs, fl.Line)
		if len(pts) == 0 {
			continue
		}
		if along := geometry.ProjectPoint(xs, pts[0]).Along; along < bestAlong-geometry.Tolerance {
			name, _ := fl.Attributes.String(models.FieldReachName)
			best = Crossing{Point: pts[0], Flowline: i, ReachName: name}
			bestAlong = along
		}
	}
	if best.Flowline < 0 {
		return best, fmt.Errorf("%w: cross section does not cross a flowline", models.ErrNoMatchFound)
	}
	return best, nil
}
