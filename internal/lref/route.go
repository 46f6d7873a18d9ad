// Package lref builds measured routes from lines and walks them to produce
// station points.
package lref

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"

	"fgtools.fluvialgeomorph.org/internal/geometry"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// Route is a line with a measure attached to every vertex. Measures grow with
// distance along the line from FromMeasure at the first vertex to ToMeasure at
// the last.
type Route struct {
	ID          string
	Line        orb.LineString
	Measures    []float64
	FromMeasure float64
	ToMeasure   float64

	cum []float64
}

// BuildRoute attaches the measure range [from, to] to line. The measure at
// each vertex is proportional to cumulative planar distance, not to vertex
// index.
func BuildRoute(line orb.LineString, routeID string, from, to float64) (*Route, error) {
	if len(line) < 2 {
		return nil, fmt.Errorf("route %q: %w: %d vertices", routeID, models.ErrDegenerateGeometry, len(line))
	}
	if math.IsNaN(from) || math.IsNaN(to) || math.IsInf(from, 0) || math.IsInf(to, 0) {
		return nil, fmt.Errorf("route %q: %w: measures must be finite", routeID, models.ErrInvalidParameter)
	}
	if from > to {
		return nil, fmt.Errorf("route %q: %w: from_measure %v > to_measure %v", routeID, models.ErrInvalidParameter, from, to)
	}

	cum := geometry.CumulativeDistances(line)
	total := cum[len(cum)-1]
	if total <= 0 {
		return nil, fmt.Errorf("route %q: %w: zero length", routeID, models.ErrDegenerateGeometry)
	}

	measures := make([]float64, len(line))
	for i, d := range cum {
		measures[i] = from + (to-from)*d/total
	}
	measures[0] = from
	measures[len(measures)-1] = to

	return &Route{
		ID:          routeID,
		Line:        line.Clone(),
		Measures:    measures,
		FromMeasure: from,
		ToMeasure:   to,
		cum:         cum,
	}, nil
}

// Length is the planar length of the route in coordinate units.
func (r *Route) Length() float64 {
	return r.cum[len(r.cum)-1]
}

// MeasureAtDistance returns the measure at a distance along the route,
// interpolating linearly between vertex measures.
func (r *Route) MeasureAtDistance(dist float64) float64 {
	last := len(r.cum) - 1
	if dist <= 0 {
		return r.Measures[0]
	}
	if dist >= r.cum[last] {
		return r.Measures[last]
	}
	i := sort.SearchFloat64s(r.cum, dist)
	// cum[i-1] < dist <= cum[i]
	if r.cum[i] == dist {
		return r.Measures[i]
	}
	seg := r.cum[i] - r.cum[i-1]
	f := (dist - r.cum[i-1]) / seg
	return r.Measures[i-1] + f*(r.Measures[i]-r.Measures[i-1])
}

// DistanceAtMeasure is the inverse of MeasureAtDistance. Measures outside
// the route clamp to its ends.
func (r *Route) DistanceAtMeasure(m float64) float64 {
	last := len(r.Measures) - 1
	if m <= r.Measures[0] {
		return 0
	}
	if m >= r.Measures[last] {
		return r.cum[last]
	}
	i := sort.SearchFloat64s(r.Measures, m)
	if r.Measures[i] == m {
		return r.cum[i]
	}
	dm := r.Measures[i] - r.Measures[i-1]
	if dm == 0 {
		return r.cum[i-1]
	}
	f := (m - r.Measures[i-1]) / dm
	return r.cum[i-1] + f*(r.cum[i]-r.cum[i-1])
}

// PointAt returns the location of measure m on the route.
func (r *Route) PointAt(m float64) orb.Point {
	return geometry.Interpolate(r.Line, r.cum, r.DistanceAtMeasure(m))
}

// Location is the result of locating a point along a route.
type Location struct {
	Measure float64
	Point   orb.Point
	Offset  float64
}

// Locate finds the nearest point on the route to p and returns its measure.
func (r *Route) Locate(p orb.Point) Location {
	pr := geometry.ProjectPoint(r.Line, p)
	return Location{
		Measure: r.MeasureAtDistance(pr.Along),
		Point:   pr.Point,
		Offset:  pr.Offset,
	}
}
