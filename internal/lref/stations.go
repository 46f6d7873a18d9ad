package lref

import (
	"fmt"
	"math"

	"github.com/paulmach/orb/planar"

	"fgtools.fluvialgeomorph.org/internal/geometry"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// Mode selects where station points are placed along a route.
type Mode struct {
	spacing float64
}

// ExistingVertices emits one station per route vertex.
var ExistingVertices = Mode{}

// FixedSpacing densifies the route so no two stations are farther apart than
// distance coordinate units, then emits a station at every vertex. The route's
// own vertices are always stations.
func FixedSpacing(distance float64) Mode {
	return Mode{spacing: distance}
}

// Spacing returns the station distance, or zero for ExistingVertices.
func (m Mode) Spacing() float64 { return m.spacing }

func (m Mode) String() string {
	if m.spacing == 0 {
		return "existing vertices"
	}
	return fmt.Sprintf("every %g", m.spacing)
}

// ModeForDistance maps a tool's station_distance parameter to a Mode: zero
// keeps the line's own vertices.
func ModeForDistance(d float64) (Mode, error) {
	switch {
	case d == 0:
		return ExistingVertices, nil
	case d > 0 && !math.IsInf(d, 0):
		return FixedSpacing(d), nil
	}
	return Mode{}, fmt.Errorf("%w: station distance must be >= 0, got %v", models.ErrInvalidParameter, d)
}

// StationPoints returns the route's stations ordered by measure.
// The first station always carries the route's from_measure.
func StationPoints(r *Route, mode Mode) ([]models.StationPoint, error) {
	if mode.spacing < 0 || math.IsNaN(mode.spacing) {
		return nil, fmt.Errorf("%w: station spacing %v", models.ErrInvalidParameter, mode.spacing)
	}

	line := r.Line
	if mode.spacing > 0 {
		dense, err := geometry.Densify(r.Line, mode.spacing)
		if err != nil {
			return nil, err
		}
		line = dense
	}

	points := make([]models.StationPoint, len(line))
	next := 0 // index of the next route vertex expected in line
	for i, p := range line {
		var m float64
		if next < len(r.Line) && p == r.Line[next] {
			m = r.Measures[next]
			next++
		} else {
			m = r.MeasureAtDistance(r.cum[next-1] + planar.Distance(r.Line[next-1], p))
		}
		points[i] = models.StationPoint{
			RouteID: r.ID,
			Vertex:  i,
			Measure: m,
			X:       p[0],
			Y:       p[1],
		}
	}

	CorrectFirstMeasures(points, map[string]float64{r.ID: r.FromMeasure})
	return points, nil
}

// StationPointsForRoutes generates stations for every route and returns them
// sorted by route id, then measure.
func StationPointsForRoutes(routes []*Route, mode Mode) ([]models.StationPoint, error) {
	var out []models.StationPoint
	for _, r := range routes {
		pts, err := StationPoints(r, mode)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", r.ID, err)
		}
		out = append(out, pts...)
	}
	models.SortStations(out)
	return out, nil
}

// CorrectFirstMeasures sets the measure of the first station (lowest vertex
// index) of every route to that route's from_measure. Routes missing from
// fromMeasures get zero when their first measure is undefined. It returns the
// number of points whose measure changed.
func CorrectFirstMeasures(points []models.StationPoint, fromMeasures map[string]float64) int {
	first := make(map[string]int)
	for i, p := range points {
		j, ok := first[p.RouteID]
		if !ok || p.Vertex < points[j].Vertex {
			first[p.RouteID] = i
		}
	}

	changed := 0
	for id, i := range first {
		want, ok := fromMeasures[id]
		if !ok {
			if points[i].HasMeasure() {
				continue
			}
			want = 0
		}
		if points[i].Measure != want {
			points[i].Measure = want
			changed++
		}
	}
	return changed
}
