package lref

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"

	"fgtools.fluvialgeomorph.org/internal/models"
)

// CalibrationPoint pins a known measure to a location on a route.
type CalibrationPoint struct {
	RouteID string
	Point   orb.Point
	Measure float64
}

type anchor struct {
	along   float64
	measure float64
}

// Calibrate re-measures a route so that it honours the calibration points on
// it. Points farther than searchRadius from the route, or on other routes,
// are ignored. Between calibration points measures are interpolated by
// distance; beyond the outermost points the nearest calibrated segment's
// measure-per-distance ratio is extended.
func Calibrate(r *Route, points []CalibrationPoint, searchRadius float64) (*Route, error) {
	var anchors []anchor
	for _, cp := range points {
		if cp.RouteID != r.ID {
			continue
		}
		loc := r.Locate(cp.Point)
		if loc.Offset > searchRadius {
			continue
		}
		anchors = append(anchors, anchor{along: r.DistanceAtMeasure(loc.Measure), measure: cp.Measure})
	}
	sort.SliceStable(anchors, func(i, j int) bool { return anchors[i].along < anchors[j].along })

	// collapse anchors that project to the same place
	uniq := anchors[:0]
	for _, a := range anchors {
		if n := len(uniq); n > 0 && a.along-uniq[n-1].along < 1e-9 {
			continue
		}
		uniq = append(uniq, a)
	}
	anchors = uniq
	if len(anchors) < 2 {
		return nil, fmt.Errorf("calibrate route %q: %w: need two calibration points within %v, found %d",
			r.ID, models.ErrInvalidParameter, searchRadius, len(anchors))
	}

	measures := make([]float64, len(r.Line))
	for i, d := range r.cum {
		measures[i] = calibratedMeasure(anchors, d)
	}
	for i := 1; i < len(measures); i++ {
		if measures[i] < measures[i-1] {
			return nil, fmt.Errorf("calibrate route %q: %w: calibration measures decrease along the route",
				r.ID, models.ErrInvalidParameter)
		}
	}

	out := &Route{
		ID:          r.ID,
		Line:        r.Line.Clone(),
		Measures:    measures,
		FromMeasure: measures[0],
		ToMeasure:   measures[len(measures)-1],
		cum:         append([]float64(nil), r.cum...),
	}
	return out, nil
}

func calibratedMeasure(anchors []anchor, d float64) float64 {
	i := sort.Search(len(anchors), func(k int) bool { return anchors[k].along >= d })
	switch {
	case i == 0:
		i = 1
	case i == len(anchors):
		i = len(anchors) - 1
	}
	a, b := anchors[i-1], anchors[i]
	ratio := (b.measure - a.measure) / (b.along - a.along)
	return a.measure + (d-a.along)*ratio
}
