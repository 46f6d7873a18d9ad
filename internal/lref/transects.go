package lref

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"fgtools.fluvialgeomorph.org/internal/geometry"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// Transect is a straight line laid across a route, centred on it and
// perpendicular to the route piece it was built from.
type Transect struct {
	RouteID string
	Measure float64   // route measure at the centre
	Center  orb.Point // on the route
	Line    orb.LineString
}

// Transects splits the route into pieces and lays one transect across the
// middle of each. FixedSpacing cuts pieces of exactly the spacing, the last
// one shorter; ExistingVertices uses the route's own segments. Each transect
// runs from halfWidth left of the piece's direction to halfWidth right of it.
// Zero length pieces are skipped.
func Transects(r *Route, mode Mode, halfWidth float64) ([]Transect, error) {
	if !(halfWidth > 0) || math.IsInf(halfWidth, 0) {
		return nil, fmt.Errorf("%w: transect half width must be positive, got %v", models.ErrInvalidParameter, halfWidth)
	}
	if mode.spacing < 0 || math.IsNaN(mode.spacing) {
		return nil, fmt.Errorf("%w: transect spacing %v", models.ErrInvalidParameter, mode.spacing)
	}

	var cuts []float64
	if mode.spacing == 0 {
		cuts = r.cum
	} else {
		total := r.Length()
		for k := 0; float64(k)*mode.spacing < total-geometry.Tolerance; k++ {
			cuts = append(cuts, float64(k)*mode.spacing)
		}
		cuts = append(cuts, total)
	}

	out := make([]Transect, 0, len(cuts))
	for i := 1; i < len(cuts); i++ {
		a := geometry.Interpolate(r.Line, r.cum, cuts[i-1])
		b := geometry.Interpolate(r.Line, r.cum, cuts[i])
		chord := planar.Distance(a, b)
		if chord <= geometry.Tolerance {
			continue
		}
		mid := (cuts[i-1] + cuts[i]) / 2
		center := geometry.Interpolate(r.Line, r.cum, mid)

		// unit normal to the left of a -> b
		nx, ny := -(b[1]-a[1])/chord, (b[0]-a[0])/chord
		out = append(out, Transect{
			RouteID: r.ID,
			Measure: r.MeasureAtDistance(mid),
			Center:  center,
			Line: orb.LineString{
				{center[0] + nx*halfWidth, center[1] + ny*halfWidth},
				{center[0] - nx*halfWidth, center[1] - ny*halfWidth},
			},
		})
	}
	return out, nil
}
