package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"fgtools.fluvialgeomorph.org/internal/models"
)

// Tolerance is the floating point slack used when comparing planar
// distances.
const Tolerance = 1e-9

// CumulativeDistances returns the distance along the line at each vertex.
// The first entry is always zero.
func CumulativeDistances(ls orb.LineString) []float64 {
	cum := make([]float64, len(ls))
	for i := 1; i < len(ls); i++ {
		cum[i] = cum[i-1] + planar.Distance(ls[i-1], ls[i])
	}
	return cum
}

// Length is the planar length of the line in coordinate units.
func Length(ls orb.LineString) float64 {
	return planar.Length(ls)
}

// TotalLength is the planar length of the line converted from the line's
// coordinate unit into unit.
func TotalLength(ls orb.LineString, lineUnit, unit models.LinearUnit) (float64, error) {
	l, err := models.Convert(Length(ls), lineUnit, unit)
	if err != nil {
		return 0, fmt.Errorf("total length: %w", err)
	}
	return l, nil
}

// Densify inserts vertices along each segment of the line so no two
// consecutive vertices are farther apart than spacing. Each segment is split
// into equal parts and the original vertices are kept exactly, so applying
// Densify twice with the same spacing adds nothing the second time.
func Densify(ls orb.LineString, spacing float64) (orb.LineString, error) {
	if !(spacing > 0) || math.IsInf(spacing, 0) {
		return nil, fmt.Errorf("%w: spacing must be positive, got %v", models.ErrInvalidParameter, spacing)
	}
	if len(ls) < 2 {
		return ls.Clone(), nil
	}

	out := make(orb.LineString, 0, len(ls))
	out = append(out, ls[0])
	for i := 0; i < len(ls)-1; i++ {
		a, b := ls[i], ls[i+1]
		d := planar.Distance(a, b)
		parts := int(math.Ceil(d/spacing - Tolerance))
		for k := 1; k < parts; k++ {
			f := float64(k) / float64(parts)
			out = append(out, lerp(a, b, f))
		}
		out = append(out, b)
	}
	return out, nil
}

// Interpolate returns the point at distance dist along the line. cum must be
// the line's CumulativeDistances. Distances outside the line clamp to its
// endpoints.
func Interpolate(ls orb.LineString, cum []float64, dist float64) orb.Point {
	if len(ls) == 0 {
		return orb.Point{}
	}
	if dist <= 0 {
		return ls[0]
	}
	last := len(ls) - 1
	if dist >= cum[last] {
		return ls[last]
	}
	i := segmentIndex(cum, dist)
	seg := cum[i+1] - cum[i]
	if seg == 0 {
		return ls[i]
	}
	return lerp(ls[i], ls[i+1], (dist-cum[i])/seg)
}

// segmentIndex finds i such that cum[i] <= dist < cum[i+1].
func segmentIndex(cum []float64, dist float64) int {
	lo, hi := 0, len(cum)-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if cum[mid] <= dist {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// Projection is the nearest point on a line to some query point.
type Projection struct {
	Point   orb.Point
	Along   float64 // distance along the line to Point
	Offset  float64 // planar distance from the query point to Point
	Segment int
}

// ProjectPoint finds the point on the line nearest to p. Ties keep the
// earliest segment.
func ProjectPoint(ls orb.LineString, p orb.Point) Projection {
	best := Projection{Offset: math.Inf(1), Segment: -1}
	if len(ls) == 1 {
		return Projection{Point: ls[0], Offset: planar.Distance(ls[0], p)}
	}
	along := 0.0
	for i := 0; i < len(ls)-1; i++ {
		a, b := ls[i], ls[i+1]
		seg := planar.Distance(a, b)
		t := 0.0
		if seg > 0 {
			t = ((p[0]-a[0])*(b[0]-a[0]) + (p[1]-a[1])*(b[1]-a[1])) / (seg * seg)
			t = math.Max(0, math.Min(1, t))
		}
		q := lerp(a, b, t)
		if d := planar.Distance(p, q); d < best.Offset-Tolerance {
			best = Projection{Point: q, Along: along + t*seg, Offset: d, Segment: i}
		}
		along += seg
	}
	return best
}

func lerp(a, b orb.Point, f float64) orb.Point {
	return orb.Point{
		a[0] + f*(b[0]-a[0]),
		a[1] + f*(b[1]-a[1]),
	}
}
