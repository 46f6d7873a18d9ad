package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// Intersections returns the points where line a crosses line b, ordered by
// distance along a. Collinear overlaps contribute their endpoints.
func Intersections(a, b orb.LineString) []orb.Point {
	type hit struct {
		p     orb.Point
		along float64
	}
	var hits []hit
	cum := CumulativeDistances(a)
	for i := 0; i < len(a)-1; i++ {
		for j := 0; j < len(b)-1; j++ {
			p, t, ok := segmentIntersection(a[i], a[i+1], b[j], b[j+1])
			if !ok {
				continue
			}
			hits = append(hits, hit{p: p, along: cum[i] + t*(cum[i+1]-cum[i])})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].along < hits[j].along })

	out := make([]orb.Point, 0, len(hits))
	for _, h := range hits {
		if n := len(out); n > 0 && out[n-1].Equal(h.p) {
			continue
		}
		out = append(out, h.p)
	}
	return out
}

// segmentIntersection intersects p1p2 with p3p4 and returns the point and
// its parameter along p1p2.
func segmentIntersection(p1, p2, p3, p4 orb.Point) (orb.Point, float64, bool) {
	d1x, d1y := p2[0]-p1[0], p2[1]-p1[1]
	d2x, d2y := p4[0]-p3[0], p4[1]-p3[1]
	den := d1x*d2y - d1y*d2x
	if math.Abs(den) < Tolerance {
		return collinearTouch(p1, p2, p3, p4)
	}
	t := ((p3[0]-p1[0])*d2y - (p3[1]-p1[1])*d2x) / den
	u := ((p3[0]-p1[0])*d1y - (p3[1]-p1[1])*d1x) / den
	if t < -Tolerance || t > 1+Tolerance || u < -Tolerance || u > 1+Tolerance {
		return orb.Point{}, 0, false
	}
	t = math.Max(0, math.Min(1, t))
	return lerp(p1, p2, t), t, true
}

// collinearTouch handles parallel segments: it reports the first endpoint of
// p3p4 lying on p1p2, if the segments are collinear and overlap.
func collinearTouch(p1, p2, p3, p4 orb.Point) (orb.Point, float64, bool) {
	cross := (p3[0]-p1[0])*(p2[1]-p1[1]) - (p3[1]-p1[1])*(p2[0]-p1[0])
	if math.Abs(cross) > Tolerance {
		return orb.Point{}, 0, false
	}
	dx, dy := p2[0]-p1[0], p2[1]-p1[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return orb.Point{}, 0, false
	}
	for _, q := range []orb.Point{p3, p4} {
		t := ((q[0]-p1[0])*dx + (q[1]-p1[1])*dy) / l2
		if t >= -Tolerance && t <= 1+Tolerance {
			return q, math.Max(0, math.Min(1, t)), true
		}
	}
	return orb.Point{}, 0, false
}

// Chain joins lines that connect end-to-start into one line. It returns false
// when the lines do not form a single chain in some order.
func Chain(lines []orb.LineString) (orb.LineString, bool) {
	if len(lines) == 0 {
		return nil, false
	}
	if len(lines) == 1 {
		return lines[0].Clone(), true
	}

	used := make([]bool, len(lines))
	// the head is the line whose start is no other line's end
	head := -1
	for i, l := range lines {
		isHead := true
		for j, m := range lines {
			if i != j && len(m) > 0 && len(l) > 0 && m[len(m)-1].Equal(l[0]) {
				isHead = false
				break
			}
		}
		if isHead {
			if head != -1 {
				return nil, false
			}
			head = i
		}
	}
	if head == -1 {
		return nil, false
	}

	out := lines[head].Clone()
	used[head] = true
	for n := 1; n < len(lines); n++ {
		next := -1
		for j, m := range lines {
			if !used[j] && len(m) > 0 && m[0].Equal(out[len(out)-1]) {
				next = j
				break
			}
		}
		if next == -1 {
			return nil, false
		}
		used[next] = true
		out = append(out, lines[next][1:]...)
	}
	return out, true
}
