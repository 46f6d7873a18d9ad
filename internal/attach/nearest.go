package attach

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"

	"fgtools.fluvialgeomorph.org/internal/geometry"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// RuleKind identifies how a candidate is chosen.
type RuleKind int

const (
	RuleClosestPlanar RuleKind = iota
	RuleWithinDistance
	RuleMeasureRange
)

// Rule is a nearest-join match rule.
type Rule struct {
	Kind RuleKind
	// Radius is the planar search radius for RuleWithinDistance and the
	// measure tolerance for RuleMeasureRange (0 means unbounded).
	Radius float64
}

// ClosestPlanar picks the nearest candidate by planar distance.
func ClosestPlanar() Rule { return Rule{Kind: RuleClosestPlanar} }

// WithinDistance picks the nearest candidate no farther than radius.
func WithinDistance(radius float64) Rule { return Rule{Kind: RuleWithinDistance, Radius: radius} }

// MeasureRangeContainment picks the candidate on the same route whose measure
// is closest to the point's measure, within tolerance when tolerance > 0.
func MeasureRangeContainment(tolerance float64) Rule {
	return Rule{Kind: RuleMeasureRange, Radius: tolerance}
}

func (r Rule) String() string {
	switch r.Kind {
	case RuleClosestPlanar:
		return "closest"
	case RuleWithinDistance:
		return fmt.Sprintf("within(%g)", r.Radius)
	case RuleMeasureRange:
		return fmt.Sprintf("measure(%g)", r.Radius)
	}
	return "unknown"
}

// Validate rejects rules that cannot match anything meaningful.
func (r Rule) Validate() error {
	switch r.Kind {
	case RuleClosestPlanar:
		return nil
	case RuleWithinDistance:
		if !(r.Radius > 0) {
			return fmt.Errorf("%w: search radius %v", models.ErrInvalidParameter, r.Radius)
		}
		return nil
	case RuleMeasureRange:
		if r.Radius < 0 || math.IsNaN(r.Radius) {
			return fmt.Errorf("%w: measure tolerance %v", models.ErrInvalidParameter, r.Radius)
		}
		return nil
	}
	return fmt.Errorf("%w: match rule %d", models.ErrInvalidParameter, r.Kind)
}

// Match is the result of a nearest lookup for points[Index]. Candidate is an
// index into the candidate set and is -1 when Err is set.
type Match struct {
	Index     int
	Candidate int
	Distance  float64
	Err       error
}

type candidate struct {
	idx int
	p   models.StationPoint
}

func (c *candidate) Point() orb.Point { return orb.Point{c.p.X, c.p.Y} }

// better reports whether a should win over b at equal distance.
func better(a, b *candidate) bool {
	if a.p.Measure != b.p.Measure {
		return a.p.Measure < b.p.Measure
	}
	if a.p.RouteID != b.p.RouteID {
		return a.p.RouteID < b.p.RouteID
	}
	return a.idx < b.idx
}

// Index is a spatial index over a candidate station set.
type Index struct {
	qt      *quadtree.Quadtree
	cands   []*candidate
	byRoute map[string][]*candidate
}

// NewIndex builds a quadtree over others.
func NewIndex(others []models.StationPoint) *Index {
	ix := &Index{byRoute: map[string][]*candidate{}}
	if len(others) == 0 {
		return ix
	}

	b := orb.Bound{Min: orb.Point{others[0].X, others[0].Y}, Max: orb.Point{others[0].X, others[0].Y}}
	for _, o := range others {
		b = b.Extend(orb.Point{o.X, o.Y})
	}
	ix.qt = quadtree.New(b.Pad(1))
	for i, o := range others {
		c := &candidate{idx: i, p: o}
		ix.cands = append(ix.cands, c)
		ix.byRoute[o.RouteID] = append(ix.byRoute[o.RouteID], c)
		// Bound covers every candidate, so Add cannot fail.
		_ = ix.qt.Add(c)
	}
	return ix
}

// Len is the number of indexed candidates.
func (ix *Index) Len() int { return len(ix.cands) }

// Lookup finds the candidate for p under rule.
func (ix *Index) Lookup(p models.StationPoint, rule Rule) (int, float64, error) {
	if len(ix.cands) == 0 {
		return -1, 0, models.ErrNoMatchFound
	}
	switch rule.Kind {
	case RuleMeasureRange:
		return ix.lookupMeasure(p, rule.Radius)
	case RuleWithinDistance:
		return ix.lookupPlanar(p, rule.Radius)
	default:
		return ix.lookupPlanar(p, math.Inf(1))
	}
}

func (ix *Index) lookupPlanar(p models.StationPoint, radius float64) (int, float64, error) {
	at := orb.Point{p.X, p.Y}
	nearest := ix.qt.Find(at)
	if nearest == nil {
		return -1, 0, models.ErrNoMatchFound
	}
	d := planar.Distance(at, nearest.Point())
	if d > radius+geometry.Tolerance {
		return -1, 0, models.ErrNoMatchFound
	}

	// Gather every candidate at the minimum distance for a deterministic
	// tie-break.
	reach := d + geometry.Tolerance
	box := orb.Bound{Min: at, Max: at}.Pad(reach)
	var best *candidate
	bestD := math.Inf(1)
	for _, ptr := range ix.qt.InBound(nil, box) {
		c := ptr.(*candidate)
		cd := planar.Distance(at, c.Point())
		if cd > reach {
			continue
		}
		if best == nil || cd < bestD-geometry.Tolerance || (math.Abs(cd-bestD) <= geometry.Tolerance && better(c, best)) {
			best, bestD = c, cd
		}
	}
	if best == nil {
		return -1, 0, models.ErrNoMatchFound
	}
	return best.idx, bestD, nil
}

func (ix *Index) lookupMeasure(p models.StationPoint, tolerance float64) (int, float64, error) {
	if !p.HasMeasure() {
		return -1, 0, fmt.Errorf("%w: point has no measure", models.ErrNoMatchFound)
	}
	var best *candidate
	bestD := math.Inf(1)
	for _, c := range ix.byRoute[p.RouteID] {
		if !c.p.HasMeasure() {
			continue
		}
		d := math.Abs(c.p.Measure - p.Measure)
		if tolerance > 0 && d > tolerance+geometry.Tolerance {
			continue
		}
		if best == nil || d < bestD-geometry.Tolerance || (math.Abs(d-bestD) <= geometry.Tolerance && better(c, best)) {
			best, bestD = c, d
		}
	}
	if best == nil {
		return -1, 0, models.ErrNoMatchFound
	}
	return best.idx, bestD, nil
}

// Nearest matches every point against others. Results are in point order;
// points without a qualifying candidate carry ErrNoMatchFound.
func Nearest(points, others []models.StationPoint, rule Rule) ([]Match, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	ix := NewIndex(others)
	matches := make([]Match, len(points))
	for i, p := range points {
		c, d, err := ix.Lookup(p, rule)
		matches[i] = Match{Index: i, Candidate: c, Distance: d, Err: err}
	}
	return matches, nil
}
