package loops

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"fgtools.fluvialgeomorph.org/internal/models"
)

type bendKey struct {
	loop, bend int
}

// DeriveRanges builds one LoopBendRange per (loop, bend) with bend != 0.
// The start is the lowest measure among associations at a "start" loop point,
// the end the highest among those at an "end" loop point; when a position is
// missing the bend's overall minimum or maximum is used. The bank is the
// most frequent bank among the loop's associations, ties going to the
// alphabetically first. Output is sorted by loop, then bend.
func DeriveRanges(assocs []Association) []models.LoopBendRange {
	type acc struct {
		min, max         float64
		startMin, endMax float64
		hasStart, hasEnd bool
	}
	bends := map[bendKey]*acc{}
	banks := map[int]map[string]int{}

	for _, a := range assocs {
		lp := a.LoopPoint
		if banks[lp.Loop] == nil {
			banks[lp.Loop] = map[string]int{}
		}
		if a.Bank != "" {
			banks[lp.Loop][a.Bank]++
		}
		if lp.Bend == 0 {
			continue
		}
		k := bendKey{lp.Loop, lp.Bend}
		b, ok := bends[k]
		if !ok {
			b = &acc{min: math.Inf(1), max: math.Inf(-1), startMin: math.Inf(1), endMax: math.Inf(-1)}
			bends[k] = b
		}
		b.min = math.Min(b.min, a.Measure)
		b.max = math.Max(b.max, a.Measure)
		switch lp.Position {
		case models.PositionStart:
			b.startMin = math.Min(b.startMin, a.Measure)
			b.hasStart = true
		case models.PositionEnd:
			b.endMax = math.Max(b.endMax, a.Measure)
			b.hasEnd = true
		}
	}

	out := make([]models.LoopBendRange, 0, len(bends))
	for k, b := range bends {
		r := models.LoopBendRange{
			Loop:         k.loop,
			Bend:         k.bend,
			Bank:         dominantBank(banks[k.loop]),
			StartMeasure: b.min,
			EndMeasure:   b.max,
		}
		if b.hasStart {
			r.StartMeasure = b.startMin
		}
		if b.hasEnd {
			r.EndMeasure = b.endMax
		}
		out = append(out, r)
	}
	SortRanges(out)
	return out
}

func dominantBank(counts map[string]int) string {
	best, n := "", 0
	for bank, c := range counts {
		if c > n || (c == n && bank < best) {
			best, n = bank, c
		}
	}
	return best
}

// SortRanges orders ranges by loop, then bend.
func SortRanges(ranges []models.LoopBendRange) {
	sort.SliceStable(ranges, func(i, j int) bool {
		if ranges[i].Loop != ranges[j].Loop {
			return ranges[i].Loop < ranges[j].Loop
		}
		return ranges[i].Bend < ranges[j].Bend
	})
}

// CheckOverlaps reports every pair of assignable ranges on the same bank whose
// measure intervals intersect. The returned error wraps ErrAmbiguousRange once
// per overlapping pair.
func CheckOverlaps(ranges []models.LoopBendRange) error {
	sorted := make([]models.LoopBendRange, 0, len(ranges))
	for _, r := range ranges {
		if r.Bend != 0 {
			sorted = append(sorted, r)
		}
	}
	SortRanges(sorted)

	var errs []error
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			if a.Bank != b.Bank {
				continue
			}
			if a.StartMeasure <= b.EndMeasure && b.StartMeasure <= a.EndMeasure {
				errs = append(errs, fmt.Errorf("%w: loop %d bend %d [%g, %g] overlaps loop %d bend %d [%g, %g] on bank %q",
					models.ErrAmbiguousRange,
					a.Loop, a.Bend, a.StartMeasure, a.EndMeasure,
					b.Loop, b.Bend, b.StartMeasure, b.EndMeasure, a.Bank))
			}
		}
	}
	return errors.Join(errs...)
}
