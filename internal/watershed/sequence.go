package watershed

import (
	"fmt"
	"sort"

	"fgtools.fluvialgeomorph.org/internal/models"
)

// Resequence orders cross sections by river position, lowest first, and
// numbers them contiguously from startSeq. Records without a river position
// keep their relative seq order after all positioned records.
func Resequence(records []models.CrossSectionRecord, startSeq int) []models.CrossSectionRecord {
	out := make([]models.CrossSectionRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].RiverPosition, out[j].RiverPosition
		switch {
		case a != nil && b != nil && *a != *b:
			return *a < *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].Seq < out[j].Seq
	})
	for i := range out {
		out[i].Seq = startSeq + i
	}
	return out
}

// Violation is a decrease of a monotone attribute between consecutive cross
// sections of one reach.
type Violation struct {
	ReachName string
	Field     string
	PrevSeq   int
	Seq       int
	Prev      float64
	Value     float64
}

func (v Violation) String() string {
	return fmt.Sprintf("reach %q: %s decreases from %g (seq %d) to %g (seq %d)",
		v.ReachName, v.Field, v.Prev, v.PrevSeq, v.Value, v.Seq)
}

// Monotone attribute names reported in violations.
const (
	FieldRiverPosition = "river_position"
	FieldWatershedArea = "watershed_area"
)

// CheckMonotonic walks each reach in seq order and reports every place where
// river position or watershed area decreases. Missing values are skipped.
func CheckMonotonic(records []models.CrossSectionRecord) []Violation {
	byReach := map[string][]models.CrossSectionRecord{}
	var reaches []string
	for _, r := range records {
		if _, ok := byReach[r.ReachName]; !ok {
			reaches = append(reaches, r.ReachName)
		}
		byReach[r.ReachName] = append(byReach[r.ReachName], r)
	}
	sort.Strings(reaches)

	var out []Violation
	for _, reach := range reaches {
		rs := byReach[reach]
		models.SortBySeq(rs)
		out = append(out, decreases(reach, FieldRiverPosition, rs, func(r models.CrossSectionRecord) *float64 { return r.RiverPosition })...)
		out = append(out, decreases(reach, FieldWatershedArea, rs, func(r models.CrossSectionRecord) *float64 { return r.WatershedArea })...)
	}
	return out
}

func decreases(reach, field string, rs []models.CrossSectionRecord, get func(models.CrossSectionRecord) *float64) []Violation {
	var out []Violation
	var prev *models.CrossSectionRecord
	for i := range rs {
		v := get(rs[i])
		if v == nil {
			continue
		}
		if prev != nil {
			if pv := *get(*prev); *v < pv {
				out = append(out, Violation{
					ReachName: reach,
					Field:     field,
					PrevSeq:   prev.Seq,
					Seq:       rs[i].Seq,
					Prev:      pv,
					Value:     *v,
				})
			}
		}
		prev = &rs[i]
	}
	return out
}

// SeqRange is an inclusive run of seq values.
type SeqRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Len is the number of seq values in the run.
func (r SeqRange) Len() int { return r.To - r.From + 1 }

// SequenceReport lists seq values that break uniqueness or contiguity.
// Missing holds the gaps between consecutive distinct seq values.
type SequenceReport struct {
	Duplicates []int
	Missing    []SeqRange
}

// OK reports whether the seq values are unique and contiguous.
func (s SequenceReport) OK() bool {
	return len(s.Duplicates) == 0 && len(s.Missing) == 0
}

// MissingCount is the total number of seq values absent from the gaps.
func (s SequenceReport) MissingCount() int {
	n := 0
	for _, g := range s.Missing {
		n += g.Len()
	}
	return n
}

// CheckSequence finds duplicate seq values and the gaps between the lowest
// and highest seq. Work is bounded by the number of records, not the span of
// seq values.
func CheckSequence(records []models.CrossSectionRecord) SequenceReport {
	var rep SequenceReport
	if len(records) == 0 {
		return rep
	}
	seen := map[int]int{}
	for _, r := range records {
		seen[r.Seq]++
	}
	distinct := make([]int, 0, len(seen))
	for s, n := range seen {
		distinct = append(distinct, s)
		if n > 1 {
			rep.Duplicates = append(rep.Duplicates, s)
		}
	}
	sort.Ints(distinct)
	sort.Ints(rep.Duplicates)
	for i := 1; i < len(distinct); i++ {
		if prev, cur := distinct[i-1], distinct[i]; cur-prev > 1 {
			rep.Missing = append(rep.Missing, SeqRange{From: prev + 1, To: cur - 1})
		}
	}
	return rep
}
