package models

import (
	"sort"

	"github.com/paulmach/orb"
)

// CrossSectionRecord is one cross section line and the scalar attributes
// derived for it.
type CrossSectionRecord struct {
	Seq           int            `json:"seq"`
	ReachName     string         `json:"reachName"`
	RiverPosition *float64       `json:"riverPosition,omitempty"`
	WatershedArea *float64       `json:"watershedArea,omitempty"`
	Loop          *int           `json:"loop,omitempty"`
	Bend          *int           `json:"bend,omitempty"`
	Geometry      orb.LineString `json:"-"`
	Attributes    Attributes     `json:"attributes,omitempty"`
}

// Set writes an attribute, allocating the map on first use.
func (r *CrossSectionRecord) Set(key string, v any) {
	if r.Attributes == nil {
		r.Attributes = Attributes{}
	}
	r.Attributes[key] = v
}

// SortBySeq orders records by seq.
func SortBySeq(records []CrossSectionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Seq < records[j].Seq
	})
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
