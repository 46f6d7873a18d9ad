package models

// Bank sides used on banklines and loop points.
const (
	BankLeft  = "left"
	BankRight = "right"
)

// Loop point positions within a bend.
const (
	PositionStart = "start"
	PositionApex  = "apex"
	PositionEnd   = "end"
)

// LoopBendRange is the measure range of one bend of a meander loop along one
// bank. Bend 0 marks an apex-only record.
type LoopBendRange struct {
	Loop         int     `json:"loop"`
	Bend         int     `json:"bend"`
	Bank         string  `json:"bank"`
	StartMeasure float64 `json:"startMeasure"`
	EndMeasure   float64 `json:"endMeasure"`
}

// Contains reports whether m lies in the closed range.
func (r LoopBendRange) Contains(m float64) bool {
	return m >= r.StartMeasure && m <= r.EndMeasure
}

// LoopPoint is a digitized meander-loop marker.
type LoopPoint struct {
	Loop     int     `json:"loop"`
	Bend     int     `json:"bend"`
	Position string  `json:"position"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}
