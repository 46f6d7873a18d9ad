package models

import (
	"math"
	"sort"
)

// Conventional attribute names written onto station points.
const (
	FieldDEMZ            = "DEM_Z"
	FieldDetrendDEMZ     = "Detrend_DEM_Z"
	FieldLoop            = "loop"
	FieldBend            = "bend"
	FieldBank            = "bank"
	FieldPosition        = "position"
	FieldReachName       = "ReachName"
	FieldUncalibrated    = "POINT_M_uncalibrated"
	FieldCalibrationDiff = "calibration_diff"
)

// Attributes holds the non-geometric fields carried by a feature.
type Attributes map[string]any

// Float returns a numeric attribute. JSON round trips turn ints into float64,
// so both are accepted.
func (a Attributes) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Int returns an integral attribute.
func (a Attributes) Int(key string) (int, bool) {
	f, ok := a.Float(key)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}

// String returns a text attribute.
func (a Attributes) String(key string) (string, bool) {
	s, ok := a[key].(string)
	return s, ok
}

// Clone returns a shallow copy.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// StationPoint is a point on a route carrying the route's measure at that
// point. A NaN measure means the measure is undefined.
type StationPoint struct {
	RouteID    string     `json:"routeId"`
	Vertex     int        `json:"vertex"`
	Measure    float64    `json:"measure"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Z          *float64   `json:"z,omitempty"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// HasMeasure reports whether the measure is defined.
func (p StationPoint) HasMeasure() bool {
	return !math.IsNaN(p.Measure)
}

// Set writes an attribute, allocating the map on first use.
func (p *StationPoint) Set(key string, v any) {
	if p.Attributes == nil {
		p.Attributes = Attributes{}
	}
	p.Attributes[key] = v
}

// SortStations orders points by route_id, then measure, then vertex index.
func SortStations(points []StationPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		a, b := points[i], points[j]
		if a.RouteID != b.RouteID {
			return a.RouteID < b.RouteID
		}
		if a.Measure != b.Measure {
			return a.Measure < b.Measure
		}
		return a.Vertex < b.Vertex
	})
}

// SortByMeasure orders points by measure, then route_id.
func SortByMeasure(points []StationPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		a, b := points[i], points[j]
		if a.Measure != b.Measure {
			return a.Measure < b.Measure
		}
		return a.RouteID < b.RouteID
	})
}
