package models

// ShapeEntry is a route geometry encoded as a Google polyline of (y, x)
// pairs.
type ShapeEntry struct {
	RouteID string `json:"routeId"`
	Points  string `json:"points"`
	Length  int    `json:"length"`
	Count   int    `json:"count"`
}
