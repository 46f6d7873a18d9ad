package lref

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"

	"fgtools.fluvialgeomorph.org/internal/geometry"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// RouteLine is one line of a collection keyed by a route identifier field.
type RouteLine struct {
	RouteID    string
	Line       orb.LineString
	Attributes models.Attributes
}

// MeasureFunc computes a from or to measure for a route's line.
type MeasureFunc func(routeID string, line orb.LineString) (float64, error)

// ConstantMeasure returns v for every route.
func ConstantMeasure(v float64) MeasureFunc {
	return func(string, orb.LineString) (float64, error) {
		return v, nil
	}
}

// LengthMeasure returns the line length converted from lineUnit into unit,
// plus offset. It is the usual to_measure: a flowline measured in kilometers
// from the river mouth uses LengthMeasure(unit, models.Kilometer, kmToMouth).
func LengthMeasure(lineUnit, unit models.LinearUnit, offset float64) MeasureFunc {
	return func(_ string, line orb.LineString) (float64, error) {
		l, err := geometry.TotalLength(line, lineUnit, unit)
		if err != nil {
			return 0, err
		}
		return l + offset, nil
	}
}

// BuildRoutesForCollection builds one route per distinct route id. A route id
// with several lines is ambiguous unless those lines connect end to start, in
// which case they are chained into one line. Routes are returned sorted by id.
func BuildRoutesForCollection(lines []RouteLine, fromFn, toFn MeasureFunc) ([]*Route, error) {
	byID := make(map[string][]orb.LineString)
	var ids []string
	for _, l := range lines {
		if _, ok := byID[l.RouteID]; !ok {
			ids = append(ids, l.RouteID)
		}
		byID[l.RouteID] = append(byID[l.RouteID], l.Line)
	}
	sort.Strings(ids)

	routes := make([]*Route, 0, len(ids))
	for _, id := range ids {
		parts := byID[id]
		line, ok := geometry.Chain(parts)
		if !ok {
			return nil, fmt.Errorf("route %q: %w: %d disjoint lines share the id, dissolve them first",
				id, models.ErrAmbiguousRoute, len(parts))
		}
		from, err := fromFn(id, line)
		if err != nil {
			return nil, fmt.Errorf("route %q from_measure: %w", id, err)
		}
		to, err := toFn(id, line)
		if err != nil {
			return nil, fmt.Errorf("route %q to_measure: %w", id, err)
		}
		r, err := BuildRoute(line, id, from, to)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, nil
}
