package tools

import (
	"context"
	"fmt"

	"fgtools.fluvialgeomorph.org/fgdb"
	"fgtools.fluvialgeomorph.org/internal/lref"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// routeLines converts stored features into route builder input.
func routeLines(features []fgdb.LineFeature) []lref.RouteLine {
	out := make([]lref.RouteLine, len(features))
	for i, f := range features {
		out[i] = lref.RouteLine{RouteID: f.RouteID, Line: f.Geometry, Attributes: f.Attributes}
	}
	return out
}

// routeAttributes keeps the first feature's values for each listed field,
// per route id.
func routeAttributes(lines []lref.RouteLine, fields ...string) map[string]models.Attributes {
	out := make(map[string]models.Attributes)
	for _, l := range lines {
		if _, ok := out[l.RouteID]; ok {
			continue
		}
		attrs := models.Attributes{}
		for _, f := range fields {
			if v, ok := l.Attributes[f]; ok {
				attrs[f] = v
			}
		}
		out[l.RouteID] = attrs
	}
	return out
}

// copyRouteAttributes writes each route's carried fields onto its points.
func copyRouteAttributes(points []models.StationPoint, attrs map[string]models.Attributes) {
	for i := range points {
		for k, v := range attrs[points[i].RouteID] {
			points[i].Set(k, v)
		}
	}
}

func fromMeasures(routes []*lref.Route) map[string]float64 {
	out := make(map[string]float64, len(routes))
	for _, r := range routes {
		out[r.ID] = r.FromMeasure
	}
	return out
}

// lineStations builds 0-to-length routes over a lines dataset and walks them
// at the station distance. It is the common first step of the bankline,
// valley line and cross section tools.
func (t *Tools) lineStations(ctx context.Context, dataset string, distance float64, fields ...string) ([]*lref.Route, []models.StationPoint, models.LinearUnit, error) {
	features, unit, err := t.Workspace.Lines(ctx, dataset)
	if err != nil {
		return nil, nil, "", fmt.Errorf("error reading %s: %w", dataset, err)
	}
	mode, err := lref.ModeForDistance(distance)
	if err != nil {
		return nil, nil, "", err
	}
	lines := routeLines(features)
	routes, err := lref.BuildRoutesForCollection(lines, lref.ConstantMeasure(0), lref.LengthMeasure(unit, unit, 0))
	if err != nil {
		return nil, nil, "", fmt.Errorf("error building routes for %s: %w", dataset, err)
	}
	points, err := lref.StationPointsForRoutes(routes, mode)
	if err != nil {
		return nil, nil, "", err
	}
	copyRouteAttributes(points, routeAttributes(lines, fields...))
	return routes, points, unit, nil
}
