package tools

import (
	"context"
	"fmt"
	"log/slog"

	"fgtools.fluvialgeomorph.org/internal/attach"
	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/lref"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// FlowlinePointsParams configures FlowlinePoints.
type FlowlinePointsParams struct {
	Flowline        string  // lines dataset, one route per reach
	Output          string  // stations dataset to write
	StationDistance float64 // in the flowline's linear unit; 0 keeps vertices
	KmToMouth       float64 // river kilometer of the downstream end
	DEM             string  // optional raster sampled into DEM_Z
	DetrendDEM      string  // optional raster sampled into Detrend_DEM_Z
	Calibration     string  // optional stations dataset of known measures
	SearchRadius    float64 // calibration point search radius
}

// FlowlinePoints measures each flowline reach in kilometers from the river
// mouth, places stations along it and samples the elevation surfaces. Every
// station records its uncalibrated measure and the calibration difference,
// which is zero when no calibration points are given.
func (t *Tools) FlowlinePoints(ctx context.Context, p FlowlinePointsParams) ([]models.StationPoint, error) {
	ctx = t.withLogger(ctx)
	logger := logging.FromContext(ctx)
	if err := requireName("output", p.Output); err != nil {
		return nil, err
	}
	mode, err := lref.ModeForDistance(p.StationDistance)
	if err != nil {
		return nil, err
	}

	features, unit, err := t.Workspace.Lines(ctx, p.Flowline)
	if err != nil {
		return nil, fmt.Errorf("error reading flowline %s: %w", p.Flowline, err)
	}
	lines := routeLines(features)
	routes, err := lref.BuildRoutesForCollection(lines,
		lref.ConstantMeasure(p.KmToMouth),
		lref.LengthMeasure(unit, models.Kilometer, p.KmToMouth))
	if err != nil {
		return nil, fmt.Errorf("error building flowline routes: %w", err)
	}
	logging.LogOperation(logger, "flowline routes built",
		slog.String("component", "flowline"),
		slog.String("dataset", p.Flowline),
		slog.Int("routes", len(routes)),
		slog.String("stations", mode.String()))

	var cps []lref.CalibrationPoint
	if p.Calibration != "" {
		if cps, err = t.calibrationPoints(ctx, p.Calibration); err != nil {
			return nil, err
		}
	}

	var points []models.StationPoint
	for i, r := range routes {
		pts, err := lref.StationPoints(r, mode)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", r.ID, err)
		}
		if cps != nil {
			calibrated, err := lref.Calibrate(r, cps, p.SearchRadius)
			if err != nil {
				return nil, err
			}
			pts, err = recordCalibration(calibrated, mode, pts)
			if err != nil {
				return nil, err
			}
			routes[i] = calibrated
		} else {
			for j := range pts {
				pts[j].Set(models.FieldUncalibrated, pts[j].Measure)
				pts[j].Set(models.FieldCalibrationDiff, 0.0)
			}
		}
		points = append(points, pts...)
	}
	models.SortStations(points)
	copyRouteAttributes(points, routeAttributes(lines, models.FieldReachName))

	if err := t.attachSurfaces(ctx, points, unit, p.DEM, p.DetrendDEM); err != nil {
		return nil, err
	}
	if err := t.Workspace.WriteStationPoints(ctx, p.Output, unit, points, fromMeasures(routes)); err != nil {
		return nil, err
	}
	logging.LogOperation(logger, "flowline points written",
		slog.String("component", "flowline"),
		slog.String("dataset", p.Output),
		slog.Int("points", len(points)))
	return points, nil
}

// recordCalibration regenerates the stations on the calibrated route and
// keeps the uncalibrated measure and the difference as attributes.
func recordCalibration(calibrated *lref.Route, mode lref.Mode, uncalibrated []models.StationPoint) ([]models.StationPoint, error) {
	pts, err := lref.StationPoints(calibrated, mode)
	if err != nil {
		return nil, err
	}
	if len(pts) != len(uncalibrated) {
		return nil, fmt.Errorf("route %q: calibration changed the station count from %d to %d",
			calibrated.ID, len(uncalibrated), len(pts))
	}
	for i := range pts {
		pts[i].Set(models.FieldUncalibrated, uncalibrated[i].Measure)
		pts[i].Set(models.FieldCalibrationDiff, pts[i].Measure-uncalibrated[i].Measure)
	}
	return pts, nil
}

func (t *Tools) calibrationPoints(ctx context.Context, dataset string) ([]lref.CalibrationPoint, error) {
	stored, err := t.Workspace.StationPoints(ctx, dataset)
	if err != nil {
		return nil, fmt.Errorf("error reading calibration points %s: %w", dataset, err)
	}
	out := make([]lref.CalibrationPoint, 0, len(stored))
	for _, s := range stored {
		if !s.HasMeasure() {
			continue
		}
		out = append(out, lref.CalibrationPoint{RouteID: s.RouteID, Point: [2]float64{s.X, s.Y}, Measure: s.Measure})
	}
	return out, nil
}

// attachSurfaces samples the DEM and detrended DEM onto points in place. A
// missing path is logged and skipped.
func (t *Tools) attachSurfaces(ctx context.Context, points []models.StationPoint, unit models.LinearUnit, dem, detrend string) error {
	for _, s := range []struct{ path, field string }{
		{dem, models.FieldDEMZ},
		{detrend, models.FieldDetrendDEMZ},
	} {
		surface, err := openSurface(s.path, unit)
		if err != nil {
			return err
		}
		attach.AttachElevation(ctx, points, surface, s.field)
	}
	return nil
}
