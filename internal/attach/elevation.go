// Package attach enriches station points with values sampled from raster
// surfaces or copied from the nearest point of another station set.
package attach

import (
	"context"
	"log/slog"

	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
	"fgtools.fluvialgeomorph.org/internal/raster"
)

// AttachElevation samples surface at every point and writes the value under
// field. A nil surface leaves the points untouched and logs a warning. Points
// over nodata or outside the surface keep the field unset.
func AttachElevation(ctx context.Context, points []models.StationPoint, surface raster.Surface, field string) []models.StationPoint {
	logger := logging.FromContext(ctx)
	if surface == nil {
		logger.Warn("no surface supplied, skipping elevation",
			slog.String("component", "attach"),
			slog.String("field", field))
		return points
	}

	missed := 0
	for i := range points {
		v, ok := surface.Sample(points[i].X, points[i].Y, raster.Bilinear)
		if !ok {
			missed++
			continue
		}
		points[i].Set(field, v)
	}

	logging.LogOperation(logger, "elevation attached",
		slog.String("component", "attach"),
		slog.String("field", field),
		slog.Int("points", len(points)),
		slog.Int("missed", missed))
	return points
}
