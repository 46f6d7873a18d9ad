package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
	"fgtools.fluvialgeomorph.org/internal/taudem"
)

// ContributingArea runs the external flow routing chain on dem and writes
// its rasters into dir. Its FlowAccumGrid output is the accumulation grid
// XSWatershedArea reads.
func (t *Tools) ContributingArea(ctx context.Context, dem, dir string) (taudem.Outputs, error) {
	ctx = t.withLogger(ctx)
	if t.TauDEM == nil {
		return taudem.Outputs{}, fmt.Errorf("%w: no flow routing runner configured", models.ErrInvalidParameter)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return taudem.Outputs{}, fmt.Errorf("error creating %s: %w", dir, err)
	}
	out, err := t.TauDEM.ContributingArea(ctx, dem, dir)
	if err != nil {
		return taudem.Outputs{}, err
	}
	logging.LogOperation(logging.FromContext(ctx), "contributing area complete",
		slog.String("component", "hydrology"),
		slog.String("dem", dem),
		slog.String("flow_accumulation", out.FlowAccumGrid),
		slog.String("contributing_area", out.ContributingArea))
	return out, nil
}

// StreamNetwork thresholds a contributing area raster into a stream raster
// written as src.tif and src.asc next to it.
func (t *Tools) StreamNetwork(ctx context.Context, sca string, threshold float64) (taudem.StreamOutputs, error) {
	ctx = t.withLogger(ctx)
	if t.TauDEM == nil {
		return taudem.StreamOutputs{}, fmt.Errorf("%w: no flow routing runner configured", models.ErrInvalidParameter)
	}
	out, err := t.TauDEM.StreamNetwork(ctx, sca, filepath.Dir(sca), threshold)
	if err != nil {
		return taudem.StreamOutputs{}, err
	}
	logging.LogOperation(logging.FromContext(ctx), "stream network complete",
		slog.String("component", "hydrology"),
		slog.String("streams", out.StreamsGrid),
		slog.Float64("threshold", threshold),
		slog.Int("smoothing_passes", t.Application.Tools.SmoothingPasses))
	return out, nil
}
