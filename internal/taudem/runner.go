// Package taudem drives the TauDEM flow-routing executables under mpiexec.
package taudem

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// CommandRunner runs an external program to completion and returns what it
// wrote to stdout and stderr.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Runner invokes TauDEM tools as `mpiexec -n <processes> <tool> ...` and
// converts their GeoTIFF outputs to ESRI ASCII grids with gdal_translate.
type Runner struct {
	MPIExec       string
	Processes     int
	GDALTranslate string
	Commands      CommandRunner
}

// NewRunner returns a Runner using mpiexec and gdal_translate from PATH when
// their paths are empty.
func NewRunner(mpiexec, gdalTranslate string, processes int) *Runner {
	if mpiexec == "" {
		mpiexec = "mpiexec"
	}
	if gdalTranslate == "" {
		gdalTranslate = "gdal_translate"
	}
	if processes < 1 {
		processes = 1
	}
	return &Runner{MPIExec: mpiexec, Processes: processes, GDALTranslate: gdalTranslate, Commands: ExecRunner{}}
}

func (r *Runner) run(ctx context.Context, tool string, args ...string) error {
	full := append([]string{"-n", strconv.Itoa(r.Processes), tool}, args...)
	return r.exec(ctx, tool, r.MPIExec, full...)
}

func (r *Runner) exec(ctx context.Context, tool, program string, args ...string) error {
	logger := logging.FromContext(ctx)

	start := time.Now()
	out, err := r.Commands.Run(ctx, program, args...)
	if err != nil {
		logging.LogError(logger, "external tool failed", err,
			slog.String("component", "taudem"),
			slog.String("tool", tool))
		return fmt.Errorf("%w: %s: %w\n%s", models.ErrExternalToolFailure, tool, err, out)
	}

	logger.Debug("tool output", slog.String("tool", tool), slog.String("stdout", string(out)))
	logging.LogOperation(logger, "external tool finished",
		slog.String("component", "taudem"),
		slog.String("tool", tool),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// PitRemove fills pits in dem and writes the filled surface to fel.
func (r *Runner) PitRemove(ctx context.Context, dem, fel string) error {
	return r.run(ctx, "pitremove", "-z", dem, "-fel", fel)
}

// D8FlowDir writes D8 flow directions and slopes for a filled DEM.
func (r *Runner) D8FlowDir(ctx context.Context, fel, p, sd8 string) error {
	return r.run(ctx, "D8FlowDir", "-fel", fel, "-p", p, "-sd8", sd8)
}

// AreaD8 writes the D8 contributing area as a count of cells, the cell
// itself included.
func (r *Runner) AreaD8(ctx context.Context, p, ad8 string) error {
	return r.run(ctx, "AreaD8", "-p", p, "-ad8", ad8, "-nc")
}

// DinfFlowDir writes D-infinity flow angles and slopes for a filled DEM.
func (r *Runner) DinfFlowDir(ctx context.Context, fel, ang, slp string) error {
	return r.run(ctx, "DinfFlowDir", "-fel", fel, "-ang", ang, "-slp", slp)
}

// AreaDinf writes the D-infinity specific catchment area (area per unit
// contour width) without edge contamination checks.
func (r *Runner) AreaDinf(ctx context.Context, ang, sca string) error {
	return r.run(ctx, "AreaDinf", "-ang", ang, "-sca", sca, "-nc")
}

// Threshold writes a stream grid of the cells whose contributing area is at
// least threshold.
func (r *Runner) Threshold(ctx context.Context, ssa, src string, threshold float64) error {
	if !(threshold > 0) {
		return fmt.Errorf("%w: threshold %v", models.ErrInvalidParameter, threshold)
	}
	return r.run(ctx, "Threshold", "-ssa", ssa, "-src", src, "-thresh", strconv.FormatFloat(threshold, 'g', -1, 64))
}

// ToASCIIGrid converts a raster to an ESRI ASCII grid. gdal_translate writes
// the .prj sidecar next to out.
func (r *Runner) ToASCIIGrid(ctx context.Context, in, out string) error {
	return r.exec(ctx, "gdal_translate", r.GDALTranslate, "-of", "AAIGrid", in, out)
}

// Outputs are the rasters written by ContributingArea. FlowAccumGrid is the
// D8 cell count grid read by the watershed area step; ContributingArea is
// the D-infinity specific catchment area fed to Threshold.
type Outputs struct {
	Filled           string
	FlowDirD8        string
	SlopeD8          string
	FlowAccum        string
	FlowAccumGrid    string
	FlowAngle        string
	Slope            string
	ContributingArea string
}

// ContributingArea runs pit removal, the D8 flow direction and cell count
// accumulation, then the D-infinity flow direction and specific catchment
// area, writing into dir. The D8 accumulation is converted to an ASCII grid.
// The first failing stage stops the run.
func (r *Runner) ContributingArea(ctx context.Context, dem, dir string) (Outputs, error) {
	out := Outputs{
		Filled:           filepath.Join(dir, "fel.tif"),
		FlowDirD8:        filepath.Join(dir, "p.tif"),
		SlopeD8:          filepath.Join(dir, "sd8.tif"),
		FlowAccum:        filepath.Join(dir, "ad8.tif"),
		FlowAccumGrid:    filepath.Join(dir, "ad8.asc"),
		FlowAngle:        filepath.Join(dir, "ang.tif"),
		Slope:            filepath.Join(dir, "slp.tif"),
		ContributingArea: filepath.Join(dir, "sca.tif"),
	}
	stages := []func() error{
		func() error { return r.PitRemove(ctx, dem, out.Filled) },
		func() error { return r.D8FlowDir(ctx, out.Filled, out.FlowDirD8, out.SlopeD8) },
		func() error { return r.AreaD8(ctx, out.FlowDirD8, out.FlowAccum) },
		func() error { return r.ToASCIIGrid(ctx, out.FlowAccum, out.FlowAccumGrid) },
		func() error { return r.DinfFlowDir(ctx, out.Filled, out.FlowAngle, out.Slope) },
		func() error { return r.AreaDinf(ctx, out.FlowAngle, out.ContributingArea) },
	}
	for _, stage := range stages {
		if err := stage(); err != nil {
			return Outputs{}, err
		}
	}
	return out, nil
}

// StreamOutputs are the rasters written by StreamNetwork.
type StreamOutputs struct {
	Streams     string
	StreamsGrid string
}

// StreamNetwork thresholds ssa into a stream raster in dir and converts it to
// an ASCII grid.
func (r *Runner) StreamNetwork(ctx context.Context, ssa, dir string, threshold float64) (StreamOutputs, error) {
	out := StreamOutputs{
		Streams:     filepath.Join(dir, "src.tif"),
		StreamsGrid: filepath.Join(dir, "src.asc"),
	}
	if err := r.Threshold(ctx, ssa, out.Streams, threshold); err != nil {
		return StreamOutputs{}, err
	}
	if err := r.ToASCIIGrid(ctx, out.Streams, out.StreamsGrid); err != nil {
		return StreamOutputs{}, err
	}
	return out, nil
}
