// Package tools composes the linear-referencing packages into the
// geoprocessing tools exposed by the command line. Every tool reads its
// inputs from the workspace, logs its progress and writes a new dataset.
package tools

import (
	"context"
	"fmt"

	"fgtools.fluvialgeomorph.org/internal/app"
	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
	"fgtools.fluvialgeomorph.org/internal/raster"
)

// Tools runs geoprocessing steps against one application's workspace.
type Tools struct {
	*app.Application
}

// New creates the tool set for application.
func New(application *app.Application) *Tools {
	return &Tools{Application: application}
}

// withLogger makes the application logger available to the packages the
// tools call, unless ctx already carries one.
func (t *Tools) withLogger(ctx context.Context) context.Context {
	if logging.HasLogger(ctx) || t.Logger == nil {
		return ctx
	}
	return logging.WithLogger(ctx, t.Logger)
}

// openSurface opens an optional raster. An empty path yields a nil surface,
// which the attach step treats as missing.
func openSurface(path string, fallback models.LinearUnit) (raster.Surface, error) {
	if path == "" {
		return nil, nil
	}
	g, err := raster.Open(path, fallback)
	if err != nil {
		return nil, fmt.Errorf("error opening raster %s: %w", path, err)
	}
	return g, nil
}

func requireName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%w: %s dataset name is required", models.ErrInvalidParameter, kind)
	}
	return nil
}
