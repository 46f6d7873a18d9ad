package fgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// ErrDatasetNotFound is returned when a named dataset does not exist.
var ErrDatasetNotFound = errors.New("dataset not found")

// Dataset kinds.
const (
	KindLines         = "lines"
	KindStations      = "stations"
	KindCrossSections = "cross_sections"
	KindLoopPoints    = "loop_points"
)

var featureTables = map[string]string{
	KindLines:         "line_features",
	KindStations:      "station_points",
	KindCrossSections: "cross_sections",
	KindLoopPoints:    "loop_points",
}

// Dataset describes one named collection in the workspace.
type Dataset struct {
	Name       string            `json:"name"`
	Kind       string            `json:"kind"`
	LinearUnit models.LinearUnit `json:"linearUnit,omitempty"`
	RunID      string            `json:"runId"`
	CreatedAt  time.Time         `json:"createdAt"`
	Features   int               `json:"features"`
}

// replaceDataset clears any dataset called name and registers it afresh
// inside tx.
func (c *Client) replaceDataset(ctx context.Context, tx *sql.Tx, name, kind string, unit models.LinearUnit) error {
	if name == "" {
		return fmt.Errorf("%w: dataset name is required", models.ErrInvalidParameter)
	}
	if err := dropDatasetTx(ctx, tx, name); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO datasets (name, kind, linear_unit, run_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		name, kind, string(unit), c.runID, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("error registering dataset %s: %w", name, err)
	}
	return nil
}

func dropDatasetTx(ctx context.Context, tx *sql.Tx, name string) error {
	for _, table := range []string{"line_features", "station_points", "cross_sections", "loop_points", "datasets"} {
		column := "dataset"
		if table == "datasets" {
			column = "name"
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, column), name); err != nil {
			return fmt.Errorf("error clearing %s for dataset %s: %w", table, name, err)
		}
	}
	return nil
}

// DropDataset removes a dataset and all of its features. Dropping a dataset
// that does not exist is not an error.
func (c *Client) DropDataset(ctx context.Context, name string) error {
	logger := logging.FromContext(ctx)
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.Rollback(logger, tx, name)

	if err := dropDatasetTx(ctx, tx, name); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	logging.LogOperation(logger, "dataset dropped",
		slog.String("component", "workspace"),
		slog.String("dataset", name))
	return nil
}

// GetDataset returns the named dataset or ErrDatasetNotFound.
func (c *Client) GetDataset(ctx context.Context, name string) (Dataset, error) {
	var d Dataset
	var unit, created string
	err := c.DB.QueryRowContext(ctx,
		`SELECT name, kind, linear_unit, run_id, created_at FROM datasets WHERE name = ?`, name,
	).Scan(&d.Name, &d.Kind, &unit, &d.RunID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Dataset{}, fmt.Errorf("%w: %s", ErrDatasetNotFound, name)
	}
	if err != nil {
		return Dataset{}, err
	}
	d.LinearUnit = models.LinearUnit(unit)
	d.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	if d.Features, err = c.countFeatures(ctx, d.Name, d.Kind); err != nil {
		return Dataset{}, err
	}
	return d, nil
}

// requireDataset checks that name exists and has the expected kind.
func (c *Client) requireDataset(ctx context.Context, name, kind string) (Dataset, error) {
	d, err := c.GetDataset(ctx, name)
	if err != nil {
		return d, err
	}
	if d.Kind != kind {
		return d, fmt.Errorf("%w: dataset %s holds %s, not %s", models.ErrInvalidParameter, name, d.Kind, kind)
	}
	return d, nil
}

// ListDatasets returns every dataset ordered by name.
func (c *Client) ListDatasets(ctx context.Context) ([]Dataset, error) {
	rows, err := c.DB.QueryContext(ctx, `SELECT name FROM datasets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			_ = rows.Close()
			return nil, err
		}
		names = append(names, n)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Dataset, 0, len(names))
	for _, n := range names {
		d, err := c.GetDataset(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (c *Client) countFeatures(ctx context.Context, name, kind string) (int, error) {
	table, ok := featureTables[kind]
	if !ok {
		return 0, nil
	}
	var n int
	err := c.DB.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE dataset = ?", table), name).Scan(&n)
	return n, err
}
