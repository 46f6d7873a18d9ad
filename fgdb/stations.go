package fgdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"

	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// WriteStationPoints replaces the dataset name with points. fromMeasures
// records each route's from_measure so readers can repair the first station;
// routes missing from the map are stored with 0.
func (c *Client) WriteStationPoints(ctx context.Context, name string, unit models.LinearUnit, points []models.StationPoint, fromMeasures map[string]float64) error {
	logger := logging.FromContext(ctx)
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.Rollback(logger, tx, name)

	if err := c.replaceDataset(ctx, tx, name, KindStations, unit); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO station_points (
			dataset, route_id, vertex, measure, from_measure, x, y, z, attributes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer logging.Close(logger, stmt, name)

	for _, p := range points {
		attrs, err := encodeAttributes(p.Attributes)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx,
			name, p.RouteID, p.Vertex, toNullFloat64(p.Measure), fromMeasures[p.RouteID],
			p.X, p.Y, ptrToNullFloat64(p.Z), attrs,
		)
		if err != nil {
			return fmt.Errorf("error inserting station point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	logging.LogOperation(logger, "station points written",
		slog.String("component", "workspace"),
		slog.String("dataset", name),
		slog.Int("features", len(points)))
	return nil
}

// firstMeasureExpr reads a station's measure with the first station of every
// route pinned to the route's from_measure, so filters see corrected values.
const firstMeasureExpr = "(CASE WHEN vertex = 0 THEN from_measure ELSE measure END)"

// StationPoints reads a station dataset. The first station of every route
// carries the route's stored from_measure and the result is ordered by route
// id, then measure.
func (c *Client) StationPoints(ctx context.Context, name string, preds ...Predicate) ([]models.StationPoint, error) {
	if _, err := c.requireDataset(ctx, name, KindStations); err != nil {
		return nil, err
	}
	filter, args, err := compilePredicates(preds, stationColumns)
	if err != nil {
		return nil, err
	}

	rows, err := c.DB.QueryContext(ctx,
		`SELECT route_id, vertex, `+firstMeasureExpr+`, x, y, z, attributes
		 FROM station_points WHERE dataset = ?`+filter+` ORDER BY route_id, vertex, id`,
		append([]any{name}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var out []models.StationPoint
	for rows.Next() {
		var p models.StationPoint
		var measure, z sql.NullFloat64
		var attrs string
		if err := rows.Scan(&p.RouteID, &p.Vertex, &measure, &p.X, &p.Y, &z, &attrs); err != nil {
			return nil, err
		}
		p.Measure = math.NaN()
		if measure.Valid {
			p.Measure = measure.Float64
		}
		p.Z = nullFloat64ToPtr(z)
		if p.Attributes, err = decodeAttributes(attrs); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	models.SortStations(out)
	return out, nil
}
