package fgdb

import (
	"context"
	"fmt"
	"log/slog"

	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// WriteLoopPoints replaces the dataset name with points.
func (c *Client) WriteLoopPoints(ctx context.Context, name string, unit models.LinearUnit, points []models.LoopPoint) error {
	logger := logging.FromContext(ctx)
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.Rollback(logger, tx, name)

	if err := c.replaceDataset(ctx, tx, name, KindLoopPoints, unit); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO loop_points (dataset, loop, bend, position, x, y) VALUES (?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer logging.Close(logger, stmt, name)

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, name, p.Loop, p.Bend, p.Position, p.X, p.Y); err != nil {
			return fmt.Errorf("error inserting loop point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	logging.LogOperation(logger, "loop points written",
		slog.String("component", "workspace"),
		slog.String("dataset", name),
		slog.Int("features", len(points)))
	return nil
}

// LoopPoints reads a loop point dataset ordered by loop, bend and insertion.
func (c *Client) LoopPoints(ctx context.Context, name string, preds ...Predicate) ([]models.LoopPoint, error) {
	if _, err := c.requireDataset(ctx, name, KindLoopPoints); err != nil {
		return nil, err
	}
	if err := requireColumns(preds, loopPointColumns); err != nil {
		return nil, err
	}
	filter, args, err := compilePredicates(preds, loopPointColumns)
	if err != nil {
		return nil, err
	}

	rows, err := c.DB.QueryContext(ctx,
		`SELECT loop, bend, position, x, y FROM loop_points WHERE dataset = ?`+filter+` ORDER BY loop, bend, id`,
		append([]any{name}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var out []models.LoopPoint
	for rows.Next() {
		var p models.LoopPoint
		if err := rows.Scan(&p.Loop, &p.Bend, &p.Position, &p.X, &p.Y); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
