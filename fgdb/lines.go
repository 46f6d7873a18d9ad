package fgdb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// LineFeature is a stored polyline with its route id and attributes.
type LineFeature struct {
	FID        int
	RouteID    string
	Geometry   orb.LineString
	Attributes models.Attributes
}

// WriteLines replaces the dataset name with lines.
func (c *Client) WriteLines(ctx context.Context, name string, unit models.LinearUnit, lines []LineFeature) error {
	logger := logging.FromContext(ctx)
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.Rollback(logger, tx, name)

	if err := c.replaceDataset(ctx, tx, name, KindLines, unit); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO line_features (
			dataset, fid, route_id, geometry, attributes
		) VALUES (?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer logging.Close(logger, stmt, name)

	for _, l := range lines {
		geom, err := wkb.Marshal(l.Geometry)
		if err != nil {
			return fmt.Errorf("error encoding line %d: %w", l.FID, err)
		}
		attrs, err := encodeAttributes(l.Attributes)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, name, l.FID, l.RouteID, geom, attrs); err != nil {
			return fmt.Errorf("error inserting line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	logging.LogOperation(logger, "lines written",
		slog.String("component", "workspace"),
		slog.String("dataset", name),
		slog.Int("features", len(lines)))
	return nil
}

// Lines reads a lines dataset ordered by route id, then fid.
func (c *Client) Lines(ctx context.Context, name string, preds ...Predicate) ([]LineFeature, models.LinearUnit, error) {
	d, err := c.requireDataset(ctx, name, KindLines)
	if err != nil {
		return nil, "", err
	}
	filter, args, err := compilePredicates(preds, lineColumns)
	if err != nil {
		return nil, "", err
	}

	rows, err := c.DB.QueryContext(ctx,
		`SELECT fid, route_id, geometry, attributes FROM line_features WHERE dataset = ?`+filter+` ORDER BY route_id, fid, id`,
		append([]any{name}, args...)...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close() // nolint:errcheck

	var out []LineFeature
	for rows.Next() {
		var l LineFeature
		var geom []byte
		var attrs string
		if err := rows.Scan(&l.FID, &l.RouteID, &geom, &attrs); err != nil {
			return nil, "", err
		}
		g, err := wkb.Unmarshal(geom)
		if err != nil {
			return nil, "", fmt.Errorf("error decoding line %d: %w", l.FID, err)
		}
		ls, ok := g.(orb.LineString)
		if !ok {
			return nil, "", fmt.Errorf("line %d: stored geometry is %s", l.FID, g.GeoJSONType())
		}
		l.Geometry = ls
		if l.Attributes, err = decodeAttributes(attrs); err != nil {
			return nil, "", err
		}
		out = append(out, l)
	}
	return out, d.LinearUnit, rows.Err()
}
