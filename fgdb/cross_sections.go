package fgdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// WriteCrossSections replaces the dataset name with records.
func (c *Client) WriteCrossSections(ctx context.Context, name string, unit models.LinearUnit, records []models.CrossSectionRecord) error {
	logger := logging.FromContext(ctx)
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.Rollback(logger, tx, name)

	if err := c.replaceDataset(ctx, tx, name, KindCrossSections, unit); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cross_sections (
			dataset, seq, reach_name, river_position, watershed_area, loop, bend, geometry, attributes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer logging.Close(logger, stmt, name)

	for _, r := range records {
		geom, err := wkb.Marshal(r.Geometry)
		if err != nil {
			return fmt.Errorf("error encoding cross section %d: %w", r.Seq, err)
		}
		attrs, err := encodeAttributes(r.Attributes)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx,
			name, r.Seq, r.ReachName,
			ptrToNullFloat64(r.RiverPosition), ptrToNullFloat64(r.WatershedArea),
			ptrToNullInt64(r.Loop), ptrToNullInt64(r.Bend),
			geom, attrs,
		)
		if err != nil {
			return fmt.Errorf("error inserting cross section: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	logging.LogOperation(logger, "cross sections written",
		slog.String("component", "workspace"),
		slog.String("dataset", name),
		slog.Int("features", len(records)))
	return nil
}

// CrossSections reads a cross section dataset ordered by seq.
func (c *Client) CrossSections(ctx context.Context, name string, preds ...Predicate) ([]models.CrossSectionRecord, models.LinearUnit, error) {
	d, err := c.requireDataset(ctx, name, KindCrossSections)
	if err != nil {
		return nil, "", err
	}
	filter, args, err := compilePredicates(preds, crossSectionColumns)
	if err != nil {
		return nil, "", err
	}

	rows, err := c.DB.QueryContext(ctx,
		`SELECT seq, reach_name, river_position, watershed_area, loop, bend, geometry, attributes
		 FROM cross_sections WHERE dataset = ?`+filter+` ORDER BY seq, id`,
		append([]any{name}, args...)...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close() // nolint:errcheck

	var out []models.CrossSectionRecord
	for rows.Next() {
		var r models.CrossSectionRecord
		var position, area sql.NullFloat64
		var loop, bend sql.NullInt64
		var geom []byte
		var attrs string
		if err := rows.Scan(&r.Seq, &r.ReachName, &position, &area, &loop, &bend, &geom, &attrs); err != nil {
			return nil, "", err
		}
		g, err := wkb.Unmarshal(geom)
		if err != nil {
			return nil, "", fmt.Errorf("error decoding cross section %d: %w", r.Seq, err)
		}
		ls, ok := g.(orb.LineString)
		if !ok {
			return nil, "", fmt.Errorf("cross section %d: stored geometry is %s", r.Seq, g.GeoJSONType())
		}
		r.Geometry = ls
		r.RiverPosition = nullFloat64ToPtr(position)
		r.WatershedArea = nullFloat64ToPtr(area)
		r.Loop = nullInt64ToPtr(loop)
		r.Bend = nullInt64ToPtr(bend)
		if r.Attributes, err = decodeAttributes(attrs); err != nil {
			return nil, "", err
		}
		out = append(out, r)
	}
	return out, d.LinearUnit, rows.Err()
}
