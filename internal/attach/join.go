package attach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// UnmatchedPolicy decides what happens to points without a match.
type UnmatchedPolicy string

const (
	// NullFill keeps the point and writes nil for every joined field.
	NullFill UnmatchedPolicy = "null"
	// Drop removes the point from the output.
	Drop UnmatchedPolicy = "drop"
	// Fail aborts the join with ErrNoMatchFound.
	Fail UnmatchedPolicy = "fail"
)

// ParseUnmatchedPolicy maps a configuration value onto a policy. The empty
// string selects NullFill.
func ParseUnmatchedPolicy(s string) (UnmatchedPolicy, error) {
	switch UnmatchedPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", NullFill, "nullfill", "null_fill":
		return NullFill, nil
	case Drop:
		return Drop, nil
	case Fail, "error":
		return Fail, nil
	}
	return "", fmt.Errorf("%w: unmatched policy %q", models.ErrInvalidParameter, s)
}

// Joined field suffixes written under the join prefix.
const (
	SuffixRouteID  = "route_id"
	SuffixMeasure  = "measure"
	SuffixX        = "x"
	SuffixY        = "y"
	SuffixDistance = "distance"
)

// JoinNearest copies the route id, measure, coordinates and attributes of each
// point's match onto the point under prefix, e.g. "valley_measure". The output
// keeps the order of points.
func JoinNearest(ctx context.Context, points, others []models.StationPoint, rule Rule, policy UnmatchedPolicy, prefix string) ([]models.StationPoint, error) {
	logger := logging.FromContext(ctx)
	if policy == "" {
		policy = NullFill
	}

	matches, err := Nearest(points, others, rule)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, o := range others {
		for k := range o.Attributes {
			keys = append(keys, k)
		}
	}
	keys = dedupe(keys)

	out := make([]models.StationPoint, 0, len(points))
	unmatched := 0
	for _, m := range matches {
		p := points[m.Index]
		p.Attributes = p.Attributes.Clone()
		if m.Err != nil {
			if !errors.Is(m.Err, models.ErrNoMatchFound) {
				return nil, m.Err
			}
			unmatched++
			switch policy {
			case Fail:
				return nil, fmt.Errorf("point %d on route %q (%s): %w", m.Index, p.RouteID, rule, m.Err)
			case Drop:
				continue
			}
			for _, s := range []string{SuffixRouteID, SuffixMeasure, SuffixX, SuffixY, SuffixDistance} {
				p.Set(prefix+s, nil)
			}
			for _, k := range keys {
				p.Set(prefix+k, nil)
			}
			out = append(out, p)
			continue
		}

		o := others[m.Candidate]
		p.Set(prefix+SuffixRouteID, o.RouteID)
		p.Set(prefix+SuffixMeasure, o.Measure)
		p.Set(prefix+SuffixX, o.X)
		p.Set(prefix+SuffixY, o.Y)
		p.Set(prefix+SuffixDistance, m.Distance)
		for k, v := range o.Attributes {
			p.Set(prefix+k, v)
		}
		out = append(out, p)
	}

	if unmatched > 0 {
		logger.Warn("points without a nearest match",
			slog.String("component", "attach"),
			slog.String("rule", rule.String()),
			slog.String("policy", string(policy)),
			slog.Int("unmatched", unmatched))
	}
	logging.LogOperation(logger, "nearest join complete",
		slog.String("component", "attach"),
		slog.String("prefix", prefix),
		slog.Int("points", len(points)),
		slog.Int("joined", len(out)))
	return out, nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
