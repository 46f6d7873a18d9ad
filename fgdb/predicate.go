package fgdb

import (
	"fmt"
	"strings"

	"fgtools.fluvialgeomorph.org/internal/models"
)

// Op is a comparison operator usable in a Predicate.
type Op string

const (
	Eq        Op = "="
	Ne        Op = "!="
	Lt        Op = "<"
	Le        Op = "<="
	Gt        Op = ">"
	Ge        Op = ">="
	IsNull    Op = "IS NULL"
	IsNotNull Op = "IS NOT NULL"
)

// Predicate is one typed row filter. Field is either a column of the dataset
// (route_id, measure, loop, ...) or the name of an attribute.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

// Where builds a predicate.
func Where(field string, op Op, value any) Predicate {
	return Predicate{Field: field, Op: op, Value: value}
}

// Column sets that predicates may address directly, per table.
var (
	lineColumns = map[string]string{
		"fid":      "fid",
		"route_id": "route_id",
	}
	stationColumns = map[string]string{
		"route_id":     "route_id",
		"vertex":       "vertex",
		"measure":      firstMeasureExpr,
		"from_measure": "from_measure",
		"x":            "x",
		"y":            "y",
		"z":            "z",
	}
	crossSectionColumns = map[string]string{
		"seq":            "seq",
		"reach_name":     "reach_name",
		"river_position": "river_position",
		"watershed_area": "watershed_area",
		"loop":           "loop",
		"bend":           "bend",
	}
	loopPointColumns = map[string]string{
		"loop":     "loop",
		"bend":     "bend",
		"position": "position",
	}
)

// compilePredicates turns predicates into a parameterised SQL fragment of the
// form " AND a = ? AND json_extract(attributes, ?) < ?". Field names never
// reach the SQL text unless they are known columns.
func compilePredicates(preds []Predicate, columns map[string]string) (string, []any, error) {
	var sb strings.Builder
	var args []any
	for _, p := range preds {
		if p.Field == "" {
			return "", nil, fmt.Errorf("%w: predicate without a field", models.ErrInvalidParameter)
		}

		lhs := "json_extract(attributes, ?)"
		col, isColumn := columns[p.Field]
		if isColumn {
			lhs = col
		}

		switch p.Op {
		case IsNull, IsNotNull:
			if p.Value != nil {
				return "", nil, fmt.Errorf("%w: %s %s takes no value", models.ErrInvalidParameter, p.Field, p.Op)
			}
		case Eq, Ne, Lt, Le, Gt, Ge:
			if !validValue(p.Value) {
				return "", nil, fmt.Errorf("%w: %s %s %T", models.ErrInvalidParameter, p.Field, p.Op, p.Value)
			}
		default:
			return "", nil, fmt.Errorf("%w: operator %q", models.ErrInvalidParameter, string(p.Op))
		}

		sb.WriteString(" AND ")
		sb.WriteString(lhs)
		sb.WriteString(" ")
		sb.WriteString(string(p.Op))
		if !isColumn {
			args = append(args, attributePath(p.Field))
		}
		if p.Op != IsNull && p.Op != IsNotNull {
			sb.WriteString(" ?")
			args = append(args, p.Value)
		}
	}
	return sb.String(), args, nil
}

func attributePath(field string) string {
	return `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`
}

func validValue(v any) bool {
	switch v.(type) {
	case string, bool, int, int32, int64, float32, float64:
		return true
	}
	return false
}

// requireColumns rejects predicates on anything but the given columns, for
// tables without an attributes document.
func requireColumns(preds []Predicate, columns map[string]string) error {
	for _, p := range preds {
		if _, ok := columns[p.Field]; !ok {
			return fmt.Errorf("%w: unknown field %q", models.ErrInvalidParameter, p.Field)
		}
	}
	return nil
}
