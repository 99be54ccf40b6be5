// Package sqlgen defines the interface the engine uses to render a
// selected AbstractFeature as SQL text, plus a dependency-free
// reference dialect (spec.md §6's "per-feature SQL text emitted by an
// injected dialect generator -- the engine supplies the abstract
// features; the generator renders"). This package does not ship a
// production dialect backend (no transpiler against a real SQL
// engine's quirks); Generic exists to exercise the contract in tests.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/algomatic/relprop/pkg/aggregate"
	"github.com/algomatic/relprop/pkg/condition"
	"github.com/algomatic/relprop/pkg/enumerate"
)

// DialectGenerator renders one AbstractFeature as a SQL expression
// selecting that feature's value for every population row, scoped to
// the join named by feature.PeripheralTable. Implementations are free
// to assume whatever naming convention the engine's caller documents
// for the population/peripheral table aliases.
type DialectGenerator interface {
	// Render returns the SQL text for feature. alias is the table
	// alias the surrounding query uses for the peripheral table
	// feature.PeripheralTable.
	Render(feature enumerate.AbstractFeature, alias string) (string, error)
}

// Generic is a dependency-free reference dialect emitting ANSI-ish SQL
// aggregate expressions. It is not tuned to any specific database's
// dialect quirks (window functions, quoting rules) -- production
// dialects are an external collaborator's concern (spec.md Non-goals).
type Generic struct{}

// Render implements DialectGenerator.
func (Generic) Render(f enumerate.AbstractFeature, alias string) (string, error) {
	expr, err := aggregateExpr(f, alias)
	if err != nil {
		return "", err
	}
	where, err := whereClause(f.Conditions, alias)
	if err != nil {
		return "", err
	}
	if where == "" {
		return expr, nil
	}
	return fmt.Sprintf("%s FILTER (WHERE %s)", expr, where), nil
}

func aggregateExpr(f enumerate.AbstractFeature, alias string) (string, error) {
	col := qualify(alias, f.AggregatedColumn)
	switch f.Aggregation {
	case aggregate.COUNT:
		return fmt.Sprintf("COUNT(%s.*)", alias), nil
	case aggregate.COUNT_DISTINCT:
		return fmt.Sprintf("COUNT(DISTINCT %s)", col), nil
	case aggregate.COUNT_MINUS_COUNT_DISTINCT:
		return fmt.Sprintf("(COUNT(%s) - COUNT(DISTINCT %s))", col, col), nil
	case aggregate.AVG:
		return fmt.Sprintf("AVG(%s)", col), nil
	case aggregate.SUM:
		if f.TextToken != "" {
			return fmt.Sprintf("SUM(CASE WHEN %s ILIKE '%%%s%%' THEN 1 ELSE 0 END)", col, escapeLiteral(f.TextToken)), nil
		}
		return fmt.Sprintf("SUM(%s)", col), nil
	case aggregate.MIN:
		return fmt.Sprintf("MIN(%s)", col), nil
	case aggregate.MAX:
		return fmt.Sprintf("MAX(%s)", col), nil
	case aggregate.MEDIAN:
		return fmt.Sprintf("PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY %s)", col), nil
	case aggregate.STDDEV:
		return fmt.Sprintf("STDDEV_POP(%s)", col), nil
	case aggregate.VAR:
		return fmt.Sprintf("VAR_POP(%s)", col), nil
	case aggregate.SKEWNESS:
		return "", fmt.Errorf("sqlgen: SKEWNESS has no portable SQL aggregate; generate application-side")
	case aggregate.FIRST:
		return fmt.Sprintf("(ARRAY_AGG(%s ORDER BY %s ASC))[1]", col, timeCol(f, alias)), nil
	case aggregate.LAST:
		return fmt.Sprintf("(ARRAY_AGG(%s ORDER BY %s DESC))[1]", col, timeCol(f, alias)), nil
	case aggregate.AVG_TIME_BETWEEN:
		t := timeCol(f, alias)
		return fmt.Sprintf("((MAX(%s) - MIN(%s)) / NULLIF(COUNT(%s) - 1, 0))", t, t, t), nil
	case aggregate.TREND:
		return fmt.Sprintf("REGR_SLOPE(%s, %s)", col, timeCol(f, alias)), nil
	default:
		return "", fmt.Errorf("sqlgen: unsupported aggregation %s", f.Aggregation)
	}
}

func timeCol(f enumerate.AbstractFeature, alias string) string {
	return qualify(alias, "ts")
}

func whereClause(conds []condition.Condition, alias string) (string, error) {
	var parts []string
	for _, c := range conds {
		switch c.Kind {
		case condition.KindNone:
			continue
		case condition.KindCategoricalEqual:
			parts = append(parts, fmt.Sprintf("%s = %d", qualify(alias, c.PeripheralColumn), c.Category))
		case condition.KindSameUnitCategoricalEqual:
			parts = append(parts, fmt.Sprintf("%s = %s", qualify("population", c.PopulationColumn), qualify(alias, c.PeripheralColumn)))
		case condition.KindLagWindow:
			parts = append(parts, fmt.Sprintf("(population_ts - %s) > %g AND (population_ts - %s) <= %g", qualify(alias, "ts"), c.Lower, qualify(alias, "ts"), c.Upper))
		default:
			return "", fmt.Errorf("sqlgen: unsupported condition kind %d", c.Kind)
		}
	}
	return strings.Join(parts, " AND "), nil
}

func qualify(alias, column string) string {
	if column == "" {
		return alias
	}
	return alias + "." + column
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
