package condition

import (
	"fmt"

	"github.com/algomatic/relprop/pkg/schema"
)

// Predicate reports whether the match between population row popRow
// and peripheral row periphRow passes. A match passes a Condition list
// iff every compiled Predicate passes.
type Predicate func(popRow, periphRow int) bool

// Evaluator compiles a feature's condition list against a specific
// (population, peripheral) frame pair.
type Evaluator struct {
	population, peripheral *schema.DataFrame
	conditions             []Condition
}

// NewEvaluator builds an Evaluator for conds over population and
// peripheral. It does not compile yet -- call Compile to build the
// reusable Predicate.
func NewEvaluator(population, peripheral *schema.DataFrame, conds []Condition) *Evaluator {
	return &Evaluator{population: population, peripheral: peripheral, conditions: conds}
}

// Compile builds one Predicate combining every condition with a fast
// path per Kind, mirroring go-strats/pkg/dsl's op-dispatch-to-closure
// compiler: construction happens once, the returned func is reused
// across every row in a shard.
func (e *Evaluator) Compile() (Predicate, error) {
	fns := make([]Predicate, 0, len(e.conditions))
	for i, c := range e.conditions {
		fn, err := e.compileOne(c)
		if err != nil {
			return nil, fmt.Errorf("condition[%d]: %w", i, err)
		}
		fns = append(fns, fn)
	}
	return allOf(fns), nil
}

func (e *Evaluator) compileOne(c Condition) (Predicate, error) {
	switch c.Kind {
	case KindNone:
		return func(int, int) bool { return true }, nil

	case KindCategoricalEqual:
		col, err := e.peripheral.MustColumn(c.PeripheralColumn)
		if err != nil {
			return nil, err
		}
		if col.Kind != schema.KindCategorical {
			return nil, fmt.Errorf("%w: %q is not categorical", schema.ErrSchema, c.PeripheralColumn)
		}
		category := c.Category
		return func(_, periphRow int) bool {
			return col.Categorical[periphRow] == category
		}, nil

	case KindSameUnitCategoricalEqual:
		popCol, err := e.population.MustColumn(c.PopulationColumn)
		if err != nil {
			return nil, err
		}
		periphCol, err := e.peripheral.MustColumn(c.PeripheralColumn)
		if err != nil {
			return nil, err
		}
		if popCol.Kind != schema.KindCategorical || periphCol.Kind != schema.KindCategorical {
			return nil, fmt.Errorf("%w: same-unit condition requires two categorical columns", schema.ErrSchema)
		}
		if popCol.Unit == "" || popCol.Unit != periphCol.Unit {
			return nil, fmt.Errorf("%w: %q and %q are not same-unit", schema.ErrSchema, c.PopulationColumn, c.PeripheralColumn)
		}
		return func(popRow, periphRow int) bool {
			pv := popCol.Categorical[popRow]
			qv := periphCol.Categorical[periphRow]
			if pv == schema.NullCategory || qv == schema.NullCategory {
				return false
			}
			return pv == qv
		}, nil

	case KindLagWindow:
		popTS := e.population.ColumnsWithRole(schema.RoleTimeStamp)
		periphTS := e.peripheral.ColumnsWithRole(schema.RoleTimeStamp)
		if len(popTS) == 0 || len(periphTS) == 0 {
			return nil, fmt.Errorf("%w: lag-window condition requires a time stamp on both sides", schema.ErrSchema)
		}
		popCol, periphCol := popTS[0], periphTS[0]
		lower, upper := c.Lower, c.Upper
		return func(popRow, periphRow int) bool {
			pt := popCol.Numerical[popRow]
			qt := periphCol.Numerical[periphRow]
			if schema.IsNullNumerical(pt) || schema.IsNullNumerical(qt) {
				return false
			}
			diff := pt - qt
			return diff > lower && diff <= upper
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown condition kind %d", schema.ErrSchema, c.Kind)
	}
}

// allOf combines predicates with AND short-circuiting, matching
// go-strats/pkg/conditions.AllOf.
func allOf(fns []Predicate) Predicate {
	return func(popRow, periphRow int) bool {
		for _, fn := range fns {
			if !fn(popRow, periphRow) {
				return false
			}
		}
		return true
	}
}
