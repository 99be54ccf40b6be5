// Package condition compiles a feature's WHERE-conditions into a
// predicate over matches. Compilation is independent of the
// population row: the compiled predicate is built once per
// AbstractFeature and reused across every row in a shard, the same way
// go-strats/pkg/dsl compiles a strategy's condition tree once and
// reuses the resulting ConditionFn across the whole bar series.
package condition

import "fmt"

// Kind identifies one of the four condition shapes spec.md §3 allows.
type Kind int

const (
	// KindNone always passes (the identity condition).
	KindNone Kind = iota
	// KindCategoricalEqual requires the peripheral's categorical
	// column to equal a literal category id.
	KindCategoricalEqual
	// KindSameUnitCategoricalEqual requires the population's and the
	// peripheral's same-unit categorical columns to be equal.
	KindSameUnitCategoricalEqual
	// KindLagWindow requires population_ts in (peripheral_ts+Lower,
	// peripheral_ts+Upper].
	KindLagWindow
)

// Condition is one filter predicate over a match, as produced by
// FeatureEnumerator's condition-generation rules (spec.md §4.4).
type Condition struct {
	Kind Kind

	// KindCategoricalEqual / KindSameUnitCategoricalEqual.
	PeripheralColumn string
	// KindSameUnitCategoricalEqual only.
	PopulationColumn string
	// KindCategoricalEqual only: the literal category id to match.
	Category int32

	// KindLagWindow only: population_ts in (peripheral_ts+Lower,
	// peripheral_ts+Upper].
	Lower, Upper float64
}

// None returns the always-true identity condition.
func None() Condition { return Condition{Kind: KindNone} }

// CategoricalEqual returns a condition requiring peripheralColumn to
// equal category.
func CategoricalEqual(peripheralColumn string, category int32) Condition {
	return Condition{Kind: KindCategoricalEqual, PeripheralColumn: peripheralColumn, Category: category}
}

// SameUnitCategoricalEqual returns a condition requiring the named
// population and peripheral columns (which must share a non-empty
// unit) to hold equal categorical values.
func SameUnitCategoricalEqual(populationColumn, peripheralColumn string) Condition {
	return Condition{Kind: KindSameUnitCategoricalEqual, PopulationColumn: populationColumn, PeripheralColumn: peripheralColumn}
}

// LagWindow returns a condition requiring population_ts in
// (peripheral_ts+lower, peripheral_ts+upper].
func LagWindow(lower, upper float64) Condition {
	return Condition{Kind: KindLagWindow, Lower: lower, Upper: upper}
}

func (c Condition) String() string {
	switch c.Kind {
	case KindCategoricalEqual:
		return fmt.Sprintf("%s == %d", c.PeripheralColumn, c.Category)
	case KindSameUnitCategoricalEqual:
		return fmt.Sprintf("%s == %s", c.PopulationColumn, c.PeripheralColumn)
	case KindLagWindow:
		return fmt.Sprintf("population_ts in (peripheral_ts+%g, peripheral_ts+%g]", c.Lower, c.Upper)
	default:
		return "true"
	}
}
