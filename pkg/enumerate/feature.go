// Package enumerate generates the full candidate pool of
// AbstractFeatures for one join edge, mirroring the FastProp
// enumeration rules of spec.md §4.4: one feature per (condition set,
// peripheral column, compatible aggregation) triple, plus the
// column-less COUNT/AVG_TIME_BETWEEN features.
package enumerate

import (
	"fmt"

	"github.com/algomatic/relprop/pkg/aggregate"
	"github.com/algomatic/relprop/pkg/condition"
)

// AbstractFeature is one candidate feature: an aggregation over a
// peripheral column (or none, for COUNT/AVG_TIME_BETWEEN), filtered by
// a condition list, evaluated against one join edge.
type AbstractFeature struct {
	PopulationTable  string
	PeripheralTable  string
	Aggregation      aggregate.Kind
	AggregatedColumn string // empty for COUNT/AVG_TIME_BETWEEN
	Conditions       []condition.Condition

	// SameUnitColumns, when non-nil, names the (population, peripheral)
	// column pair a same-unit condition references, so the engine can
	// split column-importance credit evenly between them (spec.md §6).
	SameUnitColumns *[2]string

	// TextToken, when non-empty, marks this feature as a token
	// presence/count feature over a text column: Aggregation is always
	// SUM and AggregatedColumn names the source text column.
	TextToken string

	// SubfeatureColumn, when non-empty, names a subfeature column
	// (produced by a child FastProp engine) being aggregated instead
	// of a raw peripheral column.
	SubfeatureColumn string
}

// Description renders a stable, human-readable identity for this
// feature, used both for debugging and as the column-importance map
// key (spec.md §6).
func (f AbstractFeature) Description() string {
	col := f.AggregatedColumn
	if f.TextToken != "" {
		col = fmt.Sprintf("%s[%q]", f.AggregatedColumn, f.TextToken)
	}
	if f.SubfeatureColumn != "" {
		col = f.SubfeatureColumn
	}
	desc := fmt.Sprintf("%s(%s.%s)", f.Aggregation, f.PeripheralTable, col)
	for _, c := range f.Conditions {
		desc += " WHERE " + c.String()
	}
	return desc
}

// ImportanceColumns returns the column descriptions this feature's
// column-importance credit is scattered across, split evenly when a
// same-unit condition references two distinct columns.
func (f AbstractFeature) ImportanceColumns() []string {
	if f.SameUnitColumns != nil {
		return []string{
			f.PopulationTable + "." + f.SameUnitColumns[0],
			f.PeripheralTable + "." + f.SameUnitColumns[1],
		}
	}
	if f.AggregatedColumn == "" {
		return []string{f.PeripheralTable}
	}
	return []string{f.PeripheralTable + "." + f.AggregatedColumn}
}
