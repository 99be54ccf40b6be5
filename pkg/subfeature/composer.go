// Package subfeature implements SubfeatureComposer: computing child
// FastProp features once per transform (not once per row) over the
// restricted set of peripheral rows the parent's selected population
// rows can actually reach, then expanding the child's output so its
// column indices line up with the parent's expectations even when
// selection pruned some child features (spec.md §4.7).
package subfeature

import (
	"fmt"
	"math"

	"github.com/algomatic/relprop/pkg/match"
	"github.com/algomatic/relprop/pkg/schema"
)

// ChildResult is the output of fitting and transforming one child
// FastProp engine: one named feature column per selected child
// AbstractFeature, restricted to the rows requested and in the same
// order.
type ChildResult struct {
	Names  []string
	Values [][]float64 // Values[j][i] is feature j at rows[i]
}

// ChildFitter fits and transforms a child FastProp engine over
// population, restricted to rows. It is implemented by pkg/engine;
// this package depends only on the interface to avoid an import cycle
// (pkg/engine depends on pkg/subfeature, not the reverse).
type ChildFitter interface {
	FitTransformChild(placeholder *schema.Placeholder, population *schema.DataFrame, peripherals map[string]*schema.DataFrame, rows []int) (ChildResult, error)
}

// Compose runs one child FastProp engine over the rows of peripheral
// reachable from parentRows via mm, then expands the result into full
// schema.Columns (NaN outside the reachable/computed set) the parent
// can add to peripheral as additional aggregatable columns.
func Compose(fitter ChildFitter, mm *match.Matchmaker, parentRows []int, placeholder *schema.Placeholder, peripheral *schema.DataFrame, grandchildren map[string]*schema.DataFrame) ([]*schema.Column, error) {
	rows := ReachableRows(mm, parentRows)
	if len(rows) == 0 {
		return nil, nil
	}

	result, err := fitter.FitTransformChild(placeholder, peripheral, grandchildren, rows)
	if err != nil {
		return nil, fmt.Errorf("subfeature composer for %q: %w", placeholder.Table, err)
	}
	if len(result.Names) != len(result.Values) {
		return nil, fmt.Errorf("subfeature composer for %q: %d names but %d value columns", placeholder.Table, len(result.Names), len(result.Values))
	}

	total := peripheral.NRows()
	cols := make([]*schema.Column, len(result.Names))
	for j, name := range result.Names {
		expanded := make([]float64, total)
		for i := range expanded {
			expanded[i] = math.NaN()
		}
		col := result.Values[j]
		if len(col) != len(rows) {
			return nil, fmt.Errorf("subfeature composer for %q: feature %q has %d values for %d requested rows", placeholder.Table, name, len(col), len(rows))
		}
		for i, r := range rows {
			expanded[r] = col[i]
		}
		cols[j] = schema.NewNumerical(name, expanded)
	}
	return cols, nil
}
