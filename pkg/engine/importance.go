package engine

import (
	"github.com/algomatic/relprop/pkg/enumerate"
	"github.com/algomatic/relprop/pkg/selection"
)

// columnImportance implements the original's column-importance
// normalization (SPEC_FULL.md's pinned algorithm): each selected
// feature's share of total score is divided evenly across the columns
// it reads, then columns are summed across every selected feature so
// the whole map sums to 1.0 when at least one feature scored non-zero.
func columnImportance(selected []enumerate.AbstractFeature, scores []selection.Score) map[string]float64 {
	byIndex := make(map[int]float64, len(scores))
	var total float64
	for _, s := range scores {
		byIndex[s.Index] = s.Value
		total += s.Value
	}

	out := make(map[string]float64)
	if total == 0 {
		return out
	}
	for i, f := range selected {
		share := byIndex[i] / total
		cols := f.ImportanceColumns()
		per := share / float64(len(cols))
		for _, c := range cols {
			out[c] += per
		}
	}
	return out
}
