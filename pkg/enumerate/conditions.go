package enumerate

import (
	"fmt"
	"sort"

	"github.com/algomatic/relprop/pkg/condition"
	"github.com/algomatic/relprop/pkg/config"
	"github.com/algomatic/relprop/pkg/schema"
)

// conditionSet is one group of conditions (applied together as an AND)
// that the enumerator pairs with every compatible peripheral column.
type conditionSet struct {
	conditions      []condition.Condition
	sameUnitColumns *[2]string // set only for a same-unit-equality set
}

// buildConditionSets implements spec.md §4.4's "Condition generation":
// the unconditional set, one set per top-N most-frequent category
// literal, one set per same-unit categorical pair, and one set per
// lag window.
func buildConditionSets(population, peripheral *schema.DataFrame, edge schema.Edge, hp *config.Hyperparameters, enc *schema.Encoding) ([]conditionSet, error) {
	sets := []conditionSet{{conditions: []condition.Condition{condition.None()}}}

	if hp.NMostFrequent > 0 {
		for _, col := range peripheral.ColumnsWithRole(schema.RoleCategorical) {
			literals := topNFrequent(col.Categorical, hp.NMostFrequent)
			for _, cat := range literals {
				sets = append(sets, conditionSet{
					conditions: []condition.Condition{condition.CategoricalEqual(col.Name, cat)},
				})
			}
		}
	}

	for _, popCol := range population.ColumnsWithRole(schema.RoleCategorical) {
		for _, periphCol := range peripheral.ColumnsWithRole(schema.RoleCategorical) {
			if popCol.Unit == "" || popCol.Unit != periphCol.Unit {
				continue
			}
			cols := [2]string{popCol.Name, periphCol.Name}
			sets = append(sets, conditionSet{
				conditions:      []condition.Condition{condition.SameUnitCategoricalEqual(popCol.Name, periphCol.Name)},
				sameUnitColumns: &cols,
			})
		}
	}

	hasTimeStamps := edge.TimeStampPopulation != "" && edge.TimeStampPeripheral != ""
	if hasTimeStamps && (hp.MaxLag > 0) != (hp.DeltaT > 0) {
		return nil, fmt.Errorf("%w: max_lag and delta_t must be set together", schema.ErrConfiguration)
	}
	if hasTimeStamps && hp.MaxLag > 0 && hp.DeltaT > 0 {
		for i := 0; i < hp.MaxLag; i++ {
			lower := float64(i) * hp.DeltaT
			upper := float64(i+1) * hp.DeltaT
			sets = append(sets, conditionSet{
				conditions: []condition.Condition{condition.LagWindow(lower, upper)},
			})
		}
	}

	return sets, nil
}

// topNFrequent returns the N most frequent distinct category ids in
// values, ties broken by lower id for determinism (spec.md §8's
// determinism requirement extends to candidate generation, not just
// match enumeration).
func topNFrequent(values []int32, n int) []int32 {
	counts := make(map[int32]int)
	for _, v := range values {
		if v == schema.NullCategory {
			continue
		}
		counts[v]++
	}
	cats := make([]int32, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if counts[cats[i]] != counts[cats[j]] {
			return counts[cats[i]] > counts[cats[j]]
		}
		return cats[i] < cats[j]
	})
	if len(cats) > n {
		cats = cats[:n]
	}
	return cats
}
