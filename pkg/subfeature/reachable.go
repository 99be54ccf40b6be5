package subfeature

import (
	"sort"

	"github.com/algomatic/relprop/pkg/match"
)

// ReachableRows returns the sorted, deduplicated union of peripheral
// row indices matched from any of parentRows via mm -- the restriction
// spec.md §4.7 requires before running a child FastProp transform:
// "determine the union of peripheral row indices actually reachable
// from the parent's selected rows".
func ReachableRows(mm *match.Matchmaker, parentRows []int) []int {
	seen := make(map[int]bool)
	for _, r := range parentRows {
		for _, m := range mm.Matches(r) {
			seen[m.IxInput] = true
		}
	}
	out := make([]int, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Ints(out)
	return out
}

// AllRows returns [0, n).
func AllRows(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
