package aggregate

import (
	"sort"

	"github.com/algomatic/relprop/pkg/match"
)

// State is the incremental aggregation state machine for one
// AbstractFeature evaluation: one Kind, over one match slice, producing
// one value per output (population) row.
//
// The match slice is owned exclusively by this State for its lifetime
// -- callers must not share a match slice between two States, since
// Match.Activated is mutated in place.
type State struct {
	kind     Kind
	matches  []match.Match
	nOutputs int
	groups   map[int][]int // output row -> match indices, in required order

	// numeric accumulators: current and committed baseline
	sum, sumSq, sumCube, count    []float64
	sumC, sumSqC, sumCubeC, countC []float64

	// TREND sufficient statistics: regression of Value on Aux
	sumT, sumTT, sumTV          []float64
	sumTC, sumTTC, sumTVC       []float64

	// MIN/MAX/MEDIAN/FIRST/LAST: representative match index per output
	// row, or -1 if no match is activated.
	ptr, ptrC []int

	// AVG_TIME_BETWEEN: earliest/latest activated peripheral time-stamp
	// match index per output row, or -1 if none is activated.
	tsMinPtr, tsMaxPtr, tsMinPtrC, tsMaxPtrC []int

	// pos holds each match's position within its output row's group,
	// in the ascending sort order SortMatches established (by Value
	// for MIN/MAX, by Aux for FIRST/LAST). Only populated for
	// MIN/MAX/FIRST/LAST.
	pos []int

	// COUNT_DISTINCT/COUNT_MINUS_COUNT_DISTINCT
	valueActive, valueActiveC []map[int32]int
	distinctCount, distinctCountC []int

	updatesCurrent map[int]struct{}
	updatesStored  map[int]struct{}
	alteredOrig    map[int]bool // match index -> Activated value at last commit
}

// New builds a fresh State for kind over matches, which must already
// be sorted according to SortMatches(kind, matches) if NeedsSorting
// reports true. nOutputs is the population's row count (the length of
// the emitted value vector).
func New(kind Kind, matches []match.Match, nOutputs int) *State {
	s := &State{
		kind:     kind,
		matches:  matches,
		nOutputs: nOutputs,

		sum: make([]float64, nOutputs), sumC: make([]float64, nOutputs),
		sumSq: make([]float64, nOutputs), sumSqC: make([]float64, nOutputs),
		sumCube: make([]float64, nOutputs), sumCubeC: make([]float64, nOutputs),
		count: make([]float64, nOutputs), countC: make([]float64, nOutputs),

		sumT: make([]float64, nOutputs), sumTC: make([]float64, nOutputs),
		sumTT: make([]float64, nOutputs), sumTTC: make([]float64, nOutputs),
		sumTV: make([]float64, nOutputs), sumTVC: make([]float64, nOutputs),

		updatesCurrent: make(map[int]struct{}),
		updatesStored:  make(map[int]struct{}),
		alteredOrig:    make(map[int]bool),
	}

	if needsSortedMatches(kind) {
		s.groups = make(map[int][]int, nOutputs)
		for i, m := range matches {
			s.groups[m.IxOutput] = append(s.groups[m.IxOutput], i)
		}
	}

	switch kind {
	case MIN, MAX, MEDIAN, FIRST, LAST:
		s.ptr = fillInt(nOutputs, -1)
		s.ptrC = fillInt(nOutputs, -1)
		if kind != MEDIAN {
			s.pos = make([]int, len(matches))
			for _, idxs := range s.groups {
				for p, idx := range idxs {
					s.pos[idx] = p
				}
			}
		}
	case AVG_TIME_BETWEEN:
		s.tsMinPtr = fillInt(nOutputs, -1)
		s.tsMaxPtr = fillInt(nOutputs, -1)
		s.tsMinPtrC = fillInt(nOutputs, -1)
		s.tsMaxPtrC = fillInt(nOutputs, -1)
	case COUNT_DISTINCT, COUNT_MINUS_COUNT_DISTINCT:
		s.valueActive = make([]map[int32]int, nOutputs)
		s.valueActiveC = make([]map[int32]int, nOutputs)
		for i := range s.valueActive {
			s.valueActive[i] = make(map[int32]int)
			s.valueActiveC[i] = make(map[int32]int)
		}
		s.distinctCount = make([]int, nOutputs)
		s.distinctCountC = make([]int, nOutputs)
	}

	return s
}

func fillInt(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// NeedsSorting reports whether kind's activate/deactivate kernel walks
// neighboring matches and therefore requires the input pre-sorted.
func NeedsSorting(kind Kind) bool { return needsSortedMatches(kind) }

// SortMatches sorts matches in place by (IxOutput, sort key), where
// the sort key is Aux for FIRST/LAST/AVG_TIME_BETWEEN and Value for
// every other kind. It sorts whatever kind it is given; for kinds that
// do not require sorting the resulting order is harmless.
func SortMatches(kind Kind, matches []match.Match) {
	key := func(m match.Match) float64 { return m.Value }
	switch kind {
	case FIRST, LAST, AVG_TIME_BETWEEN:
		key = func(m match.Match) float64 { return m.Aux }
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].IxOutput != matches[j].IxOutput {
			return matches[i].IxOutput < matches[j].IxOutput
		}
		return key(matches[i]) < key(matches[j])
	})
}

// touch records idx's pre-change Activated value (once per commit
// epoch) and marks its output row as dirty in both update sets.
func (s *State) touch(idx int) {
	if _, ok := s.alteredOrig[idx]; !ok {
		s.alteredOrig[idx] = s.matches[idx].Activated
	}
	out := s.matches[idx].IxOutput
	s.updatesCurrent[out] = struct{}{}
	s.updatesStored[out] = struct{}{}
}

// ActivateAll activates every match at the given global indices,
// (re)initializing their contribution to the running aggregate.
func (s *State) ActivateAll(indices []int) {
	for _, idx := range indices {
		s.activateOne(idx)
	}
}

// DeactivateAll is the mirror of ActivateAll.
func (s *State) DeactivateAll(indices []int) {
	for _, idx := range indices {
		s.deactivateOne(idx)
	}
}

// ActivateFromAbove activates every not-yet-activated match whose
// Value is strictly greater than threshold.
func (s *State) ActivateFromAbove(threshold float64) {
	for idx, m := range s.matches {
		if !m.Activated && m.Value > threshold {
			s.activateOne(idx)
		}
	}
}

// ActivateFromBelow activates every not-yet-activated match whose
// Value is less than or equal to threshold.
func (s *State) ActivateFromBelow(threshold float64) {
	for idx, m := range s.matches {
		if !m.Activated && m.Value <= threshold {
			s.activateOne(idx)
		}
	}
}

// DeactivateFromAbove/DeactivateFromBelow mirror the Activate* pair.
func (s *State) DeactivateFromAbove(threshold float64) {
	for idx, m := range s.matches {
		if m.Activated && m.Value > threshold {
			s.deactivateOne(idx)
		}
	}
}

func (s *State) DeactivateFromBelow(threshold float64) {
	for idx, m := range s.matches {
		if m.Activated && m.Value <= threshold {
			s.deactivateOne(idx)
		}
	}
}

// ActivateInWindow activates every not-yet-activated match whose
// Value lies in (t-delta, t].
func (s *State) ActivateInWindow(t, delta float64) {
	lo, hi := t-delta, t
	for idx, m := range s.matches {
		if !m.Activated && m.Value > lo && m.Value <= hi {
			s.activateOne(idx)
		}
	}
}

// ActivateOutsideWindow activates every not-yet-activated match whose
// Value lies outside (t-delta, t].
func (s *State) ActivateOutsideWindow(t, delta float64) {
	lo, hi := t-delta, t
	for idx, m := range s.matches {
		if !m.Activated && !(m.Value > lo && m.Value <= hi) {
			s.activateOne(idx)
		}
	}
}

func (s *State) DeactivateInWindow(t, delta float64) {
	lo, hi := t-delta, t
	for idx, m := range s.matches {
		if m.Activated && m.Value > lo && m.Value <= hi {
			s.deactivateOne(idx)
		}
	}
}

func (s *State) DeactivateOutsideWindow(t, delta float64) {
	lo, hi := t-delta, t
	for idx, m := range s.matches {
		if m.Activated && !(m.Value > lo && m.Value <= hi) {
			s.deactivateOne(idx)
		}
	}
}

// containingSet is a small sorted-set membership helper for
// Activate/Deactivate{Not}ContainingCategories; linear scan is fine at
// the category-set sizes these conditions realistically carry
// (n_most_frequent is typically single digits to low hundreds).
func containingSet(cats []int32, v int32) bool {
	for _, c := range cats {
		if c == v {
			return true
		}
	}
	return false
}

// ActivateContainingCategories activates every not-yet-activated match
// whose Category is in cats (a sorted set; null categories never
// match).
func (s *State) ActivateContainingCategories(cats []int32) {
	for idx, m := range s.matches {
		if !m.Activated && m.Category >= 0 && containingSet(cats, m.Category) {
			s.activateOne(idx)
		}
	}
}

// ActivateNotContainingCategories is the complement of
// ActivateContainingCategories.
func (s *State) ActivateNotContainingCategories(cats []int32) {
	for idx, m := range s.matches {
		if !m.Activated && m.Category >= 0 && !containingSet(cats, m.Category) {
			s.activateOne(idx)
		}
	}
}

func (s *State) DeactivateContainingCategories(cats []int32) {
	for idx, m := range s.matches {
		if m.Activated && m.Category >= 0 && containingSet(cats, m.Category) {
			s.deactivateOne(idx)
		}
	}
}

func (s *State) DeactivateNotContainingCategories(cats []int32) {
	for idx, m := range s.matches {
		if m.Activated && m.Category >= 0 && !containingSet(cats, m.Category) {
			s.deactivateOne(idx)
		}
	}
}

// Commit publishes the current incremental state as the new baseline:
// every activate/deactivate since the last commit (or construction)
// becomes permanent and can no longer be reverted.
func (s *State) Commit() {
	copy(s.sumC, s.sum)
	copy(s.sumSqC, s.sumSq)
	copy(s.sumCubeC, s.sumCube)
	copy(s.countC, s.count)
	copy(s.sumTC, s.sumT)
	copy(s.sumTTC, s.sumTT)
	copy(s.sumTVC, s.sumTV)
	if s.ptr != nil {
		copy(s.ptrC, s.ptr)
	}
	if s.tsMinPtr != nil {
		copy(s.tsMinPtrC, s.tsMinPtr)
		copy(s.tsMaxPtrC, s.tsMaxPtr)
	}
	for out := range s.updatesStored {
		if s.valueActive != nil {
			s.valueActiveC[out] = cloneMap(s.valueActive[out])
			s.distinctCountC[out] = s.distinctCount[out]
		}
	}
	s.updatesStored = make(map[int]struct{})
	s.alteredOrig = make(map[int]bool)
}

// RevertToCommit undoes every activate/deactivate since the last
// commit, restoring both the aggregates and the Activated flag on
// every touched match, bit-for-bit.
func (s *State) RevertToCommit() {
	for out := range s.updatesStored {
		s.sum[out] = s.sumC[out]
		s.sumSq[out] = s.sumSqC[out]
		s.sumCube[out] = s.sumCubeC[out]
		s.count[out] = s.countC[out]
		s.sumT[out] = s.sumTC[out]
		s.sumTT[out] = s.sumTTC[out]
		s.sumTV[out] = s.sumTVC[out]
		if s.ptr != nil {
			s.ptr[out] = s.ptrC[out]
		}
		if s.tsMinPtr != nil {
			s.tsMinPtr[out] = s.tsMinPtrC[out]
			s.tsMaxPtr[out] = s.tsMaxPtrC[out]
		}
		if s.valueActive != nil {
			s.valueActive[out] = cloneMap(s.valueActiveC[out])
			s.distinctCount[out] = s.distinctCountC[out]
		}
	}
	for idx, orig := range s.alteredOrig {
		s.matches[idx].Activated = orig
	}
	s.updatesCurrent = make(map[int]struct{})
	s.updatesStored = make(map[int]struct{})
	s.alteredOrig = make(map[int]bool)
}

// Clear releases transient buffers (the update sets and the altered
// log), preserving the committed baseline as the new current value.
// It is implemented as RevertToCommit, so every touched match's
// Activated flag is also restored to its commit-time value.
func (s *State) Clear() {
	s.RevertToCommit()
}

// Reset zeros every aggregate array, current and committed, and
// clears every update set, returning the State to its just-constructed
// condition. All Match.Activated flags are left untouched by Reset --
// callers that need a fully cold start should build a new State.
func (s *State) Reset() {
	zero := make([]float64, s.nOutputs)
	copy(s.sum, zero)
	copy(s.sumC, zero)
	copy(s.sumSq, zero)
	copy(s.sumSqC, zero)
	copy(s.sumCube, zero)
	copy(s.sumCubeC, zero)
	copy(s.count, zero)
	copy(s.countC, zero)
	copy(s.sumT, zero)
	copy(s.sumTC, zero)
	copy(s.sumTT, zero)
	copy(s.sumTTC, zero)
	copy(s.sumTV, zero)
	copy(s.sumTVC, zero)
	if s.ptr != nil {
		for i := range s.ptr {
			s.ptr[i] = -1
			s.ptrC[i] = -1
		}
	}
	if s.tsMinPtr != nil {
		for i := range s.tsMinPtr {
			s.tsMinPtr[i] = -1
			s.tsMaxPtr[i] = -1
			s.tsMinPtrC[i] = -1
			s.tsMaxPtrC[i] = -1
		}
	}
	if s.valueActive != nil {
		for i := range s.valueActive {
			s.valueActive[i] = make(map[int32]int)
			s.valueActiveC[i] = make(map[int32]int)
			s.distinctCount[i] = 0
			s.distinctCountC[i] = 0
		}
	}
	s.updatesCurrent = make(map[int]struct{})
	s.updatesStored = make(map[int]struct{})
	s.alteredOrig = make(map[int]bool)
}

func cloneMap(m map[int32]int) map[int32]int {
	out := make(map[int32]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Kind returns the aggregation kind this State computes.
func (s *State) Kind() Kind { return s.kind }

// DirtyOutputs returns the output rows touched since the last call to
// ClearDirty, for a caller (e.g. an optimization-criterion scorer)
// that wants to re-score only rows whose aggregate actually changed.
func (s *State) DirtyOutputs() []int {
	out := make([]int, 0, len(s.updatesCurrent))
	for o := range s.updatesCurrent {
		out = append(out, o)
	}
	return out
}

// ClearDirty resets the updates_current set without touching the
// commit baseline or updates_stored.
func (s *State) ClearDirty() {
	s.updatesCurrent = make(map[int]struct{})
}
