package aggregate

import (
	"math"
	"testing"

	"github.com/algomatic/relprop/pkg/match"
)

func idxRange(matches []match.Match) []int {
	out := make([]int, len(matches))
	for i := range matches {
		out[i] = i
	}
	return out
}

// spec.md §8: activate_all(A); deactivate_all(D) for S = A . D must
// equal K evaluated on S\D from scratch.
func TestSumReversibility(t *testing.T) {
	matches := []match.Match{
		{IxOutput: 0, IxInput: 0, Value: 10},
		{IxOutput: 0, IxInput: 1, Value: 20},
		{IxOutput: 0, IxInput: 2, Value: 30},
	}
	s := New(SUM, matches, 1)
	s.ActivateAll([]int{0, 1, 2})
	s.DeactivateAll([]int{1})
	if got := s.Value(0); got != 40 {
		t.Fatalf("expected sum 40 after removing index 1, got %v", got)
	}

	fresh := New(SUM, []match.Match{
		{IxOutput: 0, IxInput: 0, Value: 10},
		{IxOutput: 0, IxInput: 2, Value: 30},
	}, 1)
	fresh.ActivateAll([]int{0, 1})
	if got, want := s.Value(0), fresh.Value(0); got != want {
		t.Fatalf("activate-then-deactivate result %v diverges from from-scratch result %v", got, want)
	}
}

func TestCountNeverNegative(t *testing.T) {
	matches := []match.Match{{IxOutput: 0, Value: 1}, {IxOutput: 0, Value: 2}}
	s := New(COUNT, matches, 1)
	s.ActivateAll([]int{0, 1})
	s.DeactivateAll([]int{0, 1})
	if got := s.Value(0); got != 0 {
		t.Fatalf("expected count 0, got %v", got)
	}
}

// MIN with a null (NaN) value present: the null must never become the
// representative match, matching spec.md §4.3's null-handling rule.
func TestMinSkipsNullValues(t *testing.T) {
	matches := []match.Match{
		{IxOutput: 0, IxInput: 0, Value: math.NaN()},
		{IxOutput: 0, IxInput: 1, Value: 5},
		{IxOutput: 0, IxInput: 2, Value: 2},
	}
	SortMatches(MIN, matches)
	s := New(MIN, matches, 1)
	s.ActivateAll(idxRange(matches))
	if got := s.Value(0); got != 2 {
		t.Fatalf("expected min 2, got %v", got)
	}
}

func TestMaxPointerAdvancesOnDeactivate(t *testing.T) {
	matches := []match.Match{
		{IxOutput: 0, IxInput: 0, Value: 1},
		{IxOutput: 0, IxInput: 1, Value: 5},
		{IxOutput: 0, IxInput: 2, Value: 3},
	}
	SortMatches(MAX, matches)
	s := New(MAX, matches, 1)
	s.ActivateAll(idxRange(matches))
	if got := s.Value(0); got != 5 {
		t.Fatalf("expected max 5, got %v", got)
	}
	// Deactivate the current maximum; the pointer must fall back to
	// the next-highest activated match, not to zero or NaN.
	for idx, m := range matches {
		if m.Value == 5 {
			s.DeactivateAll([]int{idx})
		}
	}
	if got := s.Value(0); got != 3 {
		t.Fatalf("expected max to fall back to 3 after removing 5, got %v", got)
	}
}

func TestCountDistinct(t *testing.T) {
	matches := []match.Match{
		{IxOutput: 0, IxInput: 0, Category: 7},
		{IxOutput: 0, IxInput: 1, Category: 7},
		{IxOutput: 0, IxInput: 2, Category: 9},
		{IxOutput: 0, IxInput: 3, Category: -1}, // null category, never counted
	}
	SortMatches(COUNT_DISTINCT, matches)
	s := New(COUNT_DISTINCT, matches, 1)
	s.ActivateAll(idxRange(matches))
	if got := s.Value(0); got != 2 {
		t.Fatalf("expected 2 distinct categories, got %v", got)
	}
	// COUNT_MINUS_COUNT_DISTINCT over the same data: 3 active non-null
	// matches minus 2 distinct categories = 1. s2 gets its own copy of
	// the matches, since s already marked every one of them Activated.
	fresh := make([]match.Match, len(matches))
	for i, m := range matches {
		m.Activated = false
		fresh[i] = m
	}
	s2 := New(COUNT_MINUS_COUNT_DISTINCT, fresh, 1)
	s2.ActivateAll(idxRange(fresh))
	if got := s2.Value(0); got != 1 {
		t.Fatalf("expected count-minus-distinct 1, got %v", got)
	}
}

// commit/revert must restore both the aggregates and every touched
// match's Activated flag, bit-for-bit (spec.md §8).
func TestCommitRevertBitExact(t *testing.T) {
	matches := []match.Match{
		{IxOutput: 0, IxInput: 0, Value: 10},
		{IxOutput: 0, IxInput: 1, Value: 20},
	}
	s := New(AVG, matches, 1)
	s.ActivateAll([]int{0})
	s.Commit()
	committedValue := s.Value(0)
	committedFlag0 := matches[0].Activated
	committedFlag1 := matches[1].Activated

	s.ActivateAll([]int{1})
	s.DeactivateAll([]int{0})
	if s.Value(0) == committedValue {
		t.Fatalf("expected value to change after further activate/deactivate")
	}

	s.RevertToCommit()
	if got := s.Value(0); got != committedValue {
		t.Fatalf("expected reverted value %v, got %v", committedValue, got)
	}
	if matches[0].Activated != committedFlag0 || matches[1].Activated != committedFlag1 {
		t.Fatalf("expected Activated flags restored to commit-time values")
	}
}

func TestAvgTimeBetweenRequiresPositiveCount(t *testing.T) {
	s := New(AVG_TIME_BETWEEN, nil, 1)
	if got := s.Value(0); !math.IsNaN(got) {
		t.Fatalf("expected NaN for an empty group, got %v", got)
	}
	if got := s.ProjectedValue(0); got != 0 {
		t.Fatalf("expected projected null to be 0, got %v", got)
	}
}

// AVG_TIME_BETWEEN over peripheral time stamps 10, 15, 40: two gaps of
// 5 and 25, mean 15, equal to (max-min)/(n-1) = 30/2.
func TestAvgTimeBetweenComputesMeanGap(t *testing.T) {
	matches := []match.Match{
		{IxOutput: 0, IxInput: 0, Aux: 10},
		{IxOutput: 0, IxInput: 1, Aux: 40},
		{IxOutput: 0, IxInput: 2, Aux: 15},
	}
	SortMatches(AVG_TIME_BETWEEN, matches)
	s := New(AVG_TIME_BETWEEN, matches, 1)
	s.ActivateAll(idxRange(matches))
	if got := s.Value(0); math.Abs(got-15) > 1e-9 {
		t.Fatalf("expected mean gap 15, got %v", got)
	}

	// Deactivating the latest time stamp must fall back to the
	// remaining extremes (10 and 15), not to the removed one.
	for idx, m := range matches {
		if m.Aux == 40 {
			s.DeactivateAll([]int{idx})
		}
	}
	if got := s.Value(0); math.Abs(got-5) > 1e-9 {
		t.Fatalf("expected mean gap 5 after removing the latest time stamp, got %v", got)
	}
}

// A null (NaN) peripheral time stamp must never become the
// representative min/max for AVG_TIME_BETWEEN, matching spec.md §4.3's
// null-handling rule for the other pointer-based kinds.
func TestAvgTimeBetweenSkipsNullTimeStamps(t *testing.T) {
	matches := []match.Match{
		{IxOutput: 0, IxInput: 0, Aux: math.NaN()},
		{IxOutput: 0, IxInput: 1, Aux: 10},
		{IxOutput: 0, IxInput: 2, Aux: 20},
	}
	SortMatches(AVG_TIME_BETWEEN, matches)
	s := New(AVG_TIME_BETWEEN, matches, 1)
	s.ActivateAll(idxRange(matches))
	if got := s.Value(0); math.Abs(got-10) > 1e-9 {
		t.Fatalf("expected mean gap 10 ignoring the null time stamp, got %v", got)
	}
}

// MEDIAN/FIRST/LAST must each skip a null-valued match the same way
// MIN does, per spec.md §4.3.
func TestMedianFirstLastSkipNullValues(t *testing.T) {
	median := []match.Match{
		{IxOutput: 0, IxInput: 0, Value: math.NaN()},
		{IxOutput: 0, IxInput: 1, Value: 1},
		{IxOutput: 0, IxInput: 2, Value: 3},
		{IxOutput: 0, IxInput: 3, Value: 5},
	}
	SortMatches(MEDIAN, median)
	s := New(MEDIAN, median, 1)
	s.ActivateAll(idxRange(median))
	if got := s.Value(0); got != 3 {
		t.Fatalf("expected median 3 ignoring the null match, got %v", got)
	}

	first := []match.Match{
		{IxOutput: 0, IxInput: 0, Aux: math.NaN(), Value: 99},
		{IxOutput: 0, IxInput: 1, Aux: 2, Value: 7},
		{IxOutput: 0, IxInput: 2, Aux: 5, Value: 9},
	}
	SortMatches(FIRST, first)
	sf := New(FIRST, first, 1)
	sf.ActivateAll(idxRange(first))
	if got := sf.Value(0); got != 7 {
		t.Fatalf("expected first 7 ignoring the null-timestamped match, got %v", got)
	}
}

func TestTrendRegressesValueOnAux(t *testing.T) {
	matches := []match.Match{
		{IxOutput: 0, IxInput: 0, Aux: 1, Value: 2},
		{IxOutput: 0, IxInput: 1, Aux: 2, Value: 4},
		{IxOutput: 0, IxInput: 2, Aux: 3, Value: 6},
	}
	s := New(TREND, matches, 1)
	s.ActivateAll(idxRange(matches))
	if got := s.Value(0); math.Abs(got-2) > 1e-9 {
		t.Fatalf("expected trend slope 2, got %v", got)
	}
}
