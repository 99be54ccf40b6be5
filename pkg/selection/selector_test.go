package selection

import "testing"

func TestSelectIdentityWhenFewerCandidatesThanN(t *testing.T) {
	m := Matrix{Columns: [][]float64{{1, 2, 3}, {4, 5, 6}}}
	targets := Matrix{Columns: [][]float64{{1, 2, 3}}}
	got := Select(m, targets, 5)
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("expected identity selection [0 1], got %v", got)
	}
}

func TestSelectKeepsHigherCorrelation(t *testing.T) {
	// column 0 perfectly correlates with the target, column 1 does not.
	m := Matrix{Columns: [][]float64{
		{1, 2, 3, 4, 5},
		{5, 1, 4, 2, 3},
	}}
	targets := Matrix{Columns: [][]float64{{1, 2, 3, 4, 5}}}
	got := Select(m, targets, 1)
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("expected column 0 selected, got %v", got)
	}
}

// spec.md §8: for s1 > s2, either both are selected or s1's candidate
// is selected if any of them is (selection monotonicity).
func TestSelectionMonotonicity(t *testing.T) {
	m := Matrix{Columns: [][]float64{
		{1, 2, 3, 4, 5}, // perfect correlation, highest score
		{1, 2, 3, 4, 6}, // near-perfect, second highest
		{5, 1, 2, 9, 0}, // noise, lowest score
	}}
	targets := Matrix{Columns: [][]float64{{1, 2, 3, 4, 5}}}
	got := Select(m, targets, 1)
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("expected the highest-scoring candidate (0) to be kept, got %v", got)
	}
}

func TestSampleRowsDeterministic(t *testing.T) {
	a := SampleRows(100, 0.1)
	b := SampleRows(100, 0.1)
	if len(a) != len(b) {
		t.Fatalf("expected stable sample size, got %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected identical samples across calls, diverged at %d", i)
		}
	}
}

func TestSampleRowsFullWhenFactorIsOne(t *testing.T) {
	got := SampleRows(10, 1.0)
	if len(got) != 10 {
		t.Fatalf("expected all 10 rows, got %d", len(got))
	}
}
