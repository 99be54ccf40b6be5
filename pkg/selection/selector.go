// Package selection implements RSquaredSelector: sampled R² scoring of
// candidate feature columns against one or more targets, keeping the
// top-N candidates overall (spec.md §4.5).
package selection

import (
	"math"
	"sort"
)

// Matrix is a column-major feature/target matrix: Columns[j][r] is
// column j's value at sampled row r.
type Matrix struct {
	Columns [][]float64
}

// NRows returns the sample size, or 0 for an empty matrix.
func (m Matrix) NRows() int {
	if len(m.Columns) == 0 {
		return 0
	}
	return len(m.Columns[0])
}

// Score is a candidate's best R² against any target column, and the
// candidate's original index (used as the tie-break key).
type Score struct {
	Index int
	Value float64
}

// Select scores every column of candidates against every column of
// targets (both already restricted to the same sampled rows -- see
// SampleRows), keeping max_j R²_ij per candidate, and returns the indices
// of the top n candidates by that score, ties broken by lower index
// for determinism. If len(candidates) <= n, selection is the identity
// and every index 0..len(candidates)-1 is returned in order.
func Select(candidates Matrix, targets Matrix, n int) []int {
	nCandidates := len(candidates.Columns)
	if nCandidates <= n {
		out := make([]int, nCandidates)
		for i := range out {
			out[i] = i
		}
		return out
	}

	scores := scoreCandidates(candidates, targets)

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Value != scores[j].Value {
			return scores[i].Value > scores[j].Value
		}
		return scores[i].Index < scores[j].Index
	})

	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = scores[i].Index
	}
	sort.Ints(out)
	return out
}

// ScoreAll scores every candidate column against every target column
// (both already restricted to the same sampled rows), keeping max_j
// R²_ij per candidate -- the same scoring Select uses to rank
// candidates, exposed separately so a caller can attach each selected
// feature's score to the column-importance map (spec.md §6).
func ScoreAll(candidates, targets Matrix) []Score {
	return scoreCandidates(candidates, targets)
}

func scoreCandidates(candidates, targets Matrix) []Score {
	scores := make([]Score, len(candidates.Columns))
	for j, col := range candidates.Columns {
		best := 0.0
		for _, t := range targets.Columns {
			r2 := rSquared(col, t)
			if math.IsNaN(r2) {
				r2 = 0
			}
			if r2 > best {
				best = r2
			}
		}
		scores[j] = Score{Index: j, Value: best}
	}
	return scores
}

// rSquared computes the squared Pearson correlation between x and y,
// NaN if either is degenerate (zero variance or length mismatch).
func rSquared(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return math.NaN()
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)

	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx, dy := x[i]-meanX, y[i]-meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	r := sxy / math.Sqrt(sxx*syy)
	return r * r
}
