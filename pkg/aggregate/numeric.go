package aggregate

import "math"

// activateOne and deactivateOne dispatch to the per-kind kernel. Every
// kernel is symmetric: calling activateOne then deactivateOne on the
// same index restores the accumulator arrays bit-for-bit, which is
// what makes Commit/RevertToCommit correct without replaying history.
func (s *State) activateOne(idx int) {
	m := &s.matches[idx]
	if m.Activated {
		return
	}
	// separate_null_values (spec.md §4.3): a match whose sort key is
	// NaN/±Inf is front-partitioned out of the sample and never reaches
	// a kernel for these kinds -- it simply never activates.
	switch s.kind {
	case MIN, MAX, MEDIAN:
		if isNull(m.Value) {
			return
		}
	case FIRST, LAST, AVG_TIME_BETWEEN:
		if isNull(m.Aux) {
			return
		}
	}
	s.touch(idx)
	m.Activated = true

	switch s.kind {
	case COUNT, AVG, SUM, STDDEV, VAR, SKEWNESS:
		s.addNumeric(m.IxOutput, m.Value)
	case AVG_TIME_BETWEEN:
		s.activateTimeBetween(idx)
	case TREND:
		s.addTrend(m.IxOutput, m.Aux, m.Value)
	case MIN:
		s.activateExtremal(idx, func(a, b float64) bool { return a < b })
	case MAX:
		s.activateExtremal(idx, func(a, b float64) bool { return a > b })
	case MEDIAN:
		s.activateMedian(idx)
	case FIRST:
		s.activateFirstLast(idx, true)
	case LAST:
		s.activateFirstLast(idx, false)
	case COUNT_DISTINCT, COUNT_MINUS_COUNT_DISTINCT:
		s.activateDistinct(idx)
	}
}

func (s *State) deactivateOne(idx int) {
	m := &s.matches[idx]
	if !m.Activated {
		return
	}
	s.touch(idx)
	m.Activated = false

	switch s.kind {
	case COUNT, AVG, SUM, STDDEV, VAR, SKEWNESS:
		s.removeNumeric(m.IxOutput, m.Value)
	case AVG_TIME_BETWEEN:
		s.deactivateTimeBetween(idx)
	case TREND:
		s.removeTrend(m.IxOutput, m.Aux, m.Value)
	case MIN, MAX, MEDIAN, FIRST, LAST:
		s.recomputeGroupExtremal(m.IxOutput)
	case COUNT_DISTINCT, COUNT_MINUS_COUNT_DISTINCT:
		s.deactivateDistinct(idx)
	}
}

func (s *State) addNumeric(out int, v float64) {
	if isNull(v) {
		return
	}
	s.sum[out] += v
	s.sumSq[out] += v * v
	s.sumCube[out] += v * v * v
	s.count[out]++
}

func (s *State) removeNumeric(out int, v float64) {
	if isNull(v) {
		return
	}
	s.sum[out] -= v
	s.sumSq[out] -= v * v
	s.sumCube[out] -= v * v * v
	s.count[out]--
}

func (s *State) addTrend(out int, t, v float64) {
	if isNull(t) || isNull(v) {
		return
	}
	s.sumT[out] += t
	s.sumTT[out] += t * t
	s.sumTV[out] += t * v
	s.sum[out] += v
	s.count[out]++
}

func (s *State) removeTrend(out int, t, v float64) {
	if isNull(t) || isNull(v) {
		return
	}
	s.sumT[out] -= t
	s.sumTT[out] -= t * t
	s.sumTV[out] -= t * v
	s.sum[out] -= v
	s.count[out]--
}

func isNull(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// Value reads out the current aggregate for output row out, projecting
// null results (empty group, degenerate variance, etc.) to NaN so that
// downstream column assembly treats it uniformly with any other
// numerical null (spec.md §7's "NaN/inf are null" rule, applied at
// every aggregation kind boundary per the REDESIGN FLAGS).
func (s *State) Value(out int) float64 {
	n := s.count[out]
	switch s.kind {
	case COUNT:
		return n
	case SUM:
		if n == 0 {
			return 0
		}
		return s.sum[out]
	case AVG:
		if n == 0 {
			return math.NaN()
		}
		return s.sum[out] / n
	case AVG_TIME_BETWEEN:
		// mean inter-arrival gap over the matched peripheral time
		// stamps; telescopes to (max-min)/(n-1) regardless of the
		// intermediate ordering, so only the two extremes are tracked.
		if n < 2 {
			return math.NaN()
		}
		minIdx, maxIdx := s.tsMinPtr[out], s.tsMaxPtr[out]
		if minIdx < 0 || maxIdx < 0 {
			return math.NaN()
		}
		return (s.matches[maxIdx].Aux - s.matches[minIdx].Aux) / (n - 1)
	case VAR:
		if n < 2 {
			return math.NaN()
		}
		mean := s.sum[out] / n
		return s.sumSq[out]/n - mean*mean
	case STDDEV:
		if n < 2 {
			return math.NaN()
		}
		mean := s.sum[out] / n
		v := s.sumSq[out]/n - mean*mean
		if v < 0 {
			v = 0
		}
		return math.Sqrt(v)
	case SKEWNESS:
		if n < 2 {
			return math.NaN()
		}
		mean := s.sum[out] / n
		variance := s.sumSq[out]/n - mean*mean
		if variance <= 0 {
			return math.NaN()
		}
		sd := math.Sqrt(variance)
		m3 := s.sumCube[out]/n - 3*mean*s.sumSq[out]/n + 2*mean*mean*mean
		return m3 / (sd * sd * sd)
	case TREND:
		if n < 2 {
			return math.NaN()
		}
		meanT := s.sumT[out] / n
		meanV := s.sum[out] / n
		denom := s.sumTT[out] - n*meanT*meanT
		if denom == 0 {
			return math.NaN()
		}
		return (s.sumTV[out] - n*meanT*meanV) / denom
	case MIN, MAX, FIRST, LAST:
		if s.ptr[out] < 0 {
			return math.NaN()
		}
		return s.matches[s.ptr[out]].Value
	case MEDIAN:
		return s.medianValue(out)
	case COUNT_DISTINCT:
		return float64(s.distinctCount[out])
	case COUNT_MINUS_COUNT_DISTINCT:
		return s.countMinusDistinct(out)
	default:
		return math.NaN()
	}
}

// ProjectedValue is Value with NaN/Inf collapsed to 0.0, matching the
// convention schema.Column.ProjectNull uses when a feature column is
// finally materialized.
func (s *State) ProjectedValue(out int) float64 {
	v := s.Value(out)
	if isNull(v) {
		return 0
	}
	return v
}

func (s *State) countMinusDistinct(out int) float64 {
	total := 0
	for _, c := range s.valueActive[out] {
		total += c
	}
	return float64(total - s.distinctCount[out])
}
