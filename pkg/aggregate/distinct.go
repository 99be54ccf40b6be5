package aggregate

// activateDistinct and deactivateDistinct maintain, per output row, a
// reference count per distinct category among currently activated
// matches (s.valueActive) and the live distinct-category count
// (s.distinctCount). COUNT_MINUS_COUNT_DISTINCT reads both the total
// activated count (summed from valueActive) and distinctCount at
// Value-time, so no separate bookkeeping is needed for it here.
func (s *State) activateDistinct(idx int) {
	m := &s.matches[idx]
	if m.Category < 0 {
		return
	}
	out := m.IxOutput
	n := s.valueActive[out][m.Category]
	if n == 0 {
		s.distinctCount[out]++
	}
	s.valueActive[out][m.Category] = n + 1
}

func (s *State) deactivateDistinct(idx int) {
	m := &s.matches[idx]
	if m.Category < 0 {
		return
	}
	out := m.IxOutput
	n := s.valueActive[out][m.Category]
	if n <= 1 {
		delete(s.valueActive[out], m.Category)
		s.distinctCount[out]--
		return
	}
	s.valueActive[out][m.Category] = n - 1
}
