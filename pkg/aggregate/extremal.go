package aggregate

import "math"

// activateExtremal maintains s.ptr[out] as the representative match
// for MIN/MAX: groups are pre-sorted ascending by Value (SortMatches),
// so MIN always prefers the leftmost activated position and MAX always
// prefers the rightmost. better(candidateValue, currentValue) reports
// whether idx should replace the current pointer.
func (s *State) activateExtremal(idx int, better func(a, b float64) bool) {
	out := s.matches[idx].IxOutput
	cur := s.ptr[out]
	if cur < 0 || better(s.matches[idx].Value, s.matches[cur].Value) {
		s.ptr[out] = idx
	}
}

// activateFirstLast is activateExtremal's counterpart for FIRST/LAST,
// which order by Aux (the peripheral time stamp) rather than Value.
func (s *State) activateFirstLast(idx int, preferEarlier bool) {
	out := s.matches[idx].IxOutput
	cur := s.ptr[out]
	if cur < 0 {
		s.ptr[out] = idx
		return
	}
	if preferEarlier {
		if s.pos[idx] < s.pos[cur] {
			s.ptr[out] = idx
		}
	} else {
		if s.pos[idx] > s.pos[cur] {
			s.ptr[out] = idx
		}
	}
}

// recomputeGroupExtremal rescans out's group after its current
// pointer is deactivated, an O(group-size) scan traded for the
// simplicity of not maintaining a doubly-linked active list (see
// DESIGN.md's note on pkg/aggregate).
func (s *State) recomputeGroupExtremal(out int) {
	idxs := s.groups[out]
	best := -1
	for _, idx := range idxs {
		if !s.matches[idx].Activated {
			continue
		}
		if best < 0 {
			best = idx
			continue
		}
		switch s.kind {
		case MIN:
			if s.matches[idx].Value < s.matches[best].Value {
				best = idx
			}
		case MAX:
			if s.matches[idx].Value > s.matches[best].Value {
				best = idx
			}
		case FIRST:
			if s.pos[idx] < s.pos[best] {
				best = idx
			}
		case LAST:
			if s.pos[idx] > s.pos[best] {
				best = idx
			}
		}
	}
	s.ptr[out] = best
}

// activateMedian and deactivateMedian are no-ops: medianValue always
// recomputes from the Activated flags of out's group directly, since
// the median's representative element can jump by more than one
// position per activate/deactivate (unlike MIN/MAX/FIRST/LAST, whose
// representative only ever moves at the group boundary currently
// touched).
func (s *State) activateMedian(idx int)   {}
func (s *State) deactivateMedian(idx int) {}

// medianValue scans out's group (pre-sorted ascending by Value) and
// returns the median of the activated subset, NaN if none are
// activated.
func (s *State) medianValue(out int) float64 {
	idxs := s.groups[out]
	var active []int
	for _, idx := range idxs {
		if s.matches[idx].Activated {
			active = append(active, idx)
		}
	}
	n := len(active)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 1 {
		return s.matches[active[n/2]].Value
	}
	a := s.matches[active[n/2-1]].Value
	b := s.matches[active[n/2]].Value
	return (a + b) / 2
}
