package aggregate

// activateTimeBetween and deactivateTimeBetween maintain, per output
// row, the earliest and latest activated peripheral time stamp
// (tracked by match index, mirroring activateExtremal's pointer
// style). Value() derives the mean inter-arrival gap from the two
// extremes rather than walking every activated match, since the gaps
// over a sorted time-stamp sequence telescope to (max-min)/(n-1)
// regardless of how the intermediate stamps are distributed.
func (s *State) activateTimeBetween(idx int) {
	out := s.matches[idx].IxOutput
	t := s.matches[idx].Aux
	s.count[out]++
	if cur := s.tsMinPtr[out]; cur < 0 || t < s.matches[cur].Aux {
		s.tsMinPtr[out] = idx
	}
	if cur := s.tsMaxPtr[out]; cur < 0 || t > s.matches[cur].Aux {
		s.tsMaxPtr[out] = idx
	}
}

func (s *State) deactivateTimeBetween(idx int) {
	out := s.matches[idx].IxOutput
	s.count[out]--
	if s.tsMinPtr[out] == idx || s.tsMaxPtr[out] == idx {
		s.recomputeTimeBetween(out)
	}
}

func (s *State) recomputeTimeBetween(out int) {
	minIdx, maxIdx := -1, -1
	for _, idx := range s.groups[out] {
		if !s.matches[idx].Activated {
			continue
		}
		t := s.matches[idx].Aux
		if minIdx < 0 || t < s.matches[minIdx].Aux {
			minIdx = idx
		}
		if maxIdx < 0 || t > s.matches[maxIdx].Aux {
			maxIdx = idx
		}
	}
	s.tsMinPtr[out] = minIdx
	s.tsMaxPtr[out] = maxIdx
}
