package selection

import "math/rand"

// fitSeed is fixed so Fit-time feature scoring is reproducible across
// runs, as spec.md §4.5 requires ("seed fixed so fit is reproducible").
const fitSeed = 0x52454c50524f50 // "RELPROP" packed as hex, arbitrary but stable

// SampleRows draws a deterministic subset of row indices out of nRows
// rows, of size ceil(nRows*samplingFactor), without replacement. The
// sample is drawn once per fit and reused across every scoring batch
// for comparability, per spec.md §4.5.
func SampleRows(nRows int, samplingFactor float64) []int {
	if samplingFactor >= 1 || nRows == 0 {
		all := make([]int, nRows)
		for i := range all {
			all[i] = i
		}
		return all
	}

	size := int(float64(nRows)*samplingFactor + 0.999999)
	if size < 1 {
		size = 1
	}
	if size > nRows {
		size = nRows
	}

	rng := rand.New(rand.NewSource(fitSeed))
	pool := make([]int, nRows)
	for i := range pool {
		pool[i] = i
	}
	// Partial Fisher-Yates: shuffle only the prefix we need.
	for i := 0; i < size; i++ {
		j := i + rng.Intn(nRows-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	sample := append([]int(nil), pool[:size]...)
	return sample
}
