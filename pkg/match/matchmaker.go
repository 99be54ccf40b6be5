package match

import (
	"github.com/algomatic/relprop/pkg/schema"
)

// Matchmaker enumerates matches for one join edge between a population
// and a peripheral frame. It is built once per edge and reused across
// every population row in a shard; the hash index it wraps is built
// once, up front, at construction time.
type Matchmaker struct {
	population, peripheral *schema.DataFrame
	popJoinCols            []*schema.Column
	index                  *Index

	tsPop, tsPeriph *schema.Column
	upperTS         *schema.Column
}

// New builds a Matchmaker for edge, validating every column edge
// references exists and carries a compatible role. A missing join-key
// or time-stamp column is a fatal schema error surfaced here, not at
// Matches time.
func New(population, peripheral *schema.DataFrame, edge schema.Edge) (*Matchmaker, error) {
	if err := edge.Validate(population, peripheral); err != nil {
		return nil, err
	}

	// A pair with both names empty is the degenerate all-rows join key:
	// it contributes no column, and BuildIndex with no columns matches
	// every peripheral row.
	var periphCols, popCols []string
	for _, jk := range edge.JoinKeys {
		if jk.Population == "" && jk.Peripheral == "" {
			continue
		}
		periphCols = append(periphCols, jk.Peripheral)
		popCols = append(popCols, jk.Population)
	}

	idx, err := BuildIndex(peripheral, periphCols)
	if err != nil {
		return nil, err
	}

	mm := &Matchmaker{
		population: population,
		peripheral: peripheral,
		index:      idx,
	}

	for _, name := range popCols {
		c, err := population.MustColumn(name)
		if err != nil {
			return nil, err
		}
		mm.popJoinCols = append(mm.popJoinCols, c)
	}

	if edge.TimeStampPopulation != "" {
		if mm.tsPop, err = population.MustColumn(edge.TimeStampPopulation); err != nil {
			return nil, err
		}
		if mm.tsPeriph, err = peripheral.MustColumn(edge.TimeStampPeripheral); err != nil {
			return nil, err
		}
	}
	if edge.UpperTimeStamp != "" {
		if mm.upperTS, err = population.MustColumn(edge.UpperTimeStamp); err != nil {
			return nil, err
		}
	}

	return mm, nil
}

// Matches returns the ordered list of peripheral row indices matching
// population row r: sharing the join key and, when a temporal
// constraint is declared, satisfying it. Matches is deterministic for
// fixed inputs: the index is pre-sorted and the temporal filter below
// preserves that order.
func (mm *Matchmaker) Matches(r int) []Match {
	candidates := mm.index.Lookup(mm.popJoinCols, r)
	if len(candidates) == 0 {
		return nil
	}

	if mm.tsPop == nil {
		out := make([]Match, len(candidates))
		for i, pr := range candidates {
			out[i] = Match{IxOutput: r, IxInput: pr}
		}
		return out
	}

	popTS := mm.tsPop.Numerical[r]
	if schema.IsNullNumerical(popTS) {
		return nil
	}
	var upperTS float64
	hasUpper := mm.upperTS != nil
	if hasUpper {
		upperTS = mm.upperTS.Numerical[r]
		if schema.IsNullNumerical(upperTS) {
			return nil
		}
	}

	out := make([]Match, 0, len(candidates))
	for _, pr := range candidates {
		pts := mm.tsPeriph.Numerical[pr]
		if schema.IsNullNumerical(pts) {
			continue // null peripheral time stamp: match dropped
		}
		if pts > popTS {
			continue
		}
		if hasUpper && !(pts < upperTS) {
			continue
		}
		out = append(out, Match{IxOutput: r, IxInput: pr})
	}
	return out
}
