package enumerate

import (
	"fmt"

	"github.com/algomatic/relprop/pkg/aggregate"
	"github.com/algomatic/relprop/pkg/config"
	"github.com/algomatic/relprop/pkg/schema"
)

// Enumerator generates the candidate AbstractFeature pool for one join
// edge, given the resolved hyperparameters.
type Enumerator struct {
	hp  *config.Hyperparameters
	enc *schema.Encoding

	kinds map[aggregate.Kind]bool
}

// New builds an Enumerator bound to hp's aggregation allowlist.
func New(hp *config.Hyperparameters, enc *schema.Encoding) (*Enumerator, error) {
	kinds := make(map[aggregate.Kind]bool, len(hp.Aggregations))
	for _, name := range hp.Aggregations {
		k, err := aggregate.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", schema.ErrConfiguration, err)
		}
		kinds[k] = true
	}
	return &Enumerator{hp: hp, enc: enc, kinds: kinds}, nil
}

// Enumerate returns every AbstractFeature candidate for the join from
// population to peripheral along edge.
func (e *Enumerator) Enumerate(population, peripheral *schema.DataFrame, edge schema.Edge) ([]AbstractFeature, error) {
	if err := edge.Validate(population, peripheral); err != nil {
		return nil, err
	}

	sets, err := buildConditionSets(population, peripheral, edge, e.hp, e.enc)
	if err != nil {
		return nil, err
	}

	hasTimeStamps := edge.TimeStampPopulation != "" && edge.TimeStampPeripheral != ""

	var out []AbstractFeature
	for _, cs := range sets {
		if e.kinds[aggregate.COUNT] {
			out = append(out, AbstractFeature{
				PopulationTable: population.Name, PeripheralTable: peripheral.Name,
				Aggregation: aggregate.COUNT, Conditions: cs.conditions, SameUnitColumns: cs.sameUnitColumns,
			})
		}
		if hasTimeStamps && e.kinds[aggregate.AVG_TIME_BETWEEN] {
			out = append(out, AbstractFeature{
				PopulationTable: population.Name, PeripheralTable: peripheral.Name,
				Aggregation: aggregate.AVG_TIME_BETWEEN, Conditions: cs.conditions, SameUnitColumns: cs.sameUnitColumns,
			})
		}

		for _, col := range peripheral.Columns() {
			if col.ComparisonOnly() {
				continue
			}
			if col.Role == schema.RoleTarget && !edge.AllowLaggedTargets {
				continue // leakage guard: no lagged read of a peripheral target
			}
			for _, kind := range compatibleKinds(col.Kind, hasTimeStamps, e.kinds) {
				out = append(out, AbstractFeature{
					PopulationTable: population.Name, PeripheralTable: peripheral.Name,
					Aggregation: kind, AggregatedColumn: col.Name,
					Conditions: cs.conditions, SameUnitColumns: cs.sameUnitColumns,
				})
			}
		}

		tokenFeatures, err := e.textFeatures(peripheral, cs)
		if err != nil {
			return nil, err
		}
		out = append(out, tokenFeatures...)
	}

	return out, nil
}

// compatibleKinds lists the requested aggregation kinds compatible
// with a column of the given schema.Kind, per spec.md §4.4's
// compatibility table.
func compatibleKinds(kind schema.Kind, hasTimeStamps bool, requested map[aggregate.Kind]bool) []aggregate.Kind {
	var candidates []aggregate.Kind
	switch kind {
	case schema.KindNumerical:
		candidates = append(candidates, aggregate.NumericalKinds...)
		if hasTimeStamps {
			candidates = append(candidates, aggregate.TimeOrderedKinds...)
		}
	case schema.KindCategorical:
		candidates = append(candidates, aggregate.CategoricalKinds...)
	default:
		return nil
	}
	out := make([]aggregate.Kind, 0, len(candidates))
	for _, k := range candidates {
		if requested[k] {
			out = append(out, k)
		}
	}
	return out
}
