// Package rowbuilder evaluates one population row's full feature
// vector: build matches per peripheral table, filter by each selected
// feature's conditions, dispatch to the aggregation kernel, and cache
// the result until the next flush (spec.md §4.6).
package rowbuilder

import (
	"fmt"

	"github.com/algomatic/relprop/pkg/aggregate"
	"github.com/algomatic/relprop/pkg/condition"
	"github.com/algomatic/relprop/pkg/enumerate"
	"github.com/algomatic/relprop/pkg/match"
	"github.com/algomatic/relprop/pkg/schema"
)

// LogIter is the default cache-flush cadence (spec.md §4.6 names 5000
// as an example fixed constant).
const LogIter = 5000

// Output receives flushed row ranges: rows is row-major, rows[i][j] is
// feature column j of the row at offset startRow+i among the rows this
// RowBuilder has built so far (offset 0 is the start row of its first
// BuildRows call, not population row 0).
type Output interface {
	WriteRows(startRow int, rows [][]float64)
}

type compiledFeature struct {
	feature    enumerate.AbstractFeature
	predicate  condition.Predicate
	peripheral *schema.DataFrame
	matchmaker *match.Matchmaker

	aggregatedColumn *schema.Column
	auxColumn        *schema.Column
	categoryColumn   *schema.Column
	textColumn       *schema.Column

	memoKey string
}

// RowBuilder evaluates a fixed, ordered list of selected features for
// a range of population rows. It owns no shared mutable state -- the
// concurrency model (spec.md §5) gives every worker its own
// RowBuilder, cache, and AggregationStates.
type RowBuilder struct {
	population *schema.DataFrame
	compiled   []compiledFeature
	logIter    int

	cache    [][]float64 // row-major, length <= logIter
	cacheLen int
	output   Output
	nextRow  int

	memo map[string][]match.Match // reset every row
}

// New compiles features against population/peripheral pairs, building
// one Matchmaker per distinct peripheral table referenced. matchmakers
// maps peripheral table name to the join edge's Matchmaker (the
// engine builds one matchmaker per edge before spawning RowBuilders).
func New(population *schema.DataFrame, peripherals map[string]*schema.DataFrame, matchmakers map[string]*match.Matchmaker, features []enumerate.AbstractFeature, logIter int, output Output) (*RowBuilder, error) {
	if logIter <= 0 {
		logIter = LogIter
	}
	rb := &RowBuilder{
		population: population,
		logIter:    logIter,
		output:     output,
		memo:       make(map[string][]match.Match),
	}

	for i, f := range features {
		peripheral, ok := peripherals[f.PeripheralTable]
		if !ok {
			return nil, fmt.Errorf("%w: feature %d references unknown peripheral table %q", schema.ErrConfiguration, i, f.PeripheralTable)
		}
		mm, ok := matchmakers[f.PeripheralTable]
		if !ok {
			return nil, fmt.Errorf("%w: no matchmaker built for peripheral table %q", schema.ErrConfiguration, f.PeripheralTable)
		}

		eval := condition.NewEvaluator(population, peripheral, f.Conditions)
		pred, err := eval.Compile()
		if err != nil {
			return nil, fmt.Errorf("compiling feature %d (%s): %w", i, f.Description(), err)
		}

		cf := compiledFeature{
			feature: f, predicate: pred, peripheral: peripheral, matchmaker: mm,
			memoKey: matchListMemoKey(f),
		}
		if f.AggregatedColumn != "" {
			col, err := peripheral.MustColumn(f.AggregatedColumn)
			if err != nil {
				return nil, err
			}
			if f.TextToken != "" {
				cf.textColumn = col
			} else {
				cf.aggregatedColumn = col
			}
		}
		if f.Aggregation == aggregate.FIRST || f.Aggregation == aggregate.LAST || f.Aggregation == aggregate.TREND || f.Aggregation == aggregate.AVG_TIME_BETWEEN {
			auxCols := peripheral.ColumnsWithRole(schema.RoleTimeStamp)
			if len(auxCols) == 0 {
				return nil, fmt.Errorf("%w: feature %d (%s) requires a peripheral time stamp", schema.ErrSchema, i, f.Description())
			}
			cf.auxColumn = auxCols[0]
		}
		if f.Aggregation == aggregate.COUNT_DISTINCT || f.Aggregation == aggregate.COUNT_MINUS_COUNT_DISTINCT {
			cf.categoryColumn = cf.aggregatedColumn
		}

		rb.compiled = append(rb.compiled, cf)
	}

	rb.cache = make([][]float64, 0, logIter)
	return rb, nil
}

// matchListMemoKey groups features that can share a filtered match
// list: same peripheral table and same condition set, differing only
// in aggregation/column (spec.md §4.6's "(peripheral, aggregation
// family) over identical match lists" memoization).
func matchListMemoKey(f enumerate.AbstractFeature) string {
	key := f.PeripheralTable
	for _, c := range f.Conditions {
		key += "|" + c.String()
	}
	return key
}

// NCols returns the number of feature columns this RowBuilder emits.
func (rb *RowBuilder) NCols() int { return len(rb.compiled) }

// BuildRows evaluates every population row in [start, end) and flushes
// the cache every logIter rows, plus a final tail flush.
func (rb *RowBuilder) BuildRows(start, end int) error {
	for r := start; r < end; r++ {
		row, err := rb.buildRow(r)
		if err != nil {
			return err
		}
		rb.cache = append(rb.cache, row)
		rb.cacheLen++
		if rb.cacheLen == rb.logIter {
			rb.flush()
		}
	}
	rb.flush()
	return nil
}

func (rb *RowBuilder) buildRow(popRow int) ([]float64, error) {
	rb.memo = make(map[string][]match.Match, len(rb.compiled))
	row := make([]float64, len(rb.compiled))

	for j, cf := range rb.compiled {
		filtered, ok := rb.memo[cf.memoKey]
		if !ok {
			all := cf.matchmaker.Matches(popRow)
			filtered = filterMatches(all, popRow, cf.predicate)
			rb.memo[cf.memoKey] = filtered
		}

		matches := buildAggregateMatches(filtered, cf)
		if aggregate.NeedsSorting(cf.feature.Aggregation) {
			aggregate.SortMatches(cf.feature.Aggregation, matches)
		}
		st := aggregate.New(cf.feature.Aggregation, matches, 1)
		st.ActivateAll(allIndices(len(matches)))
		row[j] = st.ProjectedValue(0)
	}
	return row, nil
}

func filterMatches(candidates []match.Match, popRow int, pred condition.Predicate) []match.Match {
	out := make([]match.Match, 0, len(candidates))
	for _, m := range candidates {
		if pred(popRow, m.IxInput) {
			out = append(out, m)
		}
	}
	return out
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// buildAggregateMatches fills in Value/Aux/Category for each filtered
// match from the compiled feature's resolved columns, and normalizes
// IxOutput to 0 since a RowBuilder evaluates one population row's
// feature vector at a time.
func buildAggregateMatches(filtered []match.Match, cf compiledFeature) []match.Match {
	out := make([]match.Match, len(filtered))
	for i, m := range filtered {
		nm := match.Match{IxOutput: 0, IxInput: m.IxInput}
		if cf.aggregatedColumn != nil {
			nm.Value = valueOf(cf.aggregatedColumn, m.IxInput)
		}
		if cf.textColumn != nil {
			nm.Value = enumerate.CountToken(cf.textColumn.Text[m.IxInput], cf.feature.TextToken)
		}
		if cf.auxColumn != nil {
			nm.Aux = cf.auxColumn.Numerical[m.IxInput]
		}
		if cf.categoryColumn != nil && cf.categoryColumn.Kind == schema.KindCategorical {
			nm.Category = cf.categoryColumn.Categorical[m.IxInput]
		} else {
			nm.Category = schema.NullCategory
		}
		out[i] = nm
	}
	return out
}

func valueOf(col *schema.Column, row int) float64 {
	switch col.Kind {
	case schema.KindNumerical, schema.KindTimeStamp:
		return col.Numerical[row]
	default:
		return 0
	}
}

func (rb *RowBuilder) flush() {
	if rb.cacheLen == 0 {
		return
	}
	if rb.output != nil {
		rb.output.WriteRows(rb.nextRow, rb.cache)
	}
	rb.nextRow += rb.cacheLen
	rb.cache = rb.cache[:0]
	rb.cacheLen = 0
}
