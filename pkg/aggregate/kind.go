// Package aggregate implements the incremental aggregation state
// machines at the heart of the feature-propagation engine: per
// population (output) row running sums/counts and pointer-based
// extrema, supporting activate/deactivate/commit/revert so the
// FeatureEnumerator can try many condition variants (category slices,
// lag windows) against the same match list without recomputing from
// scratch each time.
package aggregate

// Kind identifies one aggregation function.
type Kind int

const (
	COUNT Kind = iota
	COUNT_DISTINCT
	COUNT_MINUS_COUNT_DISTINCT
	AVG
	SUM
	MIN
	MAX
	MEDIAN
	STDDEV
	VAR
	SKEWNESS
	FIRST
	LAST
	AVG_TIME_BETWEEN
	TREND
)

func (k Kind) String() string {
	switch k {
	case COUNT:
		return "COUNT"
	case COUNT_DISTINCT:
		return "COUNT_DISTINCT"
	case COUNT_MINUS_COUNT_DISTINCT:
		return "COUNT_MINUS_COUNT_DISTINCT"
	case AVG:
		return "AVG"
	case SUM:
		return "SUM"
	case MIN:
		return "MIN"
	case MAX:
		return "MAX"
	case MEDIAN:
		return "MEDIAN"
	case STDDEV:
		return "STDDEV"
	case VAR:
		return "VAR"
	case SKEWNESS:
		return "SKEWNESS"
	case FIRST:
		return "FIRST"
	case LAST:
		return "LAST"
	case AVG_TIME_BETWEEN:
		return "AVG_TIME_BETWEEN"
	case TREND:
		return "TREND"
	default:
		return "UNKNOWN"
	}
}

// NumericalKinds are the aggregations compatible with numerical and
// discrete peripheral columns (spec.md §4.4).
var NumericalKinds = []Kind{AVG, SUM, MIN, MAX, MEDIAN, STDDEV, VAR, SKEWNESS}

// CategoricalKinds are the aggregations compatible with categorical
// peripheral columns.
var CategoricalKinds = []Kind{COUNT_DISTINCT, COUNT_MINUS_COUNT_DISTINCT}

// TimeOrderedKinds require both the population and peripheral sides of
// the join to carry a time stamp: FIRST/LAST walk the peripheral
// matches in time order, and TREND regresses the aggregated value on
// the peripheral time stamp.
var TimeOrderedKinds = []Kind{FIRST, LAST, TREND}

// ParseKind maps a hyperparameter-file aggregation name to its Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "COUNT":
		return COUNT, nil
	case "COUNT_DISTINCT":
		return COUNT_DISTINCT, nil
	case "COUNT_MINUS_COUNT_DISTINCT":
		return COUNT_MINUS_COUNT_DISTINCT, nil
	case "AVG":
		return AVG, nil
	case "SUM":
		return SUM, nil
	case "MIN":
		return MIN, nil
	case "MAX":
		return MAX, nil
	case "MEDIAN":
		return MEDIAN, nil
	case "STDDEV":
		return STDDEV, nil
	case "VAR":
		return VAR, nil
	case "SKEWNESS":
		return SKEWNESS, nil
	case "FIRST":
		return FIRST, nil
	case "LAST":
		return LAST, nil
	case "AVG_TIME_BETWEEN":
		return AVG_TIME_BETWEEN, nil
	case "TREND":
		return TREND, nil
	default:
		return 0, unknownKindError(name)
	}
}

type unknownKindError string

func (e unknownKindError) Error() string { return "aggregate: unknown aggregation kind " + string(e) }

// needsSortedMatches are the kinds whose activate/deactivate kernels
// walk neighboring matches and therefore require the match slice
// pre-sorted by (output row, value) -- spec.md §4.3's "sorting
// precondition".
func needsSortedMatches(k Kind) bool {
	switch k {
	case MIN, MAX, MEDIAN, COUNT_DISTINCT, COUNT_MINUS_COUNT_DISTINCT, FIRST, LAST, AVG_TIME_BETWEEN:
		return true
	default:
		return false
	}
}
