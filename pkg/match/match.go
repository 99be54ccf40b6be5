// Package match enumerates, for a population row, the peripheral rows
// that share its join key and satisfy any temporal constraint declared
// on the join edge.
package match

// Match links one population row to one peripheral row. Activated is
// mutable and local to whichever aggregate.State currently owns this
// match slice -- the same (IxOutput, IxInput) pair may be copied into
// several independently-activated slices when several AbstractFeatures
// evaluate the same peripheral table with different conditions.
//
// Value, Aux and Category are populated by the caller right before
// handing the slice to an aggregate.State:
//   - Value holds the quantity the aggregation reduces over: the
//     aggregated column's value for AVG/SUM/MIN/MAX/MEDIAN/STDDEV/VAR/
//     SKEWNESS/FIRST/LAST.
//   - Aux holds the secondary coordinate used to order matches when it
//     differs from Value: the peripheral time stamp for FIRST/LAST/
//     TREND (TREND regresses Value on Aux) and for AVG_TIME_BETWEEN,
//     which reduces over Aux alone and leaves Value unused.
//   - Category holds the interned categorical value for
//     COUNT_DISTINCT/COUNT_MINUS_COUNT_DISTINCT.
type Match struct {
	IxOutput  int
	IxInput   int
	Activated bool
	Value     float64
	Aux       float64
	Category  int32
}
