package schema

import "math"

// Role describes how the engine is allowed to use a column.
type Role int

const (
	RoleUnused Role = iota
	RoleJoinKey
	RoleTimeStamp
	RoleNumerical
	RoleCategorical
	RoleText
	RoleTarget
)

func (r Role) String() string {
	switch r {
	case RoleJoinKey:
		return "join_key"
	case RoleTimeStamp:
		return "time_stamp"
	case RoleNumerical:
		return "numerical"
	case RoleCategorical:
		return "categorical"
	case RoleText:
		return "text"
	case RoleTarget:
		return "target"
	default:
		return "unused"
	}
}

// Kind is the physical storage kind of a column, independent of Role:
// a join-key and a categorical column are both stored as Kind
// categorical (interned ids), but carry different Roles.
type Kind int

const (
	KindNumerical Kind = iota
	KindCategorical
	KindText
	KindTimeStamp
)

// Column is one named, typed column of a DataFrame. Exactly one of
// Numerical, Categorical, Text holds data, selected by Kind.
// Numerical and TimeStamp columns use NaN to denote null; Categorical
// columns use NullCategory.
type Column struct {
	Name string
	Kind Kind
	Role Role
	// Unit is a free-form string; two columns with the same non-empty
	// Unit are "same-unit" and may be compared across a join. A unit
	// containing the substring "comparison only" restricts the column
	// to same-unit conditions -- it may never be the aggregated value
	// of a free aggregation.
	Unit string

	Numerical   []float64 // Kind == KindNumerical || Kind == KindTimeStamp
	Categorical []int32   // Kind == KindCategorical, ids into an Encoding
	Text        []string  // Kind == KindText
}

// Len returns the column's row count.
func (c *Column) Len() int {
	switch c.Kind {
	case KindNumerical, KindTimeStamp:
		return len(c.Numerical)
	case KindCategorical:
		return len(c.Categorical)
	case KindText:
		return len(c.Text)
	default:
		return 0
	}
}

// ComparisonOnly reports whether this column's unit restricts it to
// same-unit conditions only.
func (c *Column) ComparisonOnly() bool {
	return containsComparisonOnly(c.Unit)
}

func containsComparisonOnly(unit string) bool {
	return indexOfSubstr(unit, "comparison only") >= 0
}

// indexOfSubstr avoids importing strings just for one call site used by
// both ComparisonOnly and the time-stamp textual-heuristic fallback.
func indexOfSubstr(s, substr string) int {
	n, m := len(s), len(substr)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == substr {
			return i
		}
	}
	return -1
}

// NewNumerical builds a numerical column, defaulting Role to
// RoleNumerical.
func NewNumerical(name string, values []float64) *Column {
	return &Column{Name: name, Kind: KindNumerical, Role: RoleNumerical, Numerical: values}
}

// NewTimeStamp builds a time-stamp column (seconds since epoch, NaN =
// null), defaulting Role to RoleTimeStamp.
func NewTimeStamp(name string, values []float64) *Column {
	return &Column{Name: name, Kind: KindTimeStamp, Role: RoleTimeStamp, Numerical: values}
}

// NewCategorical builds a categorical column from already-interned ids.
func NewCategorical(name string, ids []int32, role Role) *Column {
	return &Column{Name: name, Kind: KindCategorical, Role: role, Categorical: ids}
}

// NewText builds a text column, defaulting Role to RoleText.
func NewText(name string, values []string) *Column {
	return &Column{Name: name, Kind: KindText, Role: RoleText, Text: values}
}

// IsNullNumerical reports whether v denotes a null numeric/time-stamp
// value: NaN or +/-Inf.
func IsNullNumerical(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// ProjectNull maps a null numeric value to 0.0, leaving finite values
// untouched.
func ProjectNull(v float64) float64 {
	if IsNullNumerical(v) {
		return 0.0
	}
	return v
}
