package schema

// DataFrame is an ordered set of named, equal-length columns. It is the
// only representation of tabular data the core engine understands --
// CSV/Parquet/DB ingestion is an external collaborator's concern and is
// not part of this package.
//
// A DataFrame is shared: many readers during Fit/Transform, one writer
// serialized by a reader/writer lock at the surrounding session
// boundary. The core never writes to a DataFrame it did not itself
// build (e.g. a subfeature's expanded output), so no lock lives here.
type DataFrame struct {
	Name    string
	columns []*Column
	byName  map[string]*Column
	nrows   int
}

// New creates an empty, named DataFrame.
func New(name string) *DataFrame {
	return &DataFrame{Name: name, byName: make(map[string]*Column)}
}

// AddColumn appends c, validating that its length matches the frame's
// existing row count (the frame adopts c's length if it is the first
// column added) and that no column of that name exists yet.
func (df *DataFrame) AddColumn(c *Column) error {
	if _, exists := df.byName[c.Name]; exists {
		return newSchemaError("data frame %q already has a column named %q", df.Name, c.Name)
	}
	n := c.Len()
	if len(df.columns) == 0 {
		df.nrows = n
	} else if n != df.nrows {
		return newSchemaError("data frame %q: column %q has %d rows, expected %d", df.Name, c.Name, n, df.nrows)
	}
	df.columns = append(df.columns, c)
	df.byName[c.Name] = c
	return nil
}

// Column returns the named column, or false if it does not exist.
func (df *DataFrame) Column(name string) (*Column, bool) {
	c, ok := df.byName[name]
	return c, ok
}

// MustColumn returns the named column, wrapped in ErrSchema if absent.
// It is the entry point used whenever a Placeholder edge references a
// column by name: a missing reference there is a programmer/schema
// error, never recoverable at the row level.
func (df *DataFrame) MustColumn(name string) (*Column, error) {
	c, ok := df.byName[name]
	if !ok {
		return nil, newSchemaError("data frame %q has no column named %q", df.Name, name)
	}
	return c, nil
}

// Columns returns the frame's columns in declaration order. The slice
// must not be mutated by the caller.
func (df *DataFrame) Columns() []*Column {
	return df.columns
}

// NRows returns the frame's row count (0 for an empty frame).
func (df *DataFrame) NRows() int {
	return df.nrows
}

// ColumnsWithRole returns all columns carrying the given role, in
// declaration order.
func (df *DataFrame) ColumnsWithRole(role Role) []*Column {
	var out []*Column
	for _, c := range df.columns {
		if c.Role == role {
			out = append(out, c)
		}
	}
	return out
}

// IsTimeStamp reports whether the named column should be treated as a
// time stamp: an explicit RoleTimeStamp role is authoritative; absent
// that, a unit string containing "time stamp" is accepted as a
// compatibility fallback for data that predates explicit roles (see
// DESIGN.md Open Question decisions).
func (df *DataFrame) IsTimeStamp(name string) bool {
	c, ok := df.byName[name]
	if !ok {
		return false
	}
	if c.Role == RoleTimeStamp {
		return true
	}
	return c.Kind == KindNumerical && indexOfSubstr(c.Unit, "time stamp") >= 0
}
