package schema

// JoinKeyPair names the join-key columns for one side of an edge. A
// degenerate "all rows match" join key is represented by a pair whose
// Population and Peripheral names are both empty (see match.New and
// match.BuildIndex).
type JoinKeyPair struct {
	Population string
	Peripheral string
}

// Edge describes one join from a parent Placeholder to a child table.
type Edge struct {
	Child *Placeholder

	JoinKeys []JoinKeyPair

	// TimeStampPopulation/TimeStampPeripheral name the time-stamp
	// columns defining a temporal join. Both empty means no temporal
	// constraint.
	TimeStampPopulation string
	TimeStampPeripheral string

	// AllowLaggedTargets permits the child to reference targets whose
	// time stamps strictly precede the parent row's time stamp.
	AllowLaggedTargets bool

	// UpperTimeStamp optionally names a population column giving a
	// right edge for the time window: a match additionally requires
	// peripheral_ts < population[UpperTimeStamp][r].
	UpperTimeStamp string
}

// Placeholder is a rooted tree node describing one table in the join
// structure: its name and the tables joined under it. Children are
// held as a slice, not as owning pointers with parent back-references,
// so the tree stays a plain value that can be walked, copied, and
// persisted without reference-cycle bookkeeping (spec.md design note:
// "model as an arena of nodes plus child-index slices").
type Placeholder struct {
	Table    string
	Children []Edge
}

// NewPlaceholder creates a leaf placeholder for the named table.
func NewPlaceholder(table string) *Placeholder {
	return &Placeholder{Table: table}
}

// Join appends a child edge and returns the receiver for chaining.
func (p *Placeholder) Join(edge Edge) *Placeholder {
	p.Children = append(p.Children, edge)
	return p
}

// Validate checks the edge against the population/peripheral frames it
// will be applied to: every referenced column must exist and carry a
// compatible role.
func (e *Edge) Validate(population, peripheral *DataFrame) error {
	if len(e.JoinKeys) == 0 {
		return newSchemaError("edge into %q: no join keys", e.Child.Table)
	}
	for _, jk := range e.JoinKeys {
		if jk.Population != "" {
			if _, err := population.MustColumn(jk.Population); err != nil {
				return err
			}
		}
		if jk.Peripheral != "" {
			if _, err := peripheral.MustColumn(jk.Peripheral); err != nil {
				return err
			}
		}
	}
	if (e.TimeStampPopulation == "") != (e.TimeStampPeripheral == "") {
		return newSchemaError("edge into %q: time-stamp join requires both sides set", e.Child.Table)
	}
	if e.TimeStampPopulation != "" {
		if !population.IsTimeStamp(e.TimeStampPopulation) {
			return newSchemaError("edge into %q: %q is not a time-stamp column", e.Child.Table, e.TimeStampPopulation)
		}
		if !peripheral.IsTimeStamp(e.TimeStampPeripheral) {
			return newSchemaError("edge into %q: %q is not a time-stamp column", e.Child.Table, e.TimeStampPeripheral)
		}
	}
	if e.UpperTimeStamp != "" {
		if !population.IsTimeStamp(e.UpperTimeStamp) {
			return newSchemaError("edge into %q: upper_time_stamp %q is not a time-stamp column", e.Child.Table, e.UpperTimeStamp)
		}
	}
	return nil
}
