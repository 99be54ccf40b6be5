package match

import (
	"fmt"
	"sort"

	"github.com/algomatic/relprop/pkg/schema"
)

// Index is a pre-built hash from a (possibly composite) join-key value
// to the sorted list of peripheral row indices sharing that value.
// Composite keys are handled by hashing the tuple of interned ids
// together; a degenerate index with no join-key columns matches every
// population row against every peripheral row.
type Index struct {
	byKey      map[uint64][]int
	allRows    []int
	degenerate bool
}

// BuildIndex indexes df by the named columns, which must all be
// categorical-kind (join keys, like other categoricals, are interned
// ids -- see schema.DataFrame doc). An empty cols list builds the
// degenerate "all rows" index.
func BuildIndex(df *schema.DataFrame, cols []string) (*Index, error) {
	if len(cols) == 0 {
		all := make([]int, df.NRows())
		for i := range all {
			all[i] = i
		}
		return &Index{degenerate: true, allRows: all}, nil
	}

	columns := make([]*schema.Column, len(cols))
	for i, name := range cols {
		c, err := df.MustColumn(name)
		if err != nil {
			return nil, err
		}
		if c.Kind != schema.KindCategorical {
			return nil, fmt.Errorf("%w: join-key column %q on %q is not categorical-kind", schema.ErrSchema, name, df.Name)
		}
		columns[i] = c
	}

	idx := &Index{byKey: make(map[uint64][]int)}
	for r := 0; r < df.NRows(); r++ {
		key, isNull := compositeKey(columns, r)
		if isNull {
			continue
		}
		idx.byKey[key] = append(idx.byKey[key], r)
	}
	for _, rows := range idx.byKey {
		sort.Ints(rows)
	}
	return idx, nil
}

// Lookup returns the peripheral rows sharing the join-key value that
// columns (belonging to some other frame, typically the population)
// has at row. A null join-key value yields nil, never a match.
func (idx *Index) Lookup(columns []*schema.Column, row int) []int {
	if idx.degenerate {
		return idx.allRows
	}
	key, isNull := compositeKey(columns, row)
	if isNull {
		return nil
	}
	return idx.byKey[key]
}

// compositeKey hashes the tuple of interned ids columns have at row
// using FNV-1a. isNull is true iff any component is
// schema.NullCategory, in which case the hash is meaningless and must
// not be looked up.
func compositeKey(columns []*schema.Column, row int) (key uint64, isNull bool) {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211

	h := uint64(offset64)
	for _, c := range columns {
		id := c.Categorical[row]
		if id == schema.NullCategory {
			return 0, true
		}
		h ^= uint64(uint32(id))
		h *= prime64
	}
	return h, false
}
