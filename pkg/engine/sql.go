package engine

import (
	"fmt"

	"github.com/algomatic/relprop/pkg/schema"
	"github.com/algomatic/relprop/pkg/sqlgen"
)

// EmitSQL renders every selected feature across every directly joined
// edge as SQL text via dialect, keyed by the feature's stable
// Description (spec.md §6's SQL emitter contract).
func (e *Engine) EmitSQL(dialect sqlgen.DialectGenerator) (map[string]string, error) {
	if !e.fitted {
		return nil, fmt.Errorf("%w: engine for %q", schema.ErrNotFitted, e.root.Table)
	}
	out := make(map[string]string, 0)
	for table, cm := range e.children {
		for _, f := range cm.selected {
			sqlText, err := dialect.Render(f, table)
			if err != nil {
				return nil, fmt.Errorf("rendering %s: %w", f.Description(), err)
			}
			out[f.Description()] = sqlText
		}
	}
	return out, nil
}
