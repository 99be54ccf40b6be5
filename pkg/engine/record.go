package engine

import (
	"time"

	"github.com/algomatic/relprop/pkg/config"
	"github.com/algomatic/relprop/pkg/persistence"
	"github.com/algomatic/relprop/pkg/schema"
	"go.uber.org/zap"
)

// ToRecord flattens a fitted Engine's state into a persistence.Record.
// peripherals is the same flat, whole-tree table map passed to Fit
// (every table in the placeholder tree, keyed by name), since a
// subfeature engine's own children reference grandchildren by the same
// map.
func (e *Engine) ToRecord(population *schema.DataFrame, peripherals map[string]*schema.DataFrame) *persistence.Record {
	rec := &persistence.Record{
		FitID:           e.fitID,
		FittedAt:        time.Now(),
		Hyperparameters: *e.hp,
		Placeholder:     persistence.FromPlaceholder(e.root),
		Importance:      e.ColumnImportance(),
		Tables:          []persistence.TableSchema{persistence.TableSchemaOf(population)},
	}

	for table, cm := range e.children {
		peripheral, ok := peripherals[table]
		if !ok {
			continue
		}
		rec.Tables = append(rec.Tables, persistence.TableSchemaOf(peripheral))
		rec.Selected = append(rec.Selected, cm.selected...)

		if cm.sub != nil && cm.sub.fitted {
			if rec.Subengines == nil {
				rec.Subengines = make(map[string]*persistence.Record)
			}
			rec.Subengines[table] = cm.sub.ToRecord(peripheral, peripherals)
		}
	}
	return rec
}

// FromRecord rebuilds a fitted Engine's selection state (not its
// source DataFrames) from a persisted Record, so Transform/EmitSQL can
// run without re-Fitting. hp/enc/logger are supplied fresh by the
// caller; rec's own Hyperparameters snapshot is informational only
// (the caller's hp governs EffectiveNumThreads and any other runtime
// knob at Transform time).
func FromRecord(rec *persistence.Record, hp *config.Hyperparameters, enc *schema.Encoding, logger *zap.Logger) *Engine {
	root := rec.Placeholder.ToPlaceholder()
	e := New(hp, root, enc, logger)
	e.fitID = rec.FitID
	e.fitted = true

	selectedByTable := make(map[string][]int)
	for i, f := range rec.Selected {
		selectedByTable[f.PeripheralTable] = append(selectedByTable[f.PeripheralTable], i)
	}

	for _, edge := range root.Children {
		table := edge.Child.Table
		cm := &childModel{edge: edge, importance: make(map[string]float64)}
		for _, idx := range selectedByTable[table] {
			cm.selected = append(cm.selected, rec.Selected[idx])
		}
		if sub, ok := rec.Subengines[table]; ok {
			cm.sub = FromRecord(sub, hp, enc, logger)
		}
		e.children[table] = cm
	}
	return e
}
