// Package persistence serializes a fitted engine -- its hyperparameters,
// join structure, table schemas, and selected features -- into a single
// tagged record that can be written to Postgres as JSONB or to a local
// file, then loaded back to drive Transform/emit-sql without re-running
// Fit. Grounded on the teacher's computed_features JSONB column
// (data-service/internal/repository/feature_repo.go) and its Persister
// interface (go-strats/pkg/persistence/persister.go).
package persistence

import (
	"time"

	"github.com/algomatic/relprop/pkg/config"
	"github.com/algomatic/relprop/pkg/enumerate"
	"github.com/algomatic/relprop/pkg/schema"
)

// ColumnSchema is the persisted shape of one schema.Column: enough to
// reconstruct role/unit metadata for a table without the column's data.
type ColumnSchema struct {
	Name string      `json:"name"`
	Kind schema.Kind `json:"kind"`
	Role schema.Role `json:"role"`
	Unit string      `json:"unit,omitempty"`
}

// TableSchema is the persisted column list for one DataFrame, named by
// its table name.
type TableSchema struct {
	Table   string         `json:"table"`
	Columns []ColumnSchema `json:"columns"`
}

// JoinKeyPair mirrors schema.JoinKeyPair for serialization.
type JoinKeyPair struct {
	Population string `json:"population,omitempty"`
	Peripheral string `json:"peripheral,omitempty"`
}

// EdgeRecord is the persisted shape of one schema.Edge, with its child
// placeholder flattened recursively into PlaceholderRecord.
type EdgeRecord struct {
	Child               *PlaceholderRecord `json:"child"`
	JoinKeys            []JoinKeyPair      `json:"join_keys"`
	TimeStampPopulation string             `json:"time_stamp_population,omitempty"`
	TimeStampPeripheral string             `json:"time_stamp_peripheral,omitempty"`
	AllowLaggedTargets  bool               `json:"allow_lagged_targets,omitempty"`
	UpperTimeStamp      string             `json:"upper_time_stamp,omitempty"`
}

// PlaceholderRecord is the persisted shape of a schema.Placeholder tree.
type PlaceholderRecord struct {
	Table    string       `json:"table"`
	Children []EdgeRecord `json:"children,omitempty"`
}

// FromPlaceholder flattens a live Placeholder tree into its persisted
// form.
func FromPlaceholder(p *schema.Placeholder) *PlaceholderRecord {
	if p == nil {
		return nil
	}
	rec := &PlaceholderRecord{Table: p.Table}
	for _, e := range p.Children {
		er := EdgeRecord{
			Child:               FromPlaceholder(e.Child),
			TimeStampPopulation: e.TimeStampPopulation,
			TimeStampPeripheral: e.TimeStampPeripheral,
			AllowLaggedTargets:  e.AllowLaggedTargets,
			UpperTimeStamp:      e.UpperTimeStamp,
		}
		for _, jk := range e.JoinKeys {
			er.JoinKeys = append(er.JoinKeys, JoinKeyPair{Population: jk.Population, Peripheral: jk.Peripheral})
		}
		rec.Children = append(rec.Children, er)
	}
	return rec
}

// ToPlaceholder rebuilds a live Placeholder tree from its persisted
// form.
func (p *PlaceholderRecord) ToPlaceholder() *schema.Placeholder {
	if p == nil {
		return nil
	}
	out := schema.NewPlaceholder(p.Table)
	for _, er := range p.Children {
		edge := schema.Edge{
			Child:               er.Child.ToPlaceholder(),
			TimeStampPopulation: er.TimeStampPopulation,
			TimeStampPeripheral: er.TimeStampPeripheral,
			AllowLaggedTargets:  er.AllowLaggedTargets,
			UpperTimeStamp:      er.UpperTimeStamp,
		}
		for _, jk := range er.JoinKeys {
			edge.JoinKeys = append(edge.JoinKeys, schema.JoinKeyPair{Population: jk.Population, Peripheral: jk.Peripheral})
		}
		out.Children = append(out.Children, edge)
	}
	return out
}

// TableSchemaOf captures a DataFrame's column metadata (not its data).
func TableSchemaOf(df *schema.DataFrame) TableSchema {
	ts := TableSchema{Table: df.Name}
	for _, c := range df.Columns() {
		ts.Columns = append(ts.Columns, ColumnSchema{Name: c.Name, Kind: c.Kind, Role: c.Role, Unit: c.Unit})
	}
	return ts
}

// Record is one fitted engine's persisted state: everything Transform
// and emit-sql need without re-running Fit. Subengines holds one nested
// Record per child placeholder table that itself went through
// SubfeatureComposer, keyed by table name, so a multi-level join tree
// persists as a single document.
type Record struct {
	FitID      string                 `json:"fit_id"`
	FittedAt   time.Time              `json:"fitted_at"`
	Hyperparameters config.Hyperparameters `json:"hyperparameters"`
	Placeholder *PlaceholderRecord    `json:"placeholder"`
	Tables      []TableSchema         `json:"tables"`
	Selected    []enumerate.AbstractFeature `json:"selected_features"`
	Importance  map[string]float64    `json:"column_importance,omitempty"`
	Subengines  map[string]*Record    `json:"subengines,omitempty"`
}
