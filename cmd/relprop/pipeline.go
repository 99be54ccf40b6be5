package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/algomatic/relprop/pkg/schema"
	"gopkg.in/yaml.v2"
)

// columnSpec describes one CSV column's name and the schema Role it
// should be ingested as, plus an optional same-unit Unit string
// (spec.md §4.3's same-unit condition mechanism).
type columnSpec struct {
	Name string `yaml:"name"`
	Role string `yaml:"role"`
	Unit string `yaml:"unit"`
}

// joinSpec mirrors schema.Edge, naming the population/peripheral join
// columns and optional temporal-window fields by name instead of by
// pre-resolved *Column, since the pipeline file is parsed before any
// CSV is loaded.
type joinSpec struct {
	PopulationKey       string `yaml:"population_key"`
	PeripheralKey       string `yaml:"peripheral_key"`
	TimeStampPopulation string `yaml:"time_stamp_population"`
	TimeStampPeripheral string `yaml:"time_stamp_peripheral"`
	UpperTimeStamp      string `yaml:"upper_time_stamp"`
	AllowLaggedTargets  bool   `yaml:"allow_lagged_targets"`
}

// tableSpec describes one table's CSV source, its column roles, and
// (for a peripheral) how it joins to its parent plus any of its own
// children -- tableSpec nests arbitrarily deep so a pipeline file can
// describe a multi-level join tree in one document.
type tableSpec struct {
	Name     string       `yaml:"name"`
	CSV      string       `yaml:"csv"`
	Columns  []columnSpec `yaml:"columns"`
	Join     joinSpec     `yaml:"join"`
	Children []tableSpec  `yaml:"children"`
}

// pipelineSpec is the top-level pipeline definition file: one
// population table, its directly and transitively joined peripherals,
// and the population column(s) Fit scores candidates against.
type pipelineSpec struct {
	Population tableSpec `yaml:"population"`
	Peripheral []tableSpec `yaml:"peripherals"`
	Targets    []string  `yaml:"targets"`
}

func loadPipeline(path string) (*pipelineSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline file %s: %w", path, err)
	}
	var spec pipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing pipeline file %s: %w", path, err)
	}
	if spec.Population.Name == "" {
		return nil, fmt.Errorf("pipeline file %s: population.name is required", path)
	}
	return &spec, nil
}

// buildTree loads every table named in spec and returns the population
// frame, the root placeholder describing the join tree, and a flat
// whole-tree peripherals map keyed by table name -- the same flat-map
// convention pkg/engine's Fit/Transform/ToRecord use throughout.
func buildTree(spec *pipelineSpec, enc *schema.Encoding) (*schema.DataFrame, *schema.Placeholder, map[string]*schema.DataFrame, error) {
	population, err := loadTable(spec.Population, enc)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading population %q: %w", spec.Population.Name, err)
	}

	root := schema.NewPlaceholder(spec.Population.Name)
	peripherals := make(map[string]*schema.DataFrame)
	for _, child := range spec.Peripheral {
		edge, err := buildEdge(child, enc, peripherals)
		if err != nil {
			return nil, nil, nil, err
		}
		root.Join(edge)
	}
	return population, root, peripherals, nil
}

// buildEdge recursively loads spec and its own children, registering
// every loaded frame into peripherals, and returns the schema.Edge
// describing how spec joins to its parent.
func buildEdge(spec tableSpec, enc *schema.Encoding, peripherals map[string]*schema.DataFrame) (schema.Edge, error) {
	df, err := loadTable(spec, enc)
	if err != nil {
		return schema.Edge{}, fmt.Errorf("loading %q: %w", spec.Name, err)
	}
	peripherals[spec.Name] = df

	placeholder := schema.NewPlaceholder(spec.Name)
	for _, grandchild := range spec.Children {
		childEdge, err := buildEdge(grandchild, enc, peripherals)
		if err != nil {
			return schema.Edge{}, err
		}
		placeholder.Join(childEdge)
	}

	return schema.Edge{
		Child: placeholder,
		JoinKeys: []schema.JoinKeyPair{
			{Population: spec.Join.PopulationKey, Peripheral: spec.Join.PeripheralKey},
		},
		TimeStampPopulation: spec.Join.TimeStampPopulation,
		TimeStampPeripheral: spec.Join.TimeStampPeripheral,
		UpperTimeStamp:      spec.Join.UpperTimeStamp,
		AllowLaggedTargets:  spec.Join.AllowLaggedTargets,
	}, nil
}

// loadTable reads spec.CSV and builds a *schema.DataFrame, one Column
// per spec.Columns entry, following the header-name-to-index lookup
// loadCSV uses, extended with role-driven type conversion instead of
// loadCSV's fixed OHLCV layout.
func loadTable(spec tableSpec, enc *schema.Encoding) (*schema.DataFrame, error) {
	rows, headers, err := readCSV(spec.CSV)
	if err != nil {
		return nil, err
	}
	colIdx := make(map[string]int, len(headers))
	for i, h := range headers {
		colIdx[strings.TrimSpace(h)] = i
	}

	df := schema.New(spec.Name)
	for _, cs := range spec.Columns {
		idx, ok := colIdx[cs.Name]
		if !ok {
			return nil, fmt.Errorf("table %q: CSV %s has no column %q", spec.Name, spec.CSV, cs.Name)
		}
		col, err := buildColumn(cs, rows, idx, enc)
		if err != nil {
			return nil, fmt.Errorf("table %q column %q: %w", spec.Name, cs.Name, err)
		}
		if err := df.AddColumn(col); err != nil {
			return nil, err
		}
	}
	return df, nil
}

func buildColumn(cs columnSpec, rows [][]string, idx int, enc *schema.Encoding) (*schema.Column, error) {
	role := parseRole(cs.Role)

	switch role {
	case schema.RoleJoinKey, schema.RoleCategorical:
		ids := make([]int32, len(rows))
		for i, row := range rows {
			ids[i] = enc.Intern(row[idx])
		}
		col := schema.NewCategorical(cs.Name, ids, role)
		col.Unit = cs.Unit
		return col, nil

	case schema.RoleTimeStamp:
		values := make([]float64, len(rows))
		for i, row := range rows {
			v, err := parseTimeValue(row[idx])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			values[i] = v
		}
		col := schema.NewTimeStamp(cs.Name, values)
		col.Unit = cs.Unit
		return col, nil

	case schema.RoleText:
		values := make([]string, len(rows))
		for i, row := range rows {
			values[i] = row[idx]
		}
		return schema.NewText(cs.Name, values), nil

	default: // RoleNumerical, RoleTarget, RoleUnused
		values := make([]float64, len(rows))
		for i, row := range rows {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
			if err != nil {
				values[i] = math.NaN()
				continue
			}
			values[i] = v
		}
		col := schema.NewNumerical(cs.Name, values)
		col.Role = role
		col.Unit = cs.Unit
		return col, nil
	}
}

func parseRole(name string) schema.Role {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "join_key":
		return schema.RoleJoinKey
	case "time_stamp":
		return schema.RoleTimeStamp
	case "categorical":
		return schema.RoleCategorical
	case "text":
		return schema.RoleText
	case "target":
		return schema.RoleTarget
	case "numerical", "":
		return schema.RoleNumerical
	default:
		return schema.RoleNumerical
	}
}

// parseTimeValue accepts either a bare Unix-seconds float or an
// RFC3339-ish timestamp string, mirroring probe's multi-format
// parseTimestamp helper.
func parseTimeValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	formats := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return float64(t.Unix()), nil
		}
	}
	return 0, fmt.Errorf("unrecognized time value %q", s)
}
