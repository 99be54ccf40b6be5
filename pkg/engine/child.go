package engine

import (
	"fmt"

	"github.com/algomatic/relprop/pkg/enumerate"
	"github.com/algomatic/relprop/pkg/match"
	"github.com/algomatic/relprop/pkg/rowbuilder"
	"github.com/algomatic/relprop/pkg/schema"
	"github.com/algomatic/relprop/pkg/subfeature"
)

// composeSubfeatures runs one subfeature.Compose pass for edge: builds
// the matchmaker from population into peripheral, restricts to every
// peripheral row reachable from population (the full population, since
// this runs before selection has restricted which population rows
// matter -- spec.md §4.7), and hands off to sub, a freshly constructed
// child Engine rooted at edge.Child.
func composeSubfeatures(sub *Engine, population, peripheral *schema.DataFrame, allPeripherals map[string]*schema.DataFrame, edge schema.Edge) ([]*schema.Column, error) {
	mm, err := match.New(population, peripheral, edge)
	if err != nil {
		return nil, err
	}

	grandchildren := make(map[string]*schema.DataFrame)
	for _, ce := range edge.Child.Children {
		if gp, ok := allPeripherals[ce.Child.Table]; ok {
			grandchildren[ce.Child.Table] = gp
		}
	}

	rows := subfeature.AllRows(population.NRows())
	return subfeature.Compose(sub, mm, rows, edge.Child, peripheral, grandchildren)
}

// FitTransformChild implements subfeature.ChildFitter: it is the
// dependency-inversion seam letting pkg/subfeature recurse into another
// Engine without pkg/subfeature importing pkg/engine. population here
// is the child placeholder's own table (e.g. "orders" acting as the
// population for its grandchildren); rows restricts the returned
// columns to the rows the parent's composer actually needs.
func (e *Engine) FitTransformChild(_ *schema.Placeholder, population *schema.DataFrame, peripherals map[string]*schema.DataFrame, rows []int) (subfeature.ChildResult, error) {
	if err := e.fitUnsupervised(population, peripherals); err != nil {
		return subfeature.ChildResult{}, err
	}
	return e.transformRows(population, peripherals, rows)
}

// fitUnsupervised fits a subfeature engine without a target column: a
// child placeholder's FitTransformChild contract (spec.md §4.7) carries
// no target of its own, so this takes every enumerated candidate up to
// NumFeatures in deterministic enumeration order rather than scoring
// against a target (see DESIGN.md's Open Question decision on target
// propagation down the placeholder tree).
func (e *Engine) fitUnsupervised(population *schema.DataFrame, peripherals map[string]*schema.DataFrame) error {
	for _, edge := range e.root.Children {
		peripheral, ok := peripherals[edge.Child.Table]
		if !ok {
			return fmt.Errorf("%w: no peripheral frame supplied for %q", schema.ErrConfiguration, edge.Child.Table)
		}

		cm := &childModel{edge: edge, importance: make(map[string]float64)}

		if len(edge.Child.Children) > 0 {
			sub := New(e.hp, edge.Child, e.enc, e.logger)
			cols, err := composeSubfeatures(sub, population, peripheral, peripherals, edge)
			if err != nil {
				return fmt.Errorf("subfeatures for %q: %w", edge.Child.Table, err)
			}
			for _, col := range cols {
				if _, exists := peripheral.Column(col.Name); exists {
					continue
				}
				if err := peripheral.AddColumn(col); err != nil {
					return fmt.Errorf("adding subfeature column to %q: %w", edge.Child.Table, err)
				}
			}
			cm.sub = sub
		}

		enumerator, err := enumerate.New(e.hp, e.enc)
		if err != nil {
			return err
		}
		candidates, err := enumerator.Enumerate(population, peripheral, edge)
		if err != nil {
			return err
		}
		if len(candidates) > e.hp.NumFeatures {
			candidates = candidates[:e.hp.NumFeatures]
		}
		cm.selected = candidates
		e.children[edge.Child.Table] = cm
	}
	e.fitted = true
	return nil
}

// transformRows evaluates every selected feature of every edge, but
// only at the requested (possibly non-contiguous) population rows,
// returning them in rows' order -- the shape subfeature.Compose needs
// to expand back into the parent peripheral's full row count.
func (e *Engine) transformRows(population *schema.DataFrame, peripherals map[string]*schema.DataFrame, rows []int) (subfeature.ChildResult, error) {
	var names []string
	var allFeatures []enumerate.AbstractFeature
	matchmakers := make(map[string]*match.Matchmaker)
	resolved := make(map[string]*schema.DataFrame)

	for table, cm := range e.children {
		peripheral, ok := peripherals[table]
		if !ok {
			return subfeature.ChildResult{}, fmt.Errorf("%w: no peripheral frame supplied for %q", schema.ErrConfiguration, table)
		}
		if cm.sub != nil {
			cols, err := composeSubfeatures(cm.sub, population, peripheral, peripherals, cm.edge)
			if err != nil {
				return subfeature.ChildResult{}, fmt.Errorf("subfeatures for %q: %w", table, err)
			}
			for _, col := range cols {
				if _, exists := peripheral.Column(col.Name); exists {
					continue
				}
				if err := peripheral.AddColumn(col); err != nil {
					return subfeature.ChildResult{}, fmt.Errorf("adding subfeature column to %q: %w", table, err)
				}
			}
		}
		mm, err := match.New(population, peripheral, cm.edge)
		if err != nil {
			return subfeature.ChildResult{}, err
		}
		matchmakers[table] = mm
		resolved[table] = peripheral
		for _, f := range cm.selected {
			names = append(names, f.Description())
		}
		allFeatures = append(allFeatures, cm.selected...)
	}

	values := make([][]float64, len(allFeatures))
	for i := range values {
		values[i] = make([]float64, len(rows))
	}
	if len(allFeatures) == 0 {
		return subfeature.ChildResult{Names: names, Values: values}, nil
	}

	capture := &matrixColumn{}
	rb, err := rowbuilder.New(population, resolved, matchmakers, allFeatures, len(rows)+1, capture)
	if err != nil {
		return subfeature.ChildResult{}, err
	}
	for _, r := range rows {
		if err := rb.BuildRows(r, r+1); err != nil {
			return subfeature.ChildResult{}, err
		}
	}
	for j, row := range capture.rows {
		for i := range allFeatures {
			values[i][j] = row[i]
		}
	}
	return subfeature.ChildResult{Names: names, Values: values}, nil
}
