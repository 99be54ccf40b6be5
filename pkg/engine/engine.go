// Package engine implements the top-level Fit/Transform orchestration:
// wiring schema/match/condition/aggregate/enumerate/selection/
// rowbuilder/driver/sqlgen/subfeature/persistence into the control flow
// spec.md §2 describes, the way go-strats/pkg/engine.ProbeEngine wires
// exits/types/dsl into one bar-by-bar run loop.
package engine

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/algomatic/relprop/pkg/config"
	"github.com/algomatic/relprop/pkg/driver"
	"github.com/algomatic/relprop/pkg/enumerate"
	"github.com/algomatic/relprop/pkg/match"
	"github.com/algomatic/relprop/pkg/rowbuilder"
	"github.com/algomatic/relprop/pkg/schema"
	"github.com/algomatic/relprop/pkg/selection"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// childModel holds everything learned about one join edge during Fit:
// the built matchmaker, the selected features, their column-importance
// shares, and (when the child itself has grandchildren) the subfeature
// engine that computed its extra aggregatable columns.
type childModel struct {
	edge       schema.Edge
	selected   []enumerate.AbstractFeature
	importance map[string]float64
	sub        *Engine
}

// Engine fits and transforms one placeholder (join-tree) scope: a
// population table plus its directly joined peripheral tables. A
// placeholder with grandchildren is handled by recursively
// constructing a child Engine per grandchild scope via subfeature.Compose
// (see child.go), never by this Engine reaching past its own edges.
type Engine struct {
	hp     *config.Hyperparameters
	enc    *schema.Encoding
	root   *schema.Placeholder
	logger *zap.Logger

	fitID   string
	fitted  bool
	children map[string]*childModel // keyed by edge.Child.Table
}

// New constructs an Engine for root, bound to hp and enc. A nil logger
// falls back to a no-op logger, the way go-strats's
// NewProbeEngine falls back to slog.Default() when none is supplied.
func New(hp *config.Hyperparameters, root *schema.Placeholder, enc *schema.Encoding, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{hp: hp, enc: enc, root: root, logger: logger, children: make(map[string]*childModel)}
}

// Fit enumerates, scores, and selects features for every edge of the
// Engine's root placeholder against population/peripherals, per
// spec.md §2's Fit control flow. targetColumns names the population
// columns RSquaredSelector scores candidates against (spec.md §4.5);
// at least one is required.
func (e *Engine) Fit(population *schema.DataFrame, peripherals map[string]*schema.DataFrame, targetColumns []string) error {
	if len(e.root.Children) == 0 {
		return fmt.Errorf("%w: placeholder %q has no join edges to fit", schema.ErrConfiguration, e.root.Table)
	}
	if len(targetColumns) == 0 {
		return fmt.Errorf("%w: at least one target column is required to fit", schema.ErrConfiguration)
	}

	targetCols := make([]*schema.Column, len(targetColumns))
	for i, name := range targetColumns {
		c, err := population.MustColumn(name)
		if err != nil {
			return err
		}
		targetCols[i] = c
	}

	sampleRows := selection.SampleRows(population.NRows(), e.hp.SamplingFactor)
	targets := sampleMatrix(targetCols, sampleRows)

	e.fitID = uuid.NewString()
	e.logger.Info("fitting engine", zap.String("table", e.root.Table), zap.String("fit_id", e.fitID), zap.Int("edges", len(e.root.Children)))

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
				if err := peripheral.AddColumn(col); err != nil {
					return fmt.Errorf("adding subfeature column to %q: %w", edge.Child.Table, err)
				}
			}
			cm.sub = sub
		}

		mm, err := match.New(population, peripheral, edge)
		if err != nil {
			return err
		}

		enumerator, err := enumerate.New(e.hp, e.enc)
		if err != nil {
			return err
		}
		candidates, err := enumerator.Enumerate(population, peripheral, edge)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			e.children[edge.Child.Table] = cm
			continue
		}

		candidateMatrix, err := evaluateCandidates(population, peripheral, mm, candidates, sampleRows)
		if err != nil {
			return err
		}

		selectedIdx := selection.Select(candidateMatrix, targets, e.hp.NumFeatures)
		selected := make([]enumerate.AbstractFeature, len(selectedIdx))
		selectedCols := selection.Matrix{Columns: make([][]float64, len(selectedIdx))}
		for i, idx := range selectedIdx {
			selected[i] = candidates[idx]
			selectedCols.Columns[i] = candidateMatrix.Columns[idx]
		}
		cm.selected = selected
		cm.importance = columnImportance(selected, selection.ScoreAll(selectedCols, targets))

		e.logger.Info("selected features", zap.String("table", edge.Child.Table), zap.Int("candidates", len(candidates)), zap.Int("selected", len(selected)))
		e.children[edge.Child.Table] = cm
	}

	e.fitted = true
	return nil
}

// evaluateCandidates builds the sampled candidate feature matrix one
// candidate AbstractFeature at a time: a one-feature RowBuilder
// evaluated only at sampleRows (arbitrary, possibly non-contiguous row
// indices -- RowBuilder's own BuildRows assumes a contiguous range, so
// here it is invoked once per row and the results stitched together).
func evaluateCandidates(population, peripheral *schema.DataFrame, mm *match.Matchmaker, candidates []enumerate.AbstractFeature, sampleRows []int) (selection.Matrix, error) {
	peripherals := map[string]*schema.DataFrame{peripheral.Name: peripheral}
	matchmakers := map[string]*match.Matchmaker{peripheral.Name: mm}

	out := selection.Matrix{Columns: make([][]float64, len(candidates))}
	for i := range out.Columns {
		out.Columns[i] = make([]float64, len(sampleRows))
	}

	for i, f := range candidates {
		capture := &matrixColumn{}
		rb, err := rowbuilder.New(population, peripherals, matchmakers, []enumerate.AbstractFeature{f}, len(sampleRows)+1, capture)
		if err != nil {
			return selection.Matrix{}, err
		}
		for _, r := range sampleRows {
			if err := rb.BuildRows(r, r+1); err != nil {
				return selection.Matrix{}, err
			}
		}
		for j, row := range capture.rows {
			out.Columns[i][j] = row[0]
		}
	}
	return out, nil
}

type matrixColumn struct {
	rows [][]float64
}

func (m *matrixColumn) WriteRows(_ int, rows [][]float64) {
	m.rows = append(m.rows, rows...)
}

func sampleMatrix(cols []*schema.Column, rows []int) selection.Matrix {
	out := selection.Matrix{Columns: make([][]float64, len(cols))}
	for i, c := range cols {
		col := make([]float64, len(rows))
		for j, r := range rows {
			col[j] = numericValue(c, r)
		}
		out.Columns[i] = col
	}
	return out
}

func numericValue(c *schema.Column, row int) float64 {
	if c.Kind == schema.KindNumerical || c.Kind == schema.KindTimeStamp {
		return c.Numerical[row]
	}
	return float64(c.Categorical[row])
}

// Fitted reports whether Fit has completed successfully.
func (e *Engine) Fitted() bool { return e.fitted }

// Transform materializes the selected feature matrix for population
// over its directly joined peripherals, sharded across goroutines via
// pkg/driver. cancel, if non-nil, allows cooperative cancellation: it
// is checked once per shard before that shard starts (a shard already
// running builds all of its rows), and when it is set Transform returns
// an error wrapping schema.ErrCancelled together with the feature names
// and the rows written so far (rows never built are nil).
// progress, if non-nil, receives shard-0 row-completion updates.
func (e *Engine) Transform(population *schema.DataFrame, peripherals map[string]*schema.DataFrame, cancel *atomic.Bool, progress driver.Progress) ([]string, [][]float64, error) {
	if !e.fitted {
		return nil, nil, fmt.Errorf("%w: engine for %q", schema.ErrNotFitted, e.root.Table)
	}

	var names []string
	var allFeatures []enumerate.AbstractFeature
	matchmakers := make(map[string]*match.Matchmaker)
	resolvedPeripherals := make(map[string]*schema.DataFrame)

	for table, cm := range e.children {
		peripheral, ok := peripherals[table]
		if !ok {
			return nil, nil, fmt.Errorf("%w: no peripheral frame supplied for %q", schema.ErrConfiguration, table)
		}
		if cm.sub != nil {
			cols, err := composeSubfeatures(cm.sub, population, peripheral, peripherals, cm.edge)
			if err != nil {
				return nil, nil, fmt.Errorf("subfeatures for %q: %w", table, err)
			}
			for _, col := range cols {
				if _, exists := peripheral.Column(col.Name); exists {
					continue
				}
				if err := peripheral.AddColumn(col); err != nil {
					return nil, nil, fmt.Errorf("adding subfeature column to %q: %w", table, err)
				}
			}
		}
		mm, err := match.New(population, peripheral, cm.edge)
		if err != nil {
			return nil, nil, err
		}
		matchmakers[table] = mm
		resolvedPeripherals[table] = peripheral
		for _, f := range cm.selected {
			names = append(names, f.Description())
		}
		allFeatures = append(allFeatures, cm.selected...)
	}

	nRows := population.NRows()
	matrix := make([][]float64, nRows)

	err := driver.Run(nRows, e.hp.EffectiveNumThreads(runtime.NumCPU()), cancel, progress, func(shard, start, end int, shardProgress driver.Progress) error {
		out := &shardOutput{matrix: matrix, start: start, progress: shardProgress, total: end - start}
		rb, err := rowbuilder.New(population, resolvedPeripherals, matchmakers, allFeatures, rowbuilder.LogIter, out)
		if err != nil {
			return err
		}
		return rb.BuildRows(start, end)
	})
	if err != nil {
		return nil, nil, err
	}
	if cancel != nil && cancel.Load() {
		return names, matrix, fmt.Errorf("%w: transform of %q", schema.ErrCancelled, e.root.Table)
	}
	return names, matrix, nil
}

type shardOutput struct {
	matrix   [][]float64
	start    int
	done     int
	total    int
	progress driver.Progress
}

func (o *shardOutput) WriteRows(startRow int, rows [][]float64) {
	for i, row := range rows {
		o.matrix[o.start+startRow+i] = row
	}
	o.done += len(rows)
	if o.progress != nil {
		o.progress(o.done, o.total)
	}
}

// ColumnImportance returns the normalized per-column importance map
// accumulated across every directly selected feature (spec.md §6),
// keyed "table.column". Subfeature engines' own importances are not
// merged in -- they score their own synthetic columns, which already
// appear here under the peripheral table's namespace once selected as
// an aggregated column of this Engine.
func (e *Engine) ColumnImportance() map[string]float64 {
	out := make(map[string]float64)
	for _, cm := range e.children {
		for col, v := range cm.importance {
			out[col] += v
		}
	}
	return out
}
