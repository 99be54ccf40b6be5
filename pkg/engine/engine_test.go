package engine

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/algomatic/relprop/pkg/config"
	"github.com/algomatic/relprop/pkg/schema"
)

// buildCustomersOrders mirrors the customers/orders fixture used across
// pkg/enumerate and pkg/rowbuilder's tests: a three-customer population
// joined to a five-row orders peripheral on customer_id.
func buildCustomersOrders(t *testing.T) (*schema.DataFrame, map[string]*schema.DataFrame, *schema.Placeholder, *schema.Encoding) {
	t.Helper()
	enc := schema.NewEncoding()

	population := schema.New("customers")
	popID := schema.NewCategorical("customer_id", []int32{enc.Intern("1"), enc.Intern("2"), enc.Intern("3")}, schema.RoleJoinKey)
	target := schema.NewNumerical("churned", []float64{0, 1, 0})
	if err := population.AddColumn(popID); err != nil {
		t.Fatal(err)
	}
	if err := population.AddColumn(target); err != nil {
		t.Fatal(err)
	}

	orders := schema.New("orders")
	ordersID := schema.NewCategorical("customer_id", []int32{
		enc.Intern("1"), enc.Intern("1"), enc.Intern("2"), enc.Intern("2"), enc.Intern("3"),
	}, schema.RoleJoinKey)
	amount := schema.NewNumerical("amount", []float64{10, 20, 50, 60, 5})
	if err := orders.AddColumn(ordersID); err != nil {
		t.Fatal(err)
	}
	if err := orders.AddColumn(amount); err != nil {
		t.Fatal(err)
	}

	root := schema.NewPlaceholder("customers").Join(schema.Edge{
		Child:    schema.NewPlaceholder("orders"),
		JoinKeys: []schema.JoinKeyPair{{Population: "customer_id", Peripheral: "customer_id"}},
	})

	peripherals := map[string]*schema.DataFrame{"orders": orders}
	return population, peripherals, root, enc
}

func mustHP(t *testing.T) *config.Hyperparameters {
	t.Helper()
	hp, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	hp.Aggregations = []string{"COUNT", "AVG", "SUM"}
	hp.NumFeatures = 5
	return hp
}

func TestEngineFitTransformRoundTrip(t *testing.T) {
	population, peripherals, root, enc := buildCustomersOrders(t)
	hp := mustHP(t)

	e := New(hp, root, enc, nil)
	if err := e.Fit(population, peripherals, []string{"churned"}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if !e.Fitted() {
		t.Fatal("expected engine to report fitted after Fit")
	}

	names, matrix, err := e.Transform(population, peripherals, nil, nil)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("expected at least one selected feature")
	}
	if len(matrix) != population.NRows() {
		t.Fatalf("expected %d rows, got %d", population.NRows(), len(matrix))
	}
	for _, row := range matrix {
		if len(row) != len(names) {
			t.Fatalf("expected %d columns per row, got %d", len(names), len(row))
		}
	}

	importance := e.ColumnImportance()
	if len(importance) == 0 {
		t.Error("expected non-empty column importance map")
	}
	var total float64
	for _, v := range importance {
		total += v
	}
	if total < 0.99 || total > 1.01 {
		t.Errorf("expected importance shares to sum to ~1.0, got %f", total)
	}
}

func TestEngineTransformBeforeFitFails(t *testing.T) {
	population, peripherals, root, enc := buildCustomersOrders(t)
	e := New(mustHP(t), root, enc, nil)
	if _, _, err := e.Transform(population, peripherals, nil, nil); err == nil {
		t.Fatal("expected Transform before Fit to fail")
	}
}

func TestEngineFitRejectsMissingTarget(t *testing.T) {
	population, peripherals, root, enc := buildCustomersOrders(t)
	e := New(mustHP(t), root, enc, nil)
	if err := e.Fit(population, peripherals, nil); err == nil {
		t.Fatal("expected Fit with no target columns to fail")
	}
}

func TestEngineFitTransformRespectsCancel(t *testing.T) {
	population, peripherals, root, enc := buildCustomersOrders(t)
	hp := mustHP(t)
	e := New(hp, root, enc, nil)
	if err := e.Fit(population, peripherals, []string{"churned"}); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	var cancel atomic.Bool
	cancel.Store(true)
	names, matrix, err := e.Transform(population, peripherals, &cancel, nil)
	if !errors.Is(err, schema.ErrCancelled) {
		t.Fatalf("expected Transform to return ErrCancelled, got %v", err)
	}
	if len(names) == 0 {
		t.Fatal("expected selected feature names regardless of cancel state")
	}
	for _, row := range matrix {
		for _, v := range row {
			if v != 0 {
				t.Fatalf("expected no rows to be written once cancel is pre-set, got %v", row)
			}
		}
	}
}

func TestEngineRecordRoundTrip(t *testing.T) {
	population, peripherals, root, enc := buildCustomersOrders(t)
	hp := mustHP(t)

	e := New(hp, root, enc, nil)
	if err := e.Fit(population, peripherals, []string{"churned"}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	wantNames, wantMatrix, err := e.Transform(population, peripherals, nil, nil)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	rec := e.ToRecord(population, peripherals)
	if rec.FitID == "" {
		t.Error("expected a non-empty FitID in the record")
	}
	if len(rec.Selected) != len(wantNames) {
		t.Fatalf("expected %d selected features in record, got %d", len(wantNames), len(rec.Selected))
	}

	restored := FromRecord(rec, hp, enc, nil)
	if !restored.Fitted() {
		t.Fatal("expected restored engine to report fitted")
	}

	gotNames, gotMatrix, err := restored.Transform(population, peripherals, nil, nil)
	if err != nil {
		t.Fatalf("Transform after FromRecord: %v", err)
	}
	if len(gotNames) != len(wantNames) {
		t.Fatalf("expected %d feature names after restore, got %d", len(wantNames), len(gotNames))
	}
	for i := range wantMatrix {
		for j := range wantMatrix[i] {
			if gotMatrix[i][j] != wantMatrix[i][j] {
				t.Errorf("row %d col %d: expected %f, got %f", i, j, wantMatrix[i][j], gotMatrix[i][j])
			}
		}
	}
}
