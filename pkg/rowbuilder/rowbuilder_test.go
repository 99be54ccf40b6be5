package rowbuilder

import (
	"testing"

	"github.com/algomatic/relprop/pkg/aggregate"
	"github.com/algomatic/relprop/pkg/condition"
	"github.com/algomatic/relprop/pkg/enumerate"
	"github.com/algomatic/relprop/pkg/match"
	"github.com/algomatic/relprop/pkg/schema"
)

type captureOutput struct {
	rows map[int][]float64
}

func (c *captureOutput) WriteRows(start int, rows [][]float64) {
	for i, r := range rows {
		cp := append([]float64(nil), r...)
		c.rows[start+i] = cp
	}
}

func buildRowBuilderFixture(t *testing.T) (*schema.DataFrame, *schema.DataFrame, *match.Matchmaker) {
	t.Helper()
	enc := schema.NewEncoding()

	population := schema.New("customers")
	if err := population.AddColumn(schema.NewCategorical("customer_id", []int32{enc.Intern("1"), enc.Intern("2")}, schema.RoleJoinKey)); err != nil {
		t.Fatal(err)
	}

	peripheral := schema.New("orders")
	if err := peripheral.AddColumn(schema.NewCategorical("customer_id", []int32{enc.Intern("1"), enc.Intern("1"), enc.Intern("2")}, schema.RoleJoinKey)); err != nil {
		t.Fatal(err)
	}
	if err := peripheral.AddColumn(schema.NewNumerical("amount", []float64{10, 20, 30})); err != nil {
		t.Fatal(err)
	}

	edge := schema.Edge{
		Child:    schema.NewPlaceholder("orders"),
		JoinKeys: []schema.JoinKeyPair{{Population: "customer_id", Peripheral: "customer_id"}},
	}
	mm, err := match.New(population, peripheral, edge)
	if err != nil {
		t.Fatal(err)
	}
	return population, peripheral, mm
}

func TestRowBuilderCountAndAvg(t *testing.T) {
	population, peripheral, mm := buildRowBuilderFixture(t)

	features := []enumerate.AbstractFeature{
		{PopulationTable: "customers", PeripheralTable: "orders", Aggregation: aggregate.COUNT, Conditions: []condition.Condition{condition.None()}},
		{PopulationTable: "customers", PeripheralTable: "orders", Aggregation: aggregate.AVG, AggregatedColumn: "amount", Conditions: []condition.Condition{condition.None()}},
	}

	out := &captureOutput{rows: make(map[int][]float64)}
	rb, err := New(population, map[string]*schema.DataFrame{"orders": peripheral}, map[string]*match.Matchmaker{"orders": mm}, features, 5000, out)
	if err != nil {
		t.Fatal(err)
	}
	if err := rb.BuildRows(0, population.NRows()); err != nil {
		t.Fatal(err)
	}

	row0 := out.rows[0]
	if row0[0] != 2 {
		t.Fatalf("expected COUNT 2 for customer 1, got %v", row0[0])
	}
	if row0[1] != 15 {
		t.Fatalf("expected AVG 15 for customer 1, got %v", row0[1])
	}

	row1 := out.rows[1]
	if row1[0] != 1 {
		t.Fatalf("expected COUNT 1 for customer 2, got %v", row1[0])
	}
	if row1[1] != 30 {
		t.Fatalf("expected AVG 30 for customer 2, got %v", row1[1])
	}
}

func TestRowBuilderNoMatchesProjectsNull(t *testing.T) {
	enc := schema.NewEncoding()
	population := schema.New("customers")
	if err := population.AddColumn(schema.NewCategorical("customer_id", []int32{enc.Intern("9")}, schema.RoleJoinKey)); err != nil {
		t.Fatal(err)
	}
	peripheral := schema.New("orders")
	if err := peripheral.AddColumn(schema.NewCategorical("customer_id", []int32{enc.Intern("1")}, schema.RoleJoinKey)); err != nil {
		t.Fatal(err)
	}
	if err := peripheral.AddColumn(schema.NewNumerical("amount", []float64{10})); err != nil {
		t.Fatal(err)
	}

	edge := schema.Edge{
		Child:    schema.NewPlaceholder("orders"),
		JoinKeys: []schema.JoinKeyPair{{Population: "customer_id", Peripheral: "customer_id"}},
	}
	mm, err := match.New(population, peripheral, edge)
	if err != nil {
		t.Fatal(err)
	}

	features := []enumerate.AbstractFeature{
		{PopulationTable: "customers", PeripheralTable: "orders", Aggregation: aggregate.AVG, AggregatedColumn: "amount", Conditions: []condition.Condition{condition.None()}},
	}
	out := &captureOutput{rows: make(map[int][]float64)}
	rb, err := New(population, map[string]*schema.DataFrame{"orders": peripheral}, map[string]*match.Matchmaker{"orders": mm}, features, 5000, out)
	if err != nil {
		t.Fatal(err)
	}
	if err := rb.BuildRows(0, population.NRows()); err != nil {
		t.Fatal(err)
	}
	if got := out.rows[0][0]; got != 0 {
		t.Fatalf("expected null AVG projected to 0, got %v", got)
	}
}
