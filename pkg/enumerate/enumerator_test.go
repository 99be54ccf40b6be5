package enumerate

import (
	"testing"

	"github.com/algomatic/relprop/pkg/condition"
	"github.com/algomatic/relprop/pkg/config"
	"github.com/algomatic/relprop/pkg/schema"
)

func buildFrames(t *testing.T) (*schema.DataFrame, *schema.DataFrame, schema.Edge) {
	t.Helper()
	enc := schema.NewEncoding()

	population := schema.New("customers")
	popID := schema.NewCategorical("customer_id", []int32{enc.Intern("1"), enc.Intern("2")}, schema.RoleJoinKey)
	if err := population.AddColumn(popID); err != nil {
		t.Fatal(err)
	}

	peripheral := schema.New("orders")
	periphID := schema.NewCategorical("customer_id", []int32{enc.Intern("1"), enc.Intern("1"), enc.Intern("2")}, schema.RoleJoinKey)
	amount := schema.NewNumerical("amount", []float64{10, 20, 30})
	category := schema.NewCategorical("category", []int32{enc.Intern("a"), enc.Intern("b"), enc.Intern("a")}, schema.RoleCategorical)
	if err := peripheral.AddColumn(periphID); err != nil {
		t.Fatal(err)
	}
	if err := peripheral.AddColumn(amount); err != nil {
		t.Fatal(err)
	}
	if err := peripheral.AddColumn(category); err != nil {
		t.Fatal(err)
	}

	edge := schema.Edge{
		Child:    schema.NewPlaceholder("orders"),
		JoinKeys: []schema.JoinKeyPair{{Population: "customer_id", Peripheral: "customer_id"}},
	}
	return population, peripheral, edge
}

func TestEnumerateProducesCountAndNumericalFeatures(t *testing.T) {
	population, peripheral, edge := buildFrames(t)
	hp := mustLoadDefault(t)
	hp.Aggregations = []string{"COUNT", "AVG", "SUM"}

	enc := schema.NewEncoding()
	enum, err := New(hp, enc)
	if err != nil {
		t.Fatal(err)
	}
	features, err := enum.Enumerate(population, peripheral, edge)
	if err != nil {
		t.Fatal(err)
	}

	var hasCount, hasAvgAmount bool
	for _, f := range features {
		if f.Aggregation.String() == "COUNT" && f.AggregatedColumn == "" {
			hasCount = true
		}
		if f.Aggregation.String() == "AVG" && f.AggregatedColumn == "amount" {
			hasAvgAmount = true
		}
	}
	if !hasCount {
		t.Error("expected a column-less COUNT feature")
	}
	if !hasAvgAmount {
		t.Error("expected an AVG(amount) feature")
	}
}

func TestEnumerateCategoryLiterals(t *testing.T) {
	population, peripheral, edge := buildFrames(t)
	hp := mustLoadDefault(t)
	hp.Aggregations = []string{"COUNT"}
	hp.NMostFrequent = 2

	enc := schema.NewEncoding()
	enum, err := New(hp, enc)
	if err != nil {
		t.Fatal(err)
	}
	features, err := enum.Enumerate(population, peripheral, edge)
	if err != nil {
		t.Fatal(err)
	}

	categoryConditioned := 0
	for _, f := range features {
		for _, c := range f.Conditions {
			if c.Kind == condition.KindCategoricalEqual {
				categoryConditioned++
			}
		}
	}
	if categoryConditioned == 0 {
		t.Error("expected at least one category-literal condition set")
	}
}

// spec.md §4.1: a peripheral target column must not be read by
// downstream aggregations unless the edge explicitly allows it.
func TestEnumerateExcludesPeripheralTargetWithoutLaggedFlag(t *testing.T) {
	population, peripheral, edge := buildFrames(t)
	churned := schema.NewNumerical("churned", []float64{0, 1, 0})
	churned.Role = schema.RoleTarget
	if err := peripheral.AddColumn(churned); err != nil {
		t.Fatal(err)
	}

	hp := mustLoadDefault(t)
	hp.Aggregations = []string{"COUNT", "AVG", "SUM"}
	enc := schema.NewEncoding()
	enum, err := New(hp, enc)
	if err != nil {
		t.Fatal(err)
	}

	edge.AllowLaggedTargets = false
	features, err := enum.Enumerate(population, peripheral, edge)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range features {
		if f.AggregatedColumn == "churned" {
			t.Fatalf("expected no feature over the peripheral target column, got %+v", f)
		}
	}

	edge.AllowLaggedTargets = true
	features, err = enum.Enumerate(population, peripheral, edge)
	if err != nil {
		t.Fatal(err)
	}
	var sawChurned bool
	for _, f := range features {
		if f.AggregatedColumn == "churned" {
			sawChurned = true
		}
	}
	if !sawChurned {
		t.Error("expected churned to be aggregatable once allow_lagged_targets is true")
	}
}

func mustLoadDefault(t *testing.T) *config.Hyperparameters {
	t.Helper()
	hp, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return hp
}
