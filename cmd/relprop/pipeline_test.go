package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/algomatic/relprop/pkg/schema"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildTreeLoadsPopulationAndPeripherals(t *testing.T) {
	dir := t.TempDir()
	customersCSV := writeCSV(t, dir, "customers.csv", "customer_id,churned\n1,0\n2,1\n3,0\n")
	ordersCSV := writeCSV(t, dir, "orders.csv", "customer_id,amount,category\n1,10,a\n1,20,b\n2,50,a\n2,60,a\n3,5,b\n")

	spec := &pipelineSpec{
		Population: tableSpec{
			Name: "customers",
			CSV:  customersCSV,
			Columns: []columnSpec{
				{Name: "customer_id", Role: "join_key"},
				{Name: "churned", Role: "numerical"},
			},
		},
		Peripheral: []tableSpec{
			{
				Name: "orders",
				CSV:  ordersCSV,
				Columns: []columnSpec{
					{Name: "customer_id", Role: "join_key"},
					{Name: "amount", Role: "numerical"},
					{Name: "category", Role: "categorical"},
				},
				Join: joinSpec{PopulationKey: "customer_id", PeripheralKey: "customer_id"},
			},
		},
		Targets: []string{"churned"},
	}

	enc := schema.NewEncoding()
	population, root, peripherals, err := buildTree(spec, enc)
	if err != nil {
		t.Fatal(err)
	}

	if population.NRows() != 3 {
		t.Errorf("expected 3 population rows, got %d", population.NRows())
	}
	if len(root.Children) != 1 || root.Children[0].Child.Table != "orders" {
		t.Fatalf("expected one orders edge, got %+v", root.Children)
	}
	orders, ok := peripherals["orders"]
	if !ok {
		t.Fatal("expected orders in peripherals map")
	}
	if orders.NRows() != 5 {
		t.Errorf("expected 5 orders rows, got %d", orders.NRows())
	}
	amount, err := orders.MustColumn("amount")
	if err != nil {
		t.Fatal(err)
	}
	if amount.Kind != schema.KindNumerical {
		t.Errorf("expected amount to be numerical, got %v", amount.Kind)
	}
}

func TestLoadPipelineRejectsMissingPopulationName(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "pipeline.yaml", "peripherals: []\n")
	if _, err := loadPipeline(path); err == nil {
		t.Fatal("expected an error when population.name is missing")
	}
}

func TestParseRoleDefaultsToNumerical(t *testing.T) {
	if got := parseRole(""); got != schema.RoleNumerical {
		t.Errorf("expected empty role to default to numerical, got %v", got)
	}
	if got := parseRole("join_key"); got != schema.RoleJoinKey {
		t.Errorf("expected join_key role, got %v", got)
	}
}
