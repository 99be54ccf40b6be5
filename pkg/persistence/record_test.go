package persistence

import (
	"testing"

	"github.com/algomatic/relprop/pkg/schema"
)

func TestPlaceholderRoundTrip(t *testing.T) {
	orders := schema.NewPlaceholder("orders")
	root := schema.NewPlaceholder("customers").Join(schema.Edge{
		Child:    orders,
		JoinKeys: []schema.JoinKeyPair{{Population: "id", Peripheral: "customer_id"}},
	})

	rec := FromPlaceholder(root)
	if rec.Table != "customers" {
		t.Fatalf("expected root table customers, got %s", rec.Table)
	}
	if len(rec.Children) != 1 || rec.Children[0].Child.Table != "orders" {
		t.Fatalf("expected one child edge to orders, got %+v", rec.Children)
	}

	back := rec.ToPlaceholder()
	if back.Table != "customers" || len(back.Children) != 1 {
		t.Fatalf("round trip lost structure: %+v", back)
	}
	if back.Children[0].Child.Table != "orders" {
		t.Fatalf("round trip lost child table name: %+v", back.Children[0].Child)
	}
	if back.Children[0].JoinKeys[0].Population != "id" || back.Children[0].JoinKeys[0].Peripheral != "customer_id" {
		t.Fatalf("round trip lost join keys: %+v", back.Children[0].JoinKeys)
	}
}

func TestTableSchemaOfCapturesColumnMetadata(t *testing.T) {
	enc := schema.NewEncoding()
	df := schema.New("customers")
	if err := df.AddColumn(schema.NewCategorical("id", []int32{enc.Intern("1")}, schema.RoleJoinKey)); err != nil {
		t.Fatal(err)
	}
	if err := df.AddColumn(schema.NewNumerical("age", []float64{42})); err != nil {
		t.Fatal(err)
	}

	ts := TableSchemaOf(df)
	if ts.Table != "customers" || len(ts.Columns) != 2 {
		t.Fatalf("unexpected table schema: %+v", ts)
	}
	if ts.Columns[0].Name != "id" || ts.Columns[0].Role != schema.RoleJoinKey {
		t.Fatalf("unexpected first column: %+v", ts.Columns[0])
	}
	if ts.Columns[1].Name != "age" || ts.Columns[1].Role != schema.RoleNumerical {
		t.Fatalf("unexpected second column: %+v", ts.Columns[1])
	}
}
