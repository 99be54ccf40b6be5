package subfeature

import (
	"math"
	"testing"

	"github.com/algomatic/relprop/pkg/match"
	"github.com/algomatic/relprop/pkg/schema"
)

type stubFitter struct {
	gotRows []int
}

func (s *stubFitter) FitTransformChild(placeholder *schema.Placeholder, population *schema.DataFrame, peripherals map[string]*schema.DataFrame, rows []int) (ChildResult, error) {
	s.gotRows = rows
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = float64(r) * 10
	}
	return ChildResult{Names: []string{"child_feature"}, Values: [][]float64{values}}, nil
}

func TestComposeExpandsToFullRowCount(t *testing.T) {
	enc := schema.NewEncoding()
	population := schema.New("population")
	if err := population.AddColumn(schema.NewCategorical("k", []int32{enc.Intern("1")}, schema.RoleJoinKey)); err != nil {
		t.Fatal(err)
	}

	peripheral := schema.New("orders")
	if err := peripheral.AddColumn(schema.NewCategorical("k", []int32{enc.Intern("1"), enc.Intern("1"), enc.Intern("9")}, schema.RoleJoinKey)); err != nil {
		t.Fatal(err)
	}

	edge := schema.Edge{
		Child:    schema.NewPlaceholder("orders"),
		JoinKeys: []schema.JoinKeyPair{{Population: "k", Peripheral: "k"}},
	}
	mm, err := match.New(population, peripheral, edge)
	if err != nil {
		t.Fatal(err)
	}

	fitter := &stubFitter{}
	cols, err := Compose(fitter, mm, []int{0}, edge.Child, peripheral, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(fitter.gotRows) != 2 || fitter.gotRows[0] != 0 || fitter.gotRows[1] != 1 {
		t.Fatalf("expected child fitted over reachable rows [0 1], got %v", fitter.gotRows)
	}
	if len(cols) != 1 {
		t.Fatalf("expected 1 expanded column, got %d", len(cols))
	}
	col := cols[0]
	if col.Len() != 3 {
		t.Fatalf("expected expanded column length 3, got %d", col.Len())
	}
	if !math.IsNaN(col.Numerical[2]) {
		t.Fatalf("expected row 2 (unreachable) to be NaN, got %v", col.Numerical[2])
	}
	if col.Numerical[0] != 0 || col.Numerical[1] != 10 {
		t.Fatalf("unexpected expanded values: %v", col.Numerical)
	}
}
