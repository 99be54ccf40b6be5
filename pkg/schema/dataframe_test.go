package schema

import (
	"errors"
	"math"
	"testing"
)

func TestAddColumnLengthMismatch(t *testing.T) {
	df := New("population")
	if err := df.AddColumn(NewNumerical("x", []float64{1, 2, 3})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := df.AddColumn(NewNumerical("y", []float64{1, 2}))
	if err == nil {
		t.Fatal("expected a length-mismatch error")
	}
	if !isSchemaError(err) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestMustColumnMissing(t *testing.T) {
	df := New("population")
	if _, err := df.MustColumn("nope"); !isSchemaError(err) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestIsTimeStampRoleAndFallback(t *testing.T) {
	df := New("orders")
	explicit := NewTimeStamp("created_at", []float64{1})
	fallback := NewNumerical("legacy_time stamp col", []float64{1})
	fallback.Role = RoleNumerical
	fallback.Unit = "time stamp"
	notTS := NewNumerical("amount", []float64{1})

	for _, c := range []*Column{explicit, fallback, notTS} {
		if err := df.AddColumn(c); err != nil {
			t.Fatal(err)
		}
	}

	if !df.IsTimeStamp("created_at") {
		t.Error("expected created_at to be recognized via explicit role")
	}
	if !df.IsTimeStamp("legacy_time stamp col") {
		t.Error("expected unit/name fallback to recognize time stamp")
	}
	if df.IsTimeStamp("amount") {
		t.Error("amount should not be treated as a time stamp")
	}
}

func TestEncodingInternIsStableAndAppendOnly(t *testing.T) {
	enc := NewEncoding()
	a := enc.Intern("alpha")
	b := enc.Intern("beta")
	a2 := enc.Intern("alpha")

	if a != a2 {
		t.Fatalf("interning the same string twice should yield the same id: %d != %d", a, a2)
	}
	if a == b {
		t.Fatal("distinct strings must get distinct ids")
	}
	s, ok := enc.String(a)
	if !ok || s != "alpha" {
		t.Fatalf("String(%d) = %q, %v; want \"alpha\", true", a, s, ok)
	}
	if _, ok := enc.Lookup("gamma"); ok {
		t.Fatal("gamma was never interned")
	}
}

func TestProjectNull(t *testing.T) {
	cases := []float64{math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, v := range cases {
		if got := ProjectNull(v); got != 0.0 {
			t.Errorf("ProjectNull(%v) = %v, want 0", v, got)
		}
	}
	if got := ProjectNull(3.5); got != 3.5 {
		t.Errorf("ProjectNull(3.5) = %v, want 3.5", got)
	}
}

func isSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}
