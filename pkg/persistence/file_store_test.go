package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/algomatic/relprop/pkg/aggregate"
	"github.com/algomatic/relprop/pkg/config"
	"github.com/algomatic/relprop/pkg/enumerate"
)

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	rec := &Record{
		FitID:    "fit-1",
		FittedAt: time.Unix(1700000000, 0).UTC(),
		Hyperparameters: config.Hyperparameters{
			Aggregations: []string{"COUNT", "AVG"},
			NumFeatures:  10,
		},
		Placeholder: FromPlaceholder(nil),
		Selected: []enumerate.AbstractFeature{
			{PopulationTable: "customers", PeripheralTable: "orders", Aggregation: aggregate.COUNT},
		},
		Importance: map[string]float64{"orders.amount": 0.8},
	}

	ctx := context.Background()
	if err := store.Save(ctx, "pipeline-1", rec); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load(ctx, "pipeline-1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.FitID != rec.FitID {
		t.Fatalf("expected fit id %s, got %s", rec.FitID, loaded.FitID)
	}
	if len(loaded.Selected) != 1 || loaded.Selected[0].Aggregation != aggregate.COUNT {
		t.Fatalf("unexpected selected features after round trip: %+v", loaded.Selected)
	}
	if loaded.Importance["orders.amount"] != 0.8 {
		t.Fatalf("unexpected importance after round trip: %+v", loaded.Importance)
	}

	if err := store.Delete(ctx, "pipeline-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx, "pipeline-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFileStoreLoadMissingKeyReturnsErrNotFound(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := store.Load(context.Background(), "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
