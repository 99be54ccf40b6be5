package driver

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunCoversEveryRowExactlyOnce(t *testing.T) {
	const nRows = 97
	var mu sync.Mutex
	seen := make(map[int]bool)

	err := Run(nRows, 4, nil, nil, func(shard, start, end int, progress Progress) error {
		mu.Lock()
		defer mu.Unlock()
		for r := start; r < end; r++ {
			if seen[r] {
				t.Errorf("row %d covered by more than one shard", r)
			}
			seen[r] = true
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != nRows {
		t.Fatalf("expected %d rows covered, got %d", nRows, len(seen))
	}
}

func TestRunFirstErrorWins(t *testing.T) {
	var cancel atomic.Bool
	err := Run(10, 4, &cancel, nil, func(shard, start, end int, progress Progress) error {
		if shard == 2 {
			return fmt.Errorf("boom in shard 2")
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected an error to propagate")
	}
}

func TestRunDefaultsThreadCount(t *testing.T) {
	var shards int32
	err := Run(100, 0, nil, nil, func(shard, start, end int, progress Progress) error {
		atomic.AddInt32(&shards, 1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if shards < 2 {
		t.Fatalf("expected at least 2 shards by default, got %d", shards)
	}
}

func TestRunProgressOnlyOnShardZero(t *testing.T) {
	var zeroCalls, otherCalls int32
	err := Run(20, 4, nil, func(done, total int) {
		atomic.AddInt32(&zeroCalls, 1)
	}, func(shard, start, end int, progress Progress) error {
		if shard == 0 {
			if progress == nil {
				t.Error("expected shard 0 to receive a non-nil progress callback")
			} else {
				progress(end-start, end-start)
			}
		} else if progress != nil {
			atomic.AddInt32(&otherCalls, 1)
			t.Errorf("shard %d unexpectedly received a non-nil progress callback", shard)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if zeroCalls == 0 {
		t.Fatal("expected shard 0's progress callback to be invoked")
	}
}
