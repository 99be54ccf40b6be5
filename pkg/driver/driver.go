// Package driver implements ParallelDriver: sharding a transform's
// population rows across worker goroutines, each with its own
// RowBuilder, and joining them into a single first-error-wins result
// (spec.md §4.8), mirroring the goroutine-per-shard plus
// WaitGroup+atomic pattern go-strats/cmd/probe uses to fan strategies
// out across goroutines.
package driver

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Progress is called from shard 0 only, with the number of rows it has
// completed out of its own shard's total.
type Progress func(shardDone, shardTotal int)

// ShardFunc builds and runs one shard's RowBuilder over [start, end).
// progress is non-nil only for shard 0; other shards receive nil and
// must not call it.
type ShardFunc func(shard, start, end int, progress Progress) error

// Run partitions [0, nRows) into numThreads contiguous shards and runs
// fn for each shard concurrently. If numThreads <= 0, it defaults to
// max(2, hardware_concurrency/2). cancel, if non-nil, is shared across
// shards: fn is expected to check it cooperatively at its own row-loop
// and feature-evaluation boundaries, and the driver itself sets it as
// soon as any shard returns an error, so siblings can abort early.
func Run(nRows, numThreads int, cancel *atomic.Bool, progress Progress, fn ShardFunc) error {
	if nRows <= 0 {
		return nil
	}
	if numThreads <= 0 {
		numThreads = runtime.NumCPU() / 2
		if numThreads < 2 {
			numThreads = 2
		}
	}
	if numThreads > nRows {
		numThreads = nRows
	}

	bounds := shardBounds(nRows, numThreads)

	var wg sync.WaitGroup
	errs := make([]error, numThreads)
	var firstErrShard atomic.Int32
	firstErrShard.Store(-1)

	for shard := 0; shard < numThreads; shard++ {
		start, end := bounds[shard], bounds[shard+1]
		wg.Add(1)
		go func(shard, start, end int) {
			defer wg.Done()
			if cancel != nil && cancel.Load() {
				return
			}

			var shardProgress Progress
			if shard == 0 {
				shardProgress = progress
			}
			if err := fn(shard, start, end, shardProgress); err != nil {
				errs[shard] = err
				firstErrShard.CompareAndSwap(-1, int32(shard))
				if cancel != nil {
					cancel.Store(true)
				}
			}
		}(shard, start, end)
	}
	wg.Wait()

	if idx := firstErrShard.Load(); idx >= 0 {
		return fmt.Errorf("shard %d: %w", idx, errs[idx])
	}
	return nil
}

// shardBounds returns numThreads+1 boundaries splitting [0,nRows) into
// numThreads contiguous, near-equal shards.
func shardBounds(nRows, numThreads int) []int {
	bounds := make([]int, numThreads+1)
	base := nRows / numThreads
	rem := nRows % numThreads
	cur := 0
	for i := 0; i < numThreads; i++ {
		bounds[i] = cur
		size := base
		if i < rem {
			size++
		}
		cur += size
	}
	bounds[numThreads] = nRows
	return bounds
}
