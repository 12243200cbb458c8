// Package fetch runs per-item upstream requests with bounded concurrency,
// capturing each item's outcome without letting one failure cancel its
// siblings.
package fetch

import (
	"context"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one item. Exactly one of Value and Err is meaningful.
type Result[I, V any] struct {
	Index int
	Item  I
	Value V
	Err   error
}

// OK reports whether the item succeeded.
func (r Result[I, V]) OK() bool { return r.Err == nil }

// Map calls fn for every item with at most limit calls in flight and returns
// one Result per item in input order. A non-positive limit means no bound.
// fn errors are recorded, never propagated, so every item runs. Items not yet
// started when ctx is done are recorded with ctx.Err().
func Map[I, V any](ctx context.Context, items []I, limit int, fn func(context.Context, I) (V, error)) []Result[I, V] {
	results := make([]Result[I, V], len(items))
	if len(items) == 0 {
		return results
	}

	// A plain Group: errgroup.WithContext would cancel siblings on the first error.
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		g.Go(func() error {
			r := Result[I, V]{Index: i, Item: item}
			if err := ctx.Err(); err != nil {
				r.Err = err
			} else {
				r.Value, r.Err = fn(ctx, item)
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Batched splits items into consecutive batches of size and runs each batch
// with Map, one batch at a time, sleeping delay between batches. Results are
// returned in input order. It stops early only if ctx is cancelled during a
// delay; the remaining items are recorded with ctx.Err().
func Batched[I, V any](ctx context.Context, items []I, size int, delay time.Duration, fn func(context.Context, I) (V, error)) []Result[I, V] {
	if size <= 0 {
		size = len(items)
	}
	results := make([]Result[I, V], 0, len(items))
	for start := 0; start < len(items); start += size {
		if start > 0 && delay > 0 && !retry.SleepWithContext(ctx, delay) {
			for i := start; i < len(items); i++ {
				results = append(results, Result[I, V]{Index: i, Item: items[i], Err: ctx.Err()})
			}
			return results
		}
		end := min(start+size, len(items))
		for _, r := range Map(ctx, items[start:end], size, fn) {
			r.Index += start
			results = append(results, r)
		}
	}
	return results
}

// Partition splits results into successes and failures, preserving order.
func Partition[I, V any](results []Result[I, V]) (ok, failed []Result[I, V]) {
	for _, r := range results {
		if r.OK() {
			ok = append(ok, r)
		} else {
			failed = append(failed, r)
		}
	}
	return ok, failed
}

// Outcome is the batch-level classification of a set of results.
type Outcome int

const (
	// Complete means every item succeeded (or there were none).
	Complete Outcome = iota
	// Partial means at least one item succeeded and at least one failed.
	Partial
	// Failed means items were attempted and none succeeded.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Complete:
		return "complete"
	case Partial:
		return "partial"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Classify derives the Outcome from success and failure counts.
func Classify(succeeded, failed int) Outcome {
	switch {
	case failed == 0:
		return Complete
	case succeeded == 0:
		return Failed
	default:
		return Partial
	}
}
