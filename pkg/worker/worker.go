// Package worker implements the single-threaded cooperative scheduler that
// drives one shard of the dataflow to a fixed point per logical step. There
// is no cross-worker locking: each key is owned by exactly one worker via
// Shard, and work is batched to bound how long a worker can run before it
// must yield back to its caller.
package worker

import (
	"hash/fnv"

	"github.com/Sumatoshi-tech/wcoj/pkg/alg/stats"
)

// DefaultExtensionBatchSize bounds how many prefixes a single call to Step
// processes before returning, keeping time-to-yield predictable regardless
// of how much work is queued.
const DefaultExtensionBatchSize = 4096

// Shard returns which of peers workers owns key, by hashing key with FNV-1a
// and reducing mod peers. Every worker must agree on peers for this to
// partition keys consistently.
func Shard(key []byte, peers int) int {
	if peers <= 1 {
		return 0
	}

	h := fnv.New64a()
	_, _ = h.Write(key)

	return int(h.Sum64() % uint64(peers))
}

// Task is one unit of queued work for a Worker: a batch of items plus the
// function that consumes them. Step calls Run with at most BatchSize items
// at a time, so a single Task can span multiple Step calls.
type Task[I any] struct {
	Items []I
	Run   func(batch []I)
}

// Worker runs a queue of Tasks to completion across repeated Step calls,
// each bounded to BatchSize items, and tracks an exponential moving average
// of batch processing cost to let callers adapt BatchSize over time.
type Worker[I any] struct {
	BatchSize int
	queue     []Task[I]
	cost      *stats.EMA
}

// New constructs a Worker with the given batch size (DefaultExtensionBatchSize
// if size <= 0).
func New[I any](size int) *Worker[I] {
	if size <= 0 {
		size = DefaultExtensionBatchSize
	}

	return &Worker[I]{
		BatchSize: size,
		cost:      stats.NewEMA(costSmoothingFactor),
	}
}

// costSmoothingFactor weights recent batch sizes over older ones when
// tracking the adaptive batch-size signal.
const costSmoothingFactor = 0.2

// Enqueue adds a task to the worker's queue. Tasks run in FIFO order.
func (w *Worker[I]) Enqueue(task Task[I]) {
	w.queue = append(w.queue, task)
}

// Pending reports whether the worker has outstanding queued work.
func (w *Worker[I]) Pending() bool {
	return len(w.queue) > 0
}

// Step runs at most BatchSize items of the front-most task, removing the
// task once it's exhausted, and returns the number of items actually
// processed (0 if the queue was empty). Step never blocks.
func (w *Worker[I]) Step() int {
	if len(w.queue) == 0 {
		return 0
	}

	task := &w.queue[0]

	n := min(w.BatchSize, len(task.Items))
	batch := task.Items[:n]

	task.Run(batch)
	task.Items = task.Items[n:]

	w.cost.Update(float64(n))

	if len(task.Items) == 0 {
		w.queue = w.queue[1:]
	}

	return n
}

// RunToFixedPoint repeatedly calls Step until the queue is empty.
func (w *Worker[I]) RunToFixedPoint() {
	for w.Pending() {
		w.Step()
	}
}

// AverageBatchCost returns the exponential moving average of items
// processed per Step call, usable to tune BatchSize for a target
// time-to-yield.
func (w *Worker[I]) AverageBatchCost() float64 {
	return w.cost.Value()
}
