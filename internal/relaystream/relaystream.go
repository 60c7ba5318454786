// Package relaystream turns a stream of confirmed log ranges into a stream
// of monotonically advancing checkpoints, running one relay job per log and
// preserving block order: a later range's checkpoint is never published
// until every job from every earlier range has finished.
//
// The original (ordered_stream.rs / future_heap.rs) is a futures::Stream
// wrapping a Vec<Entry{order, future}>, polled in bulk each wake and
// yielding only the lowest-order ready entry. This reimplements the same
// externally observable guarantee — "yield only the minimum ready order
// once no not-yet-ready entry has a lower order" — over a container/heap
// min-heap, which is the idiomatic Go structure for this and gives O(log n)
// insert/extract instead of the original's documented O(n) bucket scan.
package relaystream

import (
	"container/heap"
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/lyfeloopinc/bridge-relayer/internal/logstream"
	"github.com/lyfeloopinc/bridge-relayer/internal/metrics"
)

// Job is a single relay task derived from one log. Step advances the job's
// internal state machine by one RPC round trip; it returns done=true once
// the job has reached a terminal state (successfully relayed, already
// relayed by someone else, or not this authority's responsibility).
type Job interface {
	Step(ctx context.Context) (done bool, err error)
}

// Factory builds a Job for a single log.
type Factory func(log types.Log) Job

// MaxConcurrentJobs bounds how many jobs run their Step loops at once. This
// cap is per Stream (per relay direction) and counts jobs from all
// dispatched ranges together.
const MaxConcurrentJobs = 32

// RangeSource is the subset of *logstream.Stream this package depends on,
// narrow enough to fake in tests without driving a real poll loop.
type RangeSource interface {
	Ranges() <-chan logstream.Range
	Err() error
}

// Stream consumes a RangeSource's ranges, dispatches one Job per log, and
// emits the highest confirmed-and-fully-relayed block number in order.
type Stream struct {
	logs      RangeSource
	factory   Factory
	direction metrics.Direction
	logger    *zap.Logger

	checkpoints chan uint64
	errc        chan error
}

func New(logs RangeSource, factory Factory, direction metrics.Direction, logger *zap.Logger) *Stream {
	return &Stream{
		logs:        logs,
		factory:     factory,
		direction:   direction,
		logger:      logger,
		checkpoints: make(chan uint64),
		errc:        make(chan error, 1),
	}
}

// Checkpoints yields the highest block number for which every relay job up
// to and including that block has completed, in increasing order. Closed
// when Run returns.
func (s *Stream) Checkpoints() <-chan uint64 { return s.checkpoints }

func (s *Stream) Err() error {
	select {
	case err := <-s.errc:
		return err
	default:
		return nil
	}
}

type result struct {
	order uint64
	err   error
}

// minHeap orders completed results by their log's position in the overall
// stream so the minimum always surfaces first, matching ordered_stream.rs.
type minHeap []uint64

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(uint64)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// Run drives the dispatch loop until ctx is canceled or a job/log-stream
// error occurs. It blocks; callers run it in its own goroutine per
// direction (main->side sign, side->main sign, side->main signatures).
func (s *Stream) Run(ctx context.Context) {
	defer close(s.checkpoints)

	resultsc := make(chan result)
	var order uint64
	// rangeBoundary maps the order of the last log in a range to that
	// range's `To` block, so emitting that order can publish a checkpoint.
	rangeBoundary := make(map[uint64]uint64)

	sem := make(chan struct{}, MaxConcurrentJobs)
	var wg sync.WaitGroup
	defer wg.Wait()

	// Canceled before wg.Wait runs, so in-flight jobs stop when Run returns.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dispatch := func(rng logstream.Range) {
		if len(rng.Logs) == 0 {
			myOrder := order
			order++
			rangeBoundary[myOrder] = rng.To
			wg.Add(1)
			go func(o uint64) {
				defer wg.Done()
				select {
				case resultsc <- result{order: o, err: nil}:
				case <-ctx.Done():
				}
			}(myOrder)
			return
		}
		for i, log := range rng.Logs {
			myOrder := order
			order++
			if i == len(rng.Logs)-1 {
				rangeBoundary[myOrder] = rng.To
			}
			job := s.factory(log)

			wg.Add(1)
			go func(o uint64, j Job) {
				defer wg.Done()
				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					return
				}
				defer func() { <-sem }()

				err := runToCompletion(ctx, j)
				select {
				case resultsc <- result{order: o, err: err}:
				case <-ctx.Done():
				}
			}(myOrder, job)
		}
	}

	pending := &minHeap{}
	heap.Init(pending)
	completed := make(map[uint64]error)
	var nextToEmit uint64

	emitReady := func() bool {
		for pending.Len() > 0 && (*pending)[0] == nextToEmit {
			o := heap.Pop(pending).(uint64)
			err := completed[o]
			delete(completed, o)
			if err != nil {
				s.logger.Error("relay job failed", zap.Uint64("order", o), zap.Error(err))
				metrics.ObserveJobOutcome(s.direction, metrics.OutcomeError)
				s.errc <- err
				return false
			}
			if to, ok := rangeBoundary[o]; ok {
				delete(rangeBoundary, o)
				metrics.SetCheckpoint(s.direction, to)
				select {
				case s.checkpoints <- to:
				case <-ctx.Done():
					return false
				}
			}
			nextToEmit++
		}
		return true
	}

	rangesDone := false
	for {
		if rangesDone && nextToEmit == order {
			return
		}
		select {
		case <-ctx.Done():
			return
		case rng, ok := <-s.logs.Ranges():
			if !ok {
				rangesDone = true
				if err := s.logs.Err(); err != nil {
					s.errc <- err
					return
				}
				continue
			}
			dispatch(rng)
		case res, ok := <-resultsc:
			if !ok {
				continue
			}
			completed[res.order] = res.err
			heap.Push(pending, res.order)
			if !emitReady() {
				return
			}
		}
	}
}

func runToCompletion(ctx context.Context, job Job) error {
	for {
		done, err := job.Step(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}
