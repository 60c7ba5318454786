package relaystream

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lyfeloopinc/bridge-relayer/internal/logstream"
	"github.com/lyfeloopinc/bridge-relayer/internal/metrics"
)

type fakeSource struct {
	ranges chan logstream.Range
	err    error
}

func (f *fakeSource) Ranges() <-chan logstream.Range { return f.ranges }
func (f *fakeSource) Err() error                     { return f.err }

// delayJob completes after `steps` calls to Step, letting the test force
// jobs to finish out of dispatch order while checkpoints must still surface
// in order — mirrors ordered_stream.rs's 7-out-of-order-insertions test.
type delayJob struct {
	remaining int
}

func (j *delayJob) Step(ctx context.Context) (bool, error) {
	if j.remaining <= 0 {
		return true, nil
	}
	j.remaining--
	return false, nil
}

func TestCheckpointsEmitInOrderDespiteOutOfOrderCompletion(t *testing.T) {
	src := &fakeSource{ranges: make(chan logstream.Range, 10)}

	// Assign more Step iterations to earlier logs so later jobs are ready
	// to complete first; the stream must still hold back their checkpoint
	// until the earlier ones finish.
	delays := map[int]int{0: 5, 1: 1, 2: 0}

	factory := func(log types.Log) Job {
		return &delayJob{remaining: delays[int(log.Index)]}
	}

	s := New(src, factory, metrics.DirectionMainToSideSign, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	src.ranges <- logstream.Range{
		From: 1, To: 10,
		Logs: []types.Log{{Index: 0}, {Index: 1}, {Index: 2}},
	}
	src.ranges <- logstream.Range{From: 11, To: 20, Logs: nil}
	close(src.ranges)

	select {
	case cp := <-s.Checkpoints():
		assert.Equal(t, uint64(10), cp)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first checkpoint")
	}

	select {
	case cp := <-s.Checkpoints():
		assert.Equal(t, uint64(20), cp)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for second checkpoint")
	}

	_, open := <-s.Checkpoints()
	assert.False(t, open)
	require.NoError(t, s.Err())
}

func TestJobErrorSurfacesAsStreamError(t *testing.T) {
	src := &fakeSource{ranges: make(chan logstream.Range, 1)}

	factory := func(log types.Log) Job {
		return errJob{}
	}

	s := New(src, factory, metrics.DirectionMainToSideSign, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	src.ranges <- logstream.Range{From: 1, To: 1, Logs: []types.Log{{Index: 0}}}
	close(src.ranges)

	_, open := <-s.Checkpoints()
	assert.False(t, open)
	assert.Error(t, s.Err())
}

type errJob struct{}

func (errJob) Step(ctx context.Context) (bool, error) {
	return false, assertErr
}

var assertErr = &testError{"job failed"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
