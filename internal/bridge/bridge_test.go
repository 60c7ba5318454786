package bridge_test

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/lyfeloopinc/bridge-relayer/internal/bridge"
	"github.com/lyfeloopinc/bridge-relayer/internal/checkpoint"
	"github.com/lyfeloopinc/bridge-relayer/internal/logstream"
	"github.com/lyfeloopinc/bridge-relayer/internal/metrics"
	"github.com/lyfeloopinc/bridge-relayer/internal/relaystream"
)

// fakeSource replays a fixed slice of logstream.Range values then closes,
// standing in for a real logstream.Stream in these scenario tests.
type fakeSource struct {
	ranges chan logstream.Range
	err    error
}

func newFakeSource(ranges ...logstream.Range) *fakeSource {
	s := &fakeSource{ranges: make(chan logstream.Range, len(ranges))}
	for _, r := range ranges {
		s.ranges <- r
	}
	close(s.ranges)
	return s
}

func (s *fakeSource) Ranges() <-chan logstream.Range { return s.ranges }
func (s *fakeSource) Err() error                      { return s.err }

// immediateJob completes on its first Step, simulating a relay job that
// needed no further RPC round trips (already accepted, already signed, or
// not this authority's responsibility).
type immediateJob struct{}

func (immediateJob) Step(ctx context.Context) (bool, error) { return true, nil }

// This reproduces the two scenarios covered by the original daemon's
// basic_deposit_then_withdraw integration test: a main-chain deposit that
// gets accepted on the side chain, and a side-chain withdraw that gets
// signed, reaches quorum, and gets relayed back to main — observed here as
// the bridge's checkpoint advancing for each of the three relay directions.
var _ = Describe("Multiplexer", func() {
	It("advances the checkpoint for a main deposit relayed to the side chain", func() {
		depositRange := logstream.Range{
			From: 1, To: 10,
			Logs: []types.Log{{BlockNumber: 5}},
		}
		mainToSide := relaystream.New(
			newFakeSource(depositRange),
			func(types.Log) relaystream.Job { return immediateJob{} },
			metrics.DirectionMainToSideSign,
			zap.NewNop(),
		)
		sideToMainSign := relaystream.New(newFakeSource(), func(types.Log) relaystream.Job { return immediateJob{} }, metrics.DirectionSideToMainSign, zap.NewNop())
		sideToMainSigs := relaystream.New(newFakeSource(), func(types.Log) relaystream.Job { return immediateJob{} }, metrics.DirectionSideToMainSignatures, zap.NewNop())

		mux := bridge.New(mainToSide, sideToMainSign, sideToMainSigs, checkpoint.State{}, zap.NewNop())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		go mux.Run(ctx)

		var got checkpoint.State
		Eventually(mux.States(), time.Second).Should(Receive(&got))
		Expect(got.CheckedMainToSideSign).To(BeEquivalentTo(10))
	})

	It("advances the checkpoint for a side withdraw signed to quorum and relayed to main", func() {
		signRange := logstream.Range{From: 1, To: 4, Logs: []types.Log{{BlockNumber: 2}}}
		relayRange := logstream.Range{From: 1, To: 7, Logs: []types.Log{{BlockNumber: 3}}}

		mainToSide := relaystream.New(newFakeSource(), func(types.Log) relaystream.Job { return immediateJob{} }, metrics.DirectionMainToSideSign, zap.NewNop())
		sideToMainSign := relaystream.New(
			newFakeSource(signRange),
			func(types.Log) relaystream.Job { return immediateJob{} },
			metrics.DirectionSideToMainSign,
			zap.NewNop(),
		)
		sideToMainSigs := relaystream.New(
			newFakeSource(relayRange),
			func(types.Log) relaystream.Job { return immediateJob{} },
			metrics.DirectionSideToMainSignatures,
			zap.NewNop(),
		)

		mux := bridge.New(mainToSide, sideToMainSign, sideToMainSigs, checkpoint.State{}, zap.NewNop())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		go mux.Run(ctx)

		var states []checkpoint.State
		Eventually(func() []checkpoint.State {
			select {
			case st, ok := <-mux.States():
				if ok {
					states = append(states, st)
				}
			default:
			}
			return states
		}, time.Second).Should(HaveLen(2))

		final := states[len(states)-1]
		Expect(final.CheckedSideToMainSign).To(BeEquivalentTo(4))
		Expect(final.CheckedSideToMainSignatures).To(BeEquivalentTo(7))
	})
})
