// Package bridge composes the three relay streams into a single stream of
// checkpoint snapshots, ported from the original's bridge/mod.rs: poll each
// sub-stream, update whichever checkpoint field changed, and yield a
// snapshot only when at least one of them did.
package bridge

import (
	"context"

	"go.uber.org/zap"

	"github.com/lyfeloopinc/bridge-relayer/internal/checkpoint"
	"github.com/lyfeloopinc/bridge-relayer/internal/relaystream"
)

// Multiplexer owns the three relay streams and the current checkpoint
// state, publishing a new State each time any of the three directions
// advances.
type Multiplexer struct {
	mainToSideSign       *relaystream.Stream
	sideToMainSign       *relaystream.Stream
	sideToMainSignatures *relaystream.Stream
	logger               *zap.Logger

	state      checkpoint.State
	states     chan checkpoint.State
	errc       chan error
}

// New builds a Multiplexer seeded with the given initial checkpoint state
// (typically loaded from a checkpoint.Store at startup).
func New(
	mainToSideSign, sideToMainSign, sideToMainSignatures *relaystream.Stream,
	initial checkpoint.State,
	logger *zap.Logger,
) *Multiplexer {
	return &Multiplexer{
		mainToSideSign:       mainToSideSign,
		sideToMainSign:       sideToMainSign,
		sideToMainSignatures: sideToMainSignatures,
		logger:               logger,
		state:                initial,
		states:                make(chan checkpoint.State),
		errc:                  make(chan error, 1),
	}
}

// States yields a new checkpoint snapshot every time any of the three relay
// directions advances. Closed when Run returns. Consumers are expected to
// persist each snapshot via a checkpoint.Store.
func (m *Multiplexer) States() <-chan checkpoint.State { return m.states }

func (m *Multiplexer) Err() error {
	select {
	case err := <-m.errc:
		return err
	default:
		return nil
	}
}

// Run drives all three relay streams concurrently and republishes a
// checkpoint snapshot whenever any of them advances. It blocks until ctx is
// canceled or any stream fails.
func (m *Multiplexer) Run(ctx context.Context) {
	defer close(m.states)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go m.mainToSideSign.Run(ctx)
	go m.sideToMainSign.Run(ctx)
	go m.sideToMainSignatures.Run(ctx)

	mainToSideC := m.mainToSideSign.Checkpoints()
	sideToMainSignC := m.sideToMainSign.Checkpoints()
	sideToMainSigsC := m.sideToMainSignatures.Checkpoints()

	for mainToSideC != nil || sideToMainSignC != nil || sideToMainSigsC != nil {
		var changed bool

		select {
		case <-ctx.Done():
			return

		case to, ok := <-mainToSideC:
			if !ok {
				mainToSideC = nil
				if err := m.mainToSideSign.Err(); err != nil {
					m.fail(err)
					return
				}
				continue
			}
			if to > m.state.CheckedMainToSideSign {
				m.state.CheckedMainToSideSign = to
				changed = true
			}

		case to, ok := <-sideToMainSignC:
			if !ok {
				sideToMainSignC = nil
				if err := m.sideToMainSign.Err(); err != nil {
					m.fail(err)
					return
				}
				continue
			}
			if to > m.state.CheckedSideToMainSign {
				m.state.CheckedSideToMainSign = to
				changed = true
			}

		case to, ok := <-sideToMainSigsC:
			if !ok {
				sideToMainSigsC = nil
				if err := m.sideToMainSignatures.Err(); err != nil {
					m.fail(err)
					return
				}
				continue
			}
			if to > m.state.CheckedSideToMainSignatures {
				m.state.CheckedSideToMainSignatures = to
				changed = true
			}
		}

		if changed {
			select {
			case m.states <- m.state:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (m *Multiplexer) fail(err error) {
	m.logger.Error("bridge multiplexer: relay stream failed", zap.Error(err))
	m.errc <- err
}
