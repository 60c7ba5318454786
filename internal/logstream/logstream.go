// Package logstream polls a chain for logs matching a filter, yielding only
// ranges that are `confirmations` blocks deep, tracking the last checked
// block so each range is emitted exactly once.
package logstream

import (
	"context"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/lyfeloopinc/bridge-relayer/internal/chainclient"
	"github.com/lyfeloopinc/bridge-relayer/internal/metrics"
)

// Range contains all logs matching Stream's filter in the inclusive block
// range [From, To].
type Range struct {
	From uint64
	To   uint64
	Logs []types.Log
}

// Options configures a Stream.
type Options struct {
	Address       common.Address
	Topics        [][]common.Hash
	PollInterval  time.Duration
	Confirmations uint64
	After         uint64
	// Chain labels this stream's chain-head gauge, e.g. "main" or "side".
	Chain string
}

// Stream pulls confirmed log ranges from a single contract address. Ranges
// are delivered over Ranges() in increasing block order; the stream owns
// its cursor exclusively (no external synchronization needed) since only
// the goroutine running Run ever mutates lastChecked.
type Stream struct {
	client  chainclient.Client
	logger  *zap.Logger
	opts    Options
	ranges  chan Range
	errc    chan error
	lastChecked uint64
}

// New creates a Stream that has not yet started polling; call Run in its
// own goroutine to begin.
func New(client chainclient.Client, logger *zap.Logger, opts Options) *Stream {
	return &Stream{
		client:      client,
		logger:      logger,
		opts:        opts,
		ranges:      make(chan Range),
		errc:        make(chan error, 1),
		lastChecked: opts.After,
	}
}

// Ranges returns the channel new confirmed log ranges are delivered on. It
// is closed when Run returns, after which Err holds the terminal error, if
// any (nil on a clean ctx cancellation).
func (s *Stream) Ranges() <-chan Range { return s.ranges }

// Err returns the error that caused Run to stop, valid only after Ranges()
// has been closed.
func (s *Stream) Err() error {
	select {
	case err := <-s.errc:
		return err
	default:
		return nil
	}
}

// Run drives the AwaitInterval -> AwaitBlockNumber -> AwaitLogs loop until
// ctx is canceled or a transport call fails. It blocks, so callers run it in
// its own goroutine per source chain.
func (s *Stream) Run(ctx context.Context) {
	defer close(s.ranges)

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		head, err := s.client.BlockNumber(ctx)
		if err != nil {
			s.fail(err)
			return
		}
		metrics.SetChainHead(s.opts.Chain, head)

		lastConfirmed := saturatingSub(head, s.opts.Confirmations)
		if s.lastChecked >= lastConfirmed {
			s.logger.Debug("no new confirmed blocks", zap.Uint64("lastChecked", s.lastChecked))
			continue
		}

		from := s.lastChecked + 1
		to := lastConfirmed
		logs, err := s.client.FilterLogs(ctx, ethereum.FilterQuery{
			Addresses: []common.Address{s.opts.Address},
			Topics:    s.opts.Topics,
			FromBlock: blockNumberBig(from),
			ToBlock:   blockNumberBig(to),
		})
		if err != nil {
			s.fail(err)
			return
		}

		s.lastChecked = to
		rng := Range{From: from, To: to, Logs: logs}

		select {
		case s.ranges <- rng:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Stream) fail(err error) {
	s.logger.Error("log stream failed", zap.Error(err))
	s.errc <- err
}

func saturatingSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}

func blockNumberBig(n uint64) *big.Int {
	return new(big.Int).SetUint64(n)
}
