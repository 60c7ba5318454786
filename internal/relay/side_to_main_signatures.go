package relay

import (
	"context"
	"errors"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lyfeloopinc/bridge-relayer/internal/chainclient"
	"github.com/lyfeloopinc/bridge-relayer/internal/contracts"
	"github.com/lyfeloopinc/bridge-relayer/internal/message"
	"github.com/lyfeloopinc/bridge-relayer/internal/metrics"
)

type sideToMainSignaturesState int

const (
	stateNotResponsible sideToMainSignaturesState = iota
	stateAwaitMessage
	stateAwaitIsRelayed
	stateAwaitSignatures
	stateAwaitTxSent
	stateAwaitTxReceipt
)

// SideToMainSignatures submits a side->main message to the main contract
// once a quorum of authority signatures has been collected — five steps:
// fetch the message, check it hasn't already been relayed, fetch every
// collected signature, submit the transaction, and wait for its receipt.
// Authorities that are not the one named in the CollectedSignatures event
// are not responsible for relaying it and complete immediately (someone
// else's relayer does it).
type SideToMainSignatures struct {
	client              chainclient.Client
	main                *contracts.MainContract
	side                *contracts.SideContract
	log                 *zap.Logger
	requiredSignatures  int
	verifyValueCoversGas bool
	relaySideTxGas      contracts.GasConfig

	sideTxHash  common.Hash
	messageHash common.Hash

	state      sideToMainSignaturesState
	message    message.ToMain
	signatures []message.Signature
	mainTxHash common.Hash
}

// SideToMainSignaturesOptions carries the per-job configuration that
// doesn't come from the log itself.
type SideToMainSignaturesOptions struct {
	RequiredSignatures int
	// VerifyValueCoversGas skips relaying a message whose value can't
	// cover the gas cost of relaying it, matching the original's
	// isMessageValueSufficientToCoverRelay safety check (withdraw_relay.rs),
	// a feature the distilled spec doesn't mention but doesn't exclude
	// either.
	VerifyValueCoversGas bool
	RelaySideTxGas       contracts.GasConfig
}

// NewSideToMainSignatures builds the job for a CollectedSignatures log
// emitted by the side contract.
func NewSideToMainSignatures(
	log types.Log,
	client chainclient.Client,
	main *contracts.MainContract,
	side *contracts.SideContract,
	opts SideToMainSignaturesOptions,
	logger *zap.Logger,
) (*SideToMainSignatures, error) {
	decoded, err := contracts.DecodeCollectedSignatures(log)
	if err != nil {
		return nil, err
	}

	j := &SideToMainSignatures{
		client:               client,
		main:                 main,
		side:                 side,
		log:                  logger,
		requiredSignatures:   opts.RequiredSignatures,
		verifyValueCoversGas: opts.VerifyValueCoversGas,
		relaySideTxGas:       opts.RelaySideTxGas,
		sideTxHash:           log.TxHash,
		messageHash:          decoded.MessageHash,
	}

	if decoded.AuthorityResponsibleForRelay != main.Authority() {
		j.log.Debug("side->main signatures: not responsible for relay", zap.String("sideTxHash", j.sideTxHash.Hex()))
		j.state = stateNotResponsible
	} else {
		j.state = stateAwaitMessage
	}
	return j, nil
}

func (j *SideToMainSignatures) Step(ctx context.Context) (bool, error) {
	switch j.state {
	case stateNotResponsible:
		metrics.ObserveJobOutcome(metrics.DirectionSideToMainSignatures, metrics.OutcomeNotResponsible)
		return true, nil

	case stateAwaitMessage:
		msg, err := j.side.GetMessage(ctx, j.messageHash)
		if err != nil {
			return false, err
		}
		j.message = msg
		j.state = stateAwaitIsRelayed
		return false, nil

	case stateAwaitIsRelayed:
		relayed, err := j.main.IsSideTxRelayed(ctx, j.message.SideTxHash)
		if err != nil {
			return false, err
		}
		if relayed {
			j.log.Info("side->main signatures: already relayed", zap.String("sideTxHash", j.sideTxHash.Hex()))
			metrics.ObserveJobOutcome(metrics.DirectionSideToMainSignatures, metrics.OutcomeAlreadyDone)
			return true, nil
		}
		relayCost := contracts.GasConfig{Gas: j.relaySideTxGas.Gas, GasPrice: j.message.MainGasPrice}
		if j.verifyValueCoversGas && !valueCoversRelayGas(j.message.Value, relayCost) {
			j.log.Warn("side->main signatures: value insufficient to cover relay gas, skipping",
				zap.String("sideTxHash", j.sideTxHash.Hex()))
			metrics.ObserveJobOutcome(metrics.DirectionSideToMainSignatures, metrics.OutcomeAlreadyDone)
			return true, nil
		}
		j.state = stateAwaitSignatures
		return false, nil

	case stateAwaitSignatures:
		sigs, err := j.fetchSignatures(ctx)
		if err != nil {
			return false, err
		}
		j.signatures = sigs
		j.log.Info("side->main signatures: fetched signatures",
			zap.String("sideTxHash", j.sideTxHash.Hex()),
			zap.Int("count", len(sigs)),
		)
		j.state = stateAwaitTxSent
		return false, nil

	case stateAwaitTxSent:
		txHash, err := j.main.RelaySideTx(ctx, j.message, j.signatures)
		if err != nil {
			return false, err
		}
		j.mainTxHash = txHash
		j.log.Info("side->main signatures: relay transaction sent",
			zap.String("sideTxHash", j.sideTxHash.Hex()),
			zap.String("mainTxHash", txHash.Hex()),
		)
		j.state = stateAwaitTxReceipt
		return false, nil

	case stateAwaitTxReceipt:
		receipt, err := j.client.TransactionReceipt(ctx, j.mainTxHash)
		if err != nil {
			// Not found yet is expected while the transaction is pending;
			// the log stream's confirmation delay means we can afford to
			// just try again on the next Step call.
			if errors.Is(err, ethereum.NotFound) {
				return false, nil
			}
			return false, err
		}
		if receipt == nil {
			return false, nil
		}
		j.log.Info("side->main signatures: DONE", zap.String("mainTxHash", j.mainTxHash.Hex()))
		metrics.ObserveJobOutcome(metrics.DirectionSideToMainSignatures, metrics.OutcomeRelayed)
		return true, nil
	}
	return true, nil
}

func (j *SideToMainSignatures) fetchSignatures(ctx context.Context) ([]message.Signature, error) {
	sigs := make([]message.Signature, j.requiredSignatures)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < j.requiredSignatures; i++ {
		i := i
		g.Go(func() error {
			sig, err := j.side.GetSignature(gctx, j.messageHash, uint64(i))
			if err != nil {
				return err
			}
			sigs[i] = sig
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sigs, nil
}

func valueCoversRelayGas(value *big.Int, gasCfg contracts.GasConfig) bool {
	if value == nil || gasCfg.GasPrice == nil {
		return true
	}
	cost := new(big.Int).Mul(new(big.Int).SetUint64(gasCfg.Gas), gasCfg.GasPrice)
	return value.Cmp(cost) >= 0
}
