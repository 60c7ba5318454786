package relay

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/lyfeloopinc/bridge-relayer/internal/contracts"
	"github.com/lyfeloopinc/bridge-relayer/internal/message"
	"github.com/lyfeloopinc/bridge-relayer/internal/metrics"
)

type sideToMainSignState int

const (
	stateAwaitCheckAlreadySigned sideToMainSignState = iota
	stateAwaitSignature
	stateAwaitTransaction
)

// SideToMainSign signs a side->main withdrawal message — three steps:
// check whether this authority already signed it, sign it (a raw digest
// signature, no EIP-191 prefix), and submit the signature to the side
// contract.
type SideToMainSign struct {
	side *contracts.SideContract
	log  *zap.Logger

	txHash  common.Hash
	message message.ToMain
	sig     message.Signature

	state sideToMainSignState
}

// NewSideToMainSign builds the job for a Withdraw log emitted by the side
// contract.
func NewSideToMainSign(log types.Log, side *contracts.SideContract, logger *zap.Logger) (*SideToMainSign, error) {
	msg, err := contracts.MessageFromWithdrawLog(log)
	if err != nil {
		return nil, err
	}
	return &SideToMainSign{
		side:    side,
		log:     logger,
		txHash:  log.TxHash,
		message: msg,
		state:   stateAwaitCheckAlreadySigned,
	}, nil
}

func (j *SideToMainSign) Step(ctx context.Context) (bool, error) {
	switch j.state {
	case stateAwaitCheckAlreadySigned:
		signed, err := j.side.IsSideToMainSigned(ctx, j.message)
		if err != nil {
			return false, err
		}
		if signed {
			j.log.Info("side->main sign: already signed", zap.String("txHash", j.txHash.Hex()))
			metrics.ObserveJobOutcome(metrics.DirectionSideToMainSign, metrics.OutcomeAlreadyDone)
			return true, nil
		}
		j.state = stateAwaitSignature
		return false, nil

	case stateAwaitSignature:
		sig, err := j.side.Sign(ctx, j.message)
		if err != nil {
			return false, err
		}
		j.sig = sig
		j.state = stateAwaitTransaction
		return false, nil

	case stateAwaitTransaction:
		txHash, err := j.side.SubmitSideToMainSignature(ctx, j.message, j.sig)
		if err != nil {
			return false, err
		}
		j.log.Info("side->main sign: signed",
			zap.String("withdrawTxHash", j.txHash.Hex()),
			zap.String("signTxHash", txHash.Hex()),
		)
		metrics.ObserveJobOutcome(metrics.DirectionSideToMainSign, metrics.OutcomeRelayed)
		return true, nil
	}
	return true, nil
}
