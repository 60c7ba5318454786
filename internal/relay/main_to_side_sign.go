// Package relay implements the three relay job state machines: accepting a
// main->side message on the side chain, signing a side->main message, and
// submitting a side->main message once quorum signatures have been
// collected. Each type implements relaystream.Job, advancing one RPC round
// trip per Step call — the Go equivalent of the original's explicit
// futures::Future state enums (main_to_side_sign.rs / accept_message_from_main.rs,
// side_to_main_sign.rs, side_to_main_signatures.rs).
package relay

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/lyfeloopinc/bridge-relayer/internal/contracts"
	"github.com/lyfeloopinc/bridge-relayer/internal/metrics"
)

type mainToSideSignState int

const (
	stateAwaitMessage mainToSideSignState = iota
	stateAwaitAlreadyAccepted
	stateAwaitTxSent
)

// MainToSideSign accepts, on the side chain, a message that was relayed on
// the main chain — three steps: fetch the stored message by id, check
// whether this authority already accepted it, and if not, accept it.
type MainToSideSign struct {
	main *contracts.MainContract
	side *contracts.SideContract
	log  *zap.Logger

	mainTxHash common.Hash
	messageID  common.Hash
	sender     common.Address
	recipient  common.Address

	state   mainToSideSignState
	message []byte
}

// NewMainToSideSign builds the job for a RelayMessage log emitted by the
// main contract. The log must be mined (have a transaction hash).
func NewMainToSideSign(log types.Log, main *contracts.MainContract, side *contracts.SideContract, logger *zap.Logger) (*MainToSideSign, error) {
	decoded, err := contracts.DecodeRelayMessage(log)
	if err != nil {
		return nil, err
	}
	return &MainToSideSign{
		main:       main,
		side:       side,
		log:        logger,
		mainTxHash: log.TxHash,
		messageID:  decoded.MessageID,
		sender:     decoded.Sender,
		recipient:  decoded.Recipient,
		state:      stateAwaitMessage,
	}, nil
}

// Step advances the state machine by one RPC round trip.
func (j *MainToSideSign) Step(ctx context.Context) (bool, error) {
	switch j.state {
	case stateAwaitMessage:
		msg, err := j.main.RelayedMessageByID(ctx, j.messageID)
		if err != nil {
			return false, err
		}
		j.message = msg
		j.state = stateAwaitAlreadyAccepted
		j.log.Debug("main->side sign: fetched message", zap.String("mainTxHash", j.mainTxHash.Hex()))
		return false, nil

	case stateAwaitAlreadyAccepted:
		accepted, err := j.side.IsMessageAcceptedFromMain(ctx, j.mainTxHash, j.message, j.sender, j.recipient)
		if err != nil {
			return false, err
		}
		if accepted {
			j.log.Info("main->side sign: already accepted", zap.String("mainTxHash", j.mainTxHash.Hex()))
			metrics.ObserveJobOutcome(metrics.DirectionMainToSideSign, metrics.OutcomeAlreadyDone)
			return true, nil
		}
		j.state = stateAwaitTxSent
		return false, nil

	case stateAwaitTxSent:
		sideTxHash, err := j.side.AcceptMessageFromMain(ctx, j.mainTxHash, j.message, j.sender, j.recipient)
		if err != nil {
			return false, err
		}
		j.log.Info("main->side sign: accepted",
			zap.String("mainTxHash", j.mainTxHash.Hex()),
			zap.String("sideTxHash", sideTxHash.Hex()),
		)
		metrics.ObserveJobOutcome(metrics.DirectionMainToSideSign, metrics.OutcomeRelayed)
		return true, nil
	}
	return true, nil
}
