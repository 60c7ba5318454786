package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/lyfeloopinc/bridge-relayer/internal/message"
	"github.com/lyfeloopinc/bridge-relayer/pkg/bridgeerrors"
)

// RelayMessageTopic is topic0 of the main contract's RelayMessage event,
// which the main->side sign relay job watches for.
var RelayMessageTopic = mainABI.Events["RelayMessage"].ID

// WithdrawTopic is topic0 of the side contract's Withdraw event, which the
// side->main sign relay job watches for.
var WithdrawTopic = sideABI.Events["Withdraw"].ID

// CollectedSignaturesTopic is topic0 of the side contract's
// CollectedSignatures event, which the side->main signatures relay job
// watches for.
var CollectedSignaturesTopic = sideABI.Events["CollectedSignatures"].ID

// RelayMessageLog is the decoded form of a RelayMessage event.
type RelayMessageLog struct {
	MessageID common.Hash
	Sender    common.Address
	Recipient common.Address
}

// DecodeRelayMessage decodes a RelayMessage log emitted by the main
// contract when a main->side transfer is initiated.
func DecodeRelayMessage(log types.Log) (RelayMessageLog, error) {
	if len(log.Topics) < 2 {
		return RelayMessageLog{}, bridgeerrors.New(bridgeerrors.KindDecode, "RelayMessage: missing indexed topic")
	}
	vals, err := mainABI.Events["RelayMessage"].Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return RelayMessageLog{}, bridgeerrors.Wrap(bridgeerrors.KindDecode, err, "unpack RelayMessage")
	}
	return RelayMessageLog{
		MessageID: log.Topics[1],
		Sender:    vals[0].(common.Address),
		Recipient: vals[1].(common.Address),
	}, nil
}

// MessageFromWithdrawLog builds the canonical 116-byte ToMain message from a
// Withdraw event, mirroring MessageToMain::from_log in the original: the
// side transaction hash is taken from the log itself, not from the event
// data, and the event's home_gas_price becomes the message's MainGasPrice.
func MessageFromWithdrawLog(log types.Log) (message.ToMain, error) {
	vals, err := sideABI.Events["Withdraw"].Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return message.ToMain{}, bridgeerrors.Wrap(bridgeerrors.KindDecode, err, "unpack Withdraw")
	}
	return message.ToMain{
		Recipient:    vals[0].(common.Address),
		Value:        vals[1].(*big.Int),
		SideTxHash:   log.TxHash,
		MainGasPrice: vals[2].(*big.Int),
	}, nil
}

// CollectedSignaturesLog is the decoded form of a CollectedSignatures event.
type CollectedSignaturesLog struct {
	AuthorityResponsibleForRelay common.Address
	MessageHash                  common.Hash
}

// DecodeCollectedSignatures decodes a CollectedSignatures log emitted once
// quorum has signed a side->main message.
func DecodeCollectedSignatures(log types.Log) (CollectedSignaturesLog, error) {
	vals, err := sideABI.Events["CollectedSignatures"].Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return CollectedSignaturesLog{}, bridgeerrors.Wrap(bridgeerrors.KindDecode, err, "unpack CollectedSignatures")
	}
	return CollectedSignaturesLog{
		AuthorityResponsibleForRelay: vals[0].(common.Address),
		MessageHash:                  vals[1].(common.Hash),
	}, nil
}
