package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lyfeloopinc/bridge-relayer/internal/chainclient"
	"github.com/lyfeloopinc/bridge-relayer/internal/message"
	"github.com/lyfeloopinc/bridge-relayer/pkg/bridgeerrors"
)

// GasConfig carries the gas limit and price this daemon uses for a
// particular transaction kind, set once from config at startup. Gas price
// oracle logic is explicitly out of scope (spec Non-goal); these are static.
type GasConfig struct {
	Gas      uint64
	GasPrice *big.Int
}

// MainContract is the façade over the authority-operated contract on the
// main chain: relaying side->main messages once a quorum of signatures has
// been collected, and answering whether a given message has already been
// relayed.
type MainContract struct {
	client          chainclient.Client
	address         common.Address
	authorityAddr   common.Address
	relaySideTxGas  GasConfig
}

func NewMainContract(client chainclient.Client, address, authority common.Address, relaySideTxGas GasConfig) *MainContract {
	return &MainContract{client: client, address: address, authorityAddr: authority, relaySideTxGas: relaySideTxGas}
}

func (m *MainContract) Authority() common.Address { return m.authorityAddr }

// RelayedMessageByID fetches the main->side message previously stored under
// messageID by `RelayMessage`, returning its raw ABI-decoded bytes.
func (m *MainContract) RelayedMessageByID(ctx context.Context, messageID common.Hash) ([]byte, error) {
	data, err := mainABI.Pack("relayedMessages", messageID)
	if err != nil {
		return nil, bridgeerrors.Wrap(bridgeerrors.KindLogic, err, "pack relayedMessages")
	}
	out, err := m.client.CallContract(ctx, m.address, data)
	if err != nil {
		return nil, err
	}
	vals, err := mainABI.Unpack("relayedMessages", out)
	if err != nil {
		return nil, bridgeerrors.Wrap(bridgeerrors.KindDecode, err, "unpack relayedMessages")
	}
	return vals[0].([]byte), nil
}

// IsSideTxRelayed reports whether the side chain transaction identified by
// sideTxHash has already been relayed to main.
func (m *MainContract) IsSideTxRelayed(ctx context.Context, sideTxHash common.Hash) (bool, error) {
	data, err := mainABI.Pack("isSideTxRelayed", sideTxHash)
	if err != nil {
		return false, bridgeerrors.Wrap(bridgeerrors.KindLogic, err, "pack isSideTxRelayed")
	}
	out, err := m.client.CallContract(ctx, m.address, data)
	if err != nil {
		return false, err
	}
	vals, err := mainABI.Unpack("isSideTxRelayed", out)
	if err != nil {
		return false, bridgeerrors.Wrap(bridgeerrors.KindDecode, err, "unpack isSideTxRelayed")
	}
	return vals[0].(bool), nil
}

// RelaySideTx submits the message plus the collected authority signatures
// to the main contract, which validates quorum and performs the payout.
func (m *MainContract) RelaySideTx(ctx context.Context, msg message.ToMain, sigs []message.Signature) (common.Hash, error) {
	vs := make([]uint8, len(sigs))
	rs := make([][32]byte, len(sigs))
	ss := make([][32]byte, len(sigs))
	for i, s := range sigs {
		vs[i] = s.V
		rs[i] = s.R
		ss[i] = s.S
	}
	data, err := mainABI.Pack("relaySideTx", msg.Bytes(), vs, rs, ss)
	if err != nil {
		return common.Hash{}, bridgeerrors.Wrap(bridgeerrors.KindLogic, err, "pack relaySideTx")
	}
	// Gas limit is our own config; gas price is the sender's pre-committed
	// fee embedded in the message, never a locally configured value.
	return m.client.SendTransaction(ctx, m.address, data, m.relaySideTxGas.Gas, msg.MainGasPrice)
}
