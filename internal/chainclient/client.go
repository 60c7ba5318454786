// Package chainclient defines the narrow RPC surface the relay engine needs
// against either chain, and an implementation backed by go-ethereum's
// ethclient/rpc packages.
package chainclient

import (
	"context"
	"errors"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/lyfeloopinc/bridge-relayer/internal/metrics"
	"github.com/lyfeloopinc/bridge-relayer/pkg/bridgeerrors"
)

// Client is the transport contract every other component depends on. A
// single Client is safe for concurrent use by many goroutines: the
// underlying JSON-RPC client multiplexes in-flight requests by id.
type Client interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	SendTransaction(ctx context.Context, to common.Address, data []byte, gas uint64, gasPrice *big.Int) (common.Hash, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Sign(ctx context.Context, account common.Address, digest common.Hash) ([]byte, error)
}

// ethClient implements Client over a real JSON-RPC endpoint.
type ethClient struct {
	eth     *ethclient.Client
	rpc     *rpc.Client
	account common.Address
	logger  *zap.Logger
	timeout time.Duration
	chain   string
}

// Dial connects to an RPC endpoint (http(s)://, ws(s)://, or ipc path,
// anything go-ethereum's rpc.DialContext accepts). account is the address
// this client signs on behalf of when Sign is called — the transport's
// `eth_sign` keeps custody of the private key, this package never touches
// key material directly (spec Non-goal: key custody/rotation). chain labels
// this client's RPC error metrics, e.g. "main" or "side".
func Dial(ctx context.Context, endpoint string, account common.Address, timeout time.Duration, chain string, logger *zap.Logger) (Client, error) {
	rc, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, bridgeerrors.Wrap(bridgeerrors.KindTransport, err, "dial "+endpoint)
	}
	return &ethClient{
		eth:     ethclient.NewClient(rc),
		rpc:     rc,
		account: account,
		logger:  logger,
		timeout: timeout,
		chain:   chain,
	}, nil
}

func (c *ethClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *ethClient) BlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, classify(c.chain, err, "block_number")
	}
	return n, nil
}

func (c *ethClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	logs, err := c.eth.FilterLogs(ctx, q)
	if err != nil {
		return nil, classify(c.chain, err, "get_logs")
	}
	return logs, nil
}

func (c *ethClient) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, classify(c.chain, err, "call")
	}
	return out, nil
}

func (c *ethClient) SendTransaction(ctx context.Context, to common.Address, data []byte, gas uint64, gasPrice *big.Int) (common.Hash, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	nonce, err := c.eth.PendingNonceAt(ctx, c.account)
	if err != nil {
		return common.Hash{}, classify(c.chain, err, "pending_nonce")
	}
	tx := types.NewTransaction(nonce, to, big.NewInt(0), gas, gasPrice, data)

	var signed *types.Transaction
	if err := c.rpc.CallContext(ctx, &signed, "eth_signTransaction", toSignArgs(c.account, tx)); err != nil {
		return common.Hash{}, classify(c.chain, err, "sign_transaction")
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, classify(c.chain, err, "send_transaction")
	}
	c.logger.Info("sent transaction", zap.String("to", to.Hex()), zap.String("hash", signed.Hash().Hex()))
	return signed.Hash(), nil
}

func (c *ethClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	receipt, err := c.eth.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, classify(c.chain, err, "transaction_receipt")
	}
	return receipt, nil
}

// Sign requests a raw signature (no EIP-191 prefix) over digest from the
// node's keystore for account, matching the original's raw `eth_sign`
// usage over the 116-byte message hash.
func (c *ethClient) Sign(ctx context.Context, account common.Address, digest common.Hash) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	var sig []byte
	if err := c.rpc.CallContext(ctx, &sig, "eth_sign", account, digest); err != nil {
		return nil, classify(c.chain, err, "sign")
	}
	return sig, nil
}

func toSignArgs(from common.Address, tx *types.Transaction) map[string]interface{} {
	return map[string]interface{}{
		"from":     from,
		"to":       tx.To(),
		"gas":      hexutil.Uint64(tx.Gas()),
		"gasPrice": (*hexutil.Big)(tx.GasPrice()),
		"data":     hexutil.Bytes(tx.Data()),
	}
}

func classify(chain string, err error, op string) error {
	metrics.ObserveRPCError(chain, op)
	if errors.Is(err, context.DeadlineExceeded) {
		return bridgeerrors.Wrap(bridgeerrors.KindTimeout, err, op)
	}
	return bridgeerrors.Wrap(bridgeerrors.KindTransport, err, op)
}
