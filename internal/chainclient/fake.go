package chainclient

import (
	"context"
	"math/big"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Fake is an in-memory Client used by tests in this module and its
// dependents, replacing the original's hand-rolled mock_transport! macro
// with a settable func field per method; every call's name is appended to
// Calls.
type Fake struct {
	mu sync.Mutex

	BlockNumberFunc      func(ctx context.Context) (uint64, error)
	FilterLogsFunc       func(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	CallContractFunc     func(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	SendTransactionFunc  func(ctx context.Context, to common.Address, data []byte, gas uint64, gasPrice *big.Int) (common.Hash, error)
	TransactionReceiptFn func(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	SignFunc             func(ctx context.Context, account common.Address, digest common.Hash) ([]byte, error)

	Calls []string
}

var _ Client = (*Fake)(nil)

func (f *Fake) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, name)
}

func (f *Fake) BlockNumber(ctx context.Context) (uint64, error) {
	f.record("block_number")
	return f.BlockNumberFunc(ctx)
}

func (f *Fake) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.record("filter_logs")
	return f.FilterLogsFunc(ctx, q)
}

func (f *Fake) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	f.record("call")
	return f.CallContractFunc(ctx, to, data)
}

func (f *Fake) SendTransaction(ctx context.Context, to common.Address, data []byte, gas uint64, gasPrice *big.Int) (common.Hash, error) {
	f.record("send_transaction")
	return f.SendTransactionFunc(ctx, to, data, gas, gasPrice)
}

func (f *Fake) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.record("transaction_receipt")
	return f.TransactionReceiptFn(ctx, txHash)
}

func (f *Fake) Sign(ctx context.Context, account common.Address, digest common.Hash) ([]byte, error) {
	f.record("sign")
	return f.SignFunc(ctx, account, digest)
}
