package logstream

import (
	"context"
	"math/big"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lyfeloopinc/bridge-relayer/internal/chainclient"
)

// TestTwoTicksYieldTwoConfirmedRanges mirrors the original's test_log_stream:
// at head 0x1011 with 12 confirmations and after=3, the first confirmed
// range is [4, 0x1005]; at head 0x1012 the next range is [0x1006, 0x1006].
func TestTwoTicksYieldTwoConfirmedRanges(t *testing.T) {
	address := common.HexToAddress("0x0000000000000000000000000000000000000001")

	heads := []uint64{0x1011, 0x1012}
	headIdx := 0
	var filterCalls []ethereum.FilterQuery

	fake := &chainclient.Fake{
		BlockNumberFunc: func(ctx context.Context) (uint64, error) {
			h := heads[headIdx]
			headIdx++
			return h, nil
		},
		FilterLogsFunc: func(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
			filterCalls = append(filterCalls, q)
			return nil, nil
		},
	}

	s := New(fake, zap.NewNop(), Options{
		Address:       address,
		PollInterval:  time.Millisecond,
		Confirmations: 12,
		After:         3,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	r1 := <-s.Ranges()
	assert.Equal(t, uint64(4), r1.From)
	assert.Equal(t, uint64(0x1005), r1.To)

	r2 := <-s.Ranges()
	assert.Equal(t, uint64(0x1006), r2.From)
	assert.Equal(t, uint64(0x1006), r2.To)

	cancel()
	_, open := <-s.Ranges()
	assert.False(t, open)

	require.Len(t, filterCalls, 2)
	assert.Equal(t, big.NewInt(4), filterCalls[0].FromBlock)
	assert.Equal(t, big.NewInt(0x1005), filterCalls[0].ToBlock)
	assert.Equal(t, big.NewInt(0x1006), filterCalls[1].FromBlock)
	assert.Equal(t, big.NewInt(0x1006), filterCalls[1].ToBlock)
}

func TestNoNewConfirmedBlocksYieldsNothing(t *testing.T) {
	address := common.HexToAddress("0x0000000000000000000000000000000000000001")

	fake := &chainclient.Fake{
		BlockNumberFunc: func(ctx context.Context) (uint64, error) {
			return 10, nil
		},
		FilterLogsFunc: func(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
			t.Fatal("FilterLogs should not be called when nothing is newly confirmed")
			return nil, nil
		},
	}

	s := New(fake, zap.NewNop(), Options{
		Address:       address,
		PollInterval:  time.Millisecond,
		Confirmations: 12,
		After:         0,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	select {
	case <-s.Ranges():
		t.Fatal("did not expect a range")
	case <-time.After(20 * time.Millisecond):
	}
}
