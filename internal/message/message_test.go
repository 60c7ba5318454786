package message

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMainBytesExactVector(t *testing.T) {
	value, ok := new(big.Int).SetString("3800000000000000", 10)
	require.True(t, ok)
	mainGasPrice, ok := new(big.Int).SetString("8000000000", 10)
	require.True(t, ok)

	m := ToMain{
		Recipient:    common.HexToAddress("0xeac4a655451e159313c3641e29824e77d6fcb0ce"),
		Value:        value,
		SideTxHash:   common.HexToHash("0x75ebc3036b5a5a758be9a8c0e6f6ed8d46c640dda39845de99d9570ba76798e2"),
		MainGasPrice: mainGasPrice,
	}

	want, err := hex.DecodeString(
		"eac4a655451e159313c3641e29824e77d6fcb0ce" +
			"000000000000000000000000000000000000000000000000000d8014722580" +
			"0075ebc3036b5a5a758be9a8c0e6f6ed8d46c640dda39845de99d9570ba76798e2" +
			"00000000000000000000000000000000000000000000000000000001dcd65000",
	)
	require.NoError(t, err)
	assert.Equal(t, want, m.Bytes())
	assert.Len(t, m.Bytes(), Length)
}

func TestToMainRoundTrip(t *testing.T) {
	m := ToMain{
		Recipient:    common.HexToAddress("0x00000000000000000000000000000000000abc"),
		Value:        big.NewInt(1234567),
		SideTxHash:   common.HexToHash("0x0101010101010101010101010101010101010101010101010101010101010a"),
		MainGasPrice: big.NewInt(20000000000),
	}

	decoded, err := FromBytes(m.Bytes())
	require.NoError(t, err)
	assert.Equal(t, m.Recipient, decoded.Recipient)
	assert.Equal(t, 0, m.Value.Cmp(decoded.Value))
	assert.Equal(t, m.SideTxHash, decoded.SideTxHash)
	assert.Equal(t, 0, m.MainGasPrice.Cmp(decoded.MainGasPrice))

	payload, err := m.Payload()
	require.NoError(t, err)
	decodedFromPayload, err := DecodePayload(payload)
	require.NoError(t, err)
	assert.Equal(t, m.Recipient, decodedFromPayload.Recipient)
	assert.Equal(t, 0, m.Value.Cmp(decodedFromPayload.Value))
}

func TestFromBytesWrongLength(t *testing.T) {
	_, err := FromBytes(make([]byte, 100))
	assert.Error(t, err)
}

func TestZeroValueMessageRoundTrips(t *testing.T) {
	m := ToMain{
		Recipient:    common.HexToAddress("0x0000000000000000000000000000000000dead"),
		Value:        big.NewInt(0),
		SideTxHash:   common.Hash{},
		MainGasPrice: big.NewInt(0),
	}
	decoded, err := FromBytes(m.Bytes())
	require.NoError(t, err)
	assert.Equal(t, int64(0), decoded.Value.Int64())
	assert.Equal(t, int64(0), decoded.MainGasPrice.Int64())
}
