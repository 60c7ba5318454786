// Package message implements the byte-exact wire format relayed from the
// side chain to the main chain, and the 65-byte authority signature over it.
package message

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/lyfeloopinc/bridge-relayer/pkg/bridgeerrors"
)

// Length is the size in bytes of a serialized ToMain message.
const Length = 116

// ToMain is the message signed by authorities and ultimately submitted to
// the main contract. Its layout is fixed at 116 bytes, big-endian:
//
//	[0:20]   recipient address
//	[20:52]  value (uint256)
//	[52:84]  side chain transaction hash
//	[84:116] gas price to use on the main chain (uint256)
type ToMain struct {
	Recipient    common.Address
	Value        *big.Int
	SideTxHash   common.Hash
	MainGasPrice *big.Int
}

// FromBytes parses a message previously produced by Bytes. It returns a
// decode error if b is not exactly Length bytes.
func FromBytes(b []byte) (ToMain, error) {
	if len(b) != Length {
		return ToMain{}, bridgeerrors.New(
			bridgeerrors.KindDecode,
			"message: wrong length",
		)
	}
	return ToMain{
		Recipient:    common.BytesToAddress(b[0:20]),
		Value:        new(big.Int).SetBytes(b[20:52]),
		SideTxHash:   common.BytesToHash(b[52:84]),
		MainGasPrice: new(big.Int).SetBytes(b[84:Length]),
	}, nil
}

// Bytes serializes the message to its canonical 116-byte form.
func (m ToMain) Bytes() []byte {
	out := make([]byte, Length)
	copy(out[0:20], m.Recipient.Bytes())
	putBigEndian(out[20:52], m.Value)
	copy(out[52:84], m.SideTxHash.Bytes())
	putBigEndian(out[84:Length], m.MainGasPrice)
	return out
}

// putBigEndian right-aligns v's big-endian bytes within dst, zero-padding
// the high-order (leading) bytes, matching U256::to_big_endian's
// fixed-width behavior.
func putBigEndian(dst []byte, v *big.Int) {
	if v == nil {
		return
	}
	b := v.Bytes()
	if len(b) > len(dst) {
		b = b[len(b)-len(dst):]
	}
	copy(dst[len(dst)-len(b):], b)
}

// Hash returns the keccak256 digest of the message's canonical bytes; this
// is what authorities sign over (no EIP-191 "\x19Ethereum Signed Message"
// prefix is applied — the side contract recovers the raw digest).
func (m ToMain) Hash() common.Hash {
	return crypto.Keccak256Hash(m.Bytes())
}

var bytesArgs = abi.Arguments{{Type: mustType("bytes")}}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// Payload ABI-encodes the message as a single dynamic `bytes` argument.
func (m ToMain) Payload() ([]byte, error) {
	packed, err := bytesArgs.Pack(m.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "message: pack payload")
	}
	return packed, nil
}

// DecodePayload is the inverse of Payload.
func DecodePayload(data []byte) (ToMain, error) {
	vals, err := bytesArgs.Unpack(data)
	if err != nil {
		return ToMain{}, bridgeerrors.Wrap(bridgeerrors.KindDecode, err, "message: unpack payload")
	}
	b, ok := vals[0].([]byte)
	if !ok {
		return ToMain{}, bridgeerrors.New(bridgeerrors.KindDecode, "message: payload not bytes")
	}
	return FromBytes(b)
}
