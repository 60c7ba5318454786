package message

import (
	"github.com/pkg/errors"

	"github.com/lyfeloopinc/bridge-relayer/pkg/bridgeerrors"
)

// SignatureLength is the size in bytes of a serialized Signature.
const SignatureLength = 65

// Signature is an ECDSA signature in r‖s‖v layout, the format the
// transport's `sign` call returns and the contracts expect on submit.
type Signature struct {
	R [32]byte
	S [32]byte
	V byte
}

// SignatureFromBytes parses a 65-byte r‖s‖v signature.
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != SignatureLength {
		return Signature{}, bridgeerrors.New(bridgeerrors.KindDecode, "signature: wrong length")
	}
	var sig Signature
	copy(sig.R[:], b[0:32])
	copy(sig.S[:], b[32:64])
	sig.V = b[64]
	return sig, nil
}

// Bytes serializes the signature to its canonical 65-byte r‖s‖v form.
func (s Signature) Bytes() []byte {
	out := make([]byte, SignatureLength)
	copy(out[0:32], s.R[:])
	copy(out[32:64], s.S[:])
	out[64] = s.V
	return out
}

// Payload ABI-encodes the signature as a single dynamic `bytes` argument.
func (s Signature) Payload() ([]byte, error) {
	packed, err := bytesArgs.Pack(s.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "signature: pack payload")
	}
	return packed, nil
}

// DecodeSignaturePayload is the inverse of Payload.
func DecodeSignaturePayload(data []byte) (Signature, error) {
	vals, err := bytesArgs.Unpack(data)
	if err != nil {
		return Signature{}, bridgeerrors.Wrap(bridgeerrors.KindDecode, err, "signature: unpack payload")
	}
	b, ok := vals[0].([]byte)
	if !ok {
		return Signature{}, bridgeerrors.New(bridgeerrors.KindDecode, "signature: payload not bytes")
	}
	return SignatureFromBytes(b)
}
