package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lyfeloopinc/bridge-relayer/internal/chainclient"
	"github.com/lyfeloopinc/bridge-relayer/internal/message"
	"github.com/lyfeloopinc/bridge-relayer/pkg/bridgeerrors"
)

// acceptedCacheSize bounds the idempotence cache below; a single ordered
// relay stream range rarely has more than a few hundred in-flight jobs
// against the same side contract, so this comfortably covers one tick
// without growing unbounded across the process lifetime.
const acceptedCacheSize = 4096

// SideContract is the façade over the authority-operated contract on the
// side chain: accepting main->side messages, collecting signatures over
// side->main messages, and serving the message/signature data other
// authorities' relayers read back out.
type SideContract struct {
	client        chainclient.Client
	address       common.Address
	authorityAddr common.Address

	acceptGas          GasConfig
	submitSignatureGas GasConfig

	// acceptedCache avoids redundant isMessageAcceptedFromMain calls when
	// the ordered relay stream fans out many jobs from the same log range
	// against the same message id in a single tick.
	acceptedCache *lru.Cache[string, bool]
}

func NewSideContract(
	client chainclient.Client,
	address, authority common.Address,
	acceptGas, submitSignatureGas GasConfig,
) (*SideContract, error) {
	cache, err := lru.New[string, bool](acceptedCacheSize)
	if err != nil {
		return nil, bridgeerrors.Wrap(bridgeerrors.KindLogic, err, "new accepted cache")
	}
	return &SideContract{
		client:             client,
		address:            address,
		authorityAddr:      authority,
		acceptGas:          acceptGas,
		submitSignatureGas: submitSignatureGas,
		acceptedCache:      cache,
	}, nil
}

func (s *SideContract) Authority() common.Address { return s.authorityAddr }

func acceptedCacheKey(mainTxHash common.Hash, sender, recipient common.Address) string {
	return fmt.Sprintf("%s:%s:%s", mainTxHash.Hex(), sender.Hex(), recipient.Hex())
}

// IsMessageAcceptedFromMain reports whether this authority already accepted
// the given main->side message, caching a positive answer for the lifetime
// of the process since acceptance is monotonic (never un-accepted).
func (s *SideContract) IsMessageAcceptedFromMain(
	ctx context.Context,
	mainTxHash common.Hash,
	msg []byte,
	sender, recipient common.Address,
) (bool, error) {
	key := acceptedCacheKey(mainTxHash, sender, recipient)
	if v, ok := s.acceptedCache.Get(key); ok && v {
		return true, nil
	}

	data, err := sideABI.Pack("isMessageAcceptedFromMain", mainTxHash, msg, sender, recipient)
	if err != nil {
		return false, bridgeerrors.Wrap(bridgeerrors.KindLogic, err, "pack isMessageAcceptedFromMain")
	}
	out, err := s.client.CallContract(ctx, s.address, data)
	if err != nil {
		return false, err
	}
	vals, err := sideABI.Unpack("isMessageAcceptedFromMain", out)
	if err != nil {
		return false, bridgeerrors.Wrap(bridgeerrors.KindDecode, err, "unpack isMessageAcceptedFromMain")
	}
	accepted := vals[0].(bool)
	if accepted {
		s.acceptedCache.Add(key, true)
	}
	return accepted, nil
}

// AcceptMessageFromMain submits this authority's acceptance of a main->side
// message, unblocking the recipient's side-chain balance once quorum of
// authorities have each accepted it.
func (s *SideContract) AcceptMessageFromMain(
	ctx context.Context,
	mainTxHash common.Hash,
	msg []byte,
	sender, recipient common.Address,
) (common.Hash, error) {
	data, err := sideABI.Pack("acceptMessageFromMain", mainTxHash, msg, sender, recipient)
	if err != nil {
		return common.Hash{}, bridgeerrors.Wrap(bridgeerrors.KindLogic, err, "pack acceptMessageFromMain")
	}
	return s.client.SendTransaction(ctx, s.address, data, s.acceptGas.Gas, s.acceptGas.GasPrice)
}

// IsSideToMainSigned reports whether this authority has already signed off
// on msg.
func (s *SideContract) IsSideToMainSigned(ctx context.Context, msg message.ToMain) (bool, error) {
	hash := msg.Hash()
	data, err := sideABI.Pack("hasAuthoritySignedSideToMain", s.authorityAddr, hash)
	if err != nil {
		return false, bridgeerrors.Wrap(bridgeerrors.KindLogic, err, "pack hasAuthoritySignedSideToMain")
	}
	out, err := s.client.CallContract(ctx, s.address, data)
	if err != nil {
		return false, err
	}
	vals, err := sideABI.Unpack("hasAuthoritySignedSideToMain", out)
	if err != nil {
		return false, bridgeerrors.Wrap(bridgeerrors.KindDecode, err, "unpack hasAuthoritySignedSideToMain")
	}
	return vals[0].(bool), nil
}

// Sign asks the transport to produce a raw (unprefixed) signature over msg
// on behalf of this authority.
func (s *SideContract) Sign(ctx context.Context, msg message.ToMain) (message.Signature, error) {
	raw, err := s.client.Sign(ctx, s.authorityAddr, msg.Hash())
	if err != nil {
		return message.Signature{}, err
	}
	return message.SignatureFromBytes(raw)
}

// SubmitSideToMainSignature records this authority's signature over msg on
// the side contract, contributing towards the quorum needed to emit
// CollectedSignatures.
func (s *SideContract) SubmitSideToMainSignature(ctx context.Context, msg message.ToMain, sig message.Signature) (common.Hash, error) {
	data, err := sideABI.Pack("submitSignature", msg.Bytes(), sig.Bytes())
	if err != nil {
		return common.Hash{}, bridgeerrors.Wrap(bridgeerrors.KindLogic, err, "pack submitSignature")
	}
	return s.client.SendTransaction(ctx, s.address, data, s.submitSignatureGas.Gas, s.submitSignatureGas.GasPrice)
}

// GetMessage fetches the full message bytes previously stored under
// messageHash by submitSignature, returning it decoded.
func (s *SideContract) GetMessage(ctx context.Context, messageHash common.Hash) (message.ToMain, error) {
	data, err := sideABI.Pack("message", messageHash)
	if err != nil {
		return message.ToMain{}, bridgeerrors.Wrap(bridgeerrors.KindLogic, err, "pack message")
	}
	out, err := s.client.CallContract(ctx, s.address, data)
	if err != nil {
		return message.ToMain{}, err
	}
	vals, err := sideABI.Unpack("message", out)
	if err != nil {
		return message.ToMain{}, bridgeerrors.Wrap(bridgeerrors.KindDecode, err, "unpack message")
	}
	return message.FromBytes(vals[0].([]byte))
}

// GetSignature fetches the index'th collected signature over messageHash.
func (s *SideContract) GetSignature(ctx context.Context, messageHash common.Hash, index uint64) (message.Signature, error) {
	data, err := sideABI.Pack("signature", messageHash, new(big.Int).SetUint64(index))
	if err != nil {
		return message.Signature{}, bridgeerrors.Wrap(bridgeerrors.KindLogic, err, "pack signature")
	}
	out, err := s.client.CallContract(ctx, s.address, data)
	if err != nil {
		return message.Signature{}, err
	}
	vals, err := sideABI.Unpack("signature", out)
	if err != nil {
		return message.Signature{}, bridgeerrors.Wrap(bridgeerrors.KindDecode, err, "unpack signature")
	}
	return message.SignatureFromBytes(vals[0].([]byte))
}
