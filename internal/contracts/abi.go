// Package contracts provides typed facades over the main and side bridge
// contracts: encoding calls, decoding return values, and recognizing the
// log topics each relay job watches for.
package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// mainABI and sideABI describe only the methods and events the relay engine
// actually calls or decodes. The bridge's full interface (deployment,
// ownership transfer, pausing) is out of scope per spec's Non-goals on
// deployment and is not represented here.
const mainABIJSON = `[
  {"type":"function","name":"relayedMessages","inputs":[{"name":"messageId","type":"bytes32"}],"outputs":[{"name":"","type":"bytes"}],"stateMutability":"view"},
  {"type":"function","name":"isSideTxRelayed","inputs":[{"name":"sideTxHash","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"view"},
  {"type":"function","name":"relaySideTx","inputs":[{"name":"message","type":"bytes"},{"name":"vs","type":"uint8[]"},{"name":"rs","type":"bytes32[]"},{"name":"ss","type":"bytes32[]"}],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"event","name":"RelayMessage","inputs":[{"name":"messageId","type":"bytes32","indexed":true},{"name":"sender","type":"address","indexed":false},{"name":"recipient","type":"address","indexed":false}],"anonymous":false}
]`

const sideABIJSON = `[
  {"type":"function","name":"isMessageAcceptedFromMain","inputs":[{"name":"mainTxHash","type":"bytes32"},{"name":"message","type":"bytes"},{"name":"sender","type":"address"},{"name":"recipient","type":"address"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"view"},
  {"type":"function","name":"acceptMessageFromMain","inputs":[{"name":"mainTxHash","type":"bytes32"},{"name":"message","type":"bytes"},{"name":"sender","type":"address"},{"name":"recipient","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"hasAuthoritySignedSideToMain","inputs":[{"name":"authority","type":"address"},{"name":"messageHash","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"view"},
  {"type":"function","name":"submitSignature","inputs":[{"name":"message","type":"bytes"},{"name":"signature","type":"bytes"}],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"message","inputs":[{"name":"messageHash","type":"bytes32"}],"outputs":[{"name":"","type":"bytes"}],"stateMutability":"view"},
  {"type":"function","name":"signature","inputs":[{"name":"messageHash","type":"bytes32"},{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"bytes"}],"stateMutability":"view"},
  {"type":"event","name":"CollectedSignatures","inputs":[{"name":"authorityResponsibleForRelay","type":"address","indexed":false},{"name":"messageHash","type":"bytes32","indexed":false}],"anonymous":false},
  {"type":"event","name":"Withdraw","inputs":[{"name":"recipient","type":"address","indexed":false},{"name":"value","type":"uint256","indexed":false},{"name":"homeGasPrice","type":"uint256","indexed":false}],"anonymous":false}
]`

func mustABI(j string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(j))
	if err != nil {
		panic(err)
	}
	return parsed
}

var (
	mainABI = mustABI(mainABIJSON)
	sideABI = mustABI(sideABIJSON)
)
