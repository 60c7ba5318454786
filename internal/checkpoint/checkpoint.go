// Package checkpoint defines the persisted relay progress — the block
// numbers up to which each relay direction has fully completed — and a
// TOML-backed store compatible with the original daemon's on-disk format.
package checkpoint

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	"github.com/lyfeloopinc/bridge-relayer/pkg/bridgeerrors"
)

// State is the bridge's persisted progress. Field names and TOML keys
// match the original daemon's database.rs schema so an existing on-disk
// checkpoint from that daemon remains forward-readable.
type State struct {
	MainContractAddress common.Address `toml:"mainnet_contract_address"`
	SideContractAddress  common.Address `toml:"testnet_contract_address"`

	// MainDeployBlock/SideDeployBlock are carried for forward on-disk
	// compatibility with the original database format; this daemon never
	// deploys contracts (out of scope) and does not read these fields
	// itself.
	MainDeployBlock uint64 `toml:"mainnet_deploy"`
	SideDeployBlock uint64 `toml:"testnet_deploy"`

	CheckedMainToSideSign       uint64 `toml:"checked_deposit_relay"`
	CheckedSideToMainSign       uint64 `toml:"checked_withdraw_confirm"`
	CheckedSideToMainSignatures uint64 `toml:"checked_withdraw_relay"`
}

// Store persists and reloads a checkpoint. The on-disk file format and I/O
// are owned by this package; a config/database file's existence and
// validity is an external-collaborator concern per the CLI surface, not
// the relay engine's.
type Store interface {
	Load() (State, error)
	Save(State) error
}

// TOMLStore reads and writes a State as TOML at a fixed path.
type TOMLStore struct {
	Path string
}

func (s *TOMLStore) Load() (State, error) {
	var st State
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return State{}, bridgeerrors.Wrap(bridgeerrors.KindConfigIO, err, "read checkpoint")
	}
	if err := toml.Unmarshal(data, &st); err != nil {
		return State{}, bridgeerrors.Wrap(bridgeerrors.KindConfigIO, err, "parse checkpoint")
	}
	return st, nil
}

func (s *TOMLStore) Save(st State) error {
	f, err := os.Create(s.Path)
	if err != nil {
		return bridgeerrors.Wrap(bridgeerrors.KindConfigIO, err, "create checkpoint file")
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(st); err != nil {
		return bridgeerrors.Wrap(bridgeerrors.KindConfigIO, err, "encode checkpoint")
	}
	return nil
}
