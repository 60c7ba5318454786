// Package config loads the bridge relayer's TOML configuration into typed,
// defaulted Go structs, mirroring the original daemon's two-struct
// (raw-from-file vs runtime) pattern from config.rs: optional fields in the
// file get their defaults applied once, here, rather than scattered through
// the rest of the codebase.
package config

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lyfeloopinc/bridge-relayer/pkg/bridgeerrors"
)

const (
	DefaultPollInterval   = time.Second
	DefaultConfirmations  = 12
	DefaultRequestTimeout = 5 * time.Second

	DefaultConfigPath     = "config.toml"
	DefaultCheckpointPath = "checkpoint.toml"
)

// ChainConfig describes one side of the bridge: the authority account used
// to sign and submit transactions, the bridge contract address, the RPC
// endpoint, and the polling parameters for that chain's log stream.
type ChainConfig struct {
	Endpoint              string
	Account               common.Address
	ContractAddress       common.Address
	RequestTimeout        time.Duration
	PollInterval          time.Duration
	RequiredConfirmations uint64
}

// TxConfig is the gas configuration for one kind of outgoing transaction,
// matching the original's per-transaction-kind TransactionConfig.
type TxConfig struct {
	Gas      uint64
	GasPrice *big.Int
}

// Transactions holds the gas configuration for each of the three kinds of
// transaction this daemon submits.
type Transactions struct {
	MainToSideSign       TxConfig
	SideToMainSign       TxConfig
	SideToMainSignatures TxConfig
}

// Authorities is the configured validator set and quorum size used to size
// SideToMainSignaturesOptions.RequiredSignatures. The live on-chain quorum,
// not this value, is authoritative at relay time (see SideContract) — this
// only bounds how many signature slots this relayer will try to collect.
type Authorities struct {
	Accounts           []common.Address
	RequiredSignatures int
}

// Config is the full, defaulted application configuration.
type Config struct {
	Main           ChainConfig
	Side           ChainConfig
	Authorities    Authorities
	Txs            Transactions
	CheckpointPath string
	VerifyValueCoversGas bool
}

// raw mirrors the original's `load::Config`: every chain-level duration and
// confirmation field is optional in the file, defaulted by Load.
type raw struct {
	Main struct {
		Endpoint              string `mapstructure:"endpoint"`
		Account               string `mapstructure:"account"`
		ContractAddress       string `mapstructure:"contract_address"`
		RequestTimeoutSeconds uint64 `mapstructure:"request_timeout"`
		PollIntervalSeconds   uint64 `mapstructure:"poll_interval"`
		RequiredConfirmations uint64 `mapstructure:"required_confirmations"`
	} `mapstructure:"main"`
	Side struct {
		Endpoint              string `mapstructure:"endpoint"`
		Account               string `mapstructure:"account"`
		ContractAddress       string `mapstructure:"contract_address"`
		RequestTimeoutSeconds uint64 `mapstructure:"request_timeout"`
		PollIntervalSeconds   uint64 `mapstructure:"poll_interval"`
		RequiredConfirmations uint64 `mapstructure:"required_confirmations"`
	} `mapstructure:"side"`
	Authorities struct {
		Accounts           []string `mapstructure:"accounts"`
		RequiredSignatures int      `mapstructure:"required_signatures"`
	} `mapstructure:"authorities"`
	Transactions struct {
		MainToSideSign       rawTx `mapstructure:"main_to_side_sign"`
		SideToMainSign       rawTx `mapstructure:"side_to_main_sign"`
		SideToMainSignatures rawTx `mapstructure:"side_to_main_signatures"`
	} `mapstructure:"transactions"`
	CheckpointPath       string `mapstructure:"checkpoint_path"`
	VerifyValueCoversGas bool   `mapstructure:"verify_value_covers_gas"`
}

type rawTx struct {
	Gas      uint64 `mapstructure:"gas"`
	GasPrice uint64 `mapstructure:"gas_price"`
}

// RegisterFlags binds the CLI surface's two flags to v: --config (the
// TOML file to load) and --database (the checkpoint store path, overriding
// CheckpointPath from the file).
func RegisterFlags(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("config", DefaultConfigPath, "path to the TOML configuration file")
	flags.String("database", "", "path to the checkpoint database file (overrides config file)")
	v.BindPFlag("config", flags.Lookup("config"))
	v.BindPFlag("database", flags.Lookup("database"))
}

// Load reads and validates the configuration file at the path bound to v's
// "config" key, applying the original daemon's defaults for any field the
// file leaves unset.
func Load(v *viper.Viper) (Config, error) {
	path := v.GetString("config")
	if path == "" {
		path = DefaultConfigPath
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, bridgeerrors.Wrap(bridgeerrors.KindConfigIO, err, "read config file")
	}

	var r raw
	if err := v.Unmarshal(&r); err != nil {
		return Config{}, bridgeerrors.Wrap(bridgeerrors.KindConfigIO, err, "parse config file")
	}

	cfg, err := fromRaw(r)
	if err != nil {
		return Config{}, err
	}

	if db := v.GetString("database"); db != "" {
		cfg.CheckpointPath = db
	}
	if cfg.CheckpointPath == "" {
		cfg.CheckpointPath = DefaultCheckpointPath
	}

	return cfg, nil
}

func fromRaw(r raw) (Config, error) {
	if len(r.Authorities.Accounts) == 0 {
		return Config{}, bridgeerrors.New(bridgeerrors.KindConfigIO, "authorities.accounts must not be empty")
	}
	if r.Authorities.RequiredSignatures <= 0 {
		return Config{}, bridgeerrors.New(bridgeerrors.KindConfigIO, "authorities.required_signatures must be positive")
	}
	if r.Authorities.RequiredSignatures > len(r.Authorities.Accounts) {
		return Config{}, bridgeerrors.New(bridgeerrors.KindConfigIO, "authorities.required_signatures exceeds the number of accounts")
	}

	accounts := make([]common.Address, len(r.Authorities.Accounts))
	for i, a := range r.Authorities.Accounts {
		accounts[i] = common.HexToAddress(a)
	}

	return Config{
		Main: chainFromRaw(r.Main.Endpoint, r.Main.Account, r.Main.ContractAddress, r.Main.RequestTimeoutSeconds, r.Main.PollIntervalSeconds, r.Main.RequiredConfirmations),
		Side: chainFromRaw(r.Side.Endpoint, r.Side.Account, r.Side.ContractAddress, r.Side.RequestTimeoutSeconds, r.Side.PollIntervalSeconds, r.Side.RequiredConfirmations),
		Authorities: Authorities{
			Accounts:           accounts,
			RequiredSignatures: r.Authorities.RequiredSignatures,
		},
		Txs: Transactions{
			MainToSideSign:       txFromRaw(r.Transactions.MainToSideSign),
			SideToMainSign:       txFromRaw(r.Transactions.SideToMainSign),
			SideToMainSignatures: txFromRaw(r.Transactions.SideToMainSignatures),
		},
		CheckpointPath:       r.CheckpointPath,
		VerifyValueCoversGas: r.VerifyValueCoversGas,
	}, nil
}

func chainFromRaw(endpoint, account, contract string, timeoutSecs, pollSecs, confirmations uint64) ChainConfig {
	requestTimeout := DefaultRequestTimeout
	if timeoutSecs > 0 {
		requestTimeout = time.Duration(timeoutSecs) * time.Second
	}
	pollInterval := DefaultPollInterval
	if pollSecs > 0 {
		pollInterval = time.Duration(pollSecs) * time.Second
	}
	if confirmations == 0 {
		confirmations = DefaultConfirmations
	}

	return ChainConfig{
		Endpoint:              endpoint,
		Account:               common.HexToAddress(account),
		ContractAddress:       common.HexToAddress(contract),
		RequestTimeout:        requestTimeout,
		PollInterval:          pollInterval,
		RequiredConfirmations: confirmations,
	}
}

func txFromRaw(r rawTx) TxConfig {
	gasPrice := new(big.Int)
	if r.GasPrice > 0 {
		gasPrice.SetUint64(r.GasPrice)
	}
	return TxConfig{Gas: r.Gas, GasPrice: gasPrice}
}
