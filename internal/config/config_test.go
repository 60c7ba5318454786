package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) *viper.Viper {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	v := viper.New()
	v.Set("config", path)
	return v
}

func TestLoadFullSetupAppliesExplicitValues(t *testing.T) {
	v := writeConfig(t, `
[main]
endpoint = "ws://mainnet:8546"
account = "0x1111111111111111111111111111111111111111"
contract_address = "0x2222222222222222222222222222222222222222"
poll_interval = 2
required_confirmations = 100

[side]
endpoint = "ws://sidenet:8546"
account = "0x3333333333333333333333333333333333333333"
contract_address = "0x4444444444444444444444444444444444444444"

[authorities]
accounts = [
  "0x0000000000000000000000000000000000000001",
  "0x0000000000000000000000000000000000000002",
  "0x0000000000000000000000000000000000000003",
]
required_signatures = 2

[transactions.main_to_side_sign]
gas = 200000
`)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Main.PollInterval)
	assert.Equal(t, uint64(100), cfg.Main.RequiredConfirmations)
	assert.Equal(t, DefaultRequestTimeout, cfg.Main.RequestTimeout)

	assert.Equal(t, DefaultPollInterval, cfg.Side.PollInterval)
	assert.Equal(t, uint64(DefaultConfirmations), cfg.Side.RequiredConfirmations)

	assert.Equal(t, 2, cfg.Authorities.RequiredSignatures)
	assert.Len(t, cfg.Authorities.Accounts, 3)
	assert.Equal(t, uint64(200000), cfg.Txs.MainToSideSign.Gas)
	assert.Equal(t, DefaultCheckpointPath, cfg.CheckpointPath)
}

func TestLoadRejectsQuorumExceedingAccountCount(t *testing.T) {
	v := writeConfig(t, `
[main]
account = "0x1111111111111111111111111111111111111111"
contract_address = "0x2222222222222222222222222222222222222222"

[side]
account = "0x3333333333333333333333333333333333333333"
contract_address = "0x4444444444444444444444444444444444444444"

[authorities]
accounts = ["0x0000000000000000000000000000000000000001"]
required_signatures = 5
`)

	_, err := Load(v)
	require.Error(t, err)
}

func TestLoadRejectsEmptyAuthoritySet(t *testing.T) {
	v := writeConfig(t, `
[main]
account = "0x1111111111111111111111111111111111111111"
contract_address = "0x2222222222222222222222222222222222222222"

[side]
account = "0x3333333333333333333333333333333333333333"
contract_address = "0x4444444444444444444444444444444444444444"

[authorities]
accounts = []
required_signatures = 1
`)

	_, err := Load(v)
	require.Error(t, err)
}
