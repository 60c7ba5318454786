package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOMLStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.toml")
	store := &TOMLStore{Path: path}

	want := State{
		MainContractAddress:        common.HexToAddress("0x1000000000000000000000000000000000000001"),
		SideContractAddress:        common.HexToAddress("0x2000000000000000000000000000000000000002"),
		CheckedMainToSideSign:       100,
		CheckedSideToMainSign:       200,
		CheckedSideToMainSignatures: 300,
	}

	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTOMLStoreUsesCanonicalKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.toml")
	store := &TOMLStore{Path: path}

	require.NoError(t, store.Save(State{CheckedMainToSideSign: 42}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "checked_deposit_relay")
	assert.Contains(t, string(raw), "checked_withdraw_confirm")
	assert.Contains(t, string(raw), "checked_withdraw_relay")
}

func TestMonotonicCheckpointNeverRegresses(t *testing.T) {
	current := State{CheckedSideToMainSignatures: 50}
	candidate := uint64(30)
	if candidate > current.CheckedSideToMainSignatures {
		current.CheckedSideToMainSignatures = candidate
	}
	assert.Equal(t, uint64(50), current.CheckedSideToMainSignatures)
}
