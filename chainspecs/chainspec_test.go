package chainspecs

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/types"
)

func TestReadDevSpec(t *testing.T) {
	spec, err := ReadSpec("dev")
	require.NoError(t, err)
	require.Equal(t, "dev", spec.ID)
	require.Len(t, spec.GenesisAccounts, 5)
	require.Equal(t, common.NewWord(1, 2, 3, 4), spec.TxKernelCommitment)

	alice, ok := spec.Account("alice")
	require.True(t, ok)
	require.Equal(t, types.AccountIdFromSeed([]byte("alice")), alice)
	_, ok = spec.Account("mallory")
	require.False(t, ok)
}

func TestDevGenesis(t *testing.T) {
	spec, err := ReadSpec("dev")
	require.NoError(t, err)
	state, err := spec.Genesis()
	require.NoError(t, err)

	g := state.Tip()
	require.Equal(t, types.GenesisBlockNum, g.BlockNum())
	require.Equal(t, spec.GenesisTimestamp, g.Timestamp())
	require.Equal(t, spec.FeeParameters(), g.FeeParameters())
	require.Equal(t, spec.TxKernelCommitment, g.TxKernelCommitment())
	require.Equal(t, 5, state.Accounts.NumAccounts())

	// genesis is a pure function of the chain spec
	again, err := spec.Genesis()
	require.NoError(t, err)
	require.Equal(t, g.Commitment(), again.Tip().Commitment())
}

func TestReadSpecFromFile(t *testing.T) {
	id := types.NewAccountId(42, 1)
	commitment := common.NewWord(5, 6, 7, 8)
	spec := ChainSpec{
		ID:               "custom",
		GenesisTimestamp: 10,
		GenesisAccounts: []GenesisAccount{
			{Name: "fixed", Id: &id, StateCommitment: &commitment},
			{Name: "twin", Id: func() *types.AccountId { x := types.NewAccountId(42, 2); return &x }()},
		},
	}
	data, err := json.Marshal(spec)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "custom.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := ReadSpec(path)
	require.NoError(t, err)
	require.Equal(t, id, got.GenesisAccounts[0].AccountId())
	require.Equal(t, commitment, got.GenesisAccounts[0].Commitment())

	_, err = got.Genesis()
	require.True(t, errors.Is(err, blockerrors.ErrMDuplicateIdPrefix))

	_, err = ReadSpec(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
