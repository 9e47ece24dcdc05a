package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/rollup/chainspecs"
	"github.com/colorfulnotion/rollup/statedb"
	"github.com/colorfulnotion/rollup/storage"
	"github.com/colorfulnotion/rollup/types"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestDemoChain(t *testing.T) {
	spec, err := chainspecs.ReadSpec("dev")
	require.NoError(t, err)
	state, err := spec.Genesis()
	require.NoError(t, err)
	kv, err := storage.OpenKVStore(storage.BackendLevelDB, "")
	require.NoError(t, err)
	store, err := storage.NewChainStore(kv, 8)
	require.NoError(t, err)
	defer store.Close()

	var out bytes.Buffer
	d := &demo{spec: spec, state: state, store: store, builder: statedb.BuilderConfig{Parallel: true}, tree: true, out: &out}
	require.NoError(t, d.run(context.Background(), 4))

	latest, found, err := store.LatestBlockNum()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, types.BlockNumber(4), latest)
	require.Equal(t, 4*demoBatchesPerBlock*demoTxsPerBatch, state.Nullifiers.NumNullifiers())
	require.Equal(t, 5, strings.Count(out.String(), "commitment"))
	require.Contains(t, out.String(), "MMR forest=5 peaks=2")
}

func TestBuildAndVerifyCommands(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, "--backend", "badger", "demo", "--blocks", "2", "--out-dir", dir)
	require.NoError(t, err, out)

	proposal := filepath.Join(dir, "block-2.proposal.json")
	header := filepath.Join(dir, "block-2.header.json")

	out, err = runCLI(t, "verify", "--proposal", proposal, "--expected", header)
	require.NoError(t, err, out)
	require.Contains(t, out, "matches")

	out, err = runCLI(t, "--parallel", "build", "--proposal", proposal)
	require.NoError(t, err, out)
	want, err := os.ReadFile(header)
	require.NoError(t, err)
	diff, modified, err := diffJSON(want, []byte(out))
	require.NoError(t, err)
	require.False(t, modified, diff)

	// a header from another block must not verify
	out, err = runCLI(t, "verify", "--proposal", proposal, "--expected", filepath.Join(dir, "block-1.header.json"))
	require.Error(t, err)
	require.Contains(t, out, "block_num")
}

func TestGenesisCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	out, err := runCLI(t, "--data-dir", t.TempDir(), "genesis", "--out", path)
	require.NoError(t, err, out)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var h types.BlockHeader
	require.NoError(t, h.UnmarshalJSON(data))
	require.Equal(t, types.GenesisBlockNum, h.BlockNum())

	_, err = runCLI(t, "--log-level", "loud", "genesis")
	require.Error(t, err)
}
