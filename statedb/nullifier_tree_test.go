package statedb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/types"
)

func TestNullifierTreeMarkSpent(t *testing.T) {
	n1, n2 := seedWord("nullifier 1"), seedWord("nullifier 2")
	tree := NewNullifierTree()

	_, spent := tree.GetBlockNum(n1)
	require.False(t, spent)
	require.True(t, tree.OpenNullifier(n1).IsUnspent(n1))

	require.NoError(t, tree.MarkSpent([]types.Nullifier{n1}, 3))
	block, spent := tree.GetBlockNum(n1)
	require.True(t, spent)
	require.Equal(t, types.BlockNumber(3), block)
	require.False(t, tree.OpenNullifier(n1).IsUnspent(n1))

	// a batch holding one spent nullifier leaves the tree untouched
	root := tree.Root()
	err := tree.MarkSpent([]types.Nullifier{n2, n1}, 4)
	require.ErrorIs(t, err, blockerrors.ErrMNullifierAlreadySpent)
	require.Equal(t, root, tree.Root())
	require.Equal(t, 1, tree.NumNullifiers())
}

func TestPartialNullifierTreeMatchesFull(t *testing.T) {
	n1, n2, n3 := seedWord("nullifier 1"), seedWord("nullifier 2"), seedWord("nullifier 3")
	full := NewNullifierTree()
	require.NoError(t, full.MarkSpent([]types.Nullifier{n1}, 1))

	partial := NewPartialNullifierTree()
	for _, n := range []types.Nullifier{n1, n2, n3} {
		require.NoError(t, partial.TrackNullifier(full.OpenNullifier(n)))
	}
	require.Equal(t, full.Root(), partial.Root())

	require.NoError(t, partial.MarkSpent([]types.Nullifier{n2, n3}, 2))
	require.NoError(t, full.MarkSpent([]types.Nullifier{n2, n3}, 2))
	require.Equal(t, full.Root(), partial.Root())

	err := partial.MarkSpent([]types.Nullifier{n1}, 2)
	require.ErrorIs(t, err, blockerrors.ErrMNullifierAlreadySpent)
}

func TestPartialNullifierTreeErrors(t *testing.T) {
	n1, n2 := seedWord("nullifier 1"), seedWord("nullifier 2")
	full := NewNullifierTree()

	partial := NewPartialNullifierTree()
	require.NoError(t, partial.TrackNullifier(full.OpenNullifier(n1)))
	require.ErrorIs(t, partial.MarkSpent([]types.Nullifier{n2}, 1), blockerrors.ErrMUntrackedKey)

	// a witness taken after the tree moved opens to another root
	require.NoError(t, full.MarkSpent([]types.Nullifier{n1}, 1))
	err := partial.TrackNullifier(full.OpenNullifier(n2))
	require.ErrorIs(t, err, blockerrors.ErrMConflictingRoots)
}
