package trie

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
)

func testEntries() []SmtEntry {
	return []SmtEntry{
		{Key: common.NewWord(1, 0, 7, 100), Value: common.NewWord(11, 12, 13, 14)},
		{Key: common.NewWord(2, 0, 8, 200), Value: common.NewWord(21, 22, 23, 24)},
		{Key: common.NewWord(3, 0, 9, 1<<63), Value: common.NewWord(31, 32, 33, 34)},
		// shares leaf 100 with the first key
		{Key: common.NewWord(4, 0, 1, 100), Value: common.NewWord(41, 42, 43, 44)},
	}
}

func TestEmptyRoots(t *testing.T) {
	require.Equal(t, EmptySubtreeRoot(SmtDepth), NewSmt().Root())
	require.Equal(t, EmptySubtreeRoot(SmtDepth), NewPartialSmt().Root())
	simple, err := NewSimpleSmt(16)
	require.NoError(t, err)
	require.Equal(t, EmptySubtreeRoot(16), simple.Root())
	require.Equal(t, common.Merge(common.EmptyWord, common.EmptyWord), EmptySubtreeRoot(1))
}

func TestSmtInsertOpenRemove(t *testing.T) {
	smt := NewSmt()
	for _, e := range testEntries() {
		require.True(t, smt.Insert(e.Key, e.Value).IsEmpty())
	}
	require.Equal(t, 3, smt.NumLeaves())
	require.Equal(t, 4, smt.NumEntries())

	root := smt.Root()
	for _, e := range testEntries() {
		require.Equal(t, e.Value, smt.Get(e.Key))
		proof := smt.Open(e.Key)
		require.True(t, proof.Verify(e.Key, e.Value, root))
		require.False(t, proof.Verify(e.Key, common.NewWord(9, 9, 9, 9), root))
	}

	leaf := smt.GetLeaf(testEntries()[0].Key)
	require.Equal(t, 2, leaf.NumEntries())
	require.Equal(t, -1, leaf.Entries[0].Key.Cmp(leaf.Entries[1].Key))

	// absent key proves the empty value
	absent := common.NewWord(5, 5, 5, 5)
	require.True(t, smt.Open(absent).Verify(absent, common.EmptyWord, root))

	for _, e := range testEntries() {
		require.Equal(t, e.Value, smt.Insert(e.Key, common.EmptyWord))
	}
	require.Equal(t, EmptySubtreeRoot(SmtDepth), smt.Root())
	require.Zero(t, smt.NumLeaves())
}

func TestSmtBatchMatchesSequential(t *testing.T) {
	seq := NewSmt()
	for _, e := range testEntries() {
		seq.Insert(e.Key, e.Value)
	}
	batch, err := SmtWithEntries(testEntries())
	require.NoError(t, err)
	require.Equal(t, seq.Root(), batch.Root())
	require.ElementsMatch(t, seq.Entries(), batch.Entries())

	_, err = SmtWithEntries(append(testEntries(), testEntries()[0]))
	require.ErrorIs(t, err, blockerrors.ErrMDuplicateKey)
}

func TestPartialSmtMatchesFull(t *testing.T) {
	entries := testEntries()
	full, err := SmtWithEntries(entries)
	require.NoError(t, err)

	newKey := common.NewWord(6, 6, 6, 600)
	partial, err := PartialSmtFromProofs(full.Open(entries[0].Key), full.Open(entries[2].Key), full.Open(newKey))
	require.NoError(t, err)
	require.Equal(t, full.Root(), partial.Root())
	require.Equal(t, 3, partial.NumTrackedLeaves())

	updates := []SmtEntry{
		{Key: entries[0].Key, Value: common.NewWord(1, 1, 1, 1)},
		{Key: entries[2].Key, Value: common.EmptyWord},
		{Key: newKey, Value: common.NewWord(7, 7, 7, 7)},
	}
	full.InsertBatch(updates)
	require.NoError(t, partial.InsertBatch(updates))
	require.Equal(t, full.Root(), partial.Root())

	// the untouched neighbour in leaf 100 is still known
	got, err := partial.Get(entries[3].Key)
	require.NoError(t, err)
	require.Equal(t, entries[3].Value, got)

	proof, err := partial.Open(newKey)
	require.NoError(t, err)
	require.True(t, proof.Verify(newKey, common.NewWord(7, 7, 7, 7), full.Root()))

	_, err = partial.Insert(entries[1].Key, common.NewWord(1, 2, 3, 4))
	require.ErrorIs(t, err, blockerrors.ErrMUntrackedKey)
	require.ErrorIs(t, partial.InsertBatch([]SmtEntry{{Key: entries[1].Key}}), blockerrors.ErrMUntrackedKey)
}

func TestPartialSmtConflictingRoots(t *testing.T) {
	entries := testEntries()
	a, err := SmtWithEntries(entries[:2])
	require.NoError(t, err)
	b, err := SmtWithEntries(entries[:3])
	require.NoError(t, err)

	partial := NewPartialSmt()
	require.NoError(t, partial.AddProof(a.Open(entries[0].Key)))
	require.ErrorIs(t, partial.AddProof(b.Open(entries[1].Key)), blockerrors.ErrMConflictingRoots)
	require.Equal(t, a.Root(), partial.Root())
	require.False(t, partial.IsTracked(entries[1].Key))

	short := a.Open(entries[0].Key)
	short.Path = short.Path[:10]
	require.ErrorIs(t, partial.AddProof(short), blockerrors.ErrMInvalidPathLength)
}

func TestPartialSmtTrackingOrderIndependent(t *testing.T) {
	entries := testEntries()
	full, err := SmtWithEntries(entries)
	require.NoError(t, err)

	p1, err := PartialSmtFromProofs(full.Open(entries[0].Key), full.Open(entries[1].Key), full.Open(entries[2].Key))
	require.NoError(t, err)
	p2, err := PartialSmtFromProofs(full.Open(entries[2].Key), full.Open(entries[0].Key), full.Open(entries[1].Key))
	require.NoError(t, err)

	update := []SmtEntry{{Key: entries[1].Key, Value: common.NewWord(5, 4, 3, 2)}}
	require.NoError(t, p1.InsertBatch(update))
	require.NoError(t, p2.InsertBatch(update))
	require.Equal(t, p1.Root(), p2.Root())
}

func TestSimpleSmt(t *testing.T) {
	leaves := []SimpleLeaf{
		{Index: 0, Value: common.NewWord(1, 0, 0, 0)},
		{Index: 1025, Value: common.NewWord(2, 0, 0, 0)},
		{Index: 65535, Value: common.NewWord(3, 0, 0, 0)},
	}
	tree, err := SimpleSmtWithLeaves(16, leaves)
	require.NoError(t, err)
	require.Equal(t, 3, tree.NumLeaves())

	seq, err := NewSimpleSmt(16)
	require.NoError(t, err)
	for _, l := range leaves {
		_, err := seq.Insert(l.Index, l.Value)
		require.NoError(t, err)
	}
	require.Equal(t, tree.Root(), seq.Root())

	for _, l := range leaves {
		path, err := tree.Open(l.Index)
		require.NoError(t, err)
		require.Len(t, path, 16)
		require.True(t, path.Verify(l.Index, l.Value, tree.Root()))
	}

	_, err = SimpleSmtWithLeaves(16, append(leaves, SimpleLeaf{Index: 1025, Value: common.NewWord(9, 0, 0, 0)}))
	require.ErrorIs(t, err, blockerrors.ErrMDuplicateValuesForIndex)
	_, err = SimpleSmtWithLeaves(16, []SimpleLeaf{{Index: 1 << 16, Value: common.NewWord(1, 0, 0, 0)}})
	require.ErrorIs(t, err, blockerrors.ErrMIndexOutOfRange)
	_, err = tree.Insert(1<<16, common.EmptyWord)
	require.ErrorIs(t, err, blockerrors.ErrMIndexOutOfRange)
	_, err = NewSimpleSmt(0)
	require.Error(t, err)
}

func TestMerklePathRejectsOutOfRange(t *testing.T) {
	path := MerklePath{common.EmptyWord, common.EmptyWord}
	_, err := path.ComputeRoot(4, common.EmptyWord)
	require.ErrorIs(t, err, blockerrors.ErrMIndexOutOfRange)
	root, err := path.ComputeRoot(3, common.EmptyWord)
	require.NoError(t, err)
	require.Equal(t, EmptySubtreeRoot(2), root)
}

func TestPartialSmtToTree(t *testing.T) {
	entries := testEntries()
	full, err := SmtWithEntries(entries)
	require.NoError(t, err)
	newKey := common.NewWord(6, 6, 6, 600)
	partial, err := PartialSmtFromProofs(full.Open(entries[0].Key), full.Open(newKey))
	require.NoError(t, err)

	out := partial.ToTree().String()
	require.Contains(t, out, "tracked=2")
	require.Contains(t, out, "leaf 600")
}

func TestNodeIndex(t *testing.T) {
	idx, err := NewNodeIndex(3, 7)
	require.NoError(t, err)
	require.Equal(t, "(3,7)", idx.String())
	require.True(t, idx.IsRightChild())
	require.Equal(t, NodeIndex{Depth: 2, Value: 3}, idx.Parent())
	require.Equal(t, NodeIndex{Depth: 3, Value: 6}, idx.Sibling())

	_, err = NewNodeIndex(3, 8)
	require.ErrorIs(t, err, blockerrors.ErrMIndexOutOfRange)
	_, err = NewNodeIndex(SmtDepth, ^uint64(0))
	require.NoError(t, err)
}
