package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/trie"
)

func TestAccountIdKey(t *testing.T) {
	id := NewAccountId(0xdead, 0xbeef)
	key := id.SmtKey()
	require.Equal(t, common.NewWord(0, 0, 0xbeef, 0xdead), key)
	require.Equal(t, uint64(0xdead), trie.LeafIndex(key))
	require.Equal(t, id, AccountIdFromKey(key))
}

func TestAccountIdText(t *testing.T) {
	id := AccountIdFromSeed([]byte("alice"))
	text, err := id.MarshalText()
	require.NoError(t, err)
	require.Len(t, text, 34)

	var got AccountId
	require.NoError(t, got.UnmarshalText(text))
	require.Equal(t, id, got)
	require.Error(t, got.UnmarshalText([]byte("0x1234")))

	// ids are usable as JSON object keys
	m := map[AccountId]uint32{id: 1, NewAccountId(0, 1): 2}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	var back map[AccountId]uint32
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, m, back)
}

func TestAccountWitnessLeaf(t *testing.T) {
	id := NewAccountId(5, 6)
	empty := AccountWitness{Id: id}
	require.True(t, empty.Leaf().IsEmpty())
	require.Equal(t, uint64(5), empty.Leaf().Index)

	w := AccountWitness{Id: id, StateCommitment: common.NewWord(1, 2, 3, 4)}
	require.Equal(t, common.NewWord(1, 2, 3, 4), w.Leaf().Get(id.SmtKey()))
}

func TestNoteMetadataWord(t *testing.T) {
	m := NoteMetadata{Sender: NewAccountId(10, 20), NoteType: NoteTypePrivate, Tag: 7, Aux: 99}
	require.Equal(t, common.NewWord(10, 20, 2<<32|7, 99), m.ToWord())

	h := NoteHeader{Id: common.NewWord(1, 1, 1, 1), Metadata: m}
	require.Equal(t, common.Merge(h.Id, m.ToWord()), h.Commitment())
}

func TestBlockNoteIndex(t *testing.T) {
	idx, err := NewBlockNoteIndex(2, 5)
	require.NoError(t, err)
	require.Equal(t, uint64(2*1024+5), idx.LeafIndex())

	last, err := NewBlockNoteIndex(MaxBatchesPerBlock-1, MaxOutputNotesPerBatch-1)
	require.NoError(t, err)
	require.Equal(t, uint64(1<<BlockNoteTreeDepth-1), last.LeafIndex())

	_, err = NewBlockNoteIndex(MaxBatchesPerBlock, 0)
	require.Error(t, err)
	_, err = NewBlockNoteIndex(0, MaxOutputNotesPerBatch)
	require.Error(t, err)
}

func TestNullifierValue(t *testing.T) {
	v := NullifierValue(12)
	require.Equal(t, common.NewWord(12, 0, 0, 0), v)
	n, ok := NullifierBlock(v)
	require.True(t, ok)
	require.Equal(t, BlockNumber(12), n)
	_, ok = NullifierBlock(common.EmptyWord)
	require.False(t, ok)
}

func TestTxCommitmentOrder(t *testing.T) {
	a := TransactionHeader{Id: common.NewWord(1, 0, 0, 0), AccountId: NewAccountId(1, 2)}
	b := TransactionHeader{Id: common.NewWord(2, 0, 0, 0), AccountId: NewAccountId(3, 4)}
	require.NotEqual(t, ComputeTxCommitment([]TransactionHeader{a, b}), ComputeTxCommitment([]TransactionHeader{b, a}))
	require.Equal(t, common.EmptyWord, ComputeTxCommitment(nil))

	want := common.HashElements([]common.Felt{
		a.Id[0], a.Id[1], a.Id[2], a.Id[3], a.AccountId.Prefix, a.AccountId.Suffix, common.ZERO, common.ZERO,
	})
	require.Equal(t, want, ComputeTxCommitment([]TransactionHeader{a}))
	require.Equal(t, want, NewProvenBatch([]TransactionHeader{a}).Id)
}
