package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
)

func proposalAfter(t *testing.T, n int) *ProposedBlock {
	_, headers := chainOf(t, n)
	prev := headers[n-1]
	// the proposal carries history through the block before prev
	history, _ := chainOf(t, n-1)
	return &ProposedBlock{
		AccountUpdates:    map[AccountId]AccountUpdateWitness{},
		CreatedNullifiers: map[Nullifier]NullifierWitness{},
		PartialBlockchain: history,
		PrevBlockHeader:   prev,
		Timestamp:         prev.Timestamp() + 1,
	}
}

func TestCheckLimits(t *testing.T) {
	p := proposalAfter(t, 3)
	require.NoError(t, p.CheckLimits())
	require.Equal(t, BlockNumber(3), p.BlockNum())

	p.Timestamp = p.PrevBlockHeader.Timestamp()
	require.ErrorIs(t, p.CheckLimits(), blockerrors.ErrPTimestampNotMonotonic)
	p.Timestamp++

	p.OutputNoteBatches = []OutputNoteBatch{{{Index: 1}, {Index: 1}}}
	require.ErrorIs(t, p.CheckLimits(), blockerrors.ErrPDuplicateOutputNoteIndex)
	p.OutputNoteBatches = []OutputNoteBatch{{{Index: MaxOutputNotesPerBatch}}}
	require.ErrorIs(t, p.CheckLimits(), blockerrors.ErrPTooManyOutputNotes)
	p.OutputNoteBatches = make([]OutputNoteBatch, MaxBatchesPerBlock+1)
	require.ErrorIs(t, p.CheckLimits(), blockerrors.ErrPTooManyBatches)
	p.OutputNoteBatches = nil

	p.PartialBlockchain, _ = chainOf(t, 3)
	require.ErrorIs(t, p.CheckLimits(), blockerrors.ErrPChainLengthMismatch)
}

func TestSortedInputs(t *testing.T) {
	p := proposalAfter(t, 2)
	a, b := NewAccountId(9, 0), NewAccountId(2, 5)
	p.AccountUpdates[a] = AccountUpdateWitness{}
	p.AccountUpdates[b] = AccountUpdateWitness{}
	require.Equal(t, []AccountId{b, a}, SortedAccountIds(p.AccountUpdates))

	n1, n2 := common.NewWord(0, 0, 0, 7), common.NewWord(5, 0, 0, 3)
	p.CreatedNullifiers[n1] = NullifierWitness{}
	p.CreatedNullifiers[n2] = NullifierWitness{}
	require.Equal(t, []Nullifier{n2, n1}, SortedNullifiers(p.CreatedNullifiers))

	p.Batches = []ProvenBatch{
		NewProvenBatch([]TransactionHeader{{Id: common.NewWord(1, 0, 0, 0)}}),
		NewProvenBatch([]TransactionHeader{{Id: common.NewWord(2, 0, 0, 0)}, {Id: common.NewWord(3, 0, 0, 0)}}),
	}
	txs := p.Transactions()
	require.Len(t, txs, 3)
	require.Equal(t, common.NewWord(3, 0, 0, 0), txs[2].Id)
}
