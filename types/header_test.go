package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/rollup/common"
)

func testHeader(blockNum BlockNumber, noteRoot common.Word) *BlockHeader {
	return NewBlockHeader(
		ProtocolVersion,
		common.WordFromSeed([]byte("prev")),
		blockNum,
		common.WordFromSeed([]byte("chain")),
		common.WordFromSeed([]byte("accounts")),
		common.WordFromSeed([]byte("nullifiers")),
		noteRoot,
		common.WordFromSeed([]byte("txs")),
		common.WordFromSeed([]byte("kernel")),
		common.EmptyWord,
		FeeParameters{NativeAssetId: NewAccountId(0xaa00, 0x11), VerificationBaseFee: 500},
		1_700_000_000,
	)
}

func TestCommitmentDecomposition(t *testing.T) {
	h := testHeader(7, common.WordFromSeed([]byte("notes")))
	require.Equal(t, common.Merge(h.SubCommitment(), h.NoteRoot()), h.Commitment())
	require.True(t, VerifyNoteRoot(h.Commitment(), h.SubCommitment(), h.NoteRoot()))
	require.False(t, VerifyNoteRoot(h.Commitment(), h.SubCommitment(), common.EmptyWord))

	// the note root only enters through the final merge
	other := testHeader(7, common.EmptyWord)
	require.Equal(t, h.SubCommitment(), other.SubCommitment())
	require.NotEqual(t, h.Commitment(), other.Commitment())
}

func TestSubCommitmentBindsEveryField(t *testing.T) {
	base := testHeader(7, common.EmptyWord)
	variants := []*BlockHeader{
		testHeader(8, common.EmptyWord),
		NewBlockHeader(1, base.PrevBlockCommitment(), 7, base.ChainCommitment(), base.AccountRoot(), base.NullifierRoot(),
			base.NoteRoot(), base.TxCommitment(), base.TxKernelCommitment(), base.ProofCommitment(), base.FeeParameters(), base.Timestamp()),
		NewBlockHeader(0, base.PrevBlockCommitment(), 7, base.ChainCommitment(), base.AccountRoot(), base.NullifierRoot(),
			base.NoteRoot(), base.TxCommitment(), base.TxKernelCommitment(), base.ProofCommitment(), base.FeeParameters(), base.Timestamp()+1),
		NewBlockHeader(0, base.PrevBlockCommitment(), 7, base.ChainCommitment(), base.AccountRoot(), base.NullifierRoot(),
			base.NoteRoot(), base.TxCommitment(), base.TxKernelCommitment(), base.ProofCommitment(),
			FeeParameters{NativeAssetId: base.FeeParameters().NativeAssetId, VerificationBaseFee: 501}, base.Timestamp()),
		NewBlockHeader(0, base.PrevBlockCommitment(), 7, base.ChainCommitment(), base.AccountRoot(), base.NullifierRoot(),
			base.NoteRoot(), base.TxCommitment(), common.EmptyWord, base.ProofCommitment(), base.FeeParameters(), base.Timestamp()),
	}
	for i, v := range variants {
		require.NotEqual(t, base.SubCommitment(), v.SubCommitment(), "variant %d", i)
	}
}

func TestBlockNumberEpoch(t *testing.T) {
	require.Equal(t, uint16(0), BlockNumber(65535).Epoch())
	require.Equal(t, uint16(1), BlockNumber(65536).Epoch())
	require.Equal(t, uint16(3), testHeader(3<<16|5, common.EmptyWord).BlockEpoch())

	_, ok := GenesisBlockNum.Parent()
	require.False(t, ok)
	p, ok := BlockNumber(9).Parent()
	require.True(t, ok)
	require.Equal(t, BlockNumber(8), p)
}

func TestHeaderJSON(t *testing.T) {
	h := testHeader(42, common.WordFromSeed([]byte("notes")))
	data, err := json.Marshal(h)
	require.NoError(t, err)

	var got BlockHeader
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, h.Commitment(), got.Commitment())
	require.Equal(t, common.Merge(got.SubCommitment(), got.NoteRoot()), got.Commitment())

	var j map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &j))
	j["commitment"] = common.EmptyWord.Hex()
	tampered, err := json.Marshal(j)
	require.NoError(t, err)
	require.Error(t, json.Unmarshal(tampered, &got))

	// commitments are optional on input
	delete(j, "commitment")
	delete(j, "sub_commitment")
	bare, err := json.Marshal(j)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(bare, &got))
	require.Equal(t, h.Commitment(), got.Commitment())
}
