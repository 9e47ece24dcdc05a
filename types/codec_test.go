package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
)

func TestHeaderBytesRoundTrip(t *testing.T) {
	h := testHeader(1<<20, common.WordFromSeed([]byte("notes")))
	data := h.Bytes()
	require.Len(t, data, BlockHeaderSize)

	got, err := BlockHeaderFromBytes(data)
	require.NoError(t, err)
	require.Equal(t, h.Commitment(), got.Commitment())
	require.Equal(t, h.SubCommitment(), got.SubCommitment())
	require.Equal(t, common.Merge(got.SubCommitment(), got.NoteRoot()), got.Commitment())
	require.Equal(t, h.FeeParameters(), got.FeeParameters())
	require.Equal(t, data, got.Bytes())
}

func TestHeaderBytesLayout(t *testing.T) {
	h := testHeader(0x01020304, common.EmptyWord)
	data := h.Bytes()
	// version, then the previous block commitment, then the block number
	require.Equal(t, []byte{0, 0, 0, 0}, data[:4])
	require.Equal(t, h.PrevBlockCommitment().Bytes(), data[4:36])
	require.Equal(t, []byte{4, 3, 2, 1}, data[36:40])
	require.Equal(t, common.Uint32ToBytes(h.Timestamp()), data[BlockHeaderSize-4:])
}

func TestHeaderBytesRejectsMalformed(t *testing.T) {
	data := testHeader(1, common.EmptyWord).Bytes()
	_, err := BlockHeaderFromBytes(data[:len(data)-1])
	require.ErrorIs(t, err, blockerrors.ErrPInvalidHeaderEncoding)

	bad := append([]byte{}, data...)
	// a non-canonical element inside prev_block_commitment
	copy(bad[4:12], common.Uint64ToBytes(0xffffffffffffffff))
	_, err = BlockHeaderFromBytes(bad)
	require.ErrorIs(t, err, blockerrors.ErrPInvalidHeaderEncoding)
}
