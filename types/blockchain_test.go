package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
)

func chainOf(t *testing.T, n int) (*PartialBlockchain, []*BlockHeader) {
	t.Helper()
	chain := EmptyPartialBlockchain()
	var headers []*BlockHeader
	prev := common.EmptyWord
	for i := 0; i < n; i++ {
		h := NewBlockHeader(0, prev, BlockNumber(i), chain.ChainCommitment(), common.EmptyWord, common.EmptyWord,
			common.EmptyWord, common.EmptyWord, common.EmptyWord, common.EmptyWord, FeeParameters{}, uint32(100+i))
		chain.AddBlock(h, i%2 == 0)
		headers = append(headers, h)
		prev = h.Commitment()
	}
	return chain, headers
}

func TestPartialBlockchainAddBlock(t *testing.T) {
	chain, headers := chainOf(t, 5)
	require.Equal(t, BlockNumber(5), chain.ChainLength())
	require.Equal(t, 3, chain.NumTrackedBlocks())

	got, ok := chain.GetBlock(2)
	require.True(t, ok)
	require.Equal(t, headers[2].Commitment(), got.Commitment())
	_, ok = chain.GetBlock(1)
	require.False(t, ok)

	proof, err := chain.OpenBlock(4)
	require.NoError(t, err)
	require.True(t, chain.Peaks().Verify(headers[4].Commitment(), proof))

	before := chain.ChainCommitment()
	require.Panics(t, func() { chain.AddBlock(headers[3], false) })
	require.Equal(t, before, chain.ChainCommitment())
}

func TestPartialBlockchainJSON(t *testing.T) {
	chain, headers := chainOf(t, 6)
	data, err := json.Marshal(chain)
	require.NoError(t, err)

	var got PartialBlockchain
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, chain.ChainCommitment(), got.ChainCommitment())
	require.Equal(t, chain.ChainLength(), got.ChainLength())
	require.Len(t, got.BlockHeaders(), 3)
	require.Equal(t, headers[4].Commitment(), got.BlockHeaders()[2].Commitment())
}

func TestNewPartialBlockchainRejectsUntracked(t *testing.T) {
	chain, headers := chainOf(t, 4)
	_, err := NewPartialBlockchain(chain.mmr, []*BlockHeader{headers[1]})
	require.ErrorIs(t, err, blockerrors.ErrMBlockNotInPartialHistory)
	_, err = NewPartialBlockchain(chain.mmr, []*BlockHeader{headers[2]})
	require.NoError(t, err)
}
