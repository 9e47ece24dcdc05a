package types

import (
	"encoding/json"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/trie"
)

// PartialBlockchain is the chain history accumulator (one leaf per block
// commitment) plus the headers of the blocks it tracks.
type PartialBlockchain struct {
	mmr    *trie.PartialMmr
	blocks map[BlockNumber]*BlockHeader
}

// NewPartialBlockchain checks every header is tracked by mmr at its block
// number and opens to its commitment.
func NewPartialBlockchain(mmr *trie.PartialMmr, headers []*BlockHeader) (*PartialBlockchain, error) {
	c := &PartialBlockchain{mmr: mmr, blocks: make(map[BlockNumber]*BlockHeader, len(headers))}
	for _, h := range headers {
		leaf, err := mmr.Get(uint64(h.BlockNum()))
		if err != nil || leaf != h.Commitment() {
			return nil, fmt.Errorf("block %d: %w", h.BlockNum(), blockerrors.ErrMBlockNotInPartialHistory)
		}
		c.blocks[h.BlockNum()] = h
	}
	return c, nil
}

// EmptyPartialBlockchain is the history before genesis is added.
func EmptyPartialBlockchain() *PartialBlockchain {
	mmr, _ := trie.NewPartialMmrFromPeaks(trie.MmrPeaks{})
	return &PartialBlockchain{mmr: mmr, blocks: make(map[BlockNumber]*BlockHeader)}
}

// ChainLength is the number of blocks in the accumulator; it is also the
// number of the next block to add.
func (c *PartialBlockchain) ChainLength() BlockNumber {
	return BlockNumber(c.mmr.Forest())
}

func (c *PartialBlockchain) Peaks() trie.MmrPeaks {
	return c.mmr.Peaks()
}

// ChainCommitment is the peaks hash of the accumulator.
func (c *PartialBlockchain) ChainCommitment() common.Word {
	return c.mmr.Peaks().HashPeaks()
}

// AddBlock appends header as the newest leaf. The header must be the next
// block of the chain.
func (c *PartialBlockchain) AddBlock(header *BlockHeader, track bool) {
	if header.BlockNum() != c.ChainLength() {
		panic(fmt.Errorf("BUG: adding block %d to a chain of length %d", header.BlockNum(), c.ChainLength()))
	}
	c.mmr.Add(header.Commitment(), track)
	if track {
		c.blocks[header.BlockNum()] = header
	}
}

func (c *PartialBlockchain) GetBlock(n BlockNumber) (*BlockHeader, bool) {
	h, ok := c.blocks[n]
	return h, ok
}

func (c *PartialBlockchain) OpenBlock(n BlockNumber) (trie.MmrProof, error) {
	return c.mmr.Open(uint64(n))
}

func (c *PartialBlockchain) NumTrackedBlocks() int {
	return len(c.blocks)
}

// BlockHeaders returns the tracked headers ordered by block number.
func (c *PartialBlockchain) BlockHeaders() []*BlockHeader {
	out := make([]*BlockHeader, 0, len(c.blocks))
	for _, h := range c.blocks {
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b *BlockHeader) int {
		return int(a.BlockNum()) - int(b.BlockNum())
	})
	return out
}

type jTrackedBlock struct {
	Header *BlockHeader    `json:"header"`
	Path   trie.MerklePath `json:"path"`
}

type jPartialBlockchain struct {
	Peaks  trie.MmrPeaks   `json:"peaks"`
	Blocks []jTrackedBlock `json:"blocks"`
}

func (c *PartialBlockchain) MarshalJSON() ([]byte, error) {
	j := jPartialBlockchain{Peaks: c.Peaks(), Blocks: []jTrackedBlock{}}
	for _, h := range c.BlockHeaders() {
		proof, err := c.OpenBlock(h.BlockNum())
		if err != nil {
			return nil, err
		}
		j.Blocks = append(j.Blocks, jTrackedBlock{Header: h, Path: proof.Path})
	}
	return json.Marshal(j)
}

func (c *PartialBlockchain) UnmarshalJSON(data []byte) error {
	var j jPartialBlockchain
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	mmr, err := trie.NewPartialMmrFromPeaks(j.Peaks)
	if err != nil {
		return err
	}
	headers := make([]*BlockHeader, 0, len(j.Blocks))
	for _, b := range j.Blocks {
		if b.Header == nil {
			return fmt.Errorf("tracked block without header")
		}
		if err := mmr.Track(uint64(b.Header.BlockNum()), b.Header.Commitment(), b.Path); err != nil {
			return fmt.Errorf("block %d: %w", b.Header.BlockNum(), err)
		}
		headers = append(headers, b.Header)
	}
	built, err := NewPartialBlockchain(mmr, headers)
	if err != nil {
		return err
	}
	*c = *built
	return nil
}
