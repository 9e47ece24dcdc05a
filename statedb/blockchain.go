package statedb

import (
	"fmt"

	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/log"
	"github.com/colorfulnotion/rollup/trie"
	"github.com/colorfulnotion/rollup/types"
)

// Blockchain is the full chain history: every header and the accumulator
// over their commitments.
type Blockchain struct {
	mmr     *trie.MerkleMountainRange
	headers []*types.BlockHeader
}

func NewBlockchain() *Blockchain {
	return &Blockchain{mmr: trie.NewMMR()}
}

func (c *Blockchain) ChainLength() types.BlockNumber {
	return types.BlockNumber(len(c.headers))
}

// ChainTip returns nil for an empty chain.
func (c *Blockchain) ChainTip() *types.BlockHeader {
	if len(c.headers) == 0 {
		return nil
	}
	return c.headers[len(c.headers)-1]
}

func (c *Blockchain) GetHeader(n types.BlockNumber) (*types.BlockHeader, bool) {
	if int(n) >= len(c.headers) {
		return nil, false
	}
	return c.headers[n], true
}

// ChainCommitment is the peaks hash over every block added so far.
func (c *Blockchain) ChainCommitment() common.Word {
	return c.mmr.Peaks().HashPeaks()
}

// AddBlock appends the next header. It must extend the tip.
func (c *Blockchain) AddBlock(h *types.BlockHeader) error {
	if h.BlockNum() != c.ChainLength() {
		return fmt.Errorf("block %d does not follow chain of length %d", h.BlockNum(), c.ChainLength())
	}
	if tip := c.ChainTip(); tip != nil && h.PrevBlockCommitment() != tip.Commitment() {
		return fmt.Errorf("block %d prev commitment %s, tip %s", h.BlockNum(), h.PrevBlockCommitment(), tip.Commitment())
	}
	c.mmr.Append(h.Commitment())
	c.headers = append(c.headers, h)
	log.Debug(log.ChainMonitoring, "block added to history", "block", h.BlockNum(), "commitment", h.Commitment(), "forest", c.mmr.Forest())
	return nil
}

// PartialBlockchain returns the history of the first chainLength blocks with
// the given blocks tracked.
func (c *Blockchain) PartialBlockchain(chainLength types.BlockNumber, tracked []types.BlockNumber) (*types.PartialBlockchain, error) {
	peaks, err := c.mmr.PeaksAt(uint64(chainLength))
	if err != nil {
		return nil, err
	}
	mmr, err := trie.NewPartialMmrFromPeaks(peaks)
	if err != nil {
		return nil, err
	}
	headers := make([]*types.BlockHeader, 0, len(tracked))
	for _, n := range tracked {
		if n >= chainLength {
			return nil, fmt.Errorf("tracked block %d beyond chain length %d", n, chainLength)
		}
		proof, err := c.mmr.OpenAt(uint64(n), uint64(chainLength))
		if err != nil {
			return nil, err
		}
		if err := mmr.Track(uint64(n), c.headers[n].Commitment(), proof.Path); err != nil {
			return nil, err
		}
		headers = append(headers, c.headers[n])
	}
	return types.NewPartialBlockchain(mmr, headers)
}

// Tree renders the history mmr, one branch per peak.
func (c *Blockchain) Tree() string {
	return c.mmr.ToTree().String()
}
