package trie

import (
	"fmt"
	"math/bits"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
)

// MinPeaksForHash is the number of peaks HashPeaks pads to.
const MinPeaksForHash = 16

// locatePeak finds the perfect tree of forest holding pos. It returns the
// tree's index among the peaks (largest first), its height and the position
// of its first leaf.
func locatePeak(forest, pos uint64) (peakIdx int, height int, offset uint64, ok bool) {
	if pos >= forest {
		return 0, 0, 0, false
	}
	for h := 63; h >= 0; h-- {
		if forest&(1<<uint(h)) == 0 {
			continue
		}
		size := uint64(1) << uint(h)
		if pos < offset+size {
			return peakIdx, h, offset, true
		}
		offset += size
		peakIdx++
	}
	return 0, 0, 0, false
}

// MerkleMountainRange is an append-only accumulator. Leaf count is its forest:
// bit h set means a perfect tree of 2^h leaves is one of the peaks.
type MerkleMountainRange struct {
	// levels[h][i] is the root of the i-th complete subtree of height h
	levels [][]common.Word
}

func NewMMR() *MerkleMountainRange {
	return &MerkleMountainRange{levels: [][]common.Word{{}}}
}

// Append adds a leaf and merges every subtree it completes.
func (mmr *MerkleMountainRange) Append(leaf common.Word) {
	mmr.levels[0] = append(mmr.levels[0], leaf)
	for h := 0; len(mmr.levels[h])%2 == 0; h++ {
		n := len(mmr.levels[h])
		parent := common.Merge(mmr.levels[h][n-2], mmr.levels[h][n-1])
		if len(mmr.levels) == h+1 {
			mmr.levels = append(mmr.levels, nil)
		}
		mmr.levels[h+1] = append(mmr.levels[h+1], parent)
	}
}

func (mmr *MerkleMountainRange) Forest() uint64 {
	return uint64(len(mmr.levels[0]))
}

func (mmr *MerkleMountainRange) Get(pos uint64) (common.Word, error) {
	if pos >= mmr.Forest() {
		return common.Word{}, fmt.Errorf("position %d, forest %d: %w", pos, mmr.Forest(), blockerrors.ErrMMmrPositionOutOfRange)
	}
	return mmr.levels[0][pos], nil
}

func (mmr *MerkleMountainRange) Peaks() MmrPeaks {
	p, _ := mmr.PeaksAt(mmr.Forest())
	return p
}

// PeaksAt returns the peaks the accumulator had when it held forest leaves.
func (mmr *MerkleMountainRange) PeaksAt(forest uint64) (MmrPeaks, error) {
	if forest > mmr.Forest() {
		return MmrPeaks{}, fmt.Errorf("forest %d beyond %d: %w", forest, mmr.Forest(), blockerrors.ErrMMmrPositionOutOfRange)
	}
	peaks := make([]common.Word, 0, bits.OnesCount64(forest))
	offset := uint64(0)
	for h := 63; h >= 0; h-- {
		if forest&(1<<uint(h)) == 0 {
			continue
		}
		peaks = append(peaks, mmr.levels[h][offset>>uint(h)])
		offset += 1 << uint(h)
	}
	return MmrPeaks{NumLeaves: forest, Peaks: peaks}, nil
}

func (mmr *MerkleMountainRange) Open(pos uint64) (MmrProof, error) {
	return mmr.OpenAt(pos, mmr.Forest())
}

// OpenAt proves pos against the peaks of an earlier forest.
func (mmr *MerkleMountainRange) OpenAt(pos, forest uint64) (MmrProof, error) {
	if forest > mmr.Forest() {
		return MmrProof{}, fmt.Errorf("forest %d beyond %d: %w", forest, mmr.Forest(), blockerrors.ErrMMmrPositionOutOfRange)
	}
	_, height, _, ok := locatePeak(forest, pos)
	if !ok {
		return MmrProof{}, fmt.Errorf("position %d, forest %d: %w", pos, forest, blockerrors.ErrMMmrPositionOutOfRange)
	}
	path := make(MerklePath, 0, height)
	for l := 0; l < height; l++ {
		path = append(path, mmr.levels[l][(pos>>uint(l))^1])
	}
	return MmrProof{Forest: forest, Position: pos, Path: path}, nil
}

// MmrPeaks is the compact state of an accumulator.
type MmrPeaks struct {
	NumLeaves uint64        `json:"num_leaves"`
	Peaks     []common.Word `json:"peaks"`
}

func NewMmrPeaks(numLeaves uint64, peaks []common.Word) (MmrPeaks, error) {
	if bits.OnesCount64(numLeaves) != len(peaks) {
		return MmrPeaks{}, fmt.Errorf("%d leaves need %d peaks, got %d", numLeaves, bits.OnesCount64(numLeaves), len(peaks))
	}
	return MmrPeaks{NumLeaves: numLeaves, Peaks: append([]common.Word(nil), peaks...)}, nil
}

// HashPeaks commits to the peaks, zero padded to at least MinPeaksForHash
// and to an even count.
func (p MmrPeaks) HashPeaks() common.Word {
	n := len(p.Peaks)
	if n < MinPeaksForHash {
		n = MinPeaksForHash
	}
	if n%2 == 1 {
		n++
	}
	padded := make([]common.Word, n)
	copy(padded, p.Peaks)
	return common.HashWords(padded)
}

// Verify checks leaf against the peak its proof points to.
func (p MmrPeaks) Verify(leaf common.Word, proof MmrProof) bool {
	if proof.Forest != p.NumLeaves {
		return false
	}
	peakIdx, height, offset, ok := locatePeak(p.NumLeaves, proof.Position)
	if !ok || len(proof.Path) != height || peakIdx >= len(p.Peaks) {
		return false
	}
	return proof.Path.Verify(proof.Position-offset, leaf, p.Peaks[peakIdx])
}

// MmrProof opens one leaf against the peaks of Forest.
type MmrProof struct {
	Forest   uint64     `json:"forest"`
	Position uint64     `json:"position"`
	Path     MerklePath `json:"path"`
}

func (p MmrProof) PeakIndex() int {
	idx, _, _, _ := locatePeak(p.Forest, p.Position)
	return idx
}

// RelativePos is the leaf position inside its peak tree.
func (p MmrProof) RelativePos() uint64 {
	_, _, offset, _ := locatePeak(p.Forest, p.Position)
	return p.Position - offset
}
