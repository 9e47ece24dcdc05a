package trie

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/log"
)

// PartialMmr holds the peaks of an accumulator plus authentication paths for
// a chosen set of leaves. Paths are extended as new leaves merge peaks.
type PartialMmr struct {
	forest  uint64
	peaks   []common.Word
	tracked *bitset.BitSet
	leaves  map[uint64]common.Word
	paths   map[uint64]MerklePath
}

func NewPartialMmrFromPeaks(peaks MmrPeaks) (*PartialMmr, error) {
	peaks, err := NewMmrPeaks(peaks.NumLeaves, peaks.Peaks)
	if err != nil {
		return nil, err
	}
	return &PartialMmr{
		forest:  peaks.NumLeaves,
		peaks:   peaks.Peaks,
		tracked: bitset.New(uint(peaks.NumLeaves)),
		leaves:  make(map[uint64]common.Word),
		paths:   make(map[uint64]MerklePath),
	}, nil
}

func (m *PartialMmr) Forest() uint64 {
	return m.forest
}

func (m *PartialMmr) Peaks() MmrPeaks {
	return MmrPeaks{NumLeaves: m.forest, Peaks: append([]common.Word(nil), m.peaks...)}
}

func (m *PartialMmr) IsTracked(pos uint64) bool {
	return m.tracked.Test(uint(pos))
}

func (m *PartialMmr) NumTracked() int {
	return int(m.tracked.Count())
}

// Track starts tracking an existing leaf. The path must open to its peak.
func (m *PartialMmr) Track(pos uint64, leaf common.Word, path MerklePath) error {
	peakIdx, height, offset, ok := locatePeak(m.forest, pos)
	if !ok {
		return fmt.Errorf("position %d, forest %d: %w", pos, m.forest, blockerrors.ErrMMmrPositionOutOfRange)
	}
	if len(path) != height || !path.Verify(pos-offset, leaf, m.peaks[peakIdx]) {
		return fmt.Errorf("position %d: %w", pos, blockerrors.ErrMInvalidMmrProof)
	}
	m.tracked.Set(uint(pos))
	m.leaves[pos] = leaf
	m.paths[pos] = append(MerklePath(nil), path...)
	return nil
}

// Add appends a leaf, optionally tracking it.
func (m *PartialMmr) Add(leaf common.Word, track bool) {
	pos := m.forest
	if track {
		m.tracked.Set(uint(pos))
		m.leaves[pos] = leaf
		m.paths[pos] = MerklePath{}
	}
	cur := leaf
	for h := 0; m.forest&(1<<uint(h)) != 0; h++ {
		left := m.peaks[len(m.peaks)-1]
		m.peaks = m.peaks[:len(m.peaks)-1]

		size := uint64(1) << uint(h)
		rightStart := pos + 1 - size
		leftStart := rightStart - size
		m.extendPaths(leftStart, rightStart, cur)
		m.extendPaths(rightStart, pos+1, left)

		cur = common.Merge(left, cur)
	}
	m.peaks = append(m.peaks, cur)
	m.forest++
	log.Trace(log.TrieMonitoring, "partial mmr add", "forest", m.forest, "tracked", track, "peaks", len(m.peaks))
}

// extendPaths appends sibling to every tracked path in [from, to).
func (m *PartialMmr) extendPaths(from, to uint64, sibling common.Word) {
	for i, ok := m.tracked.NextSet(uint(from)); ok && uint64(i) < to; i, ok = m.tracked.NextSet(i + 1) {
		m.paths[uint64(i)] = append(m.paths[uint64(i)], sibling)
	}
}

// Get returns a tracked leaf.
func (m *PartialMmr) Get(pos uint64) (common.Word, error) {
	if !m.IsTracked(pos) {
		return common.Word{}, fmt.Errorf("position %d: %w", pos, blockerrors.ErrMMmrPositionNotTracked)
	}
	return m.leaves[pos], nil
}

// Open returns the current proof of a tracked leaf.
func (m *PartialMmr) Open(pos uint64) (MmrProof, error) {
	if pos >= m.forest {
		return MmrProof{}, fmt.Errorf("position %d, forest %d: %w", pos, m.forest, blockerrors.ErrMMmrPositionOutOfRange)
	}
	if !m.IsTracked(pos) {
		return MmrProof{}, fmt.Errorf("position %d: %w", pos, blockerrors.ErrMMmrPositionNotTracked)
	}
	path := make(MerklePath, len(m.paths[pos]))
	copy(path, m.paths[pos])
	return MmrProof{Forest: m.forest, Position: pos, Path: path}, nil
}

// TrackedPositions lists tracked leaf positions in ascending order.
func (m *PartialMmr) TrackedPositions() []uint64 {
	out := make([]uint64, 0, m.tracked.Count())
	for i, ok := m.tracked.NextSet(0); ok; i, ok = m.tracked.NextSet(i + 1) {
		out = append(out, uint64(i))
	}
	return out
}
