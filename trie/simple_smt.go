package trie

import (
	"fmt"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
)

// SimpleLeaf is one value of a SimpleSmt.
type SimpleLeaf struct {
	Index uint64
	Value common.Word
}

// SimpleSmt is a fixed depth sparse merkle tree whose leaves are words
// addressed directly by index.
type SimpleSmt struct {
	store  *nodeStore
	leaves map[uint64]common.Word
}

func NewSimpleSmt(depth uint8) (*SimpleSmt, error) {
	if depth == 0 || depth > SmtDepth {
		return nil, fmt.Errorf("simple smt depth %d must be in [1,%d]", depth, SmtDepth)
	}
	return &SimpleSmt{store: newNodeStore(depth), leaves: make(map[uint64]common.Word)}, nil
}

// SimpleSmtWithLeaves builds a tree; a repeated index or an index beyond the
// depth is an error.
func SimpleSmtWithLeaves(depth uint8, entries []SimpleLeaf) (*SimpleSmt, error) {
	t, err := NewSimpleSmt(depth)
	if err != nil {
		return nil, err
	}
	hashes := make(map[uint64]common.Word, len(entries))
	for _, e := range entries {
		if err := t.checkIndex(e.Index); err != nil {
			return nil, err
		}
		if _, dup := hashes[e.Index]; dup {
			return nil, fmt.Errorf("leaf %d: %w", e.Index, blockerrors.ErrMDuplicateValuesForIndex)
		}
		hashes[e.Index] = e.Value
		if !e.Value.IsEmpty() {
			t.leaves[e.Index] = e.Value
		}
	}
	t.store.updateLeaves(hashes)
	return t, nil
}

func (t *SimpleSmt) checkIndex(index uint64) error {
	if t.store.depth < SmtDepth && index>>t.store.depth != 0 {
		return fmt.Errorf("leaf %d at depth %d: %w", index, t.store.depth, blockerrors.ErrMIndexOutOfRange)
	}
	return nil
}

func (t *SimpleSmt) Depth() uint8 {
	return t.store.depth
}

func (t *SimpleSmt) Root() common.Word {
	return t.store.root()
}

func (t *SimpleSmt) GetLeaf(index uint64) (common.Word, error) {
	if err := t.checkIndex(index); err != nil {
		return common.Word{}, err
	}
	return t.leaves[index], nil
}

// Insert sets the leaf and returns its previous value.
func (t *SimpleSmt) Insert(index uint64, value common.Word) (common.Word, error) {
	if err := t.checkIndex(index); err != nil {
		return common.Word{}, err
	}
	old := t.leaves[index]
	if value.IsEmpty() {
		delete(t.leaves, index)
	} else {
		t.leaves[index] = value
	}
	t.store.updateLeaf(index, value)
	return old, nil
}

func (t *SimpleSmt) Open(index uint64) (MerklePath, error) {
	if err := t.checkIndex(index); err != nil {
		return nil, err
	}
	return t.store.path(index), nil
}

func (t *SimpleSmt) NumLeaves() int {
	return len(t.leaves)
}
