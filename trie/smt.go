package trie

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/log"
)

// Smt is a fully materialised depth-64 sparse merkle tree.
type Smt struct {
	store  *nodeStore
	leaves map[uint64]SmtLeaf
}

func NewSmt() *Smt {
	return &Smt{store: newNodeStore(SmtDepth), leaves: make(map[uint64]SmtLeaf)}
}

// SmtWithEntries builds a tree from entries; a repeated key is an error.
func SmtWithEntries(entries []SmtEntry) (*Smt, error) {
	seen := make(map[common.Word]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.Key]; dup {
			return nil, fmt.Errorf("key %s: %w", e.Key, blockerrors.ErrMDuplicateKey)
		}
		seen[e.Key] = struct{}{}
	}
	t := NewSmt()
	t.InsertBatch(entries)
	return t, nil
}

func (t *Smt) Root() common.Word {
	return t.store.root()
}

func (t *Smt) Get(key common.Word) common.Word {
	return t.GetLeaf(key).Get(key)
}

func (t *Smt) GetLeaf(key common.Word) SmtLeaf {
	idx := LeafIndex(key)
	if leaf, ok := t.leaves[idx]; ok {
		return leaf
	}
	return NewEmptyLeaf(idx)
}

// Insert sets key to value and returns the previous value.
func (t *Smt) Insert(key, value common.Word) common.Word {
	leaf := t.GetLeaf(key)
	old := leaf.Get(key)
	if old == value {
		return old
	}
	leaf = leaf.with(key, value)
	t.putLeaf(leaf)
	t.store.updateLeaf(leaf.Index, leaf.Hash())
	return old
}

// InsertBatch applies all entries, in order, and rehashes each touched node once.
func (t *Smt) InsertBatch(entries []SmtEntry) {
	touched := make(map[uint64]common.Word)
	for _, e := range entries {
		leaf := t.GetLeaf(e.Key).with(e.Key, e.Value)
		t.putLeaf(leaf)
		touched[leaf.Index] = leaf.Hash()
	}
	t.store.updateLeaves(touched)
	log.Trace(log.TrieMonitoring, "smt batch insert", "entries", len(entries), "leaves", len(touched), "root", t.Root())
}

func (t *Smt) putLeaf(leaf SmtLeaf) {
	if leaf.IsEmpty() {
		delete(t.leaves, leaf.Index)
		return
	}
	t.leaves[leaf.Index] = leaf
}

// Open returns the leaf of key with its authentication path.
func (t *Smt) Open(key common.Word) SmtProof {
	leaf := t.GetLeaf(key)
	return SmtProof{Path: t.store.path(leaf.Index), Leaf: leaf}
}

func (t *Smt) NumLeaves() int {
	return len(t.leaves)
}

func (t *Smt) NumEntries() int {
	n := 0
	for _, l := range t.leaves {
		n += l.NumEntries()
	}
	return n
}

// Entries returns all entries ordered by leaf index then key.
func (t *Smt) Entries() []SmtEntry {
	idxs := make([]uint64, 0, len(t.leaves))
	for idx := range t.leaves {
		idxs = append(idxs, idx)
	}
	slices.Sort(idxs)
	out := make([]SmtEntry, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, t.leaves[idx].Entries...)
	}
	return out
}
