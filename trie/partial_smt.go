package trie

import (
	"fmt"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/log"
)

// PartialSmt is a depth-64 sparse merkle tree that knows only the leaves
// whose paths were added. The first path fixes the root; every later path
// must open to the same root. Updates to tracked leaves produce the same
// root a full tree would.
type PartialSmt struct {
	store   *nodeStore
	leaves  map[uint64]SmtLeaf
	hasRoot bool
}

func NewPartialSmt() *PartialSmt {
	return &PartialSmt{store: newNodeStore(SmtDepth), leaves: make(map[uint64]SmtLeaf)}
}

func PartialSmtFromProofs(proofs ...SmtProof) (*PartialSmt, error) {
	t := NewPartialSmt()
	for _, p := range proofs {
		if err := t.AddProof(p); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Root returns the tracked root, or the empty tree root if nothing is tracked.
func (t *PartialSmt) Root() common.Word {
	return t.store.root()
}

func (t *PartialSmt) AddProof(p SmtProof) error {
	return t.AddPath(p.Leaf, p.Path)
}

// AddPath starts tracking leaf. It fails with ErrMConflictingRoots if the
// path opens to a root other than the one already tracked.
func (t *PartialSmt) AddPath(leaf SmtLeaf, path MerklePath) error {
	if len(path) != SmtDepth {
		return fmt.Errorf("path of length %d: %w", len(path), blockerrors.ErrMInvalidPathLength)
	}
	nodes := path.InnerNodes(leaf.Index, leaf.Hash())
	root := nodes[RootIndex()]
	if t.hasRoot && root != t.Root() {
		return fmt.Errorf("leaf %d opens to %s, tracked root %s: %w", leaf.Index, root, t.Root(), blockerrors.ErrMConflictingRoots)
	}
	t.store.insertNodes(nodes)
	t.leaves[leaf.Index] = leaf
	t.hasRoot = true
	log.Trace(log.TrieMonitoring, "partial smt tracking leaf", "index", leaf.Index, "entries", leaf.NumEntries())
	return nil
}

func (t *PartialSmt) IsTracked(key common.Word) bool {
	_, ok := t.leaves[LeafIndex(key)]
	return ok
}

func (t *PartialSmt) GetLeaf(key common.Word) (SmtLeaf, error) {
	leaf, ok := t.leaves[LeafIndex(key)]
	if !ok {
		return SmtLeaf{}, fmt.Errorf("key %s: %w", key, blockerrors.ErrMUntrackedKey)
	}
	return leaf, nil
}

func (t *PartialSmt) Get(key common.Word) (common.Word, error) {
	leaf, err := t.GetLeaf(key)
	if err != nil {
		return common.Word{}, err
	}
	return leaf.Get(key), nil
}

// Insert sets key to value and returns the previous value. The key's leaf
// must be tracked.
func (t *PartialSmt) Insert(key, value common.Word) (common.Word, error) {
	leaf, err := t.GetLeaf(key)
	if err != nil {
		return common.Word{}, err
	}
	old := leaf.Get(key)
	leaf = leaf.with(key, value)
	t.leaves[leaf.Index] = leaf
	t.store.updateLeaf(leaf.Index, leaf.Hash())
	return old, nil
}

// InsertBatch checks every key is tracked before applying any update.
func (t *PartialSmt) InsertBatch(entries []SmtEntry) error {
	for _, e := range entries {
		if !t.IsTracked(e.Key) {
			return fmt.Errorf("key %s: %w", e.Key, blockerrors.ErrMUntrackedKey)
		}
	}
	touched := make(map[uint64]common.Word)
	for _, e := range entries {
		leaf := t.leaves[LeafIndex(e.Key)].with(e.Key, e.Value)
		t.leaves[leaf.Index] = leaf
		touched[leaf.Index] = leaf.Hash()
	}
	t.store.updateLeaves(touched)
	return nil
}

func (t *PartialSmt) Open(key common.Word) (SmtProof, error) {
	leaf, err := t.GetLeaf(key)
	if err != nil {
		return SmtProof{}, err
	}
	return SmtProof{Path: t.store.path(leaf.Index), Leaf: leaf}, nil
}

func (t *PartialSmt) NumTrackedLeaves() int {
	return len(t.leaves)
}
