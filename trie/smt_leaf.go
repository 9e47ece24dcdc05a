package trie

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
)

// SmtEntry is a key/value pair stored in a depth-64 sparse merkle tree.
type SmtEntry struct {
	Key   common.Word `json:"key"`
	Value common.Word `json:"value"`
}

// LeafIndex maps a key to its leaf: the most significant key element.
func LeafIndex(key common.Word) uint64 {
	return key[3].Uint64()
}

// SmtLeaf holds every entry whose key maps to Index, sorted by key. An empty
// value is never stored.
type SmtLeaf struct {
	Index   uint64     `json:"index"`
	Entries []SmtEntry `json:"entries"`
}

func NewEmptyLeaf(index uint64) SmtLeaf {
	return SmtLeaf{Index: index}
}

func NewSingleLeaf(key, value common.Word) SmtLeaf {
	if value.IsEmpty() {
		return NewEmptyLeaf(LeafIndex(key))
	}
	return SmtLeaf{Index: LeafIndex(key), Entries: []SmtEntry{{Key: key, Value: value}}}
}

// NewLeaf builds a leaf from entries that must all map to one index.
func NewLeaf(index uint64, entries []SmtEntry) (SmtLeaf, error) {
	leaf := NewEmptyLeaf(index)
	for _, e := range entries {
		if LeafIndex(e.Key) != index {
			return SmtLeaf{}, fmt.Errorf("key %s does not map to leaf %d", e.Key, index)
		}
		leaf = leaf.with(e.Key, e.Value)
	}
	return leaf, nil
}

func (l SmtLeaf) IsEmpty() bool {
	return len(l.Entries) == 0
}

func (l SmtLeaf) NumEntries() int {
	return len(l.Entries)
}

// Hash is the empty word for an empty leaf, otherwise the hash of the
// concatenated key/value pairs.
func (l SmtLeaf) Hash() common.Word {
	if l.IsEmpty() {
		return common.EmptyWord
	}
	elems := make([]common.Felt, 0, 8*len(l.Entries))
	for _, e := range l.Entries {
		elems = append(elems, e.Key[:]...)
		elems = append(elems, e.Value[:]...)
	}
	return common.HashElements(elems)
}

// Get returns the value stored under key, or the empty word.
func (l SmtLeaf) Get(key common.Word) common.Word {
	for _, e := range l.Entries {
		if e.Key == key {
			return e.Value
		}
	}
	return common.EmptyWord
}

func (l SmtLeaf) find(key common.Word) (int, bool) {
	return slices.BinarySearchFunc(l.Entries, key, func(e SmtEntry, k common.Word) int {
		return e.Key.Cmp(k)
	})
}

// with returns a copy of l with key set to value; the empty value removes the key.
func (l SmtLeaf) with(key, value common.Word) SmtLeaf {
	entries := slices.Clone(l.Entries)
	pos, found := l.find(key)
	switch {
	case found && value.IsEmpty():
		entries = slices.Delete(entries, pos, pos+1)
	case found:
		entries[pos].Value = value
	case !value.IsEmpty():
		entries = slices.Insert(entries, pos, SmtEntry{Key: key, Value: value})
	}
	if len(entries) == 0 {
		entries = nil
	}
	return SmtLeaf{Index: l.Index, Entries: entries}
}

// SmtProof opens one leaf of a depth-64 tree.
type SmtProof struct {
	Path MerklePath `json:"path"`
	Leaf SmtLeaf    `json:"leaf"`
}

func (p SmtProof) ComputeRoot() (common.Word, error) {
	if len(p.Path) != SmtDepth {
		return common.Word{}, fmt.Errorf("smt proof path of length %d: %w", len(p.Path), blockerrors.ErrMInvalidPathLength)
	}
	return p.Path.ComputeRoot(p.Leaf.Index, p.Leaf.Hash())
}

// Get returns the value the proof commits to for key.
func (p SmtProof) Get(key common.Word) (common.Word, bool) {
	if LeafIndex(key) != p.Leaf.Index {
		return common.Word{}, false
	}
	return p.Leaf.Get(key), true
}

// Verify reports whether key maps to value under root.
func (p SmtProof) Verify(key, value, root common.Word) bool {
	got, ok := p.Get(key)
	if !ok || got != value {
		return false
	}
	computed, err := p.ComputeRoot()
	return err == nil && computed == root
}
