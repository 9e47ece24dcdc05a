package trie

import (
	"fmt"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
)

const SmtDepth = 64

// emptySubtrees[h] is the root of an all-empty subtree of height h.
var emptySubtrees = func() [SmtDepth + 1]common.Word {
	var roots [SmtDepth + 1]common.Word
	for h := 1; h <= SmtDepth; h++ {
		roots[h] = common.Merge(roots[h-1], roots[h-1])
	}
	return roots
}()

// EmptySubtreeRoot returns the root of an empty subtree of the given height.
func EmptySubtreeRoot(height uint8) common.Word {
	return emptySubtrees[height]
}

// NodeIndex addresses a node by depth (root is 0) and position within that depth.
type NodeIndex struct {
	Depth uint8
	Value uint64
}

func NewNodeIndex(depth uint8, value uint64) (NodeIndex, error) {
	if depth < SmtDepth && value>>depth != 0 {
		return NodeIndex{}, fmt.Errorf("node %d at depth %d: %w", value, depth, blockerrors.ErrMIndexOutOfRange)
	}
	return NodeIndex{Depth: depth, Value: value}, nil
}

func RootIndex() NodeIndex {
	return NodeIndex{}
}

func (i NodeIndex) IsRoot() bool {
	return i.Depth == 0
}

func (i NodeIndex) Parent() NodeIndex {
	return NodeIndex{Depth: i.Depth - 1, Value: i.Value >> 1}
}

func (i NodeIndex) Sibling() NodeIndex {
	return NodeIndex{Depth: i.Depth, Value: i.Value ^ 1}
}

func (i NodeIndex) LeftChild() NodeIndex {
	return NodeIndex{Depth: i.Depth + 1, Value: i.Value << 1}
}

func (i NodeIndex) RightChild() NodeIndex {
	return NodeIndex{Depth: i.Depth + 1, Value: i.Value<<1 | 1}
}

func (i NodeIndex) IsRightChild() bool {
	return i.Value&1 == 1
}

func (i NodeIndex) String() string {
	return fmt.Sprintf("(%d,%d)", i.Depth, i.Value)
}

// MerklePath lists sibling nodes from the leaf level up to the child of the root.
type MerklePath []common.Word

func (p MerklePath) Depth() uint8 {
	return uint8(len(p))
}

// ComputeRoot folds node at the given leaf index up through the path.
func (p MerklePath) ComputeRoot(index uint64, node common.Word) (common.Word, error) {
	if len(p) > SmtDepth {
		return common.Word{}, fmt.Errorf("path of length %d: %w", len(p), blockerrors.ErrMInvalidPathLength)
	}
	if len(p) < SmtDepth && index>>len(p) != 0 {
		return common.Word{}, fmt.Errorf("index %d at depth %d: %w", index, len(p), blockerrors.ErrMIndexOutOfRange)
	}
	for _, sibling := range p {
		if index&1 == 0 {
			node = common.Merge(node, sibling)
		} else {
			node = common.Merge(sibling, node)
		}
		index >>= 1
	}
	return node, nil
}

// Verify reports whether node sits at index under root.
func (p MerklePath) Verify(index uint64, node, root common.Word) bool {
	computed, err := p.ComputeRoot(index, node)
	return err == nil && computed == root
}

// InnerNodes returns every node on the path from leaf to root together with
// its sibling, leaf level first.
func (p MerklePath) InnerNodes(index uint64, node common.Word) map[NodeIndex]common.Word {
	depth := uint8(len(p))
	out := make(map[NodeIndex]common.Word, 2*len(p)+1)
	idx := NodeIndex{Depth: depth, Value: index}
	for _, sibling := range p {
		out[idx] = node
		out[idx.Sibling()] = sibling
		if idx.IsRightChild() {
			node = common.Merge(sibling, node)
		} else {
			node = common.Merge(node, sibling)
		}
		idx = idx.Parent()
	}
	out[idx] = node
	return out
}
