package trie

import (
	"golang.org/x/exp/slices"

	"github.com/colorfulnotion/rollup/common"
)

// nodeStore is the node arena shared by the sparse trees. Nodes equal to the
// empty subtree root of their height are not stored.
type nodeStore struct {
	depth uint8
	nodes map[NodeIndex]common.Word
}

func newNodeStore(depth uint8) *nodeStore {
	return &nodeStore{depth: depth, nodes: make(map[NodeIndex]common.Word)}
}

func (s *nodeStore) get(idx NodeIndex) common.Word {
	if w, ok := s.nodes[idx]; ok {
		return w
	}
	return emptySubtrees[s.depth-idx.Depth]
}

func (s *nodeStore) set(idx NodeIndex, w common.Word) {
	if w == emptySubtrees[s.depth-idx.Depth] {
		delete(s.nodes, idx)
		return
	}
	s.nodes[idx] = w
}

func (s *nodeStore) root() common.Word {
	return s.get(RootIndex())
}

func (s *nodeStore) path(leaf uint64) MerklePath {
	path := make(MerklePath, 0, s.depth)
	idx := NodeIndex{Depth: s.depth, Value: leaf}
	for !idx.IsRoot() {
		path = append(path, s.get(idx.Sibling()))
		idx = idx.Parent()
	}
	return path
}

func (s *nodeStore) computeParent(idx NodeIndex) common.Word {
	return common.Merge(s.get(idx.LeftChild()), s.get(idx.RightChild()))
}

// updateLeaf sets one leaf node and rehashes its ancestors.
func (s *nodeStore) updateLeaf(leaf uint64, hash common.Word) {
	idx := NodeIndex{Depth: s.depth, Value: leaf}
	s.set(idx, hash)
	for !idx.IsRoot() {
		idx = idx.Parent()
		s.set(idx, s.computeParent(idx))
	}
}

// updateLeaves sets many leaf nodes and rehashes each dirty ancestor once,
// one level at a time.
func (s *nodeStore) updateLeaves(hashes map[uint64]common.Word) {
	if len(hashes) == 0 {
		return
	}
	dirty := make([]uint64, 0, len(hashes))
	for leaf, h := range hashes {
		s.set(NodeIndex{Depth: s.depth, Value: leaf}, h)
		dirty = append(dirty, leaf)
	}
	for depth := s.depth; depth > 0; depth-- {
		parents := make([]uint64, 0, len(dirty))
		for _, v := range dirty {
			parents = append(parents, v>>1)
		}
		slices.Sort(parents)
		parents = slices.Compact(parents)
		for _, v := range parents {
			idx := NodeIndex{Depth: depth - 1, Value: v}
			s.set(idx, s.computeParent(idx))
		}
		dirty = parents
	}
}

// insertNodes writes a precomputed set of path nodes.
func (s *nodeStore) insertNodes(nodes map[NodeIndex]common.Word) {
	for idx, w := range nodes {
		s.set(idx, w)
	}
}

func (s *nodeStore) numStored() int {
	return len(s.nodes)
}
