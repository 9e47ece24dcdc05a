package trie

import (
	"fmt"
	"math/bits"

	"github.com/xlab/treeprint"
	"golang.org/x/exp/slices"

	"github.com/colorfulnotion/rollup/common"
)

func short(w common.Word) string {
	return w.TerminalString()
}

// ToTree renders the peaks of the accumulator and every complete subtree under them.
func (mmr *MerkleMountainRange) ToTree() treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("MMR forest=%d peaks=%d", mmr.Forest(), bits.OnesCount64(mmr.Forest())))
	offset := uint64(0)
	forest := mmr.Forest()
	for h := 63; h >= 0; h-- {
		if forest&(1<<uint(h)) == 0 {
			continue
		}
		mmr.addSubtree(tree, h, offset>>uint(h))
		offset += 1 << uint(h)
	}
	return tree
}

func (mmr *MerkleMountainRange) addSubtree(parent treeprint.Tree, height int, idx uint64) {
	w := mmr.levels[height][idx]
	if height == 0 {
		parent.AddNode(fmt.Sprintf("leaf %d: %s", idx, short(w)))
		return
	}
	branch := parent.AddBranch(fmt.Sprintf("h=%d: %s", height, short(w)))
	mmr.addSubtree(branch, height-1, 2*idx)
	mmr.addSubtree(branch, height-1, 2*idx+1)
}

// ToTree renders the tracked leaves of a partial tree with their entries.
func (t *PartialSmt) ToTree() treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("PartialSmt root=%s tracked=%d", short(t.Root()), len(t.leaves)))
	for _, idx := range sortedLeafIndexes(t.leaves) {
		leaf := t.leaves[idx]
		branch := tree.AddBranch(fmt.Sprintf("leaf %d: %s", idx, short(leaf.Hash())))
		for _, e := range leaf.Entries {
			branch.AddNode(fmt.Sprintf("%s => %s", short(e.Key), short(e.Value)))
		}
	}
	return tree
}

func sortedLeafIndexes(leaves map[uint64]SmtLeaf) []uint64 {
	out := make([]uint64, 0, len(leaves))
	for idx := range leaves {
		out = append(out, idx)
	}
	slices.Sort(out)
	return out
}
