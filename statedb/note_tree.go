package statedb

import (
	"fmt"

	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/trie"
	"github.com/colorfulnotion/rollup/types"
)

// BlockNoteEntry is one note created in a block.
type BlockNoteEntry struct {
	Index  types.BlockNoteIndex
	Header types.NoteHeader
}

// BlockNoteTree commits to the notes created in one block. The leaf at
// batch_idx*1024 + note_idx holds merge(note_id, metadata).
type BlockNoteTree struct {
	tree *trie.SimpleSmt
}

func EmptyBlockNoteTreeRoot() common.Word {
	return trie.EmptySubtreeRoot(types.BlockNoteTreeDepth)
}

func NewBlockNoteTree(entries []BlockNoteEntry) (*BlockNoteTree, error) {
	leaves := make([]trie.SimpleLeaf, 0, len(entries))
	for _, e := range entries {
		leaves = append(leaves, trie.SimpleLeaf{Index: e.Index.LeafIndex(), Value: e.Header.Commitment()})
	}
	tree, err := trie.SimpleSmtWithLeaves(types.BlockNoteTreeDepth, leaves)
	if err != nil {
		return nil, err
	}
	return &BlockNoteTree{tree: tree}, nil
}

// BlockNoteTreeFromBatches builds the tree of a block's output notes. Batch
// and note limits are enforced upstream, so any violation here panics.
func BlockNoteTreeFromBatches(batches []types.OutputNoteBatch) *BlockNoteTree {
	var entries []BlockNoteEntry
	for batchIdx, batch := range batches {
		for _, note := range batch {
			idx, err := types.NewBlockNoteIndex(batchIdx, int(note.Index))
			if err != nil {
				panic(fmt.Errorf("BUG: output note index: %w", err))
			}
			entries = append(entries, BlockNoteEntry{Index: idx, Header: note.Header})
		}
	}
	tree, err := NewBlockNoteTree(entries)
	if err != nil {
		panic(fmt.Errorf("BUG: block note tree: %w", err))
	}
	return tree
}

func (t *BlockNoteTree) Root() common.Word {
	return t.tree.Root()
}

func (t *BlockNoteTree) NumNotes() int {
	return t.tree.NumLeaves()
}

// OpenNote returns the inclusion path of the note at index.
func (t *BlockNoteTree) OpenNote(index types.BlockNoteIndex) (trie.MerklePath, error) {
	return t.tree.Open(index.LeafIndex())
}
