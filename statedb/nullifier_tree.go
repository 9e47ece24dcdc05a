package statedb

import (
	"fmt"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/trie"
	"github.com/colorfulnotion/rollup/types"
)

// NullifierTree records the block in which each nullifier was spent.
type NullifierTree struct {
	smt *trie.Smt
}

func NewNullifierTree() *NullifierTree {
	return &NullifierTree{smt: trie.NewSmt()}
}

func (t *NullifierTree) Root() common.Word {
	return t.smt.Root()
}

func (t *NullifierTree) NumNullifiers() int {
	return t.smt.NumEntries()
}

// GetBlockNum returns the block a nullifier was spent in; ok is false if unspent.
func (t *NullifierTree) GetBlockNum(n types.Nullifier) (types.BlockNumber, bool) {
	return types.NullifierBlock(t.smt.Get(n))
}

// MarkSpent spends every nullifier at block; nothing changes if any was
// already spent.
func (t *NullifierTree) MarkSpent(nullifiers []types.Nullifier, block types.BlockNumber) error {
	batch := make([]trie.SmtEntry, 0, len(nullifiers))
	for _, n := range nullifiers {
		if spentAt, spent := t.GetBlockNum(n); spent {
			return fmt.Errorf("nullifier %s spent in block %d: %w", n, spentAt, blockerrors.ErrMNullifierAlreadySpent)
		}
		batch = append(batch, trie.SmtEntry{Key: n, Value: types.NullifierValue(block)})
	}
	t.smt.InsertBatch(batch)
	return nil
}

func (t *NullifierTree) OpenNullifier(n types.Nullifier) types.NullifierWitness {
	return types.NewNullifierWitness(t.smt.Open(n))
}

// PartialNullifierTree is a nullifier tree rebuilt from witnesses.
type PartialNullifierTree struct {
	smt *trie.PartialSmt
}

func NewPartialNullifierTree() *PartialNullifierTree {
	return &PartialNullifierTree{smt: trie.NewPartialSmt()}
}

func (t *PartialNullifierTree) Root() common.Word {
	return t.smt.Root()
}

// TrackNullifier fails with ErrMConflictingRoots if the witness opens to a
// root other than the tracked one.
func (t *PartialNullifierTree) TrackNullifier(w types.NullifierWitness) error {
	return t.smt.AddProof(w.Proof)
}

// MarkSpent spends every nullifier at block. Each must be tracked and unspent.
func (t *PartialNullifierTree) MarkSpent(nullifiers []types.Nullifier, block types.BlockNumber) error {
	batch := make([]trie.SmtEntry, 0, len(nullifiers))
	for _, n := range nullifiers {
		v, err := t.smt.Get(n)
		if err != nil {
			return fmt.Errorf("nullifier %s: %w", n, err)
		}
		if spentAt, spent := types.NullifierBlock(v); spent {
			return fmt.Errorf("nullifier %s spent in block %d: %w", n, spentAt, blockerrors.ErrMNullifierAlreadySpent)
		}
		batch = append(batch, trie.SmtEntry{Key: n, Value: types.NullifierValue(block)})
	}
	return t.smt.InsertBatch(batch)
}
