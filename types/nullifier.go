package types

import (
	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/trie"
)

// Nullifier marks a consumed note. Its most significant element selects the
// nullifier tree leaf.
type Nullifier = common.Word

// NullifierValue is the nullifier tree value of a nullifier spent in block.
// An unspent nullifier maps to the empty word.
func NullifierValue(block BlockNumber) common.Word {
	return common.Word{block.AsFelt(), common.ZERO, common.ZERO, common.ZERO}
}

// NullifierBlock decodes a nullifier tree value. ok is false for the empty word.
func NullifierBlock(value common.Word) (BlockNumber, bool) {
	if value.IsEmpty() {
		return 0, false
	}
	return BlockNumber(value[0].Uint64()), true
}

// NullifierWitness opens the nullifier tree leaf of one nullifier.
type NullifierWitness struct {
	Proof trie.SmtProof `json:"proof"`
}

func NewNullifierWitness(proof trie.SmtProof) NullifierWitness {
	return NullifierWitness{Proof: proof}
}

// IsUnspent reports whether the witness shows nullifier as unspent.
func (w NullifierWitness) IsUnspent(nullifier Nullifier) bool {
	v, ok := w.Proof.Get(nullifier)
	return ok && v.IsEmpty()
}
