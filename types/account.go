package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/trie"
)

// AccountId is two field elements. Accounts are addressed in the account
// tree by their prefix, so two live accounts may never share one.
type AccountId struct {
	Prefix common.Felt
	Suffix common.Felt
}

func NewAccountId(prefix, suffix uint64) AccountId {
	return AccountId{Prefix: common.NewFelt(prefix), Suffix: common.NewFelt(suffix)}
}

// AccountIdFromSeed derives an id from arbitrary bytes.
func AccountIdFromSeed(seed []byte) AccountId {
	w := common.WordFromSeed(seed)
	return AccountId{Prefix: w[3], Suffix: w[2]}
}

// AccountIdFromKey is the inverse of SmtKey.
func AccountIdFromKey(key common.Word) AccountId {
	return AccountId{Prefix: key[3], Suffix: key[2]}
}

// SmtKey is [0, 0, suffix, prefix]; the prefix selects the leaf.
func (id AccountId) SmtKey() common.Word {
	return common.Word{common.ZERO, common.ZERO, id.Suffix, id.Prefix}
}

func (id AccountId) Cmp(o AccountId) int {
	return id.SmtKey().Cmp(o.SmtKey())
}

func (id AccountId) Bytes() []byte {
	out := make([]byte, 0, 16)
	out = append(out, common.Uint64ToBytes(id.Prefix.Uint64())...)
	return append(out, common.Uint64ToBytes(id.Suffix.Uint64())...)
}

func (id AccountId) String() string {
	return fmt.Sprintf("0x%016x%016x", id.Prefix.Uint64(), id.Suffix.Uint64())
}

func (id AccountId) TerminalString() string {
	return id.String()[:10]
}

func (id AccountId) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *AccountId) UnmarshalText(input []byte) error {
	s := string(input)
	if !strings.HasPrefix(s, "0x") || len(s) != 34 {
		return fmt.Errorf("account id %q: want 0x followed by 32 hex digits", s)
	}
	prefix, err := strconv.ParseUint(s[2:18], 16, 64)
	if err != nil {
		return fmt.Errorf("account id prefix: %w", err)
	}
	suffix, err := strconv.ParseUint(s[18:], 16, 64)
	if err != nil {
		return fmt.Errorf("account id suffix: %w", err)
	}
	*id = NewAccountId(prefix, suffix)
	return nil
}

// AccountWitness opens the account tree leaf of Id. An empty StateCommitment
// proves the leaf is unoccupied.
type AccountWitness struct {
	Id              AccountId       `json:"id"`
	StateCommitment common.Word     `json:"state_commitment"`
	Path            trie.MerklePath `json:"path"`
}

func (w AccountWitness) Leaf() trie.SmtLeaf {
	return trie.NewSingleLeaf(w.Id.SmtKey(), w.StateCommitment)
}

func (w AccountWitness) Proof() trie.SmtProof {
	return trie.SmtProof{Path: w.Path, Leaf: w.Leaf()}
}

// ComputeRoot returns the account root the witness opens to.
func (w AccountWitness) ComputeRoot() (common.Word, error) {
	return w.Proof().ComputeRoot()
}

// AccountUpdateWitness pairs an account's prior state witness with the state
// commitment it has after the block's transactions.
type AccountUpdateWitness struct {
	InitialStateCommitment common.Word     `json:"initial_state_commitment"`
	FinalStateCommitment   common.Word     `json:"final_state_commitment"`
	InitialStateProof      AccountWitness  `json:"initial_state_proof"`
	Transactions           []TransactionId `json:"transactions"`
}
