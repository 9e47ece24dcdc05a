package statedb

import (
	"fmt"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/trie"
	"github.com/colorfulnotion/rollup/types"
)

// AccountEntry is an account id with its state commitment.
type AccountEntry struct {
	Id         types.AccountId `json:"id"`
	Commitment common.Word     `json:"commitment"`
}

// leafAccount returns the single account stored in an account tree leaf.
func leafAccount(leaf trie.SmtLeaf) (AccountEntry, bool) {
	if leaf.NumEntries() != 1 {
		return AccountEntry{}, false
	}
	e := leaf.Entries[0]
	return AccountEntry{Id: types.AccountIdFromKey(e.Key), Commitment: e.Value}, true
}

// AccountTree maps account ids to state commitments. At most one account
// lives under any id prefix.
type AccountTree struct {
	smt *trie.Smt
}

func NewAccountTree() *AccountTree {
	return &AccountTree{smt: trie.NewSmt()}
}

func AccountTreeWithEntries(entries []AccountEntry) (*AccountTree, error) {
	t := NewAccountTree()
	prefixes := make(map[uint64]types.AccountId, len(entries))
	batch := make([]trie.SmtEntry, 0, len(entries))
	for _, e := range entries {
		prefix := e.Id.Prefix.Uint64()
		if other, dup := prefixes[prefix]; dup {
			return nil, fmt.Errorf("accounts %s and %s: %w", other, e.Id, blockerrors.ErrMDuplicateIdPrefix)
		}
		prefixes[prefix] = e.Id
		batch = append(batch, trie.SmtEntry{Key: e.Id.SmtKey(), Value: e.Commitment})
	}
	t.smt.InsertBatch(batch)
	return t, nil
}

func (t *AccountTree) Root() common.Word {
	return t.smt.Root()
}

func (t *AccountTree) NumAccounts() int {
	return t.smt.NumEntries()
}

// GetStateCommitment returns the empty word for an unknown account.
func (t *AccountTree) GetStateCommitment(id types.AccountId) common.Word {
	return t.smt.Get(id.SmtKey())
}

// Insert sets the state commitment of id and returns the previous one.
func (t *AccountTree) Insert(id types.AccountId, commitment common.Word) (common.Word, error) {
	if other, ok := leafAccount(t.smt.GetLeaf(id.SmtKey())); ok && other.Id != id {
		return common.Word{}, fmt.Errorf("account %s collides with %s: %w", id, other.Id, blockerrors.ErrMDuplicateIdPrefix)
	}
	return t.smt.Insert(id.SmtKey(), commitment), nil
}

// OpenAccount returns the witness of the leaf id maps to. If another account
// occupies that leaf the witness is for that account.
func (t *AccountTree) OpenAccount(id types.AccountId) types.AccountWitness {
	proof := t.smt.Open(id.SmtKey())
	if other, ok := leafAccount(proof.Leaf); ok {
		return types.AccountWitness{Id: other.Id, StateCommitment: other.Commitment, Path: proof.Path}
	}
	return types.AccountWitness{Id: id, Path: proof.Path}
}

// Accounts returns all accounts ordered by prefix.
func (t *AccountTree) Accounts() []AccountEntry {
	entries := t.smt.Entries()
	out := make([]AccountEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, AccountEntry{Id: types.AccountIdFromKey(e.Key), Commitment: e.Value})
	}
	return out
}

// PartialAccountTree is an account tree rebuilt from witnesses.
type PartialAccountTree struct {
	smt *trie.PartialSmt
}

func NewPartialAccountTree() *PartialAccountTree {
	return &PartialAccountTree{smt: trie.NewPartialSmt()}
}

func PartialAccountTreeWithWitnesses(witnesses []types.AccountWitness) (*PartialAccountTree, error) {
	t := NewPartialAccountTree()
	for _, w := range witnesses {
		if err := t.TrackAccount(w); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *PartialAccountTree) Root() common.Word {
	return t.smt.Root()
}

// TrackAccount adds a witness. A second witness for an occupied prefix fails
// with ErrMDuplicateIdPrefix and one opening to another root with
// ErrMConflictingRoots.
func (t *PartialAccountTree) TrackAccount(w types.AccountWitness) error {
	key := w.Id.SmtKey()
	if leaf, err := t.smt.GetLeaf(key); err == nil && !leaf.IsEmpty() {
		return fmt.Errorf("account %s: %w", w.Id, blockerrors.ErrMDuplicateIdPrefix)
	}
	if err := t.smt.AddProof(w.Proof()); err != nil {
		return fmt.Errorf("account %s: %w", w.Id, err)
	}
	return nil
}

func (t *PartialAccountTree) GetStateCommitment(id types.AccountId) (common.Word, error) {
	return t.smt.Get(id.SmtKey())
}

// UpsertStateCommitments applies all updates or none. Every account must be
// tracked, its leaf must not hold a different account and no two updates may
// share a prefix.
func (t *PartialAccountTree) UpsertStateCommitments(updates []AccountEntry) error {
	claimed := make(map[uint64]types.AccountId, len(updates))
	batch := make([]trie.SmtEntry, 0, len(updates))
	for _, u := range updates {
		leaf, err := t.smt.GetLeaf(u.Id.SmtKey())
		if err != nil {
			return fmt.Errorf("account %s: %w", u.Id, err)
		}
		if other, ok := leafAccount(leaf); ok && other.Id != u.Id {
			return fmt.Errorf("account %s collides with %s: %w", u.Id, other.Id, blockerrors.ErrMDuplicateIdPrefix)
		}
		prefix := u.Id.Prefix.Uint64()
		if other, dup := claimed[prefix]; dup {
			return fmt.Errorf("accounts %s and %s: %w", other, u.Id, blockerrors.ErrMDuplicateIdPrefix)
		}
		claimed[prefix] = u.Id
		batch = append(batch, trie.SmtEntry{Key: u.Id.SmtKey(), Value: u.Commitment})
	}
	return t.smt.InsertBatch(batch)
}

func (t *PartialAccountTree) OpenAccount(id types.AccountId) (types.AccountWitness, error) {
	proof, err := t.smt.Open(id.SmtKey())
	if err != nil {
		return types.AccountWitness{}, err
	}
	if other, ok := leafAccount(proof.Leaf); ok {
		return types.AccountWitness{Id: other.Id, StateCommitment: other.Commitment, Path: proof.Path}, nil
	}
	return types.AccountWitness{Id: id, Path: proof.Path}, nil
}

func (t *PartialAccountTree) NumTrackedAccounts() int {
	return t.smt.NumTrackedLeaves()
}
