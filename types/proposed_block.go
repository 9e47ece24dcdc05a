package types

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/colorfulnotion/rollup/blockerrors"
)

// ProposedBlock is everything needed to build the next header: the batches,
// the witnesses of the state they touch and the chain history through the
// block before the previous one.
type ProposedBlock struct {
	Batches           []ProvenBatch                      `json:"batches"`
	AccountUpdates    map[AccountId]AccountUpdateWitness `json:"account_updates"`
	OutputNoteBatches []OutputNoteBatch                  `json:"output_note_batches"`
	CreatedNullifiers map[Nullifier]NullifierWitness     `json:"created_nullifiers"`
	PartialBlockchain *PartialBlockchain                 `json:"partial_blockchain"`
	PrevBlockHeader   *BlockHeader                       `json:"prev_block_header"`
	Timestamp         uint32                             `json:"timestamp"`
}

func (b *ProposedBlock) BlockNum() BlockNumber {
	return b.PrevBlockHeader.BlockNum().Child()
}

// Transactions lists every transaction in batch order, then transaction order.
func (b *ProposedBlock) Transactions() []TransactionHeader {
	var out []TransactionHeader
	for _, batch := range b.Batches {
		out = append(out, batch.Transactions...)
	}
	return out
}

// SortedAccountIds returns the updated accounts in ascending id order.
func SortedAccountIds(updates map[AccountId]AccountUpdateWitness) []AccountId {
	ids := make([]AccountId, 0, len(updates))
	for id := range updates {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, AccountId.Cmp)
	return ids
}

// SortedNullifiers returns the created nullifiers in ascending order.
func SortedNullifiers(nullifiers map[Nullifier]NullifierWitness) []Nullifier {
	ns := make([]Nullifier, 0, len(nullifiers))
	for n := range nullifiers {
		ns = append(ns, n)
	}
	slices.SortFunc(ns, Nullifier.Cmp)
	return ns
}

// CheckLimits validates the guarantees block construction relies on without
// checking them itself.
func (b *ProposedBlock) CheckLimits() error {
	if b.PrevBlockHeader == nil || b.PartialBlockchain == nil {
		return fmt.Errorf("proposed block is missing its previous header or chain history")
	}
	if len(b.Batches) > MaxBatchesPerBlock || len(b.OutputNoteBatches) > MaxBatchesPerBlock {
		return fmt.Errorf("%d batches, %d note batches: %w", len(b.Batches), len(b.OutputNoteBatches), blockerrors.ErrPTooManyBatches)
	}
	for batchIdx, notes := range b.OutputNoteBatches {
		if len(notes) > MaxOutputNotesPerBatch {
			return fmt.Errorf("batch %d has %d notes: %w", batchIdx, len(notes), blockerrors.ErrPTooManyOutputNotes)
		}
		seen := make(map[uint16]struct{}, len(notes))
		for _, n := range notes {
			if n.Index >= MaxOutputNotesPerBatch {
				return fmt.Errorf("batch %d note index %d: %w", batchIdx, n.Index, blockerrors.ErrPTooManyOutputNotes)
			}
			if _, dup := seen[n.Index]; dup {
				return fmt.Errorf("batch %d note index %d: %w", batchIdx, n.Index, blockerrors.ErrPDuplicateOutputNoteIndex)
			}
			seen[n.Index] = struct{}{}
		}
	}
	if b.Timestamp <= b.PrevBlockHeader.Timestamp() {
		return fmt.Errorf("timestamp %d after %d: %w", b.Timestamp, b.PrevBlockHeader.Timestamp(), blockerrors.ErrPTimestampNotMonotonic)
	}
	if b.PartialBlockchain.ChainLength() != b.PrevBlockHeader.BlockNum() {
		return fmt.Errorf("chain length %d, previous block %d: %w", b.PartialBlockchain.ChainLength(), b.PrevBlockHeader.BlockNum(), blockerrors.ErrPChainLengthMismatch)
	}
	return nil
}
