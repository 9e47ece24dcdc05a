package types

import (
	"fmt"

	"github.com/colorfulnotion/rollup/common"
)

type NoteId = common.Word

type NoteType uint8

const (
	NoteTypePublic    NoteType = 1
	NoteTypePrivate   NoteType = 2
	NoteTypeEncrypted NoteType = 3
)

type NoteTag uint32

type NoteMetadata struct {
	Sender   AccountId `json:"sender"`
	NoteType NoteType  `json:"note_type"`
	Tag      NoteTag   `json:"tag"`
	Aux      uint64    `json:"aux"`
}

// ToWord packs the metadata as [sender prefix, sender suffix, type<<32 | tag, aux].
func (m NoteMetadata) ToWord() common.Word {
	return common.Word{
		m.Sender.Prefix,
		m.Sender.Suffix,
		common.NewFelt(uint64(m.NoteType)<<32 | uint64(m.Tag)),
		common.NewFelt(m.Aux),
	}
}

type NoteHeader struct {
	Id       NoteId       `json:"id"`
	Metadata NoteMetadata `json:"metadata"`
}

// Commitment is the block note tree leaf value of the note.
func (h NoteHeader) Commitment() common.Word {
	return common.Merge(h.Id, h.Metadata.ToWord())
}

// OutputNote is a note created by a batch, with its position in that batch.
type OutputNote struct {
	Index  uint16     `json:"index"`
	Header NoteHeader `json:"header"`
}

// OutputNoteBatch lists the notes one batch created.
type OutputNoteBatch []OutputNote

// BlockNoteIndex locates a note inside a block.
type BlockNoteIndex struct {
	BatchIdx       uint16 `json:"batch_idx"`
	NoteIdxInBatch uint16 `json:"note_idx_in_batch"`
}

func NewBlockNoteIndex(batchIdx, noteIdxInBatch int) (BlockNoteIndex, error) {
	if batchIdx < 0 || batchIdx >= MaxBatchesPerBlock {
		return BlockNoteIndex{}, fmt.Errorf("batch index %d out of range [0,%d)", batchIdx, MaxBatchesPerBlock)
	}
	if noteIdxInBatch < 0 || noteIdxInBatch >= MaxOutputNotesPerBatch {
		return BlockNoteIndex{}, fmt.Errorf("note index %d out of range [0,%d)", noteIdxInBatch, MaxOutputNotesPerBatch)
	}
	return BlockNoteIndex{BatchIdx: uint16(batchIdx), NoteIdxInBatch: uint16(noteIdxInBatch)}, nil
}

// LeafIndex is the note's position in the block note tree.
func (i BlockNoteIndex) LeafIndex() uint64 {
	return uint64(i.BatchIdx)*MaxOutputNotesPerBatch + uint64(i.NoteIdxInBatch)
}
