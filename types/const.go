package types

const (
	// Blocks per epoch is 2^EpochBlockNumShift.
	EpochBlockNumShift = 16

	MaxBatchesPerBlock     = 64
	MaxOutputNotesPerBatch = 1024
	MaxOutputNotesPerBlock = MaxBatchesPerBlock * MaxOutputNotesPerBatch

	// BlockNoteTreeDepth is log2(MaxOutputNotesPerBlock).
	BlockNoteTreeDepth = 16

	ProtocolVersion uint32 = 0
)
