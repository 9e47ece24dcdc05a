package types

import (
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/rollup/common"
)

type BlockNumber uint32

const GenesisBlockNum BlockNumber = 0

// Epoch is the upper 16 bits of the block number.
func (n BlockNumber) Epoch() uint16 {
	return uint16(n >> EpochBlockNumShift)
}

func (n BlockNumber) AsFelt() common.Felt {
	return common.NewFelt(uint64(n))
}

func (n BlockNumber) Child() BlockNumber {
	return n + 1
}

// Parent returns false for genesis.
func (n BlockNumber) Parent() (BlockNumber, bool) {
	if n == GenesisBlockNum {
		return 0, false
	}
	return n - 1, true
}

type FeeParameters struct {
	NativeAssetId       AccountId `json:"native_asset_id"`
	VerificationBaseFee uint32    `json:"verification_base_fee"`
}

// BlockHeader is immutable once built. Its commitment is split in two so that
// the note root can be checked against commitment and sub_commitment alone.
type BlockHeader struct {
	version             uint32
	prevBlockCommitment common.Word
	blockNum            BlockNumber
	chainCommitment     common.Word
	accountRoot         common.Word
	nullifierRoot       common.Word
	noteRoot            common.Word
	txCommitment        common.Word
	txKernelCommitment  common.Word
	proofCommitment     common.Word
	feeParameters       FeeParameters
	timestamp           uint32
	subCommitment       common.Word
	commitment          common.Word
}

func NewBlockHeader(
	version uint32,
	prevBlockCommitment common.Word,
	blockNum BlockNumber,
	chainCommitment common.Word,
	accountRoot common.Word,
	nullifierRoot common.Word,
	noteRoot common.Word,
	txCommitment common.Word,
	txKernelCommitment common.Word,
	proofCommitment common.Word,
	feeParameters FeeParameters,
	timestamp uint32,
) *BlockHeader {
	h := &BlockHeader{
		version:             version,
		prevBlockCommitment: prevBlockCommitment,
		blockNum:            blockNum,
		chainCommitment:     chainCommitment,
		accountRoot:         accountRoot,
		nullifierRoot:       nullifierRoot,
		noteRoot:            noteRoot,
		txCommitment:        txCommitment,
		txKernelCommitment:  txKernelCommitment,
		proofCommitment:     proofCommitment,
		feeParameters:       feeParameters,
		timestamp:           timestamp,
	}
	h.subCommitment = h.computeSubCommitment()
	h.commitment = common.Merge(h.subCommitment, h.noteRoot)
	return h
}

// computeSubCommitment hashes 40 elements: seven words of roots and
// commitments, [block_num, version, timestamp, 0],
// [asset suffix, asset prefix, base fee, 0] and a zero word.
func (h *BlockHeader) computeSubCommitment() common.Word {
	elems := make([]common.Felt, 0, 40)
	for _, w := range []common.Word{
		h.prevBlockCommitment,
		h.chainCommitment,
		h.accountRoot,
		h.nullifierRoot,
		h.txCommitment,
		h.txKernelCommitment,
		h.proofCommitment,
	} {
		elems = append(elems, w[:]...)
	}
	elems = append(elems,
		h.blockNum.AsFelt(),
		common.NewFelt(uint64(h.version)),
		common.NewFelt(uint64(h.timestamp)),
		common.ZERO,
	)
	elems = append(elems,
		h.feeParameters.NativeAssetId.Suffix,
		h.feeParameters.NativeAssetId.Prefix,
		common.NewFelt(uint64(h.feeParameters.VerificationBaseFee)),
		common.ZERO,
	)
	elems = append(elems, common.EmptyWord[:]...)
	return common.HashElements(elems)
}

func (h *BlockHeader) Version() uint32                  { return h.version }
func (h *BlockHeader) PrevBlockCommitment() common.Word { return h.prevBlockCommitment }
func (h *BlockHeader) BlockNum() BlockNumber            { return h.blockNum }
func (h *BlockHeader) BlockEpoch() uint16               { return h.blockNum.Epoch() }
func (h *BlockHeader) ChainCommitment() common.Word     { return h.chainCommitment }
func (h *BlockHeader) AccountRoot() common.Word         { return h.accountRoot }
func (h *BlockHeader) NullifierRoot() common.Word       { return h.nullifierRoot }
func (h *BlockHeader) NoteRoot() common.Word            { return h.noteRoot }
func (h *BlockHeader) TxCommitment() common.Word        { return h.txCommitment }
func (h *BlockHeader) TxKernelCommitment() common.Word  { return h.txKernelCommitment }
func (h *BlockHeader) ProofCommitment() common.Word     { return h.proofCommitment }
func (h *BlockHeader) FeeParameters() FeeParameters     { return h.feeParameters }
func (h *BlockHeader) Timestamp() uint32                { return h.timestamp }
func (h *BlockHeader) SubCommitment() common.Word       { return h.subCommitment }
func (h *BlockHeader) Commitment() common.Word          { return h.commitment }

// VerifyNoteRoot checks noteRoot against the header's two commitments only.
func VerifyNoteRoot(commitment, subCommitment, noteRoot common.Word) bool {
	return common.Merge(subCommitment, noteRoot) == commitment
}

func (h *BlockHeader) String() string {
	jsonByte, _ := json.Marshal(h)
	return string(jsonByte)
}

// JBlockHeader is the JSON form of a header.
type JBlockHeader struct {
	Version             uint32        `json:"version"`
	PrevBlockCommitment common.Word   `json:"prev_block_commitment"`
	BlockNum            BlockNumber   `json:"block_num"`
	ChainCommitment     common.Word   `json:"chain_commitment"`
	AccountRoot         common.Word   `json:"account_root"`
	NullifierRoot       common.Word   `json:"nullifier_root"`
	NoteRoot            common.Word   `json:"note_root"`
	TxCommitment        common.Word   `json:"tx_commitment"`
	TxKernelCommitment  common.Word   `json:"tx_kernel_commitment"`
	ProofCommitment     common.Word   `json:"proof_commitment"`
	FeeParameters       FeeParameters `json:"fee_parameters"`
	Timestamp           uint32        `json:"timestamp"`
	SubCommitment       *common.Word  `json:"sub_commitment,omitempty"`
	Commitment          *common.Word  `json:"commitment,omitempty"`
}

func (h *BlockHeader) toJ() JBlockHeader {
	sub, c := h.subCommitment, h.commitment
	return JBlockHeader{
		Version:             h.version,
		PrevBlockCommitment: h.prevBlockCommitment,
		BlockNum:            h.blockNum,
		ChainCommitment:     h.chainCommitment,
		AccountRoot:         h.accountRoot,
		NullifierRoot:       h.nullifierRoot,
		NoteRoot:            h.noteRoot,
		TxCommitment:        h.txCommitment,
		TxKernelCommitment:  h.txKernelCommitment,
		ProofCommitment:     h.proofCommitment,
		FeeParameters:       h.feeParameters,
		Timestamp:           h.timestamp,
		SubCommitment:       &sub,
		Commitment:          &c,
	}
}

func (j JBlockHeader) header() *BlockHeader {
	return NewBlockHeader(j.Version, j.PrevBlockCommitment, j.BlockNum, j.ChainCommitment, j.AccountRoot,
		j.NullifierRoot, j.NoteRoot, j.TxCommitment, j.TxKernelCommitment, j.ProofCommitment, j.FeeParameters, j.Timestamp)
}

func (h BlockHeader) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.toJ())
}

// UnmarshalJSON recomputes both commitments. Commitments present in the
// input must match the recomputed ones.
func (h *BlockHeader) UnmarshalJSON(data []byte) error {
	var j JBlockHeader
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	built := j.header()
	if j.SubCommitment != nil && *j.SubCommitment != built.subCommitment {
		return fmt.Errorf("block %d: sub_commitment %s does not match fields (%s)", j.BlockNum, *j.SubCommitment, built.subCommitment)
	}
	if j.Commitment != nil && *j.Commitment != built.commitment {
		return fmt.Errorf("block %d: commitment %s does not match fields (%s)", j.BlockNum, *j.Commitment, built.commitment)
	}
	*h = *built
	return nil
}
