package types

import (
	"fmt"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
)

// BlockHeaderSize is the length of a serialized header: four u32 fields, the
// native asset id as two u64 elements and eight words. Derived commitments
// are not serialized.
const BlockHeaderSize = 4 + 4 + 4 + 4 + 8 + 8 + 8*common.WordSize

type encoder struct {
	buf []byte
}

func (e *encoder) u32(v uint32)         { e.buf = append(e.buf, common.Uint32ToBytes(v)...) }
func (e *encoder) word(w common.Word)   { e.buf = append(e.buf, w.Bytes()...) }
func (e *encoder) felt(f common.Felt)   { b := common.FeltBytes(f); e.buf = append(e.buf, b[:]...) }
func (e *encoder) account(id AccountId) { e.felt(id.Prefix); e.felt(id.Suffix) }

type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.off+n > len(d.data) {
		d.err = fmt.Errorf("need %d bytes at offset %d, have %d", n, d.off, len(d.data)-d.off)
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u32() uint32 {
	if b := d.take(4); b != nil {
		return common.BytesToUint32(b)
	}
	return 0
}

func (d *decoder) word() common.Word {
	b := d.take(common.WordSize)
	if b == nil {
		return common.Word{}
	}
	w, err := common.WordFromBytes(b)
	if err != nil {
		d.err = err
	}
	return w
}

func (d *decoder) felt() common.Felt {
	b := d.take(common.FeltSize)
	if b == nil {
		return common.Felt{}
	}
	f, err := common.FeltFromBytes(b)
	if err != nil {
		d.err = err
	}
	return f
}

func (d *decoder) account() AccountId {
	prefix := d.felt()
	suffix := d.felt()
	return AccountId{Prefix: prefix, Suffix: suffix}
}

// Bytes serializes the header with fixed width little endian fields. The
// commitments are not written; they are recomputed on decode.
func (h *BlockHeader) Bytes() []byte {
	e := &encoder{buf: make([]byte, 0, BlockHeaderSize)}
	e.u32(h.version)
	e.word(h.prevBlockCommitment)
	e.u32(uint32(h.blockNum))
	e.word(h.chainCommitment)
	e.word(h.accountRoot)
	e.word(h.nullifierRoot)
	e.word(h.noteRoot)
	e.word(h.txCommitment)
	e.word(h.txKernelCommitment)
	e.word(h.proofCommitment)
	e.account(h.feeParameters.NativeAssetId)
	e.u32(h.feeParameters.VerificationBaseFee)
	e.u32(h.timestamp)
	return e.buf
}

func BlockHeaderFromBytes(data []byte) (*BlockHeader, error) {
	if len(data) != BlockHeaderSize {
		return nil, fmt.Errorf("header of %d bytes, want %d: %w", len(data), BlockHeaderSize, blockerrors.ErrPInvalidHeaderEncoding)
	}
	d := &decoder{data: data}
	version := d.u32()
	prev := d.word()
	blockNum := BlockNumber(d.u32())
	chain := d.word()
	account := d.word()
	nullifier := d.word()
	note := d.word()
	tx := d.word()
	txKernel := d.word()
	proof := d.word()
	asset := d.account()
	baseFee := d.u32()
	timestamp := d.u32()
	if d.err != nil {
		return nil, fmt.Errorf("%v: %w", d.err, blockerrors.ErrPInvalidHeaderEncoding)
	}
	return NewBlockHeader(version, prev, blockNum, chain, account, nullifier, note, tx, txKernel, proof,
		FeeParameters{NativeAssetId: asset, VerificationBaseFee: baseFee}, timestamp), nil
}
