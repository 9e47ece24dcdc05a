package common

import (
	"encoding/json"
	"fmt"

	fr "github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	FeltSize = fr.Bytes
	WordSize = 4 * FeltSize
)

// Felt is an element of the Goldilocks field, p = 2^64 - 2^32 + 1.
type Felt = fr.Element

// Word is four field elements. Element 3 is the most significant one.
type Word [4]Felt

var (
	EmptyWord = Word{}
	ZERO      = fr.NewElement(0)
	ONE       = fr.NewElement(1)
)

// NewFelt reduces v modulo p.
func NewFelt(v uint64) Felt {
	return fr.NewElement(v)
}

func NewWord(a, b, c, d uint64) Word {
	return Word{NewFelt(a), NewFelt(b), NewFelt(c), NewFelt(d)}
}

// FeltFromBytes decodes 8 little endian bytes; values >= p are rejected.
func FeltFromBytes(b []byte) (Felt, error) {
	if len(b) != FeltSize {
		return Felt{}, fmt.Errorf("felt: want %d bytes, got %d", FeltSize, len(b))
	}
	var buf [FeltSize]byte
	copy(buf[:], b)
	return fr.LittleEndian.Element(&buf)
}

func FeltBytes(f Felt) [FeltSize]byte {
	var buf [FeltSize]byte
	fr.LittleEndian.PutElement(&buf, f)
	return buf
}

func (w Word) IsEmpty() bool {
	return w == EmptyWord
}

func (w Word) Equal(o Word) bool {
	return w == o
}

// Cmp orders words by their most significant element first.
func (w Word) Cmp(o Word) int {
	for i := 3; i >= 0; i-- {
		a, b := w[i].Uint64(), o[i].Uint64()
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	}
	return 0
}

// Uint64s returns the canonical integer value of each element.
func (w Word) Uint64s() [4]uint64 {
	return [4]uint64{w[0].Uint64(), w[1].Uint64(), w[2].Uint64(), w[3].Uint64()}
}

func (w Word) Bytes() []byte {
	out := make([]byte, 0, WordSize)
	for i := range w {
		b := FeltBytes(w[i])
		out = append(out, b[:]...)
	}
	return out
}

func WordFromBytes(b []byte) (Word, error) {
	var w Word
	if len(b) != WordSize {
		return w, fmt.Errorf("word: want %d bytes, got %d", WordSize, len(b))
	}
	for i := range w {
		f, err := FeltFromBytes(b[i*FeltSize : (i+1)*FeltSize])
		if err != nil {
			return w, fmt.Errorf("word element %d: %w", i, err)
		}
		w[i] = f
	}
	return w, nil
}

func (w Word) Hex() string {
	return hexutil.Encode(w.Bytes())
}

func (w Word) String() string {
	return w.Hex()
}

// TerminalString is used by the terminal log handler.
func (w Word) TerminalString() string {
	h := w.Hex()
	return h[:10] + ".." + h[len(h)-6:]
}

func HexToWord(s string) (Word, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return Word{}, err
	}
	return WordFromBytes(b)
}

func MustHexToWord(s string) Word {
	w, err := HexToWord(s)
	if err != nil {
		panic(err)
	}
	return w
}

func (w Word) MarshalText() ([]byte, error) {
	return []byte(w.Hex()), nil
}

func (w *Word) UnmarshalText(input []byte) error {
	v, err := HexToWord(string(input))
	if err != nil {
		return err
	}
	*w = v
	return nil
}

func (w Word) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Hex())
}

func (w *Word) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return w.UnmarshalText([]byte(s))
}

// FlattenWords concatenates the elements of ws.
func FlattenWords(ws []Word) []Felt {
	out := make([]Felt, 0, 4*len(ws))
	for _, w := range ws {
		out = append(out, w[:]...)
	}
	return out
}
