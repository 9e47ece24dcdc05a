package common

import (
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks/poseidon2"
	"golang.org/x/crypto/blake2b"
)

// sponge layout: capacity [0,4), rate [4,12), digest [4,8)
const (
	stateWidth    = 12
	capacityWidth = 4
	rateWidth     = 8
	fullRounds    = 8
	partialRounds = 22
)

var permutation = poseidon2.NewPermutation(stateWidth, fullRounds, partialRounds)

func permute(state *[stateWidth]Felt) {
	if err := permutation.Permutation(state[:]); err != nil {
		panic(fmt.Errorf("BUG: poseidon2 permutation: %w", err))
	}
}

func digest(state *[stateWidth]Felt) Word {
	return Word{state[4], state[5], state[6], state[7]}
}

// Merge is the 2-to-1 compression used for inner tree nodes.
func Merge(a, b Word) Word {
	var state [stateWidth]Felt
	copy(state[capacityWidth:capacityWidth+4], a[:])
	copy(state[capacityWidth+4:], b[:])
	permute(&state)
	return digest(&state)
}

// HashElements absorbs elems into the sponge. The input length modulo the
// rate is bound in the capacity and a trailing partial block is padded with
// a single one followed by zeros.
func HashElements(elems []Felt) Word {
	var state [stateWidth]Felt
	state[0] = NewFelt(uint64(len(elems) % rateWidth))

	i := 0
	for _, e := range elems {
		state[capacityWidth+i] = e
		i++
		if i == rateWidth {
			permute(&state)
			i = 0
		}
	}
	if i > 0 {
		state[capacityWidth+i] = ONE
		i++
		for ; i < rateWidth; i++ {
			state[capacityWidth+i] = ZERO
		}
		permute(&state)
	}
	return digest(&state)
}

func HashWords(ws []Word) Word {
	return HashElements(FlattenWords(ws))
}

// ComputeHash computes the BLAKE2b hash of the given data
func ComputeHash(data []byte) []byte {
	hash := blake2b.Sum256(data)
	return hash[:]
}

// WordFromSeed derives a word from arbitrary bytes, reducing each 8 byte
// chunk of the blake2b digest modulo p.
func WordFromSeed(seed []byte) Word {
	h := ComputeHash(seed)
	var w Word
	for i := range w {
		w[i] = NewFelt(BytesToUint64(h[i*8 : (i+1)*8]))
	}
	return w
}
