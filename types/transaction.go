package types

import (
	"github.com/colorfulnotion/rollup/common"
)

type TransactionId = common.Word

type BatchId = common.Word

// TransactionHeader is the part of an executed transaction the block needs.
type TransactionHeader struct {
	Id                     TransactionId `json:"id"`
	AccountId              AccountId     `json:"account_id"`
	InitialStateCommitment common.Word   `json:"initial_state_commitment"`
	FinalStateCommitment   common.Word   `json:"final_state_commitment"`
	InputNullifiers        []Nullifier   `json:"input_nullifiers"`
	OutputNotes            []NoteHeader  `json:"output_notes"`
	Fee                    uint64        `json:"fee"`
}

// ProvenBatch is an ordered group of transactions proven together.
type ProvenBatch struct {
	Id           BatchId             `json:"id"`
	Transactions []TransactionHeader `json:"transactions"`
}

func NewProvenBatch(txs []TransactionHeader) ProvenBatch {
	return ProvenBatch{Id: ComputeTxCommitment(txs), Transactions: txs}
}

// ComputeTxCommitment hashes tx_id || [account prefix, account suffix, 0, 0]
// for each transaction, in order.
func ComputeTxCommitment(txs []TransactionHeader) common.Word {
	elems := make([]common.Felt, 0, 8*len(txs))
	for _, tx := range txs {
		elems = append(elems, tx.Id[:]...)
		elems = append(elems, tx.AccountId.Prefix, tx.AccountId.Suffix, common.ZERO, common.ZERO)
	}
	return common.HashElements(elems)
}
