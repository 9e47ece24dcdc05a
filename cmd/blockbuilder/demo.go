package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/colorfulnotion/rollup/chainspecs"
	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/log"
	"github.com/colorfulnotion/rollup/statedb"
	"github.com/colorfulnotion/rollup/storage"
	"github.com/colorfulnotion/rollup/types"
)

const (
	demoBatchesPerBlock = 2
	demoTxsPerBatch     = 2
	demoNotesPerTx      = 2
)

// demo drives a chain from genesis: the full state proposes each block,
// the builder reconciles it from witnesses alone and the full state then
// applies the result.
type demo struct {
	spec    *chainspecs.ChainSpec
	state   *statedb.ChainState
	store   *storage.ChainStore
	builder statedb.BuilderConfig
	outDir  string
	tree    bool
	out     io.Writer
}

func (d *demo) run(ctx context.Context, blocks int) error {
	if err := d.store.PutHeader(d.state.Tip()); err != nil {
		return err
	}
	d.print(d.state.Tip(), 0)
	for i := 0; i < blocks; i++ {
		block, err := d.step(ctx)
		if err != nil {
			return err
		}
		d.print(block.Header, len(block.Transactions))
	}
	if d.tree {
		fmt.Fprintln(d.out, d.state.Chain.Tree())
	}
	log.Info(log.ChainMonitoring, "demo finished", "blocks", blocks, "tip", d.state.Tip().Commitment(),
		"accounts", d.state.Accounts.NumAccounts(), "nullifiers", d.state.Nullifiers.NumNullifiers())
	return nil
}

func (d *demo) step(ctx context.Context) (*statedb.ProvenBlock, error) {
	num := d.state.Tip().BlockNum().Child()
	proposed, err := d.state.ProposeBlock(d.batches(num), d.state.Tip().Timestamp()+d.spec.BlockInterval)
	if err != nil {
		return nil, err
	}
	// the proposal is consumed by the build, so it is saved first
	if err := d.save(num, "proposal", proposed); err != nil {
		return nil, err
	}
	block, err := statedb.BuildProvenBlock(ctx, d.builder, proposed)
	if err != nil {
		return nil, err
	}
	if err := d.state.ApplyBlock(block); err != nil {
		return nil, err
	}
	if err := d.store.PutHeader(block.Header); err != nil {
		return nil, err
	}
	if err := d.save(num, "header", block.Header); err != nil {
		return nil, err
	}
	return block, nil
}

// batches spends one fresh nullifier per transaction and rotates through
// the genesis accounts.
func (d *demo) batches(num types.BlockNumber) []types.ProvenBatch {
	accounts := d.spec.GenesisAccounts
	out := make([]types.ProvenBatch, 0, demoBatchesPerBlock)
	for b := 0; b < demoBatchesPerBlock; b++ {
		txs := make([]types.TransactionHeader, 0, demoTxsPerBatch)
		for t := 0; t < demoTxsPerBatch; t++ {
			k := int(num)*demoBatchesPerBlock*demoTxsPerBatch + b*demoTxsPerBatch + t
			id := accounts[k%len(accounts)].AccountId()
			tag := fmt.Sprintf("%d/%d/%d", num, b, t)
			tx := types.TransactionHeader{
				Id:                     common.WordFromSeed([]byte("tx " + tag)),
				AccountId:              id,
				InitialStateCommitment: d.state.Accounts.GetStateCommitment(id),
				FinalStateCommitment:   common.WordFromSeed([]byte("state " + tag)),
				InputNullifiers:        []types.Nullifier{common.WordFromSeed([]byte("nullifier " + tag))},
				Fee:                    uint64(d.spec.VerificationBaseFee),
			}
			for n := 0; n < demoNotesPerTx; n++ {
				tx.OutputNotes = append(tx.OutputNotes, types.NoteHeader{
					Id: common.WordFromSeed([]byte(fmt.Sprintf("note %s/%d", tag, n))),
					Metadata: types.NoteMetadata{
						Sender:   id,
						NoteType: types.NoteTypePublic,
						Tag:      types.NoteTag(k),
					},
				})
			}
			txs = append(txs, tx)
		}
		out = append(out, types.NewProvenBatch(txs))
	}
	return out
}

func (d *demo) save(num types.BlockNumber, kind string, v interface{}) error {
	if d.outDir == "" {
		return nil
	}
	if err := os.MkdirAll(d.outDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(d.outDir, fmt.Sprintf("block-%d.%s.json", num, kind)), data, 0o644)
}

func (d *demo) print(h *types.BlockHeader, txs int) {
	fmt.Fprintf(d.out, "block %-4d commitment %s txs %d account_root %s nullifier_root %s note_root %s\n",
		h.BlockNum(), h.Commitment(), txs, h.AccountRoot().TerminalString(), h.NullifierRoot().TerminalString(), h.NoteRoot().TerminalString())
}
