package statedb

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/log"
	"github.com/colorfulnotion/rollup/types"
)

const tracerName = "github.com/colorfulnotion/rollup/statedb"

// tracer resolves against the current global provider on every call.
func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// BuilderConfig controls block construction.
type BuilderConfig struct {
	// Parallel runs the four reconciliation steps concurrently.
	Parallel bool `json:"parallel"`
}

// AccountUpdate is an account whose state changed in a block.
type AccountUpdate struct {
	Id                   types.AccountId       `json:"id"`
	FinalStateCommitment common.Word           `json:"final_state_commitment"`
	Transactions         []types.TransactionId `json:"transactions"`
}

// ProvenBlock is a built header with the block body it commits to.
type ProvenBlock struct {
	Header            *types.BlockHeader        `json:"header"`
	UpdatedAccounts   []AccountUpdate           `json:"updated_accounts"`
	OutputNoteBatches []types.OutputNoteBatch   `json:"output_note_batches"`
	CreatedNullifiers []types.Nullifier         `json:"created_nullifiers"`
	Transactions      []types.TransactionHeader `json:"transactions"`
	FeesCollected     *uint256.Int              `json:"fees_collected"`
}

// ComputeAccountRoot rebuilds the account tree from the update witnesses,
// checks it against the previous header and applies the final commitments.
func ComputeAccountRoot(prev *types.BlockHeader, updates map[types.AccountId]types.AccountUpdateWitness) (common.Word, error) {
	if len(updates) == 0 {
		return prev.AccountRoot(), nil
	}
	ids := types.SortedAccountIds(updates)

	tree := NewPartialAccountTree()
	for _, id := range ids {
		if err := tree.TrackAccount(updates[id].InitialStateProof); err != nil {
			return common.Word{}, blockerrors.AccountWitnessTracking(err)
		}
	}
	if tree.Root() != prev.AccountRoot() {
		return common.Word{}, blockerrors.StaleAccountTreeRoot(prev.AccountRoot(), tree.Root())
	}

	entries := make([]AccountEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, AccountEntry{Id: id, Commitment: updates[id].FinalStateCommitment})
	}
	if err := tree.UpsertStateCommitments(entries); err != nil {
		return common.Word{}, blockerrors.AccountIdPrefixDuplicate(err)
	}
	return tree.Root(), nil
}

// ComputeNullifierRoot rebuilds the nullifier tree from the witnesses, checks
// it against the previous header and spends every nullifier at blockNum. It
// returns the nullifiers in ascending order with the new root.
func ComputeNullifierRoot(prev *types.BlockHeader, nullifiers map[types.Nullifier]types.NullifierWitness, blockNum types.BlockNumber) ([]types.Nullifier, common.Word, error) {
	if len(nullifiers) == 0 {
		return nil, prev.NullifierRoot(), nil
	}
	sorted := types.SortedNullifiers(nullifiers)

	tree := NewPartialNullifierTree()
	for _, n := range sorted {
		if err := tree.TrackNullifier(nullifiers[n]); err != nil {
			return nil, common.Word{}, blockerrors.NullifierWitnessRootMismatch(err)
		}
	}
	if tree.Root() != prev.NullifierRoot() {
		return nil, common.Word{}, blockerrors.StaleNullifierTreeRoot(prev.NullifierRoot(), tree.Root())
	}
	if err := tree.MarkSpent(sorted, blockNum); err != nil {
		panic(fmt.Errorf("BUG: marking tracked nullifiers spent: %w", err))
	}
	return sorted, tree.Root(), nil
}

// ComputeNoteRoot builds the block note tree from scratch.
func ComputeNoteRoot(batches []types.OutputNoteBatch) common.Word {
	return BlockNoteTreeFromBatches(batches).Root()
}

// ComputeChainCommitment adds prev to the history and returns the new peaks
// hash. The history must end right before prev.
func ComputeChainCommitment(chain *types.PartialBlockchain, prev *types.BlockHeader) common.Word {
	chain.AddBlock(prev, false)
	return chain.ChainCommitment()
}

type reconciled struct {
	accountRoot     common.Word
	accountErr      error
	nullifiers      []types.Nullifier
	nullifierRoot   common.Word
	nullifierErr    error
	noteRoot        common.Word
	chainCommitment common.Word
}

func stepSpan(ctx context.Context, name string, blockNum types.BlockNumber) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attribute.Int64("block_num", int64(blockNum))))
}

func endStep(span trace.Span, root common.Word, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, blockerrors.GetErrorName(err))
	} else {
		span.SetAttributes(attribute.String("root", root.Hex()))
	}
	span.End()
}

func (r *reconciled) accounts(ctx context.Context, p *types.ProposedBlock) {
	_, span := stepSpan(ctx, "ComputeAccountRoot", p.BlockNum())
	r.accountRoot, r.accountErr = ComputeAccountRoot(p.PrevBlockHeader, p.AccountUpdates)
	endStep(span, r.accountRoot, r.accountErr)
	log.Debug(log.BlockBuilding, "account tree reconciled", "block", p.BlockNum(), "updates", len(p.AccountUpdates), "root", r.accountRoot, "err", r.accountErr)
}

func (r *reconciled) nullifierTree(ctx context.Context, p *types.ProposedBlock) {
	_, span := stepSpan(ctx, "ComputeNullifierRoot", p.BlockNum())
	r.nullifiers, r.nullifierRoot, r.nullifierErr = ComputeNullifierRoot(p.PrevBlockHeader, p.CreatedNullifiers, p.BlockNum())
	endStep(span, r.nullifierRoot, r.nullifierErr)
	log.Debug(log.BlockBuilding, "nullifier tree reconciled", "block", p.BlockNum(), "nullifiers", len(p.CreatedNullifiers), "root", r.nullifierRoot, "err", r.nullifierErr)
}

func (r *reconciled) notes(ctx context.Context, p *types.ProposedBlock) {
	_, span := stepSpan(ctx, "ComputeNoteRoot", p.BlockNum())
	r.noteRoot = ComputeNoteRoot(p.OutputNoteBatches)
	endStep(span, r.noteRoot, nil)
	log.Debug(log.BlockBuilding, "note tree built", "block", p.BlockNum(), "batches", len(p.OutputNoteBatches), "root", r.noteRoot)
}

func (r *reconciled) chain(ctx context.Context, p *types.ProposedBlock) {
	_, span := stepSpan(ctx, "ComputeChainCommitment", p.BlockNum())
	r.chainCommitment = ComputeChainCommitment(p.PartialBlockchain, p.PrevBlockHeader)
	endStep(span, r.chainCommitment, nil)
	log.Debug(log.BlockBuilding, "chain extended", "block", p.BlockNum(), "chain_length", p.PartialBlockchain.ChainLength(), "commitment", r.chainCommitment)
}

// run stops at the first failing reconciliation. The chain history inside p
// is only extended once both trees reconciled.
func (r *reconciled) run(ctx context.Context, cfg BuilderConfig, p *types.ProposedBlock) error {
	if !cfg.Parallel {
		r.accounts(ctx, p)
		if r.accountErr != nil {
			return r.accountErr
		}
		r.nullifierTree(ctx, p)
		if r.nullifierErr != nil {
			return r.nullifierErr
		}
		r.notes(ctx, p)
		r.chain(ctx, p)
		return nil
	}

	// both reconciliations run to completion so the reported error does not
	// depend on scheduling; the note tree is skipped once either failed
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.accounts(gctx, p)
		return r.accountErr
	})
	g.Go(func() error {
		r.nullifierTree(gctx, p)
		return r.nullifierErr
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		r.notes(gctx, p)
		return nil
	})
	if err := g.Wait(); err != nil {
		if r.accountErr != nil {
			return r.accountErr
		}
		if r.nullifierErr != nil {
			return r.nullifierErr
		}
		return err
	}
	r.chain(ctx, p)
	return nil
}

// BuildProvenBlock reconciles the account and nullifier trees, builds the
// note tree, extends the chain history and assembles the header. The
// proposed block is consumed: its partial blockchain is extended in place.
func BuildProvenBlock(ctx context.Context, cfg BuilderConfig, proposed *types.ProposedBlock) (*ProvenBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	blockNum := proposed.BlockNum()
	ctx, span := tracer().Start(ctx, "BuildProvenBlock", trace.WithAttributes(
		attribute.Int64("block_num", int64(blockNum)),
		attribute.Int("batches", len(proposed.Batches)),
		attribute.Bool("parallel", cfg.Parallel),
	))
	defer span.End()

	r := &reconciled{}
	if err := r.run(ctx, cfg, proposed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, blockerrors.GetErrorName(err))
		log.Warn(log.BlockBuilding, "block rejected", "block", blockNum, "err", blockerrors.GetErrorCodeWithName(err))
		return nil, err
	}

	txs := proposed.Transactions()
	prev := proposed.PrevBlockHeader
	header := types.NewBlockHeader(
		prev.Version(),
		prev.Commitment(),
		blockNum,
		r.chainCommitment,
		r.accountRoot,
		r.nullifierRoot,
		r.noteRoot,
		types.ComputeTxCommitment(txs),
		prev.TxKernelCommitment(),
		common.EmptyWord,
		prev.FeeParameters(),
		proposed.Timestamp,
	)

	fees := new(uint256.Int)
	for _, tx := range txs {
		fees.Add(fees, uint256.NewInt(tx.Fee))
	}

	span.SetAttributes(attribute.String("commitment", header.Commitment().Hex()))
	log.Info(log.BlockBuilding, "block built", "block", blockNum, "commitment", header.Commitment(),
		"txs", len(txs), "accounts", len(proposed.AccountUpdates), "nullifiers", len(r.nullifiers), "elapsed", time.Since(start))

	return &ProvenBlock{
		Header:            header,
		UpdatedAccounts:   accountUpdates(proposed),
		OutputNoteBatches: proposed.OutputNoteBatches,
		CreatedNullifiers: r.nullifiers,
		Transactions:      txs,
		FeesCollected:     fees,
	}, nil
}

// BuildBlockHeader builds the header of the proposed block sequentially.
func BuildBlockHeader(ctx context.Context, proposed *types.ProposedBlock) (*types.BlockHeader, error) {
	block, err := BuildProvenBlock(ctx, BuilderConfig{}, proposed)
	if err != nil {
		return nil, err
	}
	return block.Header, nil
}

func accountUpdates(p *types.ProposedBlock) []AccountUpdate {
	ids := types.SortedAccountIds(p.AccountUpdates)
	out := make([]AccountUpdate, 0, len(ids))
	for _, id := range ids {
		u := p.AccountUpdates[id]
		out = append(out, AccountUpdate{Id: id, FinalStateCommitment: u.FinalStateCommitment, Transactions: u.Transactions})
	}
	return out
}
