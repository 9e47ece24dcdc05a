package statedb

import (
	"fmt"

	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/log"
	"github.com/colorfulnotion/rollup/types"
)

// GenesisConfig is the chain data block 0 commits to.
type GenesisConfig struct {
	Version            uint32
	Timestamp          uint32
	FeeParameters      types.FeeParameters
	TxKernelCommitment common.Word
	Accounts           []AccountEntry
}

// ChainState is the full state the block producer keeps: every account,
// every spent nullifier and every header. It produces the witnesses a
// proposed block carries and applies built blocks.
type ChainState struct {
	Accounts   *AccountTree
	Nullifiers *NullifierTree
	Chain      *Blockchain
}

// NewGenesisState builds block 0 over the genesis accounts.
func NewGenesisState(cfg GenesisConfig) (*ChainState, error) {
	accounts, err := AccountTreeWithEntries(cfg.Accounts)
	if err != nil {
		return nil, err
	}
	s := &ChainState{
		Accounts:   accounts,
		Nullifiers: NewNullifierTree(),
		Chain:      NewBlockchain(),
	}
	genesis := types.NewBlockHeader(
		cfg.Version,
		common.EmptyWord,
		types.GenesisBlockNum,
		s.Chain.ChainCommitment(),
		accounts.Root(),
		s.Nullifiers.Root(),
		EmptyBlockNoteTreeRoot(),
		types.ComputeTxCommitment(nil),
		cfg.TxKernelCommitment,
		common.EmptyWord,
		cfg.FeeParameters,
		cfg.Timestamp,
	)
	if err := s.Chain.AddBlock(genesis); err != nil {
		return nil, err
	}
	log.Info(log.ChainMonitoring, "genesis created", "accounts", accounts.NumAccounts(), "commitment", genesis.Commitment())
	return s, nil
}

func (s *ChainState) Tip() *types.BlockHeader {
	return s.Chain.ChainTip()
}

// ProposeBlock gathers the witnesses for building the block after the tip
// from the given batches. Every updated account and spent nullifier is
// opened against the current trees and the chain history tracks genesis.
func (s *ChainState) ProposeBlock(batches []types.ProvenBatch, timestamp uint32) (*types.ProposedBlock, error) {
	tip := s.Tip()
	if tip == nil {
		return nil, fmt.Errorf("chain has no genesis block")
	}

	updates := make(map[types.AccountId]types.AccountUpdateWitness)
	nullifiers := make(map[types.Nullifier]types.NullifierWitness)
	noteBatches := make([]types.OutputNoteBatch, 0, len(batches))
	for _, batch := range batches {
		var notes types.OutputNoteBatch
		for _, tx := range batch.Transactions {
			u, seen := updates[tx.AccountId]
			if !seen {
				u = types.AccountUpdateWitness{
					InitialStateCommitment: tx.InitialStateCommitment,
					InitialStateProof:      s.Accounts.OpenAccount(tx.AccountId),
				}
			}
			u.FinalStateCommitment = tx.FinalStateCommitment
			u.Transactions = append(u.Transactions, tx.Id)
			updates[tx.AccountId] = u

			for _, n := range tx.InputNullifiers {
				nullifiers[n] = s.Nullifiers.OpenNullifier(n)
			}
			for _, note := range tx.OutputNotes {
				notes = append(notes, types.OutputNote{Index: uint16(len(notes)), Header: note})
			}
		}
		noteBatches = append(noteBatches, notes)
	}

	var tracked []types.BlockNumber
	if tip.BlockNum() > types.GenesisBlockNum {
		tracked = append(tracked, types.GenesisBlockNum)
	}
	chain, err := s.Chain.PartialBlockchain(tip.BlockNum(), tracked)
	if err != nil {
		return nil, err
	}

	proposed := &types.ProposedBlock{
		Batches:           batches,
		AccountUpdates:    updates,
		OutputNoteBatches: noteBatches,
		CreatedNullifiers: nullifiers,
		PartialBlockchain: chain,
		PrevBlockHeader:   tip,
		Timestamp:         timestamp,
	}
	if err := proposed.CheckLimits(); err != nil {
		return nil, err
	}
	return proposed, nil
}

// ApplyBlock updates the full state with a built block and checks that the
// result matches the roots in its header. On error the state must be
// discarded.
func (s *ChainState) ApplyBlock(block *ProvenBlock) error {
	h := block.Header
	if h.ChainCommitment() != s.Chain.ChainCommitment() {
		return fmt.Errorf("block %d chain commitment %s, history %s", h.BlockNum(), h.ChainCommitment(), s.Chain.ChainCommitment())
	}
	for _, u := range block.UpdatedAccounts {
		if _, err := s.Accounts.Insert(u.Id, u.FinalStateCommitment); err != nil {
			return err
		}
	}
	if err := s.Nullifiers.MarkSpent(block.CreatedNullifiers, h.BlockNum()); err != nil {
		return err
	}
	if s.Accounts.Root() != h.AccountRoot() {
		return fmt.Errorf("block %d account root %s, state %s", h.BlockNum(), h.AccountRoot(), s.Accounts.Root())
	}
	if s.Nullifiers.Root() != h.NullifierRoot() {
		return fmt.Errorf("block %d nullifier root %s, state %s", h.BlockNum(), h.NullifierRoot(), s.Nullifiers.Root())
	}
	if err := s.Chain.AddBlock(h); err != nil {
		return err
	}
	log.Debug(log.ChainMonitoring, "block applied", "block", h.BlockNum(), "accounts", s.Accounts.NumAccounts(), "nullifiers", s.Nullifiers.NumNullifiers())
	return nil
}
