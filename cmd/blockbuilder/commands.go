package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/colorfulnotion/rollup/blockerrors"
	"github.com/colorfulnotion/rollup/log"
	"github.com/colorfulnotion/rollup/statedb"
	"github.com/colorfulnotion/rollup/types"
)

func newGenesisCmd(cfg *types.CommandConfig) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "Build the genesis header of a chain spec",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, state, err := loadGenesis(cfg)
			if err != nil {
				return err
			}
			store, err := openChainStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			genesis := state.Tip()
			if err := store.PutHeader(genesis); err != nil {
				return err
			}
			return writeJSON(cmd, out, genesis)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the header JSON to this file instead of stdout")
	return cmd
}

func readProposal(path string) (*types.ProposedBlock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var proposed types.ProposedBlock
	if err := json.Unmarshal(data, &proposed); err != nil {
		return nil, fmt.Errorf("proposal %s: %w", path, err)
	}
	if err := proposed.CheckLimits(); err != nil {
		return nil, fmt.Errorf("proposal %s: %w", path, err)
	}
	return &proposed, nil
}

func buildFromFile(cmd *cobra.Command, cfg *types.CommandConfig, path string) (*statedb.ProvenBlock, error) {
	proposed, err := readProposal(path)
	if err != nil {
		return nil, err
	}
	block, err := statedb.BuildProvenBlock(cmd.Context(), statedb.BuilderConfig{Parallel: cfg.Parallel}, proposed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", blockerrors.GetErrorCodeWithName(err), err)
	}
	return block, nil
}

func newBuildCmd(cfg *types.CommandConfig) *cobra.Command {
	var proposal, out string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a block header from a proposed block JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			block, err := buildFromFile(cmd, cfg, proposal)
			if err != nil {
				return err
			}
			store, err := openChainStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.PutHeader(block.Header); err != nil {
				return err
			}
			return writeJSON(cmd, out, block.Header)
		},
	}
	cmd.Flags().StringVarP(&proposal, "proposal", "p", "", "Proposed block JSON file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the header JSON to this file instead of stdout")
	cmd.MarkFlagRequired("proposal")
	return cmd
}

func newVerifyCmd(cfg *types.CommandConfig) *cobra.Command {
	var proposal, expected string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Rebuild a header and compare it with an expected header JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			block, err := buildFromFile(cmd, cfg, proposal)
			if err != nil {
				return err
			}
			want, err := os.ReadFile(expected)
			if err != nil {
				return err
			}
			got, err := json.Marshal(block.Header)
			if err != nil {
				return err
			}
			diff, modified, err := diffJSON(want, got)
			if err != nil {
				return err
			}
			if modified {
				fmt.Fprintln(cmd.OutOrStdout(), diff)
				return fmt.Errorf("block %d header differs from %s", block.Header.BlockNum(), expected)
			}
			log.Info(log.BlockBuilding, "header verified", "block", block.Header.BlockNum(), "commitment", block.Header.Commitment())
			fmt.Fprintf(cmd.OutOrStdout(), "block %d header matches %s\n", block.Header.BlockNum(), block.Header.Commitment())
			return nil
		},
	}
	cmd.Flags().StringVarP(&proposal, "proposal", "p", "", "Proposed block JSON file")
	cmd.Flags().StringVarP(&expected, "expected", "e", "", "Expected header JSON file")
	cmd.MarkFlagRequired("proposal")
	cmd.MarkFlagRequired("expected")
	return cmd
}

func newDemoCmd(cfg *types.CommandConfig) *cobra.Command {
	var (
		blocks int
		outDir string
		tree   bool
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Drive blocks on a fresh chain and print their headers",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, state, err := loadGenesis(cfg)
			if err != nil {
				return err
			}
			store, err := openChainStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			d := &demo{
				spec:    spec,
				state:   state,
				store:   store,
				builder: statedb.BuilderConfig{Parallel: cfg.Parallel},
				outDir:  outDir,
				tree:    tree,
				out:     cmd.OutOrStdout(),
			}
			return d.run(cmd.Context(), blocks)
		},
	}
	cmd.Flags().IntVarP(&blocks, "blocks", "n", 5, "Number of blocks to build")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Write each proposal and header JSON to this directory")
	cmd.Flags().BoolVar(&tree, "tree", false, "Print the chain history mmr after the last block")
	return cmd
}

func writeJSON(cmd *cobra.Command, path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
