// blockbuilder builds rollup block headers from proposed blocks and drives
// a local dev chain end to end.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/colorfulnotion/rollup/chainspecs"
	"github.com/colorfulnotion/rollup/log"
	"github.com/colorfulnotion/rollup/statedb"
	"github.com/colorfulnotion/rollup/storage"
	"github.com/colorfulnotion/rollup/telemetry"
	"github.com/colorfulnotion/rollup/types"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfg     types.CommandConfig
		tracing = telemetry.NewNoOpTracing()
	)

	rootCmd := &cobra.Command{
		Use:           "blockbuilder",
		Short:         "Rollup block header builder",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.LogJson {
				if err := log.InitJSONLogger(cmd.ErrOrStderr(), cfg.LogLevel); err != nil {
					return err
				}
			} else {
				if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
					return err
				}
				log.InitLogger(cfg.LogLevel)
			}
			log.EnableModules(cfg.LogModules)
			log.Debug(log.BlockBuilding, "config", "cfg", cfg.String())

			t, err := telemetry.InitTracing(cmd.Context(), cfg.TraceEndpoint)
			if err != nil {
				return err
			}
			tracing = t
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return tracing.Shutdown(context.Background())
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, crit)")
	flags.StringVar(&cfg.LogModules, "log-modules", "", "Comma separated modules to enable debug logs for (block_mod,trie_mod,chain_mod,storage_mod)")
	flags.BoolVar(&cfg.LogJson, "log-json", false, "Emit JSON logs")
	flags.StringVarP(&cfg.DataDir, "data-dir", "d", "", "Header store directory (empty keeps headers in memory)")
	flags.StringVar(&cfg.Backend, "backend", storage.BackendLevelDB, "Header store backend (leveldb, badger)")
	flags.StringVar(&cfg.Chain, "chain", "dev", "Chain spec name or file")
	flags.BoolVar(&cfg.Parallel, "parallel", false, "Reconcile trees in parallel")
	flags.StringVar(&cfg.TraceEndpoint, "trace-endpoint", "", "OTLP/HTTP trace endpoint (e.g., localhost:4318)")

	rootCmd.AddCommand(
		newGenesisCmd(&cfg),
		newBuildCmd(&cfg),
		newVerifyCmd(&cfg),
		newDemoCmd(&cfg),
	)
	return rootCmd
}

func openChainStore(cfg *types.CommandConfig) (*storage.ChainStore, error) {
	kv, err := storage.OpenKVStore(cfg.Backend, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	cs, err := storage.NewChainStore(kv, storage.DefaultHeaderCacheSize)
	if err != nil {
		kv.Close()
		return nil, err
	}
	return cs, nil
}

func loadGenesis(cfg *types.CommandConfig) (*chainspecs.ChainSpec, *statedb.ChainState, error) {
	spec, err := chainspecs.ReadSpec(cfg.Chain)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read chain spec %s: %w", cfg.Chain, err)
	}
	state, err := spec.Genesis()
	if err != nil {
		return nil, nil, err
	}
	return spec, state, nil
}
