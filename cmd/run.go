package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"ledgersync/api"
	"ledgersync/config"
	"ledgersync/db"
	"ledgersync/feed"
	"ledgersync/ledger"
	"ledgersync/logx"
	"ledgersync/merkledb"
	"ledgersync/monitoring"
	"ledgersync/store"
	"ledgersync/syncer"
	"ledgersync/txproc"
	"ledgersync/validator"
)

var (
	configPath string
	tuningPath string
	peerList   []string
	listenAddr string
	dataDir    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the synchronizer node",
	Run: func(cmd *cobra.Command, args []string) {
		runNode()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the node config YAML")
	runCmd.Flags().StringVar(&tuningPath, "tuning", "", "Path to the sync tuning INI")
	runCmd.Flags().StringSliceVar(&peerList, "peers", nil, "Peer endpoints to validate root hashes with")
	runCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Listen address for the query endpoint")
	runCmd.Flags().StringVarP(&dataDir, "data-dir", "d", "", "State store directory")
}

func runNode() {
	cfg := loadConfiguration()

	syncCfg := config.DefaultSyncConfig()
	if tuningPath != "" {
		loaded, err := config.LoadSyncConfig(tuningPath)
		if err != nil {
			logx.Error("CMD", "Failed to load tuning config: ", err)
			os.Exit(1)
		}
		syncCfg = loaded

		if logCfg, err := config.LoadLogConfig(tuningPath); err == nil {
			logx.Configure(logCfg.File, logCfg.MaxSizeMB, logCfg.MaxAgeDays)
		}
	}

	monitoring.InitMetrics()
	stopSystem := make(chan struct{})
	monitoring.StartSystemCollector(30*time.Second, stopSystem)

	if err := os.MkdirAll(cfg.Store.Directory, 0755); err != nil {
		logx.Error("CMD", "Failed to create store directory: ", err)
		os.Exit(1)
	}

	provider, err := db.NewProvider(cfg.Store.Type, cfg.Store.Directory)
	if err != nil {
		logx.Error("CMD", "Failed to open state store: ", err)
		os.Exit(1)
	}

	stateStore, err := merkledb.NewStore(provider)
	if err != nil {
		logx.Error("CMD", "Failed to create state store: ", err)
		os.Exit(1)
	}

	ld := ledger.NewLedger(stateStore)
	checkpoints := store.NewCheckpointStore(stateStore)

	lastPosition, err := checkpoints.LastPosition()
	if err != nil {
		logx.Error("CMD", "Failed to read last position: ", err)
		os.Exit(1)
	}

	if lastPosition == 0 {
		if err := seedGenesis(ld, cfg.Genesis); err != nil {
			logx.Error("CMD", "Failed to seed genesis balances: ", err)
			os.Exit(1)
		}
	}

	fromPosition := cfg.StartPosition
	if lastPosition > 0 {
		fromPosition = lastPosition + 1
	}
	logx.Info("CMD", fmt.Sprintf("Starting synchronization of feed %d from position %d with %d peers", cfg.FeedID, fromPosition, len(cfg.Peers)))

	peerTimeout := time.Duration(syncCfg.PeerTimeoutMs) * time.Millisecond
	v := validator.NewRootHashValidator(cfg.Peers, peerTimeout, ld, checkpoints)
	applier := txproc.NewApplier(ld)
	worker := syncer.NewSyncer(
		ld,
		checkpoints,
		applier,
		v,
		time.Duration(syncCfg.FeedPollIntervalMs)*time.Millisecond,
		time.Duration(syncCfg.CheckpointIntervalMs)*time.Millisecond,
	)

	feedClient := feed.NewClient(cfg.RPCURL, peerTimeout)
	worker.Start(feedClient, cfg.FeedID, fromPosition)

	apiServer := api.NewServer(ld, checkpoints, cfg.ListenAddr)
	monitoring.RegisterMetrics(apiServer.Mux())
	apiServer.Start()

	waitForShutdown(worker, ld, stateStore, stopSystem)
}

func loadConfiguration() *config.NodeConfig {
	cfg := config.DefaultNodeConfig()
	if configPath != "" {
		loaded, err := config.LoadNodeConfig(configPath)
		if err != nil {
			logx.Error("CMD", "Failed to load config: ", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if len(peerList) > 0 {
		cfg.Peers = peerList
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if dataDir != "" {
		cfg.Store.Directory = dataDir
	}
	return cfg
}

// seedGenesis funds the configured accounts and flushes immediately: the
// seed is deterministic configuration, not speculative feed state, so a
// later rollback must not discard it.
func seedGenesis(ld *ledger.Ledger, genesis []config.GenesisBalance) error {
	logx.Info("CMD", "Initializing fresh ledger with genesis balances")

	for _, entry := range genesis {
		address, err := hex.DecodeString(entry.Address)
		if err != nil {
			return fmt.Errorf("failed to decode genesis address %s: %w", entry.Address, err)
		}
		amount, err := uint256.FromDecimal(entry.Amount)
		if err != nil {
			return fmt.Errorf("failed to parse genesis amount for %s: %w", entry.Address, err)
		}
		if err := ld.SetBalance(address, amount); err != nil {
			return fmt.Errorf("failed to seed balance for %s: %w", entry.Address, err)
		}
	}

	return ld.Flush()
}

func waitForShutdown(worker *syncer.Syncer, ld *ledger.Ledger, stateStore *merkledb.Store, stopSystem chan struct{}) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logx.Info("CMD", "Node is running, press Ctrl+C to stop")
	<-sigChan

	logx.Info("CMD", "Shutdown signal received")
	close(stopSystem)
	worker.Stop()

	// Staged state never passed quorum, so it is dropped here and redone on
	// restart. Certified state was already flushed when it was certified.
	ld.Revert()

	if err := stateStore.Close(); err != nil {
		logx.Error("CMD", "Error closing state store: ", err)
	}

	logx.Info("CMD", "Shutdown complete")
}
