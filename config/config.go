package config

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// LoadNodeConfig reads and parses the ledgersync.yml file. Missing fields
// fall back to defaults so a minimal file stays minimal.
func LoadNodeConfig(path string) (*NodeConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg := cfgFile.Config
	applyDefaults(&cfg)
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *NodeConfig) {
	if cfg.FeedID == 0 {
		cfg.FeedID = DefaultFeedID
	}
	if cfg.RPCURL == "" {
		cfg.RPCURL = DefaultRPCURL
	}
	if cfg.StartPosition == 0 {
		cfg.StartPosition = DefaultStartPosition
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if len(cfg.Peers) == 0 {
		cfg.Peers = []string{DefaultPeer}
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = DefaultStoreType
	}
	if cfg.Store.Directory == "" {
		cfg.Store.Directory = DefaultStoreDir
	}
	if len(cfg.Genesis) == 0 {
		cfg.Genesis = DefaultGenesis
	}
}

// Validate validates the store configuration
func (sc *StoreConfig) Validate() error {
	switch sc.Type {
	case StoreTypeLevelDB, StoreTypeBolt:
	default:
		return fmt.Errorf("unsupported store type: %s", sc.Type)
	}
	if sc.Directory == "" {
		return fmt.Errorf("store directory cannot be empty")
	}
	return nil
}

type SyncConfig struct {
	FeedPollIntervalMs   int `ini:"feed_poll_interval_ms"`
	CheckpointIntervalMs int `ini:"checkpoint_interval_ms"`
	PeerTimeoutMs        int `ini:"peer_timeout_ms"`
}

type LogConfig struct {
	File       string `ini:"file"`
	MaxSizeMB  int    `ini:"max_size_mb"`
	MaxAgeDays int    `ini:"max_age_days"`
}

// DefaultSyncConfig matches the reference timings: a 5 second checkpoint
// tick and a 10 second peer request timeout.
func DefaultSyncConfig() *SyncConfig {
	return &SyncConfig{
		FeedPollIntervalMs:   1000,
		CheckpointIntervalMs: 5000,
		PeerTimeoutMs:        10000,
	}
}

// LoadSyncConfig reads sync tuning from an .ini file
func LoadSyncConfig(path string) (*SyncConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	syncCfg := DefaultSyncConfig()
	if err := cfg.Section("sync").MapTo(syncCfg); err != nil {
		return nil, err
	}
	return syncCfg, nil
}

// LoadLogConfig reads log rotation settings from an .ini file
func LoadLogConfig(path string) (*LogConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	logCfg := &LogConfig{}
	if err := cfg.Section("log").MapTo(logCfg); err != nil {
		return nil, err
	}
	return logCfg, nil
}
