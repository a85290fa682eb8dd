package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadNodeConfig(t *testing.T) {
	path := writeTempFile(t, "ledgersync.yml", `
config:
  feed_id: 1234
  rpc_url: "http://rpc.example:8085"
  start_position: 10
  listen_addr: ":9090"
  peers:
    - "peer-a:8080"
    - "peer-b:8080"
  store:
    type: "bolt"
    directory: "/tmp/ledgersync-test"
  genesis:
    - address: "c767ea1d613eefe0ce1610b18cb047881bafb829"
      amount: "500"
`)

	cfg, err := LoadNodeConfig(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(1234), cfg.FeedID)
	assert.Equal(t, "http://rpc.example:8085", cfg.RPCURL)
	assert.Equal(t, uint64(10), cfg.StartPosition)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, []string{"peer-a:8080", "peer-b:8080"}, cfg.Peers)
	assert.Equal(t, StoreTypeBolt, cfg.Store.Type)
	assert.Equal(t, "/tmp/ledgersync-test", cfg.Store.Directory)
	require.Len(t, cfg.Genesis, 1)
	assert.Equal(t, "500", cfg.Genesis[0].Amount)
}

func TestLoadNodeConfigAppliesDefaults(t *testing.T) {
	path := writeTempFile(t, "ledgersync.yml", `
config:
  listen_addr: ":9191"
`)

	cfg, err := LoadNodeConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9191", cfg.ListenAddr)
	assert.Equal(t, uint64(DefaultFeedID), cfg.FeedID)
	assert.Equal(t, DefaultRPCURL, cfg.RPCURL)
	assert.Equal(t, uint64(DefaultStartPosition), cfg.StartPosition)
	assert.Equal(t, []string{DefaultPeer}, cfg.Peers)
	assert.Equal(t, DefaultStoreType, cfg.Store.Type)
	assert.Equal(t, DefaultStoreDir, cfg.Store.Directory)
	assert.Equal(t, DefaultGenesis, cfg.Genesis)
}

func TestLoadNodeConfigRejectsUnknownStoreType(t *testing.T) {
	path := writeTempFile(t, "ledgersync.yml", `
config:
  store:
    type: "rocksdb"
    directory: "/tmp/x"
`)

	_, err := LoadNodeConfig(path)
	assert.Error(t, err)
}

func TestLoadNodeConfigMissingFile(t *testing.T) {
	_, err := LoadNodeConfig(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestStoreConfigValidate(t *testing.T) {
	valid := StoreConfig{Type: StoreTypeLevelDB, Directory: "./db"}
	assert.NoError(t, valid.Validate())

	noDir := StoreConfig{Type: StoreTypeBolt}
	assert.Error(t, noDir.Validate())

	badType := StoreConfig{Type: "postgres", Directory: "./db"}
	assert.Error(t, badType.Validate())
}

func TestLoadSyncConfig(t *testing.T) {
	path := writeTempFile(t, "tuning.ini", `
[sync]
feed_poll_interval_ms = 250
checkpoint_interval_ms = 2000
`)

	cfg, err := LoadSyncConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.FeedPollIntervalMs)
	assert.Equal(t, 2000, cfg.CheckpointIntervalMs)
	assert.Equal(t, DefaultSyncConfig().PeerTimeoutMs, cfg.PeerTimeoutMs, "unset keys keep their defaults")
}

func TestLoadLogConfig(t *testing.T) {
	path := writeTempFile(t, "tuning.ini", `
[log]
file = /var/log/ledgersync/node.log
max_size_mb = 50
max_age_days = 7
`)

	cfg, err := LoadLogConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/log/ledgersync/node.log", cfg.File)
	assert.Equal(t, 50, cfg.MaxSizeMB)
	assert.Equal(t, 7, cfg.MaxAgeDays)
}
