package config

// StoreConfig selects the embedded database backing the state store
type StoreConfig struct {
	Type      string `yaml:"type"`
	Directory string `yaml:"directory"`
}

// GenesisBalance seeds one account when starting from an empty ledger
type GenesisBalance struct {
	Address string `yaml:"address"`
	Amount  string `yaml:"amount"`
}

// NodeConfig holds the configuration from ledgersync.yml
type NodeConfig struct {
	FeedID        uint64           `yaml:"feed_id"`
	RPCURL        string           `yaml:"rpc_url"`
	StartPosition uint64           `yaml:"start_position"`
	ListenAddr    string           `yaml:"listen_addr"`
	Peers         []string         `yaml:"peers"`
	Store         StoreConfig      `yaml:"store"`
	Genesis       []GenesisBalance `yaml:"genesis"`
}

// ConfigFile is the top-level structure for ledgersync.yml
type ConfigFile struct {
	Config NodeConfig `yaml:"config"`
}
