package config

const (
	DefaultFeedID        = 73746238
	DefaultRPCURL        = "https://pwrrpc.pwrlabs.io"
	DefaultStartPosition = 1
	DefaultListenAddr    = ":8080"
	DefaultPeer          = "localhost:8080"

	DefaultStoreType = StoreTypeLevelDB
	DefaultStoreDir  = "./database"
)

const (
	StoreTypeLevelDB = "leveldb"
	StoreTypeBolt    = "bolt"
)

// Well-known accounts funded when the ledger starts empty, matching what
// peer nodes seed so genesis digests line up.
var DefaultGenesis = []GenesisBalance{
	{Address: "c767ea1d613eefe0ce1610b18cb047881bafb829", Amount: "1000000000000"},
	{Address: "3b4412f57828d1ceb0dbf0d460f7eb1f21fed8b4", Amount: "1000000000000"},
	{Address: "9282d39ca205806473f4fde5bac48ca6dfb9d300", Amount: "1000000000000"},
	{Address: "e68191b7913e72e6f1759531fbfaa089ff02308a", Amount: "1000000000000"},
}

// DefaultNodeConfig is what a node runs with when no config file is given.
func DefaultNodeConfig() *NodeConfig {
	return &NodeConfig{
		FeedID:        DefaultFeedID,
		RPCURL:        DefaultRPCURL,
		StartPosition: DefaultStartPosition,
		ListenAddr:    DefaultListenAddr,
		Peers:         []string{DefaultPeer},
		Store: StoreConfig{
			Type:      DefaultStoreType,
			Directory: DefaultStoreDir,
		},
		Genesis: DefaultGenesis,
	}
}
