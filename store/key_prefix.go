package store

// Database keys for checkpoint bookkeeping. The literal values match what
// peer implementations persist, so a data directory survives a rewrite of
// the node.
const (
	KeyLastCheckedPosition = "lastCheckedBlock"
	PrefixCertifiedRoot    = "blockRootHash_"
)
