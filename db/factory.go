package db

import (
	"fmt"
	"path/filepath"
)

// Store backend names accepted by NewProvider
const (
	LevelDBStoreType = "leveldb"
	BoltStoreType    = "bolt"
)

// NewProvider creates the configured database backend rooted at directory.
func NewProvider(storeType, directory string) (IterableProvider, error) {
	switch storeType {
	case LevelDBStoreType:
		return NewLevelDBProvider(directory)
	case BoltStoreType:
		return NewBoltProvider(filepath.Join(directory, "state.db"))
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
