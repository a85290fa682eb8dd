package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"ledgersync/merkledb"
)

var ErrEmptyDigest = errors.New("digest must not be empty")

// CheckpointStore persists the synchronizer's progress: the last processed
// feed position and, per position, the digest that passed quorum validation.
// Both live in the state store's meta keyspace, so they stage, flush and
// revert in the same transactional unit as the balances they describe while
// staying out of the balance digest.
//
// Keys:
// - KeyLastCheckedPosition => 8-byte big-endian position
// - PrefixCertifiedRoot + <decimal position> => digest bytes
type CheckpointStore struct {
	store *merkledb.Store
}

func NewCheckpointStore(store *merkledb.Store) *CheckpointStore {
	return &CheckpointStore{store: store}
}

// LastPosition returns the highest feed position whose transactions have
// been applied, zero if never set.
func (c *CheckpointStore) LastPosition() (uint64, error) {
	data, err := c.store.GetMeta([]byte(KeyLastCheckedPosition))
	if err != nil {
		return 0, fmt.Errorf("failed to get last checked position: %w", err)
	}
	if len(data) < 8 {
		return 0, nil
	}
	return binary.BigEndian.Uint64(data), nil
}

// SetLastPosition records the highest applied feed position. The write is
// staged alongside ledger mutations and is undone by a revert.
func (c *CheckpointStore) SetLastPosition(position uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, position)
	if err := c.store.PutMeta([]byte(KeyLastCheckedPosition), buf); err != nil {
		return fmt.Errorf("failed to set last checked position: %w", err)
	}
	return nil
}

func certifiedRootKey(position uint64) []byte {
	return []byte(PrefixCertifiedRoot + strconv.FormatUint(position, 10))
}

// SetCertifiedRoot records the digest that passed quorum validation for
// position. Entries are written once per position and never rewritten with a
// different value: the caller only certifies a digest equal to its own, and
// re-validation of a flushed position reproduces the same digest.
func (c *CheckpointStore) SetCertifiedRoot(position uint64, digest []byte) error {
	if len(digest) == 0 {
		return ErrEmptyDigest
	}
	if err := c.store.PutMeta(certifiedRootKey(position), digest); err != nil {
		return fmt.Errorf("failed to set certified root for position %d: %w", position, err)
	}
	return nil
}

// CertifiedRoot returns the certified digest for position, nil when absent.
func (c *CheckpointStore) CertifiedRoot(position uint64) ([]byte, error) {
	digest, err := c.store.GetMeta(certifiedRootKey(position))
	if err != nil {
		return nil, fmt.Errorf("failed to get certified root for position %d: %w", position, err)
	}
	return digest, nil
}
