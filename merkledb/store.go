package merkledb

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"ledgersync/db"
)

// Keyspace prefixes. The digest is computed over the data keyspace only, so
// bookkeeping written through the meta keyspace never perturbs it; both
// keyspaces share the same staging overlay and flush batch.
const (
	prefixData = "data:"
	prefixMeta = "meta:"
)

// Store is a staged key-value state store with a content digest. Writes land
// in an in-memory overlay and reach the backing provider only on Flush, as
// one atomic batch. Revert discards everything staged since the last flush.
type Store struct {
	mu       sync.RWMutex
	provider db.IterableProvider
	overlay  map[string][]byte
}

func NewStore(provider db.IterableProvider) (*Store, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	return &Store{
		provider: provider,
		overlay:  make(map[string][]byte),
	}, nil
}

// Get returns the staged or committed value for key in the data keyspace,
// nil when absent.
func (s *Store) Get(key []byte) ([]byte, error) {
	return s.get(prefixData, key)
}

// Put stages a write in the data keyspace.
func (s *Store) Put(key, value []byte) error {
	return s.put(prefixData, key, value)
}

// GetMeta returns the staged or committed value for key in the meta keyspace.
func (s *Store) GetMeta(key []byte) ([]byte, error) {
	return s.get(prefixMeta, key)
}

// PutMeta stages a write in the meta keyspace.
func (s *Store) PutMeta(key, value []byte) error {
	return s.put(prefixMeta, key, value)
}

func (s *Store) get(prefix string, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("key cannot be empty")
	}

	full := prefix + string(key)

	s.mu.RLock()
	if value, ok := s.overlay[full]; ok {
		out := append([]byte(nil), value...)
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	value, err := s.provider.Get([]byte(full))
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %w", full, err)
	}
	return value, nil
}

func (s *Store) put(prefix string, key, value []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay[prefix+string(key)] = append([]byte(nil), value...)
	return nil
}

// Digest returns the content digest of the data keyspace, staged writes
// included, or nil when the data keyspace is empty. Any change to the data
// mapping changes the digest.
func (s *Store) Digest() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make(map[string][]byte)
	err := s.provider.IteratePrefix([]byte(prefixData), func(key, value []byte) bool {
		entries[string(key)] = append([]byte(nil), value...)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("could not iterate data keyspace: %w", err)
	}

	for key, value := range s.overlay {
		if len(key) >= len(prefixData) && key[:len(prefixData)] == prefixData {
			entries[key] = value
		}
	}

	if len(entries) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	h := sha256.New()
	buf := make([]byte, 8)
	for _, key := range keys {
		binary.BigEndian.PutUint64(buf, uint64(len(key)))
		h.Write(buf)
		h.Write([]byte(key))
		binary.BigEndian.PutUint64(buf, uint64(len(entries[key])))
		h.Write(buf)
		h.Write(entries[key])
	}
	return h.Sum(nil), nil
}

// Revert discards all staged writes, data and meta alike, restoring the
// state of the last flush.
func (s *Store) Revert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay = make(map[string][]byte)
}

// Flush durably persists all staged writes in one atomic batch. After a
// flush, Revert no longer touches them.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.overlay) == 0 {
		return nil
	}

	batch := s.provider.Batch()
	defer batch.Close()
	for key, value := range s.overlay {
		batch.Put([]byte(key), value)
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("failed to flush staged writes: %w", err)
	}

	s.overlay = make(map[string][]byte)
	return nil
}

// Staged reports how many writes are pending flush.
func (s *Store) Staged() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.overlay)
}

// Close closes the backing provider without flushing staged writes.
func (s *Store) Close() error {
	return s.provider.Close()
}
