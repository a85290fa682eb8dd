package merkledb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgersync/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	provider, err := db.NewLevelDBProvider(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })

	store, err := NewStore(provider)
	require.NoError(t, err)
	return store
}

func TestDigestEmptyStore(t *testing.T) {
	store := newTestStore(t)

	digest, err := store.Digest()
	require.NoError(t, err)
	assert.Nil(t, digest)
}

func TestStagedWritesVisibleBeforeFlush(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put([]byte("alice"), []byte{0x01}))

	value, err := store.Get([]byte("alice"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, value)
	assert.Equal(t, 1, store.Staged())
}

func TestDigestChangesWithDataWrites(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put([]byte("alice"), []byte{0x01}))
	first, err := store.Digest()
	require.NoError(t, err)
	require.NotNil(t, first)

	require.NoError(t, store.Put([]byte("alice"), []byte{0x02}))
	second, err := store.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestMetaWritesDoNotAffectDigest(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put([]byte("alice"), []byte{0x01}))
	before, err := store.Digest()
	require.NoError(t, err)

	require.NoError(t, store.PutMeta([]byte("lastCheckedBlock"), []byte{0, 0, 0, 0, 0, 0, 0, 9}))
	after, err := store.Digest()
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestRevertDiscardsStagedWrites(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put([]byte("alice"), []byte{0x01}))
	require.NoError(t, store.PutMeta([]byte("pos"), []byte{0x09}))
	store.Revert()

	value, err := store.Get([]byte("alice"))
	require.NoError(t, err)
	assert.Nil(t, value)

	meta, err := store.GetMeta([]byte("pos"))
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.Equal(t, 0, store.Staged())
}

func TestFlushMakesWritesDurable(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put([]byte("alice"), []byte{0x01}))
	require.NoError(t, store.PutMeta([]byte("pos"), []byte{0x09}))
	require.NoError(t, store.Flush())
	assert.Equal(t, 0, store.Staged())

	// Revert after flush must not touch flushed data.
	store.Revert()

	value, err := store.Get([]byte("alice"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, value)

	meta, err := store.GetMeta([]byte("pos"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x09}, meta)
}

func TestDigestDeterministicForSameContent(t *testing.T) {
	first := newTestStore(t)
	second := newTestStore(t)

	for _, s := range []*Store{first, second} {
		require.NoError(t, s.Put([]byte("alice"), []byte{0x01}))
		require.NoError(t, s.Put([]byte("bob"), []byte{0x02}))
	}
	// One store flushes, the other keeps everything staged.
	require.NoError(t, first.Flush())

	d1, err := first.Digest()
	require.NoError(t, err)
	d2, err := second.Digest()
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestEmptyKeyRejected(t *testing.T) {
	store := newTestStore(t)

	require.Error(t, store.Put(nil, []byte{0x01}))
	_, err := store.Get(nil)
	require.Error(t, err)
}

func TestBoltProviderRoundTrip(t *testing.T) {
	provider, err := db.NewBoltProvider(t.TempDir() + "/state.db")
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })

	store, err := NewStore(provider)
	require.NoError(t, err)

	require.NoError(t, store.Put([]byte("alice"), []byte{0x01}))
	require.NoError(t, store.Flush())

	value, err := store.Get([]byte("alice"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, value)

	digest, err := store.Digest()
	require.NoError(t, err)
	assert.NotNil(t, digest)
}
