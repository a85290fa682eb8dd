package api

import (
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgersync/db"
	"ledgersync/ledger"
	"ledgersync/merkledb"
	"ledgersync/store"
)

func newTestServer(t *testing.T) (*Server, *ledger.Ledger, *store.CheckpointStore) {
	t.Helper()

	provider, err := db.NewLevelDBProvider(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })

	state, err := merkledb.NewStore(provider)
	require.NoError(t, err)

	ld := ledger.NewLedger(state)
	checkpoints := store.NewCheckpointStore(state)
	return NewServer(ld, checkpoints, ":0"), ld, checkpoints
}

func queryRootHash(t *testing.T, s *Server, target string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestRootHashAtCurrentPosition(t *testing.T) {
	s, ld, checkpoints := newTestServer(t)

	addr, err := hex.DecodeString("c767ea1d613eefe0ce1610b18cb047881bafb829")
	require.NoError(t, err)
	require.NoError(t, ld.SetBalance(addr, uint256.NewInt(500)))
	require.NoError(t, checkpoints.SetLastPosition(12))

	expected, err := ld.RootHash()
	require.NoError(t, err)

	code, body := queryRootHash(t, s, "/rootHash?blockNumber=12")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, hex.EncodeToString(expected), body)
}

func TestRootHashAtCurrentPositionWithEmptyState(t *testing.T) {
	s, _, checkpoints := newTestServer(t)
	require.NoError(t, checkpoints.SetLastPosition(5))

	code, body := queryRootHash(t, s, "/rootHash?blockNumber=5")
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, body)
}

func TestCertifiedRootAtPastPosition(t *testing.T) {
	s, _, checkpoints := newTestServer(t)

	digest := []byte{0xde, 0xad, 0xbe, 0xef}
	require.NoError(t, checkpoints.SetCertifiedRoot(7, digest))
	require.NoError(t, checkpoints.SetLastPosition(12))

	code, body := queryRootHash(t, s, "/rootHash?blockNumber=7")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "deadbeef", body)
}

func TestUncertifiedPastPositionReturnsNotFoundBody(t *testing.T) {
	s, _, checkpoints := newTestServer(t)
	require.NoError(t, checkpoints.SetLastPosition(12))

	code, body := queryRootHash(t, s, "/rootHash?blockNumber=7")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Block root hash not found for block number: 7", body)
}

func TestPositionBeyondLastIsInvalid(t *testing.T) {
	s, _, checkpoints := newTestServer(t)
	require.NoError(t, checkpoints.SetLastPosition(12))

	code, body := queryRootHash(t, s, "/rootHash?blockNumber=13")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Invalid block number", body)
}

func TestPositionZeroIsInvalidWhenBehindLast(t *testing.T) {
	s, _, checkpoints := newTestServer(t)
	require.NoError(t, checkpoints.SetLastPosition(12))

	code, body := queryRootHash(t, s, "/rootHash?blockNumber=0")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Invalid block number", body)
}

func TestMalformedPositionIsInvalid(t *testing.T) {
	s, _, _ := newTestServer(t)

	for _, raw := range []string{"abc", "-1", "1.5", ""} {
		code, body := queryRootHash(t, s, "/rootHash?blockNumber="+raw)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Invalid block number", body, "blockNumber=%q", raw)
	}
}

func TestNonGetMethodRejected(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/rootHash?blockNumber=1", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
