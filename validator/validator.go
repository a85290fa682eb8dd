package validator

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ledgersync/ledger"
	"ledgersync/logx"
	"ledgersync/monitoring"
	"ledgersync/store"
)

// Outcome of a quorum validation round.
type Outcome int

const (
	// OutcomeCommitted means enough reachable peers agreed and the digest
	// was certified.
	OutcomeCommitted Outcome = iota
	// OutcomeRolledBack means quorum was not reached and all staged
	// mutations were reverted.
	OutcomeRolledBack
	// OutcomeSkipped means there was no local digest to certify.
	OutcomeSkipped
)

// RootHashValidator decides whether the local state digest for a position is
// trustworthy enough to certify, by polling peers for their digest at that
// position and counting agreement against a quorum threshold.
//
// Peers are polled sequentially, in configured order, with an early exit
// once quorum is reached: worst-case latency is proportional to the peers
// actually needed, not the full peer count.
type RootHashValidator struct {
	peers       []string
	client      *http.Client
	ledger      *ledger.Ledger
	checkpoints *store.CheckpointStore
}

func NewRootHashValidator(peers []string, timeout time.Duration, ld *ledger.Ledger, checkpoints *store.CheckpointStore) *RootHashValidator {
	return &RootHashValidator{
		peers:       peers,
		client:      &http.Client{Timeout: timeout},
		ledger:      ld,
		checkpoints: checkpoints,
	}
}

// quorum is floor(2n/3)+1 agreeing peers out of n reachable ones. A single
// matching peer satisfies quorum(1)=1; quorum(0)=1 can never be met, so an
// empty or fully unreachable peer set always rolls back.
func quorum(n int) int {
	return (n*2)/3 + 1
}

// Validate runs one quorum round for position. On commit the certified
// digest is recorded; on rollback every staged mutation, the last processed
// position included, is reverted so the position is reprocessed.
func (v *RootHashValidator) Validate(position uint64) (Outcome, error) {
	localRoot, err := v.ledger.RootHash()
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("failed to get local root hash: %w", err)
	}
	if localRoot == nil {
		logx.Info("VALIDATOR", fmt.Sprintf("No local digest at position %d, nothing to certify", position))
		return OutcomeSkipped, nil
	}

	// Re-running an already certified position must be a no-op round.
	certified, err := v.checkpoints.CertifiedRoot(position)
	if err != nil {
		return OutcomeSkipped, err
	}
	if certified != nil && bytes.Equal(certified, localRoot) {
		return OutcomeCommitted, nil
	}

	n := len(v.peers)
	matches := 0

	for _, peer := range v.peers {
		peerRoot, reachable := v.fetchPeerRootHash(peer, position)
		if !reachable {
			// Unreachable or empty-handed peers shrink the denominator;
			// they are no evidence either way.
			n--
			monitoring.IncreasePeerQueryErrorCount()
		} else if bytes.Equal(peerRoot, localRoot) {
			matches++
		}
		// A disagreeing peer counts toward neither side: it is evidence
		// against, so it must not lower the quorum bar.

		if matches >= quorum(n) {
			if err := v.checkpoints.SetCertifiedRoot(position, localRoot); err != nil {
				return OutcomeSkipped, fmt.Errorf("failed to save certified root: %w", err)
			}
			logx.Info("VALIDATOR", fmt.Sprintf("Digest certified for position %d (%d/%d peers)", position, matches, n))
			return OutcomeCommitted, nil
		}
	}

	logx.Warn("VALIDATOR", fmt.Sprintf("Quorum not reached for position %d: %d matches of %d reachable (quorum %d)", position, matches, n, quorum(n)))
	v.ledger.Revert()
	return OutcomeRolledBack, nil
}

// fetchPeerRootHash queries one peer for its digest at position. The second
// return value is true only when the peer produced a digest value; timeouts,
// HTTP errors, empty and garbled bodies all report false.
func (v *RootHashValidator) fetchPeerRootHash(peer string, position uint64) ([]byte, bool) {
	url := fmt.Sprintf("http://%s/rootHash?blockNumber=%d", peer, position)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		logx.Error("VALIDATOR", fmt.Sprintf("Failed to build request for peer %s: %v", peer, err))
		return nil, false
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := v.client.Do(req)
	if err != nil {
		logx.Warn("VALIDATOR", fmt.Sprintf("Failed to contact peer %s: %v", peer, err))
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logx.Warn("VALIDATOR", fmt.Sprintf("Peer %s returned HTTP %d for position %d", peer, resp.StatusCode, position))
		return nil, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logx.Warn("VALIDATOR", fmt.Sprintf("Failed to read reply from peer %s: %v", peer, err))
		return nil, false
	}

	hexString := strings.TrimSpace(string(body))
	if hexString == "" {
		logx.Debug("VALIDATOR", fmt.Sprintf("Peer %s has no digest for position %d", peer, position))
		return nil, false
	}

	rootHash, err := hex.DecodeString(hexString)
	if err != nil {
		logx.Warn("VALIDATOR", fmt.Sprintf("Garbled reply from peer %s for position %d: %v", peer, position, err))
		return nil, false
	}

	return rootHash, true
}
