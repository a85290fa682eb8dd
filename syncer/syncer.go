package syncer

import (
	"fmt"
	"time"

	"ledgersync/exception"
	"ledgersync/feed"
	"ledgersync/ledger"
	"ledgersync/logx"
	"ledgersync/monitoring"
	"ledgersync/store"
	"ledgersync/txproc"
	"ledgersync/validator"
)

// Syncer is the single mutation-owning worker. One goroutine drives both
// feed polling (transactions are applied synchronously inside Poll via the
// applier) and the periodic checkpoint step, so a validation or revert for
// one position can never race with application of later positions.
type Syncer struct {
	ledger      *ledger.Ledger
	checkpoints *store.CheckpointStore
	applier     *txproc.Applier
	validator   *validator.RootHashValidator
	sub         *feed.Subscription

	feedInterval       time.Duration
	checkpointInterval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewSyncer(
	ld *ledger.Ledger,
	checkpoints *store.CheckpointStore,
	applier *txproc.Applier,
	v *validator.RootHashValidator,
	feedInterval, checkpointInterval time.Duration,
) *Syncer {
	return &Syncer{
		ledger:             ld,
		checkpoints:        checkpoints,
		applier:            applier,
		validator:          v,
		feedInterval:       feedInterval,
		checkpointInterval: checkpointInterval,
		stopCh:             make(chan struct{}),
		doneCh:             make(chan struct{}),
	}
}

// Start subscribes to the feed from fromPosition and launches the worker
// loop.
func (s *Syncer) Start(client *feed.Client, sourceID uint64, fromPosition uint64) {
	s.sub = feed.Subscribe(client, sourceID, fromPosition, s.applier.Apply)

	exception.SafeGo("syncer", s.run)
}

func (s *Syncer) run() {
	defer close(s.doneCh)

	feedTicker := time.NewTicker(s.feedInterval)
	defer feedTicker.Stop()
	checkpointTicker := time.NewTicker(s.checkpointInterval)
	defer checkpointTicker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-feedTicker.C:
			if err := s.sub.Poll(); err != nil {
				logx.Warn("SYNCER", fmt.Sprintf("Feed poll failed: %v", err))
			}
			monitoring.SetFeedPosition(s.sub.LatestCheckedPosition())
		case <-checkpointTicker.C:
			s.checkpoint()
		}
	}
}

// checkpoint runs one progress check: if the feed position advanced past the
// last processed one, stage the new position, validate the local digest
// against the peer quorum, then flush, or revert and rewind.
func (s *Syncer) checkpoint() {
	current := s.sub.LatestCheckedPosition()

	last, err := s.checkpoints.LastPosition()
	if err != nil {
		logx.Error("SYNCER", fmt.Sprintf("Failed to read last position: %v", err))
		monitoring.RecordValidationRound(monitoring.ValidationErrored)
		return
	}
	if current <= last {
		return
	}

	// The position is staged before validation so a peer asking about the
	// in-flight position is answered with this node's current digest. The
	// revert of a failed round discards it along with the balances.
	if err := s.checkpoints.SetLastPosition(current); err != nil {
		logx.Error("SYNCER", fmt.Sprintf("Failed to stage position %d: %v", current, err))
		monitoring.RecordValidationRound(monitoring.ValidationErrored)
		return
	}

	outcome, err := s.validator.Validate(current)
	if err != nil {
		// Store-level failure: the staged position must not linger past the
		// round, or the next tick would treat it as already processed.
		logx.Error("SYNCER", fmt.Sprintf("Validation errored for position %d: %v", current, err))
		monitoring.RecordValidationRound(monitoring.ValidationErrored)
		s.ledger.Revert()
		s.sub.Reset(last + 1)
		return
	}

	switch outcome {
	case validator.OutcomeCommitted:
		if err := s.ledger.Flush(); err != nil {
			logx.Error("SYNCER", fmt.Sprintf("Failed to commit checkpoint %d: %v", current, err))
			monitoring.RecordValidationRound(monitoring.ValidationErrored)
			s.ledger.Revert()
			s.sub.Reset(last + 1)
			return
		}
		monitoring.RecordValidationRound(monitoring.ValidationCommitted)
		monitoring.SetCheckpointHeight(current)
		logx.Info("SYNCER", fmt.Sprintf("Checkpoint advanced to position %d", current))

	case validator.OutcomeSkipped:
		// Nothing was certified, so the staged position is dropped; flush
		// boundaries stay aligned with certified positions.
		monitoring.RecordValidationRound(monitoring.ValidationSkipped)
		s.ledger.Revert()
		s.sub.Reset(last + 1)

	case validator.OutcomeRolledBack:
		// Balances and position are back at the last flush; rewind the
		// subscription so the discarded transactions are redelivered.
		monitoring.RecordValidationRound(monitoring.ValidationRolledBack)
		s.sub.Reset(last + 1)
		logx.Warn("SYNCER", fmt.Sprintf("Checkpoint for position %d rolled back, resuming from %d", current, last+1))
	}
}

// Stop halts the worker and the subscription. Staged state that has not
// passed quorum is deliberately not flushed; it is redone on restart.
func (s *Syncer) Stop() {
	if s.sub != nil {
		s.sub.Stop()
	}
	close(s.stopCh)
	<-s.doneCh
}
