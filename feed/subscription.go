package feed

import (
	"sync/atomic"
)

// Subscription tracks a resumable position on the feed and delivers
// transactions, in order, to a handler. It is pull-driven: the owner of the
// ledger mutation context calls Poll, and the handler runs synchronously
// inside that call, so transaction application is serialized with whatever
// else that context does.
//
// LatestCheckedPosition only advances once every transaction of the covered
// range has been handled, so an observed position means all of its
// transactions were applied.
type Subscription struct {
	client   *Client
	sourceID uint64
	handler  Handler

	latestChecked atomic.Uint64
	running       atomic.Bool
}

// Subscribe opens a subscription for transactions of sourceID starting at
// fromPosition. No transactions flow until the owner starts calling Poll.
func Subscribe(client *Client, sourceID uint64, fromPosition uint64, handler Handler) *Subscription {
	s := &Subscription{
		client:   client,
		sourceID: sourceID,
		handler:  handler,
	}
	if fromPosition > 0 {
		s.latestChecked.Store(fromPosition - 1)
	}
	s.running.Store(true)
	return s
}

// Poll fetches and delivers every transaction the feed has accumulated past
// the subscription's position, then advances the position. Callers drive
// this from a single goroutine.
func (s *Subscription) Poll() error {
	if !s.running.Load() {
		return nil
	}

	latest, err := s.client.LatestPosition()
	if err != nil {
		return err
	}

	next := s.latestChecked.Load() + 1
	if latest < next {
		return nil
	}

	txs, err := s.client.Transactions(s.sourceID, next, latest)
	if err != nil {
		return err
	}

	for _, tx := range txs {
		if !s.running.Load() {
			return nil
		}
		s.handler(tx)
	}

	s.latestChecked.Store(latest)
	return nil
}

// Reset rewinds the subscription so the next Poll redelivers everything from
// fromPosition on. Used after a rollback discarded applied transactions.
func (s *Subscription) Reset(fromPosition uint64) {
	if fromPosition == 0 {
		s.latestChecked.Store(0)
		return
	}
	s.latestChecked.Store(fromPosition - 1)
}

// LatestCheckedPosition returns the highest position whose transactions have
// all been delivered.
func (s *Subscription) LatestCheckedPosition() uint64 {
	return s.latestChecked.Load()
}

func (s *Subscription) IsRunning() bool {
	return s.running.Load()
}

// Stop prevents further delivery. A Poll in progress finishes the current
// transaction and returns.
func (s *Subscription) Stop() {
	s.running.Store(false)
}
