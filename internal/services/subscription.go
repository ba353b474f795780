package services

import (
	"sync"

	"marketplace-client/internal/domain"
	"marketplace-client/pkg/utils"
)

const defaultSubscriberBuffer = 16

// Subscription is a registered listener on a reconciler. When the consumer
// falls behind, the oldest pending update is dropped; every update carries
// the full view so the latest one is always enough to converge.
type Subscription struct {
	id      string
	ch      chan domain.Update
	owner   *Reconciler
	mu      sync.Mutex
	closed  bool
	dropped int
}

// Subscribe registers a listener whose channel holds up to buffer updates.
// Late subscribers should read View() for the state so far.
func (r *Reconciler) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	sub := &Subscription{
		id:    utils.GenerateID("sub"),
		ch:    make(chan domain.Update, buffer),
		owner: r,
	}

	r.subMu.Lock()
	defer r.subMu.Unlock()
	if r.subsClosed {
		sub.closeChannel()
		return sub
	}
	r.subs[sub.id] = sub
	return sub
}

func (s *Subscription) ID() string {
	return s.id
}

// Updates is closed when the subscription ends.
func (s *Subscription) Updates() <-chan domain.Update {
	return s.ch
}

// Dropped reports how many updates were discarded because the consumer lagged.
func (s *Subscription) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Subscription) Unsubscribe() {
	s.owner.subMu.Lock()
	delete(s.owner.subs, s.id)
	s.owner.subMu.Unlock()
	s.closeChannel()
}

func (s *Subscription) deliver(u domain.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- u:
			return
		default:
		}
		select {
		case <-s.ch:
			s.dropped++
		default:
		}
	}
}

func (s *Subscription) closeChannel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
