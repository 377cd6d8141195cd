package store

import "github.com/podestapp/tiptop-go-rewrite/internal/receipts"

// Public entry points. All of them enqueue onto the events actor and
// return immediately, except the synchronous queries at the bottom.

// Resume activates the store: observers attach and a catalog fetch
// starts. Safe to call repeatedly.
func (s *Store) Resume() {
	s.dispatch(Event{Kind: EventResume})
}

// Pause detaches all observers and returns the store to Initialized,
// discarding in-flight purchase or restore context.
func (s *Store) Pause() {
	s.dispatch(Event{Kind: EventPause})
}

// Online reports that the storefront became reachable again.
func (s *Store) Online() {
	s.dispatch(Event{Kind: EventOnline})
}

// Update refetches the catalog and re-validates receipts.
func (s *Store) Update() {
	s.dispatch(Event{Kind: EventUpdate})
}

// Pay buys the product with the given identifier.
func (s *Store) Pay(productID string) {
	s.dispatch(payEvent(productID))
}

// Restore replays completed transactions from the payment queue.
func (s *Store) Restore() {
	s.dispatch(Event{Kind: EventRestore})
}

// ConsiderReview counts one opportunity to ask for a rating.
func (s *Store) ConsiderReview() {
	s.dispatch(Event{Kind: EventConsiderReview})
}

// CancelReview withdraws a pending rating prompt, optionally resetting
// the countdown.
func (s *Store) CancelReview(resetting bool) {
	s.dispatch(Event{Kind: EventCancelReview, Resetting: resetting})
}

// SetDelegate installs the shopping delegate. Takes effect once the
// events already queued have been reduced.
func (s *Store) SetDelegate(d Delegate) {
	s.events.enqueue(func() { s.delegate = d })
}

// SetAccessDelegate installs the accessibility subscriber and
// reachability probe.
func (s *Store) SetAccessDelegate(a AccessDelegate) {
	s.events.enqueue(func() { s.access = a })
}

// CanMakePayments reports whether the payment queue accepts payments.
func (s *Store) CanMakePayments() bool {
	return s.queue.CanMakePayments()
}

// Receipts exposes the ledger, for inspection tooling.
func (s *Store) Receipts() *receipts.Repository {
	return s.repo
}

// State returns a snapshot of the current entitlement state, taken after
// every event enqueued so far has been reduced.
func (s *Store) State() State {
	reply := make(chan State, 1)
	if !s.events.enqueue(func() { reply <- s.state }) {
		return initialized()
	}
	return <-reply
}

// IsExpired reports whether the user has definitely run out of
// entitlement: not subscribed and past the trial window. On the first
// expired answer the review requester is invalidated, a lapsed user is
// never asked for a rating, and the access delegate is notified.
func (s *Store) IsExpired() bool {
	reply := make(chan bool, 1)
	ok := s.events.enqueue(func() {
		expired := false
		switch s.state.Kind {
		case StateOffline, StateInterested:
			expired = !s.state.Free
		}

		if expired {
			if s.reviews != nil {
				s.reviews.Invalidate()
				s.reviews = nil
			}
			s.notifyExpired(true)
		}

		reply <- expired
	})
	if !ok {
		return false
	}
	return <-reply
}

// Close cancels any outstanding fetch, detaches observers and drains
// both queues. The store cannot be used afterwards.
func (s *Store) Close() {
	s.fetcher.Cancel()
	s.events.enqueue(func() { s.state = s.removeObservers() })
	s.events.close()
	s.effects.close()
}
