package store

import "github.com/rs/zerolog/log"

// Per-state reducers. Review events and Pause are already handled in
// reduce, so each reducer covers the remaining event tags: meaningless
// combinations are explicit no-ops, impossible ones trap.

func (s *Store) reduceInitialized(cur State, ev Event) State {
	switch ev.Kind {
	case EventResume:
		return s.addObservers()
	default:
		return s.trap(cur, ev)
	}
}

func (s *Store) reduceFetching(cur State, ev Event) State {
	switch ev.Kind {
	case EventProductsReceived:
		return s.receiveProducts(ev)
	case EventFailed:
		return s.stateAfterError(ev.Err, interested(s.repo.TrialActive(false)))
	case EventResume, EventOnline, EventUpdate, EventReceiptsChanged:
		// A fetch is already outstanding.
		return cur
	default:
		return s.trap(cur, ev)
	}
}

func (s *Store) reduceOffline(cur State, ev Event) State {
	switch ev.Kind {
	case EventOnline, EventUpdate, EventReceiptsChanged:
		return s.updateProducts()
	case EventPay:
		return s.addPayment(ev.ProductID, cur)
	default:
		return s.trap(cur, ev)
	}
}

func (s *Store) reduceInterested(cur State, ev Event) State {
	switch ev.Kind {
	case EventResume:
		return cur
	case EventUpdate:
		return s.updateProducts()
	case EventProductsReceived:
		return s.receiveProducts(ev)
	case EventPay:
		return s.addPayment(ev.ProductID, cur)
	case EventPurchasing:
		s.notifyPurchasing(ev.ProductID)
		return purchasing(ev.ProductID, cur)
	case EventPurchased:
		s.notifyPurchased(ev.ProductID)
		return s.updateAccessible(s.repo.Validate(s.known))
	case EventFailed:
		return s.stateAfterError(ev.Err, cur)
	case EventReceiptsChanged:
		return s.updateAccessible(s.repo.Validate(s.known))
	case EventRestore:
		return s.restore(cur)
	default:
		return s.trap(cur, ev)
	}
}

// Subscribed is terminal with respect to normal traffic: purchase,
// receipt and catalog churn is ignored rather than trapped. Only Pause
// and the review events, handled before per-state dispatch, do
// anything here.
func (s *Store) reduceSubscribed(cur State, ev Event) State {
	return cur
}

func (s *Store) reducePurchasing(cur State, ev Event) State {
	switch ev.Kind {
	case EventPurchasing, EventPay:
		// One payment at a time; the queue resolves the in-flight one
		// first.
		if ev.ProductID != cur.ProductID {
			log.Warn().
				Str("purchasing", cur.ProductID).
				Str("requested", ev.ProductID).
				Msg("Parallel purchasing")
		}
		return cur
	case EventPurchased:
		if ev.ProductID != cur.ProductID {
			// Benign: the queue resolved a different pending payment.
			log.Warn().
				Str("purchasing", cur.ProductID).
				Str("purchased", ev.ProductID).
				Msg("Purchased product differs from the one being bought")
		}
		s.notifyPurchased(ev.ProductID)
		return s.updateAccessible(s.repo.Validate(s.known))
	case EventFailed:
		return s.stateAfterError(ev.Err, *cur.Next)
	case EventUpdate:
		return s.updateProducts()
	case EventProductsReceived:
		return s.receiveProducts(ev)
	case EventReceiptsChanged:
		return s.updateAccessible(s.repo.Validate(s.known))
	default:
		return s.trap(cur, ev)
	}
}

func (s *Store) reduceRestoring(cur State, ev Event) State {
	switch ev.Kind {
	case EventRestore:
		// Already restoring, just nudge the queue again.
		s.queue.RestoreCompletedTransactions()
		return cur
	case EventRestored:
		return s.updateAccessible(s.repo.Validate(s.known))
	case EventFailed:
		if ev.Err != nil && ev.Err.Kind == ErrorFailed {
			// Non-renewing purchases have nothing to restore, so the
			// provider reports plain failure here. Treat it as the
			// success path and re-derive from receipts.
			log.Info().Msg("Restore reported failure, validating receipts anyway")
			return s.updateAccessible(s.repo.Validate(s.known))
		}
		return s.stateAfterError(ev.Err, *cur.Next)
	case EventPay:
		return s.addPayment(ev.ProductID, cur)
	case EventReceiptsChanged:
		return s.updateAccessible(s.repo.Validate(s.known))
	default:
		return s.trap(cur, ev)
	}
}
