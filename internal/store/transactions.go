package store

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/podestapp/tiptop-go-rewrite/internal/metrics"
	"github.com/podestapp/tiptop-go-rewrite/internal/paying"
	"github.com/podestapp/tiptop-go-rewrite/internal/receipts"
)

// Store observes the payment queue. Callbacks arrive on the queue's
// goroutines and are turned into events; receipts are written from a
// thunk on the events actor, which is the ledger's lock.

// UpdatedTransactions implements paying.TransactionObserver.
func (s *Store) UpdatedTransactions(txs []paying.Transaction) {
	for _, tx := range txs {
		s.processTransaction(tx)
	}
}

// RestoreCompleted implements paying.TransactionObserver. The replayed
// transactions are not reprocessed: receipts are the source of truth,
// the Restored event just triggers re-validation.
func (s *Store) RestoreCompleted(txs []paying.Transaction) {
	log.Debug().Int("transactions", len(txs)).Msg("Restore completed")
	s.dispatch(Event{Kind: EventRestored})
}

func (s *Store) processTransaction(tx paying.Transaction) {
	log.Debug().
		Str("product_id", tx.ProductID).
		Stringer("state", tx.State).
		Msg("Transaction updated")

	switch tx.State {
	case paying.StatePurchasing:
		s.dispatch(purchasingEvent(tx.ProductID))
	case paying.StateDeferred:
		log.Info().Str("product_id", tx.ProductID).Msg("Payment deferred")
	case paying.StatePurchased:
		receipt := receiptFor(tx)
		s.events.enqueue(func() {
			if err := s.repo.Append(receipt); err != nil {
				log.Error().Err(err).Msg("Failed to save receipt")
			}
		})
		metrics.PurchasesTotal.Inc()
		s.dispatch(purchasedEvent(tx.ProductID))
		s.queue.Finish(tx)
	case paying.StateFailed:
		s.dispatch(failedEvent(Classify(tx.Err, tx.ProductID)))
		s.queue.Finish(tx)
	}
}

func receiptFor(tx paying.Transaction) receipts.Receipt {
	id := tx.ID
	if id == "" {
		id = ulid.Make().String()
	}
	date := tx.Date
	if date.IsZero() {
		date = time.Now()
	}

	return receipts.Receipt{
		ProductID:       tx.ProductID,
		TransactionID:   id,
		TransactionDate: date,
	}
}
