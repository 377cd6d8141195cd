package paying

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

// SandboxQueue is an in-memory payment queue that approves every payment
// after a short delay. It backs simulator builds and the CLI demo.
type SandboxQueue struct {
	// Delay between Add and the purchased update.
	Delay time.Duration

	mu        sync.Mutex
	observers []TransactionObserver
	finished  []Transaction
}

func NewSandboxQueue() *SandboxQueue {
	return &SandboxQueue{Delay: 100 * time.Millisecond}
}

func (q *SandboxQueue) Add(p Payment) {
	tx := Transaction{
		ID:        ulid.Make().String(),
		ProductID: p.ProductID,
		Date:      time.Now(),
		State:     StatePurchasing,
	}

	log.Debug().Str("product_id", p.ProductID).Str("transaction_id", tx.ID).Msg("Sandbox payment added")

	q.notify(tx)

	time.AfterFunc(q.Delay, func() {
		tx.State = StatePurchased
		tx.Date = time.Now()
		q.notify(tx)
	})
}

func (q *SandboxQueue) RestoreCompletedTransactions() {
	q.mu.Lock()
	finished := append([]Transaction(nil), q.finished...)
	observers := append([]TransactionObserver(nil), q.observers...)
	q.mu.Unlock()

	for _, o := range observers {
		o.RestoreCompleted(finished)
	}
}

func (q *SandboxQueue) Finish(tx Transaction) {
	q.mu.Lock()
	defer q.mu.Unlock()

	log.Debug().Str("transaction_id", tx.ID).Msg("Sandbox transaction finished")
	q.finished = append(q.finished, tx)
}

func (q *SandboxQueue) AddObserver(o TransactionObserver) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.observers = append(q.observers, o)
}

func (q *SandboxQueue) RemoveObserver(o TransactionObserver) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, existing := range q.observers {
		if existing == o {
			q.observers = append(q.observers[:i], q.observers[i+1:]...)
			return
		}
	}
}

func (q *SandboxQueue) CanMakePayments() bool {
	return true
}

func (q *SandboxQueue) notify(tx Transaction) {
	q.mu.Lock()
	observers := append([]TransactionObserver(nil), q.observers...)
	q.mu.Unlock()

	for _, o := range observers {
		o.UpdatedTransactions([]Transaction{tx})
	}
}
