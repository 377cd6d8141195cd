// Package paying defines the payment provider adapter: a queue that
// submits payments and reports transaction updates to observers.
package paying

import "time"

// TransactionState enumerates the provider's transaction phases.
type TransactionState int

const (
	// StatePurchasing means the payment is being processed.
	StatePurchasing TransactionState = iota
	// StateDeferred means the payment awaits external approval.
	StateDeferred
	// StatePurchased means the payment completed.
	StatePurchased
	// StateFailed means the payment failed or was cancelled.
	StateFailed
)

func (s TransactionState) String() string {
	switch s {
	case StatePurchasing:
		return "purchasing"
	case StateDeferred:
		return "deferred"
	case StatePurchased:
		return "purchased"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Payment is a request to purchase one product.
type Payment struct {
	ProductID string
}

// Transaction is one payment's progress report. ID and Date are set once
// the provider has accepted the payment.
type Transaction struct {
	ID        string
	ProductID string
	Date      time.Time
	State     TransactionState
	Err       error
}

// TransactionObserver receives queue updates. Callbacks may arrive on
// arbitrary goroutines.
type TransactionObserver interface {
	// UpdatedTransactions reports transactions that changed state.
	UpdatedTransactions(txs []Transaction)
	// RestoreCompleted reports the end of a restore run with the
	// transactions it yielded.
	RestoreCompleted(txs []Transaction)
}

// Queue is the payment provider adapter.
type Queue interface {
	Add(p Payment)
	RestoreCompletedTransactions()
	Finish(tx Transaction)
	AddObserver(o TransactionObserver)
	RemoveObserver(o TransactionObserver)
	CanMakePayments() bool
}
