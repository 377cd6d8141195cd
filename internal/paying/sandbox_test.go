package paying

import (
	"sync"
	"testing"
	"time"
)

type recordingObserver struct {
	mu       sync.Mutex
	updates  []Transaction
	restored [][]Transaction
	signal   chan struct{}
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{signal: make(chan struct{}, 16)}
}

func (o *recordingObserver) UpdatedTransactions(txs []Transaction) {
	o.mu.Lock()
	o.updates = append(o.updates, txs...)
	o.mu.Unlock()
	o.signal <- struct{}{}
}

func (o *recordingObserver) RestoreCompleted(txs []Transaction) {
	o.mu.Lock()
	o.restored = append(o.restored, txs)
	o.mu.Unlock()
	o.signal <- struct{}{}
}

func (o *recordingObserver) wait(t *testing.T) {
	t.Helper()
	select {
	case <-o.signal:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for queue callback")
	}
}

func TestSandboxQueueApprovesPayments(t *testing.T) {
	q := NewSandboxQueue()
	q.Delay = 10 * time.Millisecond

	o := newRecordingObserver()
	q.AddObserver(o)

	q.Add(Payment{ProductID: "abc"})
	o.wait(t) // purchasing
	o.wait(t) // purchased

	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(o.updates))
	}
	if o.updates[0].State != StatePurchasing {
		t.Errorf("first update state = %s", o.updates[0].State)
	}
	if o.updates[1].State != StatePurchased {
		t.Errorf("second update state = %s", o.updates[1].State)
	}
	if o.updates[1].ProductID != "abc" || o.updates[1].ID == "" {
		t.Errorf("purchased transaction = %+v", o.updates[1])
	}
}

func TestSandboxQueueReplaysFinishedOnRestore(t *testing.T) {
	q := NewSandboxQueue()
	q.Delay = 10 * time.Millisecond

	o := newRecordingObserver()
	q.AddObserver(o)

	q.Add(Payment{ProductID: "abc"})
	o.wait(t)
	o.wait(t)

	o.mu.Lock()
	purchased := o.updates[len(o.updates)-1]
	o.mu.Unlock()
	q.Finish(purchased)

	q.RestoreCompletedTransactions()
	o.wait(t)

	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.restored) != 1 || len(o.restored[0]) != 1 {
		t.Fatalf("restored = %v, want one run with one transaction", o.restored)
	}
	if o.restored[0][0].ProductID != "abc" {
		t.Errorf("restored transaction = %+v", o.restored[0][0])
	}
}

func TestSandboxQueueRemoveObserver(t *testing.T) {
	q := NewSandboxQueue()
	q.Delay = time.Millisecond

	o := newRecordingObserver()
	q.AddObserver(o)
	q.RemoveObserver(o)

	q.Add(Payment{ProductID: "abc"})

	select {
	case <-o.signal:
		t.Fatal("removed observer was notified")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSandboxQueueCanMakePayments(t *testing.T) {
	if !NewSandboxQueue().CanMakePayments() {
		t.Fatal("sandbox queue refuses payments")
	}
}
