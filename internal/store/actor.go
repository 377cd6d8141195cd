package store

import "sync"

const actorQueueSize = 256

// actor is a strict single-consumer serial queue: enqueued thunks run
// one at a time, in FIFO order, on a dedicated goroutine. The store uses
// one actor for reductions and a second for delegate delivery, so a slow
// delegate never stalls the next reduction.
type actor struct {
	mu     sync.Mutex
	closed bool
	thunks chan func()
	done   chan struct{}
}

func newActor() *actor {
	a := &actor{
		thunks: make(chan func(), actorQueueSize),
		done:   make(chan struct{}),
	}

	go a.loop()

	return a
}

func (a *actor) loop() {
	defer close(a.done)

	for fn := range a.thunks {
		fn()
	}
}

// enqueue submits fn and returns immediately. Returns false once closed.
func (a *actor) enqueue(fn func()) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return false
	}
	a.thunks <- fn
	return true
}

// close stops accepting work, runs what is already queued, and waits for
// the loop to exit.
func (a *actor) close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return
	}
	a.closed = true
	close(a.thunks)
	a.mu.Unlock()

	<-a.done
}
