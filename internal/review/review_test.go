package review

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/podestapp/tiptop-go-rewrite/internal/settings"
)

func newTestRequester(t *testing.T, build string) *Requester {
	t.Helper()

	st := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
	// Unsealed well past the idle gate so Consider is eligible.
	return NewRequester(build, time.Now().Add(-4*24*time.Hour), st)
}

func consider(r *Requester, n int) (armed int) {
	for i := 0; i < n; i++ {
		if r.Consider(func() {}) {
			armed++
		}
	}
	return armed
}

func TestConsiderArmsOnFourthCall(t *testing.T) {
	r := newTestRequester(t, "100")

	for i := 0; i < 3; i++ {
		if r.Consider(func() {}) {
			t.Fatalf("call %d armed the timer early", i+1)
		}
	}
	if !r.Consider(func() {}) {
		t.Fatal("fourth call did not arm the timer")
	}
}

func TestConsiderExactlyOncePerCycle(t *testing.T) {
	r := newTestRequester(t, "100")

	if got := consider(r, 8); got != 2 {
		t.Fatalf("8 considers armed %d timers, want 2", got)
	}
}

func TestConsiderBlockedDuringIdleGate(t *testing.T) {
	st := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
	r := NewRequester("100", time.Now().Add(-24*time.Hour), st)

	if got := consider(r, 8); got != 0 {
		t.Fatalf("requester armed %d timers within 3 days of unsealing", got)
	}
}

func TestConsiderNeverTwicePerBuild(t *testing.T) {
	r := newTestRequester(t, "100")

	fired := 0
	r.Prompt = func() { fired++ }

	r.Request()
	if fired != 1 {
		t.Fatalf("Request fired %d prompts, want 1", fired)
	}

	// The build is recorded now, the next completed countdown disables
	// the requester instead of arming.
	if got := consider(r, 8); got != 0 {
		t.Fatalf("reviewed build armed %d timers, want 0", got)
	}
}

func TestRequestRecordsBuild(t *testing.T) {
	st := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
	r := NewRequester("205", time.Now().Add(-4*24*time.Hour), st)
	r.Prompt = func() {}

	if r.Reviewed() {
		t.Fatal("fresh build already reviewed")
	}
	r.Request()
	if !r.Reviewed() {
		t.Fatal("Request did not record the build")
	}
	if st.LastReviewedBuild() != "205" {
		t.Fatalf("persisted build = %q", st.LastReviewedBuild())
	}
}

func TestCancelResetsCountdown(t *testing.T) {
	r := newTestRequester(t, "100")

	consider(r, 3)
	r.Cancel(true)

	// After a reset it takes a full cycle again.
	for i := 0; i < 3; i++ {
		if r.Consider(func() {}) {
			t.Fatalf("call %d after reset armed the timer early", i+1)
		}
	}
	if !r.Consider(func() {}) {
		t.Fatal("fourth call after reset did not arm the timer")
	}
}

func TestCancelWithoutResetKeepsCountdown(t *testing.T) {
	r := newTestRequester(t, "100")

	consider(r, 3)
	r.Cancel(false)

	if !r.Consider(func() {}) {
		t.Fatal("countdown was reset by a non-resetting cancel")
	}
}

func TestConsiderSupersedesPendingTimer(t *testing.T) {
	r := newTestRequester(t, "100")

	fired := make(chan struct{}, 1)
	consider(r, 3)
	if !r.Consider(func() { fired <- struct{}{} }) {
		t.Fatal("fourth call did not arm the timer")
	}

	// A fresh Consider cancels the pending prompt before it fires.
	r.Consider(func() {})

	select {
	case <-fired:
		t.Fatal("cancelled prompt still fired")
	case <-time.After(promptDelay + 500*time.Millisecond):
	}
}

func TestInvalidateIsIrreversible(t *testing.T) {
	r := newTestRequester(t, "100")
	r.Invalidate()

	defer func() {
		if recover() == nil {
			t.Fatal("Consider after Invalidate did not panic")
		}
	}()
	r.Consider(func() {})
}
