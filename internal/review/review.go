// Package review considerately prompts users for a rating, at most once
// per build, never during the first days after install, and only after a
// streak of quiet moments.
package review

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/podestapp/tiptop-go-rewrite/internal/settings"
)

const (
	// countdownLength is the number of eligible Consider calls between
	// prompts.
	countdownLength = 4
	// idleSince is how long after first activation prompting stays off.
	idleSince = 3 * 24 * time.Hour
	// promptDelay is the grace window in which a pending prompt can
	// still be cancelled.
	promptDelay = 2 * time.Second
)

// Requester drives the review prompt countdown. It has a single-use
// lifecycle tied to the hosting screen: after Invalidate, any further
// call is a programming error and panics.
type Requester struct {
	build    string
	unsealed time.Time
	settings *settings.Store

	// Prompt performs the actual review request. Replaced in tests.
	Prompt func()

	mu          sync.Mutex
	countdown   int
	generation  uint64
	timer       *time.Timer
	invalidated bool

	now func() time.Time
}

// NewRequester creates a requester for the given build, with unsealed
// being the first-activation time.
func NewRequester(build string, unsealed time.Time, st *settings.Store) *Requester {
	return &Requester{
		build:     build,
		unsealed:  unsealed,
		settings:  st,
		countdown: countdownLength,
		now:       time.Now,
	}
}

// TimeToAsk reports whether enough time has passed since first
// activation for a prompt to be appropriate.
func (r *Requester) TimeToAsk() bool {
	return r.now().Sub(r.unsealed) > idleSince
}

// Reviewed reports whether this build has already been prompted.
func (r *Requester) Reviewed() bool {
	return r.settings.LastReviewedBuild() == r.build
}

// Consider counts one quiet moment down and, on the fourth eligible one,
// arms a short cancellable timer that fires review. Any previously armed
// timer is cancelled first. Returns true if a new timer was armed.
//
// Asking for ratings is only OK while users are idle for a moment after
// they have been active. All other times come across tacky.
func (r *Requester) Consider(review func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkValidLocked()

	r.stopTimerLocked()

	if r.countdown < 0 || !r.TimeToAsk() {
		log.Debug().Msg("Not arming review timer")
		return false
	}

	r.countdown--
	log.Debug().Int("countdown", r.countdown).Msg("Review countdown")

	if r.countdown != 0 {
		return false
	}

	r.countdown = countdownLength

	if r.Reviewed() {
		// Disable for the rest of the session.
		r.countdown = -1
		log.Debug().Str("build", r.build).Msg("Build already reviewed, disabling")
		return false
	}

	gen := r.generation
	r.timer = time.AfterFunc(promptDelay, func() {
		r.mu.Lock()
		stale := r.invalidated || gen != r.generation
		r.mu.Unlock()
		if stale {
			return
		}
		review()
	})

	return true
}

// Request performs the review prompt and records the build so it is
// never prompted twice.
func (r *Requester) Request() {
	r.mu.Lock()
	r.checkValidLocked()
	prompt := r.Prompt
	r.mu.Unlock()

	log.Info().Str("build", r.build).Msg("Requesting review")
	r.settings.SetLastReviewedBuild(r.build)

	if prompt != nil {
		prompt()
	}
}

// Cancel drops any pending prompt, optionally resetting the countdown.
func (r *Requester) Cancel(resetting bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkValidLocked()

	r.stopTimerLocked()

	if resetting {
		r.countdown = countdownLength
	}
}

// Invalidate cancels any pending prompt and retires the requester. All
// further calls are programming errors.
func (r *Requester) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkValidLocked()

	r.stopTimerLocked()
	r.countdown = -1
	r.invalidated = true
}

// stopTimerLocked cancels the pending timer, if any, and bumps the
// generation so an already fired callback finds itself stale.
func (r *Requester) stopTimerLocked() {
	r.generation++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Requester) checkValidLocked() {
	if r.invalidated {
		panic("review: requester used after Invalidate")
	}
}
