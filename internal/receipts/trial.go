package receipts

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/podestapp/tiptop-go-rewrite/internal/buildinfo"
	"github.com/podestapp/tiptop-go-rewrite/internal/kv"
)

// UnsealedKey stores the first-activation timestamp as epoch seconds.
const UnsealedKey = "store.unsealed"

// TrialClock computes the free trial window from a one-time "unsealed"
// timestamp, set on first activation. Sandbox builds re-seal every run to
// ease testing.
type TrialClock struct {
	db  kv.Store
	env buildinfo.Environment
	now func() time.Time
}

func NewTrialClock(db kv.Store, env buildinfo.Environment) *TrialClock {
	return &TrialClock{db: db, env: env, now: time.Now}
}

// Unseal stores the unsealed timestamp if absent, or unconditionally on
// sandbox builds, and returns the effective value.
func (c *TrialClock) Unseal() time.Time {
	value := c.db.Float(UnsealedKey)

	if c.env == buildinfo.EnvSandbox || value == 0 {
		log.Info().Msg("Unsealing")

		now := c.now()
		ts := float64(now.UnixNano()) / float64(time.Second)
		if err := c.db.SetFloat(UnsealedKey, ts); err != nil {
			log.Error().Err(err).Msg("Failed to persist unsealed timestamp")
		}

		return now
	}

	return epochToTime(value)
}

// UnsealedTime returns the stored unsealed timestamp, zero if never set.
func (c *TrialClock) UnsealedTime() time.Time {
	return epochToTime(c.db.Float(UnsealedKey))
}

// Active reports whether the trial window is still open.
func (c *TrialClock) Active() bool {
	return !Trial.Expired(c.UnsealedTime(), c.now())
}

func epochToTime(seconds float64) time.Time {
	return time.Unix(0, int64(seconds*float64(time.Second)))
}
