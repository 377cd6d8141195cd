package receipts

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/podestapp/tiptop-go-rewrite/internal/buildinfo"
	"github.com/podestapp/tiptop-go-rewrite/internal/kv"
	"github.com/podestapp/tiptop-go-rewrite/internal/settings"
)

// Verdict is the entitlement fact derived from stored receipts.
type Verdict struct {
	// Subscribed is true if an unexpired subscription receipt exists;
	// ProductID then names its product.
	Subscribed bool
	ProductID  string
	// Free reflects the trial window when not subscribed.
	Free bool
}

// Repository owns the persisted receipt list for one environment. All
// calls happen from reductions on the store's event actor, the actor is
// the lock.
type Repository struct {
	db       kv.Store
	env      buildinfo.Environment
	settings *settings.Store
	trial    *TrialClock

	// FormatDate renders expiration dates for the settings projection.
	FormatDate func(time.Time) string

	now func() time.Time
}

func NewRepository(db kv.Store, env buildinfo.Environment, st *settings.Store) *Repository {
	return &Repository{
		db:       db,
		env:      env,
		settings: st,
		trial:    NewTrialClock(db, env),
		now:      time.Now,
	}
}

// Trial exposes the repository's trial clock.
func (r *Repository) Trial() *TrialClock {
	return r.trial
}

// Key returns the receipts key for env. Sandbox receipts live under a
// separate key so sandbox purchases never leak into production state.
func Key(env buildinfo.Environment) string {
	if env == buildinfo.EnvSandbox {
		return "receiptsSandbox"
	}
	return "receipts"
}

// Load returns the stored receipt list. A record that fails to decode is
// corruption: it is forcibly wiped and an empty list is assumed.
func (r *Repository) Load() []Receipt {
	key := Key(r.env)

	data, ok := r.db.Data(key)
	if !ok {
		log.Debug().Str("key", key).Msg("No receipts yet")
		return nil
	}

	var list []Receipt
	if err := json.Unmarshal(data, &list); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Corrupt receipts, wiping")
		if !r.RemoveAll(true) {
			log.Error().Str("key", key).Msg("Failed to wipe corrupt receipts")
		}
		return nil
	}

	return list
}

// Append persists receipt at the end of the stored list and reprojects
// the settings entries.
func (r *Repository) Append(receipt Receipt) error {
	log.Debug().
		Str("product_id", receipt.ProductID).
		Str("transaction_id", receipt.TransactionID).
		Msg("Saving receipt")

	list := append(r.Load(), receipt)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(list); err != nil {
		return err
	}
	if err := r.db.SetData(Key(r.env), buf.Bytes()); err != nil {
		return err
	}

	if status, expiration, ok := StatusInfo(list); ok {
		r.updateSettings(status, expiration)
	}

	return nil
}

// RemoveAll erases the persisted receipts and re-seals the trial
// timestamp. Unforced calls refuse to touch the production backend, a
// rail against accidental data loss; sandbox and simulator builds always
// proceed.
func (r *Repository) RemoveAll(forcing bool) bool {
	if r.env == buildinfo.EnvProduction && !forcing {
		log.Warn().Msg("Not removing production receipts without force")
		return false
	}

	log.Info().Str("env", string(r.env)).Msg("Removing receipts")

	if err := r.db.Remove(Key(r.env)); err != nil {
		log.Error().Err(err).Msg("Failed to remove receipts")
		return false
	}
	if err := r.db.Remove(UnsealedKey); err != nil {
		log.Error().Err(err).Msg("Failed to reset unsealed timestamp")
	}
	r.trial.Unseal()

	return true
}

// Validate derives the entitlement verdict from the stored receipts:
// subscribed to the first valid known product, or interested with the
// trial fact as fallback. Either way the settings projection is updated.
func (r *Repository) Validate(known map[string]struct{}) Verdict {
	list := r.Load()

	log.Debug().Int("receipts", len(list)).Msg("Validating receipts")

	id, ok := ValidProductID(list, known, r.now())
	if !ok {
		return Verdict{Free: r.TrialActive(true)}
	}

	if status, expiration, ok := StatusInfo(list); ok {
		r.updateSettings(status, expiration)
	}

	return Verdict{Subscribed: true, ProductID: id}
}

// TrialActive reports whether the trial window is open, optionally
// projecting the trial status into settings.
func (r *Repository) TrialActive(updatingSettings bool) bool {
	if updatingSettings {
		expiration := Trial.Expiration(r.trial.UnsealedTime())
		r.updateSettings("Free Trial", expiration)
	}

	return r.trial.Active()
}

func (r *Repository) updateSettings(status string, expiration time.Time) {
	formatted := expiration.Format(time.RFC1123)
	if r.FormatDate != nil {
		formatted = r.FormatDate(expiration)
	}

	log.Debug().Str("status", status).Str("expiration", formatted).Msg("Updating settings")
	r.settings.SetSubscription(status, formatted)
}
