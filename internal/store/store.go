// Package store implements the entitlement state machine: a strict,
// serialized FSM that ingests events from the payment queue, the cloud
// key-value store and the catalog fetcher, derives the current
// entitlement state, and notifies delegates.
package store

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/podestapp/tiptop-go-rewrite/internal/buildinfo"
	"github.com/podestapp/tiptop-go-rewrite/internal/catalog"
	"github.com/podestapp/tiptop-go-rewrite/internal/kv"
	"github.com/podestapp/tiptop-go-rewrite/internal/metrics"
	"github.com/podestapp/tiptop-go-rewrite/internal/paying"
	"github.com/podestapp/tiptop-go-rewrite/internal/receipts"
	"github.com/podestapp/tiptop-go-rewrite/internal/review"
	"github.com/podestapp/tiptop-go-rewrite/internal/settings"
)

// Config assembles a Store's collaborators.
type Config struct {
	Version  buildinfo.Version
	Queue    paying.Queue
	DB       kv.Store
	Settings *settings.Store
	Fetcher  catalog.Fetcher

	// Identifiers are the sellable product ids, in catalog order.
	Identifiers []string

	// RequestReview triggers the platform review prompt.
	RequestReview func()

	// FormatDate optionally renders expiration dates for the settings
	// projection. Defaults to RFC1123.
	FormatDate func(time.Time) string
}

// Store is the entitlement state machine. All state lives behind a
// single-consumer event actor: public methods enqueue and return,
// reductions run one at a time on the actor goroutine, and delegate
// callbacks go out on a separate ordered delivery queue.
type Store struct {
	version buildinfo.Version
	queue   paying.Queue
	db      kv.Store
	fetcher catalog.Fetcher
	repo    *receipts.Repository

	identifiers []string
	known       map[string]struct{}

	events  *actor
	effects *actor

	// Fields below are owned by the events actor.
	state      State
	products   []catalog.Product
	accessible *bool
	delegate   Delegate
	access     AccessDelegate
	reviews    *review.Requester
	kvSub      string
	observing  bool

	// onUnexpected, when set, observes trapped events. Tests use it to
	// assert protocol coverage.
	onUnexpected func(State, Event)
}

// New builds a Store in the Initialized state. Nothing happens until
// Resume is called.
func New(cfg Config) *Store {
	repo := receipts.NewRepository(cfg.DB, cfg.Version.Env, cfg.Settings)
	repo.FormatDate = cfg.FormatDate

	known := make(map[string]struct{}, len(cfg.Identifiers))
	for _, id := range cfg.Identifiers {
		known[id] = struct{}{}
	}

	s := &Store{
		version:     cfg.Version,
		queue:       cfg.Queue,
		db:          cfg.DB,
		fetcher:     cfg.Fetcher,
		repo:        repo,
		identifiers: cfg.Identifiers,
		known:       known,
		events:      newActor(),
		effects:     newActor(),
		state:       initialized(),
	}

	unsealed := repo.Trial().Unseal()
	s.reviews = review.NewRequester(cfg.Version.Build, unsealed, cfg.Settings)
	s.reviews.Prompt = func() {
		metrics.ReviewPromptsTotal.Inc()
		if cfg.RequestReview != nil {
			cfg.RequestReview()
		}
	}

	log.Info().
		Str("build", cfg.Version.Build).
		Str("env", string(cfg.Version.Env)).
		Int("products", len(cfg.Identifiers)).
		Msg("Store created")

	return s
}

// dispatch enqueues ev for reduction and returns immediately.
func (s *Store) dispatch(ev Event) {
	metrics.EventsTotal.WithLabelValues(ev.Kind.String()).Inc()

	s.events.enqueue(func() {
		before := s.state
		s.state = s.reduce(before, ev)
		log.Debug().
			Stringer("event", ev).
			Stringer("from", before).
			Stringer("to", s.state).
			Msg("Reduced")
	})
}

// reduce is the transition function. Review events and Pause behave
// identically in every state and are handled here; everything else goes
// to the per-state reducer matching the current tag.
func (s *Store) reduce(cur State, ev Event) State {
	switch ev.Kind {
	case EventConsiderReview:
		if s.reviews != nil {
			s.reviews.Consider(func() {
				s.dispatch(Event{Kind: EventReview})
			})
		}
		return cur
	case EventReview:
		if s.reviews != nil {
			s.reviews.Request()
		}
		return cur
	case EventCancelReview:
		if s.reviews != nil {
			s.reviews.Cancel(ev.Resetting)
		}
		return cur
	case EventPause:
		return s.removeObservers()
	}

	switch cur.Kind {
	case StateInitialized:
		return s.reduceInitialized(cur, ev)
	case StateFetchingProducts:
		return s.reduceFetching(cur, ev)
	case StateOffline:
		return s.reduceOffline(cur, ev)
	case StateInterested:
		return s.reduceInterested(cur, ev)
	case StateSubscribed:
		return s.reduceSubscribed(cur, ev)
	case StatePurchasing:
		return s.reducePurchasing(cur, ev)
	case StateRestoring:
		return s.reduceRestoring(cur, ev)
	default:
		return s.trap(cur, ev)
	}
}

// trap records an event that arrived in a state where the protocol says
// it cannot. The state is kept; tests assert through onUnexpected.
func (s *Store) trap(cur State, ev Event) State {
	log.Error().
		Stringer("state", cur).
		Stringer("event", ev).
		Msg("Unexpected event")
	metrics.TrappedEventsTotal.WithLabelValues(cur.Kind.String(), ev.Kind.String()).Inc()

	if s.onUnexpected != nil {
		s.onUnexpected(cur, ev)
	}

	return cur
}

// addObservers attaches to the payment queue and the key-value store,
// then kicks off a catalog fetch.
func (s *Store) addObservers() State {
	if !s.observing {
		s.queue.AddObserver(s)
		s.kvSub = s.db.Subscribe(s.kvChanged)
		s.observing = true
	}

	return s.updateProducts()
}

// removeObservers detaches everything and returns to Initialized,
// discarding any in-flight context. Resuming refetches and re-validates,
// so nothing is lost.
func (s *Store) removeObservers() State {
	if s.observing {
		s.queue.RemoveObserver(s)
		s.db.Unsubscribe(s.kvSub)
		s.kvSub = ""
		s.observing = false
	}

	return initialized()
}

// kvChanged maps external store changes to ReceiptsChanged. An account
// switch invalidates everything, so it always dispatches; a quota
// violation changes no data; sync pushes only matter when the changed
// key set includes the active receipts key.
func (s *Store) kvChanged(change kv.Change) {
	switch change.Reason {
	case kv.AccountChange:
		log.Info().Msg("Account changed, re-validating receipts")
		s.dispatch(Event{Kind: EventReceiptsChanged})
		return
	case kv.QuotaViolation:
		log.Warn().Strs("keys", change.Keys).Msg("Key-value store over quota")
		return
	}

	active := receipts.Key(s.version.Env)
	for _, key := range change.Keys {
		if key == active {
			log.Debug().Stringer("reason", change.Reason).Msg("Receipts changed externally")
			s.dispatch(Event{Kind: EventReceiptsChanged})
			return
		}
	}
}

// updateProducts starts a catalog fetch, or goes offline right away when
// the storefront is unreachable.
func (s *Store) updateProducts() State {
	if !s.isReachable() {
		log.Info().Msg("Storefront not reachable")
		s.notifyOffers(nil, ErrOffline)
		return s.offlineState()
	}

	s.fetchProducts()
	return fetchingProducts()
}

func (s *Store) fetchProducts() {
	s.fetcher.Fetch(s.identifiers, func(products []catalog.Product, err error) {
		s.dispatch(productsEvent(products, Classify(err, "")))
	})
}

// receiveProducts stores the fetched catalog, notifies the delegate and
// re-derives the state from receipts.
func (s *Store) receiveProducts(ev Event) State {
	s.products = ev.Products
	s.notifyOffers(ev.Products, ev.Err)
	return s.updateAccessible(s.repo.Validate(s.known))
}

// updateAccessible turns a receipt verdict into Interested or Subscribed
// and flips the accessibility flag, notifying only on change. The store
// UI is accessible while there is something left to sell.
func (s *Store) updateAccessible(v receipts.Verdict) State {
	accessible := !v.Subscribed
	if s.accessible == nil || *s.accessible != accessible {
		s.accessible = &accessible
		s.notifyAccessible(accessible)
	}

	if v.Subscribed {
		return subscribed(v.ProductID)
	}
	return interested(v.Free)
}

// offlineState derives the Offline variant from cached receipts. A
// subscribed user keeps access while disconnected.
func (s *Store) offlineState() State {
	verdict := s.repo.Validate(s.known)
	if verdict.Subscribed {
		return offline(true)
	}
	return offline(verdict.Free)
}

// stateAfterError maps err for the delegate and picks the state to land
// in. An unreachable storefront always overrides to Offline, derived
// from receipts rather than the suggested next state, so a disconnected
// user is never told the trial expired.
func (s *Store) stateAfterError(err *ShoppingError, next State) State {
	if err == nil {
		err = ErrFailed
	}
	if !s.isReachable() {
		err = ErrOffline
	}

	s.notifyError(err)

	if err.Kind == ErrorOffline {
		return s.offlineState()
	}
	return next
}

// addPayment submits a payment for productID. Unknown products notify
// the delegate and keep the current state.
func (s *Store) addPayment(productID string, cur State) State {
	if !s.sellable(productID) {
		log.Warn().Str("product_id", productID).Msg("Cannot pay for unknown product")
		s.notifyError(InvalidProductError(productID))
		return cur
	}

	log.Info().Str("product_id", productID).Msg("Submitting payment")
	s.queue.Add(paying.Payment{ProductID: productID})
	s.notifyPurchasing(productID)

	return purchasing(productID, cur)
}

func (s *Store) sellable(productID string) bool {
	for _, p := range s.products {
		if p.ID == productID {
			return true
		}
	}
	return false
}

// restore asks the payment queue to replay completed transactions.
func (s *Store) restore(cur State) State {
	log.Info().Msg("Restoring purchases")
	s.queue.RestoreCompletedTransactions()
	return restoring(cur)
}

// isReachable probes the access delegate. No delegate means no way to
// reach the storefront.
func (s *Store) isReachable() bool {
	if s.access == nil {
		return false
	}
	return s.access.Reach()
}

// Delegate callbacks are snapshotted on the events actor and run on the
// delivery queue, so a slow delegate never stalls the next reduction.

func (s *Store) notifyOffers(products []catalog.Product, err *ShoppingError) {
	if d := s.delegate; d != nil {
		s.effects.enqueue(func() { d.Offers(products, err) })
	}
}

func (s *Store) notifyPurchasing(productID string) {
	if d := s.delegate; d != nil {
		s.effects.enqueue(func() { d.Purchasing(productID) })
	}
}

func (s *Store) notifyPurchased(productID string) {
	if d := s.delegate; d != nil {
		s.effects.enqueue(func() { d.Purchased(productID) })
	}
}

func (s *Store) notifyError(err *ShoppingError) {
	if d := s.delegate; d != nil {
		s.effects.enqueue(func() { d.Error(err) })
	}
}

func (s *Store) notifyAccessible(accessible bool) {
	if a := s.access; a != nil {
		s.effects.enqueue(func() { a.AccessibilityChanged(accessible) })
	}
}

func (s *Store) notifyExpired(expired bool) {
	if a := s.access; a != nil {
		s.effects.enqueue(func() { a.ExpiredChanged(expired) })
	}
}
