package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// DefaultTTL is the maximum age of cached products. Kept relatively
// short, products that no longer exist cannot be sold; however, products
// don't change often.
const DefaultTTL = 10 * time.Minute

// Fetcher resolves product metadata for a set of identifiers. Fetch
// enqueues a request and returns; fn is invoked exactly once with the
// result. Issuing a new Fetch cancels the previous in-flight request.
type Fetcher interface {
	Fetch(ids []string, fn func([]Product, error))
	Cancel()
}

// ErrUnknownProduct reports identifiers the storefront does not sell.
type ErrUnknownProduct struct {
	ProductID string
}

func (e *ErrUnknownProduct) Error() string {
	return fmt.Sprintf("catalog: unknown product %q", e.ProductID)
}

// HTTPFetcher fetches product metadata from the storefront service,
// caching results for a TTL.
type HTTPFetcher struct {
	client *resty.Client
	ttl    time.Duration

	mu       sync.Mutex
	cancel   context.CancelFunc
	cached   []Product
	cachedAt time.Time
}

// NewHTTPFetcher creates a fetcher against baseURL. A ttl of zero means
// DefaultTTL.
func NewHTTPFetcher(baseURL string, ttl time.Duration) *HTTPFetcher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &HTTPFetcher{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(30 * time.Second),
		ttl:    ttl,
	}
}

// Fetch resolves ids, serving from cache while fresh. Identifiers the
// storefront does not know yield an ErrUnknownProduct for the first
// unknown one, alongside the products that were resolved.
func (f *HTTPFetcher) Fetch(ids []string, fn func([]Product, error)) {
	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel

	if products, ok := f.freshLocked(); ok {
		f.mu.Unlock()
		fn(filter(products, ids), unknownError(products, ids))
		return
	}
	f.mu.Unlock()

	go f.fetch(ctx, ids, fn)
}

// Cancel aborts the in-flight request, if any.
func (f *HTTPFetcher) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *HTTPFetcher) fetch(ctx context.Context, ids []string, fn func([]Product, error)) {
	log.Debug().Strs("product_ids", ids).Msg("Fetching products")

	var products []Product
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParam("ids", strings.Join(ids, ",")).
		SetResult(&products).
		Get("/products")

	if err != nil {
		fn(nil, fmt.Errorf("fetch products: %w", err))
		return
	}
	if resp.IsError() {
		fn(nil, fmt.Errorf("fetch products: storefront returned %s", resp.Status()))
		return
	}

	f.mu.Lock()
	f.cached = products
	f.cachedAt = time.Now()
	f.mu.Unlock()

	fn(filter(products, ids), unknownError(products, ids))
}

func (f *HTTPFetcher) freshLocked() ([]Product, bool) {
	if f.cached == nil || time.Since(f.cachedAt) > f.ttl {
		return nil, false
	}
	return f.cached, true
}

func filter(products []Product, ids []string) []Product {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	matched := make([]Product, 0, len(ids))
	for _, p := range products {
		if _, ok := wanted[p.ID]; ok {
			matched = append(matched, p)
		}
	}

	return matched
}

// unknownError returns an ErrUnknownProduct for the first requested id
// the storefront did not resolve, or nil if all resolved.
func unknownError(products []Product, ids []string) error {
	sold := make(map[string]struct{}, len(products))
	for _, p := range products {
		sold[p.ID] = struct{}{}
	}

	for _, id := range ids {
		if _, ok := sold[id]; !ok {
			log.Error().Str("product_id", id).Msg("Invalid product identifier")
			return &ErrUnknownProduct{ProductID: id}
		}
	}

	return nil
}
