package acquisition

import (
	"context"
	"log"
	"sync"
	"time"

	"AssetTracker/internal/cache"
	"AssetTracker/internal/collector"
	"AssetTracker/internal/model"
)

// ReferenceResource acquires the coin list, preferring a fresh cached copy
// over the network. The first successful source populates it; anything that
// arrives afterwards is dropped without touching the cache.
type ReferenceResource struct {
	mu    sync.Mutex
	state State
	coins []model.Coin
	err   error

	store   *cache.Store
	fetcher collector.Fetcher
	key     string
	maxAge  time.Duration

	fetched chan struct{} // closed when the fetch resolves, nil if none was issued
}

// NewReferenceResource creates an Empty resource bound to one cache key.
func NewReferenceResource(store *cache.Store, fetcher collector.Fetcher, key string, maxAge time.Duration) *ReferenceResource {
	return &ReferenceResource{store: store, fetcher: fetcher, key: key, maxAge: maxAge}
}

// Init runs the Empty transition. With eager set the fetch is issued before
// the cache is consulted, so both sources race; otherwise the fetch only
// happens on a cache miss. Init is a no-op once the resource left Empty.
func (r *ReferenceResource) Init(ctx context.Context, eager bool) {
	r.mu.Lock()
	if r.state != Empty {
		r.mu.Unlock()
		return
	}
	if eager {
		r.state = Fetching
		r.launchFetch(ctx)
	}
	r.mu.Unlock()

	if coins, ok := cache.Load(r.store, r.key, r.maxAge, cache.ValidCoinList); ok {
		r.populateFromCache(coins)
		return
	}
	if eager {
		return
	}

	r.mu.Lock()
	if r.state == Empty {
		r.state = Fetching
		r.launchFetch(ctx)
	}
	r.mu.Unlock()
}

// launchFetch must be called with r.mu held.
func (r *ReferenceResource) launchFetch(ctx context.Context) {
	log.Printf("[INFO] fetching reference list from %s", r.fetcher.Name())
	done := make(chan struct{})
	r.fetched = done
	go func() {
		defer close(done)
		coins, err := r.fetcher.FetchCoins(ctx)
		r.resolveFetch(coins, err)
	}()
}

func (r *ReferenceResource) populateFromCache(coins []model.Coin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Populated {
		return
	}
	r.state = CacheHit
	log.Printf("[INFO] reference list served from cache (%d coins)", len(coins))
	r.coins = coins
	r.err = nil
	r.state = Populated
}

func (r *ReferenceResource) resolveFetch(coins []model.Coin, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Populated {
		log.Printf("[INFO] reference list already populated, dropping fetch result")
		return
	}
	if err != nil {
		log.Printf("[ERROR] reference list fetch: %v", err)
		r.state = Error
		r.err = err
		return
	}
	if !cache.ValidCoinList(coins) {
		log.Printf("[WARN] reference list fetch returned invalid coins, not caching")
		r.coins = coins
		r.state = Populated
		return
	}

	r.coins = coins
	r.err = nil
	r.state = Populated
	cache.Save(r.store, r.key, coins)
}

// Coins returns the populated list, or nil before population.
func (r *ReferenceResource) Coins() []model.Coin {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Populated {
		return nil
	}
	return append([]model.Coin(nil), r.coins...)
}

// Status reports the resource state for display.
func (r *ReferenceResource) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Status{State: r.state, Loading: r.state == Fetching}
	if r.err != nil {
		st.Error = r.err.Error()
	}
	return st
}

// Sweep drops the cached record if it has gone stale or invalid. The in-memory
// list is untouched.
func (r *ReferenceResource) Sweep() {
	cache.Load(r.store, r.key, r.maxAge, cache.ValidCoinList)
}

// WaitContext blocks until the fetch, if one was issued, has resolved.
func (r *ReferenceResource) WaitContext(ctx context.Context) error {
	r.mu.Lock()
	done := r.fetched
	r.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until in-flight fetches have resolved.
func (r *ReferenceResource) Wait() { _ = r.WaitContext(context.Background()) }
