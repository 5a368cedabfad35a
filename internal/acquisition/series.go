package acquisition

import (
	"context"
	"errors"
	"log"
	"sync"

	"AssetTracker/internal/collector"
	"AssetTracker/internal/model"
	"AssetTracker/internal/series"
)

// SeriesRequest identifies one price-history fetch.
type SeriesRequest struct {
	CoinID string
	Days   model.DaysRange
}

// ErrSuperseded is returned when a waited-for request was replaced before it resolved.
var ErrSuperseded = errors.New("series request superseded")

// ticket tags an in-flight fetch with what it was issued for. done is closed
// once the fetch has resolved, whether or not its result was applied.
type ticket struct {
	req  SeriesRequest
	seq  uint64
	done chan struct{}
}

// SeriesResource holds one price series. It has no cache tier: every new
// request is fetched, and a result is applied only if its ticket is still the
// latest one issued.
type SeriesResource struct {
	mu      sync.Mutex
	name    string
	fetcher collector.Fetcher

	current  SeriesRequest
	seq      uint64
	inflight int
	state    State
	err      error

	points  []model.SeriesPoint
	loaded  SeriesRequest
	version uint64

	latest chan struct{} // done channel of the newest ticket, nil when none
	idle   chan struct{} // closed when inflight drops to zero
}

func NewSeriesResource(name string, fetcher collector.Fetcher) *SeriesResource {
	return &SeriesResource{name: name, fetcher: fetcher}
}

// Request points the resource at req. An empty coin id resets it to Empty.
// Asking again for the request that is already loaded or loading is a no-op.
func (s *SeriesResource) Request(ctx context.Context, req SeriesRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.CoinID == "" {
		s.current = req
		s.seq++ // orphan anything in flight
		s.latest = nil
		s.state = Empty
		s.err = nil
		s.setPoints(nil, req)
		return
	}
	if req == s.current && (s.state == Fetching || s.state == Populated) {
		return
	}

	s.current = req
	s.state = Fetching
	s.err = nil
	s.setPoints(nil, SeriesRequest{})
	s.launch(ctx)
}

// Refresh refetches the current request, keeping the loaded points until the
// new ones arrive.
func (s *SeriesResource) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.CoinID == "" {
		return
	}
	if s.state != Populated {
		s.state = Fetching
	}
	s.launch(ctx)
}

// launch must be called with s.mu held.
func (s *SeriesResource) launch(ctx context.Context) {
	s.seq++
	t := ticket{req: s.current, seq: s.seq, done: make(chan struct{})}
	s.latest = t.done
	if s.inflight == 0 {
		s.idle = make(chan struct{})
	}
	s.inflight++
	go func() {
		prices, err := s.fetcher.FetchPriceHistory(ctx, t.req.CoinID, t.req.Days)
		s.resolve(t, prices, err)
	}()
}

func (s *SeriesResource) resolve(t ticket, prices []model.PricePoint, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(t.done)
	s.inflight--
	if s.inflight == 0 {
		close(s.idle)
	}

	if t.seq != s.seq || t.req != s.current {
		log.Printf("[INFO] %s series: discarding stale result for %s/%d", s.name, t.req.CoinID, int(t.req.Days))
		return
	}
	if err != nil {
		log.Printf("[ERROR] %s series fetch %s/%d: %v", s.name, t.req.CoinID, int(t.req.Days), err)
		s.state = Error
		s.err = err
		return
	}
	s.state = Populated
	s.err = nil
	s.setPoints(series.FromPrices(prices, t.req.CoinID), t.req)
}

// setPoints must be called with s.mu held.
func (s *SeriesResource) setPoints(points []model.SeriesPoint, req SeriesRequest) {
	s.points = points
	s.loaded = req
	s.version++
}

// Points returns the loaded points and the request they belong to.
func (s *SeriesResource) Points() ([]model.SeriesPoint, SeriesRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points, s.loaded
}

// Current returns the request the resource is pointed at.
func (s *SeriesResource) Current() SeriesRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Version changes every time the loaded points change.
func (s *SeriesResource) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *SeriesResource) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{State: s.state, Loading: s.inflight > 0}
	if s.err != nil {
		st.Error = s.err.Error()
	}
	return st
}

// Await blocks until the newest fetch for req has resolved. It returns
// ErrSuperseded if the resource is pointed elsewhere meanwhile.
func (s *SeriesResource) Await(ctx context.Context, req SeriesRequest) error {
	for {
		s.mu.Lock()
		if s.current != req {
			s.mu.Unlock()
			return ErrSuperseded
		}
		done := s.latest
		s.mu.Unlock()
		if done == nil {
			return nil
		}

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}

		// A refresh may have issued a newer ticket for the same request.
		s.mu.Lock()
		newest := s.latest == done
		s.mu.Unlock()
		if newest {
			return nil
		}
	}
}

// WaitContext blocks until no fetch is in flight, or ctx is done.
func (s *SeriesResource) WaitContext(ctx context.Context) error {
	s.mu.Lock()
	if s.inflight == 0 {
		s.mu.Unlock()
		return nil
	}
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until in-flight fetches have resolved.
func (s *SeriesResource) Wait() { _ = s.WaitContext(context.Background()) }
