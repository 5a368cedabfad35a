package acquisition

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"AssetTracker/internal/cache"
	"AssetTracker/internal/collector"
	"AssetTracker/internal/format"
	"AssetTracker/internal/model"
	"AssetTracker/internal/series"
)

// DefaultCacheKey is the storage key of the cached coin list.
const DefaultCacheKey = "coinListCache"

// ErrSelectionChanged is returned when the selection moved on while a chart
// request was waiting for its data.
var ErrSelectionChanged = errors.New("selection changed while waiting")

// Options configures a Tracker.
type Options struct {
	CacheKey    string
	CacheMaxAge time.Duration
	// EagerFetch issues the coin list fetch concurrently with the cache read.
	EagerFetch  bool
	DefaultDays model.DaysRange
}

// Selection is the user-controlled part of the application state.
type Selection struct {
	Coin       string          `json:"coin"`
	Compare    string          `json:"compare"`
	Comparison bool            `json:"comparison"`
	Days       model.DaysRange `json:"days"`
}

// Overview bundles the per-resource status flags.
type Overview struct {
	Reference Status `json:"reference"`
	Primary   Status `json:"primary"`
	Compare   Status `json:"compare"`
}

type rowsKey struct {
	primary, compare uint64
	sel              Selection
}

// Tracker is the process-wide application state. All selection changes go
// through its transition methods, which also decide which fetches to issue.
type Tracker struct {
	ctx context.Context

	Reference *ReferenceResource
	Primary   *SeriesResource
	Compare   *SeriesResource

	opts Options

	chartMu sync.Mutex // serializes ChartRowsFor

	mu      sync.Mutex
	sel     Selection
	rows    []model.NormalizedRow
	rowsKey *rowsKey
	options []model.SelectOption
}

// NewTracker wires the three resources. ctx bounds every fetch the tracker issues.
func NewTracker(ctx context.Context, store *cache.Store, fetcher collector.Fetcher, opts Options) *Tracker {
	if opts.CacheKey == "" {
		opts.CacheKey = DefaultCacheKey
	}
	if opts.CacheMaxAge <= 0 {
		opts.CacheMaxAge = 24 * time.Hour
	}
	if opts.DefaultDays == 0 {
		opts.DefaultDays = model.SevenDays
	}
	return &Tracker{
		ctx:       ctx,
		Reference: NewReferenceResource(store, fetcher, opts.CacheKey, opts.CacheMaxAge),
		Primary:   NewSeriesResource("primary", fetcher),
		Compare:   NewSeriesResource("compare", fetcher),
		opts:      opts,
		sel:       Selection{Days: opts.DefaultDays},
	}
}

// Start acquires the reference list.
func (t *Tracker) Start() {
	t.Reference.Init(t.ctx, t.opts.EagerFetch)
}

// SelectCoin changes the primary asset.
func (t *Tracker) SelectCoin(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sel.Coin = id
	t.syncPrimary()
}

// SetCompareCoin changes the comparison asset.
func (t *Tracker) SetCompareCoin(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sel.Compare = id
	t.syncCompare()
}

// SetComparison toggles comparison mode. Turning it off keeps the fetched
// compare series; it is just no longer merged.
func (t *Tracker) SetComparison(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sel.Comparison = enabled
	t.syncCompare()
}

// SetDaysRange changes the history window of both series.
func (t *Tracker) SetDaysRange(days int) error {
	d, err := model.ParseDaysRange(days)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sel.Days = d
	t.syncPrimary()
	t.syncCompare()
	return nil
}

// Apply replaces the whole selection at once, so each series is requested at
// most once. A zero Days keeps the current range.
func (t *Tracker) Apply(sel Selection) error {
	_, err := t.apply(sel)
	return err
}

func (t *Tracker) apply(sel Selection) (Selection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sel.Days == 0 {
		sel.Days = t.sel.Days
	}
	d, err := model.ParseDaysRange(int(sel.Days))
	if err != nil {
		return Selection{}, err
	}
	sel.Days = d
	t.sel = sel
	t.syncPrimary()
	t.syncCompare()
	return sel, nil
}

// syncPrimary must be called with t.mu held.
func (t *Tracker) syncPrimary() {
	t.Primary.Request(t.ctx, SeriesRequest{CoinID: t.sel.Coin, Days: t.sel.Days})
}

// syncCompare must be called with t.mu held.
func (t *Tracker) syncCompare() {
	if !t.sel.Comparison {
		return
	}
	t.Compare.Request(t.ctx, SeriesRequest{CoinID: t.sel.Compare, Days: t.sel.Days})
}

// Selection returns a snapshot of the current selection.
func (t *Tracker) Selection() Selection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sel
}

// ReferenceList returns the acquired coin list (nil until populated).
func (t *Tracker) ReferenceList() []model.Coin {
	return t.Reference.Coins()
}

// FindCoin looks a coin up in the reference list.
func (t *Tracker) FindCoin(id string) (model.Coin, bool) {
	for _, c := range t.Reference.Coins() {
		if c.ID == id {
			return c, true
		}
	}
	return model.Coin{}, false
}

// SelectOptions returns the reference list formatted for the selector,
// computed once the list is populated.
func (t *Tracker) SelectOptions() []model.SelectOption {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.options != nil {
		return t.options
	}
	coins := t.Reference.Coins()
	if coins == nil {
		return []model.SelectOption{}
	}
	t.options = format.SelectOptions(coins)
	return t.options
}

// ChartRows merges whatever series currently match the selection.
// The result is memoized until a series or the selection changes.
func (t *Tracker) ChartRows() []model.NormalizedRow {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chartRowsLocked()
}

// chartRowsLocked must be called with t.mu held.
func (t *Tracker) chartRowsLocked() []model.NormalizedRow {
	key := rowsKey{primary: t.Primary.Version(), compare: t.Compare.Version(), sel: t.sel}
	if t.rowsKey != nil && *t.rowsKey == key {
		return t.rows
	}

	var primary, compare []model.SeriesPoint
	if p, req := t.Primary.Points(); t.sel.Coin != "" && req.CoinID == t.sel.Coin && req.Days == t.sel.Days {
		primary = p
	}
	if c, req := t.Compare.Points(); t.sel.Compare != "" && req.CoinID == t.sel.Compare && req.Days == t.sel.Days {
		compare = c
	}

	t.rows = series.Merge(primary, compare, t.sel.Comparison)
	t.rowsKey = &key
	return t.rows
}

// ChartView is the answer to one chart request: the rows for exactly the
// selection that was asked for, with the status of that selection's fetches.
type ChartView struct {
	Rows      []model.NormalizedRow `json:"rows"`
	Selection Selection             `json:"selection"`
	Status    Overview              `json:"status"`
}

// ChartRowsFor applies a full selection, waits (bounded by ctx) for the
// fetches it triggers and returns the merged rows. Calls are serialized, so a
// caller never sees rows belonging to another caller's selection.
func (t *Tracker) ChartRowsFor(ctx context.Context, sel Selection) (ChartView, error) {
	t.chartMu.Lock()
	defer t.chartMu.Unlock()

	applied, err := t.apply(sel)
	if err != nil {
		return ChartView{}, err
	}

	if err := t.Reference.WaitContext(ctx); err != nil {
		return ChartView{}, err
	}
	if applied.Coin != "" {
		if err := t.Primary.Await(ctx, SeriesRequest{CoinID: applied.Coin, Days: applied.Days}); err != nil {
			return ChartView{}, err
		}
	}
	if applied.Comparison && applied.Compare != "" {
		if err := t.Compare.Await(ctx, SeriesRequest{CoinID: applied.Compare, Days: applied.Days}); err != nil {
			return ChartView{}, err
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sel != applied {
		return ChartView{}, ErrSelectionChanged
	}
	return ChartView{
		Rows:      t.chartRowsLocked(),
		Selection: applied,
		Status:    t.Status(),
	}, nil
}

// Status reports loading and error flags for each resource independently.
func (t *Tracker) Status() Overview {
	return Overview{
		Reference: t.Reference.Status(),
		Primary:   t.Primary.Status(),
		Compare:   t.Compare.Status(),
	}
}

// RefreshSeries refetches the active series.
func (t *Tracker) RefreshSeries() {
	sel := t.Selection()
	if sel.Coin != "" {
		t.Primary.Refresh(t.ctx)
	}
	if sel.Comparison && sel.Compare != "" {
		t.Compare.Refresh(t.ctx)
	}
}

// SweepCache purges the cached coin list if it has expired.
func (t *Tracker) SweepCache() {
	t.Reference.Sweep()
}

// Wait blocks until every in-flight fetch has resolved.
func (t *Tracker) Wait() { _ = t.WaitContext(context.Background()) }

// WaitContext is Wait bounded by ctx.
func (t *Tracker) WaitContext(ctx context.Context) error {
	for _, wait := range []func(context.Context) error{
		t.Reference.WaitContext,
		t.Primary.WaitContext,
		t.Compare.WaitContext,
	} {
		if err := wait(ctx); err != nil {
			log.Printf("[WARN] gave up waiting for in-flight fetches: %v", err)
			return err
		}
	}
	return nil
}
