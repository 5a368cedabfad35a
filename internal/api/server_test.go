package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"AssetTracker/internal/acquisition"
	"AssetTracker/internal/cache"
	"AssetTracker/internal/calculator"
	"AssetTracker/internal/collector"
	"AssetTracker/internal/model"
	"AssetTracker/internal/storage"
)

func rank(n int) *int { return &n }

func newTestServer(t *testing.T, f collector.Fetcher) *httptest.Server {
	t.Helper()
	tr := acquisition.NewTracker(context.Background(), cache.New(storage.NewMemory()), f, acquisition.Options{})
	tr.Start()
	tr.Wait()
	srv := httptest.NewServer(NewServer(":0", tr).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func fixtureFetcher() *collector.MockFetcher {
	return &collector.MockFetcher{
		Coins: []model.Coin{
			{ID: "bitcoin", Name: "Bitcoin", Symbol: "btc", Image: "btc.png", MarketCapRank: rank(1)},
			{ID: "ethereum", Name: "Ethereum", Symbol: "eth", Image: "eth.png", MarketCapRank: rank(2)},
		},
		History: map[string][]model.PricePoint{
			"bitcoin":  {{TimestampMs: 1672531200000, Price: 1000}},
			"ethereum": {{TimestampMs: 1672531200000, Price: 50}, {TimestampMs: 1672617600000, Price: 55}},
		},
	}
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestChartEndpoint(t *testing.T) {
	srv := newTestServer(t, fixtureFetcher())

	var body struct {
		Rows    []model.NormalizedRow         `json:"rows"`
		Summary map[string]calculator.Summary `json:"summary"`
	}
	code := get(t, srv.URL+"/api/chart?coin=bitcoin&compare=ethereum&compare_enabled=true&days=7", &body)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(body.Rows) != 2 {
		t.Fatalf("rows = %+v", body.Rows)
	}
	if body.Rows[0].Values["bitcoin"] != 1000 || body.Rows[0].Values["ethereum"] != 50 {
		t.Errorf("first row = %+v", body.Rows[0])
	}
	if _, ok := body.Rows[1].Values["bitcoin"]; ok {
		t.Error("second row must not carry a bitcoin value")
	}
	if eth := body.Summary["ethereum"]; eth.Points != 2 || eth.High != 55 || eth.Low != 50 {
		t.Errorf("ethereum summary = %+v", eth)
	}
}

func TestChartEndpoint_BadInput(t *testing.T) {
	srv := newTestServer(t, fixtureFetcher())
	for _, q := range []string{"", "?coin=bitcoin&days=14", "?coin=bitcoin&days=x", "?coin=bitcoin&compare_enabled=maybe"} {
		if code := get(t, srv.URL+"/api/chart"+q, nil); code != http.StatusBadRequest {
			t.Errorf("%q: status %d, want 400", q, code)
		}
	}
}

func TestChartEndpoint_FetchError(t *testing.T) {
	f := fixtureFetcher()
	f.HistoryErr = errors.New("api down")
	srv := newTestServer(t, f)

	var body struct {
		Status map[string]map[string]any `json:"status"`
	}
	if code := get(t, srv.URL+"/api/chart?coin=bitcoin", &body); code != http.StatusBadGateway {
		t.Errorf("status %d, want 502", code)
	}
	if body.Status["primary"]["error"] == nil {
		t.Errorf("primary error not reported: %+v", body.Status)
	}
	if body.Status["reference"]["state"] != "populated" {
		t.Errorf("reference status should be unaffected: %+v", body.Status["reference"])
	}
}

func TestCoinsAndOptions(t *testing.T) {
	srv := newTestServer(t, fixtureFetcher())

	var coins struct {
		Coins []model.Coin `json:"coins"`
	}
	if code := get(t, srv.URL+"/api/coins", &coins); code != http.StatusOK || len(coins.Coins) != 2 {
		t.Errorf("coins: %d %+v", code, coins)
	}

	var opts []model.SelectOption
	if code := get(t, srv.URL+"/api/options", &opts); code != http.StatusOK || len(opts) != 2 || opts[1].Label != "Ethereum" {
		t.Errorf("options: %d %+v", code, opts)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t, fixtureFetcher())

	var stats struct {
		Primary    []map[string]string `json:"primary"`
		Comparison []map[string]string `json:"comparison"`
	}
	if code := get(t, srv.URL+"/api/stats?coin=bitcoin&compare=ethereum", &stats); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if stats.Primary[1]["value"] != "#1" || stats.Comparison[1]["compare_value"] != "#1" {
		t.Errorf("stats = %+v", stats)
	}
	if code := get(t, srv.URL+"/api/stats?coin=dogecoin", nil); code != http.StatusNotFound {
		t.Errorf("unknown coin status %d", code)
	}
}

// slowFetcher delays the price history of one coin.
type slowFetcher struct {
	*collector.MockFetcher
	slowID string
	delay  time.Duration
}

func (f *slowFetcher) FetchPriceHistory(ctx context.Context, id string, days model.DaysRange) ([]model.PricePoint, error) {
	if id == f.slowID {
		time.Sleep(f.delay)
	}
	return f.MockFetcher.FetchPriceHistory(ctx, id, days)
}

func TestChartEndpoint_OverlappingRequests(t *testing.T) {
	srv := newTestServer(t, &slowFetcher{MockFetcher: fixtureFetcher(), slowID: "bitcoin", delay: 200 * time.Millisecond})

	type result struct {
		code int
		rows []model.NormalizedRow
		err  error
	}
	fetch := func(coin string) result {
		resp, err := http.Get(srv.URL + "/api/chart?coin=" + coin)
		if err != nil {
			return result{err: err}
		}
		defer resp.Body.Close()
		var body struct {
			Rows []model.NormalizedRow `json:"rows"`
		}
		err = json.NewDecoder(resp.Body).Decode(&body)
		return result{resp.StatusCode, body.Rows, err}
	}

	var (
		wg  sync.WaitGroup
		btc result
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		btc = fetch("bitcoin")
	}()
	time.Sleep(50 * time.Millisecond)
	eth := fetch("ethereum")
	wg.Wait()

	if btc.err != nil || eth.err != nil {
		t.Fatalf("requests failed: %v / %v", btc.err, eth.err)
	}
	if btc.code != http.StatusOK || len(btc.rows) != 1 || btc.rows[0].Values["bitcoin"] != 1000 {
		t.Errorf("bitcoin request got %d %+v", btc.code, btc.rows)
	}
	if eth.code != http.StatusOK || len(eth.rows) != 2 {
		t.Errorf("ethereum request got %d %+v", eth.code, eth.rows)
	}
	for _, row := range eth.rows {
		if _, ok := row.Values["bitcoin"]; ok {
			t.Errorf("ethereum request leaked bitcoin row %+v", row)
		}
	}
}
