package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"AssetTracker/internal/model"
)

// CoinGeckoFetcher implements Fetcher against the CoinGecko coins API
// (base URL ending in /api/v3/coins).
type CoinGeckoFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewCoinGeckoFetcher creates a new fetcher with optional proxy support.
func NewCoinGeckoFetcher(baseURL, apiKey, proxyURL string) *CoinGeckoFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &CoinGeckoFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

// FetchCoins returns the market list ordered by market cap.
func (f *CoinGeckoFetcher) FetchCoins(ctx context.Context) ([]model.Coin, error) {
	endpoint := f.BaseURL + "/markets?vs_currency=usd&order=market_cap_desc"
	var coins []model.Coin
	if err := f.getJSON(ctx, endpoint, &coins); err != nil {
		return nil, fmt.Errorf("fetch coins: %w", err)
	}
	return coins, nil
}

// marketChart is the response shape of /{id}/market_chart.
type marketChart struct {
	Prices [][]float64 `json:"prices"`
}

// FetchPriceHistory returns [timestamp, price] samples for coinID over days.
func (f *CoinGeckoFetcher) FetchPriceHistory(ctx context.Context, coinID string, days model.DaysRange) ([]model.PricePoint, error) {
	endpoint := fmt.Sprintf("%s/%s/market_chart?vs_currency=usd&days=%d",
		f.BaseURL, url.PathEscape(coinID), int(days))

	var chart marketChart
	if err := f.getJSON(ctx, endpoint, &chart); err != nil {
		return nil, fmt.Errorf("fetch price history %s/%d: %w", coinID, int(days), err)
	}

	points := make([]model.PricePoint, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		if len(p) < 2 {
			continue // malformed sample
		}
		points = append(points, model.PricePoint{TimestampMs: int64(p[0]), Price: p[1]})
	}
	return points, nil
}

func (f *CoinGeckoFetcher) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if f.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", f.APIKey)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w %d, body: %s", ErrBadStatus, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
