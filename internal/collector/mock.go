package collector

import (
	"context"
	"sync"
	"time"

	"AssetTracker/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu sync.Mutex

	Coins    []model.Coin
	CoinsErr error
	// History maps coin id to samples; ids without an entry get generated data.
	History    map[string][]model.PricePoint
	HistoryErr error
	BasePrice  float64

	coinCalls    int
	historyCalls []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCoins(_ context.Context) ([]model.Coin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coinCalls++
	if m.CoinsErr != nil {
		return nil, m.CoinsErr
	}
	return append([]model.Coin(nil), m.Coins...), nil
}

func (m *MockFetcher) FetchPriceHistory(_ context.Context, coinID string, days model.DaysRange) ([]model.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.historyCalls = append(m.historyCalls, coinID)
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	if h, ok := m.History[coinID]; ok {
		return append([]model.PricePoint(nil), h...), nil
	}
	return generateMockPrices(m.BasePrice, int(days)), nil
}

// CoinCalls returns how many times FetchCoins was called.
func (m *MockFetcher) CoinCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coinCalls
}

// HistoryCalls returns the coin ids FetchPriceHistory was called with, in order.
func (m *MockFetcher) HistoryCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.historyCalls...)
}

func generateMockPrices(basePrice float64, days int) []model.PricePoint {
	if basePrice == 0 {
		basePrice = 100
	}
	now := time.Now().UTC().Truncate(24 * time.Hour)
	points := make([]model.PricePoint, days)
	for i := 0; i < days; i++ {
		points[i] = model.PricePoint{
			TimestampMs: now.AddDate(0, 0, -(days - i)).UnixMilli(),
			Price:       basePrice * (1 + float64(i-days/2)*0.001),
		}
	}
	return points
}
