package collector

import (
	"context"
	"errors"

	"AssetTracker/internal/model"
)

// ErrBadStatus wraps any non-200 response from the market-data API.
var ErrBadStatus = errors.New("unexpected status")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchCoins(ctx context.Context) ([]model.Coin, error)
	FetchPriceHistory(ctx context.Context, coinID string, days model.DaysRange) ([]model.PricePoint, error)
	Name() string
}
