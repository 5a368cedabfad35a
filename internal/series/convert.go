package series

import (
	"time"

	"AssetTracker/internal/model"
)

// FromPrices buckets raw samples to UTC calendar days and tags them with the
// series id. Several samples on one day are kept; Normalize keeps the last.
func FromPrices(prices []model.PricePoint, tag string) []model.SeriesPoint {
	points := make([]model.SeriesPoint, 0, len(prices))
	for _, p := range prices {
		points = append(points, model.SeriesPoint{
			Date:  time.UnixMilli(p.TimestampMs).UTC().Format(DateLayout),
			Price: p.Price,
			Tag:   tag,
		})
	}
	return points
}
