package model

import (
	"errors"
	"fmt"
)

// ErrInvalidDaysRange is returned for a day range outside the supported set.
var ErrInvalidDaysRange = errors.New("invalid days range")

// DaysRange is the requested history window in days.
type DaysRange int

const (
	SevenDays  DaysRange = 7
	ThirtyDays DaysRange = 30
	OneYear    DaysRange = 365
)

// DaysRanges lists the supported ranges in display order.
var DaysRanges = []DaysRange{SevenDays, ThirtyDays, OneYear}

// ParseDaysRange validates a raw day count.
func ParseDaysRange(days int) (DaysRange, error) {
	for _, r := range DaysRanges {
		if int(r) == days {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidDaysRange, days)
}

// Label returns the short button label ("7d", "30d", "1y").
func (d DaysRange) Label() string {
	switch d {
	case SevenDays:
		return "7d"
	case ThirtyDays:
		return "30d"
	case OneYear:
		return "1y"
	default:
		return fmt.Sprintf("%dd", int(d))
	}
}

// PricePoint is a single raw sample returned by the market-data API.
type PricePoint struct {
	TimestampMs int64
	Price       float64
}

// SeriesPoint is a price sample bucketed to a calendar day and tagged with the
// series (asset id) it belongs to.
type SeriesPoint struct {
	Date  string
	Price float64
	Tag   string
}
