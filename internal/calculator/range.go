package calculator

import (
	"errors"
	"math"
	"sort"

	"AssetTracker/internal/model"
)

// Summary describes one series over the selected period.
type Summary struct {
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	First    float64 `json:"first"`
	Last     float64 `json:"last"`
	Change   float64 `json:"change_pct"`
	Position float64 `json:"position"`
	Points   int     `json:"points"`
}

// Summarize scans merged chart rows and returns a Summary per series tag.
// Rows are expected in chronological order; a tag missing from a row is skipped.
func Summarize(rows []model.NormalizedRow) map[string]Summary {
	out := make(map[string]Summary)
	for _, row := range rows {
		tags := make([]string, 0, len(row.Values))
		for tag := range row.Values {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		for _, tag := range tags {
			price := row.Values[tag]
			s, ok := out[tag]
			if !ok {
				s = Summary{High: math.Inf(-1), Low: math.Inf(1), First: price}
			}
			if price > s.High {
				s.High = price
			}
			if price < s.Low {
				s.Low = price
			}
			s.Last = price
			s.Points++
			out[tag] = s
		}
	}
	for tag, s := range out {
		s.Change = ChangePercent(s.First, s.Last)
		s.Position, _ = RangePosition(s.Last, s.High, s.Low)
		out[tag] = s
	}
	return out
}

// ChangePercent returns the relative change from first to last in percent.
func ChangePercent(first, last float64) float64 {
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

// RangePosition returns where current sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
