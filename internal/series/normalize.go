package series

import (
	"sort"
	"time"

	"AssetTracker/internal/model"
)

// DateLayout is the calendar-day key used for rows.
const DateLayout = "2006-01-02"

// DefaultTag labels points that arrive without a series tag.
const DefaultTag = "main"

// Normalize groups points by date into one row per day, ordered by calendar
// date. For the same date and tag the later point wins.
func Normalize(points []model.SeriesPoint) []model.NormalizedRow {
	byDate := make(map[string]*model.NormalizedRow, len(points))
	for _, p := range points {
		tag := p.Tag
		if tag == "" {
			tag = DefaultTag
		}
		row, ok := byDate[p.Date]
		if !ok {
			row = &model.NormalizedRow{Date: p.Date, Values: make(map[string]float64, 2)}
			byDate[p.Date] = row
		}
		row.Values[tag] = p.Price
	}

	type keyed struct {
		row    model.NormalizedRow
		at     time.Time
		parsed bool
	}
	rows := make([]keyed, 0, len(byDate))
	for _, r := range byDate {
		at, err := time.Parse(DateLayout, r.Date)
		rows = append(rows, keyed{row: *r, at: at, parsed: err == nil})
	}

	// Unparsable dates sort after every real date, lexically among themselves.
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.parsed != b.parsed {
			return a.parsed
		}
		if a.parsed && !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		return a.row.Date < b.row.Date
	})

	out := make([]model.NormalizedRow, len(rows))
	for i, k := range rows {
		out[i] = k.row
	}
	return out
}

// Merge normalizes the primary series together with the compare series.
// Compare points are ignored when comparison is disabled.
func Merge(primary, compare []model.SeriesPoint, comparisonEnabled bool) []model.NormalizedRow {
	points := make([]model.SeriesPoint, 0, len(primary)+len(compare))
	points = append(points, primary...)
	if comparisonEnabled {
		points = append(points, compare...)
	}
	return Normalize(points)
}

// Flatten turns rows back into points, tags in sorted order within a row.
func Flatten(rows []model.NormalizedRow) []model.SeriesPoint {
	var points []model.SeriesPoint
	for _, r := range rows {
		tags := make([]string, 0, len(r.Values))
		for tag := range r.Values {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		for _, tag := range tags {
			points = append(points, model.SeriesPoint{Date: r.Date, Price: r.Values[tag], Tag: tag})
		}
	}
	return points
}
