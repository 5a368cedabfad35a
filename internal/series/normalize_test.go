package series

import (
	"reflect"
	"testing"

	"AssetTracker/internal/model"
)

func TestNormalize_Empty(t *testing.T) {
	rows := Normalize(nil)
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", rows)
	}
}

func TestNormalize_MergeScenario(t *testing.T) {
	primary := []model.SeriesPoint{{Date: "2023-01-01", Price: 1000, Tag: "bitcoin"}}
	compare := []model.SeriesPoint{
		{Date: "2023-01-01", Price: 50, Tag: "ethereum"},
		{Date: "2023-01-02", Price: 55, Tag: "ethereum"},
	}

	got := Merge(primary, compare, true)
	want := []model.NormalizedRow{
		{Date: "2023-01-01", Values: map[string]float64{"bitcoin": 1000, "ethereum": 50}},
		{Date: "2023-01-02", Values: map[string]float64{"ethereum": 55}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v\nwant %+v", got, want)
	}
	if _, ok := got[1].Values["bitcoin"]; ok {
		t.Error("missing series must be absent, not zero-filled")
	}
}

func TestMerge_ComparisonDisabled(t *testing.T) {
	primary := []model.SeriesPoint{{Date: "2023-01-01", Price: 1000, Tag: "bitcoin"}}
	compare := []model.SeriesPoint{{Date: "2023-01-02", Price: 55, Tag: "ethereum"}}

	got := Merge(primary, compare, false)
	if len(got) != 1 || len(got[0].Values) != 1 || got[0].Values["bitcoin"] != 1000 {
		t.Errorf("unexpected rows %+v", got)
	}
}

func TestNormalize_OrderingAcrossBoundaries(t *testing.T) {
	points := []model.SeriesPoint{
		{Date: "2024-01-01", Price: 3, Tag: "a"},
		{Date: "2023-02-28", Price: 1, Tag: "a"},
		{Date: "2023-12-31", Price: 2, Tag: "a"},
	}
	got := Normalize(points)
	var dates []string
	for _, r := range got {
		dates = append(dates, r.Date)
	}
	want := []string{"2023-02-28", "2023-12-31", "2024-01-01"}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("dates = %v, want %v", dates, want)
	}
}

func TestNormalize_LastWriteWins(t *testing.T) {
	points := []model.SeriesPoint{
		{Date: "2023-01-01", Price: 1, Tag: "a"},
		{Date: "2023-01-01", Price: 2, Tag: "b"},
		{Date: "2023-01-01", Price: 3, Tag: "a"},
	}
	got := Normalize(points)
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0].Values["a"] != 3 || got[0].Values["b"] != 2 {
		t.Errorf("values = %v", got[0].Values)
	}
}

func TestNormalize_DefaultTag(t *testing.T) {
	got := Normalize([]model.SeriesPoint{{Date: "2023-01-01", Price: 7}})
	if got[0].Values[DefaultTag] != 7 {
		t.Errorf("untagged point should land under %q, got %v", DefaultTag, got[0].Values)
	}
}

func TestNormalize_UnparsableDatesSortLast(t *testing.T) {
	got := Normalize([]model.SeriesPoint{
		{Date: "zzz", Price: 1, Tag: "a"},
		{Date: "2023-01-02", Price: 2, Tag: "a"},
		{Date: "abc", Price: 3, Tag: "a"},
	})
	var dates []string
	for _, r := range got {
		dates = append(dates, r.Date)
	}
	want := []string{"2023-01-02", "abc", "zzz"}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("dates = %v, want %v", dates, want)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	points := []model.SeriesPoint{
		{Date: "2023-01-03", Price: 12, Tag: "bitcoin"},
		{Date: "2023-01-01", Price: 10, Tag: "bitcoin"},
		{Date: "2023-01-01", Price: 50, Tag: "ethereum"},
		{Date: "2023-01-02", Price: 55, Tag: "ethereum"},
		{Date: "2023-01-01", Price: 11, Tag: "bitcoin"},
	}
	once := Normalize(points)
	twice := Normalize(Flatten(once))
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("not idempotent:\n%+v\n%+v", once, twice)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	points := []model.SeriesPoint{
		{Date: "2023-01-02", Price: 2, Tag: "a"},
		{Date: "2023-01-01", Price: 1, Tag: "b"},
		{Date: "2023-01-03", Price: 3, Tag: "a"},
	}
	first := Normalize(points)
	for i := 0; i < 20; i++ {
		if got := Normalize(points); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v", i, got)
		}
	}
}

func TestFromPrices(t *testing.T) {
	prices := []model.PricePoint{
		{TimestampMs: 1672531200000, Price: 1000}, // 2023-01-01T00:00:00Z
		{TimestampMs: 1672617599000, Price: 1050}, // 2023-01-01T23:59:59Z
		{TimestampMs: 1672617600000, Price: 1100}, // 2023-01-02T00:00:00Z
	}
	points := FromPrices(prices, "bitcoin")
	wantDates := []string{"2023-01-01", "2023-01-01", "2023-01-02"}
	for i, p := range points {
		if p.Date != wantDates[i] || p.Tag != "bitcoin" {
			t.Errorf("point %d = %+v", i, p)
		}
	}

	rows := Normalize(points)
	if len(rows) != 2 || rows[0].Values["bitcoin"] != 1050 {
		t.Errorf("same-day samples should keep the last price, got %+v", rows)
	}
}
