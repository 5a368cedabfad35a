package cache

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"AssetTracker/internal/model"
	"AssetTracker/internal/storage"
)

const day = 24 * time.Hour

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore() (*Store, *storage.Memory, *fakeClock) {
	mem := storage.NewMemory()
	clk := &fakeClock{t: time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)}
	return New(mem, WithClock(clk.Now)), mem, clk
}

func sampleCoins() []model.Coin {
	return []model.Coin{
		{ID: "dash", Name: "Dash", Symbol: "dash", Image: "https://img/dash.png"},
		{ID: "1inch", Name: "1inch", Symbol: "1inch", Image: "https://img/1inch.png"},
	}
}

func TestRoundTrip(t *testing.T) {
	s, _, _ := newTestStore()
	coins := sampleCoins()

	Save(s, "coinListCache", coins)
	got, ok := Load(s, "coinListCache", day, ValidCoinList)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !reflect.DeepEqual(got, coins) {
		t.Errorf("got %+v, want %+v", got, coins)
	}
}

func TestExpiryPurgesRecord(t *testing.T) {
	s, mem, clk := newTestStore()
	Save(s, "coinListCache", sampleCoins())

	clk.Advance(day)
	if _, ok := Load(s, "coinListCache", day, ValidCoinList); !ok {
		t.Fatal("record exactly maxAge old should still be valid")
	}

	clk.Advance(time.Millisecond)
	if _, ok := Load(s, "coinListCache", day, ValidCoinList); ok {
		t.Fatal("expected miss for expired record")
	}
	if _, ok, _ := mem.Get("coinListCache"); ok {
		t.Error("expired record was not purged")
	}
	if _, ok := Load(s, "coinListCache", 365*day, ValidCoinList); ok {
		t.Error("purged record resurfaced with larger maxAge")
	}
}

func TestCorruptPayloadRejected(t *testing.T) {
	s, mem, _ := newTestStore()
	coins := sampleCoins()
	coins[1].Image = ""
	Save(s, "coinListCache", coins)

	if _, ok := Load(s, "coinListCache", 365*day, ValidCoinList); ok {
		t.Fatal("coin without image must not be returned")
	}
	if _, ok, _ := mem.Get("coinListCache"); ok {
		t.Error("invalid record was not purged")
	}
}

func TestMalformedRecords(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{oops"},
		{"missing timestamp", `{"data":[]}`},
		{"missing data", `{"timestamp":1672574400000}`},
		{"null data", `{"timestamp":1672574400000,"data":null}`},
		{"wrong payload type", `{"timestamp":1672574400000,"data":{"id":"x"}}`},
		{"non-object", `[1,2,3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mem, _ := newTestStore()
			_ = mem.Set("k", tt.raw)
			if _, ok := Load(s, "k", day, ValidCoinList); ok {
				t.Fatal("expected miss")
			}
			if _, ok, _ := mem.Get("k"); ok {
				t.Error("malformed record was not purged")
			}
		})
	}
}

func TestLoadWithoutValidator(t *testing.T) {
	s, _, _ := newTestStore()
	Save(s, "n", 42)
	got, ok := Load[int](s, "n", time.Minute, nil)
	if !ok || got != 42 {
		t.Errorf("got %d, %v", got, ok)
	}
}

func TestValidCoinList(t *testing.T) {
	if ValidCoinList(nil) {
		t.Error("nil list should be invalid")
	}
	if !ValidCoinList([]model.Coin{}) {
		t.Error("empty list should be valid")
	}
	if ValidCoinList([]model.Coin{{ID: "a", Name: "", Image: "x"}}) {
		t.Error("coin without name should be invalid")
	}
}

type failingBackend struct{ *storage.Memory }

func (failingBackend) Get(string) (string, bool, error) { return "", false, errors.New("boom") }
func (failingBackend) Set(string, string) error         { return errors.New("quota exceeded") }

func TestBackendFailuresDegrade(t *testing.T) {
	s := New(failingBackend{storage.NewMemory()})
	Save(s, "k", sampleCoins())
	if _, ok := Load(s, "k", day, ValidCoinList); ok {
		t.Error("read error should be a miss")
	}
}

type unencodable struct{ C chan int }

func TestSaveUnencodablePayload(t *testing.T) {
	s, mem, _ := newTestStore()
	Save(s, "k", unencodable{C: make(chan int)})
	if _, ok, _ := mem.Get("k"); ok {
		t.Error("nothing should be written for an unencodable payload")
	}
}
