package cache

import (
	"bytes"
	"encoding/json"
	"log"
	"time"

	"AssetTracker/internal/model"
	"AssetTracker/internal/storage"
)

// Record is the persisted envelope for one cache key.
type Record[T any] struct {
	Timestamp int64 `json:"timestamp"` // epoch milliseconds
	Data      T     `json:"data"`
}

// rawRecord is used on read so a missing field can be told apart from a zero value.
type rawRecord struct {
	Timestamp *int64          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Store is a TTL-bounded cache over a raw Storage backend. Reads never fail:
// any problem with a record is reported as a miss and the record is purged.
type Store struct {
	backend storage.Storage
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store over backend.
func New(backend storage.Storage, opts ...Option) *Store {
	s := &Store{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying storage.
func (s *Store) Backend() storage.Storage { return s.backend }

// Load returns the payload stored under key if the record is well formed,
// passes validate (nil means no check) and is no older than maxAge.
func Load[T any](s *Store, key string, maxAge time.Duration, validate func(T) bool) (T, bool) {
	var zero T

	raw, ok, err := s.backend.Get(key)
	if err != nil {
		log.Printf("[WARN] cache read %q from %s: %v", key, s.backend.Name(), err)
		return zero, false
	}
	if !ok {
		return zero, false
	}

	var rec rawRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.purge(key, "undecodable record")
		return zero, false
	}
	if rec.Timestamp == nil || len(rec.Data) == 0 || bytes.Equal(rec.Data, []byte("null")) {
		s.purge(key, "record missing timestamp or data")
		return zero, false
	}

	var payload T
	if err := json.Unmarshal(rec.Data, &payload); err != nil {
		s.purge(key, "payload has wrong shape")
		return zero, false
	}
	if validate != nil && !validate(payload) {
		s.purge(key, "payload failed validation")
		return zero, false
	}

	age := s.now().UnixMilli() - *rec.Timestamp
	if age > maxAge.Milliseconds() {
		s.purge(key, "record expired")
		return zero, false
	}
	return payload, true
}

// Save replaces the record under key with payload stamped with the current
// time. Failures are logged and otherwise ignored.
func Save[T any](s *Store, key string, payload T) {
	b, err := json.Marshal(Record[T]{Timestamp: s.now().UnixMilli(), Data: payload})
	if err != nil {
		log.Printf("[WARN] cache encode %q: %v", key, err)
		return
	}
	if err := s.backend.Set(key, string(b)); err != nil {
		log.Printf("[WARN] cache write %q to %s: %v", key, s.backend.Name(), err)
	}
}

func (s *Store) purge(key, reason string) {
	log.Printf("[INFO] cache purge %q: %s", key, reason)
	if err := s.backend.Remove(key); err != nil {
		log.Printf("[WARN] cache remove %q: %v", key, err)
	}
}

// ValidCoinList requires a non-nil list whose every coin has id, name and image.
func ValidCoinList(coins []model.Coin) bool {
	if coins == nil {
		return false
	}
	for _, c := range coins {
		if !c.Valid() {
			return false
		}
	}
	return true
}
