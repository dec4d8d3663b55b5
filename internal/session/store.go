// internal/session/store.go
package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"ecycle-workers/internal/common/errors"
	"ecycle-workers/internal/valuation"

	"github.com/redis/go-redis/v9"
)

const (
	valuationSuffix  = "valuation"
	classifiedSuffix = "classified"
	listingSuffix    = "listing"

	DefaultTTL = 24 * time.Hour
)

// ErrNotFound is returned when a session holds no value for the requested key.
var ErrNotFound = stderrors.New("session value not found")

// Estimate is the last valuation form and its result for a session.
type Estimate struct {
	EstimateID string                 `json:"estimateId"`
	Items      []valuation.Descriptor `json:"items"`
	Result     *valuation.Result      `json:"result"`
	SavedAt    time.Time              `json:"savedAt"`
}

// ClassifiedItem is what the classifier hands over to the estimator.
type ClassifiedItem struct {
	Label    string `json:"label"`
	ImageURL string `json:"imageUrl,omitempty"`
	Category string `json:"category"`
}

// Store keeps per-session values in Redis.
type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func key(sessionID, suffix string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, suffix)
}

func (s *Store) SaveEstimate(ctx context.Context, sessionID string, est *Estimate) error {
	return s.save(ctx, key(sessionID, valuationSuffix), est)
}

func (s *Store) LoadEstimate(ctx context.Context, sessionID string) (*Estimate, error) {
	var est Estimate
	if err := s.load(ctx, key(sessionID, valuationSuffix), &est, false); err != nil {
		return nil, err
	}
	return &est, nil
}

func (s *Store) SaveClassifiedItem(ctx context.Context, sessionID string, item *ClassifiedItem) error {
	return s.save(ctx, key(sessionID, classifiedSuffix), item)
}

// TakeClassifiedItem reads and deletes the classified item, so it prefills at most one estimate.
func (s *Store) TakeClassifiedItem(ctx context.Context, sessionID string) (*ClassifiedItem, error) {
	var item ClassifiedItem
	if err := s.load(ctx, key(sessionID, classifiedSuffix), &item, true); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveListing(ctx context.Context, sessionID string, listing *valuation.ListingPrefill) error {
	return s.save(ctx, key(sessionID, listingSuffix), listing)
}

// LoadListing returns the listing prefill from the session's last estimate.
func (s *Store) LoadListing(ctx context.Context, sessionID string) (*valuation.ListingPrefill, error) {
	var listing valuation.ListingPrefill
	if err := s.load(ctx, key(sessionID, listingSuffix), &listing, false); err != nil {
		return nil, err
	}
	return &listing, nil
}

func (s *Store) save(ctx context.Context, k string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.NewSessionStoreFailedError("encode", err)
	}
	if err := s.rdb.Set(ctx, k, data, s.ttl).Err(); err != nil {
		return errors.NewSessionStoreFailedError("set", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, k string, v interface{}, remove bool) error {
	var (
		data []byte
		err  error
	)
	if remove {
		data, err = s.rdb.GetDel(ctx, k).Bytes()
	} else {
		data, err = s.rdb.Get(ctx, k).Bytes()
	}
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return errors.NewSessionStoreFailedError("get", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.NewSessionStoreFailedError("decode", err)
	}
	return nil
}
