package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"linksnap/model"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	linkKeyPrefix = "link:"
	codeIndexKey  = "link_codes" // hash: shortCode -> link id, the uniqueness constraint
	createdSetKey = "link_ids"   // zset: link ids scored by creation time
)

// Store persists link records as JSON blobs in Redis. Records live at
// link:{id}; a hash index maps short codes to ids and enforces code
// uniqueness, and a sorted set keyed by creation time provides
// newest-first listing.
type Store struct {
	redis *redis.Client
}

// New creates a Store on top of an existing client. The client is created
// once at process start and injected here; the Store never reconnects on
// its own.
func New(rdb *redis.Client) *Store {
	return &Store{redis: rdb}
}

// Ping reports store connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Create inserts a new link record. The short code is claimed in the code
// index first; a second writer with the same code loses and gets
// ErrConflict.
func (s *Store) Create(ctx context.Context, originalURL, ownerID, shortCode, shortURL string) (*model.Link, error) {
	if originalURL == "" || shortCode == "" {
		return nil, fmt.Errorf("%w: originalUrl and shortCode are required", ErrValidation)
	}

	id := uuid.New().String()
	claimed, err := s.redis.HSetNX(ctx, codeIndexKey, shortCode, id).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !claimed {
		return nil, fmt.Errorf("%w: %s", ErrConflict, shortCode)
	}

	now := time.Now()
	link := &model.Link{
		ID:           id,
		OriginalURL:  originalURL,
		ShortCode:    shortCode,
		ShortURL:     shortURL,
		OwnerID:      ownerID,
		ClickHistory: []time.Time{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.save(ctx, link); err != nil {
		// Release the claimed code so a retry is not locked out.
		s.redis.HDel(ctx, codeIndexKey, shortCode)
		return nil, err
	}

	if err := s.redis.ZAdd(ctx, createdSetKey, &redis.Z{
		Score:  float64(now.UnixNano()),
		Member: id,
	}).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return link, nil
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (*model.Link, error) {
	data, err := s.redis.Get(ctx, linkKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var link model.Link
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("failed to decode link %s: %w", id, err)
	}
	return &link, nil
}

// Lookup resolves a short code to its record.
func (s *Store) Lookup(ctx context.Context, shortCode string) (*model.Link, error) {
	id, err := s.redis.HGet(ctx, codeIndexKey, shortCode).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, shortCode)
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	link, err := s.Get(ctx, id)
	if err != nil {
		// Stale index entry: the record is gone but the code survived.
		if isNotFound(err) {
			s.redis.HDel(ctx, codeIndexKey, shortCode)
		}
		return nil, err
	}
	return link, nil
}

// List returns all records, newest first. A non-empty ownerID restricts
// the result to that owner's links.
func (s *Store) List(ctx context.Context, ownerID string) ([]model.Link, error) {
	ids, err := s.redis.ZRevRange(ctx, createdSetKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	links := make([]model.Link, 0, len(ids))
	for _, id := range ids {
		link, err := s.Get(ctx, id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		if ownerID != "" && link.OwnerID != ownerID {
			continue
		}
		links = append(links, *link)
	}
	return links, nil
}

// Update replaces the destination URL of an existing record.
func (s *Store) Update(ctx context.Context, id, originalURL string) (*model.Link, error) {
	if originalURL == "" {
		return nil, fmt.Errorf("%w: originalUrl is required", ErrValidation)
	}

	link, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	link.OriginalURL = originalURL
	link.UpdatedAt = time.Now()
	if err := s.save(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// Delete removes a record and its index entries. Deleting an absent id is
// a no-op: the caller cannot tell the difference, so it returns (nil, nil).
func (s *Store) Delete(ctx context.Context, id string) (*model.Link, error) {
	link, err := s.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	if err := s.redis.Del(ctx, linkKeyPrefix+id).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.redis.HDel(ctx, codeIndexKey, link.ShortCode)
	s.redis.ZRem(ctx, createdSetKey, id)

	return link, nil
}

// IncrementClick appends a click timestamp and derives the counter from
// the history length, so clicks and clickHistory cannot drift apart.
func (s *Store) IncrementClick(ctx context.Context, shortCode string) (*model.Link, error) {
	link, err := s.Lookup(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	link.ClickHistory = append(link.ClickHistory, now)
	link.Clicks = len(link.ClickHistory)
	link.UpdatedAt = now

	if err := s.save(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *Store) save(ctx context.Context, link *model.Link) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to encode link %s: %w", link.ID, err)
	}
	if err := s.redis.Set(ctx, linkKeyPrefix+link.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
