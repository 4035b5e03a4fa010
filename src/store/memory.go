package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/username/tradeops/backend/src/listing"
)

type collection struct {
	records []listing.Record
	used    map[string]struct{}
}

// MemoryStore keeps each entity as an ordered slice guarded by one mutex.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*collection)}
}

func (s *MemoryStore) get(entity string) *collection {
	c, ok := s.collections[entity]
	if !ok {
		c = &collection{used: make(map[string]struct{})}
		s.collections[entity] = c
	}
	return c
}

func (c *collection) index(id string) int {
	for i, r := range c.records {
		if r.ID() == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) List(ctx context.Context, entity string) ([]listing.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[entity]
	if !ok {
		return []listing.Record{}, nil
	}
	return listing.CloneAll(c.records), nil
}

func (s *MemoryStore) GetByID(ctx context.Context, entity, id string) (listing.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[entity]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	i := c.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return c.records[i].Clone(), nil
}

func (s *MemoryStore) Insert(ctx context.Context, entity string, record listing.Record) (listing.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, id := prepareInsert(record)

	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.get(entity)
	if _, taken := c.used[id]; taken {
		return nil, fmt.Errorf("%s %s: %w", entity, id, ErrDuplicateID)
	}
	c.used[id] = struct{}{}
	c.records = append(c.records, r)
	return r.Clone(), nil
}

func (s *MemoryStore) UpdateByID(ctx context.Context, entity, id string, patch listing.Record) (listing.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[entity]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	i := c.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	c.records[i] = merge(c.records[i], patch)
	return c.records[i].Clone(), nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, entity, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[entity]
	if !ok {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	c.records = append(c.records[:i:i], c.records[i+1:]...)
	return nil
}

func (s *MemoryStore) Count(ctx context.Context, entity string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[entity]
	if !ok {
		return 0, nil
	}
	return len(c.records), nil
}

func (s *MemoryStore) Trim(ctx context.Context, entity string, max int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if max < 0 {
		max = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[entity]
	if !ok || len(c.records) <= max {
		return 0, nil
	}
	drop := len(c.records) - max
	c.records = append([]listing.Record(nil), c.records[drop:]...)
	return drop, nil
}
