// src/services/list_sessions.go
package services

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/tradeops/backend/src/listing"
)

const DefaultListSessionTTL = 30 * time.Minute

// ListSessions keeps one list controller per admin and entity, so the
// filter, sort and page state of a view survives between requests.
// Idle controllers expire and are closed.
type ListSessions struct {
	mu          sync.Mutex
	cache       *cache.Cache
	searchDelay time.Duration
}

func NewListSessions(ttl, searchDelay time.Duration) *ListSessions {
	if ttl <= 0 {
		ttl = DefaultListSessionTTL
	}
	c := cache.New(ttl, ttl)
	c.OnEvicted(func(_ string, v any) {
		if ctrl, ok := v.(*listing.Controller); ok {
			ctrl.Close()
		}
	})
	return &ListSessions{cache: c, searchDelay: searchDelay}
}

func sessionKey(subject, entity string) string {
	return subject + ":" + entity
}

// Get returns the controller of subject for view, creating it on first use.
// Every call extends the session.
func (s *ListSessions) Get(subject string, view *listing.View) *listing.Controller {
	key := sessionKey(subject, view.Name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, found := s.cache.Get(key); found {
		ctrl := v.(*listing.Controller)
		s.cache.SetDefault(key, ctrl)
		return ctrl
	}
	ctrl := listing.NewController(view, s.searchDelay)
	s.cache.SetDefault(key, ctrl)
	return ctrl
}

// Drop ends the session of subject on entity.
func (s *ListSessions) Drop(subject, entity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(sessionKey(subject, entity))
}

func (s *ListSessions) Len() int {
	return s.cache.ItemCount()
}

// Close ends every session.
func (s *ListSessions) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.cache.Items() {
		s.cache.Delete(key)
	}
}
