// Package tokens keeps the API keys accepted by the service and their
// per-key rate limits.
package tokens

import "sync"

// Store is an in-memory token cache. A nil cache means nothing has been
// loaded yet.
type Store struct {
	mu    sync.RWMutex
	cache map[string]int
}

// NewStore returns an empty, not yet ready, store.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps the cached tokens for a copy of m.
func (s *Store) Replace(m map[string]int) {
	cache := make(map[string]int, len(m))
	for k, v := range m {
		cache[k] = v
	}
	s.mu.Lock()
	s.cache = cache
	s.mu.Unlock()
}

// Ready reports whether tokens have been loaded at least once.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache != nil
}

// Validate checks whether token is known.
func (s *Store) Validate(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cache[token]
	return ok
}

// RateLimit returns the configured limit for token. Unknown tokens get 0,
// which disables token rate limiting for them.
func (s *Store) RateLimit(token string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache[token]
}
