package oauth

import (
	"context"
	"sync"
	"time"
)

type exchangeEntry struct {
	verifier  string
	expiresAt time.Time
}

// ExchangeStore holds pending PKCE verifiers between the OAuth initiation
// redirect and its callback, keyed by a one-time session id.
//
// The store lives in process memory: it is not durable and not shared
// across horizontally-scaled instances. A callback handled by a different
// instance than the one that started the flow will fail verification.
type ExchangeStore struct {
	mu      sync.Mutex
	entries map[string]exchangeEntry
	ttl     time.Duration
	clock   func() time.Time
}

// NewExchangeStore builds an empty store whose entries expire after ttl.
func NewExchangeStore(ttl time.Duration) *ExchangeStore {
	return &ExchangeStore{
		entries: make(map[string]exchangeEntry),
		ttl:     ttl,
		clock:   time.Now,
	}
}

// Create stores verifier under a fresh random session id and returns the id.
func (s *ExchangeStore) Create(verifier string) (string, error) {
	sessionID, err := randomHex(16)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = exchangeEntry{
		verifier:  verifier,
		expiresAt: s.clock().Add(s.ttl),
	}
	return sessionID, nil
}

// Lookup returns the verifier for sessionID, or "" when the id is unknown
// or its entry has expired. Expired entries are evicted on lookup, so an
// entry past its expiry is unusable even before the next sweep.
func (s *ExchangeStore) Lookup(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[sessionID]
	if !ok {
		return ""
	}
	if !entry.expiresAt.After(s.clock()) {
		delete(s.entries, sessionID)
		return ""
	}
	return entry.verifier
}

// Consume is Lookup plus removal: each pending exchange is single-use.
func (s *ExchangeStore) Consume(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[sessionID]
	if !ok {
		return ""
	}
	delete(s.entries, sessionID)
	if !entry.expiresAt.After(s.clock()) {
		return ""
	}
	return entry.verifier
}

// Sweep removes all entries whose expiry has passed.
func (s *ExchangeStore) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sessionID, entry := range s.entries {
		if !entry.expiresAt.After(now) {
			delete(s.entries, sessionID)
		}
	}
}

// Len reports the number of live plus not-yet-swept entries.
func (s *ExchangeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartSweep runs Sweep every interval until ctx ends.
//
// The timer is owned by the caller's context rather than started at import
// time, so shutdown cancels it deterministically.
func (s *ExchangeStore) StartSweep(ctx context.Context, interval time.Duration) {
	if s == nil || interval <= 0 {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(s.clock())
			}
		}
	}()
}
