package session

import (
	"strings"
	"sync"
	"time"

	"github.com/reservasegura/monitor/internal/model"
)

// Store is the process-wide session map keyed by (airline, email). Expiry
// is enforced on every read, not by a separate sweep: an expired bundle is
// evicted and reported absent, identical to one that never existed.
type Store struct {
	mu      sync.Mutex
	bundles map[string]*model.SessionBundle
	now     func() time.Time
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		bundles: make(map[string]*model.SessionBundle),
		now:     time.Now,
	}
}

func key(airline, email string) string {
	return strings.ToUpper(airline) + ":" + strings.ToLower(email)
}

// Put stores a bundle, unconditionally overwriting any previous session
// for the same (airline, email) key.
func (s *Store) Put(b *model.SessionBundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[key(b.Airline, b.AccountEmail)] = b
}

// Get returns the live bundle for the key, or absent. Bundles past their
// expiry are evicted and never returned.
func (s *Store) Get(airline, email string) (*model.SessionBundle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(airline, email)
	b, ok := s.bundles[k]
	if !ok {
		return nil, false
	}
	if !b.Valid(s.now()) {
		delete(s.bundles, k)
		return nil, false
	}
	return b, true
}

// Invalidate drops a bundle regardless of its expiry.
func (s *Store) Invalidate(airline, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bundles, key(airline, email))
}
