package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/iota-uz/onboarding/modules/stepper/domain/draft"
)

type SafeMap[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func NewSafeMap[K comparable, V any]() *SafeMap[K, V] {
	return &SafeMap[K, V]{
		m: make(map[K]V),
	}
}

func (s *SafeMap[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

func (s *SafeMap[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, found := s.m[key]
	return val, found
}

func (s *SafeMap[K, V]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

type storedDraft struct {
	data      []byte
	expiresAt time.Time
}

// InmemDraftRepository keeps drafts in process. Entries are encoded like the
// Redis ones so both stores hand out independent copies.
type InmemDraftRepository struct {
	storage *SafeMap[string, storedDraft]
	ttl     time.Duration
	now     func() time.Time
}

func NewInmemDraftRepository(ttl time.Duration, now func() time.Time) *InmemDraftRepository {
	if now == nil {
		now = time.Now
	}
	return &InmemDraftRepository{storage: NewSafeMap[string, storedDraft](), ttl: ttl, now: now}
}

func (r *InmemDraftRepository) Get(_ context.Context, key string) (draft.Draft, bool, error) {
	stored, ok := r.storage.Get(key)
	if !ok {
		return draft.Draft{}, false, nil
	}
	if !stored.expiresAt.IsZero() && !r.now().Before(stored.expiresAt) {
		r.storage.Delete(key)
		return draft.Draft{}, false, nil
	}
	d, err := decodeDraft(stored.data)
	if err != nil {
		return draft.Draft{}, false, err
	}
	return d, true, nil
}

func (r *InmemDraftRepository) Save(_ context.Context, d draft.Draft) error {
	data, err := encodeDraft(d)
	if err != nil {
		return err
	}
	stored := storedDraft{data: data}
	if r.ttl > 0 {
		stored.expiresAt = r.now().Add(r.ttl)
	}
	r.storage.Set(d.Key, stored)
	return nil
}

func (r *InmemDraftRepository) Delete(_ context.Context, key string) error {
	r.storage.Delete(key)
	return nil
}
