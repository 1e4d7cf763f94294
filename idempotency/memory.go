package idempotency

import (
	"sync"
	"time"

	"expense-tracker-backend/models"
)

// MemoryStore keeps records in a mutex-guarded map. It exists so tests can
// run the guard without a database.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]models.IdempotencyRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]models.IdempotencyRecord)}
}

func (s *MemoryStore) FindByKey(key string) (*models.IdempotencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) InsertIfAbsent(rec *models.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[rec.Key]; ok {
		return ErrDuplicateKey
	}
	s.recs[rec.Key] = *rec
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, key)
	return nil
}

func (s *MemoryStore) DeleteExpired(before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, rec := range s.recs {
		if !rec.ExpiresAt.After(before) {
			delete(s.recs, key)
			n++
		}
	}
	return n, nil
}

var _ Store = (*MemoryStore)(nil)
