package idempotency

import (
	"errors"
	"time"

	"expense-tracker-backend/models"

	"gorm.io/gorm"
)

// ErrDuplicateKey is returned by InsertIfAbsent when a record for the key
// already exists. The guard swallows it; everyone else should not see it.
var ErrDuplicateKey = errors.New("idempotency record already exists")

// Store is the durable record store behind the guard. Uniqueness on key must
// be enforced by the store itself, not by callers.
type Store interface {
	// FindByKey returns the record for key, or nil when absent.
	FindByKey(key string) (*models.IdempotencyRecord, error)
	// InsertIfAbsent inserts rec, failing with ErrDuplicateKey when a record
	// for the same key is already present.
	InsertIfAbsent(rec *models.IdempotencyRecord) error
	// Delete removes the record for key, if any.
	Delete(key string) error
	// DeleteExpired removes every record with expires_at at or before the
	// given instant and reports how many were removed.
	DeleteExpired(before time.Time) (int64, error)
}

// GormStore persists records through GORM. Duplicate inserts surface via the
// unique index on key plus the driver's error translation.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindByKey(key string) (*models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	if err := s.db.Where("key = ?", key).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (s *GormStore) InsertIfAbsent(rec *models.IdempotencyRecord) error {
	if err := s.db.Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (s *GormStore) Delete(key string) error {
	return s.db.Where("key = ?", key).Delete(&models.IdempotencyRecord{}).Error
}

func (s *GormStore) DeleteExpired(before time.Time) (int64, error) {
	res := s.db.Where("expires_at <= ?", before).Delete(&models.IdempotencyRecord{})
	return res.RowsAffected, res.Error
}

var _ Store = (*GormStore)(nil)
