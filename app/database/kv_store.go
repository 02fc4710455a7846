package database

import (
	"EstoqueApp/app/models"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVStore is the flat string-by-key persistence substrate
type KVStore interface {
	// Get returns the value for key and whether it exists
	Get(key string) (string, bool, error)
	// SetMany overwrites all given keys as one unit
	SetMany(values map[string]string) error
}

// GormKVStore stores entries in the kv_entries table
type GormKVStore struct {
	db *gorm.DB
}

// NewGormKVStore creates a key/value store on db
func NewGormKVStore(db *gorm.DB) *GormKVStore {
	return &GormKVStore{db: db}
}

// Get reads a single key
func (s *GormKVStore) Get(key string) (string, bool, error) {
	if s.db == nil {
		return "", false, fmt.Errorf("database not initialized")
	}

	var entry models.KVEntry
	err := s.db.Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return entry.Value, true, nil
}

// SetMany upserts every key inside one transaction
func (s *GormKVStore) SetMany(values map[string]string) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	// Stable order keeps lock acquisition deterministic on Postgres
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := time.Now().UTC()
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, key := range keys {
			entry := models.KVEntry{Key: key, Value: values[key], UpdatedAt: now}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&entry).Error
			if err != nil {
				return fmt.Errorf("failed to write key %q: %w", key, err)
			}
		}
		return nil
	})
}

// Keys lists the stored keys
func (s *GormKVStore) Keys() ([]string, error) {
	var keys []string
	err := s.db.Model(&models.KVEntry{}).Order("key").Pluck("key", &keys).Error
	return keys, err
}
