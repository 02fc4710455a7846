package models

import (
	"time"
)

// KVEntry is one named value of the flat key/value persistence layer
type KVEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"` // JSON-encoded collection
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for KVEntry
func (KVEntry) TableName() string {
	return "kv_entries"
}
