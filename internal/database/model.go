package database

import (
	"time"
)

// Record is one key of the local store. Value holds the JSON document
// exactly as written; it is never parsed at this layer.
type Record struct {
	Key       string    `gorm:"primaryKey;type:text"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
