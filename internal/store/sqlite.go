package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fotoforge/internal/database"
	"fotoforge/pkg/logger"
)

// SQLiteStore keeps every key as one row of the records table.
type SQLiteStore struct {
	db *gorm.DB
}

func NewSQLiteStore(db *gorm.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) json.RawMessage {
	var rec database.Record
	err := s.db.WithContext(ctx).Select("value").First(&rec, "key = ?", key).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.LogError("Store read failed for %q: %v", key, err)
		}
		return nil
	}
	return validate(key, []byte(rec.Value))
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value any) error {
	data, err := marshal(key, value)
	if err != nil {
		return err
	}

	rec := database.Record{Key: key, Value: string(data)}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&database.Record{}).Error; err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}
