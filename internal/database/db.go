package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"fotoforge/pkg/logger"
)

// Open initializes the SQLite connection with performance-tuned settings (WAL mode)
// and migrates the record table.
func Open(dbPath string) (*gorm.DB, error) {
	if err := ensureDir(dbPath); err != nil {
		return nil, fmt.Errorf("failed to ensure database directory: %w", err)
	}

	// busy_timeout makes the driver wait for the lock instead of failing immediately.
	dsn := fmt.Sprintf(
		"%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_cache_size=-20000",
		dbPath,
	)

	gormConfig := &gorm.Config{
		Logger:                 gormLogger.Default.LogMode(gormLogger.Silent),
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := configurePool(db); err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	logger.LogInfo("Database initialized at %s", dbPath)
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0750)
	}
	return nil
}

func configurePool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve generic database interface: %w", err)
	}

	// One writer on one file.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)
	return nil
}

// Snapshot writes a consistent copy of the database to dest with VACUUM INTO.
// dest must not exist.
func Snapshot(ctx context.Context, db *gorm.DB, dest string) error {
	if err := ensureDir(dest); err != nil {
		return err
	}
	if err := db.WithContext(ctx).Exec("VACUUM INTO ?", dest).Error; err != nil {
		return fmt.Errorf("snapshot to %s failed: %w", dest, err)
	}
	return nil
}
