package database

import (
	"context"
	"os"
	"time"

	"gorm.io/gorm"

	"fotoforge/pkg/logger"
	"fotoforge/pkg/utils"
)

/*
Storage maintenance

Every mutation of the project collection rewrites the whole JSON document of
one key, so the SQLite file accumulates free pages quickly when images are
large. SQLite reuses them for later writes, so the file is only rebuilt when:

  - the physical size (file + WAL) is above the configured limit, and
  - more than half of it is free pages.

The WAL is checkpointed first so VACUUM sees every committed write.
*/

// Cleaner periodically reclaims free pages in the store file.
type Cleaner struct {
	db       *gorm.DB
	path     string
	limit    int64
	interval time.Duration
}

func NewCleaner(db *gorm.DB, path, maxSize string, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Cleaner{
		db:       db,
		path:     path,
		limit:    utils.SizeToBytes(maxSize, 512*1024*1024),
		interval: interval,
	}
}

// Run blocks until ctx is cancelled. It checks once immediately.
func (c *Cleaner) Run(ctx context.Context) {
	logger.LogInfo("Storage Cleaner started. Limit: %s, Interval: %s", utils.FormatBytes(c.limit), c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.CheckAndVacuum(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAndVacuum(ctx)
		}
	}
}

// CheckAndVacuum reports whether a VACUUM ran.
func (c *Cleaner) CheckAndVacuum(ctx context.Context) bool {
	fileInfo, err := os.Stat(c.path)
	if err != nil {
		logger.LogError("Cleaner failed to stat DB file: %v", err)
		return false
	}

	physicalSize := fileInfo.Size()
	if walInfo, err := os.Stat(c.path + "-wal"); err == nil {
		physicalSize += walInfo.Size()
	}

	if physicalSize < c.limit {
		return false
	}

	var pageSize, freePages int64
	db := c.db.WithContext(ctx)
	if err := db.Raw("PRAGMA page_size").Row().Scan(&pageSize); err != nil {
		logger.LogError("Failed to read page size: %v", err)
		return false
	}
	if err := db.Raw("PRAGMA freelist_count").Row().Scan(&freePages); err != nil {
		logger.LogError("Failed to read freelist: %v", err)
		return false
	}

	emptySpace := pageSize * freePages

	logger.LogInfo("Storage Analysis - Phys: %s | Free: %s",
		utils.FormatBytes(physicalSize),
		utils.FormatBytes(emptySpace))

	if float64(emptySpace) <= float64(physicalSize)*0.50 {
		logger.LogWarn("Store is above %s but mostly live data; nothing to reclaim.", utils.FormatBytes(c.limit))
		return false
	}

	logger.LogWarn("Store is bloated (>50%% free pages). Starting VACUUM...")

	checkpointWAL(db)

	startTime := time.Now()
	if err := db.Exec("VACUUM;").Error; err != nil {
		logger.LogError("VACUUM failed: %v", err)
		return false
	}

	logger.LogInfo("VACUUM completed in %v. Disk space reclaimed.", time.Since(startTime))
	return true
}

// checkpointWAL folds the WAL into the main file. A failure is not fatal:
// VACUUM still runs, it just may leave some pages behind.
func checkpointWAL(db *gorm.DB) bool {
	if err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE);").Error; err != nil {
		logger.LogWarn("WAL checkpoint failed, vacuuming anyway: %v", err)
		return false
	}
	return true
}
