package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fotoforge/pkg/logger"
)

func openTemp(t *testing.T) (string, func()) {
	t.Helper()
	logger.SetOutput(&strings.Builder{})
	path := filepath.Join(t.TempDir(), "nested", "store.db")
	return path, func() { logger.SetOutput(os.Stdout) }
}

func TestOpen_CreatesDirectoryAndTable(t *testing.T) {
	path, restore := openTemp(t)
	defer restore()

	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, db.Create(&Record{Key: "k", Value: `{"a":1}`}).Error)

	var got Record
	require.NoError(t, db.First(&got, "key = ?", "k").Error)
	assert.Equal(t, `{"a":1}`, got.Value)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestCleaner_BelowLimitDoesNothing(t *testing.T) {
	path, restore := openTemp(t)
	defer restore()

	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	c := NewCleaner(db, path, "1GB", time.Minute)
	assert.False(t, c.CheckAndVacuum(context.Background()))
}

func TestCleaner_VacuumsBloatedFile(t *testing.T) {
	path, restore := openTemp(t)
	defer restore()

	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	big := strings.Repeat("x", 256*1024)
	for i := 0; i < 8; i++ {
		require.NoError(t, db.Create(&Record{Key: string(rune('a' + i)), Value: big}).Error)
	}
	require.NoError(t, db.Exec("PRAGMA wal_checkpoint(TRUNCATE);").Error)
	require.NoError(t, db.Where("1 = 1").Delete(&Record{}).Error)
	require.NoError(t, db.Exec("PRAGMA wal_checkpoint(TRUNCATE);").Error)

	c := NewCleaner(db, path, "1KB", time.Minute)
	assert.True(t, c.CheckAndVacuum(context.Background()))
}

func TestCheckpointWAL_FailureIsLogged(t *testing.T) {
	path, restore := openTemp(t)
	defer restore()

	db, err := Open(path)
	require.NoError(t, err)
	assert.True(t, checkpointWAL(db))
	require.NoError(t, Close(db))

	var logs strings.Builder
	logger.SetOutput(&logs)

	assert.False(t, checkpointWAL(db))
	assert.Contains(t, logs.String(), "[WARN]")
	assert.Contains(t, logs.String(), "WAL checkpoint failed")
}

func TestSnapshot_CopiesRecords(t *testing.T) {
	path, restore := openTemp(t)
	defer restore()

	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, db.Create(&Record{Key: "ffv2_users", Value: `[]`}).Error)

	dest := filepath.Join(t.TempDir(), "backup", "copy.db")
	require.NoError(t, Snapshot(context.Background(), db, dest))

	copyDB, err := Open(dest)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(copyDB) })

	var got Record
	require.NoError(t, copyDB.First(&got, "key = ?", "ffv2_users").Error)
	assert.Equal(t, `[]`, got.Value)
}

func TestSnapshot_ExistingDestinationFails(t *testing.T) {
	path, restore := openTemp(t)
	defer restore()

	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	dest := filepath.Join(t.TempDir(), "taken.db")
	require.NoError(t, os.WriteFile(dest, []byte("not empty"), 0o600))
	assert.Error(t, Snapshot(context.Background(), db, dest))
}
