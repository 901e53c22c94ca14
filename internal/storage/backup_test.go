package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupSnapshot(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "bookings.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("payload"), 0o644))

	logger := zerolog.Nop()
	b := NewBackup(dbPath, BackupPolicy{Dir: filepath.Join(dir, "backups")}, &logger)

	path, err := b.Snapshot()
	require.NoError(t, err)

	copied, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), copied)
}

func TestBackupSnapshotMissingDatabase(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.Nop()
	b := NewBackup(filepath.Join(dir, "absent.db"), BackupPolicy{Dir: filepath.Join(dir, "backups")}, &logger)

	_, err := b.Snapshot()
	require.Error(t, err)
}

func TestBackupPrune(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "bookings.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("payload"), 0o644))

	backupDir := filepath.Join(dir, "backups")
	require.NoError(t, os.MkdirAll(backupDir, 0o755))

	old := filepath.Join(backupDir, "bookings_20200101_000000.db")
	require.NoError(t, os.WriteFile(old, []byte("stale"), 0o644))
	past := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, past, past))

	logger := zerolog.Nop()
	b := NewBackup(dbPath, BackupPolicy{Dir: backupDir, RetentionDays: 14}, &logger)

	fresh, err := b.Snapshot()
	require.NoError(t, err)

	b.prune()

	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err), "old backup should be pruned")
	_, err = os.Stat(fresh)
	assert.NoError(t, err, "fresh backup should survive")
}
