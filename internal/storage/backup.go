package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// BackupPolicy controls the snapshot schedule for file-backed storage.
type BackupPolicy struct {
	Dir           string
	RetentionDays int
	Interval      time.Duration
}

// Backup copies the database file aside on a fixed interval. SQLite in WAL
// mode keeps the main file consistent enough for a cold copy of a mostly
// idle single-operator database.
type Backup struct {
	dbPath string
	policy BackupPolicy
	logger *zerolog.Logger
}

// NewBackup creates a backup runner for the given database file.
func NewBackup(dbPath string, policy BackupPolicy, logger *zerolog.Logger) *Backup {
	if policy.Interval <= 0 {
		policy.Interval = 24 * time.Hour
	}
	return &Backup{dbPath: dbPath, policy: policy, logger: logger}
}

// Run snapshots immediately, then on every tick until done closes.
func (b *Backup) Run(done <-chan struct{}) {
	b.logger.Info().Str("dir", b.policy.Dir).Dur("interval", b.policy.Interval).Msg("backup runner started")

	if _, err := b.Snapshot(); err != nil {
		b.logger.Error().Err(err).Msg("initial backup failed")
	}

	ticker := time.NewTicker(b.policy.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if _, err := b.Snapshot(); err != nil {
				b.logger.Error().Err(err).Msg("scheduled backup failed")
			}
			b.prune()
		}
	}
}

// Snapshot copies the database file into the backup directory and returns
// the written path.
func (b *Backup) Snapshot() (string, error) {
	if err := os.MkdirAll(b.policy.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("bookings_%s.db", time.Now().Format("20060102_150405"))
	dst := filepath.Join(b.policy.Dir, name)

	src, err := os.Open(b.dbPath)
	if err != nil {
		return "", fmt.Errorf("open database: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("copy database: %w", err)
	}

	b.logger.Info().Str("path", dst).Msg("backup written")
	return dst, nil
}

// prune deletes backups older than the retention window.
func (b *Backup) prune() {
	if b.policy.RetentionDays <= 0 {
		return
	}

	entries, err := os.ReadDir(b.policy.Dir)
	if err != nil {
		b.logger.Error().Err(err).Msg("read backup dir failed")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -b.policy.RetentionDays)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			b.logger.Info().Str("file", entry.Name()).Msg("pruning old backup")
			_ = os.Remove(filepath.Join(b.policy.Dir, entry.Name()))
		}
	}
}
