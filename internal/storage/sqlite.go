package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

const defaultPollInterval = 2 * time.Second

// SQLitePort stores the collection as a single row in a key-value table.
// Cross-context change detection works by polling the row version: every
// write bumps it, and a poller fires the change signal when it observes a
// version this process did not write.
type SQLitePort struct {
	db     *sql.DB
	key    string
	logger *zerolog.Logger

	mu          sync.Mutex
	subscribers []func()
	lastOwn     int64
	pollEvery   time.Duration
	cancelPoll  context.CancelFunc
	closed      bool
}

// NewSQLitePort opens (or creates) the database at path and prepares the
// kv table. The key addresses the booking collection row.
func NewSQLitePort(path, key string, logger *zerolog.Logger) (*SQLitePort, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	p := &SQLitePort{
		db:        db,
		key:       key,
		logger:    logger,
		pollEvery: defaultPollInterval,
	}

	if err := p.createTables(); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	logger.Info().Str("path", path).Str("key", key).Msg("sqlite storage initialized")
	return p, nil
}

func (p *SQLitePort) createTables() error {
	_, err := p.db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func (p *SQLitePort) Read(ctx context.Context) ([]byte, error) {
	var value string
	err := p.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", p.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.key, err)
	}
	return []byte(value), nil
}

func (p *SQLitePort) Write(ctx context.Context, data []byte) error {
	row := p.db.QueryRowContext(ctx, `
		INSERT INTO kv (key, value, version, updated_at)
		VALUES (?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			version = kv.version + 1,
			updated_at = excluded.updated_at
		RETURNING version`,
		p.key, string(data),
	)

	var version int64
	if err := row.Scan(&version); err != nil {
		return fmt.Errorf("write %s: %w", p.key, err)
	}

	p.mu.Lock()
	p.lastOwn = version
	p.mu.Unlock()
	return nil
}

// Subscribe starts the version poller on first use.
func (p *SQLitePort) Subscribe(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)

	if p.cancelPoll == nil && !p.closed {
		ctx, cancel := context.WithCancel(context.Background())
		p.cancelPoll = cancel
		go p.poll(ctx)
	}
}

func (p *SQLitePort) poll(ctx context.Context) {
	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	lastSeen := p.currentVersion(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v := p.currentVersion(ctx)
			if v == lastSeen {
				continue
			}
			lastSeen = v

			p.mu.Lock()
			own := v == p.lastOwn
			subs := make([]func(), len(p.subscribers))
			copy(subs, p.subscribers)
			p.mu.Unlock()
			if own {
				continue
			}
			for _, fn := range subs {
				fn()
			}
		}
	}
}

func (p *SQLitePort) currentVersion(ctx context.Context) int64 {
	var v int64
	err := p.db.QueryRowContext(ctx, "SELECT version FROM kv WHERE key = ?", p.key).Scan(&v)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		p.logger.Debug().Err(err).Msg("version poll failed")
	}
	return v
}

// Ping reports whether the database is reachable.
func (p *SQLitePort) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *SQLitePort) Close() error {
	p.mu.Lock()
	if p.cancelPoll != nil {
		p.cancelPoll()
		p.cancelPoll = nil
	}
	p.closed = true
	p.mu.Unlock()
	return p.db.Close()
}
