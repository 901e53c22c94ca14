package storage

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLitePort(t *testing.T) *SQLitePort {
	t.Helper()
	logger := zerolog.New(io.Discard)
	path := filepath.Join(t.TempDir(), "trimtime.db")
	port, err := NewSQLitePort(path, "trimtime:bookings", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = port.Close() })
	return port
}

func TestSQLitePortReadWrite(t *testing.T) {
	port := newTestSQLitePort(t)
	ctx := context.Background()

	data, err := port.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, data, "missing key reads as no value")

	require.NoError(t, port.Write(ctx, []byte(`[{"id":"b1"}]`)))

	data, err = port.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"b1"}]`, string(data))

	// Whole-value replace.
	require.NoError(t, port.Write(ctx, []byte(`[]`)))
	data, err = port.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestSQLitePortVersionTracking(t *testing.T) {
	port := newTestSQLitePort(t)
	ctx := context.Background()

	require.NoError(t, port.Write(ctx, []byte(`a`)))
	require.NoError(t, port.Write(ctx, []byte(`b`)))

	assert.Equal(t, int64(2), port.currentVersion(ctx))
	assert.Equal(t, int64(2), port.lastOwn)
}

func TestSQLitePortForeignWriteNotifiesSubscribers(t *testing.T) {
	logger := zerolog.New(io.Discard)
	path := filepath.Join(t.TempDir(), "trimtime.db")
	ctx := context.Background()

	watcher, err := NewSQLitePort(path, "trimtime:bookings", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = watcher.Close() })
	watcher.pollEvery = 10 * time.Millisecond

	writer, err := NewSQLitePort(path, "trimtime:bookings", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	changed := make(chan struct{}, 2)
	watcher.Subscribe(func() { changed <- struct{}{} })
	watcher.Subscribe(func() { changed <- struct{}{} })

	require.NoError(t, writer.Write(ctx, []byte(`[{"id":"b1"}]`)))

	// Both subscribers fire once the poller sees the foreign version.
	for i := 0; i < 2; i++ {
		select {
		case <-changed:
		case <-time.After(2 * time.Second):
			t.Fatal("change signal not delivered")
		}
	}
}

func TestSQLitePortPing(t *testing.T) {
	port := newTestSQLitePort(t)
	assert.NoError(t, port.Ping(context.Background()))
}
