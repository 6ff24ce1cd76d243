package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperless/internal/model"
)

func TestConnect_SQLiteMigrates(t *testing.T) {
	conn, err := Connect(context.Background(), Options{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))

	assert.True(t, conn.Migrator().HasTable(&model.User{}))
	assert.True(t, conn.Migrator().HasTable(&model.Document{}))
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(context.Background(), Options{Driver: "oracle"})
	assert.Error(t, err)
}

func TestConnect_GivesUpAfterRetries(t *testing.T) {
	start := time.Now()
	_, err := Connect(context.Background(), Options{
		Driver:  "mysql",
		DSN:     "user:pass@tcp(127.0.0.1:1)/none?timeout=50ms",
		Retries: 2,
		Backoff: 10 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestConnect_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Connect(ctx, Options{
		Driver:  "mysql",
		DSN:     "user:pass@tcp(127.0.0.1:1)/none?timeout=50ms",
		Retries: 5,
		Backoff: time.Hour,
	})
	assert.ErrorIs(t, err, context.Canceled)
}
