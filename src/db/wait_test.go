package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sashakt-platform/sashakt-ops/src/configs"
)

func testDatabaseConfig(timeout time.Duration) *configs.Database {
	return &configs.Database{
		Host:         "localhost",
		Port:         5432,
		User:         "postgres",
		Name:         "app",
		WaitInterval: time.Millisecond,
		WaitTimeout:  timeout,
	}
}

func TestWaitSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	w := NewWaiter(testDatabaseConfig(time.Second))
	w.ping = func(ctx context.Context, dsn string) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	err := w.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWaitTimesOut(t *testing.T) {
	w := NewWaiter(testDatabaseConfig(30 * time.Millisecond))
	w.ping = func(ctx context.Context, dsn string) error {
		return errors.New("connection refused")
	}

	start := time.Now()
	err := w.Wait(context.Background())
	assert.ErrorIs(t, err, ErrWaitTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWaitUsesConfiguredDSN(t *testing.T) {
	var seen string
	w := NewWaiter(testDatabaseConfig(time.Second))
	w.ping = func(ctx context.Context, dsn string) error {
		seen = dsn
		return nil
	}

	require.NoError(t, w.Wait(context.Background()))
	assert.Contains(t, seen, "host=localhost")
	assert.Contains(t, seen, "port=5432")
	assert.Contains(t, seen, "dbname=app")
	assert.Contains(t, seen, "sslmode=disable")
}

func TestWaitHonorsCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWaiter(testDatabaseConfig(time.Minute))
	w.ping = func(ctx context.Context, dsn string) error {
		return ctx.Err()
	}

	err := w.Wait(ctx)
	assert.Error(t, err)
}
