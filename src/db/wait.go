package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/sashakt-platform/sashakt-ops/src/configs"
)

// ErrWaitTimeout is returned when the database does not accept connections
// within the configured timeout.
var ErrWaitTimeout = errors.New("timed out waiting for database")

type pingFunc func(ctx context.Context, dsn string) error

func pingPostgres(ctx context.Context, dsn string) error {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.PingContext(ctx)
}

// Waiter polls the backend database until it accepts connections. The CI
// pipeline previously looped on a health check with no upper bound; the wait
// here is bounded so a database that never comes up fails the pipeline
// instead of hanging it.
type Waiter struct {
	cfg *configs.Database

	ping pingFunc
}

func NewWaiter(cfg *configs.Database) *Waiter {
	return &Waiter{cfg: cfg, ping: pingPostgres}
}

// Wait blocks until a connection ping succeeds or the timeout elapses.
func (w *Waiter) Wait(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.WaitTimeout)
	defer cancel()

	logger := logrus.WithFields(logrus.Fields{
		"host":    w.cfg.Host,
		"port":    w.cfg.Port,
		"timeout": w.cfg.WaitTimeout.String(),
	})
	logger.Info("waiting for database to accept connections")

	ticker := time.NewTicker(w.cfg.WaitInterval)
	defer ticker.Stop()

	attempts := 0
	for {
		attempts++
		if err := w.ping(ctx, w.cfg.DSN()); err == nil {
			logger.WithField("attempts", attempts).Info("database is ready")
			return nil
		} else if ctx.Err() == nil {
			logger.WithError(err).Debug("database not ready yet")
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s:%d after %s",
				ErrWaitTimeout, w.cfg.Host, w.cfg.Port, w.cfg.WaitTimeout)
		case <-ticker.C:
		}
	}
}
