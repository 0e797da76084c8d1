package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// ErrWaitTimeout is returned when a service does not become healthy in time.
var ErrWaitTimeout = errors.New("timed out waiting for service to become healthy")

// HealthStatus is the docker health state of a service container.
type HealthStatus string

const (
	HealthStarting  HealthStatus = "starting"
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
	// HealthNone means the container defines no healthcheck; running counts
	// as ready then.
	HealthNone HealthStatus = "none"
)

// ServiceHealth reads the health state from the service's inspect JSON.
func ServiceHealth(ctx context.Context, rt Runtime, service string) (HealthStatus, error) {
	out, err := rt.Inspect(ctx, service)
	if err != nil {
		return "", err
	}

	health := gjson.GetBytes(out, "0.State.Health.Status")
	if health.Exists() {
		return HealthStatus(health.String()), nil
	}
	if gjson.GetBytes(out, "0.State.Running").Bool() {
		return HealthNone, nil
	}
	return "", fmt.Errorf("%w: %s", ErrServiceNotRunning, service)
}

// WaitHealthy polls the service until it is healthy or the timeout elapses.
// The original CI workflow polled with no upper bound; here the timeout is
// part of the contract and elapsing it is an error.
func WaitHealthy(ctx context.Context, rt Runtime, service string, interval, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger := logrus.WithFields(logrus.Fields{
		"service": service,
		"timeout": timeout.String(),
	})
	logger.Info("waiting for service to become healthy")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := ServiceHealth(ctx, rt, service)
		switch {
		case err != nil && ctx.Err() == nil:
			// Containers restarting mid-poll produce transient inspect
			// errors; keep polling until the deadline decides.
			logger.WithError(err).Debug("health probe failed")
		case status == HealthHealthy || status == HealthNone:
			logger.WithField("status", string(status)).Info("service is ready")
			return nil
		case status == HealthUnhealthy:
			logger.Warn("service reports unhealthy")
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s after %s", ErrWaitTimeout, service, timeout)
		case <-ticker.C:
		}
	}
}
