package container

import (
	"context"
	"errors"
	"os/exec"
)

// ErrServiceNotRunning is returned when the compose service has no running
// container.
var ErrServiceNotRunning = errors.New("service has no running container")

// Runtime is the boundary to the container engine. All migration and test
// operations go through it, which keeps the domain code testable with a fake.
type Runtime interface {
	// Exec runs a command inside the service container and returns its
	// combined output. A non-zero exit status is returned as an error
	// wrapping *exec.ExitError so callers can pass the code through.
	Exec(ctx context.Context, service string, cmd ...string) ([]byte, error)
	// CopyFrom copies a path from the service container to the host.
	CopyFrom(ctx context.Context, service, containerPath, hostPath string) error
	// Inspect returns the docker inspect JSON for the service container.
	Inspect(ctx context.Context, service string) ([]byte, error)
	// EngineVersion returns the docker client version string.
	EngineVersion(ctx context.Context) (string, error)
}

// ExitCode extracts the process exit code from an Exec error. Returns 0 for
// nil and -1 when the command never ran.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
