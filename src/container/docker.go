package container

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// commandFunc runs an external command and returns its combined output.
// Swapped out in tests.
type commandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// DockerCompose drives containers through the docker CLI, matching how the
// original shell workflow talked to the backend service.
type DockerCompose struct {
	// ComposeFile passed as `docker compose -f`; empty uses compose defaults.
	ComposeFile string

	run commandFunc
}

// NewDockerCompose returns a Runtime backed by the docker CLI.
func NewDockerCompose(composeFile string) *DockerCompose {
	return &DockerCompose{
		ComposeFile: composeFile,
		run:         runCommand,
	}
}

func (d *DockerCompose) composeArgs(args ...string) []string {
	out := []string{"compose"}
	if d.ComposeFile != "" {
		out = append(out, "-f", d.ComposeFile)
	}
	return append(out, args...)
}

// Exec runs a command in the service container via `docker compose exec -T`.
// -T disables TTY allocation so output capture works outside a terminal.
func (d *DockerCompose) Exec(ctx context.Context, service string, cmd ...string) ([]byte, error) {
	args := d.composeArgs(append([]string{"exec", "-T", service}, cmd...)...)

	logrus.WithFields(logrus.Fields{
		"service": service,
		"cmd":     strings.Join(cmd, " "),
	}).Debug("exec in container")

	output, err := d.run(ctx, "docker", args...)
	if err != nil {
		return output, fmt.Errorf("exec in %s failed: %w\n%s", service, err, string(output))
	}
	return output, nil
}

// CopyFrom copies containerPath of the service container to hostPath.
func (d *DockerCompose) CopyFrom(ctx context.Context, service, containerPath, hostPath string) error {
	args := d.composeArgs("cp", service+":"+containerPath, hostPath)

	logrus.WithFields(logrus.Fields{
		"service": service,
		"src":     containerPath,
		"dst":     hostPath,
	}).Debug("copy from container")

	output, err := d.run(ctx, "docker", args...)
	if err != nil {
		return fmt.Errorf("copy from %s failed: %w\n%s", service, err, string(output))
	}
	return nil
}

// Inspect resolves the service's container id and returns its inspect JSON.
func (d *DockerCompose) Inspect(ctx context.Context, service string) ([]byte, error) {
	idOut, err := d.run(ctx, "docker", d.composeArgs("ps", "-q", service)...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve container for %s: %w\n%s", service, err, string(idOut))
	}
	id := strings.TrimSpace(string(idOut))
	if id == "" {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotRunning, service)
	}
	// Multiple replicas are not a thing in this stack; take the first id.
	if i := strings.IndexByte(id, '\n'); i >= 0 {
		id = id[:i]
	}

	out, err := d.run(ctx, "docker", "inspect", id)
	if err != nil {
		return nil, fmt.Errorf("docker inspect %s failed: %w\n%s", id, err, string(out))
	}
	return out, nil
}

// EngineVersion returns the docker client version.
func (d *DockerCompose) EngineVersion(ctx context.Context) (string, error) {
	out, err := d.run(ctx, "docker", "version", "--format", "{{json .}}")
	if err != nil {
		return "", fmt.Errorf("docker version failed: %w\n%s", err, string(out))
	}
	version := gjson.GetBytes(out, "Client.Version").String()
	if version == "" {
		return "", fmt.Errorf("docker version output missing Client.Version: %s", string(out))
	}
	return version, nil
}

// CheckEngineVersion fails when the docker client is older than minVersion.
// Compose cp/exec flags used here need a reasonably recent engine.
func CheckEngineVersion(ctx context.Context, rt Runtime, minVersion string) error {
	if minVersion == "" {
		return nil
	}
	min, err := semver.NewVersion(minVersion)
	if err != nil {
		return fmt.Errorf("invalid minimum docker version %q: %w", minVersion, err)
	}

	versionStr, err := rt.EngineVersion(ctx)
	if err != nil {
		return err
	}
	current, err := semver.NewVersion(versionStr)
	if err != nil {
		return fmt.Errorf("cannot parse docker version %q: %w", versionStr, err)
	}

	if current.LessThan(min) {
		return fmt.Errorf("docker %s is too old, need at least %s", current, min)
	}
	return nil
}
