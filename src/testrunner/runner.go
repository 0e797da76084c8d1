package testrunner

import (
	"context"
	"path"

	"github.com/sirupsen/logrus"

	"github.com/sashakt-platform/sashakt-ops/src/configs"
	"github.com/sashakt-platform/sashakt-ops/src/container"
)

// DefaultLabel names the exported coverage artifact when no label is given.
const DefaultLabel = "coverage"

// Result is the outcome of one test run.
type Result struct {
	// ExitCode is the test suite's own exit code, passed through unchanged.
	ExitCode int
	// Output is the combined pytest output.
	Output string
	// Report is the human-readable coverage report.
	Report string
	// ArtifactPath is the host path of the exported XML coverage report,
	// empty when the export failed.
	ArtifactPath string
}

// Passed reports whether the suite exited cleanly.
func (r *Result) Passed() bool {
	return r.ExitCode == 0
}

// Runner executes the backend test suite under coverage inside the container
// and exports the coverage report to the host.
type Runner struct {
	rt  container.Runtime
	cfg *configs.Config
}

func NewRunner(rt container.Runtime, cfg *configs.Config) *Runner {
	return &Runner{rt: rt, cfg: cfg}
}

// Run executes the suite once under coverage, then derives both report forms
// from the same coverage data. Reports are still produced when tests fail:
// a red suite with coverage numbers beats a red suite without them. The
// returned error is non-nil only when the runner itself broke, not when
// tests failed; check Result.ExitCode for that.
func (r *Runner) Run(ctx context.Context, label string) (*Result, error) {
	if label == "" {
		label = DefaultLabel
	}
	service := r.cfg.Backend.Service
	logger := logrus.WithFields(logrus.Fields{
		"service": service,
		"label":   label,
	})
	logger.Info("running test suite")

	result := &Result{}
	out, err := r.rt.Exec(ctx, service, "coverage", "run", "--source=app", "-m", "pytest")
	result.Output = string(out)
	if err != nil {
		code := container.ExitCode(err)
		if code < 0 {
			// The command never ran; nothing to report on.
			return nil, err
		}
		result.ExitCode = code
		logger.WithField("exit_code", code).Warn("test suite failed")
	}

	report, err := r.rt.Exec(ctx, service, "coverage", "report", "--show-missing")
	if err != nil {
		return nil, err
	}
	result.Report = string(report)

	if _, err := r.rt.Exec(ctx, service, "coverage", "xml"); err != nil {
		return nil, err
	}

	artifact := label + ".xml"
	src := path.Join(r.cfg.Backend.WorkDir, "coverage.xml")
	if err := r.rt.CopyFrom(ctx, service, src, artifact); err != nil {
		return nil, err
	}
	result.ArtifactPath = artifact

	logger.WithFields(logrus.Fields{
		"exit_code": result.ExitCode,
		"artifact":  artifact,
	}).Info("test run finished")
	return result, nil
}
