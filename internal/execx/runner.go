package execx

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Result holds the captured output of one external command invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Ok reports whether the command exited with status zero.
func (r Result) Ok() bool {
	return r.ExitCode == 0
}

// Runner runs external system tools. A non-zero exit status is reported
// through Result, not as an error; the error return is reserved for commands
// that could not be started at all (binary missing, context canceled).
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// SystemRunner executes commands against the real system.
type SystemRunner struct {
	logger Logger
}

// NewSystemRunner creates a runner that executes real commands
func NewSystemRunner(logger Logger) *SystemRunner {
	return &SystemRunner{logger: logger}
}

func (sr *SystemRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	sr.logger.Debugf("exec: %s %s", name, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			sr.logger.Debugf("exec: %s exited with status %d", name, result.ExitCode)
			return result, nil
		}
		sr.logger.Errorf("exec: %s failed to start: %v", name, err)
		return result, err
	}

	return result, nil
}
