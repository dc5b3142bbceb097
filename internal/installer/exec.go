package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Result captures the outcome of one installer invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes an installer command. A non-zero exit is reported through
// Result.ExitCode with a nil error; err is reserved for failures to run the
// command at all (ErrIO) or deadline expiry (ErrTimeout).
type Runner interface {
	Run(ctx context.Context, path string, args ...string) (Result, error)
}

// waitDelay bounds how long Run waits for output after the process is killed.
const waitDelay = 2 * time.Second

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Env map[string]string // additional env vars
	Dir string            // working directory
}

func (r ExecRunner) Run(ctx context.Context, path string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}
	// inherit environment
	cmd.Env = os.Environ()
	for k, v := range r.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	// Children that inherit the output pipes must not hold Run open after a kill.
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("%s %v: %w", path, args, ErrTimeout)
	}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			res.ExitCode = ee.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("%s %v: %w: %v", path, args, ErrIO, err)
	}
	return res, nil
}
