// Package proc provides the external-process capability used by the
// offline build stage. Command failure (non-zero exit) is reported in
// the result, not as an error; errors mean the process could not be run
// or was cut off by the context.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxOutputBytes caps captured combined output. Build tools can
// produce unbounded logs; the parser only needs the diagnostic lines.
const DefaultMaxOutputBytes = 4 << 20

// Spec describes one external command.
type Spec struct {
	Executable string
	Args       []string
	Dir        string
	Env        []string // nil inherits the process environment
}

// Result is the outcome of a completed process.
type Result struct {
	ExitCode       int
	CombinedOutput string
	Duration       time.Duration
}

// Runner runs external executables to completion under a context.
type Runner interface {
	Run(ctx context.Context, spec Spec) (*Result, error)
}

// ExecRunner is the direct host implementation of Runner.
type ExecRunner struct {
	maxOutputBytes int
	logger         *zap.Logger
}

// NewExecRunner creates a runner with the default output cap.
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{maxOutputBytes: DefaultMaxOutputBytes, logger: logger}
}

// Run executes the command, capturing combined stdout/stderr up to the
// output cap. If the context expires the process is killed and the
// context error is returned.
func (r *ExecRunner) Run(ctx context.Context, spec Spec) (*Result, error) {
	if spec.Executable == "" {
		return nil, errors.New("executable is required")
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, spec.Executable, spec.Args...)
	cmd.Dir = spec.Dir
	if spec.Env != nil {
		cmd.Env = spec.Env
	}

	var buf bytes.Buffer
	out := &cappedWriter{buf: &buf, limit: r.maxOutputBytes}
	cmd.Stdout = out
	cmd.Stderr = out

	r.logger.Debug("running external process",
		zap.String("executable", spec.Executable),
		zap.Strings("args", spec.Args),
		zap.String("dir", spec.Dir))

	err := cmd.Run()
	duration := time.Since(start)

	// Context expiry wins over the generic "signal: killed" error.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	result := &Result{
		CombinedOutput: buf.String(),
		Duration:       duration,
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			r.logger.Debug("process exited non-zero",
				zap.String("executable", spec.Executable),
				zap.Int("exit_code", result.ExitCode),
				zap.Duration("duration", duration))
			return result, nil
		}
		return nil, fmt.Errorf("failed to run %s: %w", spec.Executable, err)
	}

	r.logger.Debug("process finished",
		zap.String("executable", spec.Executable),
		zap.Duration("duration", duration))
	return result, nil
}

// cappedWriter discards bytes past the limit but keeps counting so the
// process is never blocked on a full pipe.
type cappedWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *cappedWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining > 0 {
		if len(p) > remaining {
			w.buf.Write(p[:remaining])
		} else {
			w.buf.Write(p)
		}
	}
	return len(p), nil
}
