package build

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/javakit/mvnbridge-mcp/internal/proc"
	"github.com/javakit/mvnbridge-mcp/pkg/types"
)

// Compile scopes
const (
	ScopeProject = "project"
	ScopeModule  = "module"
)

// CompileRequest asks the compiler capability for an incremental build.
type CompileRequest struct {
	Files        []string // empty compiles the whole scope
	Scope        string   // project or module
	SkipWarnings bool     // skip the extra analysis warnings need
}

// CompileStatus is the aggregate the compiler reports. It carries no
// per-file detail; counts are the ground truth for the stage outcome.
type CompileStatus struct {
	Aborted      bool
	ErrorCount   int
	WarningCount int
}

// Compiler is the incremental-compile capability. Platform compilers
// demand a specific invocation context, so implementations are handed
// in at wiring time.
type Compiler interface {
	CompileIncremental(ctx context.Context, req CompileRequest) (*CompileStatus, error)
}

// ContextExecutor runs work in whatever execution context the platform
// compiler requires. The pipeline never knows how that context is
// obtained.
type ContextExecutor interface {
	Execute(ctx context.Context, fn func() error) error
}

// DirectExecutor runs the work inline. The default where no privileged
// context exists.
type DirectExecutor struct{}

// Execute runs fn on the calling goroutine.
func (DirectExecutor) Execute(_ context.Context, fn func() error) error { return fn() }

// IncrementalBuilder is stage two: trigger the incremental compiler,
// then enumerate best-effort detail when the aggregate says something
// broke.
type IncrementalBuilder struct {
	compiler   Compiler
	executor   ContextExecutor
	syntax     *SyntaxChecker
	outputDirs []string
	logger     *zap.Logger
}

// NewIncrementalBuilder wires the stage-two collaborators. A nil
// executor runs the compiler inline.
func NewIncrementalBuilder(compiler Compiler, executor ContextExecutor, syntax *SyntaxChecker, outputDirs []string, logger *zap.Logger) *IncrementalBuilder {
	if executor == nil {
		executor = DirectExecutor{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncrementalBuilder{
		compiler:   compiler,
		executor:   executor,
		syntax:     syntax,
		outputDirs: outputDirs,
		logger:     logger,
	}
}

// IncrementalOptions controls one stage-two run.
type IncrementalOptions struct {
	FilePaths    []string
	Scope        string
	MaxErrors    int
	ForceRebuild bool // delete output artifacts before compiling
	FastMode     bool // skip the global refresh when specific files are given
	SkipWarnings bool
}

// Build runs the incremental compile. The returned counts come from the
// compiler and are authoritative; the problem list is a secondary
// syntax sweep run only when the error count is nonzero, so it is
// best-effort detail limited to what lexical analysis can see.
func (b *IncrementalBuilder) Build(ctx context.Context, opts IncrementalOptions) (*types.BuildResult, error) {
	if opts.ForceRebuild {
		b.deleteOutputs()
	}

	// A global refresh for a targeted compile is wasted work; fast mode
	// with an explicit file set skips it.
	if !(opts.FastMode && len(opts.FilePaths) > 0) {
		if err := b.syntax.refresher.SyncRefresh(ctx); err != nil {
			b.logger.Warn("filesystem refresh did not settle", zap.Error(err))
		}
	}

	files := make([]string, 0, len(opts.FilePaths))
	for _, f := range opts.FilePaths {
		files = append(files, b.syntax.absPath(f))
	}

	var status *CompileStatus
	err := b.executor.Execute(ctx, func() error {
		var cerr error
		status, cerr = b.compiler.CompileIncremental(ctx, CompileRequest{
			Files:        files,
			Scope:        opts.Scope,
			SkipWarnings: opts.SkipWarnings,
		})
		return cerr
	})
	if err != nil {
		return nil, fmt.Errorf("incremental compile failed: %w", err)
	}

	result := &types.BuildResult{
		Aborted:      status.Aborted,
		ErrorCount:   status.ErrorCount,
		WarningCount: status.WarningCount,
	}
	if opts.SkipWarnings {
		result.WarningCount = 0
	}

	// Detail enumeration only when the aggregate reports errors. A
	// clean count means no sweep, even if the caller names files that
	// previously had problems.
	if status.ErrorCount > 0 {
		sweepFiles := files
		if len(sweepFiles) == 0 {
			discovered, derr := b.syntax.walker.Discover()
			if derr != nil {
				b.logger.Warn("failed to discover files for detail sweep", zap.Error(derr))
			} else {
				sweepFiles = discovered
			}
		}
		problems, serr := b.syntax.Sweep(ctx, sweepFiles)
		if serr != nil {
			return nil, serr
		}
		if opts.MaxErrors > 0 && len(problems) > opts.MaxErrors {
			problems = problems[:opts.MaxErrors]
		}
		result.Problems = problems
	}

	b.logger.Info("incremental build complete",
		zap.Bool("aborted", result.Aborted),
		zap.Int("errors", result.ErrorCount),
		zap.Int("warnings", result.WarningCount),
		zap.Int("enumerated", len(result.Problems)))

	return result, nil
}

// deleteOutputs removes the configured build-output directories. An
// explicit, irreversible opt-in; confirmation is the caller's concern.
func (b *IncrementalBuilder) deleteOutputs() {
	for _, dir := range b.outputDirs {
		if err := os.RemoveAll(dir); err != nil {
			b.logger.Warn("failed to delete output directory", zap.String("dir", dir), zap.Error(err))
		} else {
			b.logger.Info("deleted output directory", zap.String("dir", dir))
		}
	}
}

// CommandCompiler implements Compiler by running a configured build
// command and deriving aggregate counts from its diagnostic lines. It
// stands in for an IDE compiler where only a command-line toolchain
// exists.
type CommandCompiler struct {
	runner  proc.Runner
	command []string // executable plus base arguments
	dir     string
	logger  *zap.Logger
}

// NewCommandCompiler creates a compiler backed by an external command.
func NewCommandCompiler(runner proc.Runner, command []string, dir string, logger *zap.Logger) *CommandCompiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandCompiler{runner: runner, command: command, dir: dir, logger: logger}
}

// CompileIncremental runs the configured command and counts diagnostic
// lines for the aggregate. A command that cannot start reports an
// aborted build.
func (c *CommandCompiler) CompileIncremental(ctx context.Context, req CompileRequest) (*CompileStatus, error) {
	if len(c.command) == 0 {
		return nil, fmt.Errorf("no incremental build command configured")
	}
	res, err := c.runner.Run(ctx, proc.Spec{
		Executable: c.command[0],
		Args:       c.command[1:],
		Dir:        c.dir,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("incremental build command failed to run", zap.Error(err))
		return &CompileStatus{Aborted: true}, nil
	}

	status := &CompileStatus{}
	for _, line := range strings.Split(res.CombinedOutput, "\n") {
		switch {
		case strings.HasPrefix(line, "[ERROR]"):
			status.ErrorCount++
		case strings.HasPrefix(line, "[WARNING]") && !req.SkipWarnings:
			status.WarningCount++
		}
	}
	// Exit code is authoritative: a failed build with no recognized
	// diagnostic lines still counts as one error.
	if res.ExitCode != 0 && status.ErrorCount == 0 {
		status.ErrorCount = 1
	}
	return status, nil
}
