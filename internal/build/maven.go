package build

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/javakit/mvnbridge-mcp/internal/proc"
	"github.com/javakit/mvnbridge-mcp/pkg/types"
)

// Maven timeout policy
const (
	// MinMavenTimeout is the enforced floor for an offline build.
	MinMavenTimeout = 30 * time.Second
	// DefaultMavenTimeout applies when the caller passes none.
	DefaultMavenTimeout = 300 * time.Second
)

// mavenDiagnostic matches Maven compiler output of the form
// [ERROR] src/Foo.java:[10,5] incompatible types
var mavenDiagnostic = regexp.MustCompile(`^\[(ERROR|WARNING)\]\s+(.+?\.[A-Za-z][A-Za-z0-9]*):\[(\d+),(\d+)\]\s*(.*)$`)

// MavenBuilder is stage three: a full offline build through an external
// Maven process. The only stage that sees cross-module and cross-file
// dependency errors; the other two are file-local.
type MavenBuilder struct {
	runner    proc.Runner
	root      string
	mavenHome string // bundled toolchain, consulted last
	logger    *zap.Logger
}

// NewMavenBuilder wires the stage-three collaborators.
func NewMavenBuilder(runner proc.Runner, root, mavenHome string, logger *zap.Logger) *MavenBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MavenBuilder{runner: runner, root: root, mavenHome: mavenHome, logger: logger}
}

// MavenOptions controls one offline build.
type MavenOptions struct {
	Goals     []string
	Offline   bool
	Quiet     bool
	BatchMode bool
	Timeout   time.Duration
}

// Build locates the Maven executable, runs it with the given goals, and
// parses the captured output into problems. Pass/fail comes from the
// process exit code; the parsed problem list is best-effort and
// unparseable diagnostic lines are dropped.
func (b *MavenBuilder) Build(ctx context.Context, opts MavenOptions) (*types.BuildResult, error) {
	executable, err := b.LocateExecutable()
	if err != nil {
		return nil, err
	}

	goals := opts.Goals
	if len(goals) == 0 {
		goals = []string{"compile"}
	}
	args := make([]string, 0, len(goals)+3)
	args = append(args, goals...)
	if opts.Offline {
		args = append(args, "-o")
	}
	if opts.Quiet {
		args = append(args, "-q")
	}
	if opts.BatchMode {
		args = append(args, "-B")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultMavenTimeout
	}
	if timeout < MinMavenTimeout {
		timeout = MinMavenTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	b.logger.Info("starting offline build",
		zap.String("executable", executable),
		zap.Strings("goals", goals),
		zap.Duration("timeout", timeout))

	res, err := b.runner.Run(runCtx, proc.Spec{
		Executable: executable,
		Args:       args,
		Dir:        b.root,
	})
	if err != nil {
		return nil, err
	}

	problems := b.ParseOutput(res.CombinedOutput)
	counts := types.CountBySeverity(problems)
	result := &types.BuildResult{
		Problems:     problems,
		ErrorCount:   counts[types.SeverityError],
		WarningCount: counts[types.SeverityWarning],
	}

	// The exit code decides pass/fail even when no diagnostic line was
	// recognizable.
	if res.ExitCode != 0 && result.ErrorCount == 0 {
		summary := failureSummary(res.CombinedOutput)
		if summary == "" {
			summary = fmt.Sprintf("build failed with exit code %d", res.ExitCode)
		}
		result.Problems = append(result.Problems, types.Problem{
			Severity: types.SeverityError,
			FilePath: "pom.xml",
			Line:     1,
			Column:   1,
			Message:  summary,
		})
		result.ErrorCount = 1
	}

	b.logger.Info("offline build complete",
		zap.Int("exit_code", res.ExitCode),
		zap.Int("errors", result.ErrorCount),
		zap.Int("warnings", result.WarningCount),
		zap.Duration("duration", res.Duration))

	return result, nil
}

// LocateExecutable resolves the Maven binary: MAVEN_HOME or M2_HOME,
// then PATH, then the configured bundled toolchain. No candidate means
// a configuration error; a network fetch is never attempted.
func (b *MavenBuilder) LocateExecutable() (string, error) {
	for _, env := range []string{"MAVEN_HOME", "M2_HOME"} {
		home := os.Getenv(env)
		if home == "" {
			continue
		}
		candidate := filepath.Join(home, "bin", mavenBinary())
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if found, err := exec.LookPath(mavenBinary()); err == nil {
		return found, nil
	}

	if b.mavenHome != "" {
		candidate := filepath.Join(b.mavenHome, "bin", mavenBinary())
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	return "", types.NewToolError(types.KindToolchainMissing,
		"maven executable not found: set MAVEN_HOME/M2_HOME, add mvn to PATH, or configure maven_home")
}

// ParseOutput extracts diagnostics from combined Maven output using the
// fixed line grammar. Lines that do not match are dropped silently.
func (b *MavenBuilder) ParseOutput(output string) []types.Problem {
	var problems []types.Problem
	for _, line := range strings.Split(output, "\n") {
		m := mavenDiagnostic.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		lineNo, err1 := strconv.Atoi(m[3])
		colNo, err2 := strconv.Atoi(m[4])
		if err1 != nil || err2 != nil || lineNo < 1 || colNo < 1 {
			continue
		}
		severity := types.SeverityError
		if m[1] == "WARNING" {
			severity = types.SeverityWarning
		}
		problems = append(problems, types.Problem{
			Severity: severity,
			FilePath: b.relPath(m[2]),
			Line:     lineNo,
			Column:   colNo,
			Message:  strings.TrimSpace(m[5]),
		})
	}
	types.SortProblems(problems)
	return types.DedupeProblems(problems)
}

// failureSummary pulls the first line of the BUILD FAILURE block, if any.
func failureSummary(output string) string {
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		if !strings.Contains(line, "BUILD FAILURE") {
			continue
		}
		for _, next := range lines[i+1:] {
			next = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(next), "[INFO]"))
			if next != "" && !strings.HasPrefix(next, "----") {
				return next
			}
		}
		return "BUILD FAILURE"
	}
	return ""
}

func (b *MavenBuilder) relPath(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	if rel, err := filepath.Rel(b.root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

func mavenBinary() string {
	if runtime.GOOS == "windows" {
		return "mvn.cmd"
	}
	return "mvn"
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
