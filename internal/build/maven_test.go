package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javakit/mvnbridge-mcp/internal/proc"
	"github.com/javakit/mvnbridge-mcp/pkg/types"
)

// installFakeMaven writes an executable mvn stub under home/bin and
// returns its path.
func installFakeMaven(t *testing.T, home string) string {
	t.Helper()
	binDir := filepath.Join(home, "bin")
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	path := filepath.Join(binDir, mavenBinary())
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	return path
}

func clearMavenEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MAVEN_HOME", "")
	t.Setenv("M2_HOME", "")
	t.Setenv("PATH", t.TempDir()) // empty dir, no mvn on PATH
}

func TestLocateExecutable_MavenHomeFirst(t *testing.T) {
	clearMavenEnv(t)
	home := t.TempDir()
	want := installFakeMaven(t, home)
	t.Setenv("MAVEN_HOME", home)

	// A bundled toolchain also exists but must not win.
	bundled := t.TempDir()
	installFakeMaven(t, bundled)

	b := NewMavenBuilder(nil, t.TempDir(), bundled, nil)
	got, err := b.LocateExecutable()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLocateExecutable_M2HomeFallback(t *testing.T) {
	clearMavenEnv(t)
	home := t.TempDir()
	want := installFakeMaven(t, home)
	t.Setenv("M2_HOME", home)

	got, err := NewMavenBuilder(nil, t.TempDir(), "", nil).LocateExecutable()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLocateExecutable_PathBeforeBundled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("PATH semantics differ on windows")
	}
	clearMavenEnv(t)
	pathDir := filepath.Join(t.TempDir(), "bin")
	require.NoError(t, os.MkdirAll(pathDir, 0o755))
	want := filepath.Join(pathDir, "mvn")
	require.NoError(t, os.WriteFile(want, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", pathDir)

	bundled := t.TempDir()
	installFakeMaven(t, bundled)

	got, err := NewMavenBuilder(nil, t.TempDir(), bundled, nil).LocateExecutable()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLocateExecutable_BundledLast(t *testing.T) {
	clearMavenEnv(t)
	bundled := t.TempDir()
	want := installFakeMaven(t, bundled)

	got, err := NewMavenBuilder(nil, t.TempDir(), bundled, nil).LocateExecutable()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLocateExecutable_Missing(t *testing.T) {
	clearMavenEnv(t)
	_, err := NewMavenBuilder(nil, t.TempDir(), "", nil).LocateExecutable()
	require.Error(t, err)
	assert.Equal(t, types.KindToolchainMissing, types.KindOf(err))
}

func TestParseOutput(t *testing.T) {
	root := t.TempDir()
	b := NewMavenBuilder(nil, root, "", nil)

	output := "[INFO] Scanning for projects...\n" +
		"[ERROR] src/Foo.java:[10,5] incompatible types: String cannot be converted to int\n" +
		"[WARNING] src/Bar.java:[3,1] deprecated API\n" +
		"[ERROR] COMPILATION ERROR :\n" + // no location, dropped
		"[ERROR] src/Foo.java:[2,8] package does.not.exist does not exist\n" +
		"[INFO] BUILD FAILURE\n"

	problems := b.ParseOutput(output)
	require.Len(t, problems, 3)

	// Errors sort before warnings; within a file, by line.
	assert.Equal(t, types.Problem{
		Severity: types.SeverityError,
		FilePath: "src/Foo.java",
		Line:     2,
		Column:   8,
		Message:  "package does.not.exist does not exist",
	}, problems[0])
	assert.Equal(t, 10, problems[1].Line)
	assert.Equal(t, 5, problems[1].Column)
	assert.Equal(t, "incompatible types: String cannot be converted to int", problems[1].Message)
	assert.Equal(t, types.SeverityWarning, problems[2].Severity)
	assert.Equal(t, "src/Bar.java", problems[2].FilePath)
}

func TestParseOutput_AbsolutePathsRelativized(t *testing.T) {
	root := t.TempDir()
	b := NewMavenBuilder(nil, root, "", nil)

	abs := filepath.Join(root, "src", "App.java")
	problems := b.ParseOutput("[ERROR] " + abs + ":[4,2] ';' expected\n")
	require.Len(t, problems, 1)
	assert.Equal(t, "src/App.java", problems[0].FilePath)
}

func TestParseOutput_CRLF(t *testing.T) {
	b := NewMavenBuilder(nil, t.TempDir(), "", nil)
	problems := b.ParseOutput("[ERROR] src/A.java:[1,1] broken\r\n")
	require.Len(t, problems, 1)
	assert.Equal(t, "broken", problems[0].Message)
}

func TestMavenBuild_Success(t *testing.T) {
	clearMavenEnv(t)
	bundled := t.TempDir()
	installFakeMaven(t, bundled)

	runner := &fakeRunner{result: &proc.Result{
		ExitCode:       0,
		CombinedOutput: "[INFO] BUILD SUCCESS\n",
	}}
	b := NewMavenBuilder(runner, t.TempDir(), bundled, nil)

	result, err := b.Build(context.Background(), MavenOptions{
		Goals:     []string{"compile"},
		Offline:   true,
		Quiet:     true,
		BatchMode: true,
	})
	require.NoError(t, err)

	assert.Zero(t, result.ErrorCount)
	assert.Empty(t, result.Problems)
	assert.Equal(t, []string{"compile", "-o", "-q", "-B"}, runner.got.Args)
}

func TestMavenBuild_DefaultGoal(t *testing.T) {
	clearMavenEnv(t)
	bundled := t.TempDir()
	installFakeMaven(t, bundled)

	runner := &fakeRunner{result: &proc.Result{}}
	_, err := NewMavenBuilder(runner, t.TempDir(), bundled, nil).Build(context.Background(), MavenOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"compile"}, runner.got.Args)
}

func TestMavenBuild_SynthesizesFailureProblem(t *testing.T) {
	clearMavenEnv(t)
	bundled := t.TempDir()
	installFakeMaven(t, bundled)

	runner := &fakeRunner{result: &proc.Result{
		ExitCode: 1,
		CombinedOutput: "[INFO] BUILD FAILURE\n" +
			"[INFO] ------------------------------------------------------------------------\n" +
			"[INFO] Total time: 1.2 s\n",
	}}
	result, err := NewMavenBuilder(runner, t.TempDir(), bundled, nil).Build(context.Background(), MavenOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Problems, 1)
	p := result.Problems[0]
	assert.Equal(t, "pom.xml", p.FilePath)
	assert.Equal(t, types.SeverityError, p.Severity)
	assert.Equal(t, 1, p.Line)
	assert.Equal(t, "Total time: 1.2 s", p.Message)
}

func TestMavenBuild_FailureWithoutSummary(t *testing.T) {
	clearMavenEnv(t)
	bundled := t.TempDir()
	installFakeMaven(t, bundled)

	runner := &fakeRunner{result: &proc.Result{ExitCode: 2, CombinedOutput: "garbage\n"}}
	result, err := NewMavenBuilder(runner, t.TempDir(), bundled, nil).Build(context.Background(), MavenOptions{})
	require.NoError(t, err)
	require.Len(t, result.Problems, 1)
	assert.Equal(t, "build failed with exit code 2", result.Problems[0].Message)
}

func TestMavenBuild_ToolchainMissing(t *testing.T) {
	clearMavenEnv(t)
	runner := &fakeRunner{result: &proc.Result{}}
	result, err := NewMavenBuilder(runner, t.TempDir(), "", nil).Build(context.Background(), MavenOptions{})
	assert.Nil(t, result)
	assert.Equal(t, types.KindToolchainMissing, types.KindOf(err))
}

func TestMavenBuild_RunnerErrorPropagates(t *testing.T) {
	clearMavenEnv(t)
	bundled := t.TempDir()
	installFakeMaven(t, bundled)

	boom := errors.New("killed")
	runner := &fakeRunner{err: boom}
	result, err := NewMavenBuilder(runner, t.TempDir(), bundled, nil).Build(context.Background(), MavenOptions{})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, boom)
}

// timeoutProbeRunner records the context deadline it was handed.
type timeoutProbeRunner struct {
	deadline time.Time
	ok       bool
}

func (r *timeoutProbeRunner) Run(ctx context.Context, _ proc.Spec) (*proc.Result, error) {
	r.deadline, r.ok = ctx.Deadline()
	return &proc.Result{}, nil
}

func TestMavenBuild_TimeoutFloor(t *testing.T) {
	clearMavenEnv(t)
	bundled := t.TempDir()
	installFakeMaven(t, bundled)

	runner := &timeoutProbeRunner{}
	before := time.Now()
	_, err := NewMavenBuilder(runner, t.TempDir(), bundled, nil).Build(context.Background(), MavenOptions{
		Timeout: 5 * time.Second, // below the floor
	})
	require.NoError(t, err)
	require.True(t, runner.ok)

	remaining := runner.deadline.Sub(before)
	assert.GreaterOrEqual(t, remaining, 20*time.Second, "timeout must be raised to the floor")
	assert.LessOrEqual(t, remaining, MinMavenTimeout+time.Second)
}
