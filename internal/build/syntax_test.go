package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javakit/mvnbridge-mcp/internal/analyzer"
	"github.com/javakit/mvnbridge-mcp/internal/refresh"
	"github.com/javakit/mvnbridge-mcp/pkg/types"
)

// writeTree lays down files relative to root, creating directories as
// needed.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newTestChecker(root string) *SyntaxChecker {
	walker := &Walker{Roots: []string{root}, Extensions: []string{".java"}}
	return NewSyntaxChecker(root, walker, analyzer.NewLexical(), refresh.Noop{}, 2, nil)
}

func TestWalker_Discover(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/main/java/App.java":        "class App { }\n",
		"src/main/java/util/Util.java":  "class Util { }\n",
		"src/main/java/notes.txt":       "not source\n",
		"target/classes/App.java":       "compiled copy\n",
		".git/hooks/Ignore.java":        "hidden dir\n",
		"node_modules/dep/Module.java":  "pruned\n",
		"src/main/java/.cache/Tmp.java": "hidden\n",
	})

	walker := &Walker{Roots: []string{root}, Extensions: []string{".java"}}
	files, err := walker.Discover()
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rel, rerr := filepath.Rel(root, f)
		require.NoError(t, rerr)
		rels = append(rels, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{
		"src/main/java/App.java",
		"src/main/java/util/Util.java",
	}, rels)
}

func TestWalker_MissingRootIsNotFatal(t *testing.T) {
	walker := &Walker{
		Roots:      []string{filepath.Join(t.TempDir(), "does-not-exist")},
		Extensions: []string{".java"},
	}
	files, err := walker.Discover()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSyntaxCheck_ProjectWide(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/Good.java":   "class Good { }\n",
		"src/Broken.java": "class Broken {\n  String s = \"open;\n}\n",
		"src/Worse.java":  "class Worse {\n",
	})

	checker := newTestChecker(root)
	result, err := checker.Check(context.Background(), SyntaxOptions{})
	require.NoError(t, err)

	require.Len(t, result.Problems, 2)
	assert.Equal(t, 2, result.ErrorCount)
	assert.Zero(t, result.WarningCount)
	assert.False(t, result.Aborted)

	// Sorted by path, relative with forward slashes.
	assert.Equal(t, "src/Broken.java", result.Problems[0].FilePath)
	assert.Equal(t, "src/Worse.java", result.Problems[1].FilePath)
	for _, p := range result.Problems {
		assert.Equal(t, types.SeveritySyntaxError, p.Severity)
	}
}

func TestSyntaxCheck_SingleFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/Broken.java": "class Broken {\n  String s = \"open;\n}\n",
		"src/Other.java":  "class Other {\n", // must not be scanned
	})

	checker := newTestChecker(root)
	result, err := checker.Check(context.Background(), SyntaxOptions{FilePath: "src/Broken.java"})
	require.NoError(t, err)

	require.Len(t, result.Problems, 1)
	assert.Equal(t, "src/Broken.java", result.Problems[0].FilePath)
}

func TestSyntaxCheck_MaxProblems(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"A.java": "class A {\n",
		"B.java": "class B {\n",
		"C.java": "class C {\n",
	})

	checker := newTestChecker(root)
	result, err := checker.Check(context.Background(), SyntaxOptions{MaxProblems: 2})
	require.NoError(t, err)
	assert.Len(t, result.Problems, 2)
}

func TestSyntaxCheck_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"A.java": "class A {\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestChecker(root).Check(ctx, SyntaxOptions{})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSweep_Deterministic(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"z/Last.java":  "class Last {\n",
		"a/First.java": "class First {\n",
		"m/Mid.java":   "class Mid {\n",
	})

	checker := newTestChecker(root)
	files, err := checker.walker.Discover()
	require.NoError(t, err)

	first, err := checker.Sweep(context.Background(), files)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, serr := checker.Sweep(context.Background(), files)
		require.NoError(t, serr)
		assert.Equal(t, first, again)
	}
	require.Len(t, first, 3)
	assert.Equal(t, "a/First.java", first[0].FilePath)
	assert.Equal(t, "m/Mid.java", first[1].FilePath)
	assert.Equal(t, "z/Last.java", first[2].FilePath)
}

func TestSweep_UnreadableFileSkipped(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"Broken.java": "class Broken {\n"})

	checker := newTestChecker(root)
	files := []string{
		filepath.Join(root, "Broken.java"),
		filepath.Join(root, "Missing.java"),
	}
	problems, err := checker.Sweep(context.Background(), files)
	require.NoError(t, err)
	assert.Len(t, problems, 1)
}
