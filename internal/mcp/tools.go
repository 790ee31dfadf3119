package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/javakit/mvnbridge-mcp/internal/build"
	"github.com/javakit/mvnbridge-mcp/internal/history"
	"github.com/javakit/mvnbridge-mcp/internal/report"
	"github.com/javakit/mvnbridge-mcp/pkg/types"
)

// syntaxLimitationNote is surfaced with every syntax_check result so
// the caller does not mistake a clean sweep for a clean build.
const syntaxLimitationNote = "syntax_check detects only parser-level malformations " +
	"(unterminated literals, unbalanced brackets). Type errors, missing keywords, and " +
	"undeclared symbols require incremental_build or maven_compile."

// handleSyntaxCheck runs stage one.
func (s *Server) handleSyntaxCheck(ctx context.Context, args map[string]any) (string, error) {
	filePath := argString(args, "filePath")

	// Refresh defaults depend on mode: a single-file check syncs that
	// file cheaply, a project-wide one skips the global refresh.
	refresh, ok := args["refresh"].(bool)
	if !ok {
		refresh = filePath != ""
	}

	start := time.Now()
	result, err := s.syntax.Check(ctx, build.SyntaxOptions{
		FilePath:    filePath,
		Refresh:     refresh,
		MaxProblems: argInt(args, "maxProblems", 50),
	})
	if err != nil {
		return "", err
	}
	s.recordBuild(ctx, "syntax_check", result, time.Since(start))

	problems := filterSeverities(result.Problems,
		argBool(args, "includeWarnings", true),
		argBool(args, "includeSuggestions", false))

	return report.Format(s.rewriter.RewriteProblems(problems), report.Stats{
		Stage:    "Syntax Check",
		Aborted:  result.Aborted,
		Duration: time.Since(start),
		Notes:    []string{syntaxLimitationNote},
	}, report.Options{GroupByFile: filePath == ""}), nil
}

// handleIncrementalBuild runs stage two.
func (s *Server) handleIncrementalBuild(ctx context.Context, args map[string]any) (string, error) {
	start := time.Now()
	result, err := s.incremental.Build(ctx, build.IncrementalOptions{
		FilePaths:    argStringSlice(args, "filePaths"),
		Scope:        argStringDefault(args, "scope", build.ScopeProject),
		MaxErrors:    argInt(args, "maxErrors", 50),
		ForceRebuild: argBool(args, "forceRebuild", false),
		FastMode:     argBool(args, "fastMode", false),
		SkipWarnings: argBool(args, "skipWarnings", true),
	})
	if err != nil {
		return "", err
	}
	s.recordBuild(ctx, "incremental_build", result, time.Since(start))

	notes := []string{
		"Error and warning counts come from the compiler and are authoritative. " +
			"The listed problems are a best-effort syntax sweep and may not cover every counted error.",
	}
	return report.Format(s.rewriter.RewriteProblems(result.Problems), report.Stats{
		Stage:        "Incremental Build",
		ErrorCount:   result.ErrorCount,
		WarningCount: result.WarningCount,
		Aborted:      result.Aborted,
		Duration:     time.Since(start),
		Notes:        notes,
	}, report.Options{}), nil
}

// handleMavenCompile runs stage three.
func (s *Server) handleMavenCompile(ctx context.Context, args map[string]any) (string, error) {
	start := time.Now()
	result, err := s.maven.Build(ctx, build.MavenOptions{
		Goals:     argStringSlice(args, "goals"),
		Offline:   argBool(args, "offline", true),
		Quiet:     argBool(args, "quiet", true),
		BatchMode: argBool(args, "batchMode", true),
		Timeout:   time.Duration(argInt(args, "timeout", 300)) * time.Second,
	})
	if err != nil {
		return "", err
	}
	s.recordBuild(ctx, "maven_compile", result, time.Since(start))

	return report.Format(s.rewriter.RewriteProblems(result.Problems), report.Stats{
		Stage:        "Maven Build",
		ErrorCount:   result.ErrorCount,
		WarningCount: result.WarningCount,
		Aborted:      result.Aborted,
		Duration:     time.Since(start),
	}, report.Options{}), nil
}

// handleListDirectory lists entries inside the project tree.
func (s *Server) handleListDirectory(ctx context.Context, args map[string]any) (string, error) {
	rel := argStringDefault(args, "path", ".")
	maxEntries := argInt(args, "maxEntries", 200)

	dir := filepath.Clean(filepath.Join(s.cfg.ProjectRoot, rel))
	if relCheck, err := filepath.Rel(s.cfg.ProjectRoot, dir); err != nil || strings.HasPrefix(relCheck, "..") {
		return "", types.NewToolError(types.KindInvalidArgument, "path escapes the project root: %s", rel)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", types.NewToolError(types.KindInvalidArgument, "directory does not exist: %s", rel)
		}
		return "", fmt.Errorf("failed to read directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", s.rewriter.RewriteText(filepath.ToSlash(rel)))
	shown := 0
	for _, entry := range entries {
		if shown >= maxEntries {
			fmt.Fprintf(&sb, "\n… %d more entries not shown.\n", len(entries)-shown)
			break
		}
		name := entry.Name()
		if entry.IsDir() {
			fmt.Fprintf(&sb, "- %s/\n", name)
		} else if info, err := entry.Info(); err == nil {
			fmt.Fprintf(&sb, "- %s (%d bytes)\n", name, info.Size())
		} else {
			fmt.Fprintf(&sb, "- %s\n", name)
		}
		shown++
	}
	fmt.Fprintf(&sb, "\n%d entries total.\n", len(entries))
	return sb.String(), nil
}

// handleBuildHistory reads the recent build-stage runs.
func (s *Server) handleBuildHistory(ctx context.Context, args map[string]any) (string, error) {
	if s.store == nil {
		return "Build history is disabled (no history database configured).", nil
	}
	limit := argInt(args, "limit", 20)
	runs, err := s.store.RecentBuilds(ctx, limit)
	if err != nil {
		return "", fmt.Errorf("failed to read build history: %w", err)
	}
	if len(runs) == 0 {
		return "No build runs recorded yet.", nil
	}

	var sb strings.Builder
	sb.WriteString("| Stage | Errors | Warnings | Aborted | Duration | When |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for _, run := range runs {
		fmt.Fprintf(&sb, "| %s | %d | %d | %v | %s | %s |\n",
			run.Stage, run.ErrorCount, run.WarningCount, run.Aborted,
			run.Duration.Round(time.Millisecond),
			run.RanAt.UTC().Format(time.RFC3339))
	}
	return sb.String(), nil
}

// recordBuild stores a stage run when history is enabled.
func (s *Server) recordBuild(ctx context.Context, stage string, result *types.BuildResult, duration time.Duration) {
	if s.store == nil {
		return
	}
	s.store.RecordBuild(ctx, history.BuildRun{
		Stage:        stage,
		ErrorCount:   result.ErrorCount,
		WarningCount: result.WarningCount,
		Aborted:      result.Aborted,
		Duration:     duration,
		RanAt:        time.Now(),
	})
}

// filterSeverities drops warnings and suggestions the caller opted out of.
func filterSeverities(problems []types.Problem, includeWarnings, includeSuggestions bool) []types.Problem {
	if includeWarnings && includeSuggestions {
		return problems
	}
	out := make([]types.Problem, 0, len(problems))
	for _, p := range problems {
		if p.Severity == types.SeverityWarning && !includeWarnings {
			continue
		}
		if p.Severity == types.SeveritySuggestion && !includeSuggestions {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Argument helpers. Normalization has already applied defaults and
// coercion; these just unwrap with a final fallback.

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func argStringDefault(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

func argBool(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func argInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

func argStringSlice(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
