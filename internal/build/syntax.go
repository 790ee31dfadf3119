package build

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/javakit/mvnbridge-mcp/internal/analyzer"
	"github.com/javakit/mvnbridge-mcp/internal/refresh"
	"github.com/javakit/mvnbridge-mcp/pkg/types"
)

// SyntaxChecker is stage one of the pipeline: a whole-project or
// single-file lexical sweep. It finds only severe parser-level
// malformations; a clean result here says nothing about type errors or
// unresolved symbols.
type SyntaxChecker struct {
	root      string
	walker    *Walker
	analyzer  analyzer.Analyzer
	refresher refresh.Refresher
	workers   int
	logger    *zap.Logger
}

// NewSyntaxChecker wires the stage-one collaborators.
func NewSyntaxChecker(root string, walker *Walker, a analyzer.Analyzer, r refresh.Refresher, workers int, logger *zap.Logger) *SyntaxChecker {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyntaxChecker{root: root, walker: walker, analyzer: a, refresher: r, workers: workers, logger: logger}
}

// SyntaxOptions controls one syntax check run.
type SyntaxOptions struct {
	// FilePath limits the check to a single file. Empty checks every
	// discovered source file.
	FilePath string
	// Refresh requests a filesystem sync before scanning. Skipped by
	// default project-wide because a global refresh costs more than the
	// scan itself.
	Refresh bool
	// MaxProblems caps the collected problem list. Zero means no cap.
	MaxProblems int
}

// Check runs the sweep. Per-file collection order is unspecified; the
// returned result is sorted and deduplicated. A cancelled or expired
// context aborts with the context error and no partial result, because
// a partial syntax sweep is not meaningful.
func (c *SyntaxChecker) Check(ctx context.Context, opts SyntaxOptions) (*types.BuildResult, error) {
	if opts.Refresh {
		if err := c.refresher.SyncRefresh(ctx); err != nil {
			// Staleness is preferred over failing the stage.
			c.logger.Warn("filesystem refresh did not settle", zap.Error(err))
		}
	}

	var files []string
	if opts.FilePath != "" {
		files = []string{c.absPath(opts.FilePath)}
	} else {
		discovered, err := c.walker.Discover()
		if err != nil {
			return nil, fmt.Errorf("failed to discover source files: %w", err)
		}
		files = discovered
	}

	problems, err := c.Sweep(ctx, files)
	if err != nil {
		return nil, err
	}

	if opts.MaxProblems > 0 && len(problems) > opts.MaxProblems {
		problems = problems[:opts.MaxProblems]
	}

	c.logger.Info("syntax check complete",
		zap.Int("files", len(files)),
		zap.Int("problems", len(problems)))

	return types.NewBuildResult(problems), nil
}

// Sweep scans the given files in parallel and returns sorted, deduped
// problems with project-relative paths. Reused by stage two for its
// secondary detail pass.
func (c *SyntaxChecker) Sweep(ctx context.Context, files []string) ([]types.Problem, error) {
	var (
		mu       sync.Mutex
		problems []types.Problem
	)

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, c.workers)
	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case <-gctx.Done():
				return gctx.Err()
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()

			found, err := c.analyzer.ParseSyntaxErrors(file)
			if err != nil {
				// One unreadable file does not fail the sweep.
				c.logger.Debug("failed to scan file", zap.String("file", file), zap.Error(err))
				return nil
			}
			if len(found) == 0 {
				return nil
			}
			for i := range found {
				found[i].FilePath = c.relPath(found[i].FilePath)
			}
			mu.Lock()
			problems = append(problems, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	types.SortProblems(problems)
	return types.DedupeProblems(problems), nil
}

func (c *SyntaxChecker) absPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.root, path)
}

func (c *SyntaxChecker) relPath(path string) string {
	if rel, err := filepath.Rel(c.root, path); err == nil && !filepath.IsAbs(rel) && rel != ".." && !hasDotDotPrefix(rel) {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
