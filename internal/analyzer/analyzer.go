// Package analyzer provides the syntax-analysis capability consumed by
// the build pipeline. The rich implementation is a lexical scanner that
// detects parser-level malformations only; the degraded implementation
// returns nothing. Which one is active is decided at startup, never by
// probing at call time.
package analyzer

import (
	"github.com/javakit/mvnbridge-mcp/pkg/types"
)

// Analyzer reports parser-level syntax errors for a single source file.
// It sees only what static lexical analysis can see: unterminated
// literals and comments, and unbalanced brackets. Type errors, missing
// keywords, and undeclared symbols are invisible to it.
type Analyzer interface {
	ParseSyntaxErrors(path string) ([]types.Problem, error)
}

// Noop is the degraded analyzer used when syntax analysis is disabled.
// It never reports problems.
type Noop struct{}

// ParseSyntaxErrors returns no problems.
func (Noop) ParseSyntaxErrors(string) ([]types.Problem, error) {
	return nil, nil
}
