// Package wsl rewrites Windows paths to their WSL mount form. It is a
// pure string transformation applied as a decorator at the tool
// boundary; core build logic never sees it.
package wsl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/javakit/mvnbridge-mcp/pkg/types"
)

var winPathPattern = regexp.MustCompile(`(?i)\b([a-z]):[\\/]((?:[^\s"'<>|*?\\/]+[\\/])*[^\s"'<>|*?\\/]*)`)

// ToWSL converts a Windows path like C:\work\src to /mnt/c/work/src.
// Paths that are not Windows-style are returned unchanged.
func ToWSL(path string) string {
	m := winPathPattern.FindStringSubmatch(path)
	if m == nil || len(path) < 2 || path[1] != ':' {
		return path
	}
	drive := strings.ToLower(m[1])
	rest := strings.ReplaceAll(m[2], `\`, "/")
	if rest == "" {
		return fmt.Sprintf("/mnt/%s", drive)
	}
	return fmt.Sprintf("/mnt/%s/%s", drive, rest)
}

// FromWSL converts /mnt/c/work/src back to C:\work\src. Non-mount
// paths are returned unchanged.
func FromWSL(path string) string {
	if !strings.HasPrefix(path, "/mnt/") || len(path) < 6 {
		return path
	}
	drive := path[5]
	if (drive < 'a' || drive > 'z') && (drive < 'A' || drive > 'Z') {
		return path
	}
	rest := ""
	if len(path) > 6 {
		if path[6] != '/' {
			return path
		}
		rest = strings.ReplaceAll(path[7:], "/", `\`)
	}
	return fmt.Sprintf("%c:\\%s", toUpper(drive), rest)
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// Rewriter decorates problem lists on their way out of the boundary.
type Rewriter struct {
	Enabled bool
}

// RewriteProblems returns a copy with file paths and any Windows paths
// embedded in messages rewritten. Disabled rewriters return the input
// unchanged.
func (r Rewriter) RewriteProblems(problems []types.Problem) []types.Problem {
	if !r.Enabled || len(problems) == 0 {
		return problems
	}
	out := make([]types.Problem, len(problems))
	for i, p := range problems {
		p.FilePath = ToWSL(p.FilePath)
		p.Message = r.RewriteText(p.Message)
		out[i] = p
	}
	return out
}

// RewriteText rewrites every Windows path occurring in free text.
func (r Rewriter) RewriteText(s string) string {
	if !r.Enabled {
		return s
	}
	return winPathPattern.ReplaceAllStringFunc(s, ToWSL)
}
