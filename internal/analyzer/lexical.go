package analyzer

import (
	"fmt"
	"os"
	"strings"

	"github.com/javakit/mvnbridge-mcp/pkg/types"
)

// Lexical scans Java-family source files for severe, parser-level
// malformations. It is deliberately shallow: a file that merely uses an
// undeclared variable produces no problems here.
type Lexical struct{}

// NewLexical creates a lexical analyzer.
func NewLexical() *Lexical {
	return &Lexical{}
}

// ParseSyntaxErrors reads and scans one file. The returned problems
// carry the path exactly as given; callers relativize it.
func (a *Lexical) ParseSyntaxErrors(path string) ([]types.Problem, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return a.Scan(path, src), nil
}

// openBracket tracks an unmatched opening bracket.
type openBracket struct {
	ch        byte
	line, col int
}

// Scan performs the lexical pass over source text. Exposed separately
// so tests and sweeps can scan in-memory content.
func (a *Lexical) Scan(path string, src []byte) []types.Problem {
	var problems []types.Problem
	var stack []openBracket

	add := func(line, col int, format string, args ...any) {
		problems = append(problems, types.Problem{
			Severity: types.SeveritySyntaxError,
			FilePath: path,
			Line:     line,
			Column:   col,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	line, col := 1, 1
	i := 0
	advance := func(n int) {
		for k := 0; k < n && i < len(src); k++ {
			if src[i] == '\n' {
				line++
				col = 1
			} else {
				col++
			}
			i++
		}
	}

	for i < len(src) {
		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				advance(1)
			}

		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			openLine, openCol := line, col
			advance(2)
			closed := false
			for i < len(src) {
				if src[i] == '*' && i+1 < len(src) && src[i+1] == '/' {
					advance(2)
					closed = true
					break
				}
				advance(1)
			}
			if !closed {
				add(openLine, openCol, "unterminated block comment")
			}

		case c == '"' && i+2 < len(src) && src[i+1] == '"' && src[i+2] == '"':
			// Text block: runs to the closing triple quote, newlines allowed.
			openLine, openCol := line, col
			advance(3)
			closed := false
			for i < len(src) {
				if src[i] == '\\' {
					advance(2)
					continue
				}
				if src[i] == '"' && i+2 < len(src) && src[i+1] == '"' && src[i+2] == '"' {
					advance(3)
					closed = true
					break
				}
				advance(1)
			}
			if !closed {
				add(openLine, openCol, "unterminated text block")
			}

		case c == '"' || c == '\'':
			quote := c
			kind := "string literal"
			if quote == '\'' {
				kind = "character literal"
			}
			openLine, openCol := line, col
			advance(1)
			closed := false
			for i < len(src) {
				if src[i] == '\\' {
					advance(2)
					continue
				}
				if src[i] == quote {
					advance(1)
					closed = true
					break
				}
				if src[i] == '\n' {
					break
				}
				advance(1)
			}
			if !closed {
				add(openLine, openCol, "unterminated %s", kind)
			}

		case c == '(' || c == '[' || c == '{':
			stack = append(stack, openBracket{ch: c, line: line, col: col})
			advance(1)

		case c == ')' || c == ']' || c == '}':
			if len(stack) == 0 {
				add(line, col, "unmatched '%c'", c)
			} else {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if closingFor(top.ch) != c {
					add(line, col, "mismatched '%c': expected '%c' to close '%c' opened at line %d",
						c, closingFor(top.ch), top.ch, top.line)
				}
			}
			advance(1)

		default:
			advance(1)
		}
	}

	for _, ob := range stack {
		add(ob.line, ob.col, "unclosed '%c'", ob.ch)
	}

	return problems
}

func closingFor(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	default:
		return '}'
	}
}

// IsSourceFile reports whether a path has one of the given source
// extensions. Extensions include the leading dot.
func IsSourceFile(path string, extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
