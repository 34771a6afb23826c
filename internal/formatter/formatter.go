package formatter

import (
	"fmt"
	"go/format"
	"strings"

	"github.com/mcncl/cppx/internal/config"
)

// Formatter lays out generated code
type Formatter struct {
	indent string
}

// NewFormatter creates a new Formatter instance that indents with tabs
func NewFormatter() *Formatter {
	return &Formatter{indent: "\t"}
}

// NewFormatterWithConfig creates a new Formatter instance with configuration
func NewFormatterWithConfig(cfg *config.Config) *Formatter {
	f := NewFormatter()
	if cfg != nil && cfg.Formatting.Indent != "" {
		f.indent = cfg.Formatting.Indent
	}
	return f
}

// Reindent re-lays out code one physical line at a time. Leading blanks are
// stripped and empty lines dropped. A line whose first character is '}' is
// emitted one level shallower, and a line that ends in '{' without any '}'
// deepens every following line. Braces inside strings are not told apart.
//
// Lines are joined with '\n' and no newline follows the last one.
func (f *Formatter) Reindent(code string) string {
	var lines []string
	depth := 0

	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimRight(strings.TrimLeft(line, " \t"), "\r")
		if line == "" {
			continue
		}

		if line[0] == '}' && depth > 0 {
			depth--
		}
		lines = append(lines, strings.Repeat(f.indent, depth)+line)
		if strings.HasSuffix(line, "{") && !strings.Contains(line, "}") {
			depth++
		}
	}

	return strings.Join(lines, "\n")
}

// Format takes Go code as a string and returns properly formatted Go code.
// Imports are sorted within each blank-line separated group; groups and
// comments are left as the author wrote them.
func (f *Formatter) Format(code string) (string, error) {
	// Handle empty input
	if strings.TrimSpace(code) == "" {
		return "", nil
	}

	formatted, err := format.Source([]byte(code))
	if err != nil {
		return "", fmt.Errorf("failed to parse Go code: %w", err)
	}

	return string(formatted), nil
}
