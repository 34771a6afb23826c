package parser

import (
	"strings"

	"github.com/mcncl/cppx/internal/models"
)

// ParseAttributes splits the attribute text of a tag into name/value pairs.
//
// A name is a run of letters, digits, '-' and '_'. After '=' the value is one
// of: a brace expression kept with its braces ({a + {b}}), a single or double
// quoted string with the quotes removed, or a bare word running to the next
// space. A name without '=' gets the empty value. Later duplicates overwrite
// earlier ones.
func ParseAttributes(text string) *models.Attributes {
	attrs := models.NewAttributes()
	n := len(text)
	i := 0
	for i < n {
		i = skipSpace(text, i)
		if i >= n {
			break
		}

		nameStart := i
		for i < n && isNameChar(text[i]) {
			i++
		}
		name := text[nameStart:i]
		i = skipSpace(text, i)

		if i >= n || text[i] != '=' {
			if name == "" {
				// Stray character such as an unpaired quote.
				i++
				continue
			}
			attrs.Set(name, "")
			continue
		}

		i = skipSpace(text, i+1)
		var value string
		if i >= n {
			value = ""
		} else {
			switch text[i] {
			case '{':
				value, i = braceValue(text, i)
			case '"', '\'':
				value, i = quotedValue(text, i)
			default:
				start := i
				for i < n && !isSpace(text[i]) {
					i++
				}
				value = text[start:i]
			}
		}
		if name != "" {
			attrs.Set(name, value)
		}
	}
	return attrs
}

// braceValue reads a balanced {...} value starting at the opening brace. An
// unbalanced value runs to the end of text and is closed with '}'.
func braceValue(text string, i int) (string, int) {
	depth := 1
	i++
	start := i
	for i < len(text) && depth > 0 {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
		i++
	}
	end := len(text)
	if depth == 0 {
		end = i - 1
	}
	return "{" + text[start:end] + "}", i
}

// quotedValue reads a quoted value starting at the opening quote. A backslash
// before the quote character escapes it.
func quotedValue(text string, i int) (string, int) {
	quote := text[i]
	i++
	var sb strings.Builder
	for i < len(text) && text[i] != quote {
		if text[i] == '\\' && i+1 < len(text) && text[i+1] == quote {
			sb.WriteByte(quote)
			i += 2
			continue
		}
		sb.WriteByte(text[i])
		i++
	}
	if i < len(text) {
		i++ // closing quote
	}
	return sb.String(), i
}

func skipSpace(text string, i int) int {
	for i < len(text) && isSpace(text[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isNameChar(c byte) bool {
	return c == '-' || c == '_' ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
