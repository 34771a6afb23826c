package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Stringify renders v as text.
//
// The output is deliberately not minified: array and object items are joined
// with ", " and keys are followed by ": ". Floating values always contain a
// '.' or an exponent so they parse back as Floating.
func Stringify(v Value) string {
	var sb strings.Builder
	writeValue(&sb, v)
	return sb.String()
}

// Stringify renders v as text. See the package level Stringify.
func (v Value) Stringify() string { return Stringify(v) }

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindFloating && (math.IsNaN(v.f) || math.IsInf(v.f, 0)) {
		return nil, fmt.Errorf("%w: %v has no JSON representation", ErrTypeMismatch, v.f)
	}
	return []byte(Stringify(v)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func writeValue(sb *strings.Builder, v Value) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBoolean:
		if v.b {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case KindInteger:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloating:
		sb.WriteString(formatFloat(v.f))
	case KindString:
		writeQuoted(sb, v.s)
	case KindArray:
		sb.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeValue(sb, e)
		}
		sb.WriteByte(']')
	case KindObject:
		sb.WriteByte('{')
		for i, m := range v.obj {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeQuoted(sb, m.Key)
			sb.WriteString(": ")
			writeValue(sb, m.Value)
		}
		sb.WriteByte('}')
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// writeQuoted writes s between double quotes, escaping the quote, the
// backslash and every byte below 0x20.
func writeQuoted(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if c < 0x20 {
				fmt.Fprintf(sb, `\u%04x`, c)
			} else {
				sb.WriteByte(c)
			}
		}
	}
	sb.WriteByte('"')
}
