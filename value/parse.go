package value

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Parse errors. A failed Parse returns a *SyntaxError wrapping one of these.
var (
	ErrUnexpectedCharacter = errors.New("unexpected character")
	ErrUnexpectedEnd       = errors.New("unexpected end of input")
	ErrInvalidNumber       = errors.New("invalid number")
	ErrUnterminatedString  = errors.New("unterminated string")
	ErrInvalidEscape       = errors.New("invalid escape sequence")
	ErrInvalidSurrogate    = errors.New("invalid surrogate")
	ErrMalformedCollection = errors.New("malformed collection")
	ErrTrailingData        = errors.New("trailing data after value")
)

// SyntaxError describes where and why Parse failed.
type SyntaxError struct {
	Offset int // byte offset into the input
	Msg    string
	Err    error
}

func (e *SyntaxError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%v at offset %d: %s", e.Err, e.Offset, e.Msg)
	}
	return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Parse reads exactly one Value from text. Whitespace may surround the value;
// anything else after it is ErrTrailingData.
func Parse(text string) (Value, error) {
	p := &parser{src: text}
	v, err := p.parseValue()
	if err != nil {
		return Value{}, err
	}
	p.skipWhitespace()
	if p.pos < len(p.src) {
		return Value{}, p.errorf(ErrTrailingData, "%q", excerpt(p.src[p.pos:]))
	}
	return v, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) Value {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(kind error, format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...), Err: kind}
}

func (p *parser) fail(kind error) *SyntaxError {
	return &SyntaxError{Offset: p.pos, Err: kind}
}

func (p *parser) skipWhitespace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) parseValue() (Value, error) {
	p.skipWhitespace()
	if p.pos >= len(p.src) {
		return Value{}, p.fail(ErrUnexpectedEnd)
	}
	switch c := p.src[p.pos]; {
	case c == 'n':
		return p.parseKeyword("null", Null())
	case c == 't':
		return p.parseKeyword("true", Bool(true))
	case c == 'f':
		return p.parseKeyword("false", Bool(false))
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case c == '-' || isDigit(c):
		return p.parseNumber()
	case c == '[':
		return p.parseArray()
	case c == '{':
		return p.parseObject()
	default:
		return Value{}, p.errorf(ErrUnexpectedCharacter, "%q", c)
	}
}

func (p *parser) parseKeyword(word string, v Value) (Value, error) {
	if !strings.HasPrefix(p.src[p.pos:], word) {
		return Value{}, p.errorf(ErrUnexpectedCharacter, "expected %q", word)
	}
	p.pos += len(word)
	return v, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// digits consumes a run of digits and reports how many were read.
func (p *parser) digits() int {
	start := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	return p.pos - start
}

func (p *parser) parseNumber() (Value, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	if p.digits() == 0 {
		return Value{}, p.errorf(ErrInvalidNumber, "expected digit after %q", p.src[start:p.pos])
	}
	floating := false
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		floating = true
		p.pos++
		if p.digits() == 0 {
			return Value{}, p.errorf(ErrInvalidNumber, "expected digit after decimal point in %q", p.src[start:p.pos])
		}
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		floating = true
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		if p.digits() == 0 {
			return Value{}, p.errorf(ErrInvalidNumber, "expected digit in exponent of %q", p.src[start:p.pos])
		}
	}
	text := p.src[start:p.pos]
	if floating {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, &SyntaxError{Offset: start, Msg: err.Error(), Err: ErrInvalidNumber}
		}
		return Float(f), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Value{}, &SyntaxError{Offset: start, Msg: err.Error(), Err: ErrInvalidNumber}
	}
	return Int(i), nil
}

// parseString reads a quoted string starting at the opening quote.
func (p *parser) parseString() (string, error) {
	start := p.pos
	p.pos++ // opening quote
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return sb.String(), nil
		case '\\':
			if err := p.parseEscape(&sb); err != nil {
				return "", err
			}
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return "", &SyntaxError{Offset: start, Err: ErrUnterminatedString}
}

func (p *parser) parseEscape(sb *strings.Builder) error {
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return p.fail(ErrUnterminatedString)
	}
	esc := p.src[p.pos]
	switch esc {
	case '"', '\\', '/':
		sb.WriteByte(esc)
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'u':
		r, err := p.parseUnicodeEscape()
		if err != nil {
			return err
		}
		sb.WriteRune(r)
		return nil
	default:
		return p.errorf(ErrInvalidEscape, `\%c`, esc)
	}
	p.pos++
	return nil
}

// parseUnicodeEscape decodes \uXXXX with p.pos on the 'u', combining a
// high/low surrogate pair into one code point.
func (p *parser) parseUnicodeEscape() (rune, error) {
	start := p.pos - 1
	hi, err := p.hex4()
	if err != nil {
		return 0, err
	}
	switch {
	case hi >= 0xD800 && hi <= 0xDBFF:
		if !strings.HasPrefix(p.src[p.pos:], `\u`) {
			return 0, &SyntaxError{Offset: start, Msg: "high surrogate without following low surrogate", Err: ErrInvalidSurrogate}
		}
		p.pos++ // backslash, hex4 skips the 'u'
		lo, err := p.hex4()
		if err != nil {
			return 0, err
		}
		if lo < 0xDC00 || lo > 0xDFFF {
			return 0, &SyntaxError{Offset: start, Msg: fmt.Sprintf(`\u%04X is not a low surrogate`, lo), Err: ErrInvalidSurrogate}
		}
		return rune(0x10000 + ((hi-0xD800)<<10 | (lo - 0xDC00))), nil
	case hi >= 0xDC00 && hi <= 0xDFFF:
		return 0, &SyntaxError{Offset: start, Msg: "low surrogate without preceding high surrogate", Err: ErrInvalidSurrogate}
	default:
		return rune(hi), nil
	}
}

// hex4 reads the four hex digits following the 'u' at p.pos.
func (p *parser) hex4() (uint32, error) {
	p.pos++ // 'u'
	if p.pos+4 > len(p.src) {
		return 0, p.errorf(ErrInvalidEscape, "incomplete unicode escape")
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+4], 16, 32)
	if err != nil {
		return 0, p.errorf(ErrInvalidEscape, `\u%s`, p.src[p.pos:p.pos+4])
	}
	p.pos += 4
	return uint32(n), nil
}

func (p *parser) parseArray() (Value, error) {
	p.pos++ // '['
	p.skipWhitespace()
	elems := []Value{}
	if p.pos < len(p.src) && p.src[p.pos] == ']' {
		p.pos++
		return Array(elems...), nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return Value{}, collectionEnd(err)
		}
		elems = append(elems, v)
		done, err := p.separator(']')
		if err != nil {
			return Value{}, err
		}
		if done {
			return Array(elems...), nil
		}
	}
}

func (p *parser) parseObject() (Value, error) {
	p.pos++ // '{'
	p.skipWhitespace()
	members := []Member{}
	if p.pos < len(p.src) && p.src[p.pos] == '}' {
		p.pos++
		return Object(members...), nil
	}
	for {
		p.skipWhitespace()
		if p.pos >= len(p.src) {
			return Value{}, p.errorf(ErrMalformedCollection, "unterminated object")
		}
		if p.src[p.pos] != '"' {
			return Value{}, p.errorf(ErrMalformedCollection, "object keys must be quoted strings, got %q", p.src[p.pos])
		}
		key, err := p.parseString()
		if err != nil {
			return Value{}, err
		}
		p.skipWhitespace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return Value{}, p.errorf(ErrMalformedCollection, "expected ':' after key %q", key)
		}
		p.pos++
		v, err := p.parseValue()
		if err != nil {
			return Value{}, collectionEnd(err)
		}
		members = append(members, Member{Key: key, Value: v})
		done, err := p.separator('}')
		if err != nil {
			return Value{}, err
		}
		if done {
			return Object(members...), nil
		}
	}
}

// separator consumes ',' (more items follow) or the closing bracket.
func (p *parser) separator(closing byte) (bool, error) {
	p.skipWhitespace()
	if p.pos >= len(p.src) {
		return false, p.errorf(ErrMalformedCollection, "expected ',' or %q before end of input", closing)
	}
	switch p.src[p.pos] {
	case ',':
		p.pos++
		return false, nil
	case closing:
		p.pos++
		return true, nil
	default:
		return false, p.errorf(ErrMalformedCollection, "expected ',' or %q, got %q", closing, p.src[p.pos])
	}
}

// collectionEnd reports running out of input inside a collection as a
// malformed collection rather than a bare end of input.
func collectionEnd(err error) error {
	var se *SyntaxError
	if errors.As(err, &se) && se.Err == ErrUnexpectedEnd {
		return &SyntaxError{Offset: se.Offset, Msg: "unterminated collection", Err: ErrMalformedCollection}
	}
	return err
}

func excerpt(s string) string {
	const limit = 16
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
