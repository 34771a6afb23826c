package generator

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/mcncl/cppx/internal/config"
	"github.com/mcncl/cppx/internal/models"
)

// childrenKey is the reserved key holding an element's child list.
const childrenKey = "children"

// expressionRegex matches one embedded {expression}. Expressions cannot
// contain '}'.
var expressionRegex = regexp.MustCompile(`\{[^}]+\}`)

// Generator is responsible for generating Value construction code from DOM trees
type Generator struct {
	cfg  *config.Config
	skip []*regexp.Regexp
}

// NewGenerator creates a new Generator instance
func NewGenerator() *Generator {
	return NewGeneratorWithConfig(config.NewConfig())
}

// NewGeneratorWithConfig creates a new Generator instance with configuration
func NewGeneratorWithConfig(cfg *config.Config) *Generator {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Generator{cfg: cfg, skip: cfg.SkipPatterns()}
}

// Generate returns Go source that builds node as a Value. An element becomes
//
//	value.L{
//	"tag", value.L{
//	"attr", "v",
//	"children", value.A{
//	...
//	},
//	},
//	}
//
// with every line but the last ending in a comma, ready for Reindent.
func (g *Generator) Generate(node models.Node) string {
	var buf bytes.Buffer
	switch n := node.(type) {
	case *models.Element:
		g.writeElement(&buf, n)
	case *models.Text:
		segments := Segments(n.Content)
		if len(segments) == 0 {
			return strconv.Quote("")
		}
		buf.WriteString(strings.Join(segments, ", "))
	}
	return buf.String()
}

func (g *Generator) skipped(name string) bool {
	for _, re := range g.skip {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func (g *Generator) writeElement(buf *bytes.Buffer, el *models.Element) {
	lit := g.cfg.Generator.Package + ".L{"
	arr := g.cfg.Generator.Package + ".A{"

	buf.WriteString(lit + "\n")
	buf.WriteString(strconv.Quote(el.Tag) + ", " + lit + "\n")

	for _, name := range el.Attrs.Keys() {
		if name == childrenKey || g.skipped(name) {
			continue
		}
		val, _ := el.Attrs.Get(name)
		buf.WriteString(strconv.Quote(g.cfg.AttributeName(name)) + ", " + g.AttributeValue(val) + ",\n")
	}

	if len(el.Children) == 0 {
		buf.WriteString(strconv.Quote(childrenKey) + ", " + arr + "},\n")
	} else {
		buf.WriteString(strconv.Quote(childrenKey) + ", " + arr + "\n")
		for _, child := range el.Children {
			switch c := child.(type) {
			case *models.Element:
				g.writeElement(buf, c)
				buf.WriteString(",\n")
			case *models.Text:
				segments := Segments(c.Content)
				if len(segments) == 0 {
					continue
				}
				buf.WriteString(strings.Join(segments, ", ") + ",\n")
			}
		}
		buf.WriteString("},\n")
	}

	buf.WriteString("},\n")
	buf.WriteString("}")
}

// Segments splits text into Go expressions: every {expression} becomes the
// trimmed expression, and each literal run between them is trimmed and
// quoted. Blank runs and blank expressions are dropped.
func Segments(text string) []string {
	var segments []string
	literal := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, strconv.Quote(s))
		}
	}

	last := 0
	for _, loc := range expressionRegex.FindAllStringIndex(text, -1) {
		literal(text[last:loc[0]])
		if expr := strings.TrimSpace(text[loc[0]+1 : loc[1]-1]); expr != "" {
			segments = append(segments, expr)
		}
		last = loc[1]
	}
	literal(text[last:])
	return segments
}

// AttributeValue renders an attribute value. {expr} is emitted as the raw
// expression. {{a, b}} loses one layer of braces and becomes a literal of the
// configured package, L{a, b}. Anything else is trimmed and quoted.
func (g *Generator) AttributeValue(val string) string {
	trimmed := strings.TrimSpace(val)
	if len(trimmed) >= 4 && strings.HasPrefix(trimmed, "{{") && strings.HasSuffix(trimmed, "}}") {
		return g.cfg.Generator.Package + ".L" + trimmed[1:len(trimmed)-1]
	}
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		if inner := strings.TrimSpace(trimmed[1 : len(trimmed)-1]); inner != "" {
			return inner
		}
	}
	return strconv.Quote(trimmed)
}
