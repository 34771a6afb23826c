package analyzer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mcncl/cppx/internal/config"
	"github.com/mcncl/cppx/internal/extractor"
	"github.com/mcncl/cppx/internal/models"
)

var (
	// expressionRegex matches an embedded {expression} in text content
	expressionRegex = regexp.MustCompile(`\{([^}]+)\}`)
	// identRegex matches the leading identifier of an expression
	identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)
)

// Result summarizes one DOM tree.
type Result struct {
	Elements    int
	MaxDepth    int
	Tags        map[string]int
	Expressions []string // distinct embedded expressions, in order of appearance
	Identifiers []string // distinct leading identifiers of Expressions, sorted
	Warnings    []string
}

// Analyzer inspects parsed markup for statistics and suspicious constructs
type Analyzer struct {
	tags extractor.TagSet
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithConfig(config.NewConfig())
}

// NewAnalyzerWithConfig creates a new Analyzer instance with custom configuration.
func NewAnalyzerWithConfig(cfg *config.Config) *Analyzer {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Analyzer{tags: extractor.NewTagSet(cfg.AllTags(extractor.DefaultTags)...)}
}

// Analyze walks the tree rooted at node. It never modifies the tree.
func (a *Analyzer) Analyze(node models.Node) Result {
	w := &walker{
		tags:   a.tags,
		result: Result{Tags: make(map[string]int)},
		seen:   make(map[string]struct{}),
		idents: make(map[string]struct{}),
	}
	w.visit(node, "", 1)

	for ident := range w.idents {
		w.result.Identifiers = append(w.result.Identifiers, ident)
	}
	sort.Strings(w.result.Identifiers)
	return w.result
}

// Merge folds other into r.
func (r *Result) Merge(other Result) {
	r.Elements += other.Elements
	if other.MaxDepth > r.MaxDepth {
		r.MaxDepth = other.MaxDepth
	}
	if r.Tags == nil {
		r.Tags = make(map[string]int)
	}
	for tag, n := range other.Tags {
		r.Tags[tag] += n
	}
	r.Expressions = appendUnique(r.Expressions, other.Expressions...)
	r.Identifiers = appendUnique(r.Identifiers, other.Identifiers...)
	sort.Strings(r.Identifiers)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

type walker struct {
	tags   extractor.TagSet
	result Result
	seen   map[string]struct{}
	idents map[string]struct{}
}

func (w *walker) visit(node models.Node, parent string, depth int) {
	switch n := node.(type) {
	case *models.Element:
		w.result.Elements++
		w.result.Tags[n.Tag]++
		if depth > w.result.MaxDepth {
			w.result.MaxDepth = depth
		}
		if n.Tag == "" {
			w.warn("element with an empty tag name inside <%s>", parent)
		} else if !w.tags.Contains(n.Tag) {
			w.warn("<%s> is not a recognized tag", n.Tag)
		}

		for _, name := range n.Attrs.Keys() {
			val, _ := n.Attrs.Get(name)
			if name == "children" {
				w.warn("attribute %q on <%s> is reserved and is dropped", name, n.Tag)
				continue
			}
			if strings.HasPrefix(val, "{") && strings.HasSuffix(val, "}") {
				w.expression(strings.Trim(val, "{}"))
			}
		}
		for _, child := range n.Children {
			w.visit(child, n.Tag, depth+1)
		}

	case *models.Text:
		if strings.HasPrefix(n.Content, "</") {
			w.warn("stray closing tag %s inside <%s> kept as text", n.Content, parent)
			return
		}
		if strings.HasPrefix(n.Content, "<") {
			w.warn("unterminated tag %q inside <%s> kept as text", n.Content, parent)
			return
		}
		for _, m := range expressionRegex.FindAllStringSubmatch(n.Content, -1) {
			w.expression(m[1])
		}
	}
}

func (w *walker) expression(expr string) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return
	}
	if _, ok := w.seen[expr]; !ok {
		w.seen[expr] = struct{}{}
		w.result.Expressions = append(w.result.Expressions, expr)
	}
	if ident := identRegex.FindString(expr); ident != "" {
		w.idents[ident] = struct{}{}
	}
}

func (w *walker) warn(format string, args ...any) {
	w.result.Warnings = append(w.result.Warnings, fmt.Sprintf(format, args...))
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range dst {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, item)
		}
	}
	return dst
}
