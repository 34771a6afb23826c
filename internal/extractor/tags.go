package extractor

import (
	"sort"
	"strings"
)

// DefaultTags is the built-in whitelist of recognized markup tags.
var DefaultTags = []string{
	"html", "head", "body", "title", "meta", "link", "script", "style",
	"h1", "h2", "h3", "h4", "h5", "h6", "p", "span", "div", "br", "hr",
	"ul", "ol", "li", "dl", "dt", "dd",
	"a", "img", "figure", "figcaption",
	"form", "input", "textarea", "button", "select", "option", "label", "fieldset", "legend",
	"table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption", "colgroup", "col",
	"header", "footer", "nav", "main", "article", "section", "aside", "details", "summary",
	"iframe", "audio", "video", "source", "canvas", "svg",
	"strong", "em", "code", "pre", "blockquote", "q", "cite", "abbr",
	"time", "mark", "small", "sub", "sup",
	"dialog", "menu", "progress", "meter",
	"base", "noscript",
}

// TagSet is an immutable set of lowercase tag names.
type TagSet struct {
	names map[string]struct{}
}

// NewTagSet builds a set from names, lowercasing and trimming each one.
// Blank names are ignored.
func NewTagSet(names ...string) TagSet {
	set := TagSet{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		set.names[n] = struct{}{}
	}
	return set
}

// DefaultTagSet returns a TagSet holding DefaultTags.
func DefaultTagSet() TagSet {
	return NewTagSet(DefaultTags...)
}

// Contains reports whether the lowercase form of name is in the set.
func (s TagSet) Contains(name string) bool {
	_, ok := s.names[strings.ToLower(name)]
	return ok
}

// Len returns the number of tags in the set.
func (s TagSet) Len() int { return len(s.names) }

// Names returns the tags in sorted order.
func (s TagSet) Names() []string {
	names := make([]string, 0, len(s.names))
	for n := range s.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
