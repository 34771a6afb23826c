package parser

import (
	"io"
	"log/slog"
	"strings"

	"github.com/mcncl/cppx/internal/models"
)

// Parser turns one extracted markup block into a DOM tree.
//
// Parsing never fails. A closing tag that does not match the open element is
// kept as a text child, a tag without '>' becomes text, and an element whose
// closing tag is missing simply ends with the block.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser. A nil logger discards debug output.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{logger: logger}
}

// Parse parses block with a Parser that does not log.
func Parse(block string) models.Node {
	return NewParser(nil).Parse(block)
}

// Parse returns the root node of block. Blocks produced by the extractor
// always start with '<', so the root is normally an *Element.
func (p *Parser) Parse(block string) models.Node {
	s := &state{src: block, logger: p.logger}
	if !strings.HasPrefix(block, "<") {
		return &models.Text{Content: strings.TrimSpace(block)}
	}
	node, _ := s.parseTag()
	if node == nil {
		// The block was a bare closing tag.
		return &models.Text{Content: block}
	}
	return node
}

type state struct {
	src    string
	pos    int
	logger *slog.Logger
}

// parseTag parses the tag starting at s.pos, which must be '<'. It reports
// closing=true without a node when the tag is a closing tag.
func (s *state) parseTag() (node models.Node, closing bool) {
	gt := strings.IndexByte(s.src[s.pos:], '>')
	if gt < 0 {
		text := &models.Text{Content: s.src[s.pos:]}
		s.pos = len(s.src)
		return text, false
	}
	tagEnd := s.pos + gt
	content := s.src[s.pos+1 : tagEnd]
	s.pos = tagEnd + 1

	if strings.HasPrefix(content, "/") {
		closing = true
		content = content[1:]
	}
	selfClosing := false
	if strings.HasSuffix(content, "/") {
		selfClosing = true
		content = strings.TrimSpace(content[:len(content)-1])
	}

	name, attrText := content, ""
	if i := strings.IndexAny(content, " \t\r\n"); i >= 0 {
		name, attrText = content[:i], content[i+1:]
	}
	name = strings.ToLower(strings.TrimSpace(name))

	if closing {
		s.logger.Debug("closing tag", "tag", name)
		return nil, true
	}

	el := models.NewElement(name)
	el.Attrs = ParseAttributes(strings.TrimSpace(attrText))
	if selfClosing {
		s.logger.Debug("self-closing tag", "tag", name)
		return el, false
	}

	s.parseChildren(el)
	return el, false
}

// parseChildren consumes the body of el up to and including its closing tag.
func (s *state) parseChildren(el *models.Element) {
	for s.pos < len(s.src) {
		if s.src[s.pos] != '<' {
			s.parseText(el)
			continue
		}

		if s.pos+1 < len(s.src) && s.src[s.pos+1] == '/' {
			gt := strings.IndexByte(s.src[s.pos:], '>')
			if gt < 0 {
				return
			}
			closeEnd := s.pos + gt
			name := strings.ToLower(strings.TrimSpace(s.src[s.pos+2 : closeEnd]))
			if name == el.Tag {
				s.pos = closeEnd + 1
				return
			}
			raw := s.src[s.pos : closeEnd+1]
			s.logger.Debug("mismatched closing tag kept as text", "open", el.Tag, "text", raw)
			el.Children = append(el.Children, &models.Text{Content: raw})
			s.pos = closeEnd + 1
			continue
		}

		child, closing := s.parseTag()
		if !closing && child != nil {
			el.Children = append(el.Children, child)
		}
	}
}

// parseText consumes character data up to the next '<' and appends it to el
// when it is not blank.
func (s *state) parseText(el *models.Element) {
	end := strings.IndexByte(s.src[s.pos:], '<')
	if end < 0 {
		end = len(s.src)
	} else {
		end += s.pos
	}
	text := strings.TrimSpace(s.src[s.pos:end])
	s.pos = end
	if text != "" {
		el.Children = append(el.Children, &models.Text{Content: text})
	}
}
