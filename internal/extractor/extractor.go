package extractor

import "strings"

// Block is one complete markup span of the source, from its opening tag
// through the matching closing tag.
type Block struct {
	Tag   string // lowercased name of the opening tag
	Text  string // literal source text of the block
	Start int    // byte offset of the opening '<'
	End   int    // byte offset just past the closing tag
}

// Extractor finds whitelisted markup blocks in source text.
type Extractor struct {
	tags TagSet
}

// NewExtractor creates an Extractor recognizing the tags in tags.
func NewExtractor(tags TagSet) *Extractor {
	return &Extractor{tags: tags}
}

// Extract scans src left to right and returns every complete block in order.
//
// The end of a block is the first literal "</name>" after its opening tag.
// Nesting is not tracked, so for <div><div>x</div></div> the block ends at the
// first "</div>". Opening tags with no closing tag are skipped. Scanning
// resumes after each block, so blocks never overlap.
func (e *Extractor) Extract(src string) []Block {
	var blocks []Block
	pos := 0
	for {
		t, ok := nextTag(src, pos)
		if !ok {
			return blocks
		}
		pos = t.end

		name := strings.ToLower(t.name)
		if t.closing || !e.tags.Contains(name) {
			continue
		}

		closingTag := "</" + name + ">"
		idx := strings.Index(src[pos:], closingTag)
		if idx < 0 {
			continue
		}
		end := pos + idx + len(closingTag)
		blocks = append(blocks, Block{
			Tag:   name,
			Text:  src[t.start:end],
			Start: t.start,
			End:   end,
		})
		pos = end
	}
}

// rawTag is one occurrence of <name ...> or </name ...> in the source.
type rawTag struct {
	name    string
	closing bool
	start   int // offset of '<'
	end     int // offset just past '>'
}

// nextTag finds the first tag at or after from. A tag is '<', an optional '/',
// one or more word characters, then anything up to the next '>'.
func nextTag(src string, from int) (rawTag, bool) {
	for i := from; i < len(src); i++ {
		if src[i] != '<' {
			continue
		}
		j := i + 1
		closing := false
		if j < len(src) && src[j] == '/' {
			closing = true
			j++
		}
		nameStart := j
		for j < len(src) && isWordChar(src[j]) {
			j++
		}
		if j == nameStart {
			continue
		}
		gt := strings.IndexByte(src[j:], '>')
		if gt < 0 {
			return rawTag{}, false
		}
		return rawTag{
			name:    src[nameStart:j],
			closing: closing,
			start:   i,
			end:     j + gt + 1,
		}, true
	}
	return rawTag{}, false
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
