// Package transpiler rewrites markup blocks embedded in Go-like source into
// code that builds the equivalent Value trees.
package transpiler

import (
	"io"
	"log/slog"
	"strings"

	"github.com/mcncl/cppx/internal/analyzer"
	"github.com/mcncl/cppx/internal/config"
	"github.com/mcncl/cppx/internal/extractor"
	"github.com/mcncl/cppx/internal/formatter"
	"github.com/mcncl/cppx/internal/generator"
	"github.com/mcncl/cppx/internal/parser"
)

// Stats describes one Process run.
type Stats struct {
	Blocks   int // blocks found, duplicates included
	Distinct int // distinct block texts, each generated once
	Analysis analyzer.Result
}

// Transpiler wires extraction, parsing, generation and re-indentation
// together. It holds no per-call state and may be shared between goroutines.
type Transpiler struct {
	extractor *extractor.Extractor
	parser    *parser.Parser
	analyzer  *analyzer.Analyzer
	generator *generator.Generator
	formatter *formatter.Formatter
	preamble  string
	logger    *slog.Logger
}

// NewTranspiler creates a Transpiler with the default configuration.
func NewTranspiler() *Transpiler {
	return NewTranspilerWithConfig(config.NewConfig(), nil)
}

// NewTranspilerWithConfig creates a Transpiler from cfg. A nil logger
// discards debug output.
func NewTranspilerWithConfig(cfg *config.Config, logger *slog.Logger) *Transpiler {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	tags := extractor.NewTagSet(cfg.AllTags(extractor.DefaultTags)...)
	return &Transpiler{
		extractor: extractor.NewExtractor(tags),
		parser:    parser.NewParser(logger),
		analyzer:  analyzer.NewAnalyzerWithConfig(cfg),
		generator: generator.NewGeneratorWithConfig(cfg),
		formatter: formatter.NewFormatterWithConfig(cfg),
		preamble:  cfg.Preamble,
		logger:    logger,
	}
}

// Process returns src with every markup block replaced by generated code and
// the preamble prepended.
func (t *Transpiler) Process(src string) string {
	out, _ := t.ProcessWithStats(src)
	return out
}

// ProcessWithStats is Process that also reports what it replaced.
//
// Each distinct block text is generated once. Blocks are spliced back in
// source order, so identical blocks at different positions all receive the
// same code. The re-indented code starts where the block's '<' was, so
// "x := <p>..</p>" becomes "x := value.L{".
func (t *Transpiler) ProcessWithStats(src string) (string, Stats) {
	blocks := t.extractor.Extract(src)
	stats := Stats{Blocks: len(blocks)}

	generated := make(map[string]string, len(blocks))
	var sb strings.Builder
	sb.Grow(len(t.preamble) + 1 + len(src))
	sb.WriteString(t.preamble)
	sb.WriteString("\n")

	last := 0
	for _, b := range blocks {
		code, ok := generated[b.Text]
		if !ok {
			t.logger.Debug("extracted block", "tag", b.Tag, "offset", b.Start, "bytes", len(b.Text))
			root := t.parser.Parse(b.Text)
			analysis := t.analyzer.Analyze(root)
			for _, w := range analysis.Warnings {
				t.logger.Warn(w, "offset", b.Start)
			}
			stats.Analysis.Merge(analysis)
			code = t.formatter.Reindent(t.generator.Generate(root))
			generated[b.Text] = code
			stats.Distinct++
		}
		sb.WriteString(src[last:b.Start])
		sb.WriteString(code)
		last = b.End
	}
	sb.WriteString(src[last:])

	t.logger.Debug("transpiled source", "blocks", stats.Blocks, "distinct", stats.Distinct)
	return sb.String(), stats
}
