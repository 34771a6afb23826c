package main

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/mcncl/cppx/internal/build"
	"github.com/mcncl/cppx/internal/config"
	"github.com/mcncl/cppx/internal/errors"
	"github.com/mcncl/cppx/internal/formatter"
	"github.com/mcncl/cppx/internal/schema"
	"github.com/mcncl/cppx/internal/transpiler"
	"github.com/mcncl/cppx/value"
)

// CLI defines the command-line interface
var CLI struct {
	Config      string           `help:"Path to config file. Defaults to the nearest .cppx.yml." short:"c" type:"path"`
	Package     string           `help:"Package qualifier for generated literals." short:"p"`
	Tag         []string         `help:"Extra markup tag to recognize. Repeatable." short:"t"`
	Debug       bool             `help:"Enable debug logging." short:"d"`
	Interactive bool             `help:"Read input from the terminal until Ctrl+D." short:"I"`
	Version     kong.VersionFlag `help:"Show version information." short:"v"`

	Transpile TranspileCmd `cmd:"" default:"withargs" help:"Rewrite markup blocks in one source file."`
	Build     BuildCmd     `cmd:"" help:"Transpile a source tree into an output tree."`
	Value     ValueCmd     `cmd:"" help:"Parse a Value document and print it in canonical form."`
}

// Context holds the runtime context
type Context struct {
	Config *config.Config
	Logger *slog.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	// Parse CLI arguments with Kong
	parser := kong.Must(&CLI,
		kong.Name("cppx"),
		kong.Description("Transpile embedded markup into Value construction code"),
		kong.UsageOnError(),
		kong.Vars{"version": "cppx version " + Version},
	)

	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		// If there's an error parsing arguments, the usage will already be shown by kong.UsageOnError()
		os.Exit(1)
	}

	appCtx, err := newContext(os.Stdin, os.Stdout, os.Stderr)
	if err == nil {
		err = ctx.Run(appCtx)
	}
	if err != nil {
		// Use our custom error handling to provide user-friendly error messages
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: cppx --help\n")
		os.Exit(1)
	}
}

// newContext loads configuration with flag precedence and sets up logging
func newContext(stdin io.Reader, stdout, stderr io.Writer) (*Context, error) {
	configPath := CLI.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.LoadConfigWithCLI(configPath, CLI.Package, CLI.Tag, CLI.Debug)
	if err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("failed to load config '%s'", configPath), err)
	}

	return &Context{
		Config: cfg,
		Logger: newLogger(cfg.Dev.Debug, stderr),
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}, nil
}

// newLogger returns a text logger writing to w. Only warnings are shown unless
// debugging is on.
func newLogger(debug bool, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// TranspileCmd rewrites a single source
type TranspileCmd struct {
	Input  string `help:"Path to input source. If not specified, reads from stdin." short:"i" type:"path"`
	Output string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	Stats  bool   `help:"Print block and markup statistics to stderr."`
}

// Run transpiles the input and writes the result
func (c *TranspileCmd) Run(ctx *Context) error {
	src, err := readInput(ctx, c.Input)
	if err != nil {
		return err
	}

	tr := transpiler.NewTranspilerWithConfig(ctx.Config, ctx.Logger)
	code, stats := tr.ProcessWithStats(src)

	if ctx.Config.Formatting.Gofmt {
		code, err = formatter.NewFormatterWithConfig(ctx.Config).Format(code)
		if err != nil {
			return errors.NewFormatError("transpiled output is not valid Go", err)
		}
	}

	if err := writeOutput(ctx, c.Output, code); err != nil {
		return err
	}
	if c.Output != "" {
		fmt.Fprintf(ctx.Stderr, "Transpiled %d block(s) into %s\n", stats.Blocks, c.Output)
	}
	if c.Stats {
		printStats(ctx.Stderr, stats)
	}
	return nil
}

// printStats writes a short summary of a transpile run
func printStats(w io.Writer, stats transpiler.Stats) {
	a := stats.Analysis
	fmt.Fprintf(w, "Blocks: %d (%d distinct)\n", stats.Blocks, stats.Distinct)
	fmt.Fprintf(w, "Elements: %d, max depth %d\n", a.Elements, a.MaxDepth)

	tags := make([]string, 0, len(a.Tags))
	for tag := range a.Tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		fmt.Fprintf(w, "  <%s> x%d\n", tag, a.Tags[tag])
	}
	if len(a.Identifiers) > 0 {
		fmt.Fprintf(w, "Identifiers: %s\n", strings.Join(a.Identifiers, ", "))
	}
	if len(a.Warnings) > 0 {
		fmt.Fprintf(w, "Warnings: %d\n", len(a.Warnings))
	}
}

// BuildCmd mirrors a source directory into an output directory
type BuildCmd struct {
	Src string `help:"Source directory." default:"src" type:"path"`
	Out string `help:"Output directory." default:".cppx" type:"path"`
}

// Run builds the tree
func (c *BuildCmd) Run(ctx *Context) error {
	result, err := build.NewBuilder(ctx.Config, ctx.Logger).Build(c.Src, c.Out)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Stderr, "Built %s: %d transpiled, %d copied\n",
		c.Out, len(result.Transpiled), len(result.Copied))
	return nil
}

// ValueCmd parses and re-serializes a Value document
type ValueCmd struct {
	Input  string `help:"Path to Value document. If not specified, reads from stdin." short:"i" type:"path"`
	Check  bool   `help:"Only validate the document."`
	Get    string `help:"Dot-separated path to print instead of the whole document, e.g. items.0.name." short:"g"`
	Schema string `help:"Validate the document against a JSON Schema file (.json, .yaml or .yml)." short:"s" type:"path"`
}

// Run parses the document and prints it
func (c *ValueCmd) Run(ctx *Context) error {
	text, err := readInput(ctx, c.Input)
	if err != nil {
		return err
	}

	v, err := value.Parse(text)
	if err != nil {
		return errors.NewParsingError("invalid Value document", err)
	}
	ctx.Logger.Debug("parsed value", "kind", v.Kind(), "len", v.Len())

	if c.Schema != "" {
		if err := validateSchema(ctx, c.Schema, v); err != nil {
			return err
		}
	}

	if c.Check {
		fmt.Fprintln(ctx.Stderr, "valid")
		return nil
	}

	if c.Get != "" {
		v, err = lookup(v, c.Get)
		if err != nil {
			return errors.NewInputError(fmt.Sprintf("cannot resolve path '%s'", c.Get), err)
		}
	}

	return writeOutput(ctx, "", v.Stringify())
}

// validateSchema checks v against the schema at path and lists every
// violation on stderr
func validateSchema(ctx *Context, path string, v value.Value) error {
	s, err := schema.ParseFile(path)
	if err != nil {
		return errors.NewInputError(fmt.Sprintf("cannot load schema '%s'", path), err)
	}

	violations, err := s.Validate(v)
	if err != nil {
		return errors.NewInputError(fmt.Sprintf("cannot check document against schema '%s'", path), err)
	}
	if len(violations) == 0 {
		return nil
	}
	for _, violation := range violations {
		fmt.Fprintln(ctx.Stderr, violation)
	}
	return errors.NewValidationError(fmt.Sprintf("%d schema violation(s)", len(violations)), nil)
}

// lookup walks a dot-separated path of object keys and array indexes
func lookup(v value.Value, path string) (value.Value, error) {
	for _, part := range strings.Split(path, ".") {
		var err error
		if v.Kind() == value.KindArray {
			i, convErr := strconv.Atoi(part)
			if convErr != nil {
				return value.Value{}, fmt.Errorf("%q is not an array index: %w", part, value.ErrIndexOutOfRange)
			}
			v, err = v.Index(i)
		} else {
			v, err = v.Get(part)
		}
		if err != nil {
			return value.Value{}, err
		}
	}
	return v, nil
}

// readInput reads from a file, or from stdin when path is empty
func readInput(ctx *Context, path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if stderrors.Is(err, fs.ErrNotExist) {
			return "", errors.NewInputError(fmt.Sprintf("cannot read '%s'", path), errors.ErrFileNotFound)
		}
		if err != nil {
			return "", errors.NewInputError(fmt.Sprintf("cannot read '%s'", path), err)
		}
		return string(data), nil
	}

	// A terminal on stdin means nothing was piped
	if f, ok := ctx.Stdin.(*os.File); ok {
		info, err := f.Stat()
		if err != nil {
			return "", errors.NewInputError("failed to access stdin", err)
		}
		if info.Mode()&os.ModeCharDevice != 0 {
			if !CLI.Interactive {
				return "", errors.NewInputError("no input provided", errors.ErrNoInput)
			}
			return readInteractiveInput(ctx)
		}
	}

	data, err := io.ReadAll(ctx.Stdin)
	if err != nil {
		return "", errors.NewInputError("failed to read from stdin", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return string(data), nil
}

// readInteractiveInput lets users paste input and signal completion with
// Ctrl+D (EOF)
func readInteractiveInput(ctx *Context) (string, error) {
	fmt.Fprintln(ctx.Stderr, "cppx Interactive Mode")
	fmt.Fprintln(ctx.Stderr, "Paste your input below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	reader := bufio.NewReader(ctx.Stdin)
	var sb strings.Builder
	for {
		line, err := reader.ReadString('\n')
		sb.WriteString(line)
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.NewInputError("error reading input", err)
		}
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}
	fmt.Fprintln(ctx.Stderr, "\nProcessing...")
	return sb.String(), nil
}

// writeOutput writes text to a file, or to stdout when path is empty
func writeOutput(ctx *Context, path, text string) error {
	if path != "" {
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", path), err)
		}
		return nil
	}

	if _, err := fmt.Fprintln(ctx.Stdout, strings.TrimRight(text, "\n")); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}
