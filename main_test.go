package main

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/cppx/internal/config"
	"github.com/mcncl/cppx/internal/errors"
	"github.com/mcncl/cppx/value"
)

type testIO struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newTestContext(t *testing.T, stdin string, cfg *config.Config) (*Context, *testIO) {
	t.Helper()
	if cfg == nil {
		cfg = config.NewConfig()
	}
	out := &testIO{}
	return &Context{
		Config: cfg,
		Logger: newLogger(cfg.Dev.Debug, &out.stderr),
		Stdin:  strings.NewReader(stdin),
		Stdout: &out.stdout,
		Stderr: &out.stderr,
	}, out
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTranspile_FromStdin(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Preamble = "// gen"
	ctx, out := newTestContext(t, "x := <p>Hello, {name}!</p>\n", cfg)

	require.NoError(t, (&TranspileCmd{}).Run(ctx))

	expected := strings.Join([]string{
		"// gen",
		"x := value.L{",
		`	"p", value.L{`,
		`		"children", value.A{`,
		`			"Hello,", name, "!",`,
		`		},`,
		`	},`,
		`}`,
		``,
	}, "\n")
	assert.Equal(t, expected, out.stdout.String())
}

func TestTranspile_FileToFile(t *testing.T) {
	input := writeTemp(t, "page.gox", "package page\n\nvar Nav = <nav>{links}</nav>\n")
	output := filepath.Join(t.TempDir(), "page.go")

	cfg := config.NewConfig()
	cfg.Formatting.Gofmt = true
	ctx, out := newTestContext(t, "", cfg)

	require.NoError(t, (&TranspileCmd{Input: input, Output: output}).Run(ctx))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "var Nav = value.L{\n\t\"nav\", value.L{\n")
	assert.Contains(t, out.stderr.String(), "Transpiled 1 block(s) into "+output)
	assert.Empty(t, out.stdout.String())
}

func TestTranspile_GofmtFailure(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Formatting.Gofmt = true
	ctx, _ := newTestContext(t, "not go at all <p>x</p>", cfg)

	err := (&TranspileCmd{}).Run(ctx)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeFormat}))
}

func TestTranspile_DebugLogging(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Dev.Debug = true
	ctx, out := newTestContext(t, "<p>x</p>", cfg)

	require.NoError(t, (&TranspileCmd{}).Run(ctx))
	assert.Contains(t, out.stderr.String(), "level=DEBUG")
	assert.Contains(t, out.stderr.String(), "extracted block")
}

func TestTranspile_Stats(t *testing.T) {
	ctx, out := newTestContext(t, "a := <p>{x}</p>\nb := <p>{x}</p>\n", nil)

	require.NoError(t, (&TranspileCmd{Stats: true}).Run(ctx))
	assert.Equal(t, strings.Join([]string{
		"Blocks: 2 (1 distinct)",
		"Elements: 1, max depth 1",
		"  <p> x1",
		"Identifiers: x",
		"",
	}, "\n"), out.stderr.String())
}

func TestTranspile_WarningsShownWithoutDebug(t *testing.T) {
	ctx, out := newTestContext(t, "<div>a</span></div>", nil)

	require.NoError(t, (&TranspileCmd{}).Run(ctx))
	assert.Contains(t, out.stderr.String(), "level=WARN")
	assert.Contains(t, out.stderr.String(), "stray closing tag </span> inside <div> kept as text")
	assert.NotContains(t, out.stderr.String(), "level=DEBUG")
}

func TestReadInput(t *testing.T) {
	t.Run("from file", func(t *testing.T) {
		ctx, _ := newTestContext(t, "", nil)
		got, err := readInput(ctx, writeTemp(t, "in.gox", "content"))
		require.NoError(t, err)
		assert.Equal(t, "content", got)
	})

	t.Run("missing file", func(t *testing.T) {
		ctx, _ := newTestContext(t, "", nil)
		_, err := readInput(ctx, "/non/existent/file.gox")
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrFileNotFound))
		assert.Equal(t, "Input error: cannot read '/non/existent/file.gox'", errors.UserFriendlyError(err))
	})

	t.Run("empty stdin", func(t *testing.T) {
		ctx, _ := newTestContext(t, "  \n", nil)
		_, err := readInput(ctx, "")
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrEmptyInput))
	})

	t.Run("stdin", func(t *testing.T) {
		ctx, _ := newTestContext(t, "piped", nil)
		got, err := readInput(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, "piped", got)
	})
}

func TestReadInteractiveInput(t *testing.T) {
	ctx, out := newTestContext(t, "line one\nline two", nil)

	got, err := readInteractiveInput(ctx)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", got)
	assert.Contains(t, out.stderr.String(), "Interactive Mode")

	ctx, _ = newTestContext(t, "", nil)
	_, err = readInteractiveInput(ctx)
	assert.True(t, stderrors.Is(err, errors.ErrEmptyInput))
}

func TestWriteOutput(t *testing.T) {
	t.Run("stdout gets one trailing newline", func(t *testing.T) {
		ctx, out := newTestContext(t, "", nil)
		require.NoError(t, writeOutput(ctx, "", "code\n\n"))
		assert.Equal(t, "code\n", out.stdout.String())
	})

	t.Run("file is written as is", func(t *testing.T) {
		ctx, _ := newTestContext(t, "", nil)
		path := filepath.Join(t.TempDir(), "out.go")
		require.NoError(t, writeOutput(ctx, path, "code"))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "code", string(data))
	})

	t.Run("unwritable file", func(t *testing.T) {
		ctx, _ := newTestContext(t, "", nil)
		err := writeOutput(ctx, "/non/existent/dir/out.go", "code")
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeOutput}))
	})
}

func TestBuildCmd(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.gox"), []byte("var A = <p>a</p>\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "b.txt"), []byte("b"), 0o644))

	ctx, out := newTestContext(t, "", nil)
	require.NoError(t, (&BuildCmd{Src: src, Out: dst}).Run(ctx))

	assert.Equal(t, "Built "+dst+": 1 transpiled, 1 copied\n", out.stderr.String())
	_, err := os.Stat(filepath.Join(dst, "a.go"))
	assert.NoError(t, err)
}

func TestValueCmd(t *testing.T) {
	doc := `{"name":"cppx","tags":["a","b"],"meta":{"stars":3,"ratio":0.5,"ok":true,"none":null}}`

	t.Run("canonical form", func(t *testing.T) {
		ctx, out := newTestContext(t, doc, nil)
		require.NoError(t, (&ValueCmd{}).Run(ctx))
		assert.Equal(t,
			`{"name": "cppx", "tags": ["a", "b"], "meta": {"stars": 3, "ratio": 0.5, "ok": true, "none": null}}`+"\n",
			out.stdout.String())
	})

	t.Run("check only", func(t *testing.T) {
		ctx, out := newTestContext(t, doc, nil)
		require.NoError(t, (&ValueCmd{Check: true}).Run(ctx))
		assert.Empty(t, out.stdout.String())
		assert.Equal(t, "valid\n", out.stderr.String())
	})

	t.Run("path lookup", func(t *testing.T) {
		ctx, out := newTestContext(t, doc, nil)
		require.NoError(t, (&ValueCmd{Get: "tags.1"}).Run(ctx))
		assert.Equal(t, `"b"`+"\n", out.stdout.String())
	})

	t.Run("missing key", func(t *testing.T) {
		ctx, _ := newTestContext(t, doc, nil)
		err := (&ValueCmd{Get: "meta.forks"}).Run(ctx)
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, value.ErrKeyNotFound))
	})

	t.Run("bad index", func(t *testing.T) {
		ctx, _ := newTestContext(t, doc, nil)
		err := (&ValueCmd{Get: "tags.x"}).Run(ctx)
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, value.ErrIndexOutOfRange))
	})

	t.Run("syntax error", func(t *testing.T) {
		ctx, _ := newTestContext(t, `{"a": 1} trailing`, nil)
		err := (&ValueCmd{}).Run(ctx)
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, value.ErrTrailingData))
		assert.Contains(t, errors.UserFriendlyError(err), "at offset 9")
	})
}

func TestValueCmd_Schema(t *testing.T) {
	doc := `{"name":"cppx","tags":["a",1],"stars":-1}`
	schemaFile := writeTemp(t, "schema.yml", `
type: object
required: [name, license]
properties:
  name: {type: string}
  tags: {type: array, items: {type: string}}
  stars: {type: integer, minimum: 0}
`)

	t.Run("violations", func(t *testing.T) {
		ctx, out := newTestContext(t, doc, nil)
		err := (&ValueCmd{Schema: schemaFile}).Run(ctx)
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeValidation}))
		assert.Equal(t, "Schema validation error: 3 schema violation(s)", errors.UserFriendlyError(err))
		lines := strings.Split(strings.TrimSuffix(out.stderr.String(), "\n"), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "(root): "), lines[0])
		assert.Contains(t, lines[0], "license")
		assert.True(t, strings.HasPrefix(lines[1], "stars: "), lines[1])
		assert.True(t, strings.HasPrefix(lines[2], "tags.1: "), lines[2])
		assert.Empty(t, out.stdout.String())
	})

	t.Run("valid document", func(t *testing.T) {
		ctx, out := newTestContext(t, `{"name":"cppx","license":"MIT"}`, nil)
		require.NoError(t, (&ValueCmd{Schema: schemaFile, Check: true}).Run(ctx))
		assert.Equal(t, "valid\n", out.stderr.String())
	})

	t.Run("broken schema", func(t *testing.T) {
		broken := writeTemp(t, "broken.json", `{"$ref": "#/definitions/missing"}`)
		ctx, _ := newTestContext(t, doc, nil)
		err := (&ValueCmd{Schema: broken}).Run(ctx)
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeInput}))
		assert.Contains(t, errors.UserFriendlyError(err), "cannot load schema")
	})

	t.Run("missing schema", func(t *testing.T) {
		ctx, _ := newTestContext(t, doc, nil)
		err := (&ValueCmd{Schema: filepath.Join(t.TempDir(), "none.json")}).Run(ctx)
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeInput}))
	})
}

func TestLookup(t *testing.T) {
	v := value.MustParse(`{"a": [{"b": 1}]}`)

	got, err := lookup(v, "a.0.b")
	require.NoError(t, err)
	assert.True(t, got.Equal(value.Int(1)))

	_, err = lookup(v, "a.5")
	assert.True(t, stderrors.Is(err, value.ErrIndexOutOfRange))

	_, err = lookup(v, "a.0.b.c")
	assert.True(t, stderrors.Is(err, value.ErrNotAnObject))
}

func TestNewContext(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	path := writeTemp(t, ".cppx.yml", "generator:\n  package: fromfile\n")
	CLI.Config = path
	CLI.Package = ""
	CLI.Tag = []string{"widget"}
	CLI.Debug = true

	var stderr bytes.Buffer
	ctx, err := newContext(strings.NewReader(""), &bytes.Buffer{}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "fromfile", ctx.Config.Generator.Package)
	assert.Equal(t, []string{"widget"}, ctx.Config.ExtraTags)
	assert.True(t, ctx.Config.Dev.Debug)

	CLI.Config = "/non/existent/cppx.yml"
	_, err = newContext(strings.NewReader(""), &bytes.Buffer{}, &stderr)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeConfig}))
}

func TestCLIParsing(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	parser, err := kong.New(&CLI, kong.Name("cppx"), kong.Vars{"version": Version})
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"build", "--src", "site", "--out", "dist", "-t", "widget"})
	require.NoError(t, err)
	assert.Equal(t, "build", ctx.Command())
	assert.Equal(t, []string{"widget"}, CLI.Tag)
	assert.True(t, strings.HasSuffix(CLI.Build.Out, "dist"))

	ctx, err = parser.Parse([]string{"-i", "page.gox"})
	require.NoError(t, err)
	assert.Equal(t, "transpile", ctx.Command())
	assert.True(t, strings.HasSuffix(CLI.Transpile.Input, "page.gox"))

	ctx, err = parser.Parse([]string{"value", "--check", "-s", "schema.json"})
	require.NoError(t, err)
	assert.Equal(t, "value", ctx.Command())
	assert.True(t, CLI.Value.Check)
	assert.True(t, strings.HasSuffix(CLI.Value.Schema, "schema.json"))

	_, err = parser.Parse([]string{"transpile", "--stats"})
	require.NoError(t, err)
	assert.True(t, CLI.Transpile.Stats)
}
