package cli_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCLI_FileInputOutput tests the CLI with file input and output
func TestCLI_FileInputOutput(t *testing.T) {
	tempDir := t.TempDir()

	source := `package page

func Card(title string) any {
	return <section class="card"><h2>{title}</h2></section>
}
`
	inputFile := filepath.Join(tempDir, "card.gox")
	require.NoError(t, os.WriteFile(inputFile, []byte(source), 0o644))
	outputFile := filepath.Join(tempDir, "card.go")

	cmd := exec.Command("go", "run", "../../main.go", "transpile", "-i", inputFile, "-o", outputFile, "-p", "ui")
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "CLI command failed: %s", string(output))
	assert.Contains(t, string(output), "Transpiled 1 block(s)")

	generated, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	code := string(generated)

	assert.True(t, strings.HasPrefix(code, "// Code generated by cppx. DO NOT EDIT."))
	assert.Contains(t, code, "return ui.L{")
	assert.Contains(t, code, `"class", "card",`)
	assert.Contains(t, code, "title,")
	assert.NotContains(t, code, "<section")
}

// TestCLI_StdinStdout tests the default command reading stdin
func TestCLI_StdinStdout(t *testing.T) {
	cmd := exec.Command("go", "run", "../../main.go")
	cmd.Stdin = strings.NewReader("x := <p>Hello, {name}!</p>\n")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	require.NoError(t, cmd.Run(), "stderr: %s", stderr.String())

	assert.Contains(t, stdout.String(), "x := value.L{\n\t\"p\", value.L{\n")
	assert.Contains(t, stdout.String(), "\t\t\t\"Hello,\", name, \"!\",\n")
}

// TestCLI_ExtraTag tests that -t extends the tag whitelist
func TestCLI_ExtraTag(t *testing.T) {
	cmd := exec.Command("go", "run", "../../main.go", "transpile", "-t", "card")
	cmd.Stdin = strings.NewReader("<card>{x}</card>")

	output, err := cmd.Output()
	require.NoError(t, err)
	assert.Contains(t, string(output), `"card", value.L{`)
}

// TestCLI_ConfigFile tests loading an explicit config file
func TestCLI_ConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "cppx.yml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
preamble: "// custom preamble"
naming:
  attribute_case: lower_camel
formatting:
  indent: "  "
`), 0o644))

	cmd := exec.Command("go", "run", "../../main.go", "--config", configFile)
	cmd.Stdin = strings.NewReader(`<div data-role="x"></div>`)

	output, err := cmd.Output()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(output), "// custom preamble\n"))
	assert.Contains(t, string(output), "\n  \"div\", value.L{\n    \"dataRole\", \"x\",\n")
}

// TestCLI_Build tests directory builds
func TestCLI_Build(t *testing.T) {
	tempDir := t.TempDir()
	srcDir := filepath.Join(tempDir, "src")
	outDir := filepath.Join(tempDir, "out")
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "pages"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "pages", "index.gox"), []byte("var Index = <p>hi</p>\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "logo.svg"), []byte("<svg/>"), 0o644))

	cmd := exec.Command("go", "run", "../../main.go", "build", "--src", srcDir, "--out", outDir)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "CLI command failed: %s", string(output))
	assert.Contains(t, string(output), "1 transpiled, 1 copied")

	index, err := os.ReadFile(filepath.Join(outDir, "pages", "index.go"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(index), "// Warning: This is a generated file. Do not modify directly.\n"))

	logo, err := os.ReadFile(filepath.Join(outDir, "logo.svg"))
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(logo))
}

// TestCLI_Value tests the value subcommand
func TestCLI_Value(t *testing.T) {
	cmd := exec.Command("go", "run", "../../main.go", "value")
	cmd.Stdin = strings.NewReader(`{"a":[1,2.5,"x\n"],"b":{}}`)

	output, err := cmd.Output()
	require.NoError(t, err)
	assert.Equal(t, `{"a": [1, 2.5, "x\n"], "b": {}}`+"\n", string(output))
}

// TestCLI_InvalidValue tests error reporting for a bad document
func TestCLI_InvalidValue(t *testing.T) {
	cmd := exec.Command("go", "run", "../../main.go", "value", "--check")
	cmd.Stdin = strings.NewReader(`[1, 2`)

	output, err := cmd.CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, string(output), "Value parsing error: invalid Value document")
}

// TestCLI_ValueSchema tests schema validation from the value subcommand
func TestCLI_ValueSchema(t *testing.T) {
	schemaFile := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(schemaFile, []byte(`{"type": "array", "items": {"type": "integer"}}`), 0o644))

	cmd := exec.Command("go", "run", "../../main.go", "value", "--schema", schemaFile)
	cmd.Stdin = strings.NewReader(`[1, "x"]`)

	output, err := cmd.CombinedOutput()
	assert.Error(t, err)
	assert.Regexp(t, `(?m)^1: `, string(output))
	assert.Contains(t, string(output), "Schema validation error: 1 schema violation(s)")
}

// TestCLI_EmptyInput tests the error for empty stdin
func TestCLI_EmptyInput(t *testing.T) {
	cmd := exec.Command("go", "run", "../../main.go")
	cmd.Stdin = strings.NewReader("")

	output, err := cmd.CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, string(output), "Input error: empty input received from stdin")
}

// TestCLI_MissingFile tests the error for a missing input file
func TestCLI_MissingFile(t *testing.T) {
	cmd := exec.Command("go", "run", "../../main.go", "transpile", "-i", "/non/existent/page.gox")

	output, err := cmd.CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, string(output), "Input error: cannot read")
}

// TestCLI_Version tests the version flag
func TestCLI_Version(t *testing.T) {
	cmd := exec.Command("go", "run", "../../main.go", "-v")
	output, err := cmd.CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(output), "cppx version")
}

// TestCLI_Help tests the help flag
func TestCLI_Help(t *testing.T) {
	cmd := exec.Command("go", "run", "../../main.go", "--help")
	output, err := cmd.CombinedOutput()
	require.NoError(t, err)

	help := string(output)
	assert.Contains(t, help, "Usage: cppx")
	assert.Contains(t, help, "transpile")
	assert.Contains(t, help, "build")
	assert.Contains(t, help, "value")
}
