package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"
)

// DefaultPreamble is prepended to every transpiled source.
const DefaultPreamble = "// Code generated by cppx. DO NOT EDIT.\n" +
	"// Any manual changes may be overwritten in future updates.\n"

// DefaultFileHeader starts every Go file the build driver writes.
const DefaultFileHeader = "// Warning: This is a generated file. Do not modify directly.\n"

// Attribute case policies
const (
	CaseNone       = "none"
	CaseCamel      = "camel"
	CaseLowerCamel = "lower_camel"
	CaseSnake      = "snake"
	CaseKebab      = "kebab"
)

// Config represents the complete configuration for cppx
type Config struct {
	Tags       []string         `yaml:"tags"`
	ExtraTags  []string         `yaml:"extra_tags"`
	Preamble   string           `yaml:"preamble"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Formatting FormattingConfig `yaml:"formatting"`
	Naming     NamingConfig     `yaml:"naming"`
	Output     OutputConfig     `yaml:"output"`
	Dev        DevConfig        `yaml:"dev"`
}

// GeneratorConfig controls the shape of generated code
type GeneratorConfig struct {
	// Package is the qualifier used for the L and A literal types.
	Package string `yaml:"package"`
}

// FormattingConfig controls re-indentation of generated code
type FormattingConfig struct {
	Indent string `yaml:"indent"`
	Gofmt  bool   `yaml:"gofmt"`
}

// NamingConfig controls how attribute names appear in generated code
type NamingConfig struct {
	AttributeCase     string            `yaml:"attribute_case"`
	AttributeMappings map[string]string `yaml:"attribute_mappings"`
	Skip              []SkipRule        `yaml:"skip"`
}

// SkipRule drops attributes whose name matches Pattern
type SkipRule struct {
	Pattern string `yaml:"pattern"`
	Comment string `yaml:"comment,omitempty"`

	// compiled regex (not serialized)
	regex *regexp.Regexp
}

// OutputConfig controls the build driver
type OutputConfig struct {
	FileHeader string `yaml:"file_header"`
	SourceExt  string `yaml:"source_ext"`
	TargetExt  string `yaml:"target_ext"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug bool `yaml:"debug"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Tags:     nil, // nil selects the built-in whitelist
		Preamble: DefaultPreamble,
		Generator: GeneratorConfig{
			Package: "value",
		},
		Formatting: FormattingConfig{
			Indent: "\t",
			Gofmt:  false,
		},
		Naming: NamingConfig{
			AttributeCase:     CaseNone,
			AttributeMappings: make(map[string]string),
		},
		Output: OutputConfig{
			FileHeader: DefaultFileHeader,
			SourceExt:  ".gox",
			TargetExt:  ".go",
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.CompilePatterns(); err != nil {
		return nil, fmt.Errorf("failed to compile patterns: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".cppx.yml", ".cppx.yaml", "cppx.yml", "cppx.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate checks option values that YAML decoding cannot
func (c *Config) Validate() error {
	switch c.Naming.AttributeCase {
	case "", CaseNone, CaseCamel, CaseLowerCamel, CaseSnake, CaseKebab:
	default:
		return fmt.Errorf("invalid naming.attribute_case %q: want one of none, camel, lower_camel, snake, kebab", c.Naming.AttributeCase)
	}
	if strings.Trim(c.Formatting.Indent, " \t") != "" {
		return fmt.Errorf("invalid formatting.indent %q: must contain only spaces or tabs", c.Formatting.Indent)
	}
	if c.Generator.Package == "" {
		return fmt.Errorf("generator.package must not be empty")
	}
	for _, ext := range []string{c.Output.SourceExt, c.Output.TargetExt} {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("invalid extension %q: must start with '.'", ext)
		}
	}
	if c.Output.SourceExt == c.Output.TargetExt {
		return fmt.Errorf("output.source_ext and output.target_ext must differ")
	}
	return nil
}

// CompilePatterns compiles every skip pattern. LoadConfig calls it; configs
// built in code should call it before the config is shared.
func (c *Config) CompilePatterns() error {
	for i := range c.Naming.Skip {
		rule := &c.Naming.Skip[i]
		regex, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return fmt.Errorf("invalid skip pattern '%s': %w", rule.Pattern, err)
		}
		rule.regex = regex
	}
	return nil
}

// MatchesAttribute checks if this rule matches the given attribute name. An
// uncompiled rule is compiled for this call only, so the rule is never written.
func (r *SkipRule) MatchesAttribute(name string) bool {
	regex := r.compiled()
	return regex != nil && regex.MatchString(name)
}

func (r *SkipRule) compiled() *regexp.Regexp {
	if r.regex != nil {
		return r.regex
	}
	regex, err := regexp.Compile(r.Pattern)
	if err != nil {
		return nil
	}
	return regex
}

// SkipPatterns returns the compiled skip patterns, leaving out invalid ones
func (c *Config) SkipPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(c.Naming.Skip))
	for i := range c.Naming.Skip {
		if regex := c.Naming.Skip[i].compiled(); regex != nil {
			patterns = append(patterns, regex)
		}
	}
	return patterns
}

// AllTags returns the effective tag whitelist: Tags (or nil for the built-in
// list) followed by ExtraTags.
func (c *Config) AllTags(builtin []string) []string {
	base := c.Tags
	if len(base) == 0 {
		base = builtin
	}
	all := make([]string, 0, len(base)+len(c.ExtraTags))
	all = append(all, base...)
	return append(all, c.ExtraTags...)
}

// AttributeName returns the name an attribute gets in generated code
func (c *Config) AttributeName(name string) string {
	// Check custom mappings first
	if mapped, exists := c.Naming.AttributeMappings[name]; exists {
		return mapped
	}

	switch c.Naming.AttributeCase {
	case CaseCamel:
		return strcase.ToCamel(name)
	case CaseLowerCamel:
		return strcase.ToLowerCamel(name)
	case CaseSnake:
		return strcase.ToSnake(name)
	case CaseKebab:
		return strcase.ToKebab(name)
	default:
		return name
	}
}

// ShouldSkipAttribute checks if an attribute is left out of generated code
func (c *Config) ShouldSkipAttribute(name string) bool {
	for i := range c.Naming.Skip {
		if c.Naming.Skip[i].MatchesAttribute(name) {
			return true
		}
	}
	return false
}

// LoadConfigWithCLI loads config with CLI argument precedence
func LoadConfigWithCLI(configPath, cliPackage string, cliTags []string, cliDebug bool) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	// An empty value means the flag was not given
	if cliPackage != "" {
		cfg.Generator.Package = cliPackage
	}
	if len(cliTags) > 0 {
		cfg.ExtraTags = append(cfg.ExtraTags, cliTags...)
	}
	// A flag can only switch debugging on
	if cliDebug {
		cfg.Dev.Debug = true
	}

	return cfg, nil
}
