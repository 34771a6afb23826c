// Package schema validates Value documents against a JSON Schema
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/cppx/value"
)

// inlineURL names schemas that were not read from a file
const inlineURL = "file:///cppx/inline-schema.json"

var printer = message.NewPrinter(language.English)

// Schema is a compiled JSON Schema. It is safe for concurrent use.
type Schema struct {
	compiled *jsonschema.Schema
}

// ParseFile reads and compiles a schema from a file. Files ending in .yaml or
// .yml are read as YAML, anything else as JSON. Relative $refs resolve
// against the file's directory.
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema path: %w", err)
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = decodeYAML(data)
	default:
		doc, err = decodeJSON(data)
	}
	if err != nil {
		return nil, err
	}
	return compile(abs, doc)
}

// ParseBytes compiles a JSON Schema from bytes
func ParseBytes(data []byte) (*Schema, error) {
	doc, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	return compile(inlineURL, doc)
}

// ParseString compiles a JSON Schema from a string
func ParseString(s string) (*Schema, error) {
	return ParseBytes([]byte(s))
}

// ParseYAML compiles a schema written as YAML
func ParseYAML(data []byte) (*Schema, error) {
	doc, err := decodeYAML(data)
	if err != nil {
		return nil, err
	}
	return compile(inlineURL, doc)
}

func decodeJSON(data []byte) (any, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON Schema: %w", err)
	}
	return doc, nil
}

func decodeYAML(data []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML schema: %w", err)
	}
	// Round-trip through JSON so numbers arrive as json.Number
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML schema: %w", err)
	}
	return decodeJSON(encoded)
}

func compile(url string, doc any) (*Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Violation is one failed constraint
type Violation struct {
	Path    string // dot-separated path of keys and indexes, empty for the root
	Keyword string // failing keyword, e.g. "required" or "items"
	Message string
}

func (v Violation) String() string {
	if v.Path == "" {
		return "(root): " + v.Message
	}
	return v.Path + ": " + v.Message
}

// Validate returns every violation found in v, ordered by path. The error is
// non-nil only when v cannot be checked at all.
func (s *Schema) Validate(v value.Value) ([]Violation, error) {
	inst, err := instance(v)
	if err != nil {
		return nil, err
	}

	err = s.compiled.Validate(inst)
	if err == nil {
		return nil, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, err
	}

	var out []Violation
	collect(verr, &out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// collect appends the leaves of the error tree
func collect(verr *jsonschema.ValidationError, out *[]Violation) {
	if len(verr.Causes) > 0 {
		for _, cause := range verr.Causes {
			collect(cause, out)
		}
		return
	}
	*out = append(*out, Violation{
		Path:    strings.Join(verr.InstanceLocation, "."),
		Keyword: strings.Join(verr.ErrorKind.KeywordPath(), "/"),
		Message: verr.ErrorKind.LocalizedString(printer),
	})
}

// instance converts v to the decoded-JSON shape the validator expects.
// Objects keep the first member of a duplicated key, as Value.Get does.
func instance(v value.Value) (any, error) {
	switch v.Kind() {
	case value.KindNull:
		return nil, nil
	case value.KindBoolean:
		b, _ := v.AsBool()
		return b, nil
	case value.KindInteger, value.KindFloating:
		text, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		return json.Number(text), nil
	case value.KindString:
		s, _ := v.AsString()
		return s, nil
	case value.KindArray:
		elems, _ := v.AsArray()
		arr := make([]any, len(elems))
		for i, elem := range elems {
			item, err := instance(elem)
			if err != nil {
				return nil, fmt.Errorf("%d: %w", i, err)
			}
			arr[i] = item
		}
		return arr, nil
	case value.KindObject:
		members, _ := v.AsObject()
		obj := make(map[string]any, len(members))
		for _, m := range members {
			if _, dup := obj[m.Key]; dup {
				continue
			}
			item, err := instance(m.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", m.Key, err)
			}
			obj[m.Key] = item
		}
		return obj, nil
	}
	return nil, fmt.Errorf("%w: %s", value.ErrUnsupportedType, v.Kind())
}
