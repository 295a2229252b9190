// Package structured coerces free-form model output into a validated schema.
package structured

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

var (
	// ErrUnknownSchema is returned by Lookup for an unregistered name.
	ErrUnknownSchema = errors.New("structured: unknown schema")
	// ErrCoerce is returned when model output cannot be coerced into the schema.
	ErrCoerce = errors.New("structured: output does not match schema")
)

// Schema is a named, compiled response schema.
type Schema struct {
	Name   string
	Source string
	// numeric lists top-level fields that models sometimes quote ("0.9").
	numeric  []string
	compiled *jsonschema.Schema
}

var registry = map[string]*Schema{}

func register(name, source string, numeric ...string) {
	url := fmt.Sprintf("https://beliefd.local/schemas/structured/%s.schema.json", name)
	registry[name] = &Schema{
		Name:     name,
		Source:   source,
		numeric:  numeric,
		compiled: jsonschema.MustCompileString(url, source),
	}
}

func init() {
	register("basic", basicSchemaJSON)
	register("detailed", detailedSchemaJSON, "confidence")
	register("informational", informationalSchemaJSON)
}

// Names lists the registered schema names.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the schema registered under name (case-insensitive).
func Lookup(name string) (*Schema, error) {
	s, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownSchema, name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// FormatInstructions tells the model how to shape its answer.
func (s *Schema) FormatInstructions() string {
	return "The output should be formatted as a JSON instance that conforms to the JSON schema below.\n\n" +
		"As an example, for the schema {\"properties\": {\"foo\": {\"type\": \"array\", \"items\": {\"type\": \"string\"}}}, \"required\": [\"foo\"]}\n" +
		"the object {\"foo\": [\"bar\", \"baz\"]} is a well-formatted instance of the schema. " +
		"The object {\"properties\": {\"foo\": [\"bar\", \"baz\"]}} is not well-formatted.\n\n" +
		"Here is the output schema:\n```\n" + s.Source + "\n```"
}

// Prompt wraps a user query with the format instructions.
func (s *Schema) Prompt(query string) string {
	return "Answer the user query.\n" + s.FormatInstructions() + "\n" + query + "\n"
}

// Coerce finds the first JSON object in raw that validates against the
// schema. Fenced code blocks and surrounding prose are tolerated.
func (s *Schema) Coerce(raw string) (map[string]any, error) {
	var lastErr error
	for _, cand := range candidates(raw) {
		v, ok := gjson.Parse(cand).Value().(map[string]any)
		if !ok {
			continue
		}
		s.sanitize(v)
		if err := s.compiled.Validate(v); err != nil {
			lastErr = err
			continue
		}
		return v, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w (%s): %v", ErrCoerce, s.Name, lastErr)
	}
	return nil, fmt.Errorf("%w (%s): no JSON object found", ErrCoerce, s.Name)
}

func (s *Schema) sanitize(v map[string]any) {
	for _, k := range s.numeric {
		if str, ok := v[k].(string); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
				v[k] = f
			}
		}
	}
}

// candidates returns the valid JSON objects in raw, fenced blocks first.
func candidates(raw string) []string {
	raw = strings.TrimSpace(raw)
	var out []string
	seen := map[string]bool{}
	add := func(c string) {
		c = strings.TrimSpace(c)
		if c != "" && !seen[c] && gjson.Valid(c) && gjson.Parse(c).IsObject() {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, block := range fencedBlocks(raw) {
		add(block)
	}
	add(raw)
	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' {
			continue
		}
		if end := matchBrace(raw, i); end > i {
			add(raw[i : end+1])
		}
	}
	return out
}

// fencedBlocks extracts the bodies of ``` fenced blocks.
func fencedBlocks(s string) []string {
	var out []string
	for {
		start := strings.Index(s, "```")
		if start < 0 {
			return out
		}
		rest := s[start+3:]
		// skip an info string such as "json"
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "{}") {
			rest = rest[nl+1:]
		}
		end := strings.Index(rest, "```")
		if end < 0 {
			return out
		}
		out = append(out, rest[:end])
		s = rest[end+3:]
	}
}

// matchBrace returns the index of the brace closing s[open], honoring JSON
// strings, or -1.
func matchBrace(s string, open int) int {
	depth, inStr, esc := 0, false, false
	for i := open; i < len(s); i++ {
		c := s[i]
		switch {
		case esc:
			esc = false
		case inStr && c == '\\':
			esc = true
		case c == '"':
			inStr = !inStr
		case inStr:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
