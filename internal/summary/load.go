package summary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"beliefd/internal/common/fsutil"
)

// readDocument normalizes the accepted input forms into a decoded record list.
// A string is a path to a UTF-8 JSON document; []byte and json.RawMessage are
// the document itself; []any and map[string]any are already decoded. A
// top-level mapping is treated as a single record.
func readDocument(input any) ([]any, error) {
	var raw []byte
	switch v := input.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%w: empty path", ErrInputType)
		}
		p, err := fsutil.ResolvePath(v)
		if err != nil {
			return nil, err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		raw = b
	case []byte:
		raw = v
	case json.RawMessage:
		raw = v
	case []any, map[string]any:
		// Round-trip so numbers decode as json.Number like the other forms.
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInputType, err)
		}
		raw = b
	default:
		return nil, fmt.Errorf("%w: %T", ErrInputType, input)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrInputType, err)
	}
	switch d := doc.(type) {
	case []any:
		return d, nil
	case map[string]any:
		return []any{d}, nil
	default:
		return nil, fmt.Errorf("%w: document root must be a list or mapping", ErrInputType)
	}
}

// decodeRecords validates doc against schema and decodes it into out.
func decodeRecords(schema *jsonschema.Schema, doc []any, out any) error {
	if err := validateDocument(schema, doc); err != nil {
		return err
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

// LoadIntents reads and validates intents from any accepted input form.
func LoadIntents(input any) ([]Intent, error) {
	if typed, ok := input.([]Intent); ok {
		return typed, nil
	}
	doc, err := readDocument(input)
	if err != nil {
		return nil, err
	}
	var intents []Intent
	if err := decodeRecords(intentsSchema, doc, &intents); err != nil {
		return nil, err
	}
	return intents, nil
}

// LoadCollectRequests reads and validates collect requests from any accepted input form.
func LoadCollectRequests(input any) ([]CollectRequest, error) {
	if typed, ok := input.([]CollectRequest); ok {
		return typed, nil
	}
	doc, err := readDocument(input)
	if err != nil {
		return nil, err
	}
	var reqs []CollectRequest
	if err := decodeRecords(collectRequestsSchema, doc, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}
