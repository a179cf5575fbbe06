// Package prompts loads the semantic prompt vocabulary the analyzer scores
// images against.
package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Defaults is the built-in prompt vocabulary, used when no prompts file is
// configured. Order matters: score mappings preserve it.
var Defaults = []string{"leaves", "nature", "green tones", "eco-friendly symbols", "logos", "plastic"}

// schema constrains a prompts file: a non-empty array of unique, non-empty
// strings.
const schemaJSON = `{
  "type": "array",
  "minItems": 1,
  "uniqueItems": true,
  "items": {"type": "string", "minLength": 1}
}`

var promptSchema = jsonschema.MustCompileString("prompts.json", schemaJSON)

// Load returns the prompt set from path, or Defaults when path is empty.
// The file must be a JSON array of non-empty strings.
func Load(path string) ([]string, error) {
	if path == "" {
		out := make([]string, len(Defaults))
		copy(out, Defaults)
		return out, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse prompts file %q: %w", path, err)
	}
	if err := promptSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid prompts file %q: %w", path, err)
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse prompts file %q: %w", path, err)
	}
	return out, nil
}
