// Package jsonmerge deep-merges JSON documents. It is used to fold template
// editor settings into a user's existing .vscode/settings.json without
// discarding keys the template does not know about.
package jsonmerge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Merge returns existing with update folded in. When both values are
// objects their keys are merged recursively and update wins on conflict;
// in every other case update replaces existing wholesale, so arrays are
// never concatenated. Neither input is modified.
func Merge(existing, update any) any {
	em, eok := existing.(map[string]any)
	um, uok := update.(map[string]any)
	if !eok || !uok {
		return update
	}

	out := make(map[string]any, len(em)+len(um))
	for k, v := range em {
		out[k] = v
	}
	for k, v := range um {
		if prev, ok := out[k]; ok {
			out[k] = Merge(prev, v)
		} else {
			out[k] = v
		}
	}
	return out
}

// MergeFile merges update into the JSON object stored at name inside root
// and returns the result. A missing, unreadable or malformed file counts as
// an empty object, so the result is then update itself. Comments and
// trailing commas are accepted. The file is not written.
func MergeFile(root *os.Root, name string, update map[string]any) map[string]any {
	existing := map[string]any{}
	if data, err := root.ReadFile(name); err == nil {
		if obj, err := Decode(data); err == nil {
			existing = obj
		}
	}
	merged, _ := Merge(existing, update).(map[string]any)
	return merged
}

// Decode parses a JSON or JSONC object. Numbers are kept as json.Number so
// re-encoding does not change their text.
func Decode(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decoding JSON object: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("decoding JSON object: top-level value is null")
	}
	return obj, nil
}

// Encode renders v as indented JSON with a trailing newline. HTML characters
// are not escaped.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes v as indented JSON to name inside root.
func WriteFile(root *os.Root, name string, v any, perm os.FileMode) error {
	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := root.WriteFile(name, data, perm); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
