package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errNoJSONObject = errors.New("no JSON object in model output")

// Schema describes the JSON object a prompt expects back. Only top-level
// required keys are enforced; value shapes are enforced by decoding into out.
type Schema struct {
	Name     string
	Required []string
}

// Instruction is appended to the system message so the model answers in shape
func (s Schema) Instruction() string {
	if len(s.Required) == 0 {
		return "Respond with a single JSON object and nothing else."
	}
	return fmt.Sprintf("Respond with a single JSON object and nothing else. Required keys: %s.",
		strings.Join(s.Required, ", "))
}

// Decode extracts the JSON object from raw model output, checks the required
// keys and unmarshals it into out. Failures are KindMalformedOutput.
func (s Schema) Decode(raw string, out interface{}) error {
	body := ExtractJSON(raw)
	if body == "" {
		return NewError(KindMalformedOutput, "", fmt.Errorf("%s: %w", s.Name, errNoJSONObject))
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &keys); err != nil {
		return NewError(KindMalformedOutput, "", fmt.Errorf("%s: %w", s.Name, err))
	}
	for _, k := range s.Required {
		v, ok := keys[k]
		if !ok || string(v) == "null" {
			return NewError(KindMalformedOutput, "", fmt.Errorf("%s: missing key %q", s.Name, k))
		}
	}

	if err := json.Unmarshal([]byte(body), out); err != nil {
		return NewError(KindMalformedOutput, "", fmt.Errorf("%s: %w", s.Name, err))
	}
	return nil
}

// ExtractJSON returns the text between the first '{' and the last '}'.
// Models often wrap JSON in prose or code fences.
func ExtractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
