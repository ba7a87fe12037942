package korvet

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParsePattern parses a pattern from either JSON or YAML bytes, trying JSON
// first, and validates the result. This is the shape persisted and shared by
// the out-of-process collaborators (pattern storage, URL sharing), so it
// round-trips every field of Pattern, Track and Step, per-step parameter
// overrides included.
func ParsePattern(data []byte) (*Pattern, error) {
	var pattern Pattern
	if errJSON := json.Unmarshal(data, &pattern); errJSON != nil {
		if errYaml := yaml.Unmarshal(data, &pattern); errYaml != nil {
			return nil, fmt.Errorf("the pattern could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	if err := pattern.Validate(); err != nil {
		return nil, fmt.Errorf("parsed pattern is invalid: %w", err)
	}
	return &pattern, nil
}

// JSON serializes the pattern to the shared JSON shape.
func (p *Pattern) JSON() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal pattern to json: %w", err)
	}
	return data, nil
}

// YAML serializes the pattern to YAML, for hand-edited pattern files.
func (p *Pattern) YAML() ([]byte, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal pattern to yaml: %w", err)
	}
	return data, nil
}
