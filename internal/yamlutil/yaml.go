// Package yamlutil is the one place goccy/go-yaml is called. Config files
// and document front-matter both decode through it.
package yamlutil

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize bounds a single YAML document. It matches the largest
// Markdown field a document may hold.
const MaxInputSize = 1 << 20

var (
	ErrNilDestination = errors.New("yamlutil: nil destination")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

func checkSize(data []byte) error {
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	return nil
}

// DecodeStrict decodes data into v, rejecting keys v has no field for.
// Empty input leaves v untouched.
func DecodeStrict(data []byte, v any) error {
	if v == nil {
		return ErrNilDestination
	}
	if err := checkSize(data); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// DecodeMapping parses a document whose top-level node should be a mapping.
// ok is false for valid YAML of another kind (scalar, sequence, null) and
// for empty input. Non-string keys are stringified with fmt.
func DecodeMapping(data []byte) (m map[string]any, ok bool, err error) {
	if err := checkSize(data); err != nil {
		return nil, false, err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, false, fmt.Errorf("yamlutil: %w", err)
	}

	switch node := raw.(type) {
	case map[string]any:
		return node, true, nil
	case map[any]any:
		out := make(map[string]any, len(node))
		for k, v := range node {
			out[fmt.Sprint(k)] = v
		}
		return out, true, nil
	default:
		return nil, false, nil
	}
}
