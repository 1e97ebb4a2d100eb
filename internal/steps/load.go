package steps

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// tableFile is the on-disk layout of a step table:
//
//	boundaries: [home]
//	steps:
//	  - view: recipient
//	    previous: home
//	    next: selectFile
//	    label: Recipients
type tableFile struct {
	Boundaries []View `yaml:"boundaries,omitempty"`
	Steps      []Step `yaml:"steps"`
}

// ParseTable decodes and validates a YAML step table.
// Unknown views and unknown keys are rejected while decoding.
func ParseTable(data []byte) (*Table, error) {
	var file tableFile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, &TableError{
			Kind:    ErrKindParse,
			Message: "failed to decode step table",
			Err:     err,
		}
	}

	return NewTable(file.Steps, WithBoundary(file.Boundaries...))
}

// LoadTable reads a step table from path
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read step table: %w", err)
	}

	table, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("step table %s: %w", path, err)
	}
	return table, nil
}

// MarshalTable encodes a table in the format read by ParseTable
func MarshalTable(t *Table) ([]byte, error) {
	var extra []View
	for _, v := range t.Boundaries() {
		if v != ViewHome && v != ViewExit {
			extra = append(extra, v)
		}
	}

	data, err := yaml.Marshal(tableFile{
		Boundaries: extra,
		Steps:      t.Steps(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal step table: %w", err)
	}
	return data, nil
}
