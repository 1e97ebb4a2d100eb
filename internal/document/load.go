package document

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ParseDraft decodes a YAML draft and checks recipient roles
func ParseDraft(data []byte) (*Draft, error) {
	draft := NewDraft("")
	if err := yaml.Unmarshal(data, draft); err != nil {
		return nil, fmt.Errorf("failed to parse draft: %w", err)
	}

	for i, r := range draft.Recipients {
		if r.Role == "" {
			draft.Recipients[i].Role = RoleSigner
			continue
		}
		if !r.Role.Valid() {
			return nil, fmt.Errorf("recipient %d (%s): unknown role %q", i+1, r.Name, r.Role)
		}
	}

	return draft, nil
}

// LoadDraft reads a YAML draft from path
func LoadDraft(path string) (*Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}
	return ParseDraft(data)
}

// SaveDraft writes the draft to path as YAML
func SaveDraft(path string, d *Draft) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}
	return nil
}

// FilesFromDir lists the regular files in dir (not recursive), sorted by name.
// It stands in for the host document system's file list.
func FilesFromDir(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var files []File
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		files = append(files, File{Name: entry.Name(), Size: info.Size()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
