// Package change defines upstream capability change descriptors and the
// loader that reads change sets from disk. A descriptor describes one
// upstream change in terms the rest of the system reasons about: which
// areas of a task definition it touches and which fields it suggests.
package change

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Impact area values recognised by the scorer and the rule applier.
const (
	AreaServiceAccount = "serviceAccount"
	AreaSecurity       = "security"
	AreaRBAC           = "rbac"
	AreaNetwork        = "network"
	AreaStorage        = "storage"
	AreaResources      = "resources"
)

// Descriptor describes a single upstream capability change.
// Descriptors are immutable once loaded.
type Descriptor struct {
	ID              string         `yaml:"id" json:"id"`
	Title           string         `yaml:"title" json:"title"`
	Description     string         `yaml:"description,omitempty" json:"description,omitempty"`
	ImpactAreas     []string       `yaml:"impact_areas,omitempty" json:"impact_areas,omitempty"`
	SuggestedFields map[string]any `yaml:"suggested_fields,omitempty" json:"suggested_fields,omitempty"`
}

// HasArea reports whether the change flags the given impact area.
func (d *Descriptor) HasArea(area string) bool {
	for _, a := range d.ImpactAreas {
		if a == area {
			return true
		}
	}
	return false
}

// changeFile is the on-disk change set format.
type changeFile struct {
	Changes []Descriptor `yaml:"changes"`
}

// Load reads a change set from a YAML file. The file holds either a bare
// list of descriptors or a mapping with a top-level "changes" key.
func Load(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read change set: %w", err)
	}
	return Parse(data)
}

// Parse decodes a change set from YAML bytes. An empty document or an
// empty "changes" entry is a valid, empty change set.
func Parse(data []byte) ([]Descriptor, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse change set: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.MappingNode {
		if !hasKey(root, "changes") {
			return nil, fmt.Errorf("change set: missing changes key")
		}
		var file changeFile
		if err := root.Decode(&file); err != nil {
			return nil, fmt.Errorf("parse change set: %w", err)
		}
		return validate(file.Changes)
	}

	var list []Descriptor
	if err := root.Decode(&list); err != nil {
		return nil, fmt.Errorf("parse change set: %w", err)
	}
	return validate(list)
}

func hasKey(mapping *yaml.Node, key string) bool {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return true
		}
	}
	return false
}

func validate(changes []Descriptor) ([]Descriptor, error) {
	for i, c := range changes {
		if c.ID == "" {
			return nil, fmt.Errorf("change %d: missing id", i)
		}
	}
	return changes, nil
}
