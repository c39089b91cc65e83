// Package rules applies deterministic pattern rules to task-definition
// documents: fixed match-and-insert transformations that need no generative
// reasoning. Rules run in a fixed order and each reports whether it changed
// the document; the caller takes the last produced text as the latest
// document state.
package rules

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pipewright/pipewright/internal/change"
)

// networksAnnotation is the secondary-network attachment annotation key.
const networksAnnotation = "k8s.v1.cni.cncf.io/networks"

// Result reports one rule's outcome. Text is set only when the rule changed
// the document.
type Result struct {
	Rule    string   `json:"rule"`
	Changed bool     `json:"changed"`
	Notes   []string `json:"notes,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Applier runs the built-in deterministic rules.
type Applier struct {
	rules []rule
}

type rule struct {
	name    string
	matches func(c change.Descriptor) bool
	apply   func(doc map[string]any, c change.Descriptor) (bool, []string)
}

// NewApplier creates an Applier with the built-in rule set.
func NewApplier() *Applier {
	return &Applier{rules: builtins()}
}

// Apply runs every rule against the document for each matching change and
// returns the per-rule results in rule order.
func (a *Applier) Apply(text string, changes []change.Descriptor) ([]Result, error) {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if doc == nil {
		doc = make(map[string]any)
	}

	var results []Result
	for _, r := range a.rules {
		res := Result{Rule: r.name}
		for _, c := range changes {
			if !r.matches(c) {
				continue
			}
			changed, notes := r.apply(doc, c)
			res.Notes = append(res.Notes, notes...)
			if changed {
				res.Changed = true
			}
		}
		if res.Changed {
			out, err := yaml.Marshal(doc)
			if err != nil {
				return nil, fmt.Errorf("marshal document: %w", err)
			}
			res.Text = string(out)
		}
		results = append(results, res)
	}
	return results, nil
}

// builtins returns the fixed rule set, in application order.
func builtins() []rule {
	return []rule{
		{
			name: "network-annotation",
			matches: func(c change.Descriptor) bool {
				if c.HasArea(change.AreaNetwork) {
					return true
				}
				text := strings.ToLower(c.Title + " " + c.Description)
				return strings.Contains(text, "multus")
			},
			apply: applyNetworkAnnotation,
		},
		{
			name:    "service-account",
			matches: func(c change.Descriptor) bool { return c.HasArea(change.AreaServiceAccount) },
			apply:   applyServiceAccount,
		},
		{
			name:    "resource-limits",
			matches: func(c change.Descriptor) bool { return c.HasArea(change.AreaResources) },
			apply:   applyResourceLimits,
		},
		{
			name:    "suggested-fields",
			matches: func(c change.Descriptor) bool { return len(c.SuggestedFields) > 0 },
			apply:   applySuggestedFields,
		},
	}
}

func applyNetworkAnnotation(doc map[string]any, c change.Descriptor) (bool, []string) {
	annotations := ensureMap(ensureMap(doc, "metadata"), "annotations")
	if _, exists := annotations[networksAnnotation]; exists {
		return false, []string{"network annotation already present"}
	}
	value := "default"
	if v, ok := c.SuggestedFields[networksAnnotation].(string); ok {
		value = v
	}
	annotations[networksAnnotation] = value
	return true, []string{fmt.Sprintf("added %s annotation", networksAnnotation)}
}

func applyServiceAccount(doc map[string]any, c change.Descriptor) (bool, []string) {
	spec := ensureMap(doc, "spec")
	if _, exists := spec["serviceAccountName"]; exists {
		return false, []string{"serviceAccountName already present"}
	}
	value := "default"
	if v, ok := c.SuggestedFields["spec.serviceAccountName"].(string); ok {
		value = v
	}
	spec["serviceAccountName"] = value
	return true, []string{"added spec.serviceAccountName"}
}

func applyResourceLimits(doc map[string]any, c change.Descriptor) (bool, []string) {
	resources := ensureMap(ensureMap(doc, "spec"), "resources")
	if _, exists := resources["limits"]; exists {
		return false, []string{"resource limits already present"}
	}
	resources["limits"] = map[string]any{"cpu": "500m", "memory": "256Mi"}
	return true, []string{"added default resource limits"}
}

// applySuggestedFields merges a change's suggested fields into the document.
// Keys are dotted paths from the document root; existing values are never
// overwritten.
func applySuggestedFields(doc map[string]any, c change.Descriptor) (bool, []string) {
	changed := false
	var notes []string
	for path, value := range c.SuggestedFields {
		if setPath(doc, path, value) {
			changed = true
			notes = append(notes, fmt.Sprintf("set %s from suggested fields", path))
		}
	}
	return changed, notes
}

// ensureMap returns the child mapping at key, creating it if absent or not a
// mapping.
func ensureMap(parent map[string]any, key string) map[string]any {
	if m, ok := parent[key].(map[string]any); ok {
		return m
	}
	m := make(map[string]any)
	parent[key] = m
	return m
}

// setPath sets a dotted-path key if no value exists there yet. It reports
// whether the document changed.
func setPath(doc map[string]any, path string, value any) bool {
	parts := strings.Split(path, ".")
	current := doc
	for _, part := range parts[:len(parts)-1] {
		current = ensureMap(current, part)
	}
	leaf := parts[len(parts)-1]
	if _, exists := current[leaf]; exists {
		return false
	}
	current[leaf] = value
	return true
}
