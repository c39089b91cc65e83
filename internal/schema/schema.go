// Package schema validates CI/CD task-definition documents. Every mutation
// path runs its output through Validate before the result is considered
// successful.
package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Error reports a document that failed schema validation.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("schema error: %s", e.Message)
}

// Validator checks task-definition YAML documents.
type Validator struct{}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate parses the document and checks its structural invariants. It
// returns a *Error describing the first violation found.
func (v *Validator) Validate(text string) error {
	doc, err := Parse(text)
	if err != nil {
		return err
	}

	if kind, ok := doc["kind"]; ok {
		if _, isStr := kind.(string); !isStr {
			return &Error{Field: "kind", Message: "must be a string"}
		}
	}

	if spec, ok := doc["spec"]; ok {
		if _, isMap := spec.(map[string]any); !isMap {
			return &Error{Field: "spec", Message: "must be a mapping"}
		}
	}

	if steps, ok := doc["steps"]; ok {
		list, isList := steps.([]any)
		if !isList {
			return &Error{Field: "steps", Message: "must be a sequence"}
		}
		for i, step := range list {
			if _, isMap := step.(map[string]any); !isMap {
				return &Error{Field: fmt.Sprintf("steps[%d]", i), Message: "must be a mapping"}
			}
		}
	}

	return nil
}

// Parse decodes a task-definition document into a generic mapping. A
// document that is not a non-empty YAML mapping fails with a *Error.
func Parse(text string) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &Error{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if len(doc) == 0 {
		return nil, &Error{Message: "document is empty or not a mapping"}
	}
	return doc, nil
}
