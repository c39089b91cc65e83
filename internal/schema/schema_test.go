package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{
			"valid task definition",
			"kind: Task\nmetadata:\n  name: build\nspec:\n  serviceAccountName: ci\n",
			"",
		},
		{
			"valid with steps",
			"kind: Task\nsteps:\n  - name: compile\n    image: golang\n",
			"",
		},
		{
			"invalid yaml",
			"kind: [unclosed",
			"invalid YAML",
		},
		{
			"empty document",
			"",
			"empty",
		},
		{
			"scalar document",
			"just a string",
			"invalid YAML",
		},
		{
			"spec not a mapping",
			"kind: Task\nspec: 42\n",
			"spec",
		},
		{
			"kind not a string",
			"kind: [a, b]\n",
			"kind",
		},
		{
			"steps not a sequence",
			"kind: Task\nsteps: nope\n",
			"steps",
		},
		{
			"step entry not a mapping",
			"kind: Task\nsteps:\n  - just-a-string\n",
			"steps[0]",
		},
	}

	v := NewValidator()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := v.Validate(tt.text)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var schemaErr *Error
			assert.True(t, errors.As(err, &schemaErr))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	doc, err := Parse("kind: Task\nmetadata:\n  name: deploy\n")
	require.NoError(t, err)
	assert.Equal(t, "Task", doc["kind"])

	meta, ok := doc["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "deploy", meta["name"])
}
