package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pipewright/pipewright/internal/change"
)

// lastText returns the last produced document text, mirroring how the
// decision engine consumes rule results.
func lastText(results []Result) string {
	text := ""
	for _, r := range results {
		if r.Text != "" {
			text = r.Text
		}
	}
	return text
}

func parseDoc(t *testing.T, text string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(text), &doc))
	return doc
}

func TestApply_NetworkAnnotationForMultusChange(t *testing.T) {
	t.Parallel()

	applier := NewApplier()
	changes := []change.Descriptor{{
		ID:          "ch-1",
		Title:       "Secondary networks",
		Description: "pods must attach to the multus overlay",
		ImpactAreas: []string{change.AreaNetwork},
	}}

	results, err := applier.Apply("kind: Task\nmetadata:\n  name: build\n", changes)
	require.NoError(t, err)

	text := lastText(results)
	require.NotEmpty(t, text)

	doc := parseDoc(t, text)
	meta := doc["metadata"].(map[string]any)
	annotations := meta["annotations"].(map[string]any)
	assert.Equal(t, "default", annotations["k8s.v1.cni.cncf.io/networks"])
}

func TestApply_NetworkAnnotationIdempotent(t *testing.T) {
	t.Parallel()

	applier := NewApplier()
	changes := []change.Descriptor{{ID: "ch-1", ImpactAreas: []string{change.AreaNetwork}}}

	doc := "kind: Task\nmetadata:\n  annotations:\n    k8s.v1.cni.cncf.io/networks: existing\n"
	results, err := applier.Apply(doc, changes)
	require.NoError(t, err)

	assert.Empty(t, lastText(results))
	for _, r := range results {
		assert.False(t, r.Changed)
	}
}

func TestApply_ServiceAccountFromSuggestedFields(t *testing.T) {
	t.Parallel()

	applier := NewApplier()
	changes := []change.Descriptor{{
		ID:          "ch-1",
		ImpactAreas: []string{change.AreaServiceAccount},
		SuggestedFields: map[string]any{
			"spec.serviceAccountName": "ci-runner",
		},
	}}

	results, err := applier.Apply("kind: Task\n", changes)
	require.NoError(t, err)

	doc := parseDoc(t, lastText(results))
	spec := doc["spec"].(map[string]any)
	assert.Equal(t, "ci-runner", spec["serviceAccountName"])
}

func TestApply_ResourceLimits(t *testing.T) {
	t.Parallel()

	applier := NewApplier()
	changes := []change.Descriptor{{ID: "ch-1", ImpactAreas: []string{change.AreaResources}}}

	results, err := applier.Apply("kind: Task\n", changes)
	require.NoError(t, err)

	doc := parseDoc(t, lastText(results))
	limits := doc["spec"].(map[string]any)["resources"].(map[string]any)["limits"].(map[string]any)
	assert.Equal(t, "500m", limits["cpu"])
	assert.Equal(t, "256Mi", limits["memory"])
}

func TestApply_SuggestedFieldsNeverOverwrite(t *testing.T) {
	t.Parallel()

	applier := NewApplier()
	changes := []change.Descriptor{{
		ID: "ch-1",
		SuggestedFields: map[string]any{
			"spec.timeout":  "30m",
			"metadata.name": "replacement",
		},
	}}

	results, err := applier.Apply("kind: Task\nmetadata:\n  name: original\n", changes)
	require.NoError(t, err)

	doc := parseDoc(t, lastText(results))
	assert.Equal(t, "30m", doc["spec"].(map[string]any)["timeout"])
	assert.Equal(t, "original", doc["metadata"].(map[string]any)["name"])
}

func TestApply_NoMatchingChanges(t *testing.T) {
	t.Parallel()

	applier := NewApplier()
	results, err := applier.Apply("kind: Task\n", []change.Descriptor{{ID: "ch-1", Description: "nothing actionable"}})
	require.NoError(t, err)

	assert.Len(t, results, 4)
	assert.Empty(t, lastText(results))
}

func TestApply_InvalidDocument(t *testing.T) {
	t.Parallel()

	applier := NewApplier()
	_, err := applier.Apply("kind: [broken", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse document")
}
