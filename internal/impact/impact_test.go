package impact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipewright/pipewright/internal/change"
)

func TestScore_EmptyChangeSet(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Score(nil, "kind: Task"))
	assert.Equal(t, 0.0, Score([]change.Descriptor{}, ""))
}

func TestScore_SingleNetworkChange(t *testing.T) {
	t.Parallel()

	changes := []change.Descriptor{{
		ID:          "ch-1",
		Title:       "Multus secondary network",
		Description: "attach to multus network",
		ImpactAreas: []string{change.AreaNetwork},
	}}

	score := Score(changes, "kind: Task")
	assert.InDelta(t, 0.2, score, 0.001)
	assert.Less(t, score, ReviewThreshold)
}

func TestScore_SecuritySensitiveLongDescription(t *testing.T) {
	t.Parallel()

	changes := []change.Descriptor{{
		ID:          "ch-1",
		Title:       "Dedicated workload identity",
		Description: strings.Repeat("requires new bindings and audit trail ", 8),
		ImpactAreas: []string{change.AreaSecurity, change.AreaServiceAccount},
	}}

	score := Score(changes, "")
	assert.GreaterOrEqual(t, score, ReviewThreshold)
}

func TestScore_LowRiskStaysUnderPointThree(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		areas []string
	}{
		{"network only", []string{change.AreaNetwork}},
		{"storage only", []string{change.AreaStorage}},
		{"resources only", []string{change.AreaResources}},
		{"unknown area", []string{"labels"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			changes := []change.Descriptor{{ID: "ch-1", Description: "short", ImpactAreas: tt.areas}}
			assert.Less(t, Score(changes, ""), 0.3)
		})
	}
}

func TestScore_ClampsToOne(t *testing.T) {
	t.Parallel()

	var changes []change.Descriptor
	for i := 0; i < 5; i++ {
		changes = append(changes, change.Descriptor{
			ID:          "ch",
			Description: strings.Repeat("x", ComplexDescriptionLimit+1),
			ImpactAreas: []string{change.AreaServiceAccount, change.AreaSecurity, change.AreaRBAC},
		})
	}

	score := Score(changes, "")
	assert.Equal(t, 1.0, score)
}

func TestComplex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		c    change.Descriptor
		want bool
	}{
		{
			"long description",
			change.Descriptor{Description: strings.Repeat("y", ComplexDescriptionLimit+1)},
			true,
		},
		{
			"suggested fields give structure",
			change.Descriptor{SuggestedFields: map[string]any{"spec.serviceAccountName": "ci"}},
			false,
		},
		{
			"known impact area gives structure",
			change.Descriptor{ImpactAreas: []string{change.AreaNetwork}},
			false,
		},
		{
			"no structure at all",
			change.Descriptor{Description: "something bespoke"},
			true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Complex(tt.c))
		})
	}
}
