package testutil

import (
	"strings"

	"github.com/pipewright/pipewright/internal/change"
	"github.com/pipewright/pipewright/internal/state"
)

// SampleTaskDoc is a minimal valid task definition.
const SampleTaskDoc = "kind: Task\nmetadata:\n  name: build\n"

// BrokenTaskDoc fails YAML parsing.
const BrokenTaskDoc = "kind: [broken"

// SampleChangeSetYAML is a change set file body accepted by change.Load.
const SampleChangeSetYAML = `changes:
  - id: ch-multus
    title: Secondary networks
    description: attach pods to the multus overlay network
    impact_areas: [network]
`

// NetworkChange returns a low-risk change touching only the network area.
// Returns a fresh value each time to prevent test interference.
func NetworkChange() change.Descriptor {
	return change.Descriptor{
		ID:          "ch-multus",
		Title:       "Secondary networks",
		Description: "attach pods to the multus overlay network",
		ImpactAreas: []string{change.AreaNetwork},
	}
}

// RiskyChange returns a change whose long description and security-sensitive
// areas score above the review threshold.
func RiskyChange() change.Descriptor {
	return change.Descriptor{
		ID:          "ch-identity",
		Title:       "Dedicated workload identity",
		Description: strings.Repeat("new rbac bindings and audit requirements ", 8),
		ImpactAreas: []string{change.AreaSecurity, change.AreaServiceAccount},
	}
}

// Record returns a memory record with the given action and outcome.
func Record(action string, success bool) state.MemoryRecord {
	return state.MemoryRecord{
		Decision: state.Decision{Action: action},
		Result:   state.ExecutionResult{Success: success},
		Success:  success,
	}
}
