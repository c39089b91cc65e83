// Package impact scores the risk of applying a set of upstream changes to a
// task definition. Scoring is a pure function over the change set: no I/O,
// no side effects, deterministic for a given input.
package impact

import "github.com/pipewright/pipewright/internal/change"

// ReviewThreshold is the score above which a change set is flagged for
// human review rather than applied automatically.
const ReviewThreshold = 0.7

// ComplexDescriptionLimit is the description length beyond which a change is
// considered too complex for deterministic rules alone.
const ComplexDescriptionLimit = 200

// complexitySurcharge is added per change whose description exceeds
// ComplexDescriptionLimit.
const complexitySurcharge = 0.15

// areaWeights maps impact areas to fixed risk increments. Security-sensitive
// areas carry the largest weights.
var areaWeights = map[string]float64{
	change.AreaServiceAccount: 0.4,
	change.AreaSecurity:       0.35,
	change.AreaRBAC:           0.35,
	change.AreaNetwork:        0.2,
	change.AreaStorage:        0.15,
	change.AreaResources:      0.1,
}

// defaultAreaWeight applies to impact areas without a configured weight.
const defaultAreaWeight = 0.05

// Score estimates the risk of applying the given changes to the document,
// normalized to [0, 1]. An empty or absent change set scores 0.
func Score(changes []change.Descriptor, document string) float64 {
	score := 0.0
	for _, c := range changes {
		for _, area := range c.ImpactAreas {
			w, ok := areaWeights[area]
			if !ok {
				w = defaultAreaWeight
			}
			score += w
		}
		if len(c.Description) > ComplexDescriptionLimit {
			score += complexitySurcharge
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Complex reports whether a change lacks exploitable deterministic structure
// or carries a description long enough to need a generative proposal.
func Complex(c change.Descriptor) bool {
	if len(c.Description) > ComplexDescriptionLimit {
		return true
	}
	if len(c.SuggestedFields) > 0 {
		return false
	}
	for _, area := range c.ImpactAreas {
		if _, ok := areaWeights[area]; ok {
			return false
		}
	}
	return true
}
