// Package proposer holds generative patch proposal implementations. The
// decision engine consumes proposers through its Proposer port; Passthrough
// is the implementation used when no generation backend is configured.
package proposer

import (
	"context"

	"github.com/pipewright/pipewright/internal/change"
)

// Proposal is the outcome of a generative proposal call.
type Proposal struct {
	Notes []string
	Text  string
}

// Passthrough returns the input document unchanged. The engine contract
// tolerates a no-op proposer without erroring, so deterministic rule output
// still flows through validation.
type Passthrough struct{}

// Propose returns the document as-is with an explanatory note.
func (Passthrough) Propose(ctx context.Context, text string, changes []change.Descriptor) (*Proposal, error) {
	return &Proposal{
		Notes: []string{"no generation backend configured, returning document unchanged"},
		Text:  text,
	}, nil
}
