package cli

import (
	"fmt"
	"os"

	"github.com/pipewright/pipewright/internal/change"
	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/engine"
	"github.com/pipewright/pipewright/internal/orchestrator"
	"github.com/pipewright/pipewright/internal/proposer"
	"github.com/pipewright/pipewright/internal/rules"
	"github.com/pipewright/pipewright/internal/schema"
)

// newOrchestrator wires an orchestrator from the config in the current
// working directory.
func newOrchestrator() (*orchestrator.Orchestrator, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg, err := config.LoadConfig(cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return orchestrator.New(orchestrator.Options{
		Config:    cfg,
		Rules:     rules.NewApplier(),
		Proposer:  proposer.Passthrough{},
		Validator: schema.NewValidator(),
		Changes:   engine.ChangeSourceFunc(change.Load),
	}), nil
}

// loadInputs reads a task definition document and a change set file.
func loadInputs(documentPath, changesPath string) (string, []change.Descriptor, error) {
	doc, err := os.ReadFile(documentPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read document %s: %w", documentPath, err)
	}

	changes, err := change.Load(changesPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load changes from %s: %w", changesPath, err)
	}

	return string(doc), changes, nil
}
