package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	updateFile    string
	updateChanges string
	updateOutput  string
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Apply a change set to a task definition",
	Long: `Runs the update workflow: the change set is applied to the task
definition through deterministic rules, or through the generative
proposer when the scope of a change cannot be determined. The patched
document is written to --output, or to stdout when no output path is
given.

Example:
  pipewright update --file tasks/build.yaml --changes changes.yaml
  pipewright update -f tasks/build.yaml -c changes.yaml -o tasks/build.yaml`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVarP(&updateFile, "file", "f", "", "path to task definition file (required)")
	updateCmd.Flags().StringVarP(&updateChanges, "changes", "c", "", "path to change set file (required)")
	updateCmd.Flags().StringVarP(&updateOutput, "output", "o", "", "write the patched document to this path instead of stdout")

	updateCmd.MarkFlagRequired("file")
	updateCmd.MarkFlagRequired("changes")

	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	document, changes, err := loadInputs(updateFile, updateChanges)
	if err != nil {
		return err
	}

	orch, err := newOrchestrator()
	if err != nil {
		return err
	}

	updated, err := orch.ProposeUpdate(ctx, document, changes)
	if err != nil {
		return err
	}

	if updateOutput != "" {
		if err := os.WriteFile(updateOutput, []byte(updated), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", updateOutput, err)
		}
		fmt.Printf("Updated document written to %s\n", updateOutput)
		return nil
	}

	fmt.Print(updated)
	return nil
}
