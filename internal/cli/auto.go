package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright/internal/impact"
)

var (
	autoFile      string
	autoChanges   string
	autoOutput    string
	autoThreshold float64
)

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Analyze a change set and apply it when safe",
	Long: `Runs the auto-update workflow: the change set is scored first and the
update is applied only when the impact score stays within the threshold
and the analysis does not flag the changes for review. When the update
is held back, the analysis is printed so a human can take over.

Example:
  pipewright auto --file tasks/build.yaml --changes changes.yaml
  pipewright auto -f tasks/build.yaml -c changes.yaml --threshold 0.5 -o tasks/build.yaml`,
	RunE: runAuto,
}

func init() {
	autoCmd.Flags().StringVarP(&autoFile, "file", "f", "", "path to task definition file (required)")
	autoCmd.Flags().StringVarP(&autoChanges, "changes", "c", "", "path to change set file (required)")
	autoCmd.Flags().StringVarP(&autoOutput, "output", "o", "", "write the patched document to this path instead of stdout")
	autoCmd.Flags().Float64VarP(&autoThreshold, "threshold", "t", impact.ReviewThreshold, "maximum impact score to auto-apply")

	autoCmd.MarkFlagRequired("file")
	autoCmd.MarkFlagRequired("changes")

	rootCmd.AddCommand(autoCmd)
}

func runAuto(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	document, changes, err := loadInputs(autoFile, autoChanges)
	if err != nil {
		return err
	}

	orch, err := newOrchestrator()
	if err != nil {
		return err
	}

	result, err := orch.AutoUpdate(ctx, document, changes, autoThreshold)
	if err != nil {
		return err
	}

	if !result.Applied {
		fmt.Printf("Update not applied: %s\n\n", result.Reason)
		fmt.Print(formatAnalysis(result.Analysis))
		return nil
	}

	if autoOutput != "" {
		if err := os.WriteFile(autoOutput, []byte(result.Document), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", autoOutput, err)
		}
		fmt.Printf("Updated document written to %s\n", autoOutput)
		return nil
	}

	fmt.Print(result.Document)
	return nil
}
