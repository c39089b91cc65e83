package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright/internal/orchestrator"
)

var (
	analyzeFile    string
	analyzeChanges string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score the impact of a change set",
	Long: `Runs the impact analysis workflow without modifying the task
definition. The change set is scored against the document and the
result says whether the changes are safe to auto-apply or need a
human review first.

Example:
  pipewright analyze --file tasks/build.yaml --changes changes.yaml`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "path to task definition file (required)")
	analyzeCmd.Flags().StringVarP(&analyzeChanges, "changes", "c", "", "path to change set file (required)")

	analyzeCmd.MarkFlagRequired("file")
	analyzeCmd.MarkFlagRequired("changes")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	document, changes, err := loadInputs(analyzeFile, analyzeChanges)
	if err != nil {
		return err
	}

	orch, err := newOrchestrator()
	if err != nil {
		return err
	}

	analysis, err := orch.AnalyzeImpact(ctx, document, changes)
	if err != nil {
		return err
	}

	fmt.Print(formatAnalysis(analysis))
	return nil
}

func formatAnalysis(a *orchestrator.ImpactAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Impact score:    %.2f\n", a.ImpactScore)
	if a.RequiresReview {
		b.WriteString("Requires review: yes\n")
	} else {
		b.WriteString("Requires review: no\n")
	}
	if a.Recommendation != "" {
		fmt.Fprintf(&b, "Recommendation:  %s\n", a.Recommendation)
	}
	if a.Reasoning != "" {
		fmt.Fprintf(&b, "Reasoning:       %s\n", a.Reasoning)
	}
	return b.String()
}
