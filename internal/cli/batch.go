package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright/internal/change"
	"github.com/pipewright/pipewright/internal/orchestrator"
)

var (
	batchChanges string
	batchOutDir  string
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>...",
	Short: "Apply a change set to several task definitions",
	Long: `Runs the update workflow once per task definition file, strictly
in order. A document that fails to patch is reported and skipped; the
rest of the batch still runs. Patched documents are written next to
the originals, or into --out-dir when given.

Example:
  pipewright batch tasks/*.yaml --changes changes.yaml
  pipewright batch tasks/build.yaml tasks/deploy.yaml -c changes.yaml -d patched/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchChanges, "changes", "c", "", "path to change set file (required)")
	batchCmd.Flags().StringVarP(&batchOutDir, "out-dir", "d", "", "directory to write patched documents into (default: overwrite in place)")

	batchCmd.MarkFlagRequired("changes")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	changes, err := change.Load(batchChanges)
	if err != nil {
		return fmt.Errorf("failed to load changes from %s: %w", batchChanges, err)
	}

	documents := make([]orchestrator.Document, 0, len(args))
	for _, path := range args {
		text, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read document %s: %w", path, err)
		}
		documents = append(documents, orchestrator.Document{Name: path, Text: string(text)})
	}

	orch, err := newOrchestrator()
	if err != nil {
		return err
	}

	result := orch.BatchUpdate(ctx, documents, changes)

	for _, res := range result.Results {
		if !res.Success {
			fmt.Printf("FAIL %s: %s\n", res.Name, res.Error)
			continue
		}
		out := res.Name
		if batchOutDir != "" {
			out = filepath.Join(batchOutDir, filepath.Base(res.Name))
		}
		if err := writeDocument(out, res.Document); err != nil {
			return err
		}
		fmt.Printf("OK   %s\n", out)
	}

	fmt.Print(formatBatchSummary(result))
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", result.Failed, result.Total)
	}
	return nil
}

func writeDocument(path, text string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func formatBatchSummary(r *orchestrator.BatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%d documents: %d updated, %d failed\n", r.Total, r.Successful, r.Failed)
	return b.String()
}
