package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show agent state",
	Long: `Shows the persisted agent state: aggregate run statistics and the
outcome of every task the agent has processed, in the order the tasks
were first seen.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	orch, err := newOrchestrator()
	if err != nil {
		return err
	}

	fmt.Print(formatState(orch.State()))
	return nil
}

func formatState(snap state.AgentState) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Tasks:      %d total, %d successful, %d failed\n",
		snap.Stats.TotalTasks, snap.Stats.SuccessfulTasks, snap.Stats.FailedTasks)
	if !snap.Stats.LastRun.IsZero() {
		fmt.Fprintf(&b, "Last run:   %s\n", snap.Stats.LastRun.Format("2006-01-02 15:04:05 MST"))
	}

	ids := snap.TaskHistory.TaskIDs()
	if len(ids) == 0 {
		b.WriteString("\nNo tasks recorded.\n")
		return b.String()
	}

	idWidth := len("TASK")
	for _, id := range ids {
		if len(id) > idWidth {
			idWidth = len(id)
		}
	}

	fmt.Fprintf(&b, "\n%-*s  %-8s  %-8s  %s\n", idWidth, "TASK", "STATUS", "ATTEMPTS", "LAST ACTION")
	fmt.Fprintf(&b, "%s  %s  %s  %s\n",
		strings.Repeat("-", idWidth), strings.Repeat("-", 8), strings.Repeat("-", 8), strings.Repeat("-", 11))

	for _, id := range ids {
		records := snap.TaskHistory.Get(id)
		status := "failed"
		if snap.TaskHistory.Complete(id) {
			status = "complete"
		}
		lastAction := ""
		if len(records) > 0 {
			lastAction = records[len(records)-1].Decision.Action
		}
		fmt.Fprintf(&b, "%-*s  %-8s  %-8d  %s\n", idWidth, id, status, len(records), lastAction)
	}

	return b.String()
}
